// Интерфейс Детектора через который работает весь пайплайн.

package detect

import (
	"context"
	"math"

	"github.com/ilkoid/labelgen/pkg/s3storage"
)

// Detector — контракт для любого сервиса распознавания меток.
//
// Реализации: rekognition (AWS) и vision (OpenAI-совместимые модели).
type Detector interface {
	// DetectLabels распознаёт метки для одного объекта в хранилище.
	DetectLabels(ctx context.Context, ref s3storage.ObjectRef) (*Result, error)
}

// Instance — прямоугольная область, в которой метка найдена на картинке.
//
// Координаты нормализованы к [0, 1] относительно размеров картинки.
type Instance struct {
	Left       float64 `json:"left"`
	Top        float64 `json:"top"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
}

// Label — одна распознанная метка.
//
// Иммутабельна после создания. Принадлежит ровно одной картинке.
type Label struct {
	Name       string     `json:"name"`
	Confidence float64    `json:"confidence"` // 0-100, округлено до 2 знаков
	Parents    []string   `json:"parents,omitempty"`
	Instances  []Instance `json:"instances,omitempty"`
}

// Result — все метки одной картинки.
type Result struct {
	// Image — канонический идентификатор s3://bucket/key
	Image  string
	Labels []Label
}

// RoundConfidence округляет уверенность до 2 знаков после запятой.
//
// Так делает исходный пайплайн, и так метки попадают во все три отчёта.
func RoundConfidence(v float64) float64 {
	return math.Round(v*100) / 100
}
