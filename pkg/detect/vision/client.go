// Package vision реализует бэкенд распознавания через OpenAI-совместимые
// vision-модели (OpenAI, GLM-4.6v и т.д.).
//
// В отличие от rekognition, модель не умеет читать S3 сама: мы скачиваем
// объект, ужимаем его и отправляем как base64 data-URI.
package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ilkoid/labelgen/pkg/config"
	"github.com/ilkoid/labelgen/pkg/detect"
	"github.com/ilkoid/labelgen/pkg/s3storage"
	"github.com/ilkoid/labelgen/pkg/utils"
)

// labelPrompt — инструкция для модели. Ответ обязан быть JSON массивом,
// иначе parseLabels вернёт ошибку и объект будет пропущен.
const labelPrompt = `You are an image labeling service. List the objects, scenes and concepts visible in this image.
Respond with ONLY a JSON array, no other text. Each element:
{"name": "<label>", "confidence": <0-100 number>, "parents": ["<broader category>", ...]}
Order by confidence, highest first. At most %d labels.`

// Client реализует интерфейс detect.Detector поверх chat completion API.
type Client struct {
	api           *openai.Client
	model         string
	storage       s3storage.ClientInterface
	maxLabels     int
	minConfidence float64
	maxWidth      int
	quality       int
}

// Проверка что Client реализует detect.Detector
var _ detect.Detector = (*Client)(nil)

// NewClient создает vision клиент на основе конфигурации модели.
//
// Поддержка custom BaseURL для non-OpenAI провайдеров (Zai, DeepSeek и т.д.).
func NewClient(modelDef config.ModelDef, det config.DetectorConfig, imgCfg config.ImageProcConfig, storage s3storage.ClientInterface) *Client {
	cfg := openai.DefaultConfig(modelDef.APIKey)
	if modelDef.BaseURL != "" {
		cfg.BaseURL = modelDef.BaseURL
	}

	quality := imgCfg.Quality
	if quality == 0 {
		quality = 85
	}

	return &Client{
		api:           openai.NewClientWithConfig(cfg),
		model:         modelDef.ModelName,
		storage:       storage,
		maxLabels:     det.MaxLabels,
		minConfidence: det.MinConfidence,
		maxWidth:      imgCfg.MaxWidth,
		quality:       quality,
	}
}

// DetectLabels скачивает объект, отправляет его модели и парсит ответ.
//
// Алгоритм:
//  1. Скачиваем байты из хранилища
//  2. Ресайзим и перекодируем в JPEG (модели не нужен оригинал в 20MB)
//  3. Собираем data-URI и MultiContent запрос
//  4. Вызываем API
//  5. Извлекаем JSON массив из ответа и применяем порог уверенности
func (c *Client) DetectLabels(ctx context.Context, ref s3storage.ObjectRef) (*detect.Result, error) {
	startTime := time.Now()

	utils.Debug("Vision request started", "image", ref.String(), "model", c.model)

	rawBytes, err := c.storage.DownloadFile(ctx, ref.Key)
	if err != nil {
		return nil, detect.WrapDetection(ref.String(), err)
	}

	jpegBytes, err := utils.ResizeImage(rawBytes, c.maxWidth, c.quality)
	if err != nil {
		return nil, detect.WrapDetection(ref.String(), err)
	}

	// Обычно провайдеры (OpenAI, GLM-4.6v) хотят data:image/jpeg;base64,...
	dataURI := fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(jpegBytes))

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: fmt.Sprintf(labelPrompt, c.maxLabels),
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURI,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		utils.Error("Vision API request failed",
			"image", ref.String(),
			"model", c.model,
			"error", err,
			"duration_ms", time.Since(startTime).Milliseconds())
		return nil, detect.WrapDetection(ref.String(), fmt.Errorf("vision api error: %w", err))
	}

	if len(resp.Choices) == 0 {
		return nil, detect.WrapDetection(ref.String(), fmt.Errorf("no choices in response"))
	}

	labels, err := parseLabels(resp.Choices[0].Message.Content, c.minConfidence, c.maxLabels)
	if err != nil {
		return nil, detect.WrapDetection(ref.String(), err)
	}

	utils.Info("Vision response received",
		"image", ref.String(),
		"model", c.model,
		"labels_count", len(labels),
		"duration_ms", time.Since(startTime).Milliseconds())

	return &detect.Result{Image: ref.String(), Labels: labels}, nil
}

// visionLabel — сырой элемент из ответа модели.
type visionLabel struct {
	Name       string   `json:"name"`
	Confidence float64  `json:"confidence"`
	Parents    []string `json:"parents"`
}

// parseLabels извлекает JSON массив меток из текста ответа модели.
//
// Модель может обернуть массив в markdown или добавить пояснения —
// чистим обёртку и вытаскиваем первый сбалансированный массив.
// Порог уверенности и лимит применяем здесь: API модели сам этого не умеет.
func parseLabels(content string, minConfidence float64, maxLabels int) ([]detect.Label, error) {
	cleaned := utils.CleanJsonBlock(content)
	raw := utils.ExtractJSONArray(cleaned)
	if raw == "" {
		return nil, fmt.Errorf("no JSON array in model reply: %q", content)
	}

	var parsed []visionLabel
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse model reply: %w", err)
	}

	labels := make([]detect.Label, 0, len(parsed))
	for _, v := range parsed {
		if v.Name == "" {
			continue
		}
		if v.Confidence < minConfidence {
			continue
		}
		if maxLabels > 0 && len(labels) >= maxLabels {
			break
		}
		labels = append(labels, detect.Label{
			Name:       v.Name,
			Confidence: detect.RoundConfidence(v.Confidence),
			Parents:    v.Parents,
		})
	}

	return labels, nil
}
