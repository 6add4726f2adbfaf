// Package report накапливает результаты распознавания и сериализует их
// в три формата: JSON, CSV и статический HTML.
//
// Report заполняется последовательно в цикле детекции и после него
// не мутируется. Порядок картинок в отчётах совпадает с порядком
// обхода локальной директории.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilkoid/labelgen/pkg/detect"
	"github.com/ilkoid/labelgen/pkg/utils"
)

// Имена выходных файлов. Фиксированы, как и в исходном пайплайне.
const (
	JSONFileName = "labels.json"
	CSVFileName  = "labels.csv"
	HTMLFileName = "report.html"
)

// ErrWrite возвращается при ошибке записи любого из отчётов
// (права, место на диске).
var ErrWrite = errors.New("report write failed")

// ImageResult — метки одной картинки в отчёте.
type ImageResult struct {
	Image  string
	Labels []detect.Label
}

// Report — единственная общая структура, из которой читают все три writer-а.
type Report struct {
	Title   string
	results []ImageResult
}

// New создает пустой отчёт с заголовком (используется в HTML).
func New(title string) *Report {
	return &Report{Title: title}
}

// Add добавляет результат одной картинки, сохраняя порядок добавления.
func (r *Report) Add(res *detect.Result) {
	r.results = append(r.results, ImageResult{
		Image:  res.Image,
		Labels: res.Labels,
	})
}

// Len возвращает количество картинок в отчёте.
func (r *Report) Len() int {
	return len(r.results)
}

// Results возвращает накопленные результаты в порядке добавления.
func (r *Report) Results() []ImageResult {
	return r.results
}

// Rows разворачивает отчёт в плоские (image, label) строки для CSV и HTML.
func (r *Report) Rows() []Row {
	var rows []Row
	for _, res := range r.results {
		for _, lab := range res.Labels {
			rows = append(rows, Row{
				Image:      res.Image,
				Label:      lab.Name,
				Confidence: lab.Confidence,
				Parents:    lab.Parents,
			})
		}
	}
	return rows
}

// Row — одна плоская строка отчёта.
type Row struct {
	Image      string
	Label      string
	Confidence float64
	Parents    []string
}

// WriteAll записывает все три отчёта в директорию dir.
//
// Форматы пишутся независимо: ошибка одного не мешает попытке записать
// остальные. Возвращается объединённая ошибка (или nil).
func (r *Report) WriteAll(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: create output dir %s: %v", ErrWrite, dir, err)
	}

	var errs []error

	jsonPath := filepath.Join(dir, JSONFileName)
	if err := r.WriteJSON(jsonPath); err != nil {
		utils.Error("JSON report failed", "path", jsonPath, "error", err)
		errs = append(errs, err)
	} else {
		utils.Info("JSON report written", "path", jsonPath)
	}

	csvPath := filepath.Join(dir, CSVFileName)
	if err := r.WriteCSV(csvPath); err != nil {
		utils.Error("CSV report failed", "path", csvPath, "error", err)
		errs = append(errs, err)
	} else {
		utils.Info("CSV report written", "path", csvPath)
	}

	htmlPath := filepath.Join(dir, HTMLFileName)
	if err := r.WriteHTML(htmlPath); err != nil {
		utils.Error("HTML report failed", "path", htmlPath, "error", err)
		errs = append(errs, err)
	} else {
		utils.Info("HTML report written", "path", htmlPath)
	}

	return errors.Join(errs...)
}
