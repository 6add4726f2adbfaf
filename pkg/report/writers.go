package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"strconv"
	"strings"
)

// jsonLabel — форма метки в labels.json.
type jsonLabel struct {
	Label      string   `json:"label"`
	Confidence float64  `json:"confidence"`
	Parents    []string `json:"parents,omitempty"`
}

// WriteJSON пишет labels.json: объект с ключом на каждую картинку.
//
// Значение — список {label, confidence, parents}. Отступ в 2 пробела,
// как в исходном пайплайне.
func (r *Report) WriteJSON(path string) error {
	out := make(map[string][]jsonLabel, len(r.results))
	for _, res := range r.results {
		labels := make([]jsonLabel, 0, len(res.Labels))
		for _, lab := range res.Labels {
			labels = append(labels, jsonLabel{
				Label:      lab.Name,
				Confidence: lab.Confidence,
				Parents:    lab.Parents,
			})
		}
		out[res.Image] = labels
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal json: %v", ErrWrite, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	return nil
}

// WriteCSV пишет labels.csv: заголовок + строка на каждую пару (image, label).
//
// Родительские метки склеиваются через ";" в одну колонку.
func (r *Report) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write([]string{"image", "label", "confidence", "parents"}); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}

	for _, row := range r.Rows() {
		record := []string{
			row.Image,
			row.Label,
			strconv.FormatFloat(row.Confidence, 'f', 2, 64),
			strings.Join(row.Parents, ";"),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	return nil
}

// htmlReport — шаблон статического отчёта: одна таблица, inline CSS,
// никакой интерактивности. html/template сам экранирует имена меток.
var htmlReport = template.Must(template.New("report").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
body { font-family: system-ui, -apple-system, Segoe UI, Roboto, Arial; padding:20px }
table { border-collapse: collapse; width: 100% }
th, td { border: 1px solid #ddd; padding: 8px; }
th { background: #f2f2f2; text-align:left }
code { background:#f6f8fa; padding:2px 4px; border-radius:4px }
</style></head>
<body>
<h1>{{.Title}}</h1>
<p>Generated from <code>{{.Source}}</code></p>
<table>
  <thead><tr><th>Image</th><th>Label</th><th>Confidence</th><th>Parents</th></tr></thead>
  <tbody>
{{- range .Rows}}
  <tr><td>{{.Image}}</td><td>{{.Label}}</td><td>{{printf "%.2f" .Confidence}}</td><td>{{.ParentsJoined}}</td></tr>
{{- end}}
  </tbody>
</table>
</body></html>
`))

// htmlRowData — строка таблицы с заранее склеенными родителями.
type htmlRowData struct {
	Image         string
	Label         string
	Confidence    float64
	ParentsJoined string
}

// WriteHTML пишет report.html — статическую таблицу по всем меткам.
func (r *Report) WriteHTML(path string) error {
	rows := r.Rows()
	data := struct {
		Title  string
		Source string
		Rows   []htmlRowData
	}{
		Title:  r.Title,
		Source: JSONFileName,
		Rows:   make([]htmlRowData, 0, len(rows)),
	}

	for _, row := range rows {
		data.Rows = append(data.Rows, htmlRowData{
			Image:         row.Image,
			Label:         row.Label,
			Confidence:    row.Confidence,
			ParentsJoined: strings.Join(row.Parents, ", "),
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	defer f.Close()

	if err := htmlReport.Execute(f, data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	return nil
}
