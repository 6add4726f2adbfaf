package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/labelgen/pkg/detect"
)

// sampleReport собирает отчёт из сценария: cat.jpg с двумя метками,
// car.png с одной.
func sampleReport() *Report {
	r := New("Image Labels Report")
	r.Add(&detect.Result{
		Image: "s3://bucket/images/cat.jpg",
		Labels: []detect.Label{
			{Name: "Cat", Confidence: 99.0, Parents: []string{"Animal", "Pet"}},
			{Name: "Animal", Confidence: 95.0},
		},
	})
	r.Add(&detect.Result{
		Image: "s3://bucket/images/car.png",
		Labels: []detect.Label{
			{Name: "Car", Confidence: 88.0, Parents: []string{"Vehicle"}},
		},
	})
	return r
}

func TestReportOrdering(t *testing.T) {
	r := sampleReport()

	require.Equal(t, 2, r.Len())
	// Порядок добавления сохраняется
	assert.Equal(t, "s3://bucket/images/cat.jpg", r.Results()[0].Image)
	assert.Equal(t, "s3://bucket/images/car.png", r.Results()[1].Image)

	rows := r.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "Cat", rows[0].Label)
	assert.Equal(t, "Animal", rows[1].Label)
	assert.Equal(t, "Car", rows[2].Label)
}

func TestWriteJSON(t *testing.T) {
	r := sampleReport()
	path := filepath.Join(t.TempDir(), "labels.json")

	require.NoError(t, r.WriteJSON(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var parsed map[string][]struct {
		Label      string   `json:"label"`
		Confidence float64  `json:"confidence"`
		Parents    []string `json:"parents"`
	}
	require.NoError(t, json.Unmarshal(data, &parsed))

	// Ровно один top-level ключ на картинку
	require.Len(t, parsed, 2)
	require.Len(t, parsed["s3://bucket/images/cat.jpg"], 2)
	require.Len(t, parsed["s3://bucket/images/car.png"], 1)

	// Round-trip сохраняет (image, label, confidence)
	assert.Equal(t, "Cat", parsed["s3://bucket/images/cat.jpg"][0].Label)
	assert.Equal(t, 99.0, parsed["s3://bucket/images/cat.jpg"][0].Confidence)
	assert.Equal(t, []string{"Animal", "Pet"}, parsed["s3://bucket/images/cat.jpg"][0].Parents)
	assert.Equal(t, "Car", parsed["s3://bucket/images/car.png"][0].Label)
}

func TestWriteCSV(t *testing.T) {
	r := sampleReport()
	path := filepath.Join(t.TempDir(), "labels.csv")

	require.NoError(t, r.WriteCSV(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	// K=3 пары (image, label) → 3 строки данных + заголовок
	require.Len(t, records, 4)
	assert.Equal(t, []string{"image", "label", "confidence", "parents"}, records[0])
	assert.Equal(t, []string{"s3://bucket/images/cat.jpg", "Cat", "99.00", "Animal;Pet"}, records[1])
	assert.Equal(t, []string{"s3://bucket/images/cat.jpg", "Animal", "95.00", ""}, records[2])
	assert.Equal(t, []string{"s3://bucket/images/car.png", "Car", "88.00", "Vehicle"}, records[3])
}

func TestWriteHTML(t *testing.T) {
	r := sampleReport()
	path := filepath.Join(t.TempDir(), "report.html")

	require.NoError(t, r.WriteHTML(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)

	// 3 строки данных + заголовочная
	assert.Equal(t, 4, strings.Count(html, "<tr>"))
	assert.Contains(t, html, "<title>Image Labels Report</title>")
	assert.Contains(t, html, "<td>Cat</td>")
	assert.Contains(t, html, "<td>88.00</td>")
	assert.Contains(t, html, "Animal, Pet")
}

func TestWriteHTMLEscaping(t *testing.T) {
	r := New("Report")
	r.Add(&detect.Result{
		Image:  "s3://bucket/x.jpg",
		Labels: []detect.Label{{Name: "<script>alert(1)</script>", Confidence: 90}},
	})

	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, r.WriteHTML(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "<script>alert")
}

func TestWriteAllEmptyReport(t *testing.T) {
	r := New("Report")
	dir := filepath.Join(t.TempDir(), "out")

	require.NoError(t, r.WriteAll(dir))

	// Все три файла существуют даже для пустого отчёта
	for _, name := range []string{JSONFileName, CSVFileName, HTMLFileName} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	// CSV: только заголовок
	f, err := os.Open(filepath.Join(dir, CSVFileName))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)

	// JSON: пустой объект
	data, err := os.ReadFile(filepath.Join(dir, JSONFileName))
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Empty(t, parsed)
}

func TestWriteAllIndependentFormats(t *testing.T) {
	r := sampleReport()
	dir := t.TempDir()

	// Занимаем путь labels.json директорией: JSON упадёт,
	// но CSV и HTML всё равно должны записаться.
	require.NoError(t, os.Mkdir(filepath.Join(dir, JSONFileName), 0755))

	err := r.WriteAll(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrite)

	_, err = os.Stat(filepath.Join(dir, CSVFileName))
	assert.NoError(t, err, "CSV must be written despite JSON failure")
	_, err = os.Stat(filepath.Join(dir, HTMLFileName))
	assert.NoError(t, err, "HTML must be written despite JSON failure")
}
