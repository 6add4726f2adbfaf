package vision

import (
	"testing"

	"github.com/ilkoid/labelgen/pkg/config"
)

// TestNewClient тестирует создание клиента.
func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		modelDef config.ModelDef
	}{
		{
			name: "minimal config",
			modelDef: config.ModelDef{
				APIKey:    "test-key",
				ModelName: "gpt-4o",
			},
		},
		{
			name: "with custom base url",
			modelDef: config.ModelDef{
				APIKey:    "test-key",
				ModelName: "glm-4.6v-flash",
				BaseURL:   "https://api.z.ai/v4",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.modelDef, config.DetectorConfig{MaxLabels: 10, MinConfidence: 70}, config.ImageProcConfig{}, nil)
			if client == nil {
				t.Fatal("expected non-nil client")
			}
			if client.model != tt.modelDef.ModelName {
				t.Errorf("expected model %s, got %s", tt.modelDef.ModelName, client.model)
			}
			if client.api == nil {
				t.Error("expected non-nil api client")
			}
			// Дефолтное качество JPEG подставляется
			if client.quality != 85 {
				t.Errorf("quality = %d, want 85", client.quality)
			}
		})
	}
}

// TestParseLabels тестирует разбор ответа модели.
func TestParseLabels(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		minConfidence float64
		maxLabels     int
		wantNames     []string
		wantErr       bool
	}{
		{
			name:          "plain array",
			content:       `[{"name": "Cat", "confidence": 99.004, "parents": ["Animal"]}, {"name": "Animal", "confidence": 95}]`,
			minConfidence: 70,
			maxLabels:     10,
			wantNames:     []string{"Cat", "Animal"},
		},
		{
			name:          "markdown fenced",
			content:       "```json\n[{\"name\": \"Car\", \"confidence\": 88}]\n```",
			minConfidence: 70,
			maxLabels:     10,
			wantNames:     []string{"Car"},
		},
		{
			name:          "surrounding prose",
			content:       `Here are the labels: [{"name": "Dog", "confidence": 91}] Hope this helps!`,
			minConfidence: 70,
			maxLabels:     10,
			wantNames:     []string{"Dog"},
		},
		{
			name:          "threshold filters low confidence",
			content:       `[{"name": "Cat", "confidence": 99}, {"name": "Blanket", "confidence": 42}]`,
			minConfidence: 70,
			maxLabels:     10,
			wantNames:     []string{"Cat"},
		},
		{
			name:          "max labels cap",
			content:       `[{"name": "A", "confidence": 99}, {"name": "B", "confidence": 98}, {"name": "C", "confidence": 97}]`,
			minConfidence: 70,
			maxLabels:     2,
			wantNames:     []string{"A", "B"},
		},
		{
			name:          "nameless entries skipped",
			content:       `[{"confidence": 99}, {"name": "Cat", "confidence": 98}]`,
			minConfidence: 70,
			maxLabels:     10,
			wantNames:     []string{"Cat"},
		},
		{
			name:          "no array at all",
			content:       "I cannot see any image.",
			minConfidence: 70,
			maxLabels:     10,
			wantErr:       true,
		},
		{
			name:          "broken json",
			content:       `[{"name": "Cat", "confidence":`,
			minConfidence: 70,
			maxLabels:     10,
			wantErr:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels, err := parseLabels(tt.content, tt.minConfidence, tt.maxLabels)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseLabels() error = %v", err)
			}

			if len(labels) != len(tt.wantNames) {
				t.Fatalf("len(labels) = %d, want %d", len(labels), len(tt.wantNames))
			}
			for i, want := range tt.wantNames {
				if labels[i].Name != want {
					t.Errorf("labels[%d].Name = %q, want %q", i, labels[i].Name, want)
				}
			}
		})
	}
}

// TestParseLabelsRounding проверяет округление уверенности до 2 знаков.
func TestParseLabelsRounding(t *testing.T) {
	labels, err := parseLabels(`[{"name": "Cat", "confidence": 99.004}]`, 70, 10)
	if err != nil {
		t.Fatalf("parseLabels() error = %v", err)
	}
	if labels[0].Confidence != 99.0 {
		t.Errorf("Confidence = %v, want 99.0", labels[0].Confidence)
	}
}
