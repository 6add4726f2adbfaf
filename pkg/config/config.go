package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig — корневая структура конфигурации.
// Она зеркалит структуру config.yaml.
type AppConfig struct {
	S3              S3Config        `yaml:"s3"`
	Detector        DetectorConfig  `yaml:"detector"`
	ImageProcessing ImageProcConfig `yaml:"image_processing"`
	Report          ReportConfig    `yaml:"report"`
	App             AppSpecific     `yaml:"app"`
}

// S3Config — настройки объектного хранилища.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`     // Префикс для загруженных картинок (обычно "images/")
	AccessKey string `yaml:"access_key"` // Поддерживает ${VAR}
	SecretKey string `yaml:"secret_key"` // Поддерживает ${VAR}
	UseSSL    bool   `yaml:"use_ssl"`
}

// DetectorConfig — настройки бэкенда распознавания.
//
// Provider выбирает реализацию: "rekognition" или "vision".
// Definitions описывают vision-модели (OpenAI-совместимые API).
type DetectorConfig struct {
	Provider      string              `yaml:"provider"`
	MaxLabels     int                 `yaml:"max_labels"`     // Макс. кол-во меток на картинку
	MinConfidence float64             `yaml:"min_confidence"` // Порог уверенности (0-100)
	AWSProfile    string              `yaml:"aws_profile"`    // Именованный профиль для rekognition
	AWSRegion     string              `yaml:"aws_region"`     // Регион rekognition (иначе из профиля)
	DefaultVision string              `yaml:"default_vision"` // Алиас модели по умолчанию
	Definitions   map[string]ModelDef `yaml:"definitions"`    // Словарь определений моделей
}

// ModelDef — параметры конкретной vision-модели.
type ModelDef struct {
	ModelName string        `yaml:"model_name"` // Реальное имя в API
	APIKey    string        `yaml:"api_key"`    // Поддерживает ${VAR}
	BaseURL   string        `yaml:"base_url"`   // Для non-OpenAI провайдеров
	Timeout   time.Duration `yaml:"timeout"`    // Go умеет парсить строки вида "60s", "1m"
}

// GetDefaults возвращает копию с дефолтными значениями для незаполненных полей.
func (c *DetectorConfig) GetDefaults() DetectorConfig {
	result := *c // Копируем текущие значения

	if result.Provider == "" {
		result.Provider = "rekognition"
	}
	if result.MaxLabels == 0 {
		result.MaxLabels = 10
	}
	if result.MinConfidence == 0 {
		result.MinConfidence = 70.0
	}

	return result
}

// ImageProcConfig — настройки обработки изображений перед отправкой в vision.
type ImageProcConfig struct {
	MaxWidth int `yaml:"max_width"`
	Quality  int `yaml:"quality"`
}

// ReportConfig — настройки генерации отчётов.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir"` // Директория для labels.json/labels.csv/report.html
	Title     string `yaml:"title"`      // Заголовок HTML отчёта
}

// GetDefaults возвращает копию с дефолтными значениями.
func (c *ReportConfig) GetDefaults() ReportConfig {
	result := *c

	if result.OutputDir == "" {
		result.OutputDir = "out"
	}
	if result.Title == "" {
		result.Title = "Image Labels Report"
	}

	return result
}

// AppSpecific — общие настройки приложения.
type AppSpecific struct {
	Debug       bool   `yaml:"debug"`
	LocalFolder string `yaml:"local_folder"` // Папка с картинками по умолчанию
}

// Load читает YAML файл, подставляет ENV переменные и возвращает готовую структуру.
func Load(path string) (*AppConfig, error) {
	// 1. Проверяем существование файла
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	// 2. Читаем файл целиком
	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 3. Подставляем переменные окружения.
	// os.ExpandEnv заменяет ${VAR} или $VAR на значение из системы.
	contentWithEnv := os.ExpandEnv(string(rawBytes))

	// 4. Парсим YAML в структуру
	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	// 5. Валидируем критические настройки
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate проверяет обязательные поля.
func (c *AppConfig) validate() error {
	if c.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required")
	}
	if c.S3.Endpoint == "" {
		return fmt.Errorf("s3.endpoint is required")
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 100 {
		return fmt.Errorf("detector.min_confidence must be in [0, 100], got %v", c.Detector.MinConfidence)
	}
	// Для vision-провайдера дефолтная модель обязана быть определена
	if c.Detector.Provider == "vision" {
		if c.Detector.DefaultVision == "" {
			return fmt.Errorf("detector.default_vision is required for provider 'vision'")
		}
		if _, ok := c.Detector.Definitions[c.Detector.DefaultVision]; !ok {
			return fmt.Errorf("default_vision model '%s' is not defined in definitions", c.Detector.DefaultVision)
		}
	}
	return nil
}

// Helper методы для удобства доступа (Syntactic sugar)

// GetVisionModel возвращает конфигурацию модели по умолчанию или по имени.
func (c *AppConfig) GetVisionModel(name string) (ModelDef, bool) {
	if name == "" {
		name = c.Detector.DefaultVision
	}
	m, ok := c.Detector.Definitions[name]
	return m, ok
}
