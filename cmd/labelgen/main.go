// labelgen — batch утилита для разметки картинок.
//
// Загружает локальные картинки в S3-совместимый бакет, прогоняет их через
// API распознавания меток (AWS Rekognition или vision-модель) и пишет
// три отчёта: labels.json, labels.csv и report.html.
//
// Распространяется вместе с config.yaml в одной директории.
// Строгое поведение: падает если не находит конфиг.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/ilkoid/labelgen/pkg/config"
	"github.com/ilkoid/labelgen/pkg/factory"
	"github.com/ilkoid/labelgen/pkg/pipeline"
	"github.com/ilkoid/labelgen/pkg/s3storage"
	"github.com/ilkoid/labelgen/pkg/utils"
)

var (
	configFlag        = flag.String("config", "config.yaml", "Path to config.yaml")
	folderFlag        = flag.String("folder", "", "Local folder with images (default: app.local_folder from config)")
	bucketFlag        = flag.String("bucket", "", "Bucket override")
	prefixFlag        = flag.String("prefix", "", "Key prefix override (default: s3.prefix or images/)")
	outFlag           = flag.String("out", "", "Output directory override (default: report.output_dir)")
	minConfidenceFlag = flag.Float64("min-confidence", 0, "Minimum label confidence 0-100 (default: detector.min_confidence)")
	maxLabelsFlag     = flag.Int("max-labels", 0, "Maximum labels per image (default: detector.max_labels)")
	timeoutFlag       = flag.Duration("timeout", 30*time.Minute, "Timeout for the whole batch")
)

// Стили терминального вывода (в лог уходит без стилей).
var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

func main() {
	flag.Parse()

	// .env рядом с утилитой: кредсы для ${VAR} подстановки в конфиге.
	// Отсутствие файла — не ошибка.
	_ = godotenv.Load()

	// === ИНИЦИАЛИЗАЦИЯ ЛОГГЕРА ===
	if err := utils.InitLogger(); err != nil {
		fmt.Fprintf(os.Stderr, "Logger init failed: %v\n", err)
	}
	defer utils.Close()

	utils.Info("labelgen started", "config", *configFlag, "folder", *folderFlag)

	if err := run(); err != nil {
		utils.Error("Run failed", "error", err)
		fmt.Fprintln(os.Stderr, errStyle.Render(fmt.Sprintf("[!] %v", err)))
		os.Exit(1)
	}
}

func run() error {
	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(*configFlag)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	applyFlagOverrides(cfg)

	utils.Info("Config loaded", "path", *configFlag,
		"bucket", cfg.S3.Bucket, "provider", cfg.Detector.Provider)

	folder := *folderFlag
	if folder == "" {
		folder = cfg.App.LocalFolder
	}
	if folder == "" {
		return fmt.Errorf("no input folder: pass -folder or set app.local_folder")
	}

	prefix := cfg.S3.Prefix
	if prefix == "" {
		prefix = "images/"
	}

	reportCfg := cfg.Report.GetDefaults()

	// === КЛИЕНТЫ ===
	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	storage, err := s3storage.New(cfg.S3)
	if err != nil {
		return fmt.Errorf("storage client: %w", err)
	}

	detector, err := factory.NewDetector(ctx, cfg, storage)
	if err != nil {
		return fmt.Errorf("detector: %w", err)
	}

	// === ПАЙПЛАЙН ===
	p := pipeline.New(storage, detector)

	summary, err := p.Run(ctx, pipeline.Options{
		LocalFolder: folder,
		Prefix:      prefix,
		OutputDir:   reportCfg.OutputDir,
		Title:       reportCfg.Title,
		Progress:    printProgress,
	})
	if err != nil {
		return err
	}

	// === ИТОГ ===
	fmt.Println(okStyle.Render(fmt.Sprintf(
		"[Done] %d collected | %d uploaded | %d labeled | %d skipped",
		summary.Collected, summary.Uploaded, summary.Labeled, summary.Skipped)))
	fmt.Println(dimStyle.Render(fmt.Sprintf(
		"Check '%s' for JSON, CSV and HTML reports. Duration: %v",
		reportCfg.OutputDir, summary.Duration.Round(time.Millisecond))))

	return nil
}

// applyFlagOverrides накладывает явные флаги поверх конфига.
func applyFlagOverrides(cfg *config.AppConfig) {
	if *bucketFlag != "" {
		cfg.S3.Bucket = *bucketFlag
	}
	if *prefixFlag != "" {
		cfg.S3.Prefix = *prefixFlag
	}
	if *outFlag != "" {
		cfg.Report.OutputDir = *outFlag
	}
	if *minConfidenceFlag > 0 {
		cfg.Detector.MinConfidence = *minConfidenceFlag
	}
	if *maxLabelsFlag > 0 {
		cfg.Detector.MaxLabels = *maxLabelsFlag
	}
}

// printProgress печатает событие пайплайна со стилем по префиксу.
func printProgress(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	switch {
	case strings.HasPrefix(line, "[!]"):
		fmt.Println(warnStyle.Render(line))
	default:
		fmt.Println(okStyle.Render("[+] ") + line)
	}
}
