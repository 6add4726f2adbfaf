// Package pipeline связывает этапы в единый процесс:
// collect → upload → detect → report.
//
// Поток строго линейный и однопоточный: один файл полностью
// обрабатывается перед следующим. Никакого shared mutable state между
// картинками нет, так что параллелить было бы легко — но batch-утилите
// это не нужно, а квоты API скажут спасибо.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/ilkoid/labelgen/pkg/collector"
	"github.com/ilkoid/labelgen/pkg/detect"
	"github.com/ilkoid/labelgen/pkg/report"
	"github.com/ilkoid/labelgen/pkg/s3storage"
	"github.com/ilkoid/labelgen/pkg/utils"
)

// detectRatePerSecond — потолок частоты вызовов распознавания.
// Исходный пайплайн спал 100ms между вызовами; limiter выражает то же самое.
const detectRatePerSecond = 10

// Options — параметры одного запуска пайплайна.
type Options struct {
	LocalFolder string // Директория с картинками
	Prefix      string // Префикс ключей в бакете (обычно "images/")
	OutputDir   string // Куда писать отчёты
	Title       string // Заголовок HTML отчёта

	// Progress вызывается для каждого user-visible события.
	// nil — события уходят только в лог.
	Progress func(format string, args ...any)
}

// Summary — итог запуска.
type Summary struct {
	Collected int           // Найдено локальных картинок
	Uploaded  int           // Загружено в бакет
	Labeled   int           // Успешно распознано
	Skipped   int           // Пропущено из-за ошибок распознавания
	Duration  time.Duration
}

// Pipeline выполняет полный цикл обработки.
type Pipeline struct {
	storage  s3storage.ClientInterface
	detector detect.Detector
	limiter  *rate.Limiter
}

// New создает пайплайн поверх готовых клиентов хранилища и детектора.
func New(storage s3storage.ClientInterface, detector detect.Detector) *Pipeline {
	return &Pipeline{
		storage:  storage,
		detector: detector,
		limiter:  rate.NewLimiter(rate.Limit(detectRatePerSecond), 1),
	}
}

// Run выполняет пайплайн от сбора файлов до записи отчётов.
//
// Политика отказов:
//   - ошибка сбора или загрузки прерывает весь batch (состояние бакета
//     неполное, продолжать бессмысленно);
//   - ошибка распознавания одной картинки логируется и картинка
//     пропускается, batch продолжается;
//   - отчёты пишутся после всего цикла, независимо друг от друга.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Summary, error) {
	startTime := time.Now()
	progress := opts.Progress
	if progress == nil {
		progress = func(format string, args ...any) {}
	}

	// === 1. Сбор локальных файлов ===
	// Выполняется до любых сетевых вызовов: плохой путь падает сразу.
	files, err := collector.Collect(opts.LocalFolder)
	if err != nil {
		return nil, fmt.Errorf("collect stage: %w", err)
	}
	utils.Info("Files collected", "folder", opts.LocalFolder, "count", len(files))
	progress("Found %d images in %s", len(files), opts.LocalFolder)

	summary := &Summary{Collected: len(files)}

	// === 2. Бакет и загрузка ===
	if err := p.storage.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("upload stage: %w", err)
	}

	for _, f := range files {
		key := opts.Prefix + f.Key
		ref, err := p.storage.UploadFile(ctx, f.Path, key)
		if err != nil {
			// Один неудачный upload останавливает весь batch
			return nil, fmt.Errorf("upload stage (%s): %w", f.Name, err)
		}
		summary.Uploaded++
		utils.Info("Uploaded", "file", f.Path, "ref", ref.String())
		progress("Uploaded: %s", ref.String())
	}

	// === 3. Листинг и распознавание ===
	// Распознаём всё под префиксом, включая объекты прошлых запусков.
	objects, err := p.storage.ListImages(ctx, opts.Prefix)
	if err != nil {
		return nil, fmt.Errorf("detect stage: %w", err)
	}

	rep := report.New(opts.Title)

	for i, obj := range objects {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("detect stage: %w", err)
		}

		ref := obj.Ref(p.storage.Bucket())
		result, err := p.detector.DetectLabels(ctx, ref)
		if err != nil {
			// Отмена контекста — не "плохая картинка", прерываем batch
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil, fmt.Errorf("detect stage: %w", err)
			}
			summary.Skipped++
			utils.Warn("Detection failed, skipping", "image", ref.String(), "error", err)
			progress("[!] Detection failed for %s: %v", obj.Key, err)
			continue
		}

		rep.Add(result)
		summary.Labeled++
		progress("[%d/%d] Labeled: %s (%d labels)", i+1, len(objects), obj.Key, len(result.Labels))
	}

	// === 4. Отчёты ===
	if err := rep.WriteAll(opts.OutputDir); err != nil {
		return nil, fmt.Errorf("report stage: %w", err)
	}
	progress("Reports written to %s", opts.OutputDir)

	summary.Duration = time.Since(startTime)
	utils.Info("Pipeline finished",
		"collected", summary.Collected,
		"uploaded", summary.Uploaded,
		"labeled", summary.Labeled,
		"skipped", summary.Skipped,
		"duration", summary.Duration)

	return summary, nil
}
