// Package collector отвечает за поиск локальных картинок для загрузки.
//
// Сканирует директорию рекурсивно и отбирает файлы по расширению.
// Никаких побочных эффектов: только чтение файловой системы.
package collector

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Ошибки коллектора.

// ErrNotFound возвращается когда входная директория не существует
// или не является директорией.
var ErrNotFound = fmt.Errorf("input directory not found")

// ErrNoImages возвращается когда в директории нет ни одной картинки
// с поддерживаемым расширением.
var ErrNoImages = fmt.Errorf("no images found")

// imageExts — поддерживаемые расширения (в нижнем регистре).
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".jfif": true,
}

// ImageFile — локальная картинка, найденная при обходе.
//
// Иммутабельна: создаётся один раз при обходе, читается один раз при загрузке.
type ImageFile struct {
	Path string // Полный путь к файлу
	Name string // Имя файла без пути
	Key  string // Относительный путь от корня обхода, с "/" разделителями
}

// IsImage проверяет расширение файла (case-insensitive).
func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// Collect рекурсивно обходит директорию и возвращает упорядоченный
// список картинок.
//
// Порядок детерминирован: filepath.WalkDir обходит в лексикографическом
// порядке, и этот же порядок сохраняется до самого отчёта.
//
// Ошибки:
//   - ErrNotFound если путь не существует или это не директория
//   - ErrNoImages если подходящих файлов нет
func Collect(dir string) ([]ImageFile, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve path %s: %w", dir, err)
	}

	info, err := os.Stat(absDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNotFound, dir)
	}

	var files []ImageFile

	walkErr := filepath.WalkDir(absDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !IsImage(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(absDir, path)
		if err != nil {
			return err
		}

		files = append(files, ImageFile{
			Path: path,
			Name: d.Name(),
			// S3 ключи всегда с "/" даже на Windows
			Key: filepath.ToSlash(rel),
		})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, walkErr)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s (supported: jpg, jpeg, png, jfif)", ErrNoImages, dir)
	}

	return files, nil
}
