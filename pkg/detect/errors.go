// Package detect предоставляет ошибки распознавания.
//
// Все ошибки возвращаются вверх по стеку, никаких panic.
// Поддержка errors.Is() и errors.As() для error wrapping.
package detect

import "fmt"

// ErrDetection возвращается когда вызов API распознавания провалился
// (сеть, аутентификация, исчерпание квоты).
//
// Пример использования:
//   if err != nil {
//       return nil, fmt.Errorf("%w: %v", ErrDetection, err)
//   }
var ErrDetection = fmt.Errorf("label detection failed")

// DetectionError — ошибка с контекстом объекта.
//
// Предоставляет информацию о том, для какого именно объекта провалилось
// распознавание. Поддерживает errors.Is() с ErrDetection.
type DetectionError struct {
	Image string // s3://bucket/key
	Err   error  // Исходная ошибка API
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("label detection failed for %s: %v", e.Image, e.Err)
}

// Is проверяет что ошибка является ErrDetection.
//
// Реализует интерфейс для errors.Is().
func (e *DetectionError) Is(target error) bool {
	return target == ErrDetection
}

// Unwrap возвращает исходную ошибку API для errors.As().
func (e *DetectionError) Unwrap() error {
	return e.Err
}

// WrapDetection оборачивает ошибку API с контекстом объекта.
//
// Пример использования:
//   return nil, detect.WrapDetection(ref.String(), err)
func WrapDetection(image string, err error) error {
	return &DetectionError{Image: image, Err: err}
}
