// Package utils предоставляет вспомогательные функции для обработки данных.
//
// Включает утилиты для очистки ответов vision-модели от markdown-обёртки
// и извлечения JSON из пояснительного текста.
package utils

import (
	"strings"
)

// CleanJsonBlock удаляет markdown-обёртку вокруг JSON.
//
// Vision-модели часто возвращают JSON обёрнутым в markdown кодовые блоки:
//   ```json
//   [{"name": "Cat", "confidence": 99.0}]
//   ```
//
// Эта функция очищает такие обёртки, возвращая чистый JSON.
func CleanJsonBlock(s string) string {
	s = strings.TrimSpace(s)

	// Удаляем ```json в начале
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```Json")

	// Удаляем ``` в начале
	s = strings.TrimPrefix(s, "```")

	// Удаляем ``` в конце
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}

// ExtractJSONArray пытается извлечь JSON массив из строки.
//
// Модель может вернуть массив меток вместе с пояснительным текстом
// ("Here are the labels: [...]"). Эта функция находит первый
// сбалансированный JSON-массив в тексте.
//
// Возвращает пустую строку если массив не найден.
//
// ВНИМАНИЕ: Не валидирует JSON, только извлекает его по эвристикам.
// Для валидации используйте json.Unmarshal().
func ExtractJSONArray(s string) string {
	start := strings.Index(s, "[")
	if start == -1 {
		return ""
	}

	// Ищем соответствующую закрывающую скобку
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]

		// Скобки внутри строковых литералов не считаем
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '[':
			if !inString {
				depth++
			}
		case ']':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}

	return s[start:]
}
