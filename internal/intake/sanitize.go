package intake

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizePolicy = bluemonday.StrictPolicy()

// Sanitize удаляет из текста всю разметку (теги, атрибуты, скрипты),
// оставляя только содержимое. Спецсимволы в результате остаются
// entity-кодированными: выход никогда не содержит живой разметки и
// повторная очистка ничего не меняет. Пустой вход даёт пустую строку.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(sanitizePolicy.Sanitize(text))
}
