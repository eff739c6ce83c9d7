package intake

import (
	"errors"
	"path/filepath"
	"strings"
)

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
}

var (
	ErrMissingIdentity     = errors.New("name and email are required")
	ErrMissingPayload      = errors.New("either a file or a description is required")
	ErrUnsupportedFileType = errors.New("file type not allowed")
	ErrPayloadTooLarge     = errors.New("file too large")
)

// AllowedExtension сообщает, входит ли расширение файла в allow-list.
// Регистр расширения не учитывается.
func AllowedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return false
	}
	return allowedExtensions[ext]
}

// ValidateAttachment проверяет вложение до того, как его содержимое будет
// прочитано или отправлено в хранилище: сначала расширение, затем размер.
func ValidateAttachment(filename string, size int64, maxSize int64) error {
	if !AllowedExtension(filename) {
		return ErrUnsupportedFileType
	}
	if size > maxSize {
		return ErrPayloadTooLarge
	}
	return nil
}

// ValidateRequest проверяет обязательные поля уже очищенной заявки.
// Порядок проверок фиксирован: имя, email, затем файл либо описание.
// Первая нарушенная проверка решает исход.
func ValidateRequest(name, email, description string, hasFile bool) error {
	if name == "" {
		return ErrMissingIdentity
	}
	if email == "" {
		return ErrMissingIdentity
	}
	if !hasFile && description == "" {
		return ErrMissingPayload
	}
	return nil
}
