package intake

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

type Service interface {
	SubmitRequest(ctx context.Context, input SubmitInput) (RequestRecord, error)
}

// Attachment — содержимое приложенного файла и его исходное имя.
type Attachment struct {
	Filename string
	Content  []byte
}

type SubmitInput struct {
	Name        string
	Email       string
	Option      string
	Description string
	Attachment  *Attachment
}

var (
	ErrUploadFailed      = errors.New("file upload failed")
	ErrPersistenceFailed = errors.New("failed to save request")

	errMaxSizeNotSpecified = errors.New("max file size not specified")
)

type service struct {
	repo     RequestRepository
	storage  ObjectStorage
	producer EventProducer
	maxSize  int64
}

// NewService собирает конвейер заявок. producer может быть nil — тогда
// события не отправляются.
func NewService(repo RequestRepository, storage ObjectStorage, producer EventProducer, maxSize int64) Service {
	return &service{
		repo:     repo,
		storage:  storage,
		producer: producer,
		maxSize:  maxSize,
	}
}

// SubmitRequest проводит заявку через конвейер: проверка вложения, очистка
// текста, валидация, загрузка файла, запись в базу. Каждый шаг выполняется
// не более одного раза, первая ошибка завершает вызов. Загрузка всегда
// предшествует записи: строка никогда не ссылается на неподтверждённый файл.
func (s *service) SubmitRequest(ctx context.Context, input SubmitInput) (RequestRecord, error) {
	if s.maxSize <= 0 {
		return RequestRecord{}, errMaxSizeNotSpecified
	}

	if input.Attachment != nil {
		if err := ValidateAttachment(input.Attachment.Filename, int64(len(input.Attachment.Content)), s.maxSize); err != nil {
			return RequestRecord{}, err
		}
	}

	name := Sanitize(input.Name)
	email := Sanitize(input.Email)
	option := Sanitize(input.Option)
	description := Sanitize(input.Description)

	if err := ValidateRequest(name, email, description, input.Attachment != nil); err != nil {
		return RequestRecord{}, err
	}

	var fileURL *string
	if input.Attachment != nil {
		saveCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		url, err := s.storage.Save(saveCtx, input.Attachment.Filename, input.Attachment.Content)
		if err != nil {
			return RequestRecord{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		fileURL = &url
	}

	// В базу попадают только очищенные значения.
	rec := RequestRecord{
		Name:        name,
		Email:       email,
		PackageType: option,
		Description: description,
		FileURL:     fileURL,
	}

	insertCtx, cancelInsert := context.WithTimeout(ctx, 10*time.Second)
	defer cancelInsert()

	id, err := s.repo.CreateRequest(insertCtx, rec)
	if err != nil {
		// Уже загруженный файл не удаляется: объект остаётся в хранилище
		// без записи о нём (см. DESIGN.md).
		if fileURL != nil {
			log.Printf("request insert failed, uploaded object orphaned: %s", *fileURL)
		}
		return RequestRecord{}, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	rec.ID = id

	if s.producer != nil {
		event := RequestEvent{
			RequestID:   rec.ID,
			Email:       rec.Email,
			PackageType: rec.PackageType,
			HasFile:     fileURL != nil,
			Timestamp:   time.Now(),
		}
		// Событие отправляется асинхронно и не влияет на исход заявки.
		go func() {
			sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.producer.SendRequestEvent(sendCtx, event); err != nil {
				log.Printf("failed to send request event to kafka: %v", err)
			}
		}()
	}

	return rec, nil
}
