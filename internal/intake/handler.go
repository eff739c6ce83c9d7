package intake

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/Oniqq60/request_intake/internal/dto"
)

// Текстовые поля формы небольшие; лимит отсекает злоупотребление полем
// description вместо файла.
const maxFieldSize = 64 << 10

type Handler struct {
	service Service
	maxSize int64
}

func NewHandler(service Service, maxSize int64) *Handler {
	return &Handler{
		service: service,
		maxSize: maxSize,
	}
}

func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request format: expected multipart/form-data")
		return
	}

	input, err := h.readForm(mr)
	if err != nil {
		if errors.Is(err, ErrUnsupportedFileType) || errors.Is(err, ErrPayloadTooLarge) {
			writeError(w, gateStatus(err), err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "malformed multipart body")
		return
	}

	rec, err := h.service.SubmitRequest(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SubmitRequestResponse{
		Message: "Request submitted successfully!",
		ID:      rec.ID,
	})
}

// readForm разбирает multipart-поток по частям, не буферизуя тело запроса
// целиком. Расширение файла проверяется по заголовку части до чтения её
// содержимого: отклонённое вложение не попадает в память. Лимит размера
// действует во время чтения, лишние байты не накапливаются.
func (h *Handler) readForm(mr *multipart.Reader) (SubmitInput, error) {
	var input SubmitInput

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return SubmitInput{}, err
		}

		if part.FormName() == "file" {
			if part.FileName() == "" {
				// Пустое файловое поле: файл не приложен.
				continue
			}
			if input.Attachment != nil {
				return SubmitInput{}, errors.New("only one file is allowed")
			}
			if !AllowedExtension(part.FileName()) {
				return SubmitInput{}, ErrUnsupportedFileType
			}

			content, err := readLimited(part, h.maxSize)
			if err != nil {
				return SubmitInput{}, err
			}
			input.Attachment = &Attachment{
				Filename: part.FileName(),
				Content:  content,
			}
			continue
		}

		value, err := readLimited(part, maxFieldSize)
		if err != nil {
			return SubmitInput{}, err
		}

		switch part.FormName() {
		case "name":
			input.Name = string(value)
		case "email":
			input.Email = string(value)
		case "option":
			input.Option = string(value)
		case "description":
			input.Description = string(value)
		}
	}

	return input, nil
}

// readLimited читает часть не дальше лимита; превышение — ErrPayloadTooLarge.
func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, ErrPayloadTooLarge
	}
	return data, nil
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMissingIdentity):
		writeError(w, http.StatusBadRequest, "Please fill in your name and email.")
	case errors.Is(err, ErrMissingPayload):
		writeError(w, http.StatusBadRequest, "Please upload a file or describe what you need.")
	case errors.Is(err, ErrUnsupportedFileType):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPayloadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		log.Printf("submit request error: %v", err)
		writeError(w, http.StatusInternalServerError, "Error processing your request.")
	}
}

func gateStatus(err error) int {
	if errors.Is(err, ErrPayloadTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponse{Message: message})
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.SubmitRequest(w, r)
	})
	return mux
}
