package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeService struct {
	rec       RequestRecord
	err       error
	calls     int
	lastInput SubmitInput
}

func (f *fakeService) SubmitRequest(_ context.Context, input SubmitInput) (RequestRecord, error) {
	f.calls++
	f.lastInput = input
	if f.err != nil {
		return RequestRecord{}, f.err
	}
	return f.rec, nil
}

func newMultipartRequest(t *testing.T, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field %q: %v", k, err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("failed to create file part: %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("failed to write file content: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func formFields() map[string]string {
	return map[string]string{
		"name":        "Ann",
		"email":       "a@x.com",
		"option":      "resume",
		"description": "please review",
	}
}

func TestSubmitRequestHandler_Success(t *testing.T) {
	svc := &fakeService{rec: RequestRecord{ID: 12}}
	handler := NewHandler(svc, 5<<20)

	req := newMultipartRequest(t, formFields(), "valid.pdf", []byte("%PDF-1.4"))
	rr := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Message string `json:"message"`
		ID      uint   `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != 12 {
		t.Errorf("expected id 12, got %d", resp.ID)
	}

	if svc.calls != 1 {
		t.Fatalf("expected 1 service call, got %d", svc.calls)
	}
	if svc.lastInput.Name != "Ann" || svc.lastInput.Option != "resume" {
		t.Errorf("form fields not forwarded: %+v", svc.lastInput)
	}
	if svc.lastInput.Attachment == nil {
		t.Fatal("expected attachment forwarded")
	}
	if svc.lastInput.Attachment.Filename != "valid.pdf" {
		t.Errorf("expected original filename, got %q", svc.lastInput.Attachment.Filename)
	}
	if string(svc.lastInput.Attachment.Content) != "%PDF-1.4" {
		t.Errorf("attachment content mangled: %q", svc.lastInput.Attachment.Content)
	}
}

func TestSubmitRequestHandler_NoFile(t *testing.T) {
	svc := &fakeService{rec: RequestRecord{ID: 5}}
	handler := NewHandler(svc, 5<<20)

	req := newMultipartRequest(t, formFields(), "", nil)
	rr := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if svc.lastInput.Attachment != nil {
		t.Error("expected no attachment")
	}
}

func TestSubmitRequestHandler_MethodNotAllowed(t *testing.T) {
	svc := &fakeService{}
	handler := NewHandler(svc, 5<<20)

	req := httptest.NewRequest(http.MethodGet, "/api/upload", nil)
	rr := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
	if svc.calls != 0 {
		t.Error("service must not be called")
	}
}

func TestSubmitRequestHandler_GatesFileBeforeService(t *testing.T) {
	svc := &fakeService{}
	handler := NewHandler(svc, 5<<20)

	req := newMultipartRequest(t, formFields(), "malware.exe", []byte("MZ"))
	rr := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if svc.calls != 0 {
		t.Error("rejected file must not reach the service")
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func TestSubmitRequestHandler_RejectedFileNotBuffered(t *testing.T) {
	svc := &fakeService{}
	handler := NewHandler(svc, 5<<20)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range formFields() {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field %q: %v", k, err)
		}
	}
	fw, err := mw.CreateFormFile("file", "malware.exe")
	if err != nil {
		t.Fatalf("failed to create file part: %v", err)
	}
	if _, err := fw.Write(bytes.Repeat([]byte("x"), 2<<20)); err != nil {
		t.Fatalf("failed to write file content: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	total := int64(body.Len())

	counter := &countingReader{r: body}
	req := httptest.NewRequest(http.MethodPost, "/api/upload", counter)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if svc.calls != 0 {
		t.Error("rejected file must not reach the service")
	}
	// Содержимое отклонённого файла не должно вычитываться из тела:
	// допускается только небольшой упреждающий буфер парсера.
	if counter.n > 64<<10 {
		t.Errorf("disallowed file was buffered: read %d of %d bytes", counter.n, total)
	}
}

func TestSubmitRequestHandler_OversizeFileNotFullyBuffered(t *testing.T) {
	svc := &fakeService{}
	handler := NewHandler(svc, 1<<10)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", "big.pdf")
	if err != nil {
		t.Fatalf("failed to create file part: %v", err)
	}
	if _, err := fw.Write(bytes.Repeat([]byte("x"), 2<<20)); err != nil {
		t.Fatalf("failed to write file content: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	counter := &countingReader{r: body}
	req := httptest.NewRequest(http.MethodPost, "/api/upload", counter)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
	if svc.calls != 0 {
		t.Error("oversized file must not reach the service")
	}
	if counter.n > 64<<10 {
		t.Errorf("oversized file was buffered past the limit: read %d bytes", counter.n)
	}
}

func TestSubmitRequestHandler_GatesOversizeBeforeService(t *testing.T) {
	svc := &fakeService{}
	handler := NewHandler(svc, 8)

	req := newMultipartRequest(t, formFields(), "big.pdf", []byte("0123456789"))
	rr := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
	if svc.calls != 0 {
		t.Error("oversized file must not reach the service")
	}
}

func TestSubmitRequestHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"missing identity", ErrMissingIdentity, http.StatusBadRequest},
		{"missing payload", ErrMissingPayload, http.StatusBadRequest},
		{"unsupported file type", ErrUnsupportedFileType, http.StatusBadRequest},
		{"payload too large", ErrPayloadTooLarge, http.StatusRequestEntityTooLarge},
		{"upload failure", ErrUploadFailed, http.StatusInternalServerError},
		{"persistence failure", ErrPersistenceFailed, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{err: tt.err}
			handler := NewHandler(svc, 5<<20)

			req := newMultipartRequest(t, formFields(), "", nil)
			rr := httptest.NewRecorder()
			handler.Routes().ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rr.Code)
			}

			var resp struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if resp.Message == "" {
				t.Error("expected a human-readable message")
			}
		})
	}
}
