package asset

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"topikbank/internal/app/apiresp"
	"topikbank/internal/exam"
)

type examStore interface {
	GetExam(ctx context.Context, id string) (*exam.Exam, error)
	SaveExam(ctx context.Context, e *exam.Exam) error
}

type Handler struct {
	store          examStore
	uploader       Uploader
	maxUploadBytes int64
	logger         *zap.Logger
}

type response struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type attachResult struct {
	Report Report    `json:"report"`
	Exam   exam.Exam `json:"exam"`
}

func NewHandler(store examStore, uploader Uploader, maxUploadBytes int64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 16 << 20
	}
	return &Handler{store: store, uploader: uploader, maxUploadBytes: maxUploadBytes, logger: logger}
}

// UploadOptionImages accepts a multipart form with any number of "files" parts and attaches
// each to the option its name encodes. The exam is saved once, after all files.
func (h *Handler) UploadOptionImages(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid exam id"})
		return
	}
	current, err := h.store.GetExam(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, r, http.StatusRequestEntityTooLarge, response{OK: false, Error: "upload exceeds size limit"})
			return
		}
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid multipart form"})
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "files field is required"})
		return
	}

	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, File{Name: fh.Filename, Open: openPart(fh)})
	}

	state := NewState(*current)
	report := AttachOptionImages(r.Context(), state, files, h.uploader)
	updated := state.Snapshot()
	if len(report.Attached) > 0 {
		if err := h.store.SaveExam(r.Context(), &updated); err != nil {
			writeStoreError(w, r, err)
			return
		}
	}

	h.logger.Info("option images attached",
		zap.String("exam_id", id),
		zap.Int("attached", len(report.Attached)),
		zap.Int("failed", len(report.Failed)),
	)
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: attachResult{Report: report, Exam: updated}})
}

func openPart(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return fh.Open()
	}
}

func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, exam.ErrExamNotFound):
		writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: "exam not found"})
	case errors.Is(err, exam.ErrInvalidInput):
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: err.Error()})
	default:
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload response) {
	apiresp.WriteLegacy(w, r, code, payload.OK, payload.Data, payload.Error)
}
