package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"topikbank/internal/app/apiresp"
	"topikbank/internal/exam"
	"topikbank/internal/format"
	"topikbank/internal/sheet"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type examStore interface {
	GetExam(ctx context.Context, id string) (*exam.Exam, error)
	SaveExam(ctx context.Context, e *exam.Exam) error
	SaveAll(ctx context.Context, exams []exam.Exam) exam.SaveReport
}

// Recorder receives import counters. A nil Recorder is ignored.
type Recorder interface {
	RecordImport(exams, questions, rowErrors int)
	RecordPatch(changed, missing int)
}

type HandlerConfig struct {
	Options        Options
	MaxUploadBytes int64
}

type Handler struct {
	store     examStore
	cfg       HandlerConfig
	assembler *Assembler
	logger    *zap.Logger
	recorder  Recorder
}

type response struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type commitRequest struct {
	Exams []exam.Exam `json:"exams"`
}

type patchResult struct {
	Report    MergeReport `json:"report"`
	RowErrors []RowError  `json:"row_errors"`
	Exam      *exam.Exam  `json:"exam"`
}

func NewHandler(store examStore, cfg HandlerConfig, logger *zap.Logger, recorder Recorder) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 16 << 20
	}
	return &Handler{
		store:     store,
		cfg:       cfg,
		assembler: NewAssembler(cfg.Options, logger),
		logger:    logger,
		recorder:  recorder,
	}
}

func (h *Handler) Formats(w http.ResponseWriter, r *http.Request) {
	paper := exam.ParsePaperType(chi.URLParam(r, "paper"))
	if !paper.Valid() {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "paper must be reading or listening"})
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: format.Table(paper)})
}

func (h *Handler) Template(w http.ResponseWriter, r *http.Request) {
	paper := exam.ParsePaperType(chi.URLParam(r, "paper"))
	if !paper.Valid() {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "paper must be reading or listening"})
		return
	}
	round, _ := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("round")))

	var buf bytes.Buffer
	if err := WriteTemplate(&buf, paper, round); err != nil {
		h.logger.Error("write template failed", zap.Error(err))
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		return
	}
	writeXLSX(w, fmt.Sprintf("topik2-%s-template.xlsx", paper), buf.Bytes())
}

// Preview parses an uploaded workbook into draft exams. Nothing is stored.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	wb, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	assembler := h.assembler
	if strict := r.URL.Query().Get("strict"); strict != "" {
		opts := h.cfg.Options
		opts.StrictAnswers = strict == "1" || strings.EqualFold(strict, "true")
		assembler = NewAssembler(opts, h.logger)
	}

	batch := assembler.Assemble(wb)
	if h.recorder != nil {
		h.recorder.RecordImport(len(batch.Exams), batch.QuestionCount(), batch.ErrorCount())
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: batch})
}

// Commit stores the exams the user accepted from a preview, possibly after editing their
// metadata. Each exam succeeds or fails on its own.
func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	if len(req.Exams) == 0 {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "exams is required"})
		return
	}

	for i := range req.Exams {
		ApplyFormat(&req.Exams[i])
	}
	report := h.store.SaveAll(r.Context(), req.Exams)
	h.logger.Info("import committed", zap.Int("saved", report.Saved), zap.Int("failed", report.Failed))
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: report})
}

// PatchSheet merges a sparse correction worksheet into a stored exam. The first exam sheet
// is used unless ?sheet= names another.
func (h *Handler) PatchSheet(w http.ResponseWriter, r *http.Request) {
	current, ok := h.loadExam(w, r)
	if !ok {
		return
	}
	wb, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	s, found := SelectSheet(wb, strings.TrimSpace(r.URL.Query().Get("sheet")))
	if !found {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "no usable sheet in workbook"})
		return
	}
	patches, rowErrs := PatchesFromSheet(s, h.cfg.Options)
	if rowErrs == nil {
		rowErrs = []RowError{}
	}
	h.applyPatches(w, r, current, patches, rowErrs)
}

// PatchJSON merges a JSON array of corrected questions into a stored exam. A malformed
// document is rejected as a whole.
func (h *Handler) PatchJSON(w http.ResponseWriter, r *http.Request) {
	current, ok := h.loadExam(w, r)
	if !ok {
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes))
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	patches, err := PatchesFromJSON(data)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: err.Error()})
		return
	}
	h.applyPatches(w, r, current, patches, []RowError{})
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	current, ok := h.loadExam(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, *current); err != nil {
		h.logger.Error("export failed", zap.String("exam_id", current.ID), zap.Error(err))
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		return
	}
	writeXLSX(w, current.ID+".xlsx", buf.Bytes())
}

func (h *Handler) applyPatches(w http.ResponseWriter, r *http.Request, current *exam.Exam, patches []Patch, rowErrs []RowError) {
	merged, report := Merge(*current, patches)
	if report.Changed > 0 {
		if err := h.store.SaveExam(r.Context(), &merged); err != nil {
			writeStoreError(w, r, err)
			return
		}
	}
	if h.recorder != nil {
		h.recorder.RecordPatch(report.Changed, len(report.Missing))
	}
	h.logger.Info("exam patched",
		zap.String("exam_id", current.ID),
		zap.Int("changed", report.Changed),
		zap.Ints("missing", report.Missing),
		zap.Int("row_errors", len(rowErrs)),
	)
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: patchResult{Report: report, RowErrors: rowErrs, Exam: &merged}})
}

func (h *Handler) loadExam(w http.ResponseWriter, r *http.Request) (*exam.Exam, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid exam id"})
		return nil, false
	}
	e, err := h.store.GetExam(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return nil, false
	}
	return e, true
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*sheet.Workbook, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, r, http.StatusRequestEntityTooLarge, response{OK: false, Error: "upload exceeds size limit"})
			return nil, false
		}
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid multipart form"})
		return nil, false
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "file field is required"})
		return nil, false
	}
	defer file.Close()

	wb, err := sheet.ReadWorkbook(file)
	if err != nil {
		h.logger.Warn("unreadable workbook", zap.String("filename", hdr.Filename), zap.Error(err))
		apiresp.WriteErrorCode(w, r, http.StatusBadRequest, "invalid_workbook", "file is not a readable xlsx workbook")
		return nil, false
	}
	return wb, true
}

// SelectSheet returns the sheet called name, compared case-insensitively, or the first sheet
// that is not a notes or reference sheet when name is empty.
func SelectSheet(wb *sheet.Workbook, name string) (sheet.Sheet, bool) {
	for _, s := range wb.Sheets {
		if name != "" {
			if strings.EqualFold(strings.TrimSpace(s.Name), name) {
				return s, true
			}
			continue
		}
		if !sheet.IsExcluded(s.Name) {
			return s, true
		}
	}
	return sheet.Sheet{}, false
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

func writeXLSX(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload response) {
	apiresp.WriteLegacy(w, r, code, payload.OK, payload.Data, payload.Error)
}
