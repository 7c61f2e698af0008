package report

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"topikbank/internal/app/apiresp"
	"topikbank/internal/exam"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid exam id")
		return
	}
	out, err := h.svc.SummaryByExam(r.Context(), id)
	if err != nil {
		if errors.Is(err, exam.ErrExamNotFound) {
			apiresp.WriteError(w, r, http.StatusNotFound, "exam not found")
			return
		}
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, out)
}
