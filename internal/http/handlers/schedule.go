package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"driver-portal/internal/apperr"
	"driver-portal/internal/logx"
)

// BlockHandler serves the schedulable work blocks.
type BlockHandler struct {
	usecase scheduleUsecase
	logger  logx.Logger
}

// NewBlockHandler wires a scheduleUsecase into HTTP handlers.
func NewBlockHandler(logger logx.Logger, uc scheduleUsecase) *BlockHandler {
	return &BlockHandler{usecase: uc, logger: logger}
}

// List handles GET /blocks.
func (h *BlockHandler) List(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.usecase.Blocks()
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, blocks)
}

// Schedule handles POST /blocks/{id}/schedule. Scheduling an already
// scheduled block succeeds and changes nothing.
func (h *BlockHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if err := h.usecase.ScheduleBlock(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, okResponse{Status: "scheduled"})
}

// Cancel handles POST /blocks/{id}/cancel.
func (h *BlockHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.usecase.CancelBlock(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, okResponse{Status: "available"})
}

func (h *BlockHandler) writeUsecaseError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.NotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "block not found")
	case errors.Is(err, apperr.NotReady):
		writeError(h.logger, w, r, http.StatusServiceUnavailable, "store not ready")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}
