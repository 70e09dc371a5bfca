package handlers

import (
	"errors"
	"net/http"

	"driver-portal/internal/apperr"
	"driver-portal/internal/logx"
)

// StatisticsHandler serves the derived performance snapshot.
type StatisticsHandler struct {
	usecase statisticsUsecase
	logger  logx.Logger
}

// NewStatisticsHandler wires a statisticsUsecase into HTTP handlers.
func NewStatisticsHandler(logger logx.Logger, uc statisticsUsecase) *StatisticsHandler {
	return &StatisticsHandler{usecase: uc, logger: logger}
}

// Get handles GET /statistics.
func (h *StatisticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.usecase.Statistics()
	if err != nil {
		if errors.Is(err, apperr.NotReady) {
			writeError(h.logger, w, r, http.StatusServiceUnavailable, "store not ready")
			return
		}
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, stats)
}

// Refresh handles POST /refresh: re-reads all collections from durable
// storage, the same as the screens' pull-to-refresh.
func (h *StatisticsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.usecase.Refresh(r.Context())
	writeJSON(h.logger, w, r, http.StatusOK, okResponse{Status: "refreshed"})
}
