package handlers

import (
	"errors"
	"net/http"

	"driver-portal/internal/apperr"
	"driver-portal/internal/logx"
)

// SessionHandler serves the session toggle. There is no credential model:
// this is a placeholder session flag, not an authentication boundary.
type SessionHandler struct {
	usecase sessionUsecase
	logger  logx.Logger
}

// NewSessionHandler wires a sessionUsecase into HTTP handlers.
func NewSessionHandler(logger logx.Logger, uc sessionUsecase) *SessionHandler {
	return &SessionHandler{usecase: uc, logger: logger}
}

// Get handles GET /session.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	loggedIn, err := h.usecase.LoggedIn()
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, sessionResponse{LoggedIn: loggedIn})
}

// Login handles POST /session/login.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := h.usecase.Login(r.Context()); err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, sessionResponse{LoggedIn: true})
}

// Logout handles POST /session/logout.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.usecase.Logout(r.Context()); err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, sessionResponse{LoggedIn: false})
}

func (h *SessionHandler) writeUsecaseError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apperr.NotReady) {
		writeError(h.logger, w, r, http.StatusServiceUnavailable, "store not ready")
		return
	}
	writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
}
