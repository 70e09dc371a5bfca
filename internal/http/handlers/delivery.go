package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"driver-portal/internal/apperr"
	"driver-portal/internal/domain"
	"driver-portal/internal/logx"
)

// DeliveryHandler serves HTTP endpoints for the driver's delivery list.
type DeliveryHandler struct {
	usecase deliveryUsecase
	logger  logx.Logger
	now     func() time.Time
}

// NewDeliveryHandler wires a deliveryUsecase into HTTP handlers.
func NewDeliveryHandler(logger logx.Logger, uc deliveryUsecase) *DeliveryHandler {
	return &DeliveryHandler{usecase: uc, logger: logger, now: func() time.Time { return time.Now() }}
}

// List handles GET /deliveries with an optional ?status= filter.
func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.usecase.Deliveries()
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}

	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.DeliveryStatus(s)
		if !status.Valid() {
			writeError(h.logger, w, r, http.StatusBadRequest, "invalid status filter")
			return
		}
		filtered := make([]domain.Delivery, 0, len(list))
		for _, d := range list {
			if d.Status == status {
				filtered = append(filtered, d)
			}
		}
		list = filtered
	}
	writeJSON(h.logger, w, r, http.StatusOK, list)
}

// Get handles GET /deliveries/{id}.
func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.usecase.Delivery(chi.URLParam(r, "id"))
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, d)
}

// Update handles PATCH /deliveries/{id} with driver-editable fields.
// Dispatch-controlled keys in the payload are dropped and logged, never a
// reason to fail the request.
func (h *DeliveryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, bodyLimit))
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid body")
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid json")
		return
	}
	for _, name := range rejectedDispatchFields(fields) {
		h.logger.Warn("dispatch-controlled field rejected",
			logx.String("req_id", reqID(r.Context())),
			logx.String("delivery_id", id),
			logx.String("field", name),
		)
	}

	var req updateDeliveryRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid json")
		return
	}

	d, err := h.usecase.UpdateDelivery(r.Context(), id, toDriverUpdate(req))
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, d)
}

// Delete handles DELETE /deliveries/{id}. In a real deployment this is a
// dispatch-only capability; the portal exposes it without that restriction.
func (h *DeliveryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.usecase.DeleteDelivery(r.Context(), id); err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, okResponse{Status: "deleted"})
}

// Scan handles POST /deliveries/{id}/scan: records the package scan and
// moves the delivery into in-progress.
func (h *DeliveryHandler) Scan(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	status := domain.DeliveryInProgress
	h.applyUpdate(w, r, domain.DriverDeliveryUpdate{
		Status:    &status,
		ScannedAt: &now,
	})
}

// Start handles POST /deliveries/{id}/start: marks the delivery as underway.
func (h *DeliveryHandler) Start(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	status := domain.DeliveryInProgress
	h.applyUpdate(w, r, domain.DriverDeliveryUpdate{
		Status:    &status,
		StartedAt: &now,
	})
}

// Complete handles POST /deliveries/{id}/complete. A proof photo is
// required before the delivery can be confirmed.
func (h *DeliveryHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeDeliveryRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	if req.ProofPhoto == "" {
		writeError(h.logger, w, r, http.StatusBadRequest, "proof photo required")
		return
	}

	now := h.now()
	status := domain.DeliveryDelivered
	h.applyUpdate(w, r, domain.DriverDeliveryUpdate{
		Status:      &status,
		CompletedAt: &now,
		ProofPhoto:  &req.ProofPhoto,
		Signature:   &req.Signature,
	})
}

func (h *DeliveryHandler) applyUpdate(w http.ResponseWriter, r *http.Request, u domain.DriverDeliveryUpdate) {
	d, err := h.usecase.UpdateDelivery(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, d)
}

func (h *DeliveryHandler) writeUsecaseError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.Invalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, apperr.NotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "delivery not found")
	case errors.Is(err, apperr.NotReady):
		writeError(h.logger, w, r, http.StatusServiceUnavailable, "store not ready")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}
