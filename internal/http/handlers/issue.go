package handlers

import (
	"errors"
	"net/http"

	"driver-portal/internal/apperr"
	"driver-portal/internal/domain"
	"driver-portal/internal/logx"
)

// IssueHandler serves exception reports. Reporting an issue and flagging the
// related delivery are two separate store mutations issued by this handler,
// matching how the screens drive the store.
type IssueHandler struct {
	issues     issueUsecase
	deliveries deliveryUsecase
	logger     logx.Logger
}

// NewIssueHandler wires issue and delivery usecases into HTTP handlers.
func NewIssueHandler(logger logx.Logger, issues issueUsecase, deliveries deliveryUsecase) *IssueHandler {
	return &IssueHandler{issues: issues, deliveries: deliveries, logger: logger}
}

// List handles GET /issues.
func (h *IssueHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.issues.Issues()
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, list)
}

// Report handles POST /issues.
func (h *IssueHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req reportIssueRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	if req.Type == "" || req.Description == "" {
		writeError(h.logger, w, r, http.StatusBadRequest, "issue type and description required")
		return
	}

	issue, err := h.issues.ReportIssue(r.Context(), domain.IssueDraft{
		DeliveryID:  req.DeliveryID,
		Type:        req.Type,
		Description: req.Description,
		Photo:       req.Photo,
	})
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}

	if req.FlagDelivery && issue.DeliveryID != domain.GeneralIssue {
		status := domain.DeliveryException
		if _, err := h.deliveries.UpdateDelivery(r.Context(), issue.DeliveryID, domain.DriverDeliveryUpdate{
			Status: &status,
		}); err != nil {
			// The issue is already recorded; a missing delivery does not undo it.
			h.logger.Warn("flag delivery as exception failed",
				logx.String("req_id", reqID(r.Context())),
				logx.String("delivery_id", issue.DeliveryID),
				logx.Any("err", err),
			)
		}
	}

	writeJSON(h.logger, w, r, http.StatusCreated, issue)
}

func (h *IssueHandler) writeUsecaseError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apperr.NotReady) {
		writeError(h.logger, w, r, http.StatusServiceUnavailable, "store not ready")
		return
	}
	writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
}
