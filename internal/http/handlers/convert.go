package handlers

import (
	"encoding/json"

	"driver-portal/internal/domain"
)

// dispatchControlledFields are owned by dispatch. A PATCH payload naming one
// of them degrades to the permitted subset instead of failing; the rejected
// keys are logged.
var dispatchControlledFields = []string{
	"packageNumber", "recipient", "address", "packageCount", "routeOrder", "priority",
}

func rejectedDispatchFields(fields map[string]json.RawMessage) []string {
	var rejected []string
	for _, name := range dispatchControlledFields {
		if _, ok := fields[name]; ok {
			rejected = append(rejected, name)
		}
	}
	return rejected
}

func toDriverUpdate(req updateDeliveryRequest) domain.DriverDeliveryUpdate {
	return domain.DriverDeliveryUpdate{
		Status:      req.Status,
		Notes:       req.Notes,
		ScannedAt:   req.ScannedAt,
		StartedAt:   req.StartedAt,
		CompletedAt: req.CompletedAt,
		ProofPhoto:  req.ProofPhoto,
		Signature:   req.Signature,
	}
}
