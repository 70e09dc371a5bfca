package domain

import "time"

// GeneralIssue is the sentinel DeliveryID for issues not tied to a
// specific delivery.
const GeneralIssue = "general"

// Issue is an exception report filed by the driver. Issues are append-only:
// there is no update or delete operation.
type Issue struct {
	ID          string    `json:"id"`
	DeliveryID  string    `json:"deliveryId"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Photo       string    `json:"photo,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// IssueDraft is the caller-supplied part of an issue; id and timestamp are
// assigned by the store at report time.
type IssueDraft struct {
	DeliveryID  string `json:"deliveryId"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Photo       string `json:"photo,omitempty"`
}
