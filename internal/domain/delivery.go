package domain

import (
	"sort"
	"time"
)

// Delivery is one parcel-delivery task assigned to the driver.
//
// PackageNumber, Recipient, Address, PackageCount and RouteOrder are owned by
// dispatch and are not reachable through DriverDeliveryUpdate.
type Delivery struct {
	ID            string           `json:"id"`
	PackageNumber string           `json:"packageNumber"`
	Recipient     string           `json:"recipient"`
	Address       string           `json:"address"`
	Phone         string           `json:"phone,omitempty"`
	Status        DeliveryStatus   `json:"status"`
	Priority      DeliveryPriority `json:"priority"`
	TimeWindow    string           `json:"timeWindow,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	Latitude      *float64         `json:"latitude,omitempty"`
	Longitude     *float64         `json:"longitude,omitempty"`
	ScannedAt     *time.Time       `json:"scannedAt,omitempty"`
	StartedAt     *time.Time       `json:"startedAt,omitempty"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`
	ProofPhoto    string           `json:"proofPhoto,omitempty"`
	Signature     string           `json:"signature,omitempty"`
	PackageCount  int              `json:"packageCount,omitempty"`
	RouteOrder    int              `json:"routeOrder,omitempty"`
}

// DriverDeliveryUpdate carries the driver-editable fields of a delivery.
// A nil field means "do not change" that attribute. Dispatch-controlled
// fields are absent from this struct on purpose: the write-permission
// boundary is enforced by the type, not by a runtime field list.
type DriverDeliveryUpdate struct {
	Status      *DeliveryStatus
	Notes       *string
	ScannedAt   *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	ProofPhoto  *string
	Signature   *string
}

// Apply returns a copy of d with the non-nil fields of u applied.
func (d Delivery) Apply(u DriverDeliveryUpdate) Delivery {
	if u.Status != nil {
		d.Status = *u.Status
	}
	if u.Notes != nil {
		d.Notes = *u.Notes
	}
	if u.ScannedAt != nil {
		d.ScannedAt = u.ScannedAt
	}
	if u.StartedAt != nil {
		d.StartedAt = u.StartedAt
	}
	if u.CompletedAt != nil {
		d.CompletedAt = u.CompletedAt
	}
	if u.ProofPhoto != nil {
		d.ProofPhoto = *u.ProofPhoto
	}
	if u.Signature != nil {
		d.Signature = *u.Signature
	}
	return d
}

// SortByRoute orders deliveries by dispatch route order, ascending.
// RouteOrder is a positive integer when assigned; deliveries without an
// assigned route order sort after all assigned ones. The sort is stable.
func SortByRoute(deliveries []Delivery) {
	sort.SliceStable(deliveries, func(i, j int) bool {
		a, b := deliveries[i].RouteOrder, deliveries[j].RouteOrder
		switch {
		case a > 0 && b > 0:
			return a < b
		case a > 0:
			return true
		default:
			return false
		}
	})
}
