package handlers

import (
	"time"

	"driver-portal/internal/domain"
)

type updateDeliveryRequest struct {
	Status      *domain.DeliveryStatus `json:"status,omitempty"`
	Notes       *string                `json:"notes,omitempty"`
	ScannedAt   *time.Time             `json:"scannedAt,omitempty"`
	StartedAt   *time.Time             `json:"startedAt,omitempty"`
	CompletedAt *time.Time             `json:"completedAt,omitempty"`
	ProofPhoto  *string                `json:"proofPhoto,omitempty"`
	Signature   *string                `json:"signature,omitempty"`
}

type completeDeliveryRequest struct {
	ProofPhoto string `json:"proofPhoto"`
	Signature  string `json:"signature,omitempty"`
}

type reportIssueRequest struct {
	DeliveryID   string `json:"deliveryId"`
	Type         string `json:"type"`
	Description  string `json:"description"`
	Photo        string `json:"photo,omitempty"`
	FlagDelivery bool   `json:"flagDelivery,omitempty"`
}

type sessionResponse struct {
	LoggedIn bool `json:"loggedIn"`
}

type okResponse struct {
	Status string `json:"status"`
}
