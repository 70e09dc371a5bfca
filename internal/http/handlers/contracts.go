package handlers

import (
	"context"

	"driver-portal/internal/domain"
	"driver-portal/internal/store"
)

type sessionUsecase interface {
	LoggedIn() (bool, error)
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
}

// NewSessionUsecase wires the state store into a sessionUsecase.
func NewSessionUsecase(s *store.Store) sessionUsecase {
	return s
}

type deliveryUsecase interface {
	Deliveries() ([]domain.Delivery, error)
	Delivery(id string) (domain.Delivery, error)
	UpdateDelivery(ctx context.Context, id string, u domain.DriverDeliveryUpdate) (domain.Delivery, error)
	DeleteDelivery(ctx context.Context, id string) error
}

// NewDeliveryUsecase wires the state store into a deliveryUsecase.
func NewDeliveryUsecase(s *store.Store) deliveryUsecase {
	return s
}

type scheduleUsecase interface {
	Blocks() ([]domain.DeliveryBlock, error)
	ScheduleBlock(ctx context.Context, id string) error
	CancelBlock(ctx context.Context, id string) error
}

// NewScheduleUsecase wires the state store into a scheduleUsecase.
func NewScheduleUsecase(s *store.Store) scheduleUsecase {
	return s
}

type issueUsecase interface {
	Issues() ([]domain.Issue, error)
	ReportIssue(ctx context.Context, draft domain.IssueDraft) (domain.Issue, error)
}

// NewIssueUsecase wires the state store into an issueUsecase.
func NewIssueUsecase(s *store.Store) issueUsecase {
	return s
}

type statisticsUsecase interface {
	Statistics() (domain.Statistics, error)
	Refresh(ctx context.Context)
}

// NewStatisticsUsecase wires the state store into a statisticsUsecase.
func NewStatisticsUsecase(s *store.Store) statisticsUsecase {
	return s
}
