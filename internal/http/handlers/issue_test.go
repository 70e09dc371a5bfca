package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"driver-portal/internal/apperr"
	"driver-portal/internal/domain"
	testlog "driver-portal/internal/testutil"
)

type stubIssueUsecase struct {
	issuesFn func() ([]domain.Issue, error)
	reportFn func(ctx context.Context, draft domain.IssueDraft) (domain.Issue, error)
}

func (s *stubIssueUsecase) Issues() ([]domain.Issue, error) { return s.issuesFn() }
func (s *stubIssueUsecase) ReportIssue(ctx context.Context, draft domain.IssueDraft) (domain.Issue, error) {
	return s.reportFn(ctx, draft)
}

func TestIssueReport_Created(t *testing.T) {
	t.Parallel()

	issues := &stubIssueUsecase{
		reportFn: func(_ context.Context, draft domain.IssueDraft) (domain.Issue, error) {
			return domain.Issue{
				ID:          "issue-1",
				DeliveryID:  draft.DeliveryID,
				Type:        draft.Type,
				Description: draft.Description,
				Timestamp:   time.Now(),
			}, nil
		},
	}
	deliveries := &stubDeliveryUsecase{
		updateFn: func(context.Context, string, domain.DriverDeliveryUpdate) (domain.Delivery, error) {
			t.Fatal("delivery must not be flagged without flagDelivery")
			return domain.Delivery{}, nil
		},
	}
	h := NewIssueHandler(testlog.New().Logger(), issues, deliveries)

	body := `{"deliveryId":"3","type":"damaged","description":"box crushed"}`
	rec := httptest.NewRecorder()
	h.Report(rec, httptest.NewRequest(http.MethodPost, "/issues", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"issue-1"`)
}

func TestIssueReport_MissingFields(t *testing.T) {
	t.Parallel()

	issues := &stubIssueUsecase{
		reportFn: func(context.Context, domain.IssueDraft) (domain.Issue, error) {
			t.Fatal("usecase must not be reached")
			return domain.Issue{}, nil
		},
	}
	h := NewIssueHandler(testlog.New().Logger(), issues, &stubDeliveryUsecase{})

	rec := httptest.NewRecorder()
	h.Report(rec, httptest.NewRequest(http.MethodPost, "/issues", strings.NewReader(`{"type":"damaged"}`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIssueReport_FlagDelivery(t *testing.T) {
	t.Parallel()

	issues := &stubIssueUsecase{
		reportFn: func(_ context.Context, draft domain.IssueDraft) (domain.Issue, error) {
			return domain.Issue{ID: "issue-1", DeliveryID: draft.DeliveryID}, nil
		},
	}
	var flaggedID string
	var flaggedStatus domain.DeliveryStatus
	deliveries := &stubDeliveryUsecase{
		updateFn: func(_ context.Context, id string, u domain.DriverDeliveryUpdate) (domain.Delivery, error) {
			flaggedID = id
			if u.Status != nil {
				flaggedStatus = *u.Status
			}
			return domain.Delivery{ID: id}, nil
		},
	}
	h := NewIssueHandler(testlog.New().Logger(), issues, deliveries)

	body := `{"deliveryId":"3","type":"refused","description":"customer refused","flagDelivery":true}`
	rec := httptest.NewRecorder()
	h.Report(rec, httptest.NewRequest(http.MethodPost, "/issues", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "3", flaggedID)
	require.Equal(t, domain.DeliveryException, flaggedStatus)
}

func TestIssueReport_FlagDeliveryFailure_StillCreated(t *testing.T) {
	t.Parallel()

	issues := &stubIssueUsecase{
		reportFn: func(_ context.Context, draft domain.IssueDraft) (domain.Issue, error) {
			return domain.Issue{ID: "issue-1", DeliveryID: draft.DeliveryID}, nil
		},
	}
	deliveries := &stubDeliveryUsecase{
		updateFn: func(context.Context, string, domain.DriverDeliveryUpdate) (domain.Delivery, error) {
			return domain.Delivery{}, apperr.NotFound
		},
	}
	logRec := testlog.New()
	h := NewIssueHandler(logRec.Logger(), issues, deliveries)

	body := `{"deliveryId":"gone","type":"other","description":"cannot find address","flagDelivery":true}`
	rec := httptest.NewRecorder()
	h.Report(rec, httptest.NewRequest(http.MethodPost, "/issues", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, logRec.Has("warn", "flag delivery as exception failed"))
}

func TestIssueReport_GeneralIssueNotFlagged(t *testing.T) {
	t.Parallel()

	issues := &stubIssueUsecase{
		reportFn: func(context.Context, domain.IssueDraft) (domain.Issue, error) {
			return domain.Issue{ID: "issue-1", DeliveryID: domain.GeneralIssue}, nil
		},
	}
	deliveries := &stubDeliveryUsecase{
		updateFn: func(context.Context, string, domain.DriverDeliveryUpdate) (domain.Delivery, error) {
			t.Fatal("a general issue has no delivery to flag")
			return domain.Delivery{}, nil
		},
	}
	h := NewIssueHandler(testlog.New().Logger(), issues, deliveries)

	body := `{"type":"other","description":"app froze","flagDelivery":true}`
	rec := httptest.NewRecorder()
	h.Report(rec, httptest.NewRequest(http.MethodPost, "/issues", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestIssueList(t *testing.T) {
	t.Parallel()

	issues := &stubIssueUsecase{
		issuesFn: func() ([]domain.Issue, error) {
			return []domain.Issue{{ID: "issue-1", Type: "damaged"}}, nil
		},
	}
	h := NewIssueHandler(testlog.New().Logger(), issues, &stubDeliveryUsecase{})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/issues", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "damaged")
}
