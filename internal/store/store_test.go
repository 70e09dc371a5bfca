package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"driver-portal/internal/apperr"
	"driver-portal/internal/domain"
	testlog "driver-portal/internal/testutil"
)

type fakeKV struct {
	mu      sync.Mutex
	data    map[string]string
	getErr  error
	putErr  error
	putOnce map[string]int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, putOnce: map[string]int{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeKV) Put(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.data[key] = value
	f.putOnce[key]++
	return nil
}

type ledgerEntry struct {
	deliveryID string
	amount     float64
	at         time.Time
}

type fakeLedger struct {
	mu        sync.Mutex
	entries   []ledgerEntry
	appendErr error
	countErr  error
}

func (f *fakeLedger) Append(_ context.Context, deliveryID string, amount float64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.entries = append(f.entries, ledgerEntry{deliveryID: deliveryID, amount: amount, at: at})
	return nil
}

func (f *fakeLedger) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.entries), nil
}

func (f *fakeLedger) CountSince(_ context.Context, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	n := 0
	for _, e := range f.entries {
		if !e.at.Before(since) {
			n++
		}
	}
	return n, nil
}

var testNow = time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)

func newTestStore(kv *fakeKV, ledger *fakeLedger, rec *testlog.Recorder) *Store {
	s := New(kv, ledger, rec.Logger()).
		WithClock(func() time.Time { return testNow }).
		WithIDGenerator(func() string { return "issue-1" })
	s.Load(context.Background())
	return s
}

func TestLoad_EmptyStorage_UsesSeeds(t *testing.T) {
	t.Parallel()

	s := newTestStore(newFakeKV(), &fakeLedger{}, testlog.New())

	deliveries, err := s.Deliveries()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deliveries) != 4 {
		t.Fatalf("expected 4 seed deliveries, got %d", len(deliveries))
	}

	blocks, err := s.Blocks()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 4 {
		t.Fatalf("expected 4 seed blocks, got %d", len(blocks))
	}

	issues, err := s.Issues()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("expected no seed issues, got %d", len(issues))
	}

	loggedIn, err := s.LoggedIn()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loggedIn {
		t.Fatal("fresh store should not be logged in")
	}

	stats, err := s.Statistics()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats != SeedStatistics() {
		t.Fatalf("expected seed statistics, got %+v", stats)
	}
}

func TestLoad_PersistedStateWins(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	persisted := []domain.Delivery{{ID: "d-1", Recipient: "Ann Lee", Status: domain.DeliveryPending, Priority: domain.PriorityNormal}}
	raw, err := json.Marshal(persisted)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	kv.data["app:deliveries"] = string(raw)
	kv.data["app:isLoggedIn"] = "true"

	s := newTestStore(kv, &fakeLedger{}, testlog.New())

	deliveries, err := s.Deliveries()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deliveries) != 1 || deliveries[0].ID != "d-1" {
		t.Fatalf("expected the persisted delivery, got %+v", deliveries)
	}

	loggedIn, err := s.LoggedIn()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !loggedIn {
		t.Fatal("persisted session flag should survive a load")
	}
}

func TestLoad_ReadFailure_FallsBackToSeeds(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	kv.getErr = errors.New("disk gone")
	rec := testlog.New()

	s := newTestStore(kv, &fakeLedger{}, rec)

	deliveries, err := s.Deliveries()
	if err != nil {
		t.Fatalf("store must stay usable after a failed load: %v", err)
	}
	if len(deliveries) != 4 {
		t.Fatalf("expected seed deliveries, got %d", len(deliveries))
	}
	if !rec.Has("error", "load failed, falling back to seed data") {
		t.Fatal("expected the load failure to be logged")
	}
}

func TestLoad_CorruptValue_FallsBackToSeeds(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	kv.data["app:deliveries"] = "{not json"

	s := newTestStore(kv, &fakeLedger{}, testlog.New())

	deliveries, err := s.Deliveries()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deliveries) != 4 {
		t.Fatalf("expected seed deliveries after corrupt value, got %d", len(deliveries))
	}
}

func TestStore_BeforeLoad_NotReady(t *testing.T) {
	t.Parallel()

	s := New(newFakeKV(), &fakeLedger{}, nil)

	if _, err := s.LoggedIn(); !errors.Is(err, apperr.NotReady) {
		t.Fatalf("expected NotReady, got %v", err)
	}
	if _, err := s.Deliveries(); !errors.Is(err, apperr.NotReady) {
		t.Fatalf("expected NotReady, got %v", err)
	}
	if err := s.Login(context.Background()); !errors.Is(err, apperr.NotReady) {
		t.Fatalf("expected NotReady, got %v", err)
	}
}

func TestLoginLogout_PersistFlag(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	s := newTestStore(kv, &fakeLedger{}, testlog.New())

	if err := s.Login(context.Background()); err != nil {
		t.Fatalf("login: %v", err)
	}
	if kv.data["app:isLoggedIn"] != "true" {
		t.Fatalf("expected persisted true, got %q", kv.data["app:isLoggedIn"])
	}

	if err := s.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if kv.data["app:isLoggedIn"] != "false" {
		t.Fatalf("expected persisted false, got %q", kv.data["app:isLoggedIn"])
	}
}

func TestLogin_PersistFailure_StillLogsIn(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	kv.putErr = errors.New("write denied")
	rec := testlog.New()
	s := newTestStore(kv, &fakeLedger{}, rec)

	if err := s.Login(context.Background()); err != nil {
		t.Fatalf("login must not surface persistence errors: %v", err)
	}
	loggedIn, err := s.LoggedIn()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !loggedIn {
		t.Fatal("in-memory flag should flip despite the failed write")
	}
	if !rec.Has("error", "persist session flag failed") {
		t.Fatal("expected the failed write to be logged")
	}
}

func TestDeliveries_SortedByRouteOrder(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	raw, _ := json.Marshal([]domain.Delivery{
		{ID: "a", RouteOrder: 3},
		{ID: "b"},
		{ID: "c", RouteOrder: 1},
	})
	kv.data["app:deliveries"] = string(raw)

	s := newTestStore(kv, &fakeLedger{}, testlog.New())

	deliveries, err := s.Deliveries()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := []string{deliveries[0].ID, deliveries[1].ID, deliveries[2].ID}
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestUpdateDelivery_UnknownID_NoOp(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	s := newTestStore(kv, &fakeLedger{}, testlog.New())

	before, _ := s.Deliveries()
	status := domain.DeliveryDelivered
	_, err := s.UpdateDelivery(context.Background(), "nope", domain.DriverDeliveryUpdate{Status: &status})
	if !errors.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}

	after, _ := s.Deliveries()
	if len(before) != len(after) {
		t.Fatalf("unknown id must not change the collection")
	}
	if kv.putOnce["app:deliveries"] != 0 {
		t.Fatal("unknown id must not touch storage")
	}
}

func TestUpdateDelivery_InvalidStatus(t *testing.T) {
	t.Parallel()

	s := newTestStore(newFakeKV(), &fakeLedger{}, testlog.New())

	bad := domain.DeliveryStatus("teleported")
	_, err := s.UpdateDelivery(context.Background(), "1", domain.DriverDeliveryUpdate{Status: &bad})
	if !errors.Is(err, apperr.Invalid) {
		t.Fatalf("expected Invalid, got %v", err)
	}
}

func TestUpdateDelivery_DriverFieldsApplied(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	s := newTestStore(kv, &fakeLedger{}, testlog.New())

	status := domain.DeliveryInProgress
	notes := "gate code 4421"
	updated, err := s.UpdateDelivery(context.Background(), "1", domain.DriverDeliveryUpdate{
		Status: &status,
		Notes:  &notes,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.DeliveryInProgress || updated.Notes != notes {
		t.Fatalf("driver fields not applied: %+v", updated)
	}
	if updated.Address != "123 Main St, Apt 4B" || updated.RouteOrder != 1 {
		t.Fatalf("dispatch fields must be untouched: %+v", updated)
	}
	if kv.putOnce["app:deliveries"] == 0 {
		t.Fatal("expected the collection to be persisted")
	}
}

func TestUpdateDelivery_CompletionRecordedOnce(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{}
	s := newTestStore(newFakeKV(), ledger, testlog.New())

	statsBefore, _ := s.Statistics()

	status := domain.DeliveryDelivered
	completedAt := testNow.Add(-10 * time.Minute)
	if _, err := s.UpdateDelivery(context.Background(), "1", domain.DriverDeliveryUpdate{
		Status:      &status,
		CompletedAt: &completedAt,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if len(ledger.entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(ledger.entries))
	}
	e := ledger.entries[0]
	if e.deliveryID != "1" || e.amount != PerDeliveryRate || !e.at.Equal(completedAt) {
		t.Fatalf("unexpected ledger entry: %+v", e)
	}

	stats, _ := s.Statistics()
	if stats.TotalDeliveries != statsBefore.TotalDeliveries+1 {
		t.Fatalf("lifetime deliveries: want %d, got %d", statsBefore.TotalDeliveries+1, stats.TotalDeliveries)
	}
	if stats.TotalEarnings != statsBefore.TotalEarnings+PerDeliveryRate {
		t.Fatalf("lifetime earnings: want %v, got %v", statsBefore.TotalEarnings+PerDeliveryRate, stats.TotalEarnings)
	}

	// Writing delivered again on an already delivered row is not a completion.
	if _, err := s.UpdateDelivery(context.Background(), "1", domain.DriverDeliveryUpdate{Status: &status}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(ledger.entries) != 1 {
		t.Fatalf("re-delivering must not append again, got %d entries", len(ledger.entries))
	}
}

func TestUpdateDelivery_PersistFailure_StillApplies(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	kv.putErr = errors.New("storage full")
	rec := testlog.New()
	s := newTestStore(kv, &fakeLedger{}, rec)

	notes := "left at reception"
	updated, err := s.UpdateDelivery(context.Background(), "2", domain.DriverDeliveryUpdate{Notes: &notes})
	if err != nil {
		t.Fatalf("update must not surface persistence errors: %v", err)
	}
	if updated.Notes != notes {
		t.Fatalf("in-memory state must carry the update: %+v", updated)
	}
	if !rec.Has("error", "persist failed") {
		t.Fatal("expected the failed write to be logged")
	}
}

func TestDeleteDelivery(t *testing.T) {
	t.Parallel()

	s := newTestStore(newFakeKV(), &fakeLedger{}, testlog.New())

	if err := s.DeleteDelivery(context.Background(), "2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Delivery("2"); !errors.Is(err, apperr.NotFound) {
		t.Fatalf("deleted delivery should be gone, got %v", err)
	}
	deliveries, _ := s.Deliveries()
	if len(deliveries) != 3 {
		t.Fatalf("expected 3 deliveries left, got %d", len(deliveries))
	}

	if err := s.DeleteDelivery(context.Background(), "2"); !errors.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound on second delete, got %v", err)
	}
}

func TestImportDeliveries_UpsertPreservesDriverFields(t *testing.T) {
	t.Parallel()

	s := newTestStore(newFakeKV(), &fakeLedger{}, testlog.New())

	status := domain.DeliveryInProgress
	notes := "dog in yard"
	if _, err := s.UpdateDelivery(context.Background(), "1", domain.DriverDeliveryUpdate{Status: &status, Notes: &notes}); err != nil {
		t.Fatalf("update: %v", err)
	}

	incoming := []domain.Delivery{
		{ID: "1", PackageNumber: "PKG-99999", Recipient: "John Smith", Address: "10 New Rd", RouteOrder: 7, Priority: domain.PriorityHigh},
		{ID: "42", Recipient: "New Customer", Address: "1 First St"},
	}
	if err := s.ImportDeliveries(context.Background(), incoming); err != nil {
		t.Fatalf("import: %v", err)
	}

	d, err := s.Delivery("1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.Address != "10 New Rd" || d.RouteOrder != 7 || d.PackageNumber != "PKG-99999" {
		t.Fatalf("dispatch fields must be overwritten: %+v", d)
	}
	if d.Status != domain.DeliveryInProgress || d.Notes != notes {
		t.Fatalf("driver fields must be preserved: %+v", d)
	}

	added, err := s.Delivery("42")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if added.Status != domain.DeliveryPending || added.Priority != domain.PriorityNormal {
		t.Fatalf("new deliveries get default status and priority: %+v", added)
	}
}

func TestImportDeliveries_MissingID_Invalid(t *testing.T) {
	t.Parallel()

	s := newTestStore(newFakeKV(), &fakeLedger{}, testlog.New())

	err := s.ImportDeliveries(context.Background(), []domain.Delivery{{Recipient: "nobody"}})
	if !errors.Is(err, apperr.Invalid) {
		t.Fatalf("expected Invalid, got %v", err)
	}
}

func TestScheduleBlock_Lifecycle(t *testing.T) {
	t.Parallel()

	s := newTestStore(newFakeKV(), &fakeLedger{}, testlog.New())

	if err := s.ScheduleBlock(context.Background(), "2"); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if got := blockStatus(t, s, "2"); got != domain.BlockScheduled {
		t.Fatalf("expected scheduled, got %s", got)
	}

	// Scheduling an already scheduled block stays scheduled.
	if err := s.ScheduleBlock(context.Background(), "2"); err != nil {
		t.Fatalf("second schedule: %v", err)
	}
	if got := blockStatus(t, s, "2"); got != domain.BlockScheduled {
		t.Fatalf("expected scheduled, got %s", got)
	}

	if err := s.CancelBlock(context.Background(), "2"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := blockStatus(t, s, "2"); got != domain.BlockAvailable {
		t.Fatalf("expected available, got %s", got)
	}

	if err := s.ScheduleBlock(context.Background(), "nope"); !errors.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func blockStatus(t *testing.T, s *Store, id string) domain.BlockStatus {
	t.Helper()
	blocks, err := s.Blocks()
	if err != nil {
		t.Fatalf("blocks: %v", err)
	}
	for _, b := range blocks {
		if b.ID == id {
			return b.Status
		}
	}
	t.Fatalf("block %s not found", id)
	return ""
}

func TestReportIssue_AppendsWithoutTouchingDeliveries(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	s := newTestStore(kv, &fakeLedger{}, testlog.New())

	before, _ := s.Deliveries()

	issue, err := s.ReportIssue(context.Background(), domain.IssueDraft{
		Type:        "damaged",
		Description: "box crushed on one side",
	})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if issue.ID != "issue-1" {
		t.Fatalf("expected generated id, got %q", issue.ID)
	}
	if issue.DeliveryID != domain.GeneralIssue {
		t.Fatalf("missing delivery id must map to %q, got %q", domain.GeneralIssue, issue.DeliveryID)
	}
	if !issue.Timestamp.Equal(testNow) {
		t.Fatalf("expected clock timestamp, got %v", issue.Timestamp)
	}

	issues, _ := s.Issues()
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}

	after, _ := s.Deliveries()
	if len(before) != len(after) {
		t.Fatal("reporting an issue must not touch deliveries")
	}
	if kv.putOnce["app:deliveries"] != 0 {
		t.Fatal("reporting an issue must not rewrite the deliveries key")
	}
}

func TestRecomputeStatistics_WeeklyWindow(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{entries: []ledgerEntry{
		{deliveryID: "a", amount: PerDeliveryRate, at: testNow.Add(-2 * 24 * time.Hour)},
		{deliveryID: "b", amount: PerDeliveryRate, at: testNow.Add(-6 * 24 * time.Hour)},
		{deliveryID: "c", amount: PerDeliveryRate, at: testNow.Add(-10 * 24 * time.Hour)},
	}}
	s := newTestStore(newFakeKV(), ledger, testlog.New())

	if err := s.RecomputeStatistics(context.Background()); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	stats, _ := s.Statistics()
	if stats.WeeklyDeliveries != 2 {
		t.Fatalf("expected 2 completions in the trailing week, got %d", stats.WeeklyDeliveries)
	}
	if stats.WeeklyEarnings != 2*PerDeliveryRate {
		t.Fatalf("expected weekly earnings %v, got %v", 2*PerDeliveryRate, stats.WeeklyEarnings)
	}
}

func TestRecomputeStatistics_LedgerDown_KeepsTotals(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{}
	s := newTestStore(newFakeKV(), ledger, testlog.New())
	before, _ := s.Statistics()

	ledger.mu.Lock()
	ledger.countErr = errors.New("ledger offline")
	ledger.mu.Unlock()

	if err := s.RecomputeStatistics(context.Background()); err != nil {
		t.Fatalf("recompute must not surface ledger errors: %v", err)
	}
	after, _ := s.Statistics()
	if after.TotalDeliveries != before.TotalDeliveries || after.WeeklyDeliveries != before.WeeklyDeliveries {
		t.Fatalf("totals must hold when the ledger is unavailable: before %+v after %+v", before, after)
	}
}

func TestRefresh_PicksUpExternalWrites(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	s := newTestStore(kv, &fakeLedger{}, testlog.New())

	raw, _ := json.Marshal([]domain.Delivery{{ID: "x", Status: domain.DeliveryPending, Priority: domain.PriorityNormal}})
	kv.mu.Lock()
	kv.data["app:deliveries"] = string(raw)
	kv.mu.Unlock()

	s.Refresh(context.Background())

	deliveries, err := s.Deliveries()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deliveries) != 1 || deliveries[0].ID != "x" {
		t.Fatalf("refresh should re-read storage, got %+v", deliveries)
	}
}

func TestStore_ConcurrentMutations(t *testing.T) {
	t.Parallel()

	s := newTestStore(newFakeKV(), &fakeLedger{}, testlog.New())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.ReportIssue(context.Background(), domain.IssueDraft{
				Type:        "other",
				Description: fmt.Sprintf("note %d", i),
			})
		}(i)
	}
	wg.Wait()

	issues, err := s.Issues()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 20 {
		t.Fatalf("expected 20 issues, got %d", len(issues))
	}
}
