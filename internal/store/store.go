package store

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"driver-portal/internal/apperr"
	"driver-portal/internal/domain"
	"driver-portal/internal/logx"
)

// Storage keys for the five durable values.
const (
	keyLoggedIn   = "app:isLoggedIn"
	keyDeliveries = "app:deliveries"
	keyBlocks     = "app:deliveryBlocks"
	keyIssues     = "app:issues"
	keyStatistics = "app:statistics"
)

// KV is the durable key-value storage the store persists into.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
}

// CompletionLedger records one event per completed delivery.
type CompletionLedger interface {
	Append(ctx context.Context, deliveryID string, amount float64, at time.Time) error
	Count(ctx context.Context) (int, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// Store is the single source of truth for session state, the delivery, block
// and issue collections, and the derived statistics snapshot.
//
// Every mutator follows the same sequence: persist the full updated
// collection, apply it in memory, recompute statistics when the mutation
// affects counts. Persistence failures are logged and counted but never
// surfaced or rolled back; the driver keeps working from in-memory state.
type Store struct {
	mu     sync.RWMutex
	kv     KV
	ledger CompletionLedger
	logger logx.Logger

	now         func() time.Time
	newID       func() string
	failures    prometheus.Counter
	completions prometheus.Counter

	ready      bool
	loggedIn   bool
	deliveries []domain.Delivery
	blocks     []domain.DeliveryBlock
	issues     []domain.Issue
	stats      domain.Statistics
	ledgerSeen int
}

// New creates a Store over the given storage. Call Load before using it.
func New(kv KV, ledger CompletionLedger, logger logx.Logger) *Store {
	if logger == nil {
		logger = logx.Nop()
	}
	return &Store{
		kv:     kv,
		ledger: ledger,
		logger: logger,
		now:    func() time.Time { return time.Now() },
		newID:  uuid.NewString,
	}
}

// WithClock overrides the time source.
func (s *Store) WithClock(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

// WithIDGenerator overrides the issue id generator.
func (s *Store) WithIDGenerator(fn func() string) *Store {
	if fn != nil {
		s.newID = fn
	}
	return s
}

// WithCounters attaches the persistence-failure and completion counters.
func (s *Store) WithCounters(failures, completions prometheus.Counter) *Store {
	s.failures = failures
	s.completions = completions
	return s
}

// Load populates the collections from durable storage, falling back to the
// seed dataset for any key that is missing. A read or decode failure drops
// the whole load back to seeds: the portal always ends up usable.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)
}

// Refresh re-reads all collections from durable storage.
func (s *Store) Refresh(ctx context.Context) {
	s.Load(ctx)
}

func (s *Store) loadLocked(ctx context.Context) {
	now := s.now()

	loggedIn, deliveries, blocks, issues, stats, err := s.readAll(ctx, now)
	if err != nil {
		s.countFailure()
		s.logger.Error("load failed, falling back to seed data", logx.Any("err", err))
		loggedIn = false
		deliveries = SeedDeliveries(now)
		blocks = SeedBlocks()
		issues = nil
		stats = SeedStatistics()
	}

	s.loggedIn = loggedIn
	s.deliveries = deliveries
	s.blocks = blocks
	s.issues = issues
	s.stats = stats

	if n, cntErr := s.ledger.Count(ctx); cntErr != nil {
		s.logger.Warn("ledger count unavailable on load", logx.Any("err", cntErr))
	} else {
		s.ledgerSeen = n
	}

	s.ready = true
	s.logger.Info("store loaded",
		logx.Int("deliveries", len(s.deliveries)),
		logx.Int("blocks", len(s.blocks)),
		logx.Int("issues", len(s.issues)),
		logx.Bool("logged_in", s.loggedIn),
	)
}

func (s *Store) readAll(ctx context.Context, now time.Time) (bool, []domain.Delivery, []domain.DeliveryBlock, []domain.Issue, domain.Statistics, error) {
	var (
		loggedIn   bool
		deliveries = SeedDeliveries(now)
		blocks     = SeedBlocks()
		issues     []domain.Issue
		stats      = SeedStatistics()
	)

	raw, ok, err := s.kv.Get(ctx, keyLoggedIn)
	if err != nil {
		return false, nil, nil, nil, domain.Statistics{}, err
	}
	if ok {
		loggedIn = raw == "true"
	}

	if err := readJSON(ctx, s.kv, keyDeliveries, &deliveries); err != nil {
		return false, nil, nil, nil, domain.Statistics{}, err
	}
	if err := readJSON(ctx, s.kv, keyBlocks, &blocks); err != nil {
		return false, nil, nil, nil, domain.Statistics{}, err
	}
	if err := readJSON(ctx, s.kv, keyIssues, &issues); err != nil {
		return false, nil, nil, nil, domain.Statistics{}, err
	}
	if err := readJSON(ctx, s.kv, keyStatistics, &stats); err != nil {
		return false, nil, nil, nil, domain.Statistics{}, err
	}
	return loggedIn, deliveries, blocks, issues, stats, nil
}

// readJSON decodes the stored value for key into dst, leaving dst untouched
// when the key is absent.
func readJSON(ctx context.Context, kv KV, key string, dst any) error {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}

// Ready reports whether the initial load has completed.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// LoggedIn returns the session flag.
func (s *Store) LoggedIn() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return false, apperr.NotReady
	}
	return s.loggedIn, nil
}

// Login persists and sets the session flag. The in-memory flag updates even
// when persistence fails; this is a placeholder session toggle, not a
// security boundary.
func (s *Store) Login(ctx context.Context) error {
	return s.setLoggedIn(ctx, true)
}

// Logout persists and clears the session flag.
func (s *Store) Logout(ctx context.Context) error {
	return s.setLoggedIn(ctx, false)
}

func (s *Store) setLoggedIn(ctx context.Context, v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return apperr.NotReady
	}
	if err := s.kv.Put(ctx, keyLoggedIn, strconv.FormatBool(v)); err != nil {
		s.countFailure()
		s.logger.Error("persist session flag failed", logx.Any("err", err))
	}
	s.loggedIn = v
	s.logger.Info("session changed", logx.Bool("logged_in", v))
	return nil
}

// Deliveries returns the delivery collection in dispatch route order;
// deliveries without an assigned route order come last.
func (s *Store) Deliveries() ([]domain.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return nil, apperr.NotReady
	}
	out := make([]domain.Delivery, len(s.deliveries))
	copy(out, s.deliveries)
	domain.SortByRoute(out)
	return out, nil
}

// Delivery returns the delivery with the given id.
func (s *Store) Delivery(id string) (domain.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return domain.Delivery{}, apperr.NotReady
	}
	for _, d := range s.deliveries {
		if d.ID == id {
			return d, nil
		}
	}
	return domain.Delivery{}, apperr.NotFound
}

// UpdateDelivery applies a driver-editable partial update to the delivery
// with the given id and recomputes statistics. Dispatch-controlled fields
// cannot be expressed in the update type. A transition into delivered
// appends one completion event to the ledger.
func (s *Store) UpdateDelivery(ctx context.Context, id string, u domain.DriverDeliveryUpdate) (domain.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return domain.Delivery{}, apperr.NotReady
	}
	if u.Status != nil && !u.Status.Valid() {
		return domain.Delivery{}, apperr.Invalid
	}

	idx := s.indexOfDelivery(id)
	if idx < 0 {
		return domain.Delivery{}, apperr.NotFound
	}
	prev := s.deliveries[idx]
	updated := prev.Apply(u)

	next := make([]domain.Delivery, len(s.deliveries))
	copy(next, s.deliveries)
	next[idx] = updated

	s.persist(ctx, keyDeliveries, next)
	s.deliveries = next

	if prev.Status != domain.DeliveryDelivered && updated.Status == domain.DeliveryDelivered {
		s.recordCompletion(ctx, updated)
	}
	s.recomputeLocked(ctx)

	s.logger.Info("delivery updated",
		logx.String("delivery_id", id),
		logx.String("status", string(updated.Status)),
	)
	return updated, nil
}

// DeleteDelivery removes the delivery with the given id. Deletion is a
// dispatch-grade capability; the store does not enforce that restriction.
func (s *Store) DeleteDelivery(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return apperr.NotReady
	}

	idx := s.indexOfDelivery(id)
	if idx < 0 {
		return apperr.NotFound
	}

	next := make([]domain.Delivery, 0, len(s.deliveries)-1)
	next = append(next, s.deliveries[:idx]...)
	next = append(next, s.deliveries[idx+1:]...)

	s.persist(ctx, keyDeliveries, next)
	s.deliveries = next
	s.recomputeLocked(ctx)

	s.logger.Warn("delivery deleted", logx.String("delivery_id", id))
	return nil
}

// ImportDeliveries upserts dispatch-assigned deliveries by id. Dispatch
// fields overwrite; driver-editable fields of existing deliveries are kept.
func (s *Store) ImportDeliveries(ctx context.Context, incoming []domain.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return apperr.NotReady
	}

	next := make([]domain.Delivery, len(s.deliveries))
	copy(next, s.deliveries)

	for _, in := range incoming {
		if in.ID == "" {
			return apperr.Invalid
		}
		if in.Status == "" {
			in.Status = domain.DeliveryPending
		}
		if in.Priority == "" {
			in.Priority = domain.PriorityNormal
		}
		idx := indexOf(next, in.ID)
		if idx < 0 {
			next = append(next, in)
			continue
		}
		cur := next[idx]
		cur.PackageNumber = in.PackageNumber
		cur.Recipient = in.Recipient
		cur.Address = in.Address
		cur.Phone = in.Phone
		cur.Priority = in.Priority
		cur.TimeWindow = in.TimeWindow
		cur.Latitude = in.Latitude
		cur.Longitude = in.Longitude
		cur.PackageCount = in.PackageCount
		cur.RouteOrder = in.RouteOrder
		next[idx] = cur
	}

	s.persist(ctx, keyDeliveries, next)
	s.deliveries = next
	s.recomputeLocked(ctx)

	s.logger.Info("dispatch deliveries imported", logx.Int("count", len(incoming)))
	return nil
}

// Blocks returns the work block collection.
func (s *Store) Blocks() ([]domain.DeliveryBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return nil, apperr.NotReady
	}
	out := make([]domain.DeliveryBlock, len(s.blocks))
	copy(out, s.blocks)
	return out, nil
}

// ScheduleBlock claims a work block. Scheduling an already scheduled block
// is a no-op by construction.
func (s *Store) ScheduleBlock(ctx context.Context, id string) error {
	return s.setBlockStatus(ctx, id, domain.BlockScheduled)
}

// CancelBlock releases a work block back to available.
func (s *Store) CancelBlock(ctx context.Context, id string) error {
	return s.setBlockStatus(ctx, id, domain.BlockAvailable)
}

func (s *Store) setBlockStatus(ctx context.Context, id string, status domain.BlockStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return apperr.NotReady
	}

	idx := -1
	for i, b := range s.blocks {
		if b.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperr.NotFound
	}

	next := make([]domain.DeliveryBlock, len(s.blocks))
	copy(next, s.blocks)
	next[idx].Status = status

	s.persist(ctx, keyBlocks, next)
	s.blocks = next

	s.logger.Info("block status changed",
		logx.String("block_id", id),
		logx.String("status", string(status)),
	)
	return nil
}

// Issues returns the issue collection.
func (s *Store) Issues() ([]domain.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return nil, apperr.NotReady
	}
	out := make([]domain.Issue, len(s.issues))
	copy(out, s.issues)
	return out, nil
}

// ReportIssue assigns an id and timestamp to the draft and appends it.
// Issues are append-only and never touch the deliveries collection; callers
// that want the related delivery flagged call UpdateDelivery separately.
func (s *Store) ReportIssue(ctx context.Context, draft domain.IssueDraft) (domain.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return domain.Issue{}, apperr.NotReady
	}

	issue := domain.Issue{
		ID:          s.newID(),
		DeliveryID:  draft.DeliveryID,
		Type:        draft.Type,
		Description: draft.Description,
		Photo:       draft.Photo,
		Timestamp:   s.now(),
	}
	if issue.DeliveryID == "" {
		issue.DeliveryID = domain.GeneralIssue
	}

	next := make([]domain.Issue, 0, len(s.issues)+1)
	next = append(next, s.issues...)
	next = append(next, issue)

	s.persist(ctx, keyIssues, next)
	s.issues = next

	s.logger.Info("issue reported",
		logx.String("issue_id", issue.ID),
		logx.String("delivery_id", issue.DeliveryID),
		logx.String("type", issue.Type),
	)
	return issue, nil
}

// Statistics returns the current derived snapshot.
func (s *Store) Statistics() (domain.Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return domain.Statistics{}, apperr.NotReady
	}
	return s.stats, nil
}

// RecomputeStatistics rederives the snapshot against the current collection.
// The periodic refresher calls this so today's counters roll over on a date
// change even without a mutation.
func (s *Store) RecomputeStatistics(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return apperr.NotReady
	}
	s.recomputeLocked(ctx)
	return nil
}

func (s *Store) recomputeLocked(ctx context.Context) {
	now := s.now()

	appended := 0
	if n, err := s.ledger.Count(ctx); err != nil {
		s.countFailure()
		s.logger.Warn("ledger count failed, lifetime totals unchanged", logx.Any("err", err))
	} else {
		appended = n - s.ledgerSeen
		s.ledgerSeen = n
	}

	weekly := s.stats.WeeklyDeliveries
	if n, err := s.ledger.CountSince(ctx, now.AddDate(0, 0, -7)); err != nil {
		s.countFailure()
		s.logger.Warn("ledger window count failed, weekly totals unchanged", logx.Any("err", err))
	} else {
		weekly = n
	}

	s.stats = Derive(s.deliveries, s.stats, appended, weekly, now)
	s.persist(ctx, keyStatistics, s.stats)
}

func (s *Store) recordCompletion(ctx context.Context, d domain.Delivery) {
	at := s.now()
	if d.CompletedAt != nil {
		at = *d.CompletedAt
	}
	if err := s.ledger.Append(ctx, d.ID, PerDeliveryRate, at); err != nil {
		s.countFailure()
		s.logger.Error("ledger append failed", logx.String("delivery_id", d.ID), logx.Any("err", err))
		return
	}
	if s.completions != nil {
		s.completions.Inc()
	}
}

// persist writes the full JSON-encoded value for key before the in-memory
// apply. Failures are logged and counted only: a local-storage hiccup must
// never block the driver.
func (s *Store) persist(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.countFailure()
		s.logger.Error("encode failed", logx.String("key", key), logx.Any("err", err))
		return
	}
	if err := s.kv.Put(ctx, key, string(raw)); err != nil {
		s.countFailure()
		s.logger.Error("persist failed", logx.String("key", key), logx.Any("err", err))
	}
}

func (s *Store) countFailure() {
	if s.failures != nil {
		s.failures.Inc()
	}
}

func (s *Store) indexOfDelivery(id string) int {
	return indexOf(s.deliveries, id)
}

func indexOf(deliveries []domain.Delivery, id string) int {
	for i, d := range deliveries {
		if d.ID == id {
			return i
		}
	}
	return -1
}
