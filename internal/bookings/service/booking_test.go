package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"bookable/internal/availability"
	bookingserrors "bookable/internal/bookings/errors"
	"bookable/internal/bookings/events"
	"bookable/internal/bookings/validator"
	linkserrors "bookable/internal/links/errors"
	"bookable/pkg/config"
	mongotx "bookable/pkg/db/mongo"
	apperrors "bookable/pkg/errors"
	"bookable/pkg/logger"
	"bookable/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// --- Mocks ---

type mockBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
	nextID   int

	create          func(ctx context.Context, booking *model.Booking) error
	findOverlapping func(ctx context.Context, linkID string, start, end time.Time) ([]*model.Booking, error)
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{bookings: map[string]*model.Booking{}}
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	if m.create != nil {
		return m.create(ctx, booking)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.bookings {
		if existing.LinkID == booking.LinkID &&
			existing.Date == booking.Date &&
			existing.SlotStart.Equal(booking.SlotStart) &&
			existing.Status != model.StatusCancelled {
			return bookingserrors.ErrSlotTaken
		}
	}
	m.nextID++
	booking.ID = string(rune('a' + m.nextID))
	booking.CreatedAt = time.Now().UTC()
	booking.SlotEnd = booking.SlotStart.Add(time.Duration(booking.DurationMin) * time.Minute)
	m.bookings[booking.ID] = booking
	return nil
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	copied := *booking
	return &copied, nil
}

func (m *mockBookingRepo) FindByLink(ctx context.Context, linkID string, limit int, offset int64) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.LinkID == linkID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) CountByLink(ctx context.Context, linkID string) (int64, error) {
	found, _ := m.FindByLink(ctx, linkID, 0, 0)
	return int64(len(found)), nil
}

func (m *mockBookingRepo) FindOverlapping(ctx context.Context, linkID string, start, end time.Time) ([]*model.Booking, error) {
	if m.findOverlapping != nil {
		return m.findOverlapping(ctx, linkID, start, end)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.LinkID == linkID && b.Status != model.StatusCancelled &&
			b.SlotStart.Before(end) && b.End().After(start) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) CountForDate(ctx context.Context, linkID string, date string, status string) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepo) UpdateStatus(ctx context.Context, id string, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	booking.Status = status
	return nil
}

func (m *mockBookingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

type mockLockRepo struct {
	mu    sync.Mutex
	held  map[string]bool
	fail  bool
	count int
}

func newMockLockRepo() *mockLockRepo {
	return &mockLockRepo{held: map[string]bool{}}
}

func (m *mockLockRepo) Acquire(ctx context.Context, lock *model.BookingLock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail || m.held[lock.ID] {
		return bookingserrors.ErrLockHeld
	}
	m.held[lock.ID] = true
	m.count++
	return nil
}

func (m *mockLockRepo) Release(ctx context.Context, lockID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, lockID)
	return nil
}

type mockLinkRepo struct {
	mu        sync.Mutex
	remaining int
	unlimited bool
}

func (m *mockLinkRepo) Create(ctx context.Context, link *model.LinkConstraints) error { return nil }
func (m *mockLinkRepo) FindByID(ctx context.Context, id string) (*model.LinkConstraints, error) {
	return nil, linkserrors.ErrNotFound
}
func (m *mockLinkRepo) FindByToken(ctx context.Context, token string) (*model.LinkConstraints, error) {
	return nil, linkserrors.ErrNotFound
}
func (m *mockLinkRepo) FindByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.LinkConstraints, error) {
	return nil, nil
}
func (m *mockLinkRepo) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	return 0, nil
}
func (m *mockLinkRepo) Update(ctx context.Context, id string, link *model.LinkConstraints) (*mongo.UpdateResult, error) {
	return nil, nil
}
func (m *mockLinkRepo) SetToken(ctx context.Context, id string, token string) error { return nil }
func (m *mockLinkRepo) Deactivate(ctx context.Context, id string) error             { return nil }

func (m *mockLinkRepo) DecrementRemaining(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unlimited {
		return nil
	}
	if m.remaining <= 0 {
		return linkserrors.ErrQuotaExhausted
	}
	m.remaining--
	return nil
}

func (m *mockLinkRepo) IncrementRemaining(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.unlimited {
		m.remaining++
	}
	return nil
}

func (m *mockLinkRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

type mockResolver struct {
	link *model.LinkConstraints
	err  error
}

func (m *mockResolver) Resolve(ctx context.Context, token string) (*model.LinkConstraints, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.link, nil
}

type mockAvailability struct {
	dateAvailable bool
	slots         []model.TimeSlot
}

func (m *mockAvailability) IsDateAvailable(ctx context.Context, token string, date string) (bool, error) {
	return m.dateAvailable, nil
}

func (m *mockAvailability) SlotsForDate(ctx context.Context, token string, date string) ([]model.TimeSlot, error) {
	return m.slots, nil
}

// --- Fixtures ---

func testConfig() *config.Config {
	return &config.Config{
		SlotGranularityMin: 30,
		Log:                logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard}),
	}
}

func testLink() *model.LinkConstraints {
	return &model.LinkConstraints{
		ID:          "64f000000000000000000001",
		OwnerID:     "64f000000000000000000002",
		Title:       "Intro call",
		DurationMin: 30,
		StartTime:   "09:00",
		EndTime:     "17:00",
		Active:      true,
	}
}

func slotAt(hour, min int) model.TimeSlot {
	return model.TimeSlot{
		Start:       time.Date(2026, 9, 15, hour, min, 0, 0, time.UTC),
		DurationMin: 30,
	}
}

func testSubmission() *model.BookingSubmission {
	return &model.BookingSubmission{
		Date:  "2026-09-15",
		Time:  "10:00",
		Name:  "Dana Levi",
		Email: "dana@example.com",
	}
}

type fixture struct {
	repo     *mockBookingRepo
	lockRepo *mockLockRepo
	linkRepo *mockLinkRepo
	avail    *mockAvailability
	svc      BookingService
}

func newFixture(link *model.LinkConstraints) *fixture {
	cfg := testConfig()
	f := &fixture{
		repo:     newMockBookingRepo(),
		lockRepo: newMockLockRepo(),
		linkRepo: &mockLinkRepo{unlimited: true},
		avail: &mockAvailability{
			dateAvailable: true,
			slots:         []model.TimeSlot{slotAt(9, 30), slotAt(10, 0), slotAt(10, 30)},
		},
	}
	f.svc = NewBookingService(
		f.repo,
		f.lockRepo,
		f.linkRepo,
		&mockResolver{link: link},
		f.avail,
		validator.NewBookingValidator(cfg.Log),
		events.NewPublisher(nil, cfg),
		cfg,
	)
	return f
}

// --- Tests ---

func TestSubmitAutoConfirms(t *testing.T) {
	f := newFixture(testLink())

	booking, err := f.svc.Submit(context.Background(), "tok", testSubmission())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != model.StatusConfirmed {
		t.Errorf("expected confirmed, got %s", booking.Status)
	}
	if !booking.SlotStart.Equal(time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected slot start: %v", booking.SlotStart)
	}
	if booking.ID == "" {
		t.Error("booking should have been persisted")
	}
}

func TestSubmitPendingWhenApprovalRequired(t *testing.T) {
	link := testLink()
	link.RequiresApproval = true
	f := newFixture(link)

	booking, err := f.svc.Submit(context.Background(), "tok", testSubmission())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != model.StatusPending {
		t.Errorf("expected pending, got %s", booking.Status)
	}
}

func TestSubmitRejectsInvalidPayload(t *testing.T) {
	f := newFixture(testLink())

	sub := testSubmission()
	sub.Email = "not-an-email"

	_, err := f.svc.Submit(context.Background(), "tok", sub)
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
	if f.lockRepo.count != 0 {
		t.Error("no lock should be taken for an invalid payload")
	}
}

func TestSubmitSlotNotOffered(t *testing.T) {
	f := newFixture(testLink())

	sub := testSubmission()
	sub.Time = "11:45"

	_, err := f.svc.Submit(context.Background(), "tok", sub)
	if !apperrors.IsCode(err, apperrors.CodeSlotNotAvailable) {
		t.Errorf("expected SLOT_NOT_AVAILABLE, got %v", err)
	}
}

func TestSubmitDateNotAvailable(t *testing.T) {
	f := newFixture(testLink())
	f.avail.dateAvailable = false
	f.avail.slots = []model.TimeSlot{}

	_, err := f.svc.Submit(context.Background(), "tok", testSubmission())
	if !apperrors.IsCode(err, apperrors.CodeDateNotAvailable) {
		t.Errorf("expected DATE_NOT_AVAILABLE, got %v", err)
	}
}

func TestSubmitLockContention(t *testing.T) {
	f := newFixture(testLink())
	f.lockRepo.fail = true

	_, err := f.svc.Submit(context.Background(), "tok", testSubmission())
	if !apperrors.IsCode(err, apperrors.CodeSlotConflict) {
		t.Errorf("expected SLOT_CONFLICT, got %v", err)
	}
}

func TestSubmitOverlapDetectedInTransaction(t *testing.T) {
	f := newFixture(testLink())
	f.repo.findOverlapping = func(ctx context.Context, linkID string, start, end time.Time) ([]*model.Booking, error) {
		return []*model.Booking{{ID: "existing"}}, nil
	}

	_, err := f.svc.Submit(context.Background(), "tok", testSubmission())
	if !apperrors.IsCode(err, apperrors.CodeSlotConflict) {
		t.Errorf("expected SLOT_CONFLICT, got %v", err)
	}
	if len(f.repo.bookings) != 0 {
		t.Error("no booking should be written when the overlap check fails")
	}
}

func TestSubmitQuotaExhausted(t *testing.T) {
	f := newFixture(testLink())
	f.linkRepo.unlimited = false
	f.linkRepo.remaining = 0

	_, err := f.svc.Submit(context.Background(), "tok", testSubmission())
	if !apperrors.IsCode(err, apperrors.CodeMaxBookingsExceeded) {
		t.Errorf("expected MAX_BOOKINGS_EXCEEDED, got %v", err)
	}
}

type stubCommitments struct{}

func (stubCommitments) Blocked(ctx context.Context, link *model.LinkConstraints, dayStart, dayEnd time.Time) ([]model.BlockedInterval, error) {
	return nil, nil
}

func (stubCommitments) ConfirmedCountForDate(ctx context.Context, linkID string, date string) (int64, error) {
	return 0, nil
}

// Wires the real availability service underneath Submit. The date-level
// checks treat a spent quota as an unavailable date, so the booking service
// has to report the quota before asking about the date at all.
func TestSubmitQuotaExhaustedBeforeDateChecks(t *testing.T) {
	cfg := testConfig()
	link := testLink()
	remaining := 0
	link.RemainingBookings = &remaining

	resolver := &mockResolver{link: link}
	svc := NewBookingService(
		newMockBookingRepo(),
		newMockLockRepo(),
		&mockLinkRepo{},
		resolver,
		availability.NewAvailabilityService(resolver, stubCommitments{}, cfg),
		validator.NewBookingValidator(cfg.Log),
		events.NewPublisher(nil, cfg),
		cfg,
	)

	sub := testSubmission()
	sub.Date = time.Now().AddDate(0, 0, 14).Format("2006-01-02")

	_, err := svc.Submit(context.Background(), "tok", sub)
	if !apperrors.IsCode(err, apperrors.CodeMaxBookingsExceeded) {
		t.Errorf("expected MAX_BOOKINGS_EXCEEDED, got %v", err)
	}
}

func TestSubmitReleasesLock(t *testing.T) {
	f := newFixture(testLink())

	if _, err := f.svc.Submit(context.Background(), "tok", testSubmission()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.lockRepo.held) != 0 {
		t.Error("lock should be released after a successful submit")
	}
}

func TestSubmitConcurrentSameSlot(t *testing.T) {
	f := newFixture(testLink())

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Submit(context.Background(), "tok", testSubmission())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case apperrors.IsCode(err, apperrors.CodeSlotConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if wins != 1 {
		t.Errorf("exactly one submission should win, got %d", wins)
	}
	if wins+conflicts != attempts {
		t.Errorf("every loser should see SLOT_CONFLICT, got %d winners and %d conflicts", wins, conflicts)
	}
}

func TestApproveTransitions(t *testing.T) {
	link := testLink()
	link.RequiresApproval = true
	f := newFixture(link)

	created, err := f.svc.Submit(context.Background(), "tok", testSubmission())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	approved, err := f.svc.Approve(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if approved.Status != model.StatusConfirmed {
		t.Errorf("expected confirmed, got %s", approved.Status)
	}

	// A second approve finds a confirmed booking and must refuse.
	if _, err := f.svc.Approve(context.Background(), created.ID); !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Errorf("expected CONFLICT on re-approve, got %v", err)
	}
}

func TestRejectReturnsQuota(t *testing.T) {
	link := testLink()
	link.RequiresApproval = true
	f := newFixture(link)
	f.linkRepo.unlimited = false
	f.linkRepo.remaining = 1

	created, err := f.svc.Submit(context.Background(), "tok", testSubmission())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.linkRepo.remaining != 0 {
		t.Fatalf("submit should consume the quota, remaining=%d", f.linkRepo.remaining)
	}

	rejected, err := f.svc.Reject(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rejected.Status != model.StatusCancelled {
		t.Errorf("expected cancelled, got %s", rejected.Status)
	}
	if f.linkRepo.remaining != 1 {
		t.Errorf("reject should return the quota, remaining=%d", f.linkRepo.remaining)
	}
}

func TestCancelConfirmedBooking(t *testing.T) {
	f := newFixture(testLink())

	created, err := f.svc.Submit(context.Background(), "tok", testSubmission())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelled, err := f.svc.Cancel(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != model.StatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}

	// Cancelling twice is a refused transition.
	if _, err := f.svc.Cancel(context.Background(), created.ID); !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Errorf("expected CONFLICT on double cancel, got %v", err)
	}
}

func TestCancelledSlotCanBeRebooked(t *testing.T) {
	f := newFixture(testLink())

	created, err := f.svc.Submit(context.Background(), "tok", testSubmission())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rebooked, err := f.svc.Submit(context.Background(), "tok", testSubmission())
	if err != nil {
		t.Fatalf("rebooking a cancelled slot should succeed, got %v", err)
	}
	if rebooked.ID == created.ID {
		t.Error("rebooking should create a new booking")
	}
}

func TestGetByIDNotFound(t *testing.T) {
	f := newFixture(testLink())

	_, err := f.svc.GetByID(context.Background(), "missing")
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestSubmitResolverErrorPropagates(t *testing.T) {
	cfg := testConfig()
	svc := NewBookingService(
		newMockBookingRepo(),
		newMockLockRepo(),
		&mockLinkRepo{unlimited: true},
		&mockResolver{err: apperrors.LinkExpired()},
		&mockAvailability{},
		validator.NewBookingValidator(cfg.Log),
		events.NewPublisher(nil, cfg),
		cfg,
	)

	_, err := svc.Submit(context.Background(), "tok", testSubmission())
	if !apperrors.IsCode(err, apperrors.CodeLinkExpired) {
		t.Errorf("expected LINK_EXPIRED, got %v", err)
	}
}
