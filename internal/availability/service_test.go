package availability

import (
	"context"
	"io"
	"testing"
	"time"

	"bookable/pkg/config"
	apperrors "bookable/pkg/errors"
	"bookable/pkg/logger"
	"bookable/pkg/model"
)

type mockResolver struct {
	resolve func(ctx context.Context, token string) (*model.LinkConstraints, error)
}

func (m *mockResolver) Resolve(ctx context.Context, token string) (*model.LinkConstraints, error) {
	return m.resolve(ctx, token)
}

type mockCommitments struct {
	blocked func(ctx context.Context, link *model.LinkConstraints, dayStart, dayEnd time.Time) ([]model.BlockedInterval, error)
	count   func(ctx context.Context, linkID string, date string) (int64, error)
}

func (m *mockCommitments) Blocked(ctx context.Context, link *model.LinkConstraints, dayStart, dayEnd time.Time) ([]model.BlockedInterval, error) {
	if m.blocked == nil {
		return nil, nil
	}
	return m.blocked(ctx, link, dayStart, dayEnd)
}

func (m *mockCommitments) ConfirmedCountForDate(ctx context.Context, linkID string, date string) (int64, error) {
	if m.count == nil {
		return 0, nil
	}
	return m.count(ctx, linkID, date)
}

func testConfig() *config.Config {
	return &config.Config{
		SlotGranularityMin: 30,
		Log:                logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard}),
	}
}

func testLink() *model.LinkConstraints {
	remaining := 10
	return &model.LinkConstraints{
		ID:                "64f000000000000000000001",
		OwnerID:           "64f000000000000000000002",
		Title:             "Intro call",
		DurationMin:       30,
		StartDate:         "2026-09-10",
		EndDate:           "2026-09-30",
		StartTime:         "09:00",
		EndTime:           "17:00",
		RemainingBookings: &remaining,
		Active:            true,
	}
}

func newTestService(link *model.LinkConstraints, commitments CommitmentSource) *availabilityService {
	resolver := &mockResolver{
		resolve: func(ctx context.Context, token string) (*model.LinkConstraints, error) {
			return link, nil
		},
	}
	svc := NewAvailabilityService(resolver, commitments, testConfig()).(*availabilityService)
	svc.now = func() time.Time {
		return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestIsDateAvailable(t *testing.T) {
	tests := []struct {
		name string
		link func(*model.LinkConstraints)
		date string
		want bool
	}{
		{name: "date in range", date: "2026-09-15", want: true},
		{name: "past date", date: "2026-08-20", want: false},
		{name: "same day", date: "2026-09-01", want: false},
		{name: "tomorrow before link start", date: "2026-09-02", want: false},
		{name: "before start date", date: "2026-09-05", want: false},
		{name: "after end date", date: "2026-10-01", want: false},
		{
			name: "weekday not allowed",
			link: func(l *model.LinkConstraints) {
				l.Weekdays = []time.Weekday{time.Monday}
			},
			date: "2026-09-15", // a Tuesday
			want: false,
		},
		{
			name: "weekday allowed",
			link: func(l *model.LinkConstraints) {
				l.Weekdays = []time.Weekday{time.Tuesday}
			},
			date: "2026-09-15",
			want: true,
		},
		{
			name: "quota exhausted",
			link: func(l *model.LinkConstraints) {
				zero := 0
				l.RemainingBookings = &zero
			},
			date: "2026-09-15",
			want: false,
		},
		{
			name: "unlimited quota",
			link: func(l *model.LinkConstraints) {
				l.RemainingBookings = nil
			},
			date: "2026-09-15",
			want: true,
		},
		{
			name: "expired before date",
			link: func(l *model.LinkConstraints) {
				expiry := time.Date(2026, 9, 12, 23, 59, 0, 0, time.UTC)
				l.ExpiresAt = &expiry
			},
			date: "2026-09-15",
			want: false,
		},
		{
			name: "expires after date",
			link: func(l *model.LinkConstraints) {
				expiry := time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)
				l.ExpiresAt = &expiry
			},
			date: "2026-09-15",
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := testLink()
			if tt.link != nil {
				tt.link(link)
			}
			svc := newTestService(link, &mockCommitments{})

			got, err := svc.IsDateAvailable(context.Background(), "tok", tt.date)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsDateAvailable(%s) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestIsDateAvailableMalformedDate(t *testing.T) {
	svc := newTestService(testLink(), &mockCommitments{})

	_, err := svc.IsDateAvailable(context.Background(), "tok", "15-09-2026")
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestIsDateAvailablePerDayCap(t *testing.T) {
	link := testLink()
	perDay := 3
	link.MaxBookingsPerDay = &perDay

	confirmed := int64(3)
	svc := newTestService(link, &mockCommitments{
		count: func(ctx context.Context, linkID string, date string) (int64, error) {
			return confirmed, nil
		},
	})

	got, err := svc.IsDateAvailable(context.Background(), "tok", "2026-09-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got {
		t.Error("date at the per-day cap should be unavailable")
	}

	confirmed = 2
	got, err = svc.IsDateAvailable(context.Background(), "tok", "2026-09-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Error("date under the per-day cap should be available")
	}
}

func TestSlotsForDateOpenDay(t *testing.T) {
	svc := newTestService(testLink(), &mockCommitments{})

	slots, err := svc.SlotsForDate(context.Background(), "tok", "2026-09-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots for an open day, got %d", len(slots))
	}
}

func TestSlotsForDateFiltersCommitments(t *testing.T) {
	link := testLink()
	link.BufferAfterMin = 15

	svc := newTestService(link, &mockCommitments{
		blocked: func(ctx context.Context, l *model.LinkConstraints, dayStart, dayEnd time.Time) ([]model.BlockedInterval, error) {
			return []model.BlockedInterval{{
				Start:  time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC),
				End:    time.Date(2026, 9, 15, 10, 30, 0, 0, time.UTC),
				Source: model.SourceBooking,
			}}, nil
		},
	})

	slots, err := svc.SlotsForDate(context.Background(), "tok", "2026-09-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The 10:00 candidate collides, and the 15 minute after-buffer also
	// knocks out 10:30.
	for _, slot := range slots {
		h, m := slot.Start.Hour(), slot.Start.Minute()
		if h == 10 && (m == 0 || m == 30) {
			t.Errorf("slot %02d:%02d should have been filtered", h, m)
		}
	}
	if len(slots) != 14 {
		t.Errorf("expected 14 slots, got %d", len(slots))
	}
}

func TestSlotsForDateUnavailableDateIsEmptyNotError(t *testing.T) {
	svc := newTestService(testLink(), &mockCommitments{})

	slots, err := svc.SlotsForDate(context.Background(), "tok", "2026-10-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slots == nil {
		t.Fatal("expected an empty slice, got nil")
	}
	if len(slots) != 0 {
		t.Errorf("expected no slots outside the date range, got %d", len(slots))
	}
}

func TestSlotsForDateResolverErrorPropagates(t *testing.T) {
	resolver := &mockResolver{
		resolve: func(ctx context.Context, token string) (*model.LinkConstraints, error) {
			return nil, apperrors.InvalidToken()
		},
	}
	svc := NewAvailabilityService(resolver, &mockCommitments{}, testConfig())

	_, err := svc.SlotsForDate(context.Background(), "bad", "2026-09-15")
	if !apperrors.IsCode(err, apperrors.CodeInvalidToken) {
		t.Errorf("expected INVALID_TOKEN, got %v", err)
	}
}
