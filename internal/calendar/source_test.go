package calendar

import (
	"context"
	"io"
	"testing"
	"time"

	"bookable/internal/availability"
	"bookable/pkg/config"
	"bookable/pkg/logger"
	"bookable/pkg/model"

	"github.com/redis/go-redis/v9"
)

// windowBookingRepo records the window Blocked asks for and answers with the
// strict half-open filter a real store would apply.
type windowBookingRepo struct {
	stubBookingRepo
	bookings   []*model.Booking
	start, end time.Time
}

func (r *windowBookingRepo) FindOverlapping(ctx context.Context, linkID string, start, end time.Time) ([]*model.Booking, error) {
	r.start, r.end = start, end
	var out []*model.Booking
	for _, b := range r.bookings {
		if b.SlotStart.Before(end) && b.End().After(start) {
			out = append(out, b)
		}
	}
	return out, nil
}

type windowEventRepo struct {
	mockEventRepo
	events     []*model.CalendarEvent
	start, end time.Time
}

func (r *windowEventRepo) FindByOwnerAndWindow(ctx context.Context, ownerID string, start, end time.Time) ([]*model.CalendarEvent, error) {
	r.start, r.end = start, end
	var out []*model.CalendarEvent
	for _, e := range r.events {
		if e.Start.Before(end) && e.End.After(start) {
			out = append(out, e)
		}
	}
	return out, nil
}

func newTestSource(bookings *windowBookingRepo, events *windowEventRepo) *Source {
	cfg := &config.Config{
		Log: logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard}),
	}
	cache := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 10 * time.Millisecond})
	return NewSource(bookings, events, cache, cfg)
}

func bufferedLink() *model.LinkConstraints {
	return &model.LinkConstraints{
		ID:             "64f000000000000000000001",
		OwnerID:        "64f000000000000000000002",
		DurationMin:    30,
		StartTime:      "09:00",
		EndTime:        "17:00",
		BufferAfterMin: 15,
		Active:         true,
	}
}

// A booking that ends exactly when the working window opens sits outside the
// raw window, but its after-buffer reaches the first candidate slot. Blocked
// must fetch wide enough to see it.
func TestBlockedFetchesBookingsBeyondWindowEdges(t *testing.T) {
	dayStart := time.Date(2026, 9, 15, 9, 0, 0, 0, time.UTC)
	dayEnd := time.Date(2026, 9, 15, 17, 0, 0, 0, time.UTC)

	bookings := &windowBookingRepo{
		bookings: []*model.Booking{{
			LinkID:    "64f000000000000000000001",
			SlotStart: dayStart.Add(-30 * time.Minute),
			SlotEnd:   dayStart,
			Status:    model.StatusConfirmed,
			Attendee:  model.Attendee{Name: "Dana Levi"},
		}},
	}
	source := newTestSource(bookings, &windowEventRepo{})

	link := bufferedLink()
	blocked, err := source.Blocked(context.Background(), link, dayStart, dayEnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bookings.start.Equal(dayStart.Add(-15 * time.Minute)) {
		t.Errorf("fetch window start should absorb the after-buffer, got %v", bookings.start)
	}
	if len(blocked) != 1 {
		t.Fatalf("expected the edge booking to be returned, got %d intervals", len(blocked))
	}
	if !blocked[0].End.Equal(dayStart) {
		t.Errorf("unexpected interval end: %v", blocked[0].End)
	}

	// The padded interval must knock out the first candidate of the day.
	first := model.TimeSlot{Start: dayStart, DurationMin: link.DurationMin}
	if !availability.SlotBlocked(first, blocked, link.BufferBeforeMin, link.BufferAfterMin) {
		t.Error("the 09:00 candidate should collide with the buffered booking")
	}
}

func TestBlockedFetchesExternalEventsBeyondWindowEdges(t *testing.T) {
	dayStart := time.Date(2026, 9, 15, 9, 0, 0, 0, time.UTC)
	dayEnd := time.Date(2026, 9, 15, 17, 0, 0, 0, time.UTC)

	events := &windowEventRepo{
		events: []*model.CalendarEvent{{
			OwnerID:    "64f000000000000000000002",
			Provider:   model.SourceGoogleCalendar,
			ProviderID: "evt-edge",
			Start:      dayStart.Add(-time.Hour),
			End:        dayStart,
		}},
	}
	source := newTestSource(&windowBookingRepo{}, events)

	blocked, err := source.Blocked(context.Background(), bufferedLink(), dayStart, dayEnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(blocked) != 1 {
		t.Fatalf("expected the pre-window event to be returned, got %d intervals", len(blocked))
	}
	if blocked[0].Source != model.SourceGoogleCalendar {
		t.Errorf("unexpected interval source: %s", blocked[0].Source)
	}

	// The store window is keyed to the civil day and padded for the biggest
	// permitted buffer, independent of this link's configuration.
	civil := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	if !events.start.Equal(civil.Add(-maxBufferPad)) {
		t.Errorf("unexpected event window start: %v", events.start)
	}
	if !events.end.Equal(civil.AddDate(0, 0, 1).Add(maxBufferPad)) {
		t.Errorf("unexpected event window end: %v", events.end)
	}
}
