package calendar

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"bookable/internal/bookings/repository"
	"bookable/pkg/config"
	mongotx "bookable/pkg/db/mongo"
	"bookable/pkg/kafka"
	"bookable/pkg/logger"
	"bookable/pkg/model"

	"github.com/redis/go-redis/v9"
)

type mockEventRepo struct {
	upserted []*model.CalendarEvent
	deleted  []string
}

func (m *mockEventRepo) Upsert(ctx context.Context, event *model.CalendarEvent) error {
	m.upserted = append(m.upserted, event)
	return nil
}

func (m *mockEventRepo) FindByOwnerAndWindow(ctx context.Context, ownerID string, start, end time.Time) ([]*model.CalendarEvent, error) {
	return nil, nil
}

func (m *mockEventRepo) DeleteByProvider(ctx context.Context, ownerID string, provider model.IntervalSource, providerID string) error {
	m.deleted = append(m.deleted, providerID)
	return nil
}

type stubBookingRepo struct{}

func (stubBookingRepo) Create(ctx context.Context, booking *model.Booking) error { return nil }
func (stubBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	return nil, nil
}
func (stubBookingRepo) FindByLink(ctx context.Context, linkID string, limit int, offset int64) ([]*model.Booking, error) {
	return nil, nil
}
func (stubBookingRepo) CountByLink(ctx context.Context, linkID string) (int64, error) {
	return 0, nil
}
func (stubBookingRepo) FindOverlapping(ctx context.Context, linkID string, start, end time.Time) ([]*model.Booking, error) {
	return nil, nil
}
func (stubBookingRepo) CountForDate(ctx context.Context, linkID string, date string, status string) (int64, error) {
	return 0, nil
}
func (stubBookingRepo) UpdateStatus(ctx context.Context, id string, status string) error { return nil }
func (stubBookingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

var _ repository.BookingRepository = stubBookingRepo{}

func newTestIngestor(events *mockEventRepo) *Ingestor {
	cfg := &config.Config{
		Log: logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard}),
	}
	// Cache invalidation against an unreachable Redis only warns.
	cache := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 10 * time.Millisecond})
	source := NewSource(stubBookingRepo{}, events, cache, cfg)
	return NewIngestor(events, source, cfg)
}

func eventMessage(eventType string, event model.CalendarEvent) kafka.Message {
	return kafka.NewMessage().
		WithKey(event.OwnerID).
		WithValue(event).
		WithEventType(eventType).
		Build()
}

func testEvent() model.CalendarEvent {
	return model.CalendarEvent{
		OwnerID:    "64f000000000000000000002",
		Provider:   model.SourceGoogleCalendar,
		ProviderID: "evt-123",
		Start:      time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 9, 15, 11, 0, 0, 0, time.UTC),
	}
}

func TestHandleUpsert(t *testing.T) {
	events := &mockEventRepo{}
	ingestor := newTestIngestor(events)

	if err := ingestor.Handle(context.Background(), eventMessage(EventCalendarUpserted, testEvent())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events.upserted) != 1 {
		t.Fatalf("expected one upsert, got %d", len(events.upserted))
	}
	if events.upserted[0].ProviderID != "evt-123" {
		t.Errorf("unexpected provider ID: %s", events.upserted[0].ProviderID)
	}
}

func TestHandleDelete(t *testing.T) {
	events := &mockEventRepo{}
	ingestor := newTestIngestor(events)

	if err := ingestor.Handle(context.Background(), eventMessage(EventCalendarDeleted, testEvent())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events.deleted) != 1 || events.deleted[0] != "evt-123" {
		t.Errorf("expected evt-123 deleted, got %v", events.deleted)
	}
}

func TestHandleMalformedPayloadIsPermanent(t *testing.T) {
	ingestor := newTestIngestor(&mockEventRepo{})

	msg := kafka.NewMessage().WithRawValue([]byte("{not json")).Build()
	err := ingestor.Handle(context.Background(), msg)

	var kafkaErr *kafka.KafkaError
	if !errors.As(err, &kafkaErr) || kafkaErr.Type != kafka.ErrorTypePermanent {
		t.Errorf("expected a permanent error, got %v", err)
	}
}

func TestHandleNonPositiveInterval(t *testing.T) {
	events := &mockEventRepo{}
	ingestor := newTestIngestor(events)

	event := testEvent()
	event.End = event.Start

	err := ingestor.Handle(context.Background(), eventMessage(EventCalendarUpserted, event))
	if err == nil {
		t.Fatal("expected an error for a zero-length event")
	}
	if len(events.upserted) != 0 {
		t.Error("zero-length event must not be stored")
	}
}

func TestHandleUnknownEventType(t *testing.T) {
	ingestor := newTestIngestor(&mockEventRepo{})

	err := ingestor.Handle(context.Background(), eventMessage("calendar.event.exploded", testEvent()))

	var kafkaErr *kafka.KafkaError
	if !errors.As(err, &kafkaErr) || kafkaErr.Type != kafka.ErrorTypePermanent {
		t.Errorf("expected a permanent error, got %v", err)
	}
}
