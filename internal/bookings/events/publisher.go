package events

import (
	"context"

	"bookable/pkg/config"
	"bookable/pkg/kafka"
	"bookable/pkg/model"
)

// Event types published on the booking lifecycle topic.
const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"

	schemaVersion = "1"
	source        = "booking-engine"
)

type producer interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// Publisher emits booking lifecycle events. Publishing is best-effort: a
// broker outage must never fail a booking that is already committed, so
// failures are logged and swallowed.
type Publisher struct {
	producer producer
	cfg      *config.Config
}

func NewPublisher(p producer, cfg *config.Config) *Publisher {
	return &Publisher{
		producer: p,
		cfg:      cfg,
	}
}

func (p *Publisher) BookingCreated(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, EventBookingCreated, booking)
}

func (p *Publisher) BookingConfirmed(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, EventBookingConfirmed, booking)
}

func (p *Publisher) BookingCancelled(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, EventBookingCancelled, booking)
}

func (p *Publisher) publish(ctx context.Context, eventType string, booking *model.Booking) {
	if p.producer == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(booking.LinkID).
		WithValue(booking).
		WithEventType(eventType).
		WithSchemaVersion(schemaVersion).
		WithSource(source).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.cfg.Log.Warn("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"link_id", booking.LinkID,
			"error", err,
		)
		return
	}

	p.cfg.Log.Debug("Booking event published",
		"event_type", eventType,
		"booking_id", booking.ID,
	)
}
