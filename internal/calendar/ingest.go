package calendar

import (
	"context"
	"fmt"

	"bookable/internal/calendar/repository"
	"bookable/pkg/config"
	"bookable/pkg/kafka"
	"bookable/pkg/model"
)

// Event types published by the external calendar connectors.
const (
	EventCalendarUpserted = "calendar.event.upserted"
	EventCalendarDeleted  = "calendar.event.deleted"
)

// Ingestor consumes calendar sync messages and keeps the event store and the
// Redis cache in agreement.
type Ingestor struct {
	events repository.EventRepository
	source *Source
	cfg    *config.Config
}

func NewIngestor(events repository.EventRepository, source *Source, cfg *config.Config) *Ingestor {
	return &Ingestor{
		events: events,
		source: source,
		cfg:    cfg,
	}
}

// Handle is the kafka.MessageHandler wired into the sync consumer. Malformed
// payloads are permanent failures and go straight to the DLQ.
func (i *Ingestor) Handle(ctx context.Context, msg kafka.Message) error {
	var event model.CalendarEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("failed to decode calendar event", err)
	}

	if event.OwnerID == "" || event.ProviderID == "" {
		return kafka.NewPermanentError("calendar event missing owner or provider ID", nil)
	}

	switch msg.GetEventType() {
	case EventCalendarDeleted:
		if err := i.events.DeleteByProvider(ctx, event.OwnerID, event.Provider, event.ProviderID); err != nil {
			return fmt.Errorf("failed to delete calendar event: %w", err)
		}
	case EventCalendarUpserted, "":
		if event.End.Before(event.Start) || event.End.Equal(event.Start) {
			return kafka.NewPermanentError("calendar event has a non-positive interval", nil)
		}
		if err := i.events.Upsert(ctx, &event); err != nil {
			return fmt.Errorf("failed to upsert calendar event: %w", err)
		}
	default:
		return kafka.NewPermanentError("unknown calendar event type: "+msg.GetEventType(), nil)
	}

	i.source.InvalidateExternal(ctx, event.OwnerID, event.Start, event.End)

	i.cfg.Log.Debug("Calendar event ingested",
		"owner_id", event.OwnerID,
		"provider", event.Provider,
		"provider_id", event.ProviderID,
		"event_type", msg.GetEventType(),
	)

	return nil
}
