package model

import "time"

// IntervalSource identifies where a blocked interval came from.
type IntervalSource string

const (
	SourceGoogleCalendar  IntervalSource = "google-calendar"
	SourceOutlookCalendar IntervalSource = "outlook-calendar"
	SourceBooking         IntervalSource = "booking"
)

// BlockedInterval is a time range during which no overlapping slot may be
// offered. Read-only from the engine's perspective.
type BlockedInterval struct {
	Start  time.Time      `json:"start" bson:"start"`
	End    time.Time      `json:"end" bson:"end"`
	Source IntervalSource `json:"source" bson:"source"`
	Label  string         `json:"label,omitempty" bson:"label,omitempty"`
}

// TimeSlot is a candidate start time plus the link's fixed meeting length.
// Never persisted on its own; a committed slot lives inside a Booking.
type TimeSlot struct {
	Start       time.Time `json:"start"`
	DurationMin int       `json:"duration_min"`
}

func (s TimeSlot) End() time.Time {
	return s.Start.Add(time.Duration(s.DurationMin) * time.Minute)
}

// CalendarEvent is an externally synced busy interval, written by the
// calendar-sync collaborator and read by the engine as a BlockedInterval.
type CalendarEvent struct {
	ID         string         `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerID    string         `json:"owner_id" bson:"owner_id" validate:"required,mongodb"`
	Provider   IntervalSource `json:"provider" bson:"provider" validate:"required,oneof=google-calendar outlook-calendar"`
	ProviderID string         `json:"provider_id" bson:"provider_id" validate:"required"`
	Start      time.Time      `json:"start" bson:"start" validate:"required"`
	End        time.Time      `json:"end" bson:"end" validate:"required,gtfield=Start"`
	Label      string         `json:"label,omitempty" bson:"label,omitempty"`
	SyncedAt   time.Time      `json:"synced_at" bson:"synced_at"`
}

// Blocked converts the event into the engine's read-only interval shape.
func (e *CalendarEvent) Blocked() BlockedInterval {
	return BlockedInterval{
		Start:  e.Start,
		End:    e.End,
		Source: e.Provider,
		Label:  e.Label,
	}
}
