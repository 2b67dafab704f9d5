package model

import (
	"time"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Attendee is the visitor who submitted a booking. No account exists for
// them; these fields are everything the host gets.
type Attendee struct {
	Name  string `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" bson:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	Notes string `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=1000"`
}

// Booking is one committed (or pending) reservation of a slot. Date is the
// link-local YYYY-MM-DD day the slot belongs to; SlotStart is the absolute
// instant the meeting begins.
type Booking struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	LinkID      string    `json:"link_id" bson:"link_id" validate:"required,mongodb"`
	LinkToken   string    `json:"link_token" bson:"link_token" validate:"required"`
	Date        string    `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	SlotStart   time.Time `json:"slot_start" bson:"slot_start" validate:"required"`
	SlotEnd     time.Time `json:"slot_end" bson:"slot_end"`
	DurationMin int       `json:"duration_min" bson:"duration_min" validate:"required,min=5,max=480"`
	Attendee    Attendee  `json:"attendee" bson:"attendee"`
	Status      string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// BookingSubmission is the public payload a visitor posts against a booking
// link. Date and Time are link-local; the engine anchors them in the link's
// timezone.
type BookingSubmission struct {
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string `json:"time" validate:"required,valid_clock"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,e164"`
	Notes    string `json:"notes,omitempty" validate:"omitempty,max=1000"`
	TimeZone string `json:"timezone,omitempty" validate:"omitempty,timezone"`
}

// End is the instant the meeting finishes, buffers excluded. SlotEnd is the
// persisted copy; End derives it when the struct was built in memory.
func (b *Booking) End() time.Time {
	if !b.SlotEnd.IsZero() {
		return b.SlotEnd
	}
	return b.SlotStart.Add(time.Duration(b.DurationMin) * time.Minute)
}

// Terminal reports whether no further status transition is possible.
func (b *Booking) Terminal() bool {
	return b.Status == StatusCancelled
}
