package model

import (
	"time"
)

// LinkConstraints is the rule set behind one public booking link. Dates travel
// as YYYY-MM-DD strings and daily bounds as HH:MM strings in the link's
// timezone; the availability engine parses them into instants.
type LinkConstraints struct {
	ID                string         `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Token             string         `json:"token,omitempty" bson:"token,omitempty"`
	OwnerID           string         `json:"owner_id" bson:"owner_id" validate:"required,mongodb"`
	OwnerPhone        string         `json:"owner_phone,omitempty" bson:"owner_phone,omitempty" validate:"omitempty,e164"`
	Title             string         `json:"title" bson:"title" validate:"required,min=2,max=100"`
	Description       string         `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=500"`
	DurationMin       int            `json:"duration_min" bson:"duration_min" validate:"required,min=5,max=480"`
	StartDate         string         `json:"start_date,omitempty" bson:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate           string         `json:"end_date,omitempty" bson:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StartTime         string         `json:"start_time" bson:"start_time" validate:"required,valid_clock"`
	EndTime           string         `json:"end_time" bson:"end_time" validate:"required,valid_clock"`
	Weekdays          []time.Weekday `json:"weekdays,omitempty" bson:"weekdays,omitempty" validate:"omitempty,max=7,dive,min=0,max=6"`
	BufferBeforeMin   int            `json:"buffer_before_min" bson:"buffer_before_min" validate:"min=0,max=240"`
	BufferAfterMin    int            `json:"buffer_after_min" bson:"buffer_after_min" validate:"min=0,max=240"`
	MaxBookings       *int           `json:"max_bookings,omitempty" bson:"max_bookings,omitempty" validate:"omitempty,min=1"`
	MaxBookingsPerDay *int           `json:"max_bookings_per_day,omitempty" bson:"max_bookings_per_day,omitempty" validate:"omitempty,min=1"`
	RemainingBookings *int           `json:"remaining_bookings,omitempty" bson:"remaining_bookings,omitempty" validate:"omitempty,min=0"`
	RequiresApproval  bool           `json:"requires_approval" bson:"requires_approval"`
	ExpiresAt         *time.Time     `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	Active            bool           `json:"active" bson:"active"`
	TimeZone          string         `json:"time_zone,omitempty" bson:"time_zone,omitempty" validate:"omitempty,timezone"`
	CreatedAt         time.Time      `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type LinkConstraintsUpdate struct {
	Title             string         `json:"title,omitempty" validate:"omitempty,min=2,max=100"`
	Description       *string        `json:"description,omitempty" validate:"omitempty,max=500"`
	DurationMin       *int           `json:"duration_min,omitempty" validate:"omitempty,min=5,max=480"`
	StartDate         *string        `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate           *string        `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StartTime         string         `json:"start_time,omitempty" validate:"omitempty,valid_clock"`
	EndTime           string         `json:"end_time,omitempty" validate:"omitempty,valid_clock"`
	Weekdays          *[]time.Weekday `json:"weekdays,omitempty" validate:"omitempty,max=7,dive,min=0,max=6"`
	BufferBeforeMin   *int           `json:"buffer_before_min,omitempty" validate:"omitempty,min=0,max=240"`
	BufferAfterMin    *int           `json:"buffer_after_min,omitempty" validate:"omitempty,min=0,max=240"`
	MaxBookings       *int           `json:"max_bookings,omitempty" validate:"omitempty,min=1"`
	MaxBookingsPerDay *int           `json:"max_bookings_per_day,omitempty" validate:"omitempty,min=1"`
	RequiresApproval  *bool          `json:"requires_approval,omitempty"`
	ExpiresAt         *time.Time     `json:"expires_at,omitempty"`
	TimeZone          string         `json:"time_zone,omitempty" validate:"omitempty,timezone"`
}

// Location resolves the link's IANA timezone, falling back to UTC.
func (lc *LinkConstraints) Location() *time.Location {
	if lc.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(lc.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WeekdayAllowed reports whether the weekday is bookable. An empty set means
// every day is allowed.
func (lc *LinkConstraints) WeekdayAllowed(day time.Weekday) bool {
	if len(lc.Weekdays) == 0 {
		return true
	}
	for _, d := range lc.Weekdays {
		if d == day {
			return true
		}
	}
	return false
}
