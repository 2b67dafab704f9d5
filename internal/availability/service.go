package availability

import (
	"context"
	"time"

	"bookable/pkg/config"
	apperrors "bookable/pkg/errors"
	"bookable/pkg/model"
)

// ConstraintResolver loads the constraint set behind a public token and
// rejects links that no longer work.
type ConstraintResolver interface {
	Resolve(ctx context.Context, token string) (*model.LinkConstraints, error)
}

// CommitmentSource supplies the intervals already occupied on the host's
// calendar: non-cancelled bookings plus externally synced events. Blocked
// must return every interval whose buffer-padded form could touch
// [dayStart, dayEnd), which means fetching wider than the window itself
// when the link carries buffers.
type CommitmentSource interface {
	Blocked(ctx context.Context, link *model.LinkConstraints, dayStart, dayEnd time.Time) ([]model.BlockedInterval, error)
	ConfirmedCountForDate(ctx context.Context, linkID string, date string) (int64, error)
}

type Service interface {
	IsDateAvailable(ctx context.Context, token string, date string) (bool, error)
	SlotsForDate(ctx context.Context, token string, date string) ([]model.TimeSlot, error)
}

type availabilityService struct {
	resolver    ConstraintResolver
	commitments CommitmentSource
	cfg         *config.Config
	now         func() time.Time
}

func NewAvailabilityService(
	resolver ConstraintResolver,
	commitments CommitmentSource,
	cfg *config.Config,
) Service {
	return &availabilityService{
		resolver:    resolver,
		commitments: commitments,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *availabilityService) IsDateAvailable(ctx context.Context, token string, date string) (bool, error) {
	link, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return false, err
	}
	return s.dateAvailable(ctx, link, date)
}

// dateAvailable runs the date-level checks cheapest first. ISO date strings
// compare lexicographically, so range checks stay in string space until an
// instant is actually needed.
func (s *availabilityService) dateAvailable(ctx context.Context, link *model.LinkConstraints, date string) (bool, error) {
	loc := link.Location()

	day, err := ParseDate(date, loc)
	if err != nil {
		return false, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}

	// Same-day and past dates are never offered.
	today := DateOf(s.now(), loc)
	if date <= today {
		return false, nil
	}

	if link.StartDate != "" && date < link.StartDate {
		return false, nil
	}
	if link.EndDate != "" && date > link.EndDate {
		return false, nil
	}

	if link.ExpiresAt != nil && date > DateOf(*link.ExpiresAt, loc) {
		return false, nil
	}

	if !link.WeekdayAllowed(day.Weekday()) {
		return false, nil
	}

	if link.RemainingBookings != nil && *link.RemainingBookings <= 0 {
		return false, nil
	}

	if link.MaxBookingsPerDay != nil {
		count, err := s.commitments.ConfirmedCountForDate(ctx, link.ID, date)
		if err != nil {
			return false, apperrors.Internal("Failed to count bookings for date", err)
		}
		if count >= int64(*link.MaxBookingsPerDay) {
			return false, nil
		}
	}

	return true, nil
}

func (s *availabilityService) SlotsForDate(ctx context.Context, token string, date string) ([]model.TimeSlot, error) {
	link, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	available, err := s.dateAvailable(ctx, link, date)
	if err != nil {
		return nil, err
	}
	if !available {
		return []model.TimeSlot{}, nil
	}

	loc := link.Location()
	day, err := ParseDate(date, loc)
	if err != nil {
		return nil, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}

	dayStart, err := At(day, link.StartTime)
	if err != nil {
		return nil, apperrors.Internal("Link has a malformed start time", err)
	}
	dayEnd, err := At(day, link.EndTime)
	if err != nil {
		return nil, apperrors.Internal("Link has a malformed end time", err)
	}

	blocked, err := s.commitments.Blocked(ctx, link, dayStart, dayEnd)
	if err != nil {
		return nil, apperrors.Internal("Failed to load blocked intervals", err)
	}

	candidates := Generate(dayStart, dayEnd, link.DurationMin, s.cfg.SlotGranularityMin)

	slots := []model.TimeSlot{}
	for slot := range Filter(candidates, blocked, link.BufferBeforeMin, link.BufferAfterMin) {
		slots = append(slots, slot)
	}

	s.cfg.Log.Debug("Slot query completed",
		"link_id", link.ID,
		"date", date,
		"blocked_intervals", len(blocked),
		"slots", len(slots),
	)

	return slots, nil
}
