package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"bookable/internal/availability"
	bookingserrors "bookable/internal/bookings/errors"
	"bookable/internal/bookings/events"
	"bookable/internal/bookings/repository"
	"bookable/internal/bookings/validator"
	linkserrors "bookable/internal/links/errors"
	linkrepo "bookable/internal/links/repository"
	"bookable/pkg/config"
	apperrors "bookable/pkg/errors"
	"bookable/pkg/model"
	"bookable/pkg/sanitizer"
)

type BookingService interface {
	Submit(ctx context.Context, token string, sub *model.BookingSubmission) (*model.Booking, error)
	Approve(ctx context.Context, id string) (*model.Booking, error)
	Reject(ctx context.Context, id string) (*model.Booking, error)
	Cancel(ctx context.Context, id string) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListForLink(ctx context.Context, linkID string, limit int, offset int64) ([]*model.Booking, int64, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	links     linkrepo.LinkRepository
	resolver  availability.ConstraintResolver
	avail     availability.Service
	validator *validator.BookingValidator
	publisher *events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	links linkrepo.LinkRepository,
	resolver availability.ConstraintResolver,
	avail availability.Service,
	bookingValidator *validator.BookingValidator,
	publisher *events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		links:     links,
		resolver:  resolver,
		avail:     avail,
		validator: bookingValidator,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Submit is the validate-then-commit path. Validation recomputes the slot
// list exactly as the public query does; the commit phase holds an advisory
// lock per slot, re-checks overlap inside a transaction, and lets the unique
// slot index decide any race the lock did not catch.
func (s *bookingService) Submit(ctx context.Context, token string, sub *model.BookingSubmission) (*model.Booking, error) {
	s.sanitizeSubmission(sub)
	if err := s.validator.ValidateSubmission(sub); err != nil {
		s.cfg.Log.Warn("Booking submission validation failed", "error", err)
		return nil, apperrors.Validation("Booking submission validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	link, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	// An exhausted lifetime quota is terminal for the link, not a property of
	// the requested date, so it is reported before any slot work happens.
	if link.RemainingBookings != nil && *link.RemainingBookings <= 0 {
		return nil, apperrors.MaxBookingsExceeded()
	}

	slotStart, err := s.requestedSlot(link, sub)
	if err != nil {
		return nil, err
	}

	if err := s.validateSlot(ctx, token, sub, slotStart); err != nil {
		return nil, err
	}

	booking := &model.Booking{
		LinkID:      link.ID,
		LinkToken:   token,
		Date:        sub.Date,
		SlotStart:   slotStart,
		DurationMin: link.DurationMin,
		Attendee: model.Attendee{
			Name:  sub.Name,
			Email: sub.Email,
			Phone: sub.Phone,
			Notes: sub.Notes,
		},
		Status: model.StatusConfirmed,
	}
	if link.RequiresApproval {
		booking.Status = model.StatusPending
	}

	if err := s.commit(ctx, link, booking); err != nil {
		return nil, err
	}

	s.publisher.BookingCreated(ctx, booking)
	if booking.Status == model.StatusConfirmed {
		s.publisher.BookingConfirmed(ctx, booking)
	}

	s.cfg.Log.Info("Booking committed",
		"id", booking.ID,
		"link_id", link.ID,
		"date", booking.Date,
		"slot_start", booking.SlotStart,
		"status", booking.Status,
	)
	return booking, nil
}

// requestedSlot anchors the submitted date and clock in the link's timezone.
func (s *bookingService) requestedSlot(link *model.LinkConstraints, sub *model.BookingSubmission) (time.Time, error) {
	day, err := availability.ParseDate(sub.Date, link.Location())
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}
	slotStart, err := availability.At(day, sub.Time)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("Time must be in HH:MM 24-hour format")
	}
	return slotStart, nil
}

// validateSlot re-runs the public slot query and requires the requested
// start to be in it. A miss is reported as DateNotAvailable when the whole
// day is gone, SlotNotAvailable when only this slot is.
func (s *bookingService) validateSlot(ctx context.Context, token string, sub *model.BookingSubmission, slotStart time.Time) error {
	slots, err := s.avail.SlotsForDate(ctx, token, sub.Date)
	if err != nil {
		return err
	}

	for _, slot := range slots {
		if slot.Start.Equal(slotStart) {
			return nil
		}
	}

	available, err := s.avail.IsDateAvailable(ctx, token, sub.Date)
	if err != nil {
		return err
	}
	if !available {
		return apperrors.DateNotAvailable(sub.Date)
	}
	return apperrors.SlotNotAvailable(sub.Date, sub.Time)
}

func (s *bookingService) commit(ctx context.Context, link *model.LinkConstraints, booking *model.Booking) error {
	lockID := repository.LockID(link.ID, booking.Date, booking.SlotStart)
	lock := &model.BookingLock{ID: lockID}

	if err := s.lockRepo.Acquire(ctx, lock); err != nil {
		if errors.Is(err, bookingserrors.ErrLockHeld) {
			return apperrors.SlotConflict()
		}
		return apperrors.Internal("Failed to acquire booking lock", err)
	}
	defer func() {
		if releaseErr := s.lockRepo.Release(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx context.Context) error {
		if err := s.verifyNoOverlap(sessCtx, link, booking); err != nil {
			return err
		}

		if err := s.links.DecrementRemaining(sessCtx, link.ID); err != nil {
			if errors.Is(err, linkserrors.ErrQuotaExhausted) {
				return apperrors.MaxBookingsExceeded()
			}
			return apperrors.Internal("Failed to decrement booking quota", err)
		}

		if err := s.repo.Create(sessCtx, booking); err != nil {
			if errors.Is(err, bookingserrors.ErrSlotTaken) {
				return apperrors.SlotConflict()
			}
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to commit booking",
			"link_id", link.ID,
			"date", booking.Date,
			"slot_start", booking.SlotStart,
			"error", err,
		)
		return err
	}

	return nil
}

// verifyNoOverlap is the in-transaction re-check covering the race where two
// submissions both passed validation. The query window is widened by the
// link's buffers so a padded neighbour still counts as a collision.
func (s *bookingService) verifyNoOverlap(ctx context.Context, link *model.LinkConstraints, booking *model.Booking) error {
	before := time.Duration(link.BufferBeforeMin) * time.Minute
	after := time.Duration(link.BufferAfterMin) * time.Minute

	existing, err := s.repo.FindOverlapping(ctx,
		link.ID,
		booking.SlotStart.Add(-after),
		booking.End().Add(before),
	)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}

	if len(existing) > 0 {
		return apperrors.SlotConflict()
	}
	return nil
}

func (s *bookingService) Approve(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.transition(ctx, id, model.StatusConfirmed, []string{model.StatusPending})
	if err != nil {
		return nil, err
	}
	s.publisher.BookingConfirmed(ctx, booking)
	s.cfg.Log.Info("Booking approved", "id", id)
	return booking, nil
}

func (s *bookingService) Reject(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.transition(ctx, id, model.StatusCancelled, []string{model.StatusPending})
	if err != nil {
		return nil, err
	}
	s.publisher.BookingCancelled(ctx, booking)
	s.cfg.Log.Info("Booking rejected", "id", id)
	return booking, nil
}

func (s *bookingService) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.transition(ctx, id, model.StatusCancelled, []string{model.StatusPending, model.StatusConfirmed})
	if err != nil {
		return nil, err
	}
	s.publisher.BookingCancelled(ctx, booking)
	s.cfg.Log.Info("Booking cancelled", "id", id)
	return booking, nil
}

// transition moves a booking's status inside a transaction, returning the
// freed quota when a non-cancelled booking becomes cancelled.
func (s *bookingService) transition(ctx context.Context, id string, target string, allowedFrom []string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	var booking *model.Booking
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx context.Context) error {
		var err error
		booking, err = s.repo.FindByID(sessCtx, id)
		if err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Booking", id)
			}
			if errors.Is(err, bookingserrors.ErrInvalidID) {
				return apperrors.InvalidInput("Invalid booking ID format")
			}
			return apperrors.Internal("Failed to retrieve booking", err)
		}

		allowed := false
		for _, from := range allowedFrom {
			if booking.Status == from {
				allowed = true
				break
			}
		}
		if !allowed {
			return apperrors.Conflict("Booking status cannot change from " + booking.Status + " to " + target)
		}

		if err := s.repo.UpdateStatus(sessCtx, id, target); err != nil {
			return apperrors.Internal("Failed to update booking status", err)
		}

		if target == model.StatusCancelled {
			if err := s.links.IncrementRemaining(sessCtx, booking.LinkID); err != nil {
				return apperrors.Internal("Failed to return booking quota", err)
			}
		}

		booking.Status = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) ListForLink(ctx context.Context, linkID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if linkID == "" {
		return nil, 0, apperrors.InvalidInput("Link ID cannot be empty")
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountByLink(ctx, linkID)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings", "link_id", linkID, "error", err)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.FindByLink(ctx, linkID, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings",
				"link_id", linkID,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve bookings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return bookings, count, nil
}

func (s *bookingService) sanitizeSubmission(sub *model.BookingSubmission) {
	sub.Name = sanitizer.SanitizeName(sub.Name)
	sub.Email = sanitizer.SanitizeEmail(sub.Email)
	sub.Phone = sanitizer.SanitizePhone(sub.Phone)
	sub.Notes = sanitizer.SanitizeNotes(sub.Notes)
}
