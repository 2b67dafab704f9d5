package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	linkserrors "bookable/internal/links/errors"
	"bookable/internal/links/repository"
	"bookable/internal/links/validator"
	"bookable/pkg/config"
	apperrors "bookable/pkg/errors"
	"bookable/pkg/locale"
	"bookable/pkg/model"
	"bookable/pkg/sanitizer"
	"bookable/pkg/sealer"
)

type LinkService interface {
	Create(ctx context.Context, link *model.LinkConstraints) error
	Resolve(ctx context.Context, token string) (*model.LinkConstraints, error)
	GetByID(ctx context.Context, id string) (*model.LinkConstraints, error)
	GetByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.LinkConstraints, int64, error)
	Update(ctx context.Context, id string, updates *model.LinkConstraintsUpdate) error
	Deactivate(ctx context.Context, id string) error
}

type linkService struct {
	repo      repository.LinkRepository
	validator *validator.LinkValidator
	sealer    *sealer.Sealer
	cfg       *config.Config
	now       func() time.Time
}

func NewLinkService(
	repo repository.LinkRepository,
	validator *validator.LinkValidator,
	tokenSealer *sealer.Sealer,
	cfg *config.Config,
) LinkService {
	return &linkService{
		repo:      repo,
		validator: validator,
		sealer:    tokenSealer,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *linkService) Create(ctx context.Context, link *model.LinkConstraints) error {
	s.sanitize(link)
	s.applyDefaults(link)

	if err := s.validator.Validate(link); err != nil {
		s.cfg.Log.Warn("Link validation failed",
			"owner_id", link.OwnerID,
			"title", link.Title,
			"error", err,
		)
		return apperrors.Validation("Link validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx context.Context) error {
		if err := s.repo.Create(sessCtx, link); err != nil {
			return apperrors.Internal("Failed to create link", err)
		}

		token, err := s.sealer.MintToken(link.OwnerID, link.ID)
		if err != nil {
			return apperrors.Internal("Failed to mint link token", err)
		}

		if err := s.repo.SetToken(sessCtx, link.ID, token); err != nil {
			return apperrors.Internal("Failed to store link token", err)
		}

		link.Token = token
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create link",
			"owner_id", link.OwnerID,
			"title", link.Title,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Link created successfully",
		"id", link.ID,
		"owner_id", link.OwnerID,
		"title", link.Title,
		"duration_min", link.DurationMin,
	)
	return nil
}

// Resolve opens a public token and returns its constraint set, rejecting
// links that no longer work. Tokens that fail to unseal and tokens whose
// payload does not match a stored link are indistinguishable to the caller.
func (s *linkService) Resolve(ctx context.Context, token string) (*model.LinkConstraints, error) {
	ownerID, linkID, err := s.sealer.ParseToken(token)
	if err != nil {
		return nil, apperrors.InvalidToken()
	}

	link, err := s.repo.FindByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, linkserrors.ErrNotFound) || errors.Is(err, linkserrors.ErrInvalidID) {
			return nil, apperrors.InvalidToken()
		}
		s.cfg.Log.Error("Failed to resolve link",
			"link_id", linkID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to resolve link", err)
	}

	if link.OwnerID != ownerID {
		return nil, apperrors.InvalidToken()
	}

	if !link.Active {
		return nil, apperrors.LinkInactive()
	}

	if link.ExpiresAt != nil && s.now().After(*link.ExpiresAt) {
		return nil, apperrors.LinkExpired()
	}

	return link, nil
}

func (s *linkService) GetByID(ctx context.Context, id string) (*model.LinkConstraints, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Link ID cannot be empty")
	}

	link, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, linkserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Link", id)
		}
		if errors.Is(err, linkserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid link ID format")
		}
		s.cfg.Log.Error("Failed to get link by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve link", err)
	}

	return link, nil
}

func (s *linkService) GetByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.LinkConstraints, int64, error) {
	if ownerID == "" {
		return nil, 0, apperrors.InvalidInput("Owner ID cannot be empty")
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var links []*model.LinkConstraints
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountByOwner(sharedCtx, ownerID)
		if err != nil {
			s.cfg.Log.Error("Failed to count links", "owner_id", ownerID, "error", err)
			errCount = apperrors.Internal("Failed to count links", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		links, err = s.repo.FindByOwner(sharedCtx, ownerID, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list links",
				"owner_id", ownerID,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve links", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return links, count, nil
}

func (s *linkService) Update(ctx context.Context, id string, updates *model.LinkConstraintsUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Link ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, linkserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Link", id)
		}
		if errors.Is(err, linkserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid link ID format")
		}
		return apperrors.Internal("Failed to check link existence", err)
	}

	s.sanitizeUpdate(updates)
	merged := s.mergeUpdates(existing, updates)

	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Link validation failed",
			"id", id,
			"error", err,
		)
		return apperrors.Validation("Link validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, linkserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Link", id)
		}
		s.cfg.Log.Error("Failed to update link",
			"id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to update link", err)
	}

	s.cfg.Log.Info("Link updated successfully", "id", id, "title", merged.Title)
	return nil
}

func (s *linkService) Deactivate(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Link ID cannot be empty")
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, linkserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Link", id)
		}
		if errors.Is(err, linkserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid link ID format")
		}
		s.cfg.Log.Error("Failed to deactivate link",
			"id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to deactivate link", err)
	}

	s.cfg.Log.Info("Link deactivated", "id", id)
	return nil
}

func (s *linkService) sanitize(link *model.LinkConstraints) {
	link.Title = sanitizer.SanitizeName(link.Title)
	link.Description = sanitizer.SanitizeNotes(link.Description)
	link.OwnerPhone = sanitizer.SanitizePhone(link.OwnerPhone)
	// IANA names are case-sensitive, so only surrounding space is stripped.
	link.TimeZone = strings.TrimSpace(link.TimeZone)
}

func (s *linkService) applyDefaults(link *model.LinkConstraints) {
	if link.DurationMin == 0 {
		link.DurationMin = s.cfg.DefaultDurationMin
	}
	if link.StartTime == "" {
		link.StartTime = s.cfg.DefaultStartOfDay
	}
	if link.EndTime == "" {
		link.EndTime = s.cfg.DefaultEndOfDay
	}
	if link.TimeZone == "" && link.OwnerPhone != "" {
		link.TimeZone = locale.InferTimezoneFromPhone(link.OwnerPhone)
	}
	if link.MaxBookings != nil && link.RemainingBookings == nil {
		remaining := *link.MaxBookings
		link.RemainingBookings = &remaining
	}
	link.Active = true
}

func (s *linkService) sanitizeUpdate(updates *model.LinkConstraintsUpdate) {
	if updates.Title != "" {
		updates.Title = sanitizer.SanitizeName(updates.Title)
	}
	if updates.Description != nil {
		cleaned := sanitizer.SanitizeNotes(*updates.Description)
		updates.Description = &cleaned
	}
	if updates.TimeZone != "" {
		updates.TimeZone = strings.TrimSpace(updates.TimeZone)
	}
}

func (s *linkService) mergeUpdates(existing *model.LinkConstraints, updates *model.LinkConstraintsUpdate) *model.LinkConstraints {
	merged := *existing

	if updates.Title != "" {
		merged.Title = updates.Title
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.DurationMin != nil {
		merged.DurationMin = *updates.DurationMin
	}
	if updates.StartDate != nil {
		merged.StartDate = *updates.StartDate
	}
	if updates.EndDate != nil {
		merged.EndDate = *updates.EndDate
	}
	if updates.StartTime != "" {
		merged.StartTime = updates.StartTime
	}
	if updates.EndTime != "" {
		merged.EndTime = updates.EndTime
	}
	if updates.Weekdays != nil {
		merged.Weekdays = *updates.Weekdays
	}
	if updates.BufferBeforeMin != nil {
		merged.BufferBeforeMin = *updates.BufferBeforeMin
	}
	if updates.BufferAfterMin != nil {
		merged.BufferAfterMin = *updates.BufferAfterMin
	}
	if updates.MaxBookingsPerDay != nil {
		merged.MaxBookingsPerDay = updates.MaxBookingsPerDay
	}
	if updates.RequiresApproval != nil {
		merged.RequiresApproval = *updates.RequiresApproval
	}
	if updates.ExpiresAt != nil {
		merged.ExpiresAt = updates.ExpiresAt
	}
	if updates.TimeZone != "" {
		merged.TimeZone = updates.TimeZone
	}

	// Raising or lowering the lifetime cap shifts the remaining quota by the
	// same amount, clamped at zero, so confirmed bookings keep counting.
	if updates.MaxBookings != nil {
		if merged.MaxBookings != nil && merged.RemainingBookings != nil {
			delta := *updates.MaxBookings - *merged.MaxBookings
			remaining := *merged.RemainingBookings + delta
			if remaining < 0 {
				remaining = 0
			}
			merged.RemainingBookings = &remaining
		} else {
			remaining := *updates.MaxBookings
			merged.RemainingBookings = &remaining
		}
		merged.MaxBookings = updates.MaxBookings
	}

	merged.ID = existing.ID
	merged.Token = existing.Token
	merged.OwnerID = existing.OwnerID
	merged.CreatedAt = existing.CreatedAt
	return &merged
}
