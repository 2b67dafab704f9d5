package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bookingrepo "bookable/internal/bookings/repository"
	"bookable/internal/calendar/repository"
	"bookable/pkg/config"
	"bookable/pkg/model"

	"github.com/redis/go-redis/v9"
)

// Source supplies the availability engine with everything already occupying
// the host's calendar. Internal bookings are authoritative and always
// consulted; externally synced events go through a short-lived Redis cache
// and degrade gracefully when either the cache or the event store is down.
type Source struct {
	bookings bookingrepo.BookingRepository
	events   repository.EventRepository
	cache    *redis.Client
	cfg      *config.Config
}

func NewSource(
	bookings bookingrepo.BookingRepository,
	events repository.EventRepository,
	cache *redis.Client,
	cfg *config.Config,
) *Source {
	return &Source{
		bookings: bookings,
		events:   events,
		cache:    cache,
		cfg:      cfg,
	}
}

func externalCacheKey(ownerID string, dayStart time.Time) string {
	return fmt.Sprintf("calendar:%s:%s", ownerID, dayStart.UTC().Format("2006-01-02"))
}

// maxBufferPad covers the largest buffer a link may configure (240 minutes),
// so a fetch widened by it is a superset of any link's padded conflict window.
const maxBufferPad = 4 * time.Hour

// Blocked returns the blocked intervals relevant to one day on one link: the
// link's non-cancelled bookings plus the owner's external calendar events.
// Buffers pad blocked intervals outward during filtering, so a commitment
// just outside the working window can still collide with an edge slot. The
// fetch window is widened accordingly: without that, an event ending exactly
// at dayStart would never be loaded and its buffer would go unenforced.
func (s *Source) Blocked(ctx context.Context, link *model.LinkConstraints, dayStart, dayEnd time.Time) ([]model.BlockedInterval, error) {
	before := time.Duration(link.BufferBeforeMin) * time.Minute
	after := time.Duration(link.BufferAfterMin) * time.Minute

	bookings, err := s.bookings.FindOverlapping(ctx, link.ID, dayStart.Add(-after), dayEnd.Add(before))
	if err != nil {
		return nil, fmt.Errorf("failed to load internal bookings: %w", err)
	}

	intervals := make([]model.BlockedInterval, 0, len(bookings))
	for _, b := range bookings {
		intervals = append(intervals, model.BlockedInterval{
			Start:  b.SlotStart,
			End:    b.End(),
			Source: model.SourceBooking,
			Label:  b.Attendee.Name,
		})
	}

	// External sync is best-effort: on failure the internal bookings above
	// still protect against double booking, so log and carry on.
	external, err := s.externalBlocked(ctx, link.OwnerID, dayStart)
	if err != nil {
		s.cfg.Log.Warn("Failed to load external calendar intervals, serving internal bookings only",
			"owner_id", link.OwnerID,
			"day", dayStart.Format("2006-01-02"),
			"error", err,
		)
		return intervals, nil
	}

	return append(intervals, external...), nil
}

// externalBlocked loads the owner's external events for the civil day around
// dayStart, widened by maxBufferPad on both sides. The cache entry is keyed
// per owner per day and shared across links, so the stored window has to be
// wide enough for any buffer configuration; intervals that turn out to be
// irrelevant are dropped by the conflict filter downstream.
func (s *Source) externalBlocked(ctx context.Context, ownerID string, dayStart time.Time) ([]model.BlockedInterval, error) {
	key := externalCacheKey(ownerID, dayStart)

	if cached, err := s.cache.Get(ctx, key).Bytes(); err == nil {
		var intervals []model.BlockedInterval
		if err := json.Unmarshal(cached, &intervals); err == nil {
			return intervals, nil
		}
		// Unreadable cache entry, fall through to the store.
		s.cache.Del(ctx, key)
	} else if err != redis.Nil {
		s.cfg.Log.Warn("Calendar cache read failed", "key", key, "error", err)
	}

	civil := time.Date(dayStart.Year(), dayStart.Month(), dayStart.Day(), 0, 0, 0, 0, dayStart.Location())
	events, err := s.events.FindByOwnerAndWindow(ctx, ownerID, civil.Add(-maxBufferPad), civil.AddDate(0, 0, 1).Add(maxBufferPad))
	if err != nil {
		return nil, err
	}

	intervals := make([]model.BlockedInterval, 0, len(events))
	for _, e := range events {
		intervals = append(intervals, e.Blocked())
	}

	if data, err := json.Marshal(intervals); err == nil {
		if err := s.cache.Set(ctx, key, data, s.cfg.CalendarCacheTTL).Err(); err != nil {
			s.cfg.Log.Warn("Calendar cache write failed", "key", key, "error", err)
		}
	}

	return intervals, nil
}

// ConfirmedCountForDate counts confirmed bookings against the per-day cap.
func (s *Source) ConfirmedCountForDate(ctx context.Context, linkID string, date string) (int64, error) {
	return s.bookings.CountForDate(ctx, linkID, date, model.StatusConfirmed)
}

// InvalidateExternal drops the cached external intervals for every day an
// event touches, called after the sync consumer writes a change.
func (s *Source) InvalidateExternal(ctx context.Context, ownerID string, start, end time.Time) {
	for day := start.UTC().Truncate(24 * time.Hour); !day.After(end); day = day.Add(24 * time.Hour) {
		key := externalCacheKey(ownerID, day)
		if err := s.cache.Del(ctx, key).Err(); err != nil {
			s.cfg.Log.Warn("Calendar cache invalidation failed", "key", key, "error", err)
		}
	}
}
