package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "bookable/internal/bookings/errors"
	"bookable/pkg/config"
	"bookable/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// BookingLockRepository provides the advisory locks that serialize competing
// submissions for the identical slot. The lock ID encodes the
// (link, date, slot) tuple, so inserting a duplicate _id means another
// submission got there first.
type BookingLockRepository interface {
	Acquire(ctx context.Context, lock *model.BookingLock) error
	Release(ctx context.Context, lockID string) error
}

type mongoBookingLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewBookingLockRepository(cfg *config.Config) BookingLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingLockRepository{
		cfg:        cfg,
		collection: db.Collection("Booking_locks"),
	}
}

// LockID builds the advisory lock key for one slot on one link.
func LockID(linkID string, date string, slotStart time.Time) string {
	return fmt.Sprintf("booking_lock_%s_%s_%s", linkID, date, slotStart.UTC().Format("15:04"))
}

func (r *mongoBookingLockRepository) Acquire(ctx context.Context, lock *model.BookingLock) error {
	lock.CreatedAt = time.Now()
	lock.ExpiresAt = lock.CreatedAt.Add(r.cfg.LockTTL)

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrLockHeld
		}
		return fmt.Errorf("failed to acquire booking lock: %w", err)
	}

	return nil
}

func (r *mongoBookingLockRepository) Release(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	if err != nil {
		return fmt.Errorf("failed to release booking lock: %w", err)
	}
	return nil
}
