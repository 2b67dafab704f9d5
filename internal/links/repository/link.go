package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	linkserrors "bookable/internal/links/errors"
	"bookable/pkg/config"
	mongotx "bookable/pkg/db/mongo"
	"bookable/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "BookingLinks"
)

type LinkRepository interface {
	Create(ctx context.Context, link *model.LinkConstraints) error
	FindByID(ctx context.Context, id string) (*model.LinkConstraints, error)
	FindByToken(ctx context.Context, token string) (*model.LinkConstraints, error)
	FindByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.LinkConstraints, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	Update(ctx context.Context, id string, link *model.LinkConstraints) (*mongo.UpdateResult, error)
	SetToken(ctx context.Context, id string, token string) error
	Deactivate(ctx context.Context, id string) error
	DecrementRemaining(ctx context.Context, id string) error
	IncrementRemaining(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoLinkRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoLinkRepository(cfg *config.Config) LinkRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLinkRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// SessionContext cannot be wrapped without breaking transaction semantics, so
// inside a transaction the original context is returned with a no-op cancel.
func (r *mongoLinkRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoLinkRepository) Create(ctx context.Context, link *model.LinkConstraints) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	link.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, link)
	if err != nil {
		return fmt.Errorf("failed to create link: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		link.ID = oid.Hex()
	}
	return nil
}

func (r *mongoLinkRepository) FindByID(ctx context.Context, id string) (*model.LinkConstraints, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", linkserrors.ErrInvalidID, id)
	}

	var link model.LinkConstraints
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&link)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, linkserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find link: %w", err)
	}

	return &link, nil
}

func (r *mongoLinkRepository) FindByToken(ctx context.Context, token string) (*model.LinkConstraints, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var link model.LinkConstraints
	err := r.collection.FindOne(ctx, bson.M{"token": token}).Decode(&link)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, linkserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find link by token: %w", err)
	}

	return &link, nil
}

func (r *mongoLinkRepository) FindByOwner(ctx context.Context, ownerID string, limit int, offset int64) ([]*model.LinkConstraints, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find links by owner: %w", err)
	}
	defer cursor.Close(ctx)

	var links []*model.LinkConstraints
	if err = cursor.All(ctx, &links); err != nil {
		return nil, fmt.Errorf("failed to decode links: %w", err)
	}

	return links, nil
}

func (r *mongoLinkRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}

	return count, nil
}

// updateDocument builds the update for a merged link. The optional fields
// travel as pointers, and a nil pointer means the field is absent: it has to
// be removed with $unset, never written as a BSON null. The collection schema
// rejects null for these fields, and the quota queries tell an unlimited link
// apart from a limited one by whether remaining_bookings exists at all.
func updateDocument(link *model.LinkConstraints) bson.M {
	set := bson.M{
		"title":             link.Title,
		"description":       link.Description,
		"duration_min":      link.DurationMin,
		"start_date":        link.StartDate,
		"end_date":          link.EndDate,
		"start_time":        link.StartTime,
		"end_time":          link.EndTime,
		"weekdays":          link.Weekdays,
		"buffer_before_min": link.BufferBeforeMin,
		"buffer_after_min":  link.BufferAfterMin,
		"requires_approval": link.RequiresApproval,
		"time_zone":         link.TimeZone,
	}
	unset := bson.M{}

	if link.MaxBookings != nil {
		set["max_bookings"] = *link.MaxBookings
	} else {
		unset["max_bookings"] = ""
	}
	if link.MaxBookingsPerDay != nil {
		set["max_bookings_per_day"] = *link.MaxBookingsPerDay
	} else {
		unset["max_bookings_per_day"] = ""
	}
	if link.RemainingBookings != nil {
		set["remaining_bookings"] = *link.RemainingBookings
	} else {
		unset["remaining_bookings"] = ""
	}
	if link.ExpiresAt != nil {
		set["expires_at"] = *link.ExpiresAt
	} else {
		unset["expires_at"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func (r *mongoLinkRepository) Update(ctx context.Context, id string, link *model.LinkConstraints) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", linkserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, updateDocument(link))
	if err != nil {
		return nil, fmt.Errorf("failed to update link: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, linkserrors.ErrNotFound
	}

	return result, nil
}

// SetToken writes the canonical opaque token minted for a freshly created
// link. The token depends on the generated ID, so it cannot be part of the
// initial insert.
func (r *mongoLinkRepository) SetToken(ctx context.Context, id string, token string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", linkserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"token": token}},
	)
	if err != nil {
		return fmt.Errorf("failed to set link token: %w", err)
	}

	if result.MatchedCount == 0 {
		return linkserrors.ErrNotFound
	}

	return nil
}

func (r *mongoLinkRepository) Deactivate(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", linkserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"active": false}},
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate link: %w", err)
	}

	if result.MatchedCount == 0 {
		return linkserrors.ErrNotFound
	}

	return nil
}

// DecrementRemaining atomically takes one booking from the quota. The filter
// only matches while remaining_bookings is still positive, so a concurrent
// decrement past zero is impossible. Links without a quota match the $exists
// branch and are left untouched.
func (r *mongoLinkRepository) DecrementRemaining(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", linkserrors.ErrInvalidID, id)
	}

	unlimited := bson.M{"_id": objectID, "remaining_bookings": bson.M{"$exists": false}}
	n, err := r.collection.CountDocuments(ctx, unlimited)
	if err != nil {
		return fmt.Errorf("failed to check link quota: %w", err)
	}
	if n > 0 {
		return nil
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "remaining_bookings": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"remaining_bookings": -1}},
	)
	if err != nil {
		return fmt.Errorf("failed to decrement remaining bookings: %w", err)
	}

	if result.MatchedCount == 0 {
		return linkserrors.ErrQuotaExhausted
	}

	return nil
}

// IncrementRemaining returns one booking to the quota, used when a quota-
// limited booking is cancelled or rejected.
func (r *mongoLinkRepository) IncrementRemaining(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", linkserrors.ErrInvalidID, id)
	}

	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "remaining_bookings": bson.M{"$exists": true}},
		bson.M{"$inc": bson.M{"remaining_bookings": 1}},
	)
	if err != nil {
		return fmt.Errorf("failed to increment remaining bookings: %w", err)
	}

	return nil
}

func (r *mongoLinkRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
