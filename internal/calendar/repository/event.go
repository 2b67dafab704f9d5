package repository

import (
	"context"
	"fmt"
	"time"

	"bookable/pkg/config"
	"bookable/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Calendar_events"
)

// EventRepository stores the busy intervals synced from external calendars.
// The sync consumer writes them; the availability engine only reads.
type EventRepository interface {
	Upsert(ctx context.Context, event *model.CalendarEvent) error
	FindByOwnerAndWindow(ctx context.Context, ownerID string, start, end time.Time) ([]*model.CalendarEvent, error)
	DeleteByProvider(ctx context.Context, ownerID string, provider model.IntervalSource, providerID string) error
}

type mongoEventRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoEventRepository(cfg *config.Config) EventRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoEventRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoEventRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// Upsert is keyed on (owner_id, provider, provider_id) so re-syncing the same
// external event updates it in place.
func (r *mongoEventRepository) Upsert(ctx context.Context, event *model.CalendarEvent) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	event.SyncedAt = time.Now().UTC().Truncate(time.Millisecond)

	filter := bson.M{
		"owner_id":    event.OwnerID,
		"provider":    event.Provider,
		"provider_id": event.ProviderID,
	}
	update := bson.M{
		"$set": bson.M{
			"start":     event.Start,
			"end":       event.End,
			"label":     event.Label,
			"synced_at": event.SyncedAt,
		},
		"$setOnInsert": filter,
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert calendar event: %w", err)
	}

	return nil
}

func (r *mongoEventRepository) FindByOwnerAndWindow(ctx context.Context, ownerID string, start, end time.Time) ([]*model.CalendarEvent, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"owner_id": ownerID,
		"start":    bson.M{"$lt": end},
		"end":      bson.M{"$gt": start},
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find calendar events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*model.CalendarEvent
	if err = cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode calendar events: %w", err)
	}

	return events, nil
}

func (r *mongoEventRepository) DeleteByProvider(ctx context.Context, ownerID string, provider model.IntervalSource, providerID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{
		"owner_id":    ownerID,
		"provider":    provider,
		"provider_id": providerID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete calendar event: %w", err)
	}

	return nil
}
