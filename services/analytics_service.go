package services

import (
	"context"
	"fmt"

	"delivery-support-chatbot/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IntentEventsCollection holds one document per reply.
const IntentEventsCollection = "intent_events"

// AnalyticsRecorder stores which layer answered each message. Message text is
// never recorded.
type AnalyticsRecorder interface {
	Record(ctx context.Context, event models.IntentEvent) error
	Summary(ctx context.Context) ([]models.IntentCount, error)
}

type MongoAnalytics struct {
	collection *mongo.Collection
}

func NewMongoAnalytics(db *mongo.Database) *MongoAnalytics {
	return &MongoAnalytics{collection: db.Collection(IntentEventsCollection)}
}

func (a *MongoAnalytics) Record(ctx context.Context, event models.IntentEvent) error {
	if _, err := a.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to insert intent event: %w", err)
	}
	return nil
}

// Summary counts events per source and intent, most frequent first.
func (a *MongoAnalytics) Summary(ctx context.Context) ([]models.IntentCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "source", Value: "$source"},
				{Key: "intent", Value: "$intent"},
			}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "source", Value: "$_id.source"},
			{Key: "intent", Value: "$_id.intent"},
			{Key: "count", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}

	cursor, err := a.collection.Aggregate(ctx, pipeline, options.Aggregate())
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate intent events: %w", err)
	}
	defer cursor.Close(ctx)

	var counts []models.IntentCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode intent counts: %w", err)
	}
	return counts, nil
}

// NoopAnalytics discards events; used when analytics are disabled.
type NoopAnalytics struct{}

func (NoopAnalytics) Record(context.Context, models.IntentEvent) error { return nil }

func (NoopAnalytics) Summary(context.Context) ([]models.IntentCount, error) { return nil, nil }
