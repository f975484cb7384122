package audit

import (
	"context"

	"pokestore_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoSink struct {
	collection *mongo.Collection
}

func NewMongoSink(collection *mongo.Collection) *MongoSink {
	return &MongoSink{collection: collection}
}

func (m *MongoSink) Insert(ctx context.Context, entry models.AuditLog) error {
	_, err := m.collection.InsertOne(ctx, entry)
	return err
}

func (m *MongoSink) Recent(ctx context.Context, f Filter) ([]models.AuditLog, error) {
	filter := bson.M{}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.Action != "" {
		filter["action"] = f.Action
	}
	if f.ResourceID != "" {
		filter["resource_id"] = f.ResourceID
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(f.Limit)
	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	logs := []models.AuditLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// EnsureIndexes : tri par date et filtres courants
func (m *MongoSink) EnsureIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "resource_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}
