package repository

import (
	"context"
	"time"

	"github.com/example/shopfront/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AuditEntry records one state-changing action on an order, payment or user.
type AuditEntry struct {
	ID        string    `bson:"_id,omitempty"`
	ActorID   uint      `bson:"actor_id"`
	Action    string    `bson:"action"`
	Entity    string    `bson:"entity"`
	EntityID  uint      `bson:"entity_id"`
	Data      bson.M    `bson:"data,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

type AuditLog interface {
	Record(ctx context.Context, entry *AuditEntry) error
	History(ctx context.Context, entity string, entityID uint, limit int64) ([]*AuditEntry, error)
}

type MongoAuditLog struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoAuditLog(cfg *config.MongoDBConfig) (*MongoAuditLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	return &MongoAuditLog{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (m *MongoAuditLog) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoAuditLog) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoAuditLog) Record(ctx context.Context, entry *AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := m.collection.InsertOne(ctx, entry)
	return err
}

// History returns the newest entries for one entity.
func (m *MongoAuditLog) History(ctx context.Context, entity string, entityID uint, limit int64) ([]*AuditEntry, error) {
	filter := bson.M{"entity": entity, "entity_id": entityID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*AuditEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

type NopAuditLog struct{}

func (NopAuditLog) Record(context.Context, *AuditEntry) error { return nil }

func (NopAuditLog) History(context.Context, string, uint, int64) ([]*AuditEntry, error) {
	return nil, nil
}
