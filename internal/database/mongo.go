package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	UsersCollection         = "users"
	SubscriptionsCollection = "subscriptions"
	VideosCollection        = "videos"
)

type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

func NewMongo(ctx context.Context, uri string, dbName string, timeout time.Duration) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	slog.Info("mongodb connected", "database", dbName)
	return &Mongo{Client: client, DB: client.Database(dbName)}, nil
}

// EnsureIndexes creates the unique indexes the users API relies on. The
// username/email existence check in registration is not atomic; these indexes
// are what actually reject a racing duplicate.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	users := m.DB.Collection(UsersCollection)
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("username_1")},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_1")},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	subscriptions := m.DB.Collection(SubscriptionsCollection)
	_, err = subscriptions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "subscriber", Value: 1}, {Key: "channel", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "channel", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create subscription indexes: %w", err)
	}

	videos := m.DB.Collection(VideosCollection)
	if _, err := videos.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "owner", Value: 1}}}); err != nil {
		return fmt.Errorf("create video indexes: %w", err)
	}

	slog.Info("mongodb indexes ensured")
	return nil
}

func (m *Mongo) Health(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
