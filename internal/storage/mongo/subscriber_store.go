// Package mongostore provides the MongoDB-backed subscriber store.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/JakeFAU/questify/internal/subscriber"
)

const (
	defaultDatabase   = "questify"
	defaultCollection = "emails"
	defaultTimeout    = 10 * time.Second
)

// Config selects the deployment, database and collection.
type Config struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// SubscriberStore stores one document per email, enforced by a unique index.
type SubscriberStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type subscriberDoc struct {
	Email     string    `bson:"email"`
	CreatedAt time.Time `bson:"created_at,omitempty"`
}

// NewSubscriberStore connects, pings the primary and ensures the unique email index.
func NewSubscriberStore(ctx context.Context, cfg Config) (*SubscriberStore, error) {
	if cfg.URI == "" {
		return nil, errors.New("store.uri is required for the mongo driver")
	}
	if cfg.Database == "" {
		cfg.Database = defaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = defaultCollection
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultTimeout
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout))
	if err != nil {
		return nil, subscriber.Wrap("connect", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, subscriber.Wrap("ping", err)
	}

	store := NewSubscriberStoreWithCollection(client.Database(cfg.Database).Collection(cfg.Collection))
	store.client = client
	if err := store.EnsureIndex(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

// NewSubscriberStoreWithCollection wraps an existing collection (primarily for testing).
func NewSubscriberStoreWithCollection(coll *mongo.Collection) *SubscriberStore {
	return &SubscriberStore{coll: coll}
}

// EnsureIndex creates the unique index on email.
func (s *SubscriberStore) EnsureIndex(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	return subscriber.Wrap("ensure index", err)
}

// Upsert finds the document by email and inserts it when absent.
func (s *SubscriberStore) Upsert(ctx context.Context, email string) error {
	email, err := subscriber.NormalizeEmail(email)
	if err != nil {
		return err
	}
	_, err = s.coll.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$setOnInsert": subscriberDoc{Email: email, CreatedAt: time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	// A concurrent upsert of the same email loses the race on the unique index.
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return subscriber.Wrap("upsert", err)
}

// ListEmails returns every stored email in insertion order.
func (s *SubscriberStore) ListEmails(ctx context.Context) ([]string, error) {
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().
		SetProjection(bson.M{"_id": 0, "email": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, subscriber.Wrap("list", err)
	}
	var docs []subscriberDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, subscriber.Wrap("list", err)
	}
	emails := make([]string, 0, len(docs))
	for _, d := range docs {
		emails = append(emails, d.Email)
	}
	return emails, nil
}

// Close disconnects the client when the store owns it.
func (s *SubscriberStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}
