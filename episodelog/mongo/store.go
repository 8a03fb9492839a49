// Package mongo implements episodelog.Store backed by MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/haicosystem/episodesim/episodelog"
)

const (
	defaultCollection = "episode_logs"
	defaultTimeout    = 5 * time.Second
)

// Options configures the Mongo-backed Store.
type Options struct {
	// Client is a connected Mongo client. Required.
	Client *mongodriver.Client
	// Database is the database name to use. Required.
	Database string
	// Collection overrides the default collection name.
	Collection string
	// Timeout bounds each individual operation. Defaults to 5s.
	Timeout time.Duration
}

// Store is an episodelog.Store backed by a MongoDB collection, one document
// per episode log id.
type Store struct {
	coll    *mongodriver.Collection
	timeout time.Duration
}

// New builds a Mongo-backed Store and ensures the id uniqueness index exists.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("mongo: client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("mongo: database name is required")
	}
	collection := opts.Collection
	if collection == "" {
		collection = defaultCollection
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	coll := opts.Client.Database(opts.Database).Collection(collection)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := coll.Indexes().CreateOne(ctx, mongodriver.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("mongo: ensure episode log index: %w", err)
	}

	return &Store{coll: coll, timeout: timeout}, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Save implements episodelog.Store. A write failure here is meant to be
// logged by the caller, not surfaced as an episode failure (error kind 5);
// this package only owns the persistence operation itself.
func (s *Store) Save(ctx context.Context, log episodelog.Log) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "id", Value: log.ID}},
		log,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo: save episode log %s: %w", log.ID, err)
	}
	return nil
}

// Get implements episodelog.Store.
func (s *Store) Get(ctx context.Context, id string) (episodelog.Log, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var log episodelog.Log
	err := s.coll.FindOne(ctx, bson.D{{Key: "id", Value: id}}).Decode(&log)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return episodelog.Log{}, episodelog.ErrNotFound
	}
	if err != nil {
		return episodelog.Log{}, fmt.Errorf("mongo: get episode log %s: %w", id, err)
	}
	return log, nil
}

// List implements episodelog.Store.
func (s *Store) List(ctx context.Context) ([]episodelog.Log, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cur, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongo: list episode logs: %w", err)
	}
	defer cur.Close(ctx)

	var out []episodelog.Log
	for cur.Next(ctx) {
		var log episodelog.Log
		if err := cur.Decode(&log); err != nil {
			return nil, fmt.Errorf("mongo: decode episode log: %w", err)
		}
		out = append(out, log)
	}
	return out, cur.Err()
}
