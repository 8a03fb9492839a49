// Package mongo implements scenario.Store backed by MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/haicosystem/episodesim/scenario"
)

const (
	defaultCollection = "episode_scenarios"
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

// Store is a scenario.Store backed by a MongoDB collection, one document per
// scenario ID.
type Store struct {
	coll    *mongodriver.Collection
	timeout time.Duration
}

// New builds a Mongo-backed Store and ensures the ID uniqueness index exists.
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
		Keys:    bson.D{{Key: "scenario_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("mongo: ensure scenario index: %w", err)
	}

	return &Store{coll: coll, timeout: timeout}, nil
}

type document struct {
	ScenarioID string          `bson:"scenario_id"`
	Profile    scenario.Profile `bson:"profile"`
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Put implements scenario.Store.
func (s *Store) Put(ctx context.Context, p scenario.Profile) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "scenario_id", Value: p.ID}},
		document{ScenarioID: p.ID, Profile: p},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo: put scenario %s: %w", p.ID, err)
	}
	return nil
}

// Get implements scenario.Store.
func (s *Store) Get(ctx context.Context, id string) (scenario.Profile, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc document
	err := s.coll.FindOne(ctx, bson.D{{Key: "scenario_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return scenario.Profile{}, scenario.ErrNotFound
	}
	if err != nil {
		return scenario.Profile{}, fmt.Errorf("mongo: get scenario %s: %w", id, err)
	}
	return doc.Profile, nil
}

// List implements scenario.Store.
func (s *Store) List(ctx context.Context) ([]scenario.Profile, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cur, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongo: list scenarios: %w", err)
	}
	defer cur.Close(ctx)

	var out []scenario.Profile
	for cur.Next(ctx) {
		var doc document
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decode scenario: %w", err)
		}
		out = append(out, doc.Profile)
	}
	return out, cur.Err()
}
