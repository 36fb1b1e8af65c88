// Package store maps record operations onto MongoDB collection calls.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("store: record not found")

type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
	UpsertedID    any   `json:"upsertedId"`
	UpsertedCount int64 `json:"upsertedCount"`
}

type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

type Option func(*settings)

type settings struct {
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// WithCache enables the read-through record cache.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(s *settings) {
		s.cache = cache
		s.ttl = ttl
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// Collection is a typed view over one MongoDB collection. T is the decoded
// record type; writes accept any BSON-encodable document.
type Collection[T any] struct {
	name  string
	coll  *mongo.Collection
	cache *recordCache
	log   *slog.Logger
}

func NewCollection[T any](db *mongo.Database, name string, opts ...Option) *Collection[T] {
	s := settings{logger: slog.Default()}
	for _, opt := range opts {
		opt(&s)
	}
	c := &Collection[T]{
		name: name,
		coll: db.Collection(name),
		log:  s.logger.With(slog.String("collection", name)),
	}
	if s.cache != nil {
		c.cache = &recordCache{client: s.cache, ttl: s.ttl, prefix: name, log: c.log}
	}
	return c
}

// Page counts the whole collection, then returns the window of records
// newest first.
func (c *Collection[T]) Page(ctx context.Context, skip, limit int64) ([]T, int64, error) {
	total, err := c.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", c.name, err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	docs, err := c.find(ctx, opts)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// All returns every record in natural order.
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	return c.find(ctx, options.Find())
}

func (c *Collection[T]) find(ctx context.Context, opts *options.FindOptions) ([]T, error) {
	cursor, err := c.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.name, err)
	}
	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.name, err)
	}
	return docs, nil
}

// Get returns the record with id. With a cache configured, the raw stored
// document is read through it and decoded into T on every call.
func (c *Collection[T]) Get(ctx context.Context, id primitive.ObjectID) (T, error) {
	if c.cache != nil {
		if raw, ok := c.cache.get(ctx, id); ok {
			var cached T
			if err := bson.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	var doc T
	raw, err := c.coll.FindOne(ctx, bson.M{"_id": id}).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, ErrNotFound
	}
	if err != nil {
		return doc, fmt.Errorf("find %s %s: %w", c.name, id.Hex(), err)
	}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("decode %s %s: %w", c.name, id.Hex(), err)
	}

	if c.cache != nil {
		c.cache.set(ctx, id, raw)
	}
	return doc, nil
}

// Insert stores doc and returns the identifier assigned to it.
func (c *Collection[T]) Insert(ctx context.Context, doc any) (any, error) {
	res, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", c.name, err)
	}
	return res.InsertedID, nil
}

// Update applies a $set of fields to the record.
func (c *Collection[T]) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (UpdateResult, error) {
	res, err := c.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return UpdateResult{}, fmt.Errorf("update %s %s: %w", c.name, id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return UpdateResult{}, ErrNotFound
	}
	c.invalidate(ctx, id)
	return UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedID:    res.UpsertedID,
		UpsertedCount: res.UpsertedCount,
	}, nil
}

// Replace swaps the whole record body, keeping only its identifier.
func (c *Collection[T]) Replace(ctx context.Context, id primitive.ObjectID, doc any) error {
	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return fmt.Errorf("replace %s %s: %w", c.name, id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *Collection[T]) Delete(ctx context.Context, id primitive.ObjectID) (DeleteResult, error) {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete %s %s: %w", c.name, id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return DeleteResult{}, ErrNotFound
	}
	c.invalidate(ctx, id)
	return DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func (c *Collection[T]) invalidate(ctx context.Context, id primitive.ObjectID) {
	if c.cache != nil {
		c.cache.del(ctx, id)
	}
}
