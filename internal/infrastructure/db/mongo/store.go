package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultCollection = "kv_entries"

// kvEntry is one key-value pair; the key is the document id.
type kvEntry struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Store is a KeyValueStore backed by a single MongoDB collection.
type Store struct {
	coll      *mongo.Collection
	namespace string
}

// NewStore uses collection in db, or kv_entries when collection is empty.
func NewStore(db *mongo.Database, collection, namespace string) *Store {
	if collection == "" {
		collection = defaultCollection
	}
	return &Store{coll: db.Collection(collection), namespace: namespace}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var e kvEntry
	err := s.coll.FindOne(ctx, bson.M{"_id": s.key(key)}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("mongo get %s: %w", key, err)
	}
	return e.Value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": s.key(key)},
		bson.M{"$set": bson.M{"value": value, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": s.key(key)}); err != nil {
		return fmt.Errorf("mongo delete %s: %w", key, err)
	}
	return nil
}

// Clear deletes every entry under the namespace, or the whole collection
// when no namespace is set.
func (s *Store) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if s.namespace != "" {
		filter = bson.M{"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(s.namespace+":")}}
	}
	if _, err := s.coll.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("mongo clear: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

func (s *Store) key(k string) string {
	if s.namespace == "" {
		return k
	}
	return s.namespace + ":" + k
}
