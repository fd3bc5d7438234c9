package storage

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

const mongoTimeout = 10 * time.Second

type mongoBlob struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps one document per key in the "blobs" collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore connects to uri and pings the primary.
func NewMongoStore(uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("storage/mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("storage/mongo: ping: %w", err)
	}
	return &MongoStore{coll: client.Database(database).Collection("blobs")}, nil
}

func (s *MongoStore) Get(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	var doc mongoBlob
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("storage/mongo: get %s: %w", key, err)
	}
	return doc.Value, nil
}

func (s *MongoStore) Put(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	doc := mongoBlob{Key: key, Value: value, UpdatedAt: time.Now()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("storage/mongo: put %s: %w", key, err)
	}
	return nil
}

func (s *MongoStore) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("storage/mongo: delete %s: %w", key, err)
	}
	return nil
}

func (s *MongoStore) Exists(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": key})
	return err == nil && n > 0
}

func (s *MongoStore) Keys(prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	filter := bson.M{"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}
	cur, err := s.coll.Find(ctx, filter, options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("storage/mongo: keys %s: %w", prefix, err)
	}
	defer cur.Close(ctx)

	var out []string
	for cur.Next(ctx) {
		var doc struct {
			Key string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("storage/mongo: decode: %w", err)
		}
		out = append(out, doc.Key)
	}
	return out, cur.Err()
}
