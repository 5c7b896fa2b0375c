package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/storyfold/pkg/errors"
)

const collectionName = "pathways"

// MongoStore persists pathways in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB, verifies the connection, and
// ensures the lookup indexes exist.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	coll := client.Database(database).Collection(collectionName)
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "eoi", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "hash", Value: 1}}},
	}
	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create indexes: %w", err)
	}

	return &MongoStore{client: client, coll: coll}, nil
}

// Save persists a pathway, replacing any previous version with the
// same ID.
func (s *MongoStore) Save(ctx context.Context, p *Pathway) error {
	prepare(p)
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, p, opts); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save pathway %s", p.ID)
	}
	return nil
}

// Get retrieves a pathway by ID.
func (s *MongoStore) Get(ctx context.Context, id string) (*Pathway, error) {
	var p Pathway
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "get pathway %s", id)
	}
	return &p, nil
}

// List returns pathways, newest first, optionally filtered by EOI.
func (s *MongoStore) List(ctx context.Context, eoi string, limit int) ([]*Pathway, error) {
	filter := bson.M{}
	if eoi != "" {
		filter["eoi"] = eoi
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list pathways")
	}
	defer cursor.Close(ctx)

	var out []*Pathway
	if err := cursor.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode pathways")
	}
	return out, nil
}

// Delete removes a pathway by ID.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete pathway %s", id)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
