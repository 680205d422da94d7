// Package mongo stores documents in a single MongoDB collection keyed by path.
// Transactions use a client session and require a replica set deployment.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"eventbudget/internal/storage"
)

const collectionName = "documents"

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ storage.Store = (*Store)(nil)

// record is the stored shape: the document JSON is kept as an embedded BSON
// document so it stays queryable.
type record struct {
	Path      string    `bson:"_id"`
	Parent    string    `bson:"parent"`
	Data      bson.Raw  `bson:"data"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Connect dials uri, checks the connection and ensures the parent index.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{client: client, coll: client.Database(database).Collection(collectionName)}

	_, err = s.coll.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "parent", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create parent index: %w", err)
	}

	slog.InfoContext(ctx, "MongoDB document store ready", "database", database)
	return s, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	return s.get(ctx, path)
}

func (s *Store) List(ctx context.Context, collection string) ([]storage.Document, error) {
	return s.list(ctx, collection)
}

func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, &tx{store: s})
	})
	return err
}

// tx issues its operations on the session context handed to the callback,
// which binds them to the running transaction.
type tx struct {
	store *Store
}

func (t *tx) Get(ctx context.Context, path string) ([]byte, error) {
	return t.store.get(ctx, path)
}

func (t *tx) List(ctx context.Context, collection string) ([]storage.Document, error) {
	return t.store.list(ctx, collection)
}

func (t *tx) Set(ctx context.Context, path string, data []byte) error {
	var doc bson.D
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return fmt.Errorf("convert document %s: %w", path, err)
	}
	replacement := bson.D{
		{Key: "_id", Value: path},
		{Key: "parent", Value: storage.Parent(path)},
		{Key: "data", Value: doc},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}
	_, err := t.store.coll.ReplaceOne(ctx, bson.M{"_id": path}, replacement, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", path, err)
	}
	return nil
}

func (t *tx) Delete(ctx context.Context, path string) error {
	if _, err := t.store.coll.DeleteOne(ctx, bson.M{"_id": path}); err != nil {
		return fmt.Errorf("delete document %s: %w", path, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, path string) ([]byte, error) {
	var rec record
	err := s.coll.FindOne(ctx, bson.M{"_id": path}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", path, err)
	}
	return toJSON(rec)
}

func (s *Store) list(ctx context.Context, collection string) ([]storage.Document, error) {
	cur, err := s.coll.Find(ctx, bson.M{"parent": collection}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list documents %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	var out []storage.Document
	for cur.Next(ctx) {
		var rec record
		if err := cur.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		data, err := toJSON(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, storage.Document{Path: rec.Path, Data: data})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents %s: %w", collection, err)
	}
	return out, nil
}

func toJSON(rec record) ([]byte, error) {
	data, err := bson.MarshalExtJSON(rec.Data, false, false)
	if err != nil {
		return nil, fmt.Errorf("convert document %s: %w", rec.Path, err)
	}
	return data, nil
}
