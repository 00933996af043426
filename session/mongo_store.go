package session

import (
	"context"

	"github.com/parleyhq/parley/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists sessions in a MongoDB collection, one document per
// session keyed by session id.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (m *MongoStore) Get(ctx context.Context, id string) (*Session, error) {
	var s Session
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load session %q", id)
	}
	return &s, nil
}

func (m *MongoStore) Put(ctx context.Context, s *Session) error {
	_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": s.ID}, s, options.Replace().SetUpsert(true))
	return errors.Wrapf(err, "failed to save session %q", s.ID)
}
