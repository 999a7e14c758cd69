package repository

import (
	"context"
	"errors"
	"fmt"

	"civicreport-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	issuesCollection   = "issues"
	commentsCollection = "comments"
	upvotesCollection  = "upvotes"
	usersCollection    = "users"
	adminsCollection   = "admins"
	countersCollection = "counters"
)

// Store is the MongoDB implementation of every store interface the services
// depend on. Multi-document writes need a replica set.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// RunInTransaction runs fn in a session transaction. fn receives the session
// context and may be retried by the driver on transient errors.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return translate(err)
}

// EnsureIndexes creates the unique indexes the domain relies on. The
// upvotes index is the authoritative one-vote-per-user guard.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		upvotesCollection: {
			{
				Keys:    bson.D{{Key: "issue_id", Value: 1}, {Key: "user_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_user_issue_upvote"),
			},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		adminsCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		issuesCollection: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "reporter_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		commentsCollection: {
			{Keys: bson.D{{Key: "issue_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "author_id", Value: 1}}},
		},
	}
	for name, list := range indexes {
		if _, err := s.collection(name).Indexes().CreateMany(ctx, list); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

type counter struct {
	Seq int64 `bson:"seq"`
}

// nextID allocates the next integer id of a collection.
func (s *Store) nextID(ctx context.Context, name string) (int64, error) {
	var c counter
	err := s.collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("allocate %s id: %w", name, err)
	}
	return c.Seq, nil
}

// translate maps driver errors onto the storage-neutral ones in models.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.ErrRecordNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", models.ErrDuplicateKey, err)
	}
	return err
}

func (s *Store) findOne(ctx context.Context, name string, filter any, out any) error {
	err := s.collection(name).FindOne(ctx, filter).Decode(out)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("find in %s: %w", name, err)
	}
	return translate(err)
}

func (s *Store) insert(ctx context.Context, name string, doc any) error {
	if _, err := s.collection(name).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return translate(err)
		}
		return fmt.Errorf("insert into %s: %w", name, err)
	}
	return nil
}

func (s *Store) replace(ctx context.Context, name string, id int64, doc any) error {
	res, err := s.collection(name).ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return translate(err)
		}
		return fmt.Errorf("replace in %s: %w", name, err)
	}
	if res.MatchedCount == 0 {
		return models.ErrRecordNotFound
	}
	return nil
}

func (s *Store) deleteOne(ctx context.Context, name string, id int64) error {
	res, err := s.collection(name).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", name, err)
	}
	if res.DeletedCount == 0 {
		return models.ErrRecordNotFound
	}
	return nil
}

func (s *Store) count(ctx context.Context, name string, filter any) (int64, error) {
	n, err := s.collection(name).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", name, err)
	}
	return n, nil
}

// page runs a sorted, paged find and the matching count.
func page[T any](ctx context.Context, coll *mongo.Collection, filter any, sort bson.D, p models.Page) ([]T, int64, error) {
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", coll.Name(), err)
	}
	opts := options.Find().SetSort(sort).SetSkip(p.Skip()).SetLimit(int64(p.PerPage))
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return out, total, nil
}
