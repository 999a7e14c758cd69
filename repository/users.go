package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"civicreport-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func userFilter(f models.UserFilter) bson.M {
	q := bson.M{}
	if f.Role != "" {
		q["role"] = f.Role
	}
	if f.Search != "" {
		term := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"first_name": term},
			bson.M{"last_name": term},
			bson.M{"email": term},
		}
	}
	created := bson.M{}
	if f.CreatedFrom != nil {
		created["$gte"] = f.CreatedFrom.UTC()
	}
	if f.CreatedTo != nil {
		created["$lt"] = f.CreatedTo.UTC()
	}
	if len(created) > 0 {
		q["created_at"] = created
	}
	return q
}

func (s *Store) FindUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := s.findOne(ctx, usersCollection, bson.M{"_id": id}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.findOne(ctx, usersCollection, bson.M{"email": email}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) InsertUser(ctx context.Context, user *models.User) error {
	id, err := s.nextID(ctx, usersCollection)
	if err != nil {
		return err
	}
	user.ID = id
	return s.insert(ctx, usersCollection, user)
}

func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	return s.replace(ctx, usersCollection, user.ID, user)
}

// DeleteUser removes the user, the issues they reported with everything
// attached to them, and their own comments and upvotes elsewhere.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	cursor, err := s.collection(issuesCollection).Find(ctx,
		bson.M{"reporter_id": id},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return fmt.Errorf("find issues of user %d: %w", id, err)
	}
	var owned []struct {
		ID int64 `bson:"_id"`
	}
	if err := cursor.All(ctx, &owned); err != nil {
		return fmt.Errorf("decode issues of user %d: %w", id, err)
	}
	issueIDs := make(bson.A, 0, len(owned))
	for _, o := range owned {
		issueIDs = append(issueIDs, o.ID)
	}

	comments := bson.M{"$or": bson.A{bson.M{"issue_id": bson.M{"$in": issueIDs}}, bson.M{"author_id": id}}}
	if _, err := s.collection(commentsCollection).DeleteMany(ctx, comments); err != nil {
		return fmt.Errorf("delete comments of user %d: %w", id, err)
	}
	upvotes := bson.M{"$or": bson.A{bson.M{"issue_id": bson.M{"$in": issueIDs}}, bson.M{"user_id": id}}}
	if _, err := s.collection(upvotesCollection).DeleteMany(ctx, upvotes); err != nil {
		return fmt.Errorf("delete upvotes of user %d: %w", id, err)
	}
	if _, err := s.collection(issuesCollection).DeleteMany(ctx, bson.M{"reporter_id": id}); err != nil {
		return fmt.Errorf("delete issues of user %d: %w", id, err)
	}
	return s.deleteOne(ctx, usersCollection, id)
}

// ListUsers returns users newest first.
func (s *Store) ListUsers(ctx context.Context, filter models.UserFilter, p models.Page) ([]models.User, int64, error) {
	sort := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	return page[models.User](ctx, s.collection(usersCollection), userFilter(filter), sort, p)
}

func (s *Store) CountUsers(ctx context.Context, filter models.UserFilter) (int64, error) {
	return s.count(ctx, usersCollection, userFilter(filter))
}

func (s *Store) FindAdmin(ctx context.Context, id int64) (*models.Admin, error) {
	var admin models.Admin
	if err := s.findOne(ctx, adminsCollection, bson.M{"_id": id}, &admin); err != nil {
		return nil, err
	}
	return &admin, nil
}

func (s *Store) FindAdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	if err := s.findOne(ctx, adminsCollection, bson.M{"username": username}, &admin); err != nil {
		return nil, err
	}
	return &admin, nil
}

func (s *Store) InsertAdmin(ctx context.Context, admin *models.Admin) error {
	id, err := s.nextID(ctx, adminsCollection)
	if err != nil {
		return err
	}
	admin.ID = id
	return s.insert(ctx, adminsCollection, admin)
}

// EnsureAdmin creates the admin account when no admin with that username
// exists yet. It reports whether an account was created.
func (s *Store) EnsureAdmin(ctx context.Context, admin *models.Admin) (bool, error) {
	_, err := s.FindAdminByUsername(ctx, admin.Username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, models.ErrRecordNotFound) {
		return false, err
	}
	if err := admin.HashPassword(); err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	if err := s.InsertAdmin(ctx, admin); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
