package repository

import (
	"context"

	"civicreport-be/models"

	"go.mongodb.org/mongo-driver/bson"
)

func (s *Store) FindUpvote(ctx context.Context, issueID, userID int64) (*models.Upvote, error) {
	var upvote models.Upvote
	if err := s.findOne(ctx, upvotesCollection, bson.M{"issue_id": issueID, "user_id": userID}, &upvote); err != nil {
		return nil, err
	}
	return &upvote, nil
}

// InsertUpvote returns models.ErrDuplicateKey when the user already voted.
func (s *Store) InsertUpvote(ctx context.Context, upvote *models.Upvote) error {
	id, err := s.nextID(ctx, upvotesCollection)
	if err != nil {
		return err
	}
	upvote.ID = id
	return s.insert(ctx, upvotesCollection, upvote)
}

func (s *Store) DeleteUpvote(ctx context.Context, id int64) error {
	return s.deleteOne(ctx, upvotesCollection, id)
}

func (s *Store) CountUpvotes(ctx context.Context, issueID int64) (int64, error) {
	return s.count(ctx, upvotesCollection, bson.M{"issue_id": issueID})
}

func (s *Store) CountAllUpvotes(ctx context.Context) (int64, error) {
	return s.count(ctx, upvotesCollection, bson.M{})
}

func commentFilter(f models.CommentFilter) bson.M {
	q := bson.M{}
	if f.IssueID != 0 {
		q["issue_id"] = f.IssueID
	}
	if f.AuthorID != 0 {
		q["author_id"] = f.AuthorID
	}
	if f.CreatedFrom != nil {
		q["created_at"] = bson.M{"$gte": f.CreatedFrom.UTC()}
	}
	return q
}

func (s *Store) FindComment(ctx context.Context, id int64) (*models.Comment, error) {
	var comment models.Comment
	if err := s.findOne(ctx, commentsCollection, bson.M{"_id": id}, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *Store) InsertComment(ctx context.Context, comment *models.Comment) error {
	id, err := s.nextID(ctx, commentsCollection)
	if err != nil {
		return err
	}
	comment.ID = id
	return s.insert(ctx, commentsCollection, comment)
}

func (s *Store) SaveComment(ctx context.Context, comment *models.Comment) error {
	return s.replace(ctx, commentsCollection, comment.ID, comment)
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	return s.deleteOne(ctx, commentsCollection, id)
}

func (s *Store) ListComments(ctx context.Context, filter models.CommentFilter, p models.Page, newestFirst bool) ([]models.Comment, int64, error) {
	order := 1
	if newestFirst {
		order = -1
	}
	sort := bson.D{{Key: "created_at", Value: order}, {Key: "_id", Value: order}}
	return page[models.Comment](ctx, s.collection(commentsCollection), commentFilter(filter), sort, p)
}

func (s *Store) CountComments(ctx context.Context, filter models.CommentFilter) (int64, error) {
	return s.count(ctx, commentsCollection, commentFilter(filter))
}
