package repository

import (
	"context"
	"fmt"

	"civicreport-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// issueFilter translates an IssueFilter into a query document.
func issueFilter(f models.IssueFilter) bson.M {
	q := bson.M{}
	if f.IssueType != "" {
		q["issue_type"] = f.IssueType
	}
	switch {
	case f.Status != "":
		q["status"] = f.Status
	case len(f.Statuses) > 0:
		q["status"] = bson.M{"$in": f.Statuses}
	}
	if f.Priority != "" {
		q["priority"] = f.Priority
	}
	if f.ReporterID != 0 {
		q["reporter_id"] = f.ReporterID
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

	resolved := bson.M{}
	if f.HasResolutionDate {
		resolved["$ne"] = nil
	}
	if f.ResolvedFrom != nil {
		resolved["$gte"] = f.ResolvedFrom.UTC()
	}
	if f.ResolvedTo != nil {
		resolved["$lt"] = f.ResolvedTo.UTC()
	}
	if len(resolved) > 0 {
		q["actual_resolution_date"] = resolved
	}
	return q
}

func (s *Store) FindIssue(ctx context.Context, id int64) (*models.Issue, error) {
	var issue models.Issue
	if err := s.findOne(ctx, issuesCollection, bson.M{"_id": id}, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

func (s *Store) InsertIssue(ctx context.Context, issue *models.Issue) error {
	id, err := s.nextID(ctx, issuesCollection)
	if err != nil {
		return err
	}
	issue.ID = id
	return s.insert(ctx, issuesCollection, issue)
}

func (s *Store) SaveIssue(ctx context.Context, issue *models.Issue) error {
	return s.replace(ctx, issuesCollection, issue.ID, issue)
}

// DeleteIssue removes the issue with its comments and upvotes.
func (s *Store) DeleteIssue(ctx context.Context, id int64) error {
	if _, err := s.collection(commentsCollection).DeleteMany(ctx, bson.M{"issue_id": id}); err != nil {
		return fmt.Errorf("delete comments of issue %d: %w", id, err)
	}
	if _, err := s.collection(upvotesCollection).DeleteMany(ctx, bson.M{"issue_id": id}); err != nil {
		return fmt.Errorf("delete upvotes of issue %d: %w", id, err)
	}
	return s.deleteOne(ctx, issuesCollection, id)
}

func (s *Store) ListIssues(ctx context.Context, filter models.IssueFilter, p models.Page, oldestFirst bool) ([]models.Issue, int64, error) {
	order := -1
	if oldestFirst {
		order = 1
	}
	sort := bson.D{{Key: "created_at", Value: order}, {Key: "_id", Value: order}}
	return page[models.Issue](ctx, s.collection(issuesCollection), issueFilter(filter), sort, p)
}

func (s *Store) FindIssues(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.collection(issuesCollection).Find(ctx, issueFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("find issues: %w", err)
	}
	issues := make([]models.Issue, 0)
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}
	return issues, nil
}

func (s *Store) CountIssues(ctx context.Context, filter models.IssueFilter) (int64, error) {
	return s.count(ctx, issuesCollection, issueFilter(filter))
}
