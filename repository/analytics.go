package repository

import (
	"context"
	"fmt"

	"civicreport-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var groupableIssueFields = map[string]bool{
	"status":     true,
	"issue_type": true,
	"priority":   true,
}

// GroupIssues counts issues per distinct value of field.
func (s *Store) GroupIssues(ctx context.Context, field string, filter models.IssueFilter) ([]models.GroupCount, error) {
	if !groupableIssueFields[field] {
		return nil, fmt.Errorf("cannot group issues by %q", field)
	}
	pipeline := []bson.M{
		{"$match": issueFilter(filter)},
		{
			"$group": bson.M{
				"_id":   "$" + field,
				"count": bson.M{"$sum": 1},
			},
		},
		{"$sort": bson.M{"_id": 1}},
	}
	cursor, err := s.collection(issuesCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("group issues by %s: %w", field, err)
	}
	groups := make([]models.GroupCount, 0)
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("decode %s groups: %w", field, err)
	}
	return groups, nil
}

func (s *Store) TopReporters(ctx context.Context, limit int) ([]models.ActivityCount, error) {
	return s.topUsers(ctx, issuesCollection, "reporter_id", limit)
}

func (s *Store) TopCommenters(ctx context.Context, limit int) ([]models.ActivityCount, error) {
	return s.topUsers(ctx, commentsCollection, "author_id", limit)
}

// topUsers counts documents of coll per user, keeping only users that
// still exist, highest count first.
func (s *Store) topUsers(ctx context.Context, coll, userField string, limit int) ([]models.ActivityCount, error) {
	pipeline := []bson.M{
		{
			"$group": bson.M{
				"_id":   "$" + userField,
				"count": bson.M{"$sum": 1},
			},
		},
		{
			"$lookup": bson.M{
				"from":         usersCollection,
				"localField":   "_id",
				"foreignField": "_id",
				"as":           "user",
			},
		},
		{"$unwind": "$user"},
		{"$sort": bson.M{"count": -1}},
		{"$limit": limit},
		{
			"$project": bson.M{
				"count":      1,
				"first_name": "$user.first_name",
				"last_name":  "$user.last_name",
			},
		},
	}
	cursor, err := s.collection(coll).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("rank users in %s: %w", coll, err)
	}
	out := make([]models.ActivityCount, 0, limit)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s ranking: %w", coll, err)
	}
	return out, nil
}

// IssueLocations returns the coordinates of every issue that has both.
func (s *Store) IssueLocations(ctx context.Context) ([]models.Location, error) {
	filter := bson.M{
		"latitude":  bson.M{"$ne": nil},
		"longitude": bson.M{"$ne": nil},
	}
	opts := options.Find().
		SetProjection(bson.M{"_id": 0, "latitude": 1, "longitude": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.collection(issuesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find issue locations: %w", err)
	}
	out := make([]models.Location, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode issue locations: %w", err)
	}
	return out, nil
}
