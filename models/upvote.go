package models

import "time"

// Upvote is one resident's vote on an issue. (issue_id, user_id) is unique.
type Upvote struct {
	ID        int64     `bson:"_id" json:"id"`
	IssueID   int64     `bson:"issue_id" json:"issue_id"`
	UserID    int64     `bson:"user_id" json:"user_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
