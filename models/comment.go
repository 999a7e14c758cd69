package models

import "time"

const MaxCommentLength = 1000

type Comment struct {
	ID             int64     `bson:"_id" json:"id"`
	Content        string    `bson:"content" json:"content"`
	IssueID        int64     `bson:"issue_id" json:"issue_id"`
	AuthorID       int64     `bson:"author_id" json:"author_id"`
	IsAdminComment bool      `bson:"is_admin_comment" json:"is_admin_comment"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}
