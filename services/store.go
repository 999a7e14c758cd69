package services

import (
	"context"

	"civicreport-be/models"
)

// Transactor runs fn inside one storage transaction. The ctx passed to fn
// must be used for every store call that belongs to the transaction.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type IssueReader interface {
	FindIssue(ctx context.Context, id int64) (*models.Issue, error)
}

type IssueWriter interface {
	SaveIssue(ctx context.Context, issue *models.Issue) error
}

// LifecycleStore backs single-issue and bulk mutations.
type LifecycleStore interface {
	Transactor
	IssueReader
	IssueWriter
}

// VoteStore backs the voting ledger.
type VoteStore interface {
	Transactor
	IssueReader
	FindUpvote(ctx context.Context, issueID, userID int64) (*models.Upvote, error)
	InsertUpvote(ctx context.Context, upvote *models.Upvote) error
	DeleteUpvote(ctx context.Context, id int64) error
	CountUpvotes(ctx context.Context, issueID int64) (int64, error)
}

// IssueStore backs issue creation, reads and deletion.
type IssueStore interface {
	Transactor
	IssueReader
	InsertIssue(ctx context.Context, issue *models.Issue) error
	DeleteIssue(ctx context.Context, id int64) error
	ListIssues(ctx context.Context, filter models.IssueFilter, page models.Page, oldestFirst bool) ([]models.Issue, int64, error)
	CountComments(ctx context.Context, filter models.CommentFilter) (int64, error)
	CountUpvotes(ctx context.Context, issueID int64) (int64, error)
	FindUser(ctx context.Context, id int64) (*models.User, error)
}

// CommentStore backs the discussion thread of an issue.
type CommentStore interface {
	Transactor
	IssueReader
	FindUser(ctx context.Context, id int64) (*models.User, error)
	FindComment(ctx context.Context, id int64) (*models.Comment, error)
	InsertComment(ctx context.Context, comment *models.Comment) error
	SaveComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id int64) error
	ListComments(ctx context.Context, filter models.CommentFilter, page models.Page, newestFirst bool) ([]models.Comment, int64, error)
}

// UserStore backs account registration and administration.
type UserStore interface {
	Transactor
	FindUser(ctx context.Context, id int64) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	InsertUser(ctx context.Context, user *models.User) error
	SaveUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context, filter models.UserFilter, page models.Page) ([]models.User, int64, error)
	CountIssues(ctx context.Context, filter models.IssueFilter) (int64, error)
	CountComments(ctx context.Context, filter models.CommentFilter) (int64, error)
	FindAdminByUsername(ctx context.Context, username string) (*models.Admin, error)
}

// AnalyticsSource is the read side used by the aggregator.
type AnalyticsSource interface {
	CountIssues(ctx context.Context, filter models.IssueFilter) (int64, error)
	CountUsers(ctx context.Context, filter models.UserFilter) (int64, error)
	CountComments(ctx context.Context, filter models.CommentFilter) (int64, error)
	CountAllUpvotes(ctx context.Context) (int64, error)
	GroupIssues(ctx context.Context, field string, filter models.IssueFilter) ([]models.GroupCount, error)
	FindIssues(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error)
	TopReporters(ctx context.Context, limit int) ([]models.ActivityCount, error)
	TopCommenters(ctx context.Context, limit int) ([]models.ActivityCount, error)
	IssueLocations(ctx context.Context) ([]models.Location, error)
}
