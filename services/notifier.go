package services

import (
	"context"
	"log/slog"

	"civicreport-be/models"
)

const (
	ActionAssigned = "assigned"
)

// Notifier receives change events after the triggering mutation committed.
// Implementations may fail; callers log and move on.
type Notifier interface {
	StatusChanged(ctx context.Context, issue *models.Issue) error
	CommentAdded(ctx context.Context, issue *models.Issue, comment *models.Comment) error
	AdminAction(ctx context.Context, issue *models.Issue, action string) error
}

func notifyStatusChanged(ctx context.Context, n Notifier, issue *models.Issue) {
	if n == nil {
		return
	}
	if err := n.StatusChanged(ctx, issue); err != nil {
		slog.Warn("status change notification failed", "error", err, "issue_id", issue.ID)
	}
}

func notifyCommentAdded(ctx context.Context, n Notifier, issue *models.Issue, comment *models.Comment) {
	if n == nil {
		return
	}
	if err := n.CommentAdded(ctx, issue, comment); err != nil {
		slog.Warn("comment notification failed", "error", err, "issue_id", issue.ID, "comment_id", comment.ID)
	}
}

func notifyAdminAction(ctx context.Context, n Notifier, issue *models.Issue, action string) {
	if n == nil {
		return
	}
	if err := n.AdminAction(ctx, issue, action); err != nil {
		slog.Warn("admin action notification failed", "error", err, "issue_id", issue.ID, "action", action)
	}
}
