package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"civicreport-be/models"
)

type CommentDetail struct {
	models.Comment
	Author *models.User `json:"author"`
}

// CommentService manages the discussion under an issue.
type CommentService struct {
	store    CommentStore
	notifier Notifier
	now      func() time.Time
}

func NewCommentService(store CommentStore, notifier Notifier) *CommentService {
	return &CommentService{store: store, notifier: notifier, now: time.Now}
}

func checkCommentContent(content string) (string, error) {
	if content == "" {
		return "", validationError("Comment content is required")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", validationError("Comment cannot be empty")
	}
	if utf8.RuneCountInString(content) > models.MaxCommentLength {
		return "", validationError("Comment too long (max 1000 characters)")
	}
	return content, nil
}

// Add posts a comment as the principal. The reporter is notified unless they
// wrote it.
func (s *CommentService) Add(ctx context.Context, p Principal, issueID int64, content string) (*CommentDetail, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	content, err := checkCommentContent(content)
	if err != nil {
		return nil, err
	}

	var (
		issue   *models.Issue
		author  *models.User
		comment *models.Comment
	)
	err = s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if author, err = s.store.FindUser(ctx, p.ID); err != nil {
			if errors.Is(err, models.ErrRecordNotFound) {
				return notFound("User not found")
			}
			return err
		}
		if issue, err = s.store.FindIssue(ctx, issueID); err != nil {
			if errors.Is(err, models.ErrRecordNotFound) {
				return notFound("Issue not found")
			}
			return err
		}
		now := s.now().UTC()
		comment = &models.Comment{
			Content:        content,
			IssueID:        issueID,
			AuthorID:       author.ID,
			IsAdminComment: author.IsAdmin(),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return s.store.InsertComment(ctx, comment)
	})
	if err != nil {
		var de *DomainError
		if !errors.As(err, &de) {
			slog.Error("failed to add comment", "error", err, "issue_id", issueID)
		}
		return nil, passThrough(err, internalError("Failed to add comment"))
	}

	if issue.ReporterID != author.ID {
		notifyCommentAdded(ctx, s.notifier, issue, comment)
	}
	return &CommentDetail{Comment: *comment, Author: author}, nil
}

func (s *CommentService) Get(ctx context.Context, id int64) (*CommentDetail, error) {
	comment, err := s.store.FindComment(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, notFound("Comment not found")
		}
		slog.Error("failed to fetch comment", "error", err, "comment_id", id)
		return nil, internalError("Failed to fetch comment")
	}
	return s.detail(ctx, comment)
}

// Update replaces the content. Only the author or an admin may do it.
func (s *CommentService) Update(ctx context.Context, p Principal, id int64, content string) (*CommentDetail, error) {
	var comment *models.Comment
	err := s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if comment, err = s.ownedComment(ctx, p, id); err != nil {
			return err
		}
		text, err := checkCommentContent(content)
		if err != nil {
			return err
		}
		comment.Content = text
		comment.UpdatedAt = s.now().UTC()
		return s.store.SaveComment(ctx, comment)
	})
	if err != nil {
		var de *DomainError
		if !errors.As(err, &de) {
			slog.Error("failed to update comment", "error", err, "comment_id", id)
		}
		return nil, passThrough(err, internalError("Failed to update comment"))
	}
	return s.detail(ctx, comment)
}

func (s *CommentService) Delete(ctx context.Context, p Principal, id int64) error {
	err := s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.ownedComment(ctx, p, id); err != nil {
			return err
		}
		return s.store.DeleteComment(ctx, id)
	})
	if err != nil {
		var de *DomainError
		if !errors.As(err, &de) {
			slog.Error("failed to delete comment", "error", err, "comment_id", id)
		}
		return passThrough(err, internalError("Failed to delete comment"))
	}
	return nil
}

func (s *CommentService) ownedComment(ctx context.Context, p Principal, id int64) (*models.Comment, error) {
	comment, err := s.store.FindComment(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, notFound("Comment not found")
		}
		return nil, err
	}
	if !p.IsAdmin() && !(p.IsUser() && comment.AuthorID == p.ID) {
		return nil, forbidden("Unauthorized")
	}
	return comment, nil
}

// ForIssue lists an issue's comments oldest first.
func (s *CommentService) ForIssue(ctx context.Context, issueID int64, page models.Page) ([]CommentDetail, models.Pagination, error) {
	if _, err := s.store.FindIssue(ctx, issueID); err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, models.Pagination{}, notFound("Issue not found")
		}
		slog.Error("failed to fetch comments", "error", err, "issue_id", issueID)
		return nil, models.Pagination{}, internalError("Failed to fetch comments")
	}
	return s.list(ctx, models.CommentFilter{IssueID: issueID}, page, false, "Failed to fetch comments")
}

// ByAuthor lists a user's comments newest first.
func (s *CommentService) ByAuthor(ctx context.Context, userID int64, page models.Page) (*models.User, []CommentDetail, models.Pagination, error) {
	user, err := s.store.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, nil, models.Pagination{}, notFound("User not found")
		}
		slog.Error("failed to fetch user comments", "error", err, "user_id", userID)
		return nil, nil, models.Pagination{}, internalError("Failed to fetch user comments")
	}
	comments, pagination, err := s.list(ctx, models.CommentFilter{AuthorID: userID}, page, true, "Failed to fetch user comments")
	if err != nil {
		return nil, nil, models.Pagination{}, err
	}
	return user, comments, pagination, nil
}

func (s *CommentService) list(ctx context.Context, filter models.CommentFilter, page models.Page, newestFirst bool, failure string) ([]CommentDetail, models.Pagination, error) {
	comments, total, err := s.store.ListComments(ctx, filter, page, newestFirst)
	if err != nil {
		slog.Error(failure, "error", err)
		return nil, models.Pagination{}, internalError(failure)
	}
	out := make([]CommentDetail, 0, len(comments))
	for i := range comments {
		d, err := s.detail(ctx, &comments[i])
		if err != nil {
			return nil, models.Pagination{}, err
		}
		out = append(out, *d)
	}
	return out, models.NewPagination(page, total), nil
}

func (s *CommentService) detail(ctx context.Context, comment *models.Comment) (*CommentDetail, error) {
	author, err := s.store.FindUser(ctx, comment.AuthorID)
	if err != nil && !errors.Is(err, models.ErrRecordNotFound) {
		slog.Error("failed to load comment author", "error", err, "comment_id", comment.ID)
		return nil, internalError("Failed to fetch comment")
	}
	return &CommentDetail{Comment: *comment, Author: author}, nil
}
