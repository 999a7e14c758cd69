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

// NewIssue is a resident's report. Pointer coordinates distinguish a missing
// value from zero.
type NewIssue struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	IssueType   string   `json:"issue_type"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Address     *string  `json:"address"`
	ImageURL    *string  `json:"image_url"`
	Priority    string   `json:"priority"`
}

// IssueDetail is an issue with its reporter and derived counts.
type IssueDetail struct {
	models.Issue
	Reporter                *models.User `json:"reporter"`
	EstimatedResolutionDate *string      `json:"estimated_resolution_date"`
	ActualResolutionDate    *string      `json:"actual_resolution_date"`
	CommentCount            int64        `json:"comment_count"`
	UpvoteCount             int64        `json:"upvote_count"`
}

// IssueService covers creating, reading and deleting issues.
type IssueService struct {
	store IssueStore
	now   func() time.Time
}

func NewIssueService(store IssueStore) *IssueService {
	return &IssueService{store: store, now: time.Now}
}

// Validate checks a report and returns the first problem found.
func (in NewIssue) Validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return validationError("title is required")
	case strings.TrimSpace(in.Description) == "":
		return validationError("description is required")
	case strings.TrimSpace(in.IssueType) == "":
		return validationError("issue_type is required")
	case in.Latitude == nil:
		return validationError("latitude is required")
	case in.Longitude == nil:
		return validationError("longitude is required")
	}

	title := utf8.RuneCountInString(strings.TrimSpace(in.Title))
	if title < 5 {
		return validationError("Title must be at least 5 characters long")
	}
	if title > 200 {
		return validationError("Title must be less than 200 characters")
	}
	description := utf8.RuneCountInString(strings.TrimSpace(in.Description))
	if description < 10 {
		return validationError("Description must be at least 10 characters long")
	}
	if description > 2000 {
		return validationError("Description must be less than 2000 characters")
	}
	if *in.Latitude < -90 || *in.Latitude > 90 {
		return validationError("Invalid latitude value")
	}
	if *in.Longitude < -180 || *in.Longitude > 180 {
		return validationError("Invalid longitude value")
	}
	if p := strings.TrimSpace(in.Priority); p != "" && !models.ValidPriority(p) {
		return validationError("Invalid priority level")
	}
	return nil
}

func (s *IssueService) Create(ctx context.Context, p Principal, in NewIssue) (*IssueDetail, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	issue := &models.Issue{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		IssueType:   strings.TrimSpace(in.IssueType),
		Status:      string(models.StatusSubmitted),
		Priority:    string(models.PriorityMedium),
		Latitude:    *in.Latitude,
		Longitude:   *in.Longitude,
		Address:     nonBlank(in.Address),
		ImageURL:    nonBlank(in.ImageURL),
		ReporterID:  p.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if pr := strings.TrimSpace(in.Priority); pr != "" {
		issue.Priority = pr
	}

	err := s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.store.FindUser(ctx, p.ID); err != nil {
			if errors.Is(err, models.ErrRecordNotFound) {
				return notFound("User not found")
			}
			return err
		}
		return s.store.InsertIssue(ctx, issue)
	})
	if err != nil {
		var de *DomainError
		if !errors.As(err, &de) {
			slog.Error("failed to create issue", "error", err, "reporter_id", p.ID)
		}
		return nil, passThrough(err, internalError("Failed to create issue"))
	}
	return s.Detail(ctx, issue)
}

func (s *IssueService) Get(ctx context.Context, id int64) (*IssueDetail, error) {
	issue, err := s.store.FindIssue(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, notFound("Issue not found")
		}
		slog.Error("failed to fetch issue", "error", err, "issue_id", id)
		return nil, internalError("Failed to fetch issue")
	}
	return s.Detail(ctx, issue)
}

// List returns issues newest first.
func (s *IssueService) List(ctx context.Context, filter models.IssueFilter, page models.Page) ([]IssueDetail, models.Pagination, error) {
	return s.list(ctx, filter, page, false, "Failed to fetch issues")
}

// Pending returns submitted and verified issues, oldest first.
func (s *IssueService) Pending(ctx context.Context, p Principal, page models.Page) ([]IssueDetail, models.Pagination, error) {
	if err := requireAdmin(p); err != nil {
		return nil, models.Pagination{}, err
	}
	filter := models.IssueFilter{Statuses: []string{string(models.StatusSubmitted), string(models.StatusVerified)}}
	return s.list(ctx, filter, page, true, "Failed to fetch pending issues")
}

func (s *IssueService) list(ctx context.Context, filter models.IssueFilter, page models.Page, oldestFirst bool, failure string) ([]IssueDetail, models.Pagination, error) {
	issues, total, err := s.store.ListIssues(ctx, filter, page, oldestFirst)
	if err != nil {
		slog.Error(failure, "error", err)
		return nil, models.Pagination{}, internalError(failure)
	}
	out := make([]IssueDetail, 0, len(issues))
	for i := range issues {
		d, err := s.Detail(ctx, &issues[i])
		if err != nil {
			return nil, models.Pagination{}, err
		}
		out = append(out, *d)
	}
	return out, models.NewPagination(page, total), nil
}

// Delete removes an issue with its comments and upvotes. Only the reporter or
// an admin may do it.
func (s *IssueService) Delete(ctx context.Context, p Principal, id int64) error {
	err := s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		issue, err := s.store.FindIssue(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrRecordNotFound) {
				return notFound("Issue not found")
			}
			return err
		}
		if !p.IsAdmin() && !(p.IsUser() && issue.ReporterID == p.ID) {
			return forbidden("Unauthorized")
		}
		return s.store.DeleteIssue(ctx, id)
	})
	if err != nil {
		var de *DomainError
		if !errors.As(err, &de) {
			slog.Error("failed to delete issue", "error", err, "issue_id", id)
		}
		return passThrough(err, internalError("Failed to delete issue"))
	}
	return nil
}

// Detail attaches the reporter and the comment and upvote counts.
func (s *IssueService) Detail(ctx context.Context, issue *models.Issue) (*IssueDetail, error) {
	d := &IssueDetail{
		Issue:                   *issue,
		EstimatedResolutionDate: models.FormatDate(issue.EstimatedResolutionDate),
		ActualResolutionDate:    models.FormatDate(issue.ActualResolutionDate),
	}
	reporter, err := s.store.FindUser(ctx, issue.ReporterID)
	switch {
	case err == nil:
		d.Reporter = reporter
	case !errors.Is(err, models.ErrRecordNotFound):
		slog.Error("failed to load reporter", "error", err, "issue_id", issue.ID)
		return nil, internalError("Failed to fetch issue")
	}
	if d.CommentCount, err = s.store.CountComments(ctx, models.CommentFilter{IssueID: issue.ID}); err != nil {
		slog.Error("failed to count comments", "error", err, "issue_id", issue.ID)
		return nil, internalError("Failed to fetch issue")
	}
	if d.UpvoteCount, err = s.store.CountUpvotes(ctx, issue.ID); err != nil {
		slog.Error("failed to count upvotes", "error", err, "issue_id", issue.ID)
		return nil, internalError("Failed to fetch issue")
	}
	return d, nil
}
