package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"civicreport-be/models"
)

// IssueUpdate carries the optional fields of an admin edit. Nil or blank
// values are left untouched.
type IssueUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IssueType   *string `json:"issue_type"`
	Priority    *string `json:"priority"`
	Address     *string `json:"address"`
	Status      *string `json:"status"`
	AssignedTo  *string `json:"assigned_to"`
}

// AssignRequest hands an issue to a department or person.
type AssignRequest struct {
	AssignedTo              string  `json:"assigned_to"`
	Status                  *string `json:"status"`
	EstimatedResolutionDate *string `json:"estimated_resolution_date"`
}

// IssueLifecycle applies status, assignment and field changes to one issue.
type IssueLifecycle struct {
	store    LifecycleStore
	notifier Notifier
	now      func() time.Time
}

func NewIssueLifecycle(store LifecycleStore, notifier Notifier) *IssueLifecycle {
	return &IssueLifecycle{store: store, notifier: notifier, now: time.Now}
}

// UpdateStatus moves an issue to status and optionally reassigns it.
func (l *IssueLifecycle) UpdateStatus(ctx context.Context, p Principal, issueID int64, status string, assignedTo *string) (*models.Issue, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	status = strings.TrimSpace(status)
	if err := checkStatus(status); err != nil {
		return nil, err
	}
	assignedTo = nonBlank(assignedTo)

	issue, previous, err := l.mutate(ctx, issueID, "Failed to update issue status", func(issue *models.Issue) error {
		issue.ApplyStatus(status, assignedTo, l.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	if previous != issue.Status {
		notifyStatusChanged(ctx, l.notifier, issue)
	}
	return issue, nil
}

// Assign sets the assignee and, when given, the status and estimated
// resolution date.
func (l *IssueLifecycle) Assign(ctx context.Context, p Principal, issueID int64, req AssignRequest) (*models.Issue, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	target := strings.TrimSpace(req.AssignedTo)
	if target == "" {
		return nil, validationError("Assignment target is required")
	}
	status := nonBlank(req.Status)
	if status != nil {
		if err := checkStatus(*status); err != nil {
			return nil, err
		}
	}
	var estimated *time.Time
	if raw := nonBlank(req.EstimatedResolutionDate); raw != nil {
		d, err := models.ParseDate(*raw)
		if err != nil {
			return nil, validationError("Invalid date format, expected YYYY-MM-DD")
		}
		estimated = &d
	}

	issue, _, err := l.mutate(ctx, issueID, "Failed to assign issue", func(issue *models.Issue) error {
		now := l.now()
		issue.AssignedTo = &target
		if status != nil {
			issue.ApplyStatus(*status, &target, now)
		}
		if estimated != nil {
			issue.EstimatedResolutionDate = estimated
		}
		issue.UpdatedAt = now.UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	notifyAdminAction(ctx, l.notifier, issue, ActionAssigned)
	return issue, nil
}

// Update applies an admin edit. A status change is announced only when the
// stored value actually differs.
func (l *IssueLifecycle) Update(ctx context.Context, p Principal, issueID int64, in IssueUpdate) (*models.Issue, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	status := nonBlank(in.Status)
	if status != nil {
		if err := checkStatus(*status); err != nil {
			return nil, err
		}
	}
	priority := nonBlank(in.Priority)
	if priority != nil && !models.ValidPriority(*priority) {
		return nil, validationError("Invalid priority level")
	}

	issue, previous, err := l.mutate(ctx, issueID, "Failed to update issue", func(issue *models.Issue) error {
		now := l.now()
		if v := nonBlank(in.Title); v != nil {
			issue.Title = *v
		}
		if v := nonBlank(in.Description); v != nil {
			issue.Description = *v
		}
		if v := nonBlank(in.IssueType); v != nil {
			issue.IssueType = *v
		}
		if priority != nil {
			issue.Priority = *priority
		}
		if v := nonBlank(in.Address); v != nil {
			issue.Address = v
		}
		if status != nil {
			issue.ApplyStatus(*status, nil, now)
		}
		if v := nonBlank(in.AssignedTo); v != nil {
			issue.AssignedTo = v
		}
		issue.UpdatedAt = now.UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if status != nil && previous != issue.Status {
		notifyStatusChanged(ctx, l.notifier, issue)
	}
	return issue, nil
}

// mutate loads, changes and saves one issue inside a transaction. It returns
// the saved issue and the status it had before the change.
func (l *IssueLifecycle) mutate(ctx context.Context, issueID int64, failure string, apply func(*models.Issue) error) (*models.Issue, string, error) {
	var (
		saved    *models.Issue
		previous string
	)
	err := l.store.RunInTransaction(ctx, func(ctx context.Context) error {
		issue, err := l.store.FindIssue(ctx, issueID)
		if err != nil {
			if errors.Is(err, models.ErrRecordNotFound) {
				return notFound("Issue not found")
			}
			return err
		}
		previous = issue.Status
		if err := apply(issue); err != nil {
			return err
		}
		if err := l.store.SaveIssue(ctx, issue); err != nil {
			return err
		}
		saved = issue
		return nil
	})
	if err != nil {
		var de *DomainError
		if !errors.As(err, &de) {
			slog.Error(failure, "error", err, "issue_id", issueID)
		}
		return nil, "", passThrough(err, updateFailed(failure))
	}
	return saved, previous, nil
}

func checkStatus(status string) error {
	if status == "" {
		return validationError("Status is required")
	}
	if !models.ValidStatus(status) {
		return validationError("Invalid status: %s", status)
	}
	return nil
}

// nonBlank trims s and returns nil when nothing is left.
func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
