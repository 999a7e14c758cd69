package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"civicreport-be/models"
)

var bulkFields = map[string]bool{
	"status":      true,
	"priority":    true,
	"assigned_to": true,
}

func invalidField(field string) *DomainError {
	return domainError(ErrInvalidField, http.StatusBadRequest, "Invalid field: "+field)
}

// BulkMutator sets the same whitelisted fields on many issues at once.
// Values are written as given: no enum checks, no resolution stamping and
// no notifications.
type BulkMutator struct {
	store LifecycleStore
	now   func() time.Time
}

func NewBulkMutator(store LifecycleStore) *BulkMutator {
	return &BulkMutator{store: store, now: time.Now}
}

// Apply returns how many of ids were found and updated. Unknown ids are skipped.
func (b *BulkMutator) Apply(ctx context.Context, p Principal, ids []int64, updates map[string]any) (int, error) {
	if err := requireAdmin(p); err != nil {
		return 0, err
	}
	if len(ids) == 0 || len(updates) == 0 {
		return 0, validationError("Issue IDs and updates are required")
	}

	fields := make([]string, 0, len(updates))
	for field := range updates {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if !bulkFields[field] {
			return 0, invalidField(field)
		}
	}
	set, err := bulkSetters(fields, updates)
	if err != nil {
		return 0, err
	}

	updated := 0
	err = b.store.RunInTransaction(ctx, func(ctx context.Context) error {
		updated = 0
		now := b.now().UTC()
		for _, id := range ids {
			issue, err := b.store.FindIssue(ctx, id)
			if errors.Is(err, models.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			for _, apply := range set {
				apply(issue)
			}
			issue.UpdatedAt = now
			if err := b.store.SaveIssue(ctx, issue); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		var de *DomainError
		if !errors.As(err, &de) {
			slog.Error("bulk update failed", "error", err, "issue_count", len(ids))
		}
		return 0, passThrough(err, internalError("Failed to bulk update issues"))
	}
	return updated, nil
}

// bulkSetters converts the raw JSON values once, before any issue is read.
// A null assigned_to clears the assignment; status and priority must be strings.
func bulkSetters(fields []string, updates map[string]any) ([]func(*models.Issue), error) {
	set := make([]func(*models.Issue), 0, len(fields))
	for _, field := range fields {
		raw := updates[field]
		if field == "assigned_to" && raw == nil {
			set = append(set, func(i *models.Issue) { i.AssignedTo = nil })
			continue
		}
		value, ok := raw.(string)
		if !ok {
			return nil, validationError("Field %s must be a string", field)
		}
		switch field {
		case "status":
			set = append(set, func(i *models.Issue) { i.Status = value })
		case "priority":
			set = append(set, func(i *models.Issue) { i.Priority = value })
		case "assigned_to":
			set = append(set, func(i *models.Issue) { i.AssignedTo = &value })
		}
	}
	return set, nil
}
