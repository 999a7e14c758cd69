package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"civicreport-be/models"

	"go.uber.org/mock/gomock"
)

var day1 = time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

func newLifecycle(t *testing.T, store *memStore) (*IssueLifecycle, *MockNotifier) {
	t.Helper()
	notifier := NewMockNotifier(gomock.NewController(t))
	l := NewIssueLifecycle(store, notifier)
	l.now = fixedClock(day1)
	return l, notifier
}

func TestUpdateStatusStampsResolutionOnce(t *testing.T) {
	store := newMemStore()
	issue := store.addIssue(models.Issue{Title: "Broken light"})
	l, notifier := newLifecycle(t, store)
	notifier.EXPECT().StatusChanged(gomock.Any(), gomock.Any()).Return(nil).Times(3)
	ctx := context.Background()

	got, err := l.UpdateStatus(ctx, sysAdmin, issue.ID, "resolved", nil)
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	want := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if got.ActualResolutionDate == nil || !got.ActualResolutionDate.Equal(want) {
		t.Fatalf("resolution date = %v, want %v", got.ActualResolutionDate, want)
	}

	l.now = fixedClock(day1.AddDate(0, 0, 5))
	if _, err := l.UpdateStatus(ctx, sysAdmin, issue.ID, "in_progress", nil); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	got, err = l.UpdateStatus(ctx, sysAdmin, issue.ID, "resolved", nil)
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if !got.ActualResolutionDate.Equal(want) {
		t.Errorf("resolution date moved to %v", got.ActualResolutionDate)
	}

	stored, _ := store.issue(issue.ID)
	if stored.Status != "resolved" || !stored.ActualResolutionDate.Equal(want) {
		t.Errorf("stored issue = %+v", stored)
	}
}

func TestUpdateStatusSameStatusDoesNotNotify(t *testing.T) {
	store := newMemStore()
	issue := store.addIssue(models.Issue{Status: "verified"})
	l, _ := newLifecycle(t, store)

	got, err := l.UpdateStatus(context.Background(), sysAdmin, issue.ID, "verified", ptr("Roads Dept"))
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if got.AssignedTo == nil || *got.AssignedTo != "Roads Dept" {
		t.Errorf("AssignedTo = %v", got.AssignedTo)
	}
	if !got.UpdatedAt.Equal(day1) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, day1)
	}
}

func TestUpdateStatusNotifierFailureIsIgnored(t *testing.T) {
	store := newMemStore()
	issue := store.addIssue(models.Issue{})
	l, notifier := newLifecycle(t, store)
	notifier.EXPECT().StatusChanged(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	if _, err := l.UpdateStatus(context.Background(), sysAdmin, issue.ID, "verified", nil); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	stored, _ := store.issue(issue.ID)
	if stored.Status != "verified" {
		t.Errorf("status = %q, want verified", stored.Status)
	}
}

func TestUpdateStatusErrors(t *testing.T) {
	store := newMemStore()
	issue := store.addIssue(models.Issue{})
	l, _ := newLifecycle(t, store)
	ctx := context.Background()

	_, err := l.UpdateStatus(ctx, residentOf(1), issue.ID, "verified", nil)
	wantForbidden(t, err)

	_, err = l.UpdateStatus(ctx, sysAdmin, issue.ID, "bogus", nil)
	wantDomainError(t, err, ErrValidation, http.StatusBadRequest, "Invalid status: bogus")

	_, err = l.UpdateStatus(ctx, sysAdmin, issue.ID, "  ", nil)
	wantDomainError(t, err, ErrValidation, http.StatusBadRequest, "Status is required")

	_, err = l.UpdateStatus(ctx, sysAdmin, 404, "verified", nil)
	wantDomainError(t, err, ErrNotFound, http.StatusNotFound, "Issue not found")

	store.saveIssueErr = errors.New("write conflict")
	_, err = l.UpdateStatus(ctx, sysAdmin, issue.ID, "verified", nil)
	wantDomainError(t, err, ErrUpdateFailed, http.StatusInternalServerError, "Failed to update issue status")

	stored, _ := store.issue(issue.ID)
	if stored.Status != "submitted" {
		t.Errorf("status = %q after failed update", stored.Status)
	}
}

func TestUpdateStatusByUserWithAdminRole(t *testing.T) {
	store := newMemStore()
	issue := store.addIssue(models.Issue{})
	l, notifier := newLifecycle(t, store)
	notifier.EXPECT().StatusChanged(gomock.Any(), gomock.Any()).Return(nil)

	p := Principal{Kind: PrincipalResident, ID: 7, Role: models.RoleAdmin}
	if _, err := l.UpdateStatus(context.Background(), p, issue.ID, "closed", nil); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
}

func TestAssign(t *testing.T) {
	store := newMemStore()
	issue := store.addIssue(models.Issue{})
	l, notifier := newLifecycle(t, store)
	notifier.EXPECT().AdminAction(gomock.Any(), gomock.Any(), ActionAssigned).Return(nil)

	got, err := l.Assign(context.Background(), sysAdmin, issue.ID, AssignRequest{
		AssignedTo:              " Parks ",
		Status:                  ptr("in_progress"),
		EstimatedResolutionDate: ptr("2025-04-01"),
	})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if got.AssignedTo == nil || *got.AssignedTo != "Parks" {
		t.Errorf("AssignedTo = %v", got.AssignedTo)
	}
	if got.Status != "in_progress" {
		t.Errorf("Status = %q", got.Status)
	}
	if d := models.FormatDate(got.EstimatedResolutionDate); d == nil || *d != "2025-04-01" {
		t.Errorf("EstimatedResolutionDate = %v", d)
	}
}

func TestAssignValidation(t *testing.T) {
	store := newMemStore()
	issue := store.addIssue(models.Issue{})
	l, _ := newLifecycle(t, store)
	ctx := context.Background()

	_, err := l.Assign(ctx, sysAdmin, issue.ID, AssignRequest{AssignedTo: " "})
	wantDomainError(t, err, ErrValidation, http.StatusBadRequest, "Assignment target is required")

	_, err = l.Assign(ctx, sysAdmin, issue.ID, AssignRequest{AssignedTo: "Parks", EstimatedResolutionDate: ptr("04/01/2025")})
	wantDomainError(t, err, ErrValidation, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")

	_, err = l.Assign(ctx, sysAdmin, issue.ID, AssignRequest{AssignedTo: "Parks", Status: ptr("done")})
	wantDomainError(t, err, ErrValidation, http.StatusBadRequest, "Invalid status: done")

	_, err = l.Assign(ctx, residentOf(1), issue.ID, AssignRequest{AssignedTo: "Parks"})
	wantForbidden(t, err)
}

func TestUpdate(t *testing.T) {
	store := newMemStore()
	issue := store.addIssue(models.Issue{Title: "Old title", Priority: "low", Status: "verified"})
	l, notifier := newLifecycle(t, store)
	ctx := context.Background()

	// unchanged status: no event
	got, err := l.Update(ctx, sysAdmin, issue.ID, IssueUpdate{
		Title:    ptr("New title"),
		Priority: ptr("urgent"),
		Status:   ptr("verified"),
		Address:  ptr(""),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Title != "New title" || got.Priority != "urgent" || got.Address != nil {
		t.Errorf("Update() = %+v", got)
	}

	notifier.EXPECT().StatusChanged(gomock.Any(), gomock.Any()).Return(nil)
	got, err = l.Update(ctx, sysAdmin, issue.ID, IssueUpdate{Status: ptr("resolved")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.ActualResolutionDate == nil {
		t.Error("resolution date not stamped")
	}

	_, err = l.Update(ctx, sysAdmin, issue.ID, IssueUpdate{Priority: ptr("critical")})
	wantDomainError(t, err, ErrValidation, http.StatusBadRequest, "Invalid priority level")
}
