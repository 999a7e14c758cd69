package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"civicreport-be/models"
)

// VotingLedger records at most one upvote per (issue, resident). The unique
// index in the store is what guarantees it; the lookup before the insert only
// saves a round trip.
type VotingLedger struct {
	store VoteStore
	now   func() time.Time
}

func NewVotingLedger(store VoteStore) *VotingLedger {
	return &VotingLedger{store: store, now: time.Now}
}

func duplicateVote() *DomainError {
	return domainError(ErrDuplicateVote, http.StatusBadRequest, "Already upvoted this issue")
}

// AddVote records userID's vote and returns the new vote count of the issue.
func (l *VotingLedger) AddVote(ctx context.Context, issueID, userID int64) (int64, error) {
	var count int64
	err := l.store.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := l.store.FindIssue(ctx, issueID); err != nil {
			if errors.Is(err, models.ErrRecordNotFound) {
				return notFound("Issue not found")
			}
			return err
		}

		_, err := l.store.FindUpvote(ctx, issueID, userID)
		switch {
		case err == nil:
			return duplicateVote()
		case !errors.Is(err, models.ErrRecordNotFound):
			return err
		}

		upvote := &models.Upvote{IssueID: issueID, UserID: userID, CreatedAt: l.now().UTC()}
		if err := l.store.InsertUpvote(ctx, upvote); err != nil {
			if errors.Is(err, models.ErrDuplicateKey) {
				return duplicateVote()
			}
			return err
		}

		count, err = l.store.CountUpvotes(ctx, issueID)
		return err
	})
	if err != nil {
		// A concurrent insert can also surface as a commit-time duplicate.
		if errors.Is(err, models.ErrDuplicateKey) {
			return 0, duplicateVote()
		}
		var de *DomainError
		if !errors.As(err, &de) {
			slog.Error("failed to upvote issue", "error", err, "issue_id", issueID, "user_id", userID)
		}
		return 0, passThrough(err, internalError("Failed to upvote issue"))
	}
	return count, nil
}

// RemoveVote deletes userID's vote on the issue.
func (l *VotingLedger) RemoveVote(ctx context.Context, issueID, userID int64) error {
	err := l.store.RunInTransaction(ctx, func(ctx context.Context) error {
		upvote, err := l.store.FindUpvote(ctx, issueID, userID)
		if err != nil {
			if errors.Is(err, models.ErrRecordNotFound) {
				return notFound("Upvote not found")
			}
			return err
		}
		return l.store.DeleteUpvote(ctx, upvote.ID)
	})
	if err != nil {
		var de *DomainError
		if !errors.As(err, &de) {
			slog.Error("failed to remove upvote", "error", err, "issue_id", issueID, "user_id", userID)
		}
		return passThrough(err, internalError("Failed to remove upvote"))
	}
	return nil
}

// HasVoted reports whether userID has an upvote on the issue.
func (l *VotingLedger) HasVoted(ctx context.Context, issueID, userID int64) (bool, error) {
	_, err := l.store.FindUpvote(ctx, issueID, userID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, models.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// Count returns the number of upvotes on the issue.
func (l *VotingLedger) Count(ctx context.Context, issueID int64) (int64, error) {
	return l.store.CountUpvotes(ctx, issueID)
}
