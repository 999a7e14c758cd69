package services

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

var sysAdmin = Principal{Kind: PrincipalAdmin, ID: 900}

func residentOf(id int64) Principal {
	return Principal{Kind: PrincipalResident, ID: id, Role: "resident"}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func ptr[T any](v T) *T {
	return &v
}

// wantDomainError fails unless err is a DomainError of the given kind, status
// and message. An empty message is not compared.
func wantDomainError(t *testing.T, err error, kind error, status int, message string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", kind)
	}
	var de *DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	if !errors.Is(err, kind) {
		t.Fatalf("kind = %v, want %v", de.Kind, kind)
	}
	if de.Status != status {
		t.Fatalf("status = %d, want %d", de.Status, status)
	}
	if message != "" && de.Message != message {
		t.Fatalf("message = %q, want %q", de.Message, message)
	}
}

func wantForbidden(t *testing.T, err error) {
	t.Helper()
	wantDomainError(t, err, ErrForbidden, http.StatusForbidden, "")
}
