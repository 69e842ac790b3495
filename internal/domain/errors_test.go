package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestStoreErrorMatchesCondition(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := StoreError("list trips", cause)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause should stay reachable")
	}
	if StoreError("noop", nil) != nil {
		t.Fatalf("nil error should stay nil")
	}
}

func TestBookingErrorKeepsStoreCondition(t *testing.T) {
	err := BookingError("insert booking", StoreError("insert", errors.New("boom")))
	if !errors.Is(err, ErrBookingFailed) || !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected both conditions, got %v", err)
	}
}

func TestTypedErrorHelpers(t *testing.T) {
	if !IsNotFound(NotFoundError{Resource: "trip"}) {
		t.Fatalf("IsNotFound failed")
	}
	if !IsValidation(ValidationError{Field: "date", Msg: "format YYYY-MM-DD"}) {
		t.Fatalf("IsValidation failed")
	}
	if got := (ValidationError{Field: "date", Msg: "format YYYY-MM-DD"}).Error(); got != "date: format YYYY-MM-DD" {
		t.Fatalf("unexpected message %q", got)
	}
	if !IsConflict(fmt.Errorf("add trip: %w", ConflictError{Resource: "trip"})) {
		t.Fatalf("wrapped conflict should match")
	}
	if IsConflict(errors.New("plain")) {
		t.Fatalf("plain error should not be a conflict")
	}
}
