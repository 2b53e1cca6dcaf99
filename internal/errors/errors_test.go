package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestAppError(t *testing.T) {
	err := New("TEST_001", "test error")

	if err.Code != "TEST_001" {
		t.Errorf("expected code TEST_001, got %s", err.Code)
	}
	if err.Message != "test error" {
		t.Errorf("expected message 'test error', got %s", err.Message)
	}
}

func TestAppErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := New("TEST_001", "test error", cause)

	if err.Cause != cause {
		t.Errorf("expected cause to be set")
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "underlying error") {
		t.Errorf("expected error string to contain cause, got %s", errStr)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := New("TEST_001", "test error", cause)

	if err.Unwrap() != cause {
		t.Errorf("expected unwrap to return cause")
	}
}

func TestIsAppError(t *testing.T) {
	appErr := New("TEST_001", "test error")
	stdErr := fmt.Errorf("standard error")

	if !IsAppError(appErr) {
		t.Error("expected IsAppError to return true for AppError")
	}
	if IsAppError(stdErr) {
		t.Error("expected IsAppError to return false for standard error")
	}
}

func TestGetCode(t *testing.T) {
	appErr := New("TEST_001", "test error")
	stdErr := fmt.Errorf("standard error")

	if GetCode(appErr) != "TEST_001" {
		t.Errorf("expected TEST_001, got %s", GetCode(appErr))
	}
	if GetCode(stdErr) != "UNKNOWN" {
		t.Errorf("expected UNKNOWN, got %s", GetCode(stdErr))
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(ErrNameRequired) {
		t.Error("expected VAL_001 to be a validation error")
	}
	if !IsValidation(ErrPhoneRequired) {
		t.Error("expected VAL_003 to be a validation error")
	}
	if IsValidation(ErrRemoteSync) {
		t.Error("expected SYNC_001 not to be a validation error")
	}
	if IsValidation(fmt.Errorf("plain")) {
		t.Error("expected plain errors not to be validation errors")
	}
}

func TestIsSync(t *testing.T) {
	if !IsSync(ErrRemoteSync) {
		t.Error("expected SYNC_001 to be a sync error")
	}
	if IsSync(ErrDaysRequired) {
		t.Error("expected VAL_002 not to be a sync error")
	}

	wrapped := Wrap(fmt.Errorf("connection refused"), "SYNC_001", "toggle not persisted")
	if !IsSync(wrapped) {
		t.Error("expected wrapped SYNC_001 to be a sync error")
	}
}
