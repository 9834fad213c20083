package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"not found", NewProfileNotFoundError("Default"), ErrProfileNotFound, true},
		{"no active profile", NewNoActiveProfileError(), ErrNoActiveProfile, true},
		{"validation", NewValidationFailure([]string{"bad"}), ErrValidationFailure, true},
		{"store", NewStoreFailure(errors.New("boom")), ErrStoreFailure, true},
		{"wrapped store", fmt.Errorf("commit: %w", NewStoreFailure(errors.New("boom"))), ErrStoreFailure, true},
		{"config", NewConfigError("bad"), ErrInvalidConfig, true},
		{"different type", NewStoreFailure(errors.New("boom")), ErrValidationFailure, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_UnwrapsInternal(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStoreFailure(cause)
	if !errors.Is(err, cause) {
		t.Error("store failure does not unwrap to its cause")
	}
}

func TestReasons(t *testing.T) {
	reasons := []string{"percentage 500% outside allowed range 30-250%"}
	err := fmt.Errorf("apply: %w", NewValidationFailure(reasons))
	got := Reasons(err)
	if len(got) != 1 || got[0] != reasons[0] {
		t.Errorf("Reasons() = %v, want %v", got, reasons)
	}
	if Reasons(errors.New("plain")) != nil {
		t.Error("Reasons() of a plain error should be nil")
	}
}
