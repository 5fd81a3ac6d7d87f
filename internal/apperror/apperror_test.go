package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := Validation("quantity", "must be greater than 0")
	if !errors.Is(err, ErrValidation) {
		t.Error("validation error does not match ErrValidation")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("validation error matches ErrNotFound")
	}

	wrapped := fmt.Errorf("create batch: %w", InvalidTransition("PLANNED", "RELEASED"))
	if !errors.Is(wrapped, ErrInvalidTransition) {
		t.Error("wrapped transition error lost its code")
	}
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", WithMetadata(CodeInsufficientStock, "short", map[string]string{"Available": "2"}))
	appErr, ok := As(wrapped)
	if !ok {
		t.Fatal("As() failed on wrapped error")
	}
	if appErr.Code != CodeInsufficientStock || appErr.Metadata["Available"] != "2" {
		t.Errorf("appErr = %+v", appErr)
	}

	if _, ok := As(errors.New("plain")); ok {
		t.Error("As() succeeded on a plain error")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		code Code
		want Kind
	}{
		{CodeValidation, KindValidation},
		{CodeAllocationMismatch, KindValidation},
		{CodeMissingPhLevel, KindValidation},
		{CodeSameLocation, KindValidation},
		{CodeInsufficientStock, KindValidation},
		{CodeInvalidTransition, KindBusinessRule},
		{CodeBatchNotEditable, KindBusinessRule},
		{CodeBatchNotDeletable, KindBusinessRule},
		{CodeBatchReleased, KindBusinessRule},
		{CodeUnauthorized, KindUnauthorized},
		{CodeNotFound, KindNotFound},
		{CodeConcurrencyConflict, KindTransient},
		{Code("SOMETHING_ELSE"), KindInternal},
	}
	for _, tt := range tests {
		if got := KindOf(tt.code); got != tt.want {
			t.Errorf("KindOf(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestInvalidTransitionNamesBothStates(t *testing.T) {
	err := InvalidTransition("RELEASED", "HOLD")
	if err.Message != "batch status transition not allowed: RELEASED -> HOLD" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Metadata["CurrentStatus"] != "RELEASED" || err.Metadata["RequestedStatus"] != "HOLD" {
		t.Errorf("Metadata = %v", err.Metadata)
	}
}
