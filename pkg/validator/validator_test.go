package validator

import (
	"testing"

	"github.com/google/uuid"
)

type sample struct {
	ProductID uuid.UUID `validate:"uuid_required"`
	Quantity  int       `validate:"gt=0"`
	Name      string    `validate:"required"`
}

func TestValidateStruct(t *testing.T) {
	if errs := ValidateStruct(&sample{ProductID: uuid.New(), Quantity: 1, Name: "x"}); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}

	errs := ValidateStruct(&sample{})
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %d", len(errs))
	}

	got := map[string]string{}
	for _, e := range errs {
		got[e.FailedField] = e.Tag
	}
	if got["ProductID"] != "uuid_required" {
		t.Errorf("expected ProductID to fail uuid_required, got %q", got["ProductID"])
	}
	if got["Quantity"] != "gt" {
		t.Errorf("expected Quantity to fail gt, got %q", got["Quantity"])
	}
	if got["Name"] != "required" {
		t.Errorf("expected Name to fail required, got %q", got["Name"])
	}
}
