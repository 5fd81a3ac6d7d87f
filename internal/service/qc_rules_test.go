package service

import (
	"testing"

	"go-production-inventory/internal/model"

	"github.com/shopspring/decimal"
)

func ph(value string) *decimal.Decimal {
	d := decimal.RequireFromString(value)
	return &d
}

func TestEffectivePassed(t *testing.T) {
	tests := []struct {
		name     string
		testType model.QCTestType
		phLevel  *decimal.Decimal
		passed   bool
		want     bool
	}{
		{"safe ph passes", model.QCTestPH, ph("4.2"), true, true},
		{"just under threshold", model.QCTestPH, ph("4.59"), true, true},
		{"threshold forces fail", model.QCTestPH, ph("4.6"), true, false},
		{"high ph forces fail", model.QCTestPH, ph("7.0"), true, false},
		{"tester fail kept", model.QCTestPH, ph("3.9"), false, false},
		{"visual pass", model.QCTestVisualTaste, nil, true, true},
		{"visual fail", model.QCTestVisualTaste, nil, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := effectivePassed(tt.testType, tt.phLevel, tt.passed); got != tt.want {
				t.Errorf("effectivePassed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoundPh(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		want       string
		wantPassed bool
	}{
		{"two places unchanged", "4.25", "4.25", true},
		{"rounds up onto threshold", "4.595", "4.6", false},
		{"rounds down below threshold", "4.594", "4.59", true},
		{"whole number", "7", "7", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundPh(ph(tt.in))
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("roundPh(%s) = %s, want %s", tt.in, got, tt.want)
			}
			if passed := effectivePassed(model.QCTestPH, got, true); passed != tt.wantPassed {
				t.Errorf("effectivePassed(%s) = %v, want %v", got, passed, tt.wantPassed)
			}
		})
	}

	if roundPh(nil) != nil {
		t.Error("roundPh(nil) should stay nil")
	}
}

func TestDeriveQCStatus(t *testing.T) {
	phPass := model.QCTest{TestType: model.QCTestPH, Passed: true}
	phFail := model.QCTest{TestType: model.QCTestPH, Passed: false}
	visualPass := model.QCTest{TestType: model.QCTestVisualTaste, Passed: true}
	visualFail := model.QCTest{TestType: model.QCTestVisualTaste, Passed: false}

	tests := []struct {
		name    string
		latest  model.QCTest
		history []model.QCTest
		want    model.BatchStatus
	}{
		{"latest failure holds", phFail, []model.QCTest{visualPass, phFail}, model.BatchHold},
		{"single pass stays in review", phPass, []model.QCTest{phPass}, model.BatchQCReview},
		{"both types passed releases", visualPass, []model.QCTest{phPass, visualPass}, model.BatchReleased},
		{"earlier failure does not block release", visualPass, []model.QCTest{phFail, phPass, visualFail, visualPass}, model.BatchReleased},
		{"two passes of one type stay in review", phPass, []model.QCTest{phPass, phPass}, model.BatchQCReview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deriveQCStatus(tt.latest, tt.history); got != tt.want {
				t.Errorf("deriveQCStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}
