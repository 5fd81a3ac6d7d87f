package service

import (
	"go-production-inventory/internal/model"

	"github.com/shopspring/decimal"
)

// phScale matches the qc_tests.ph_level column, numeric(4,2).
const phScale = 2

var (
	minPhLevel = decimal.Zero
	maxPhLevel = decimal.NewFromInt(14)
)

// roundPh brings a reading to the precision the store keeps.
func roundPh(ph *decimal.Decimal) *decimal.Decimal {
	if ph == nil {
		return nil
	}
	rounded := ph.Round(phScale)
	return &rounded
}

// effectivePassed applies the food-safety override: a pH reading at or above
// model.MaxSafePhLevel fails no matter what the tester reported.
func effectivePassed(testType model.QCTestType, phLevel *decimal.Decimal, passed bool) bool {
	if testType == model.QCTestPH && phLevel != nil && phLevel.GreaterThanOrEqual(model.MaxSafePhLevel) {
		return false
	}
	return passed
}

// deriveQCStatus decides where a batch goes after latest is recorded. history holds every
// test on the batch, latest included.
func deriveQCStatus(latest model.QCTest, history []model.QCTest) model.BatchStatus {
	if !latest.Passed {
		return model.BatchHold
	}

	var phPassed, visualPassed bool
	for _, t := range history {
		if !t.Passed {
			continue
		}
		switch t.TestType {
		case model.QCTestPH:
			phPassed = true
		case model.QCTestVisualTaste:
			visualPassed = true
		}
	}
	if phPassed && visualPassed {
		return model.BatchReleased
	}
	return model.BatchQCReview
}

func validQCTestType(t model.QCTestType) bool {
	return t == model.QCTestPH || t == model.QCTestVisualTaste
}

func phInRange(ph decimal.Decimal) bool {
	return ph.GreaterThanOrEqual(minPhLevel) && ph.LessThanOrEqual(maxPhLevel)
}
