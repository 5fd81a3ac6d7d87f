package service

import (
	"context"
	"fmt"
	"strings"

	"go-production-inventory/internal/apperror"
	"go-production-inventory/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SubmitTestInput struct {
	Type    model.QCTestType
	PhLevel *decimal.Decimal
	Passed  bool
	Notes   string
}

// QCResult is the recorded test and the batch as it stands afterwards.
type QCResult struct {
	Test     model.QCTest `json:"test"`
	Batch    model.Batch  `json:"batch"`
	Released bool         `json:"released"`
}

type QCService interface {
	SubmitTest(ctx context.Context, actor Actor, batchID uuid.UUID, input SubmitTestInput) (*QCResult, error)
	ListTests(ctx context.Context, batchID uuid.UUID) ([]model.QCTest, error)
}

type qcService struct {
	deps      Dependencies
	lifecycle *lifecycle
}

func NewQCService(deps Dependencies) QCService {
	deps = deps.withDefaults()
	return &qcService{
		deps:      deps,
		lifecycle: newLifecycle(deps.Repos.Batches, deps.Repos.Locations, deps.Repos.Ledger, deps.MainWarehouseName),
	}
}

func validateSubmitTest(input SubmitTestInput) error {
	if !validQCTestType(input.Type) {
		return apperror.Validation("test_type", "must be one of PH VISUAL_TASTE")
	}
	if input.Type == model.QCTestPH {
		if input.PhLevel == nil {
			return apperror.ErrMissingPhLevel
		}
		if !phInRange(*input.PhLevel) {
			return apperror.Validation("ph_level", "must be between 0 and 14")
		}
		return nil
	}
	if input.PhLevel != nil {
		return apperror.Validation("ph_level", "is only allowed for PH tests")
	}
	return nil
}

func (s *qcService) SubmitTest(ctx context.Context, actor Actor, batchID uuid.UUID, input SubmitTestInput) (*QCResult, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	input.PhLevel = roundPh(input.PhLevel)
	if err := validateSubmitTest(input); err != nil {
		return nil, err
	}

	var result *QCResult
	var completion *model.InventoryTransaction
	err := transact(ctx, s.deps.DB, func(tx *gorm.DB) error {
		batch, err := s.deps.Repos.Batches.FindByID(tx, batchID, true)
		if err != nil {
			return err
		}
		if !batch.IsActive {
			return apperror.ErrNotFound
		}
		switch batch.Status {
		case model.BatchReleased:
			return apperror.ErrBatchReleased
		case model.BatchPlanned:
			// Production has not started, there is nothing to test yet.
			return apperror.InvalidTransition(string(batch.Status), string(model.BatchQCReview))
		}

		test := &model.QCTest{
			BatchID:  batch.ID,
			TestType: input.Type,
			PhLevel:  input.PhLevel,
			Passed:   effectivePassed(input.Type, input.PhLevel, input.Passed),
			Notes:    strings.TrimSpace(input.Notes),
			TestedBy: actor.UserID,
			TestedAt: s.deps.Now(),
		}
		if err := s.deps.Repos.QCTests.Create(tx, test); err != nil {
			return err
		}

		history, err := s.deps.Repos.QCTests.FindByBatch(tx, batch.ID)
		if err != nil {
			return err
		}

		entry, err := s.lifecycle.walk(tx, batch, deriveQCStatus(*test, history), actor)
		if err != nil {
			return err
		}

		completion = entry
		result = &QCResult{Test: *test, Batch: *batch, Released: entry != nil}
		return nil
	})
	if err != nil {
		logFailure(s.deps.Log, "submit qc test", batchID, actor, err)
		return nil, err
	}

	batch := &result.Batch
	s.deps.Log.Info("qc test recorded",
		zap.String("batch_id", batch.ID.String()),
		zap.String("test_type", string(result.Test.TestType)),
		zap.Bool("passed", result.Test.Passed),
		zap.String("status", string(batch.Status)),
		zap.String("actor", actor.UserID))

	verdict := "failed"
	if result.Test.Passed {
		verdict = "passed"
	}
	s.deps.Events.Publish(batchEvent("qc_test_recorded", batch, actor,
		fmt.Sprintf("%s test %s on batch %s, now %s", result.Test.TestType, verdict, batch.BatchCode, batch.Status)))
	if completion != nil {
		s.deps.Events.Publish(releaseEvent(batch, completion, actor))
	}
	return result, nil
}

func (s *qcService) ListTests(ctx context.Context, batchID uuid.UUID) ([]model.QCTest, error) {
	if _, err := s.deps.Repos.Batches.FindByID(nil, batchID, false); err != nil {
		return nil, err
	}
	return s.deps.Repos.QCTests.FindByBatch(nil, batchID)
}
