package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-production-inventory/internal/apperror"
	"go-production-inventory/internal/model"
	"go-production-inventory/internal/repository"
	"go-production-inventory/internal/ws"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateBatchInput struct {
	ProductID            uuid.UUID
	ProductionDate       time.Time
	Source               model.ProductionSource
	TotalUnits           int
	CoPackerPartnerID    *uuid.UUID
	CoPackerLotNumber    string
	CoPackerReceivedDate *time.Time
	Notes                string
	Allocations          []AllocationInput
}

// EditBatchInput carries only the fields being changed. A nil Allocations leaves the
// existing set alone; a non-nil empty slice clears it.
type EditBatchInput struct {
	TotalUnits     *int
	Notes          *string
	ProductionDate *time.Time
	Allocations    *[]AllocationInput
}

type BatchService interface {
	CreateBatch(ctx context.Context, actor Actor, input CreateBatchInput) (*model.Batch, error)
	GetBatch(ctx context.Context, id uuid.UUID) (*model.Batch, error)
	ListBatches(ctx context.Context, filter repository.BatchFilter) ([]model.Batch, error)
	Transition(ctx context.Context, actor Actor, id uuid.UUID, target model.BatchStatus) (*model.Batch, error)
	EditBatch(ctx context.Context, actor Actor, id uuid.UUID, input EditBatchInput) (*model.Batch, error)
	SoftDeleteBatch(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*model.Batch, error)
}

type batchService struct {
	deps      Dependencies
	lifecycle *lifecycle
}

func NewBatchService(deps Dependencies) BatchService {
	deps = deps.withDefaults()
	return &batchService{
		deps:      deps,
		lifecycle: newLifecycle(deps.Repos.Batches, deps.Repos.Locations, deps.Repos.Ledger, deps.MainWarehouseName),
	}
}

const batchCodeDateLayout = "20060102"

func batchCodePrefix(date time.Time) string {
	return "B-" + date.Format(batchCodeDateLayout) + "-"
}

// nextBatchCode returns the code following the highest same-day sequence in existing.
func nextBatchCode(date time.Time, existing []string) string {
	prefix := batchCodePrefix(date)
	highest := 0
	for _, code := range existing {
		n, err := strconv.Atoi(strings.TrimPrefix(code, prefix))
		if err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%02d", prefix, highest+1)
}

// dateOnly drops the clock part so production dates compare by calendar day.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validateCreateBatch(input CreateBatchInput) error {
	if input.ProductID == uuid.Nil {
		return apperror.Validation("product_id", "is required")
	}
	if input.ProductionDate.IsZero() {
		return apperror.Validation("production_date", "is required")
	}
	if input.TotalUnits <= 0 {
		return apperror.Validation("total_units", "must be greater than 0")
	}

	switch input.Source {
	case model.SourceInHouse:
		if input.CoPackerPartnerID != nil || input.CoPackerLotNumber != "" || input.CoPackerReceivedDate != nil {
			return apperror.Validation("co_packer_partner_id", "must be empty for IN_HOUSE batches")
		}
	case model.SourceCoPacker:
		if input.CoPackerPartnerID == nil || *input.CoPackerPartnerID == uuid.Nil {
			return apperror.Validation("co_packer_partner_id", "is required for CO_PACKER batches")
		}
	default:
		return apperror.Validation("production_source", "must be one of IN_HOUSE CO_PACKER")
	}

	return ValidateAllocations(input.TotalUnits, input.Allocations)
}

func (s *batchService) CreateBatch(ctx context.Context, actor Actor, input CreateBatchInput) (*model.Batch, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if err := validateCreateBatch(input); err != nil {
		return nil, err
	}

	productionDate := dateOnly(input.ProductionDate)
	var receivedDate *time.Time
	if input.CoPackerReceivedDate != nil {
		d := dateOnly(*input.CoPackerReceivedDate)
		receivedDate = &d
	}

	var batch *model.Batch
	err := transact(ctx, s.deps.DB, func(tx *gorm.DB) error {
		product, err := s.deps.Repos.Products.FindByID(tx, input.ProductID)
		if err != nil {
			return err
		}
		if !product.IsActive {
			return apperror.Validation("product_id", "must reference an active product")
		}

		if input.Source == model.SourceCoPacker {
			partner, err := s.deps.Repos.CoPackers.FindByID(tx, *input.CoPackerPartnerID)
			if err != nil {
				return err
			}
			if !partner.IsActive {
				return apperror.Validation("co_packer_partner_id", "must reference an active partner")
			}
		}

		if err := s.checkLocations(tx, input.Allocations); err != nil {
			return err
		}

		codes, err := s.deps.Repos.Batches.FindCodesWithPrefix(tx, batchCodePrefix(productionDate))
		if err != nil {
			return err
		}

		b := &model.Batch{
			BatchCode:            nextBatchCode(productionDate, codes),
			ProductID:            input.ProductID,
			ProductionDate:       productionDate,
			Source:               input.Source,
			CoPackerPartnerID:    input.CoPackerPartnerID,
			CoPackerLotNumber:    input.CoPackerLotNumber,
			CoPackerReceivedDate: receivedDate,
			TotalUnits:           input.TotalUnits,
			Notes:                input.Notes,
			Status:               model.BatchPlanned,
			Version:              1,
			IsActive:             true,
			Allocations:          toAllocationModels(input.Allocations),
		}
		b.CreatedBy = actor.UserID
		b.UpdatedBy = actor.UserID

		if err := s.deps.Repos.Batches.Create(tx, b); err != nil {
			return err
		}
		batch = b
		return nil
	})
	if err != nil {
		s.logFailure("create batch", uuid.Nil, actor, err)
		return nil, err
	}

	s.deps.Log.Info("batch created",
		zap.String("batch_id", batch.ID.String()),
		zap.String("batch_code", batch.BatchCode),
		zap.Int("total_units", batch.TotalUnits),
		zap.String("actor", actor.UserID))
	s.deps.Events.Publish(batchEvent("batch_created", batch, actor,
		fmt.Sprintf("Batch %s planned (%d units)", batch.BatchCode, batch.TotalUnits)))
	return batch, nil
}

// checkLocations verifies every allocation targets an existing, active location.
func (s *batchService) checkLocations(tx *gorm.DB, allocations []AllocationInput) error {
	if len(allocations) == 0 {
		return nil
	}
	locations, err := s.deps.Repos.Locations.FindByIDs(tx, allocationLocationIDs(allocations))
	if err != nil {
		return err
	}
	if len(locations) != len(allocations) {
		return apperror.ErrNotFound
	}
	for _, l := range locations {
		if !l.IsActive {
			return apperror.WithMetadata(apperror.CodeValidation,
				fmt.Sprintf("location '%s' is inactive", l.Name),
				map[string]string{"Field": "allocations", "LocationID": l.ID.String()})
		}
	}
	return nil
}

func toAllocationModels(allocations []AllocationInput) []model.BatchAllocation {
	if len(allocations) == 0 {
		return nil
	}
	out := make([]model.BatchAllocation, 0, len(allocations))
	for _, a := range allocations {
		out = append(out, model.BatchAllocation{LocationID: a.LocationID, Quantity: a.Quantity})
	}
	return out
}

func (s *batchService) GetBatch(ctx context.Context, id uuid.UUID) (*model.Batch, error) {
	return s.deps.Repos.Batches.FindDetail(id)
}

func (s *batchService) ListBatches(ctx context.Context, filter repository.BatchFilter) ([]model.Batch, error) {
	return s.deps.Repos.Batches.FindAll(filter)
}

// lockActive reads the batch for update. Soft-deleted batches are invisible to writes.
func (s *batchService) lockActive(tx *gorm.DB, id uuid.UUID) (*model.Batch, error) {
	batch, err := s.deps.Repos.Batches.FindByID(tx, id, true)
	if err != nil {
		return nil, err
	}
	if !batch.IsActive {
		return nil, apperror.ErrNotFound
	}
	return batch, nil
}

func (s *batchService) Transition(ctx context.Context, actor Actor, id uuid.UUID, target model.BatchStatus) (*model.Batch, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	var batch *model.Batch
	var from model.BatchStatus
	var completion *model.InventoryTransaction
	err := transact(ctx, s.deps.DB, func(tx *gorm.DB) error {
		b, err := s.lockActive(tx, id)
		if err != nil {
			return err
		}
		from = b.Status
		entry, err := s.lifecycle.apply(tx, b, target, actor)
		if err != nil {
			return err
		}
		batch, completion = b, entry
		return nil
	})
	if err != nil {
		s.logFailure("transition batch", id, actor, err)
		return nil, err
	}

	s.deps.Log.Info("batch transitioned",
		zap.String("batch_id", batch.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(batch.Status)),
		zap.String("actor", actor.UserID))
	s.deps.Events.Publish(batchEvent("batch_transitioned", batch, actor,
		fmt.Sprintf("Batch %s moved from %s to %s", batch.BatchCode, from, batch.Status)))
	if completion != nil {
		s.deps.Events.Publish(releaseEvent(batch, completion, actor))
	}
	return batch, nil
}

func (s *batchService) EditBatch(ctx context.Context, actor Actor, id uuid.UUID, input EditBatchInput) (*model.Batch, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if input.TotalUnits != nil && *input.TotalUnits <= 0 {
		return nil, apperror.Validation("total_units", "must be greater than 0")
	}

	var batch *model.Batch
	err := transact(ctx, s.deps.DB, func(tx *gorm.DB) error {
		b, err := s.lockActive(tx, id)
		if err != nil {
			return err
		}
		if !b.Status.IsMutable() {
			return apperror.WithMetadata(apperror.CodeBatchNotEditable,
				fmt.Sprintf("batch %s is %s and can no longer be edited", b.BatchCode, b.Status),
				map[string]string{"CurrentStatus": string(b.Status)})
		}

		fields := map[string]interface{}{"updated_by": actor.UserID}
		totalUnits := b.TotalUnits
		if input.TotalUnits != nil {
			totalUnits = *input.TotalUnits
			fields["total_units"] = totalUnits
		}
		if input.Notes != nil {
			fields["notes"] = *input.Notes
		}
		if input.ProductionDate != nil {
			fields["production_date"] = dateOnly(*input.ProductionDate)
		}

		if input.Allocations != nil {
			if err := ValidateAllocations(totalUnits, *input.Allocations); err != nil {
				return err
			}
			if err := s.checkLocations(tx, *input.Allocations); err != nil {
				return err
			}
			if err := s.deps.Repos.Batches.ReplaceAllocations(tx, b.ID, toAllocationModels(*input.Allocations)); err != nil {
				return err
			}
		} else if totalUnits != b.TotalUnits {
			// Existing allocations must still add up to the new total.
			current, err := s.deps.Repos.Batches.FindAllocations(tx, b.ID)
			if err != nil {
				return err
			}
			if err := ValidateAllocations(totalUnits, fromAllocationModels(current)); err != nil {
				return err
			}
		}

		if err := s.deps.Repos.Batches.UpdateFields(tx, b, fields); err != nil {
			return err
		}
		batch = b
		return nil
	})
	if err != nil {
		s.logFailure("edit batch", id, actor, err)
		return nil, err
	}

	updated, err := s.deps.Repos.Batches.FindDetail(batch.ID)
	if err != nil {
		return nil, err
	}
	s.deps.Log.Info("batch edited", zap.String("batch_id", updated.ID.String()), zap.String("actor", actor.UserID))
	s.deps.Events.Publish(batchEvent("batch_updated", updated, actor,
		fmt.Sprintf("Batch %s updated", updated.BatchCode)))
	return updated, nil
}

func fromAllocationModels(allocations []model.BatchAllocation) []AllocationInput {
	out := make([]AllocationInput, 0, len(allocations))
	for _, a := range allocations {
		out = append(out, AllocationInput{LocationID: a.LocationID, Quantity: a.Quantity})
	}
	return out
}

func (s *batchService) SoftDeleteBatch(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*model.Batch, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.Validation("reason", "is required")
	}

	var batch *model.Batch
	err := transact(ctx, s.deps.DB, func(tx *gorm.DB) error {
		b, err := s.lockActive(tx, id)
		if err != nil {
			return err
		}
		if !b.Status.IsMutable() {
			return apperror.WithMetadata(apperror.CodeBatchNotDeletable,
				fmt.Sprintf("batch %s is %s and can no longer be deleted", b.BatchCode, b.Status),
				map[string]string{"CurrentStatus": string(b.Status)})
		}

		deletedAt := s.deps.Now()
		if err := s.deps.Repos.Batches.UpdateFields(tx, b, map[string]interface{}{
			"is_active":      false,
			"deleted_at":     deletedAt,
			"deleted_reason": reason,
			"updated_by":     actor.UserID,
		}); err != nil {
			return err
		}
		b.IsActive = false
		b.DeletedAt = &deletedAt
		b.DeletedReason = reason
		batch = b
		return nil
	})
	if err != nil {
		s.logFailure("delete batch", id, actor, err)
		return nil, err
	}

	s.deps.Log.Info("batch deleted",
		zap.String("batch_id", batch.ID.String()),
		zap.String("reason", reason),
		zap.String("actor", actor.UserID))
	s.deps.Events.Publish(batchEvent("batch_deleted", batch, actor,
		fmt.Sprintf("Batch %s deleted: %s", batch.BatchCode, reason)))
	return batch, nil
}

// logFailure logs unexpected failures loudly and expected rule violations quietly.
func (s *batchService) logFailure(op string, batchID uuid.UUID, actor Actor, err error) {
	logFailure(s.deps.Log, op, batchID, actor, err)
}

func logFailure(log *zap.Logger, op string, id uuid.UUID, actor Actor, err error) {
	fields := []zap.Field{zap.String("actor", actor.UserID), zap.Error(err)}
	if id != uuid.Nil {
		fields = append(fields, zap.String("id", id.String()))
	}
	if appErr, ok := apperror.As(err); ok && appErr.Kind() != apperror.KindInternal {
		log.Debug(op+" rejected", append(fields, zap.String("code", string(appErr.Code)))...)
		return
	}
	log.Error(op+" failed", fields...)
}

func releaseEvent(batch *model.Batch, completion *model.InventoryTransaction, actor Actor) ws.Event {
	return stockEvent("batch_released", []*model.InventoryTransaction{completion}, actor,
		fmt.Sprintf("Batch %s released: %d units booked into stock", batch.BatchCode, completion.QuantityChange))
}
