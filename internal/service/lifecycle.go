package service

import (
	"fmt"

	"go-production-inventory/internal/apperror"
	"go-production-inventory/internal/model"
	"go-production-inventory/internal/repository"

	"gorm.io/gorm"
)

// lifecycle applies batch status changes inside a caller's transaction. Both manual
// transitions and QC-driven ones go through it, so release always emits its ledger entry.
type lifecycle struct {
	batchRepo     repository.BatchRepository
	locationRepo  repository.LocationRepository
	ledgerRepo    repository.LedgerRepository
	warehouseName string
}

func newLifecycle(batchRepo repository.BatchRepository, locationRepo repository.LocationRepository, ledgerRepo repository.LedgerRepository, warehouseName string) *lifecycle {
	if warehouseName == "" {
		warehouseName = model.DefaultMainWarehouseName
	}
	return &lifecycle{
		batchRepo:     batchRepo,
		locationRepo:  locationRepo,
		ledgerRepo:    ledgerRepo,
		warehouseName: warehouseName,
	}
}

// apply moves batch along a single edge. batch must have been read with a row lock in tx.
// The completion entry is returned when the edge released the batch.
func (l *lifecycle) apply(tx *gorm.DB, batch *model.Batch, target model.BatchStatus, actor Actor) (*model.InventoryTransaction, error) {
	next, err := batch.Status.Transition(target)
	if err != nil {
		return nil, err
	}
	if err := l.batchRepo.UpdateStatus(tx, batch, next, actor.UserID); err != nil {
		return nil, err
	}
	if next == model.BatchReleased {
		return l.release(tx, batch, actor)
	}
	return nil, nil
}

// walk applies every edge on the shortest legal path to target. Reaching the current status is
// a no-op.
func (l *lifecycle) walk(tx *gorm.DB, batch *model.Batch, target model.BatchStatus, actor Actor) (*model.InventoryTransaction, error) {
	path, err := batch.Status.PathTo(target)
	if err != nil {
		return nil, err
	}
	var completion *model.InventoryTransaction
	for _, step := range path {
		entry, err := l.apply(tx, batch, step, actor)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			completion = entry
		}
	}
	return completion, nil
}

// release books the batch's units into the main warehouse.
func (l *lifecycle) release(tx *gorm.DB, batch *model.Batch, actor Actor) (*model.InventoryTransaction, error) {
	booked, err := l.ledgerRepo.HasBatchCompletion(tx, batch.ID)
	if err != nil {
		return nil, fmt.Errorf("check batch completion: %w", err)
	}
	if booked {
		// Status said not released yet, but the ledger disagrees: another writer won.
		return nil, apperror.ErrConcurrencyConflict
	}

	warehouse, err := l.locationRepo.EnsureByName(tx, l.warehouseName, model.LocationWarehouse, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("ensure main warehouse: %w", err)
	}

	ref := batch.ID
	entry := &model.InventoryTransaction{
		ProductID:      batch.ProductID,
		LocationID:     warehouse.ID,
		Type:           model.TxBatchCompletion,
		QuantityChange: batch.TotalUnits,
		ReferenceID:    &ref,
		Notes:          fmt.Sprintf("Batch %s released", batch.BatchCode),
		CreatedBy:      actor.UserID,
	}
	if err := l.ledgerRepo.Append(tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
