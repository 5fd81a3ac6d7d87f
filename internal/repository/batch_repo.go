package repository

import (
	"time"

	"go-production-inventory/internal/apperror"
	"go-production-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BatchFilter narrows batch listings. Inactive (soft-deleted) batches are hidden unless requested.
type BatchFilter struct {
	Status          *model.BatchStatus
	ProductID       *uuid.UUID
	IncludeInactive bool
}

type BatchRepository interface {
	// Create inserts the batch together with its allocations.
	Create(tx *gorm.DB, batch *model.Batch) error
	// FindByID loads the batch row; lock takes a row lock (SELECT ... FOR UPDATE).
	FindByID(tx *gorm.DB, id uuid.UUID, lock bool) (*model.Batch, error)
	// FindDetail loads the batch with product, partner, allocations and chronological QC history.
	FindDetail(id uuid.UUID) (*model.Batch, error)
	FindAll(filter BatchFilter) ([]model.Batch, error)
	FindCodesWithPrefix(tx *gorm.DB, prefix string) ([]string, error)
	FindAllocations(tx *gorm.DB, batchID uuid.UUID) ([]model.BatchAllocation, error)

	// Conditional writes: each succeeds only when the row still carries batch.Version,
	// otherwise they return CONCURRENCY_CONFLICT.
	UpdateStatus(tx *gorm.DB, batch *model.Batch, target model.BatchStatus, updatedBy string) error
	UpdateFields(tx *gorm.DB, batch *model.Batch, fields map[string]interface{}) error
	ReplaceAllocations(tx *gorm.DB, batchID uuid.UUID, allocations []model.BatchAllocation) error
}

type batchRepo struct {
	db *gorm.DB
}

func NewBatchRepo(db *gorm.DB) BatchRepository {
	return &batchRepo{db}
}

func (r *batchRepo) Create(tx *gorm.DB, batch *model.Batch) error {
	return conn(r.db, tx).Create(batch).Error
}

func (r *batchRepo) FindByID(tx *gorm.DB, id uuid.UUID, lock bool) (*model.Batch, error) {
	var batch model.Batch
	query := conn(r.db, tx)
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.First(&batch, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &batch, nil
}

func (r *batchRepo) FindDetail(id uuid.UUID) (*model.Batch, error) {
	var batch model.Batch
	err := r.db.
		Preload("Product").
		Preload("CoPackerPartner").
		Preload("Allocations", func(db *gorm.DB) *gorm.DB { return db.Order("quantity DESC") }).
		Preload("Allocations.Location").
		Preload("QCTests", func(db *gorm.DB) *gorm.DB { return db.Order("tested_at ASC") }).
		First(&batch, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &batch, nil
}

func (r *batchRepo) FindAll(filter BatchFilter) ([]model.Batch, error) {
	var batches []model.Batch
	query := r.db.Preload("Product").Order("production_date DESC, batch_code DESC")
	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	err := query.Find(&batches).Error
	return batches, err
}

// FindCodesWithPrefix includes soft-deleted batches: their codes stay reserved.
func (r *batchRepo) FindCodesWithPrefix(tx *gorm.DB, prefix string) ([]string, error) {
	var codes []string
	err := conn(r.db, tx).Model(&model.Batch{}).
		Where("batch_code LIKE ?", prefix+"%").
		Pluck("batch_code", &codes).Error
	return codes, err
}

func (r *batchRepo) FindAllocations(tx *gorm.DB, batchID uuid.UUID) ([]model.BatchAllocation, error) {
	var allocations []model.BatchAllocation
	err := conn(r.db, tx).Where("batch_id = ?", batchID).Find(&allocations).Error
	return allocations, err
}

func (r *batchRepo) UpdateStatus(tx *gorm.DB, batch *model.Batch, target model.BatchStatus, updatedBy string) error {
	if err := r.UpdateFields(tx, batch, map[string]interface{}{
		"status":     target,
		"updated_by": updatedBy,
	}); err != nil {
		return err
	}
	batch.Status = target
	batch.UpdatedBy = updatedBy
	return nil
}

func (r *batchRepo) UpdateFields(tx *gorm.DB, batch *model.Batch, fields map[string]interface{}) error {
	updates := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		updates[k] = v
	}
	updates["version"] = gorm.Expr("version + 1")
	updates["updated_at"] = time.Now()

	result := conn(r.db, tx).Model(&model.Batch{}).
		Where("id = ? AND status = ? AND version = ?", batch.ID, batch.Status, batch.Version).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.ErrConcurrencyConflict
	}
	batch.Version++
	return nil
}

func (r *batchRepo) ReplaceAllocations(tx *gorm.DB, batchID uuid.UUID, allocations []model.BatchAllocation) error {
	db := conn(r.db, tx)
	if err := db.Where("batch_id = ?", batchID).Delete(&model.BatchAllocation{}).Error; err != nil {
		return err
	}
	if len(allocations) == 0 {
		return nil
	}
	for i := range allocations {
		allocations[i].BatchID = batchID
	}
	return db.Create(&allocations).Error
}
