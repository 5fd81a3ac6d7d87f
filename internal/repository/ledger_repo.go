package repository

import (
	"go-production-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionFilter narrows ledger listings.
type TransactionFilter struct {
	ProductID   *uuid.UUID
	LocationID  *uuid.UUID
	Type        *model.TransactionType
	ReferenceID *uuid.UUID
	Limit       int
}

// LedgerRepository is the only write path into inventory_transactions, and it can only append.
type LedgerRepository interface {
	Append(tx *gorm.DB, entries ...*model.InventoryTransaction) error
	HasBatchCompletion(tx *gorm.DB, batchID uuid.UUID) (bool, error)
	SumQuantity(tx *gorm.DB, productID, locationID uuid.UUID) (int64, error)
	FindAll(filter TransactionFilter) ([]model.InventoryTransaction, error)
	FindByID(id uuid.UUID) (*model.InventoryTransaction, error)
}

type ledgerRepo struct {
	db *gorm.DB
}

func NewLedgerRepo(db *gorm.DB) LedgerRepository {
	return &ledgerRepo{db}
}

func (r *ledgerRepo) Append(tx *gorm.DB, entries ...*model.InventoryTransaction) error {
	if len(entries) == 0 {
		return nil
	}
	return conn(r.db, tx).Create(entries).Error
}

func (r *ledgerRepo) HasBatchCompletion(tx *gorm.DB, batchID uuid.UUID) (bool, error) {
	var count int64
	err := conn(r.db, tx).Model(&model.InventoryTransaction{}).
		Where("type = ? AND reference_id = ?", model.TxBatchCompletion, batchID).
		Count(&count).Error
	return count > 0, err
}

// SumQuantity derives the stock of one (product, location) pair inside the caller's transaction.
func (r *ledgerRepo) SumQuantity(tx *gorm.DB, productID, locationID uuid.UUID) (int64, error) {
	var total int64
	err := conn(r.db, tx).Model(&model.InventoryTransaction{}).
		Select("COALESCE(SUM(quantity_change), 0)").
		Where("product_id = ? AND location_id = ?", productID, locationID).
		Scan(&total).Error
	return total, err
}

func (r *ledgerRepo) FindAll(filter TransactionFilter) ([]model.InventoryTransaction, error) {
	var transactions []model.InventoryTransaction
	query := r.db.Preload("Product").Preload("Location").Order("created_at DESC")
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.LocationID != nil {
		query = query.Where("location_id = ?", *filter.LocationID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.ReferenceID != nil {
		query = query.Where("reference_id = ?", *filter.ReferenceID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	err := query.Find(&transactions).Error
	return transactions, err
}

func (r *ledgerRepo) FindByID(id uuid.UUID) (*model.InventoryTransaction, error) {
	var transaction model.InventoryTransaction
	if err := r.db.Preload("Product").Preload("Location").First(&transaction, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &transaction, nil
}
