package repository

import (
	"go-production-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QCTestRepository has no update or delete: QC history is append-only.
type QCTestRepository interface {
	Create(tx *gorm.DB, test *model.QCTest) error
	FindByBatch(tx *gorm.DB, batchID uuid.UUID) ([]model.QCTest, error)
}

type qcTestRepo struct {
	db *gorm.DB
}

func NewQCTestRepo(db *gorm.DB) QCTestRepository {
	return &qcTestRepo{db}
}

func (r *qcTestRepo) Create(tx *gorm.DB, test *model.QCTest) error {
	return conn(r.db, tx).Create(test).Error
}

func (r *qcTestRepo) FindByBatch(tx *gorm.DB, batchID uuid.UUID) ([]model.QCTest, error) {
	var tests []model.QCTest
	err := conn(r.db, tx).
		Where("batch_id = ?", batchID).
		Order("tested_at ASC").
		Find(&tests).Error
	return tests, err
}
