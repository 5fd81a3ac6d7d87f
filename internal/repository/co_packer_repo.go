package repository

import (
	"go-production-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CoPackerRepository interface {
	Create(partner *model.CoPackerPartner) error
	FindAll() ([]model.CoPackerPartner, error)
	FindByID(tx *gorm.DB, id uuid.UUID) (*model.CoPackerPartner, error)
}

type coPackerRepo struct {
	db *gorm.DB
}

func NewCoPackerRepo(db *gorm.DB) CoPackerRepository {
	return &coPackerRepo{db}
}

func (r *coPackerRepo) Create(partner *model.CoPackerPartner) error {
	return r.db.Create(partner).Error
}

func (r *coPackerRepo) FindAll() ([]model.CoPackerPartner, error) {
	var partners []model.CoPackerPartner
	err := r.db.Where("is_active = ?", true).Order("name ASC").Find(&partners).Error
	return partners, err
}

func (r *coPackerRepo) FindByID(tx *gorm.DB, id uuid.UUID) (*model.CoPackerPartner, error) {
	var partner model.CoPackerPartner
	if err := conn(r.db, tx).First(&partner, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &partner, nil
}
