package repository

import (
	"go-production-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LocationRepository interface {
	Create(location *model.Location) error
	FindAll(includeInactive bool) ([]model.Location, error)
	FindByID(tx *gorm.DB, id uuid.UUID) (*model.Location, error)
	FindByIDs(tx *gorm.DB, ids []uuid.UUID) ([]model.Location, error)
	Deactivate(id uuid.UUID, updatedBy string) error

	// EnsureByName returns the location with the given name, creating it first if needed and
	// reactivating it if it was deactivated.
	// Concurrent callers converge on a single row through the unique name index.
	EnsureByName(tx *gorm.DB, name string, locationType model.LocationType, createdBy string) (*model.Location, error)
}

type locationRepo struct {
	db *gorm.DB
}

func NewLocationRepo(db *gorm.DB) LocationRepository {
	return &locationRepo{db}
}

func (r *locationRepo) Create(location *model.Location) error {
	return r.db.Create(location).Error
}

func (r *locationRepo) FindAll(includeInactive bool) ([]model.Location, error) {
	var locations []model.Location
	query := r.db.Order("name ASC")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&locations).Error
	return locations, err
}

func (r *locationRepo) FindByID(tx *gorm.DB, id uuid.UUID) (*model.Location, error) {
	var location model.Location
	if err := conn(r.db, tx).First(&location, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &location, nil
}

func (r *locationRepo) FindByIDs(tx *gorm.DB, ids []uuid.UUID) ([]model.Location, error) {
	var locations []model.Location
	if len(ids) == 0 {
		return locations, nil
	}
	err := conn(r.db, tx).Where("id IN ?", ids).Find(&locations).Error
	return locations, err
}

func (r *locationRepo) Deactivate(id uuid.UUID, updatedBy string) error {
	result := r.db.Model(&model.Location{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_by": updatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *locationRepo) EnsureByName(tx *gorm.DB, name string, locationType model.LocationType, createdBy string) (*model.Location, error) {
	db := conn(r.db, tx)

	candidate := &model.Location{
		Name:     name,
		Type:     locationType,
		IsActive: true,
	}
	candidate.CreatedBy = createdBy
	candidate.UpdatedBy = createdBy

	// INSERT ... ON CONFLICT (name) DO NOTHING, then read back whichever row won
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(candidate).Error; err != nil {
		return nil, err
	}

	var location model.Location
	if err := db.First(&location, "name = ?", name).Error; err != nil {
		return nil, err
	}

	// A deactivated location is brought back rather than receiving stock while hidden.
	if !location.IsActive {
		if err := db.Model(&location).Updates(map[string]interface{}{
			"is_active":  true,
			"updated_by": createdBy,
		}).Error; err != nil {
			return nil, err
		}
		location.IsActive = true
		location.UpdatedBy = createdBy
	}
	return &location, nil
}
