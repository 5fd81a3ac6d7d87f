package service

import (
	"context"
	"errors"
	"strings"

	"go-production-inventory/internal/apperror"
	"go-production-inventory/internal/model"
	"go-production-inventory/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogService manages the reference data batches and ledger rows point at. Records are
// deactivated, never deleted, since history keeps referencing them.
type CatalogService interface {
	CreateProduct(ctx context.Context, actor Actor, product *model.Product) error
	ListProducts(ctx context.Context, includeInactive bool) ([]model.Product, error)
	DeactivateProduct(ctx context.Context, actor Actor, id uuid.UUID) error

	CreateLocation(ctx context.Context, actor Actor, location *model.Location) error
	ListLocations(ctx context.Context, includeInactive bool) ([]model.Location, error)
	DeactivateLocation(ctx context.Context, actor Actor, id uuid.UUID) error

	CreateCoPacker(ctx context.Context, actor Actor, partner *model.CoPackerPartner) error
	ListCoPackers(ctx context.Context) ([]model.CoPackerPartner, error)
}

type catalogService struct {
	deps Dependencies
}

func NewCatalogService(deps Dependencies) CatalogService {
	return &catalogService{deps: deps.withDefaults()}
}

// validationError turns the first struct validation failure into a VALIDATION_ERROR.
func validationError(data interface{}) error {
	errs := validator.ValidateStruct(data)
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	return apperror.WithMetadata(apperror.CodeValidation, "validation failed: "+first.String(),
		map[string]string{"Field": first.FailedField, "Rule": first.Tag})
}

// duplicate maps a unique-index violation on create to a validation error on field.
func duplicate(err error, field string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Validation(field, "already exists")
	}
	return err
}

func (s *catalogService) CreateProduct(ctx context.Context, actor Actor, product *model.Product) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	product.SKU = strings.TrimSpace(product.SKU)
	product.Name = strings.TrimSpace(product.Name)
	if err := validationError(product); err != nil {
		return err
	}

	if existing, err := s.deps.Repos.Products.FindBySKU(product.SKU); err == nil && existing != nil {
		return apperror.Validation("sku", "already exists")
	}

	product.ID = uuid.Nil
	product.IsActive = true
	product.CreatedBy = actor.UserID
	product.UpdatedBy = actor.UserID
	if err := s.deps.Repos.Products.Create(product); err != nil {
		return duplicate(err, "sku")
	}

	s.deps.Log.Info("product created", zap.String("product_id", product.ID.String()), zap.String("sku", product.SKU))
	return nil
}

func (s *catalogService) ListProducts(ctx context.Context, includeInactive bool) ([]model.Product, error) {
	return s.deps.Repos.Products.FindAll(includeInactive)
}

func (s *catalogService) DeactivateProduct(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if err := s.deps.Repos.Products.Deactivate(id, actor.UserID); err != nil {
		return err
	}
	s.deps.Log.Info("product deactivated", zap.String("product_id", id.String()), zap.String("actor", actor.UserID))
	return nil
}

func (s *catalogService) CreateLocation(ctx context.Context, actor Actor, location *model.Location) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	location.Name = strings.TrimSpace(location.Name)
	if err := validationError(location); err != nil {
		return err
	}

	location.ID = uuid.Nil
	location.IsActive = true
	location.CreatedBy = actor.UserID
	location.UpdatedBy = actor.UserID
	if err := s.deps.Repos.Locations.Create(location); err != nil {
		return duplicate(err, "name")
	}

	s.deps.Log.Info("location created", zap.String("location_id", location.ID.String()), zap.String("name", location.Name))
	return nil
}

func (s *catalogService) ListLocations(ctx context.Context, includeInactive bool) ([]model.Location, error) {
	return s.deps.Repos.Locations.FindAll(includeInactive)
}

func (s *catalogService) DeactivateLocation(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if err := s.deps.Repos.Locations.Deactivate(id, actor.UserID); err != nil {
		return err
	}
	s.deps.Log.Info("location deactivated", zap.String("location_id", id.String()), zap.String("actor", actor.UserID))
	return nil
}

func (s *catalogService) CreateCoPacker(ctx context.Context, actor Actor, partner *model.CoPackerPartner) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	partner.Name = strings.TrimSpace(partner.Name)
	if err := validationError(partner); err != nil {
		return err
	}

	partner.ID = uuid.Nil
	partner.IsActive = true
	partner.CreatedBy = actor.UserID
	partner.UpdatedBy = actor.UserID
	if err := s.deps.Repos.CoPackers.Create(partner); err != nil {
		return duplicate(err, "name")
	}

	s.deps.Log.Info("co-packer created", zap.String("partner_id", partner.ID.String()), zap.String("name", partner.Name))
	return nil
}

func (s *catalogService) ListCoPackers(ctx context.Context) ([]model.CoPackerPartner, error) {
	return s.deps.Repos.CoPackers.FindAll()
}
