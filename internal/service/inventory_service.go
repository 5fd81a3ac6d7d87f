package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"go-production-inventory/internal/apperror"
	"go-production-inventory/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TransferInput struct {
	ProductID      uuid.UUID `json:"product_id" validate:"uuid_required"`
	FromLocationID uuid.UUID `json:"from_location_id" validate:"uuid_required"`
	ToLocationID   uuid.UUID `json:"to_location_id" validate:"uuid_required"`
	Quantity       int       `json:"quantity" validate:"gt=0"`
	Notes          string    `json:"notes"`
}

// maxReasonLength matches the inventory_transactions.reason column, varchar(255).
const maxReasonLength = 255

type AdjustInput struct {
	ProductID      uuid.UUID `json:"product_id" validate:"uuid_required"`
	LocationID     uuid.UUID `json:"location_id" validate:"uuid_required"`
	QuantityChange int       `json:"quantity_change" validate:"ne=0"`
	Reason         string    `json:"reason" validate:"required,max=255"`
	Notes          string    `json:"notes"`
}

// TransferResult holds both legs of a transfer. They share ReferenceID.
type TransferResult struct {
	ReferenceID uuid.UUID                  `json:"reference_id"`
	Out         model.InventoryTransaction `json:"out"`
	In          model.InventoryTransaction `json:"in"`
}

// InventoryService moves stock between locations and corrects it. Every change is a ledger
// append; nothing here updates a stock figure.
type InventoryService interface {
	Transfer(ctx context.Context, actor Actor, input TransferInput) (*TransferResult, error)
	Adjust(ctx context.Context, actor Actor, input AdjustInput) (*model.InventoryTransaction, error)
}

type inventoryService struct {
	deps Dependencies
}

func NewInventoryService(deps Dependencies) InventoryService {
	return &inventoryService{deps: deps.withDefaults()}
}

func (s *inventoryService) Transfer(ctx context.Context, actor Actor, input TransferInput) (*TransferResult, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	switch {
	case input.ProductID == uuid.Nil:
		return nil, apperror.Validation("product_id", "is required")
	case input.FromLocationID == uuid.Nil:
		return nil, apperror.Validation("from_location_id", "is required")
	case input.ToLocationID == uuid.Nil:
		return nil, apperror.Validation("to_location_id", "is required")
	case input.Quantity <= 0:
		return nil, apperror.Validation("quantity", "must be greater than 0")
	case input.FromLocationID == input.ToLocationID:
		return nil, apperror.ErrSameLocation
	}

	var result *TransferResult
	var product *model.Product
	err := transact(ctx, s.deps.DB, func(tx *gorm.DB) error {
		var err error
		product, err = s.findProduct(tx, input.ProductID)
		if err != nil {
			return err
		}
		if _, err := s.deps.Repos.Locations.FindByID(tx, input.FromLocationID); err != nil {
			return err
		}
		if _, err := s.deps.Repos.Locations.FindByID(tx, input.ToLocationID); err != nil {
			return err
		}

		if s.deps.StrictStockCheck {
			if err := s.ensureAvailable(tx, input.ProductID, input.FromLocationID, input.Quantity); err != nil {
				return err
			}
		}

		ref := uuid.New()
		notes := strings.TrimSpace(input.Notes)
		out := &model.InventoryTransaction{
			ProductID:      input.ProductID,
			LocationID:     input.FromLocationID,
			Type:           model.TxTransferOut,
			QuantityChange: -input.Quantity,
			ReferenceID:    &ref,
			Notes:          notes,
			CreatedBy:      actor.UserID,
		}
		in := &model.InventoryTransaction{
			ProductID:      input.ProductID,
			LocationID:     input.ToLocationID,
			Type:           model.TxTransferIn,
			QuantityChange: input.Quantity,
			ReferenceID:    &ref,
			Notes:          notes,
			CreatedBy:      actor.UserID,
		}
		if err := s.deps.Repos.Ledger.Append(tx, out, in); err != nil {
			return err
		}
		result = &TransferResult{ReferenceID: ref, Out: *out, In: *in}
		return nil
	})
	if err != nil {
		logFailure(s.deps.Log, "transfer stock", input.ProductID, actor, err)
		return nil, err
	}

	s.deps.Log.Info("stock transferred",
		zap.String("reference_id", result.ReferenceID.String()),
		zap.String("product_id", input.ProductID.String()),
		zap.String("from", input.FromLocationID.String()),
		zap.String("to", input.ToLocationID.String()),
		zap.Int("quantity", input.Quantity),
		zap.String("actor", actor.UserID))
	s.deps.Events.Publish(stockEvent("transfer_recorded",
		[]*model.InventoryTransaction{&result.Out, &result.In}, actor,
		fmt.Sprintf("Transferred %d units of '%s'", input.Quantity, product.Name)))
	return result, nil
}

func (s *inventoryService) Adjust(ctx context.Context, actor Actor, input AdjustInput) (*model.InventoryTransaction, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(input.Reason)
	switch {
	case input.ProductID == uuid.Nil:
		return nil, apperror.Validation("product_id", "is required")
	case input.LocationID == uuid.Nil:
		return nil, apperror.Validation("location_id", "is required")
	case input.QuantityChange == 0:
		return nil, apperror.Validation("quantity_change", "must not be zero")
	case reason == "":
		return nil, apperror.Validation("reason", "is required")
	case utf8.RuneCountInString(reason) > maxReasonLength:
		return nil, apperror.Validation("reason", fmt.Sprintf("must be at most %d characters", maxReasonLength))
	}

	var entry *model.InventoryTransaction
	var product *model.Product
	err := transact(ctx, s.deps.DB, func(tx *gorm.DB) error {
		var err error
		product, err = s.findProduct(tx, input.ProductID)
		if err != nil {
			return err
		}
		if _, err := s.deps.Repos.Locations.FindByID(tx, input.LocationID); err != nil {
			return err
		}

		if s.deps.StrictStockCheck && input.QuantityChange < 0 {
			if err := s.ensureAvailable(tx, input.ProductID, input.LocationID, -input.QuantityChange); err != nil {
				return err
			}
		}

		e := &model.InventoryTransaction{
			ProductID:      input.ProductID,
			LocationID:     input.LocationID,
			Type:           model.TxAdjustment,
			QuantityChange: input.QuantityChange,
			Reason:         reason,
			Notes:          strings.TrimSpace(input.Notes),
			CreatedBy:      actor.UserID,
		}
		if err := s.deps.Repos.Ledger.Append(tx, e); err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		logFailure(s.deps.Log, "adjust stock", input.ProductID, actor, err)
		return nil, err
	}

	s.deps.Log.Info("stock adjusted",
		zap.String("transaction_id", entry.ID.String()),
		zap.String("product_id", input.ProductID.String()),
		zap.String("location_id", input.LocationID.String()),
		zap.Int("quantity_change", input.QuantityChange),
		zap.String("reason", reason),
		zap.String("actor", actor.UserID))
	s.deps.Events.Publish(stockEvent("adjustment_recorded",
		[]*model.InventoryTransaction{entry}, actor,
		fmt.Sprintf("Adjusted '%s' by %+d (%s)", product.Name, input.QuantityChange, reason)))
	return entry, nil
}

// findProduct locks the product row in strict mode so concurrent stock checks on it queue up.
func (s *inventoryService) findProduct(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	if s.deps.StrictStockCheck {
		return s.deps.Repos.Products.LockByID(tx, id)
	}
	return s.deps.Repos.Products.FindByID(tx, id)
}

// ensureAvailable is the opt-in guard against driving derived stock negative. It reads the
// ledger inside tx so the check and the append commit together.
func (s *inventoryService) ensureAvailable(tx *gorm.DB, productID, locationID uuid.UUID, quantity int) error {
	available, err := s.deps.Repos.Ledger.SumQuantity(tx, productID, locationID)
	if err != nil {
		return err
	}
	if available < int64(quantity) {
		return apperror.WithMetadata(apperror.CodeInsufficientStock,
			fmt.Sprintf("insufficient stock: %d available, %d requested", available, quantity),
			map[string]string{
				"Available": strconv.FormatInt(available, 10),
				"Requested": strconv.Itoa(quantity),
			})
	}
	return nil
}
