package service

import (
	"errors"
	"strings"
	"testing"

	"go-production-inventory/internal/apperror"
	"go-production-inventory/internal/model"
	"go-production-inventory/internal/repository"
	"go-production-inventory/internal/testutil"

	"github.com/google/uuid"
)

type inventoryFixture struct {
	*fixture
	svc       InventoryService
	product   *model.Product
	warehouse *model.Location
	store     *model.Location
}

func newInventoryFixture(t *testing.T, strict bool) *inventoryFixture {
	t.Helper()
	f := newFixture(t)
	f.deps.StrictStockCheck = strict
	return &inventoryFixture{
		fixture:   f,
		svc:       NewInventoryService(f.deps),
		product:   testutil.CreateProduct(t, f.db, "SALSA-16"),
		warehouse: testutil.CreateLocation(t, f.db, "Warehouse"),
		store:     testutil.CreateLocation(t, f.db, "Downtown"),
	}
}

func (f *inventoryFixture) stock(t *testing.T, location *model.Location) int64 {
	t.Helper()
	total, err := f.deps.Repos.Ledger.SumQuantity(nil, f.product.ID, location.ID)
	if err != nil {
		t.Fatalf("SumQuantity: %v", err)
	}
	return total
}

func (f *inventoryFixture) seed(t *testing.T, location *model.Location, quantity int) {
	t.Helper()
	_, err := f.svc.Adjust(f.ctx, manager, AdjustInput{
		ProductID:      f.product.ID,
		LocationID:     location.ID,
		QuantityChange: quantity,
		Reason:         "Count Correction",
	})
	if err != nil {
		t.Fatalf("seed stock: %v", err)
	}
}

func TestTransfer_WritesBalancedPair(t *testing.T) {
	f := newInventoryFixture(t, false)
	f.seed(t, f.warehouse, 100)

	result, err := f.svc.Transfer(f.ctx, manager, TransferInput{
		ProductID:      f.product.ID,
		FromLocationID: f.warehouse.ID,
		ToLocationID:   f.store.ID,
		Quantity:       30,
		Notes:          " weekly restock ",
	})
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	if result.Out.Type != model.TxTransferOut || result.Out.QuantityChange != -30 {
		t.Errorf("out leg = %s %+d", result.Out.Type, result.Out.QuantityChange)
	}
	if result.In.Type != model.TxTransferIn || result.In.QuantityChange != 30 {
		t.Errorf("in leg = %s %+d", result.In.Type, result.In.QuantityChange)
	}
	if *result.Out.ReferenceID != result.ReferenceID || *result.In.ReferenceID != result.ReferenceID {
		t.Error("legs do not share the transfer reference")
	}
	if result.Out.Notes != "weekly restock" {
		t.Errorf("notes = %q", result.Out.Notes)
	}

	if got := f.stock(t, f.warehouse); got != 70 {
		t.Errorf("warehouse stock = %d, want 70", got)
	}
	if got := f.stock(t, f.store); got != 30 {
		t.Errorf("store stock = %d, want 30", got)
	}

	legs, err := f.deps.Repos.Ledger.FindAll(repository.TransactionFilter{ReferenceID: &result.ReferenceID})
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	sum := 0
	for _, leg := range legs {
		sum += leg.QuantityChange
	}
	if len(legs) != 2 || sum != 0 {
		t.Errorf("legs = %d summing to %d, want 2 summing to 0", len(legs), sum)
	}

	actions := f.events.actions()
	if actions[len(actions)-1] != "transfer_recorded" {
		t.Errorf("last event = %s, want transfer_recorded", actions[len(actions)-1])
	}
}

func TestTransfer_Rejections(t *testing.T) {
	f := newInventoryFixture(t, false)

	base := func() TransferInput {
		return TransferInput{
			ProductID:      f.product.ID,
			FromLocationID: f.warehouse.ID,
			ToLocationID:   f.store.ID,
			Quantity:       5,
		}
	}

	tests := []struct {
		name  string
		actor Actor
		input func() TransferInput
		want  error
	}{
		{"staff cannot transfer", staff, base, apperror.ErrUnauthorized},
		{"same location", manager, func() TransferInput { in := base(); in.ToLocationID = in.FromLocationID; return in }, apperror.ErrSameLocation},
		{"zero quantity", manager, func() TransferInput { in := base(); in.Quantity = 0; return in }, apperror.ErrValidation},
		{"negative quantity", manager, func() TransferInput { in := base(); in.Quantity = -5; return in }, apperror.ErrValidation},
		{"missing product", manager, func() TransferInput { in := base(); in.ProductID = uuid.Nil; return in }, apperror.ErrValidation},
		{"unknown product", manager, func() TransferInput { in := base(); in.ProductID = uuid.New(); return in }, apperror.ErrNotFound},
		{"unknown destination", manager, func() TransferInput { in := base(); in.ToLocationID = uuid.New(); return in }, apperror.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Transfer(f.ctx, tt.actor, tt.input())
			if !errors.Is(err, tt.want) {
				t.Fatalf("Transfer() error = %v, want %v", err, tt.want)
			}
		})
	}

	if n := testutil.CountLedger(t, f.db, ""); n != 0 {
		t.Errorf("ledger rows = %d, want 0", n)
	}
	if got := f.events.actions(); len(got) != 0 {
		t.Errorf("events = %v, want none", got)
	}
}

func TestTransfer_NegativeStockAllowedByDefault(t *testing.T) {
	f := newInventoryFixture(t, false)

	_, err := f.svc.Transfer(f.ctx, manager, TransferInput{
		ProductID:      f.product.ID,
		FromLocationID: f.warehouse.ID,
		ToLocationID:   f.store.ID,
		Quantity:       12,
	})
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if got := f.stock(t, f.warehouse); got != -12 {
		t.Errorf("warehouse stock = %d, want -12", got)
	}
}

func TestTransfer_StrictStockCheck(t *testing.T) {
	f := newInventoryFixture(t, true)
	f.seed(t, f.warehouse, 10)

	_, err := f.svc.Transfer(f.ctx, manager, TransferInput{
		ProductID:      f.product.ID,
		FromLocationID: f.warehouse.ID,
		ToLocationID:   f.store.ID,
		Quantity:       11,
	})
	appErr, ok := apperror.As(err)
	if !ok || appErr.Code != apperror.CodeInsufficientStock {
		t.Fatalf("error = %v, want INSUFFICIENT_STOCK", err)
	}
	if appErr.Metadata["Available"] != "10" || appErr.Metadata["Requested"] != "11" {
		t.Errorf("metadata = %v", appErr.Metadata)
	}

	if _, err := f.svc.Transfer(f.ctx, manager, TransferInput{
		ProductID:      f.product.ID,
		FromLocationID: f.warehouse.ID,
		ToLocationID:   f.store.ID,
		Quantity:       10,
	}); err != nil {
		t.Fatalf("Transfer of exact stock: %v", err)
	}
	if got := f.stock(t, f.warehouse); got != 0 {
		t.Errorf("warehouse stock = %d, want 0", got)
	}
}

func TestAdjust(t *testing.T) {
	f := newInventoryFixture(t, false)

	entry, err := f.svc.Adjust(f.ctx, manager, AdjustInput{
		ProductID:      f.product.ID,
		LocationID:     f.store.ID,
		QuantityChange: -4,
		Reason:         " Damaged ",
		Notes:          "dropped a case",
	})
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if entry.Type != model.TxAdjustment || entry.QuantityChange != -4 || entry.Reason != "Damaged" {
		t.Errorf("entry = %s %+d reason %q", entry.Type, entry.QuantityChange, entry.Reason)
	}
	if entry.CreatedBy != manager.UserID {
		t.Errorf("CreatedBy = %s", entry.CreatedBy)
	}
	if got := f.stock(t, f.store); got != -4 {
		t.Errorf("store stock = %d, want -4", got)
	}
}

func TestAdjust_Rejections(t *testing.T) {
	f := newInventoryFixture(t, true)
	f.seed(t, f.store, 3)

	base := func() AdjustInput {
		return AdjustInput{
			ProductID:      f.product.ID,
			LocationID:     f.store.ID,
			QuantityChange: -1,
			Reason:         "Expired",
		}
	}

	tests := []struct {
		name  string
		actor Actor
		input func() AdjustInput
		want  error
	}{
		{"staff cannot adjust", staff, base, apperror.ErrUnauthorized},
		{"zero change", manager, func() AdjustInput { in := base(); in.QuantityChange = 0; return in }, apperror.ErrValidation},
		{"blank reason", manager, func() AdjustInput { in := base(); in.Reason = "  "; return in }, apperror.ErrValidation},
		{"reason too long", manager, func() AdjustInput { in := base(); in.Reason = strings.Repeat("é", 256); return in }, apperror.ErrValidation},
		{"unknown location", manager, func() AdjustInput { in := base(); in.LocationID = uuid.New(); return in }, apperror.ErrNotFound},
		{"below zero in strict mode", manager, func() AdjustInput { in := base(); in.QuantityChange = -4; return in }, apperror.ErrInsufficientStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Adjust(f.ctx, tt.actor, tt.input())
			if !errors.Is(err, tt.want) {
				t.Fatalf("Adjust() error = %v, want %v", err, tt.want)
			}
		})
	}

	if got := f.stock(t, f.store); got != 3 {
		t.Errorf("store stock = %d, want 3", got)
	}

	// Positive corrections never need stock.
	if _, err := f.svc.Adjust(f.ctx, manager, AdjustInput{
		ProductID:      f.product.ID,
		LocationID:     f.warehouse.ID,
		QuantityChange: 8,
		Reason:         "Count Correction",
	}); err != nil {
		t.Errorf("positive Adjust: %v", err)
	}
}
