package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go-production-inventory/internal/apperror"
	"go-production-inventory/internal/model"
	"go-production-inventory/internal/repository"
	"go-production-inventory/internal/testutil"

	"github.com/google/uuid"
)

func TestCreateBatch_AssignsSequentialCodes(t *testing.T) {
	f := newFixture(t)
	svc := NewBatchService(f.deps)
	product := testutil.CreateProduct(t, f.db, "SALSA-16")

	first := f.newBatch(t, svc, product, 100)
	second := f.newBatch(t, svc, product, 50)

	if first.BatchCode != "B-20261015-01" {
		t.Errorf("first code = %s, want B-20261015-01", first.BatchCode)
	}
	if second.BatchCode != "B-20261015-02" {
		t.Errorf("second code = %s, want B-20261015-02", second.BatchCode)
	}
	if first.Status != model.BatchPlanned || first.Version != 1 || !first.IsActive {
		t.Errorf("new batch = %s v%d active=%v, want PLANNED v1 active", first.Status, first.Version, first.IsActive)
	}
	if got := f.events.actions(); len(got) != 2 || got[0] != "batch_created" {
		t.Errorf("events = %v, want two batch_created", got)
	}
}

func TestCreateBatch_DeletedCodesStayReserved(t *testing.T) {
	f := newFixture(t)
	svc := NewBatchService(f.deps)
	product := testutil.CreateProduct(t, f.db, "SALSA-16")

	first := f.newBatch(t, svc, product, 100)
	if _, err := svc.SoftDeleteBatch(f.ctx, manager, first.ID, "duplicate entry"); err != nil {
		t.Fatalf("SoftDeleteBatch: %v", err)
	}

	next := f.newBatch(t, svc, product, 100)
	if next.BatchCode != "B-20261015-02" {
		t.Errorf("code after delete = %s, want B-20261015-02", next.BatchCode)
	}
}

func TestCreateBatch_SequenceIsPerDay(t *testing.T) {
	f := newFixture(t)
	svc := NewBatchService(f.deps)
	product := testutil.CreateProduct(t, f.db, "SALSA-16")

	f.newBatch(t, svc, product, 10)
	other, err := svc.CreateBatch(f.ctx, manager, CreateBatchInput{
		ProductID:      product.ID,
		ProductionDate: productionDay.AddDate(0, 0, 1).Add(15 * time.Hour),
		Source:         model.SourceInHouse,
		TotalUnits:     10,
	})
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if other.BatchCode != "B-20261016-01" {
		t.Errorf("code = %s, want B-20261016-01", other.BatchCode)
	}
}

func TestCreateBatch_WithAllocations(t *testing.T) {
	f := newFixture(t)
	svc := NewBatchService(f.deps)
	product := testutil.CreateProduct(t, f.db, "SALSA-16")
	downtown := testutil.CreateLocation(t, f.db, "Downtown")
	uptown := testutil.CreateLocation(t, f.db, "Uptown")

	batch, err := svc.CreateBatch(f.ctx, manager, CreateBatchInput{
		ProductID:      product.ID,
		ProductionDate: productionDay,
		Source:         model.SourceInHouse,
		TotalUnits:     100,
		Allocations: []AllocationInput{
			{LocationID: downtown.ID, Quantity: 60},
			{LocationID: uptown.ID, Quantity: 40},
		},
	})
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	detail, err := svc.GetBatch(f.ctx, batch.ID)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(detail.Allocations) != 2 {
		t.Fatalf("allocations = %d, want 2", len(detail.Allocations))
	}
	if detail.Allocations[0].Quantity != 60 || detail.Allocations[0].Location == nil {
		t.Errorf("first allocation = %+v, want 60 units with location loaded", detail.Allocations[0])
	}
	if detail.Product == nil || detail.Product.SKU != "SALSA-16" {
		t.Errorf("product not loaded: %+v", detail.Product)
	}
}

func TestCreateBatch_Rejections(t *testing.T) {
	f := newFixture(t)
	svc := NewBatchService(f.deps)
	product := testutil.CreateProduct(t, f.db, "SALSA-16")
	location := testutil.CreateLocation(t, f.db, "Downtown")
	closed := testutil.CreateLocation(t, f.db, "Closed")
	testutil.Deactivate(t, f.db, &model.Location{}, closed.ID)
	partner := testutil.CreateCoPacker(t, f.db, "Acme Foods")
	retired := testutil.CreateProduct(t, f.db, "OLD-8")
	testutil.Deactivate(t, f.db, &model.Product{}, retired.ID)

	lot := "LOT-7"
	received := productionDay.AddDate(0, 0, 2)
	missing := uuid.New()

	base := func() CreateBatchInput {
		return CreateBatchInput{
			ProductID:      product.ID,
			ProductionDate: productionDay,
			Source:         model.SourceInHouse,
			TotalUnits:     100,
		}
	}

	tests := []struct {
		name  string
		actor Actor
		input func() CreateBatchInput
		want  error
	}{
		{"staff cannot create", staff, base, apperror.ErrUnauthorized},
		{"zero units", manager, func() CreateBatchInput { in := base(); in.TotalUnits = 0; return in }, apperror.ErrValidation},
		{"unknown source", manager, func() CreateBatchInput { in := base(); in.Source = "THIRD_PARTY"; return in }, apperror.ErrValidation},
		{"in-house with partner", manager, func() CreateBatchInput {
			in := base()
			in.CoPackerPartnerID = &partner.ID
			return in
		}, apperror.ErrValidation},
		{"in-house with lot number", manager, func() CreateBatchInput {
			in := base()
			in.CoPackerLotNumber = lot
			return in
		}, apperror.ErrValidation},
		{"co-packer without partner", manager, func() CreateBatchInput {
			in := base()
			in.Source = model.SourceCoPacker
			return in
		}, apperror.ErrValidation},
		{"unknown partner", manager, func() CreateBatchInput {
			in := base()
			in.Source = model.SourceCoPacker
			in.CoPackerPartnerID = &missing
			return in
		}, apperror.ErrNotFound},
		{"unknown product", manager, func() CreateBatchInput { in := base(); in.ProductID = missing; return in }, apperror.ErrNotFound},
		{"inactive product", manager, func() CreateBatchInput { in := base(); in.ProductID = retired.ID; return in }, apperror.ErrValidation},
		{"allocation shortfall", manager, func() CreateBatchInput {
			in := base()
			in.Allocations = []AllocationInput{{LocationID: location.ID, Quantity: 90}}
			return in
		}, apperror.ErrAllocationMismatch},
		{"unknown location", manager, func() CreateBatchInput {
			in := base()
			in.Allocations = []AllocationInput{{LocationID: missing, Quantity: 100}}
			return in
		}, apperror.ErrNotFound},
		{"inactive location", manager, func() CreateBatchInput {
			in := base()
			in.Allocations = []AllocationInput{{LocationID: closed.ID, Quantity: 100}}
			return in
		}, apperror.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateBatch(f.ctx, tt.actor, tt.input())
			if !errors.Is(err, tt.want) {
				t.Fatalf("CreateBatch() error = %v, want %v", err, tt.want)
			}
		})
	}

	if n := f.countBatches(t); n != 0 {
		t.Errorf("batches written = %d, want 0", n)
	}
	if got := f.events.actions(); len(got) != 0 {
		t.Errorf("events = %v, want none", got)
	}

	// A co-packer batch with every field set is accepted.
	batch, err := svc.CreateBatch(f.ctx, manager, CreateBatchInput{
		ProductID:            product.ID,
		ProductionDate:       productionDay,
		Source:               model.SourceCoPacker,
		TotalUnits:           100,
		CoPackerPartnerID:    &partner.ID,
		CoPackerLotNumber:    lot,
		CoPackerReceivedDate: &received,
	})
	if err != nil {
		t.Fatalf("co-packer CreateBatch: %v", err)
	}
	if batch.CoPackerLotNumber != lot {
		t.Errorf("lot = %q, want %q", batch.CoPackerLotNumber, lot)
	}
}

func TestTransition_ReleaseBooksCompletion(t *testing.T) {
	f := newFixture(t)
	svc := NewBatchService(f.deps)
	product := testutil.CreateProduct(t, f.db, "SALSA-16")

	batch := f.newBatch(t, svc, product, 120)
	batch = f.advance(t, svc, batch, model.BatchInProgress, model.BatchQCReview, model.BatchReleased)

	if batch.Status != model.BatchReleased {
		t.Fatalf("status = %s, want RELEASED", batch.Status)
	}
	if batch.Version != 4 {
		t.Errorf("version = %d, want 4", batch.Version)
	}

	entries, err := f.deps.Repos.Ledger.FindAll(repository.TransactionFilter{ReferenceID: &batch.ID})
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(entries))
	}
	entry := entries[0]
	if entry.Type != model.TxBatchCompletion || entry.QuantityChange != 120 || entry.ProductID != product.ID {
		t.Errorf("entry = %s %+d product %s", entry.Type, entry.QuantityChange, entry.ProductID)
	}
	if entry.Location == nil || entry.Location.Name != model.DefaultMainWarehouseName || entry.Location.Type != model.LocationWarehouse {
		t.Errorf("entry location = %+v, want main warehouse", entry.Location)
	}

	want := []string{"batch_created", "batch_transitioned", "batch_transitioned", "batch_transitioned", "batch_released"}
	got := f.events.actions()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("events[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestTransition_ReleasedIsTerminal(t *testing.T) {
	f := newFixture(t)
	svc := NewBatchService(f.deps)
	product := testutil.CreateProduct(t, f.db, "SALSA-16")

	batch := f.newBatch(t, svc, product, 10)
	batch = f.advance(t, svc, batch, model.BatchInProgress, model.BatchQCReview, model.BatchReleased)

	for _, target := range []model.BatchStatus{model.BatchReleased, model.BatchHold, model.BatchQCReview} {
		_, err := svc.Transition(f.ctx, manager, batch.ID, target)
		if !errors.Is(err, apperror.ErrInvalidTransition) {
			t.Errorf("Transition(%s) error = %v, want INVALID_TRANSITION", target, err)
		}
	}
	if n := testutil.CountLedger(t, f.db, model.TxBatchCompletion); n != 1 {
		t.Errorf("completions = %d, want 1", n)
	}
}

func TestTransition_IllegalEdgeNamesBothStates(t *testing.T) {
	f := newFixture(t)
	svc := NewBatchService(f.deps)
	product := testutil.CreateProduct(t, f.db, "SALSA-16")
	batch := f.newBatch(t, svc, product, 10)

	_, err := svc.Transition(f.ctx, manager, batch.ID, model.BatchReleased)
	appErr, ok := apperror.As(err)
	if !ok || appErr.Code != apperror.CodeInvalidTransition {
		t.Fatalf("error = %v, want INVALID_TRANSITION", err)
	}
	if appErr.Metadata["CurrentStatus"] != "PLANNED" || appErr.Metadata["RequestedStatus"] != "RELEASED" {
		t.Errorf("metadata = %v", appErr.Metadata)
	}

	stored, err := svc.GetBatch(f.ctx, batch.ID)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if stored.Status != model.BatchPlanned || stored.Version != 1 {
		t.Errorf("stored = %s v%d, want unchanged", stored.Status, stored.Version)
	}
}

func TestTransition_HoldReturnsToReview(t *testing.T) {
	f := newFixture(t)
	svc := NewBatchService(f.deps)
	product := testutil.CreateProduct(t, f.db, "SALSA-16")

	batch := f.newBatch(t, svc, product, 10)
	batch = f.advance(t, svc, batch, model.BatchInProgress, model.BatchQCReview, model.BatchHold, model.BatchQCReview)
	if batch.Status != model.BatchQCReview {
		t.Errorf("status = %s, want QC_REVIEW", batch.Status)
	}
	if _, err := svc.Transition(f.ctx, manager, batch.ID, model.BatchInProgress); !errors.Is(err, apperror.ErrInvalidTransition) {
		t.Errorf("QC_REVIEW -> IN_PROGRESS error = %v, want INVALID_TRANSITION", err)
	}
}

func TestTransition_StaffDenied(t *testing.T) {
	f := newFixture(t)
	svc := NewBatchService(f.deps)
	product := testutil.CreateProduct(t, f.db, "SALSA-16")
	batch := f.newBatch(t, svc, product, 10)

	if _, err := svc.Transition(f.ctx, staff, batch.ID, model.BatchInProgress); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("error = %v, want UNAUTHORIZED", err)
	}
	if _, err := svc.Transition(f.ctx, admin, batch.ID, model.BatchInProgress); err != nil {
		t.Errorf("admin Transition: %v", err)
	}
}

func TestTransition_ConcurrentReleaseBooksOnce(t *testing.T) {
	f := newFixture(t)
	svc := NewBatchService(f.deps)
	product := testutil.CreateProduct(t, f.db, "SALSA-16")
	batch := f.newBatch(t, svc, product, 75)
	batch = f.advance(t, svc, batch, model.BatchInProgress, model.BatchQCReview)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Transition(f.ctx, manager, batch.ID, model.BatchReleased)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, apperror.ErrInvalidTransition), errors.Is(err, apperror.ErrConcurrencyConflict):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("successful releases = %d, want 1", succeeded)
	}
	if n := testutil.CountLedger(t, f.db, model.TxBatchCompletion); n != 1 {
		t.Errorf("completions = %d, want 1", n)
	}
}

func TestTransition_UnknownBatch(t *testing.T) {
	f := newFixture(t)
	svc := NewBatchService(f.deps)

	if _, err := svc.Transition(f.ctx, manager, uuid.New(), model.BatchInProgress); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestEditBatch(t *testing.T) {
	f := newFixture(t)
	svc := NewBatchService(f.deps)
	product := testutil.CreateProduct(t, f.db, "SALSA-16")
	downtown := testutil.CreateLocation(t, f.db, "Downtown")
	uptown := testutil.CreateLocation(t, f.db, "Uptown")

	batch, err := svc.CreateBatch(f.ctx, manager, CreateBatchInput{
		ProductID:      product.ID,
		ProductionDate: productionDay,
		Source:         model.SourceInHouse,
		TotalUnits:     100,
		Allocations:    []AllocationInput{{LocationID: downtown.ID, Quantity: 100}},
	})
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	t.Run("total change must keep allocations balanced", func(t *testing.T) {
		units := 150
		_, err := svc.EditBatch(f.ctx, manager, batch.ID, EditBatchInput{TotalUnits: &units})
		if !errors.Is(err, apperror.ErrAllocationMismatch) {
			t.Fatalf("error = %v, want ALLOCATION_MISMATCH", err)
		}
	})

	t.Run("total and allocations together", func(t *testing.T) {
		units := 150
		notes := "doubled the uptown share"
		allocations := []AllocationInput{
			{LocationID: downtown.ID, Quantity: 70},
			{LocationID: uptown.ID, Quantity: 80},
		}
		updated, err := svc.EditBatch(f.ctx, manager, batch.ID, EditBatchInput{
			TotalUnits:  &units,
			Notes:       &notes,
			Allocations: &allocations,
		})
		if err != nil {
			t.Fatalf("EditBatch: %v", err)
		}
		if updated.TotalUnits != 150 || updated.Notes != notes || updated.Version != 2 {
			t.Errorf("updated = %d units, notes %q, v%d", updated.TotalUnits, updated.Notes, updated.Version)
		}
		if len(updated.Allocations) != 2 || updated.Allocations[0].Quantity != 80 {
			t.Errorf("allocations = %+v", updated.Allocations)
		}
	})

	t.Run("empty allocation set clears them", func(t *testing.T) {
		empty := []AllocationInput{}
		updated, err := svc.EditBatch(f.ctx, manager, batch.ID, EditBatchInput{Allocations: &empty})
		if err != nil {
			t.Fatalf("EditBatch: %v", err)
		}
		if len(updated.Allocations) != 0 {
			t.Errorf("allocations = %d, want 0", len(updated.Allocations))
		}
	})

	t.Run("not editable after QC", func(t *testing.T) {
		f.advance(t, svc, batch, model.BatchInProgress, model.BatchQCReview)
		notes := "too late"
		_, err := svc.EditBatch(f.ctx, manager, batch.ID, EditBatchInput{Notes: &notes})
		appErr, ok := apperror.As(err)
		if !ok || appErr.Code != apperror.CodeBatchNotEditable {
			t.Fatalf("error = %v, want BATCH_NOT_EDITABLE", err)
		}
		if appErr.Metadata["CurrentStatus"] != "QC_REVIEW" {
			t.Errorf("CurrentStatus = %q", appErr.Metadata["CurrentStatus"])
		}
	})
}

func TestEditBatch_ProductionDateKeepsCode(t *testing.T) {
	f := newFixture(t)
	svc := NewBatchService(f.deps)
	product := testutil.CreateProduct(t, f.db, "SALSA-16")

	moved := f.newBatch(t, svc, product, 10)
	nextDay := productionDay.AddDate(0, 0, 1)
	if _, err := svc.EditBatch(f.ctx, manager, moved.ID, EditBatchInput{ProductionDate: &nextDay}); err != nil {
		t.Fatalf("EditBatch: %v", err)
	}

	// Codes already issued for a day are never handed out again.
	again := f.newBatch(t, svc, product, 10)
	if again.BatchCode != "B-20261015-02" {
		t.Errorf("code = %s, want B-20261015-02", again.BatchCode)
	}
}

func TestSoftDeleteBatch(t *testing.T) {
	f := newFixture(t)
	svc := NewBatchService(f.deps)
	product := testutil.CreateProduct(t, f.db, "SALSA-16")

	kept := f.newBatch(t, svc, product, 10)
	doomed := f.newBatch(t, svc, product, 10)
	doomed = f.advance(t, svc, doomed, model.BatchInProgress)

	if _, err := svc.SoftDeleteBatch(f.ctx, manager, doomed.ID, "   "); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("blank reason error = %v, want VALIDATION_ERROR", err)
	}

	deleted, err := svc.SoftDeleteBatch(f.ctx, manager, doomed.ID, "spoiled ingredients")
	if err != nil {
		t.Fatalf("SoftDeleteBatch: %v", err)
	}
	if deleted.IsActive || deleted.DeletedAt == nil || deleted.DeletedReason != "spoiled ingredients" {
		t.Errorf("deleted = active %v at %v reason %q", deleted.IsActive, deleted.DeletedAt, deleted.DeletedReason)
	}

	listed, err := svc.ListBatches(f.ctx, repository.BatchFilter{})
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != kept.ID {
		t.Errorf("listed = %d batches, want only the active one", len(listed))
	}

	all, err := svc.ListBatches(f.ctx, repository.BatchFilter{IncludeInactive: true})
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("with inactive = %d, want 2", len(all))
	}

	detail, err := svc.GetBatch(f.ctx, doomed.ID)
	if err != nil {
		t.Fatalf("GetBatch on deleted: %v", err)
	}
	if detail.IsActive {
		t.Error("deleted batch reported active")
	}

	if _, err := svc.Transition(f.ctx, manager, doomed.ID, model.BatchQCReview); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("transition of deleted batch error = %v, want NOT_FOUND", err)
	}
}

func TestSoftDeleteBatch_NotDeletableAfterQC(t *testing.T) {
	f := newFixture(t)
	svc := NewBatchService(f.deps)
	product := testutil.CreateProduct(t, f.db, "SALSA-16")
	batch := f.newBatch(t, svc, product, 10)
	batch = f.advance(t, svc, batch, model.BatchInProgress, model.BatchQCReview)

	_, err := svc.SoftDeleteBatch(f.ctx, manager, batch.ID, "changed our mind")
	if !errors.Is(err, apperror.ErrBatchNotDeletable) {
		t.Fatalf("error = %v, want BATCH_NOT_DELETABLE", err)
	}
}

func TestListBatches_Filters(t *testing.T) {
	f := newFixture(t)
	svc := NewBatchService(f.deps)
	salsa := testutil.CreateProduct(t, f.db, "SALSA-16")
	hot := testutil.CreateProduct(t, f.db, "HOT-8")

	f.newBatch(t, svc, salsa, 10)
	started := f.advance(t, svc, f.newBatch(t, svc, salsa, 10), model.BatchInProgress)
	f.newBatch(t, svc, hot, 10)

	status := model.BatchInProgress
	byStatus, err := svc.ListBatches(f.ctx, repository.BatchFilter{Status: &status})
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != started.ID {
		t.Errorf("by status = %d batches", len(byStatus))
	}

	byProduct, err := svc.ListBatches(f.ctx, repository.BatchFilter{ProductID: &hot.ID})
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	if len(byProduct) != 1 || byProduct[0].ProductID != hot.ID {
		t.Errorf("by product = %d batches", len(byProduct))
	}
}

func TestNextBatchCode(t *testing.T) {
	tests := []struct {
		existing []string
		want     string
	}{
		{nil, "B-20261015-01"},
		{[]string{"B-20261015-01", "B-20261015-02"}, "B-20261015-03"},
		{[]string{"B-20261015-04", "B-20261015-02"}, "B-20261015-05"},
		{[]string{"B-20261015-09"}, "B-20261015-10"},
		{[]string{"B-20261015-99"}, "B-20261015-100"},
		{[]string{"B-20261015-XX"}, "B-20261015-01"},
	}
	for _, tt := range tests {
		if got := nextBatchCode(productionDay, tt.existing); got != tt.want {
			t.Errorf("nextBatchCode(%v) = %s, want %s", tt.existing, got, tt.want)
		}
	}
}
