package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-production-inventory/internal/model"
	"go-production-inventory/internal/testutil"
	"go-production-inventory/internal/ws"

	"gorm.io/gorm"
)

var (
	manager = Actor{UserID: "manager-1", Role: model.RoleManager}
	admin   = Actor{UserID: "admin-1", Role: model.RoleAdmin}
	staff   = Actor{UserID: "staff-1", Role: model.RoleStaff}
)

var productionDay = time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []ws.Event
}

func (p *recordingPublisher) Publish(event ws.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Action)
	}
	return out
}

type fixture struct {
	db     *gorm.DB
	deps   Dependencies
	events *recordingPublisher
	ctx    context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	events := &recordingPublisher{}
	return &fixture{
		db: db,
		deps: Dependencies{
			DB:     db,
			Repos:  NewRepositories(db),
			Events: events,
		},
		events: events,
		ctx:    context.Background(),
	}
}

// newBatch creates a PLANNED batch of units with no allocations.
func (f *fixture) newBatch(t *testing.T, svc BatchService, product *model.Product, units int) *model.Batch {
	t.Helper()
	batch, err := svc.CreateBatch(f.ctx, manager, CreateBatchInput{
		ProductID:      product.ID,
		ProductionDate: productionDay,
		Source:         model.SourceInHouse,
		TotalUnits:     units,
	})
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	return batch
}

// advance walks a batch through the given statuses.
func (f *fixture) advance(t *testing.T, svc BatchService, batch *model.Batch, statuses ...model.BatchStatus) *model.Batch {
	t.Helper()
	for _, status := range statuses {
		var err error
		batch, err = svc.Transition(f.ctx, manager, batch.ID, status)
		if err != nil {
			t.Fatalf("Transition to %s: %v", status, err)
		}
	}
	return batch
}

func (f *fixture) countBatches(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := f.db.Model(&model.Batch{}).Count(&count).Error; err != nil {
		t.Fatalf("count batches: %v", err)
	}
	return count
}
