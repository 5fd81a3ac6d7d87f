package service

import (
	"context"
	"errors"
	"time"

	"go-production-inventory/internal/apperror"
	"go-production-inventory/internal/model"
	"go-production-inventory/internal/repository"
	"go-production-inventory/internal/ws"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Actor identifies who performs an operation. Handlers build it from the verified token.
type Actor struct {
	UserID string
	Role   string
}

// Publisher receives events after the writes they describe have committed.
type Publisher interface {
	Publish(event ws.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(ws.Event) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

// requireManager rejects actors ranked below MANAGER.
func requireManager(actor Actor) error {
	if !model.RoleAtLeast(actor.Role, model.RoleManager) {
		return apperror.ErrUnauthorized
	}
	return nil
}

// SQLSTATEs postgres raises when it aborts one side of a race.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// isConflict reports whether err means another writer got there first.
func isConflict(err error) bool {
	if errors.Is(err, apperror.ErrConcurrencyConflict) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlStateSerializationFailure || pgErr.Code == sqlStateDeadlockDetected
	}
	return false
}

// transact runs fn in a database transaction. A concurrency conflict is retried once with a
// fresh transaction; a second conflict is returned as CONCURRENCY_CONFLICT.
func transact(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	attempt := func() error {
		err := db.WithContext(ctx).Transaction(fn)
		if err != nil && isConflict(err) {
			return apperror.ErrConcurrencyConflict
		}
		return err
	}

	err := attempt()
	if errors.Is(err, apperror.ErrConcurrencyConflict) {
		err = attempt()
	}
	return err
}

// Repositories bundles the stores shared by the services.
type Repositories struct {
	Batches   repository.BatchRepository
	Products  repository.ProductRepository
	Locations repository.LocationRepository
	CoPackers repository.CoPackerRepository
	QCTests   repository.QCTestRepository
	Ledger    repository.LedgerRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Batches:   repository.NewBatchRepo(db),
		Products:  repository.NewProductRepo(db),
		Locations: repository.NewLocationRepo(db),
		CoPackers: repository.NewCoPackerRepo(db),
		QCTests:   repository.NewQCTestRepo(db),
		Ledger:    repository.NewLedgerRepo(db),
	}
}

// Dependencies is what every write-side service is built from.
type Dependencies struct {
	DB     *gorm.DB
	Repos  Repositories
	Events Publisher
	Log    *zap.Logger

	MainWarehouseName string
	StrictStockCheck  bool
	Now               func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	d.Events = publisherOrNop(d.Events)
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

func batchEvent(action string, batch *model.Batch, actor Actor, message string) ws.Event {
	return ws.Event{
		Type:    ws.TypeBatchUpdate,
		Action:  action,
		Message: message,
		Data: map[string]interface{}{
			"id":         batch.ID,
			"batch_code": batch.BatchCode,
			"product_id": batch.ProductID,
			"status":     batch.Status,
			"version":    batch.Version,
		},
		UserID: actor.UserID,
	}
}

func stockEvent(action string, entries []*model.InventoryTransaction, actor Actor, message string) ws.Event {
	rows := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]interface{}{
			"id":              e.ID,
			"product_id":      e.ProductID,
			"location_id":     e.LocationID,
			"type":            e.Type,
			"quantity_change": e.QuantityChange,
			"reference_id":    e.ReferenceID,
		})
	}
	return ws.Event{
		Type:    ws.TypeStockMovement,
		Action:  action,
		Message: message,
		Data:    rows,
		UserID:  actor.UserID,
	}
}
