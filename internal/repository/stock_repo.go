package repository

import (
	"context"
	"time"

	"go-production-inventory/internal/model"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// StockRow is the derived stock of one (product, location) pair.
type StockRow struct {
	ProductID    uuid.UUID `db:"product_id" json:"product_id"`
	LocationID   uuid.UUID `db:"location_id" json:"location_id"`
	LocationName string    `db:"location_name" json:"location_name"`
	Quantity     int64     `db:"quantity" json:"quantity"`
}

// StockMovementData is one day of ledger movement for charts.
type StockMovementData struct {
	Date     string `db:"date" json:"date"`
	Inbound  int64  `db:"inbound" json:"inbound"`
	Outbound int64  `db:"outbound" json:"outbound"`
}

// DashboardStats is the overview shown on the dashboard.
type DashboardStats struct {
	ActiveProducts     int64 `db:"active_products" json:"active_products"`
	OpenBatches        int64 `db:"open_batches" json:"open_batches"`
	BatchesInQC        int64 `db:"batches_in_qc" json:"batches_in_qc"`
	BatchesOnHold      int64 `db:"batches_on_hold" json:"batches_on_hold"`
	NegativeStockCount int64 `db:"negative_stock_count" json:"negative_stock_count"`
}

// StockRepository is the read model over the ledger. It aggregates inventory_transactions and
// never writes.
type StockRepository interface {
	CurrentStock(ctx context.Context, productID uuid.UUID, locationID *uuid.UUID) (int64, error)
	StockByProductLocation(ctx context.Context) ([]StockRow, error)
	GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

type stockRepo struct {
	db *sqlx.DB
}

func NewStockRepo(db *sqlx.DB) StockRepository {
	return &stockRepo{db}
}

func (r *stockRepo) CurrentStock(ctx context.Context, productID uuid.UUID, locationID *uuid.UUID) (int64, error) {
	query := `SELECT COALESCE(SUM(quantity_change), 0) FROM inventory_transactions WHERE product_id = ?`
	args := []interface{}{productID}
	if locationID != nil {
		query += ` AND location_id = ?`
		args = append(args, *locationID)
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(query), args...); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *stockRepo) StockByProductLocation(ctx context.Context) ([]StockRow, error) {
	query := `
		SELECT t.product_id, t.location_id, l.name AS location_name,
		       COALESCE(SUM(t.quantity_change), 0) AS quantity
		FROM inventory_transactions t
		JOIN locations l ON l.id = t.location_id
		GROUP BY t.product_id, t.location_id, l.name
		ORDER BY l.name ASC
	`
	var rows []StockRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *stockRepo) GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error) {
	// Aggregate ledger movement per day
	query := `
		SELECT CAST(DATE(created_at) AS TEXT) AS date,
		       COALESCE(SUM(CASE WHEN quantity_change > 0 THEN quantity_change ELSE 0 END), 0) AS inbound,
		       COALESCE(SUM(CASE WHEN quantity_change < 0 THEN -quantity_change ELSE 0 END), 0) AS outbound
		FROM inventory_transactions
		WHERE created_at BETWEEN ? AND ?
		GROUP BY DATE(created_at)
		ORDER BY date ASC
	`
	var results []StockMovementData
	if err := r.db.SelectContext(ctx, &results, r.db.Rebind(query), startDate, endDate); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *stockRepo) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM products WHERE is_active = ?) AS active_products,
			(SELECT COUNT(*) FROM batches WHERE is_active = ? AND status IN (?, ?)) AS open_batches,
			(SELECT COUNT(*) FROM batches WHERE is_active = ? AND status = ?) AS batches_in_qc,
			(SELECT COUNT(*) FROM batches WHERE is_active = ? AND status = ?) AS batches_on_hold,
			(SELECT COUNT(*) FROM (
				SELECT product_id FROM inventory_transactions
				GROUP BY product_id, location_id
				HAVING SUM(quantity_change) < 0
			) negative) AS negative_stock_count
	`
	var stats DashboardStats
	err := r.db.GetContext(ctx, &stats, r.db.Rebind(query),
		true,
		true, model.BatchPlanned, model.BatchInProgress,
		true, model.BatchQCReview,
		true, model.BatchHold,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
