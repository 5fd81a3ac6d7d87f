// Package testutil provides an in-memory store for package tests.
package testutil

import (
	"testing"

	"go-production-inventory/internal/model"
	"go-production-inventory/pkg/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database. A single connection keeps every
// transaction serialised, so concurrent callers queue up the way row locks make them queue
// on postgres.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// NewReadDB wraps db for the sqlx read model.
func NewReadDB(t *testing.T, db *gorm.DB) *sqlx.DB {
	t.Helper()
	readDB, err := database.ReadModel(db)
	if err != nil {
		t.Fatalf("read model: %v", err)
	}
	return readDB
}

func CreateProduct(t *testing.T, db *gorm.DB, sku string) *model.Product {
	t.Helper()
	p := &model.Product{SKU: sku, Name: "Product " + sku, Size: "16oz", Unit: "jar", IsActive: true}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func CreateLocation(t *testing.T, db *gorm.DB, name string) *model.Location {
	t.Helper()
	l := &model.Location{Name: name, Type: model.LocationRestaurant, IsActive: true}
	if err := db.Create(l).Error; err != nil {
		t.Fatalf("create location: %v", err)
	}
	return l
}

func CreateCoPacker(t *testing.T, db *gorm.DB, name string) *model.CoPackerPartner {
	t.Helper()
	p := &model.CoPackerPartner{Name: name, IsActive: true}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create co-packer: %v", err)
	}
	return p
}

// Deactivate flips is_active off; creating with IsActive false would get the column default.
func Deactivate(t *testing.T, db *gorm.DB, value interface{}, id uuid.UUID) {
	t.Helper()
	if err := db.Model(value).Where("id = ?", id).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
}

// CountLedger counts ledger rows, optionally of one type.
func CountLedger(t *testing.T, db *gorm.DB, txType model.TransactionType) int64 {
	t.Helper()
	var count int64
	query := db.Model(&model.InventoryTransaction{})
	if txType != "" {
		query = query.Where("type = ?", txType)
	}
	if err := query.Count(&count).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	return count
}
