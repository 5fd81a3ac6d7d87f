package service

import (
	"context"

	"go-production-inventory/internal/model"
	"go-production-inventory/internal/repository"

	"github.com/google/uuid"
)

// LocationStock is the derived quantity of one product at one location.
type LocationStock struct {
	LocationID   uuid.UUID `json:"location_id"`
	LocationName string    `json:"location_name"`
	Quantity     int64     `json:"quantity"`
}

// ProductStock is a product's total derived stock with its per-location breakdown.
type ProductStock struct {
	Product    model.Product   `json:"product"`
	TotalStock int64           `json:"total_stock"`
	Locations  []LocationStock `json:"locations"`
}

// StockService projects stock from the ledger. It only reads.
type StockService interface {
	CurrentStock(ctx context.Context, productID uuid.UUID, locationID *uuid.UUID) (int64, error)
	SummaryByProduct(ctx context.Context) ([]ProductStock, error)
	ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]model.InventoryTransaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*model.InventoryTransaction, error)
}

type stockService struct {
	stockRepo   repository.StockRepository
	productRepo repository.ProductRepository
	ledgerRepo  repository.LedgerRepository
}

func NewStockService(stockRepo repository.StockRepository, productRepo repository.ProductRepository, ledgerRepo repository.LedgerRepository) StockService {
	return &stockService{
		stockRepo:   stockRepo,
		productRepo: productRepo,
		ledgerRepo:  ledgerRepo,
	}
}

func (s *stockService) CurrentStock(ctx context.Context, productID uuid.UUID, locationID *uuid.UUID) (int64, error) {
	return s.stockRepo.CurrentStock(ctx, productID, locationID)
}

// SummaryByProduct lists every active product, including those with no ledger history.
func (s *stockService) SummaryByProduct(ctx context.Context) ([]ProductStock, error) {
	products, err := s.productRepo.FindAll(false)
	if err != nil {
		return nil, err
	}
	rows, err := s.stockRepo.StockByProductLocation(ctx)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[uuid.UUID][]repository.StockRow)
	for _, row := range rows {
		byProduct[row.ProductID] = append(byProduct[row.ProductID], row)
	}

	summary := make([]ProductStock, 0, len(products))
	for _, p := range products {
		entry := ProductStock{Product: p, Locations: []LocationStock{}}
		for _, row := range byProduct[p.ID] {
			entry.TotalStock += row.Quantity
			entry.Locations = append(entry.Locations, LocationStock{
				LocationID:   row.LocationID,
				LocationName: row.LocationName,
				Quantity:     row.Quantity,
			})
		}
		summary = append(summary, entry)
	}
	return summary, nil
}

func (s *stockService) ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]model.InventoryTransaction, error) {
	return s.ledgerRepo.FindAll(filter)
}

func (s *stockService) GetTransaction(ctx context.Context, id uuid.UUID) (*model.InventoryTransaction, error) {
	return s.ledgerRepo.FindByID(id)
}
