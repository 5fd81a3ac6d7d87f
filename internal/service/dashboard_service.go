package service

import (
	"context"
	"time"

	"go-production-inventory/internal/repository"
)

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
}

type dashboardService struct {
	stockRepo repository.StockRepository
	now       func() time.Time
}

func NewDashboardService(stockRepo repository.StockRepository) DashboardService {
	return &dashboardService{stockRepo: stockRepo, now: time.Now}
}

// GetStockMovement returns per-day inbound and outbound totals for the last days days.
func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	endDate := s.now()
	startDate := endDate.AddDate(0, 0, -days)

	return s.stockRepo.GetStockMovement(ctx, startDate, endDate)
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	return s.stockRepo.GetDashboardStats(ctx)
}
