package service

import (
	"time"

	"go-stock-ledger/internal/repository"
)

type DashboardService interface {
	GetStockMovement(days int) ([]repository.StockMovementData, error)
	GetDashboardStats() (*repository.DashboardStats, error)
}

type dashboardService struct {
	stockRepo   repository.StockRepository
	historyRepo repository.HistoryRepository
}

func NewDashboardService(stockRepo repository.StockRepository, historyRepo repository.HistoryRepository) DashboardService {
	return &dashboardService{stockRepo: stockRepo, historyRepo: historyRepo}
}

func (s *dashboardService) GetStockMovement(days int) ([]repository.StockMovementData, error) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	return s.historyRepo.GetStockMovement(startDate, endDate)
}

func (s *dashboardService) GetDashboardStats() (*repository.DashboardStats, error) {
	return s.stockRepo.GetDashboardStats()
}
