package scheduler

import (
	"log"

	"go-stock-ledger/internal/repository"
	"go-stock-ledger/internal/ws"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic low-stock sweep and pushes the result to all
// connected clients through the hub.
type Scheduler struct {
	cron      *cron.Cron
	stockRepo repository.StockRepository
	wsHub     *ws.Hub
}

func New(stockRepo repository.StockRepository, hub *ws.Hub) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		stockRepo: stockRepo,
		wsHub:     hub,
	}
}

func (s *Scheduler) Start() {
	// Every day at 08:00
	if _, err := s.cron.AddFunc("0 8 * * *", s.lowStockSweep); err != nil {
		log.Printf("Warning: Failed to schedule low-stock sweep: %v", err)
		return
	}
	s.cron.Start()
	log.Println("Scheduler started (low-stock sweep daily at 08:00)")
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) lowStockSweep() {
	items, err := s.stockRepo.FindAll(repository.StockFilter{LowStockOnly: true})
	if err != nil {
		log.Printf("Low-stock sweep failed: %v", err)
		return
	}
	if len(items) == 0 {
		return
	}

	summary := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		summary = append(summary, map[string]interface{}{
			"id":        item.ID,
			"item_name": item.ItemName,
			"item_type": item.ItemType,
			"quantity":  item.Quantity,
		})
	}

	log.Printf("Low-stock sweep: %d item(s) below threshold", len(items))
	s.wsHub.Publish("stock_alert", "low_stock", map[string]interface{}{
		"count": len(items),
		"items": summary,
	})
}
