package repository

import (
	"time"

	"go-stock-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultHistoryLimit bounds the all-items feed view.
const DefaultHistoryLimit = 50

// MaxHistoryLimit caps caller-provided limits.
const MaxHistoryLimit = 200

// StockMovementData untuk chart data
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type HistoryRepository interface {
	Create(tx *gorm.DB, entry *model.StockHistory) error
	FindByItemID(itemID uuid.UUID) ([]model.StockHistory, error)
	FindRecent(limit int) ([]model.StockHistory, error)
	CountByItemID(itemID uuid.UUID) (int64, error)
	GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error)
}

type historyRepo struct {
	db *gorm.DB
}

func NewHistoryRepo(db *gorm.DB) HistoryRepository {
	return &historyRepo{db}
}

// Create appends an audit row. Must be called with the same tx as the item
// mutation it describes.
func (r *historyRepo) Create(tx *gorm.DB, entry *model.StockHistory) error {
	return tx.Create(entry).Error
}

func (r *historyRepo) FindByItemID(itemID uuid.UUID) ([]model.StockHistory, error) {
	var entries []model.StockHistory
	err := r.db.Where("item_id = ?", itemID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	return entries, err
}

func (r *historyRepo) FindRecent(limit int) ([]model.StockHistory, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	var entries []model.StockHistory
	err := r.db.Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *historyRepo) CountByItemID(itemID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.StockHistory{}).Where("item_id = ?", itemID).Count(&count).Error
	return count, err
}

// GetStockMovement aggregates the structured deltas per day for charts.
func (r *historyRepo) GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	rows, err := r.db.Model(&model.StockHistory{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN quantity_delta > 0 THEN quantity_delta ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN quantity_delta < 0 THEN -quantity_delta ELSE 0 END), 0) as outbound
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, nil
}
