package repository

import (
	"go-stock-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockFilter narrows ListItems results. Zero values mean "no filter".
type StockFilter struct {
	ItemType     string
	Status       model.StockStatus
	LowStockOnly bool
}

// DashboardStats untuk overview stats
type DashboardStats struct {
	TotalItems    int64 `json:"total_items"`
	InStockItems  int64 `json:"in_stock_items"`
	LowStockCount int64 `json:"low_stock_count"`
	TotalUnits    int64 `json:"total_units"`
}

type StockRepository interface {
	Create(tx *gorm.DB, item *model.StockItem) error
	FindByID(id uuid.UUID) (*model.StockItem, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.StockItem, error)
	FindAll(filter StockFilter) ([]model.StockItem, error)
	Deduct(tx *gorm.DB, id uuid.UUID, amount int, extra map[string]interface{}) (int64, error)
	Updates(tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error
	GetDashboardStats() (*DashboardStats, error)
}

type stockRepo struct {
	db *gorm.DB
}

func NewStockRepo(db *gorm.DB) StockRepository {
	return &stockRepo{db}
}

func (r *stockRepo) Create(tx *gorm.DB, item *model.StockItem) error {
	return tx.Create(item).Error
}

func (r *stockRepo) FindByID(id uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	err := r.db.Preload("SentToStation").Preload("UsedAtStation").First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByIDTx reads the current row inside the caller's transaction
func (r *stockRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	err := tx.Set("gorm:query_option", "FOR UPDATE").First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *stockRepo) FindAll(filter StockFilter) ([]model.StockItem, error) {
	var items []model.StockItem
	q := r.db.Preload("SentToStation").Preload("UsedAtStation")

	if filter.ItemType != "" {
		q = q.Where("item_type = ?", filter.ItemType)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.LowStockOnly {
		q = q.Where("status = ? AND quantity < ?", model.StatusInStock, model.LowStockThreshold)
	}

	err := q.Order("item_name ASC").Find(&items).Error
	return items, err
}

// Deduct subtracts amount from quantity with a compare-and-set guard so two
// concurrent disposals cannot both win. Any extra column updates (status,
// disposition stamps) ride in the same UPDATE. Returns rows affected: 0 means
// the guard failed (insufficient stock at commit time).
func (r *stockRepo) Deduct(tx *gorm.DB, id uuid.UUID, amount int, extra map[string]interface{}) (int64, error) {
	updates := map[string]interface{}{
		"quantity": gorm.Expr("quantity - ?", amount),
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := tx.Model(&model.StockItem{}).
		Where("id = ? AND quantity >= ?", id, amount).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *stockRepo) Updates(tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	return tx.Model(&model.StockItem{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *stockRepo) Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error {
	if err := tx.Model(&model.StockItem{}).
		Where("id = ?", id).
		Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return tx.Delete(&model.StockItem{}, "id = ?", id).Error
}

func (r *stockRepo) GetDashboardStats() (*DashboardStats, error) {
	var stats DashboardStats

	// Total Items
	r.db.Model(&model.StockItem{}).Count(&stats.TotalItems)

	// In Stock Items
	r.db.Model(&model.StockItem{}).Where("status = ?", model.StatusInStock).Count(&stats.InStockItems)

	// Low Stock Count
	r.db.Model(&model.StockItem{}).
		Where("status = ? AND quantity < ?", model.StatusInStock, model.LowStockThreshold).
		Count(&stats.LowStockCount)

	// Total Units (SUM of quantity across live items)
	r.db.Model(&model.StockItem{}).Select("COALESCE(SUM(quantity), 0)").Scan(&stats.TotalUnits)

	return &stats, nil
}
