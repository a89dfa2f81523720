package repository

import (
	"testing"
	"time"

	"go-stock-ledger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.Station{}, &model.StockItem{}, &model.StockHistory{}))
	return db
}

func createItem(t *testing.T, db *gorm.DB, name string, qty int) *model.StockItem {
	t.Helper()
	item := &model.StockItem{
		ItemName: name,
		ItemType: "Toner",
		Quantity: qty,
		Status:   model.StatusInStock,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestDeductGuardsAgainstOverdraw(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStockRepo(db)
	item := createItem(t, db, "Toner X", 5)

	// Within available: applies
	rows, err := repo.Deduct(db, item.ID, 3, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)

	got, err := repo.FindByID(item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)

	// Beyond available: the guard rejects, nothing changes
	rows, err = repo.Deduct(db, item.ID, 3, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, rows)

	got, err = repo.FindByID(item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)
}

func TestDeductAppliesExtraUpdatesAtomically(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStockRepo(db)

	station := &model.Station{Name: "North"}
	require.NoError(t, db.Create(station).Error)
	item := createItem(t, db, "Toner X", 4)

	now := time.Now()
	rows, err := repo.Deduct(db, item.ID, 4, map[string]interface{}{
		"status":             model.StatusSent,
		"sent_to_station_id": station.ID,
		"sent_date":          now,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)

	got, err := repo.FindByID(item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)
	assert.Equal(t, model.StatusSent, got.Status)
	require.NotNil(t, got.SentToStationID)
	assert.Equal(t, station.ID, *got.SentToStationID)
}

func TestFindAllOrderAndFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStockRepo(db)

	createItem(t, db, "Zulu Drum", 100)
	createItem(t, db, "Alpha Toner", 2)
	b := createItem(t, db, "Bravo Toner", 15)

	items, err := repo.FindAll(StockFilter{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Alpha Toner", items[0].ItemName)
	assert.Equal(t, "Bravo Toner", items[1].ItemName)
	assert.Equal(t, "Zulu Drum", items[2].ItemName)

	low, err := repo.FindAll(StockFilter{LowStockOnly: true})
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Alpha Toner", low[0].ItemName)

	// Status filter excludes items that left In Stock
	require.NoError(t, db.Model(b).Updates(map[string]interface{}{
		"status": model.StatusUsed, "quantity": 0,
	}).Error)

	inStock, err := repo.FindAll(StockFilter{Status: model.StatusInStock})
	require.NoError(t, err)
	assert.Len(t, inStock, 2)
}

func TestGetDashboardStats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStockRepo(db)

	createItem(t, db, "Alpha Toner", 2)
	createItem(t, db, "Bravo Toner", 40)

	stats, err := repo.GetDashboardStats()
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalItems)
	assert.EqualValues(t, 2, stats.InStockItems)
	assert.EqualValues(t, 1, stats.LowStockCount)
	assert.EqualValues(t, 42, stats.TotalUnits)
}

func TestHistoryFeedOrderingAndMovement(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHistoryRepo(db)

	entries := []model.StockHistory{
		{Action: model.ActionAdded, Details: "Added 10 Toner X to stock", QuantityDelta: 10, PerformedBy: "Alice"},
		{Action: model.ActionPartialSent, Details: "Sent 3 Toner X to North, 7 items remain", QuantityDelta: -3, PerformedBy: "Alice"},
		{Action: model.ActionRestocked, Details: "Restocked 5 Toner X", QuantityDelta: 5, PerformedBy: "Bob"},
	}
	for i := range entries {
		require.NoError(t, repo.Create(db, &entries[i]))
	}

	recent, err := repo.FindRecent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, model.ActionRestocked, recent[0].Action, "newest first")

	movement, err := repo.GetStockMovement(time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, movement, 1)
	assert.Equal(t, 15, movement[0].Inbound)
	assert.Equal(t, 3, movement[0].Outbound)
}
