package service

import (
	"testing"

	"go-stock-ledger/internal/model"
	"go-stock-ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every session on the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Station{},
		&model.StockItem{},
		&model.StockHistory{},
	))

	return db
}

func newTestLedger(t testing.TB) (LedgerService, *gorm.DB, uint) {
	t.Helper()

	db := setupTestDB(t)

	station := &model.Station{Name: "Central Station", Location: "HQ"}
	require.NoError(t, db.Create(station).Error)

	svc := NewLedgerService(
		repository.NewStockRepo(db),
		repository.NewHistoryRepo(db),
		repository.NewStationRepo(db),
		db,
		nil, // no hub in tests
	)
	return svc, db, station.ID
}

var testActor = Actor{ID: "user-1", Name: "Alice", Username: "alice"}

func addToner(t testing.TB, svc LedgerService, qty int) *model.StockItem {
	t.Helper()
	item, err := svc.AddItem(&AddItemRequest{
		ItemName: "Toner X",
		ItemType: "Toner",
		Quantity: qty,
		Supplier: "ACME Supplies",
	}, testActor)
	require.NoError(t, err)
	return item
}

func TestAddItem(t *testing.T) {
	svc, _, _ := newTestLedger(t)

	item := addToner(t, svc, 10)
	assert.Equal(t, 10, item.Quantity)
	assert.Equal(t, model.StatusInStock, item.Status)

	history, err := svc.GetItemHistory(item.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.ActionAdded, history[0].Action)
	assert.Equal(t, 10, history[0].QuantityDelta)
	assert.Contains(t, history[0].Details, "10 Toner X")
	assert.Equal(t, "Alice", history[0].PerformedBy)
}

func TestAddItemValidation(t *testing.T) {
	svc, _, _ := newTestLedger(t)

	var vErr *ValidationError

	_, err := svc.AddItem(&AddItemRequest{ItemName: "", Quantity: 5}, testActor)
	require.ErrorAs(t, err, &vErr)

	_, err = svc.AddItem(&AddItemRequest{ItemName: "Toner X", Quantity: 0}, testActor)
	require.ErrorAs(t, err, &vErr)

	_, err = svc.AddItem(&AddItemRequest{ItemName: "Toner X", Quantity: -3}, testActor)
	require.ErrorAs(t, err, &vErr)
}

func TestDisposePartialSendKeepsItemInStock(t *testing.T) {
	svc, _, stationID := newTestLedger(t)
	item := addToner(t, svc, 10)

	got, err := svc.Dispose(item.ID, &DisposeRequest{
		Quantity:        3,
		Kind:            DisposeSent,
		RemainingPolicy: KeepRemainder,
		StationID:       &stationID,
	}, testActor)
	require.NoError(t, err)

	assert.Equal(t, 7, got.Quantity)
	assert.Equal(t, model.StatusInStock, got.Status)
	assert.Nil(t, got.SentToStationID, "partial send must not stamp disposition")
	assert.Nil(t, got.SentDate)

	history, err := svc.GetItemHistory(item.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.ActionPartialSent, history[0].Action)
	assert.Equal(t, -3, history[0].QuantityDelta)
	assert.Contains(t, history[0].Details, "3")
	assert.Contains(t, history[0].Details, "7 items remain")
	require.NotNil(t, history[0].StationID)
	assert.Equal(t, stationID, *history[0].StationID)
}

func TestDisposePartialSendToZeroStampsDisposition(t *testing.T) {
	svc, _, stationID := newTestLedger(t)
	item := addToner(t, svc, 7)

	got, err := svc.Dispose(item.ID, &DisposeRequest{
		Quantity:        7,
		Kind:            DisposeSent,
		RemainingPolicy: KeepRemainder,
		StationID:       &stationID,
	}, testActor)
	require.NoError(t, err)

	assert.Equal(t, 0, got.Quantity)
	assert.Equal(t, model.StatusSent, got.Status)
	require.NotNil(t, got.SentToStationID)
	assert.Equal(t, stationID, *got.SentToStationID)
	assert.NotNil(t, got.SentDate)
	require.NotNil(t, got.SentToStation)
	assert.Equal(t, "Central Station", got.SentToStation.Name)

	history, err := svc.GetItemHistory(item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionPartialSent, history[0].Action)
	assert.Contains(t, history[0].Details, "0 items remain")

	// Depleted: a further disposal fails until restocked
	_, err = svc.Dispose(item.ID, &DisposeRequest{
		Quantity:        1,
		Kind:            DisposeSent,
		RemainingPolicy: KeepRemainder,
		StationID:       &stationID,
	}, testActor)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 0, stockErr.Available)
}

func TestDisposeConsumeAllIgnoresRequestedQuantity(t *testing.T) {
	svc, _, stationID := newTestLedger(t)
	item := addToner(t, svc, 10)

	got, err := svc.Dispose(item.ID, &DisposeRequest{
		Quantity:        2,
		Kind:            DisposeSent,
		RemainingPolicy: ConsumeAll,
		StationID:       &stationID,
		Notes:           "whole box shipped",
	}, testActor)
	require.NoError(t, err)

	assert.Equal(t, 0, got.Quantity)
	assert.Equal(t, model.StatusSent, got.Status)
	assert.Equal(t, "whole box shipped", got.SentNotes)

	history, err := svc.GetItemHistory(item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionSent, history[0].Action)
	assert.Equal(t, -10, history[0].QuantityDelta, "the full original quantity is disposed")
	assert.Contains(t, history[0].Details, "all 10")
}

func TestDisposeUsedStampsPrinterFields(t *testing.T) {
	svc, _, stationID := newTestLedger(t)
	item := addToner(t, svc, 4)

	got, err := svc.Dispose(item.ID, &DisposeRequest{
		Quantity:        4,
		Kind:            DisposeUsed,
		RemainingPolicy: KeepRemainder,
		StationID:       &stationID,
		Printer:         "HP LaserJet 4200",
	}, testActor)
	require.NoError(t, err)

	assert.Equal(t, 0, got.Quantity)
	assert.Equal(t, model.StatusUsed, got.Status)
	assert.Equal(t, "HP LaserJet 4200", got.UsedForPrinter)
	require.NotNil(t, got.UsedAtStationID)
	assert.Equal(t, stationID, *got.UsedAtStationID)
	assert.Nil(t, got.SentToStationID)

	history, err := svc.GetItemHistory(item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionPartialUsed, history[0].Action)
	assert.Equal(t, "HP LaserJet 4200", history[0].Printer)
}

func TestDisposeInsufficientStock(t *testing.T) {
	svc, _, stationID := newTestLedger(t)
	item := addToner(t, svc, 10)

	_, err := svc.Dispose(item.ID, &DisposeRequest{
		Quantity:        12,
		Kind:            DisposeSent,
		RemainingPolicy: KeepRemainder,
		StationID:       &stationID,
	}, testActor)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 12, stockErr.Requested)
	assert.Equal(t, 10, stockErr.Available)

	// No partial effect: quantity unchanged, no history row added
	got, err := svc.GetItem(item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)
	assert.Equal(t, model.StatusInStock, got.Status)

	history, err := svc.GetItemHistory(item.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestDisposeValidation(t *testing.T) {
	svc, _, stationID := newTestLedger(t)
	item := addToner(t, svc, 5)

	var vErr *ValidationError

	// Station required for Sent
	_, err := svc.Dispose(item.ID, &DisposeRequest{
		Quantity:        1,
		Kind:            DisposeSent,
		RemainingPolicy: KeepRemainder,
	}, testActor)
	require.ErrorAs(t, err, &vErr)

	// Printer required for Used
	_, err = svc.Dispose(item.ID, &DisposeRequest{
		Quantity:        1,
		Kind:            DisposeUsed,
		RemainingPolicy: KeepRemainder,
		StationID:       &stationID,
	}, testActor)
	require.ErrorAs(t, err, &vErr)

	// Unknown station
	unknown := uint(9999)
	_, err = svc.Dispose(item.ID, &DisposeRequest{
		Quantity:        1,
		Kind:            DisposeSent,
		RemainingPolicy: KeepRemainder,
		StationID:       &unknown,
	}, testActor)
	require.ErrorIs(t, err, ErrStationNotFound)

	// Unknown item
	_, err = svc.Dispose(uuid.New(), &DisposeRequest{
		Quantity:        1,
		Kind:            DisposeSent,
		RemainingPolicy: KeepRemainder,
		StationID:       &stationID,
	}, testActor)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestRestockReopensAndKeepsStaleDisposition(t *testing.T) {
	svc, _, stationID := newTestLedger(t)
	item := addToner(t, svc, 7)

	_, err := svc.Dispose(item.ID, &DisposeRequest{
		Quantity:        7,
		Kind:            DisposeSent,
		RemainingPolicy: KeepRemainder,
		StationID:       &stationID,
	}, testActor)
	require.NoError(t, err)

	got, err := svc.Restock(item.ID, &RestockRequest{Quantity: 5}, testActor)
	require.NoError(t, err)

	assert.Equal(t, 5, got.Quantity)
	assert.Equal(t, model.StatusInStock, got.Status)
	// The previous disposition stays stamped after a restock
	require.NotNil(t, got.SentToStationID)
	assert.Equal(t, stationID, *got.SentToStationID)

	history, err := svc.GetItemHistory(item.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, model.ActionRestocked, history[0].Action)
	assert.Equal(t, 5, history[0].QuantityDelta)
}

func TestRestockRoundTrip(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	item := addToner(t, svc, 10)

	got, err := svc.Restock(item.ID, &RestockRequest{Quantity: 4}, testActor)
	require.NoError(t, err)
	assert.Equal(t, 14, got.Quantity)
	assert.Equal(t, model.StatusInStock, got.Status)

	_, err = svc.Restock(uuid.New(), &RestockRequest{Quantity: 1}, testActor)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestEditItemOverwritesFields(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	item := addToner(t, svc, 10)

	name := "Toner X Pro"
	qty := 25
	supplier := "New Supplier Ltd"
	got, err := svc.EditItem(item.ID, &EditItemRequest{
		ItemName: &name,
		Quantity: &qty,
		Supplier: &supplier,
	}, testActor)
	require.NoError(t, err)

	assert.Equal(t, "Toner X Pro", got.ItemName)
	assert.Equal(t, 25, got.Quantity)
	assert.Equal(t, "New Supplier Ltd", got.Supplier)
	assert.Equal(t, "Toner", got.ItemType, "untouched fields keep their value")

	history, err := svc.GetItemHistory(item.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.ActionUpdated, history[0].Action)
	assert.Equal(t, 15, history[0].QuantityDelta)

	bad := -1
	var vErr *ValidationError
	_, err = svc.EditItem(item.ID, &EditItemRequest{Quantity: &bad}, testActor)
	require.ErrorAs(t, err, &vErr)
}

func TestDeleteItemKeepsHistory(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	item := addToner(t, svc, 10)

	require.NoError(t, svc.DeleteItem(item.ID, testActor))

	_, err := svc.GetItem(item.ID)
	require.ErrorIs(t, err, ErrItemNotFound)

	// The audit trail survives deletion, including the Deleted row
	history, err := svc.GetItemHistory(item.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.ActionDeleted, history[0].Action)
	assert.Equal(t, -10, history[0].QuantityDelta)
	assert.Equal(t, model.ActionAdded, history[1].Action)

	require.ErrorIs(t, svc.DeleteItem(item.ID, testActor), ErrItemNotFound)
}

func TestListItemsFiltersAndOrdering(t *testing.T) {
	svc, _, stationID := newTestLedger(t)

	for _, tc := range []struct {
		name string
		typ  string
		qty  int
	}{
		{"Zebra Ribbon", "Ribbon", 50},
		{"Alpha Toner", "Toner", 3},
		{"Mid Drum", "Drum", 30},
	} {
		_, err := svc.AddItem(&AddItemRequest{ItemName: tc.name, ItemType: tc.typ, Quantity: tc.qty}, testActor)
		require.NoError(t, err)
	}

	items, err := svc.ListItems(repository.StockFilter{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Alpha Toner", items[0].ItemName)
	assert.Equal(t, "Mid Drum", items[1].ItemName)
	assert.Equal(t, "Zebra Ribbon", items[2].ItemName)

	toners, err := svc.ListItems(repository.StockFilter{ItemType: "Toner"})
	require.NoError(t, err)
	require.Len(t, toners, 1)
	assert.Equal(t, "Alpha Toner", toners[0].ItemName)

	low, err := svc.ListItems(repository.StockFilter{LowStockOnly: true})
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Alpha Toner", low[0].ItemName)

	// Send everything from the drum, then filter by status
	_, err = svc.Dispose(items[1].ID, &DisposeRequest{
		Quantity:        30,
		Kind:            DisposeSent,
		RemainingPolicy: KeepRemainder,
		StationID:       &stationID,
	}, testActor)
	require.NoError(t, err)

	sent, err := svc.ListItems(repository.StockFilter{Status: model.StatusSent})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "Mid Drum", sent[0].ItemName)
}

func TestRecentHistoryFeedIsBounded(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	item := addToner(t, svc, 1)
	for i := 0; i < 5; i++ {
		_, err := svc.Restock(item.ID, &RestockRequest{Quantity: 1}, testActor)
		require.NoError(t, err)
	}

	feed, err := svc.GetRecentHistory(3)
	require.NoError(t, err)
	assert.Len(t, feed, 3)
	assert.Equal(t, model.ActionRestocked, feed[0].Action)

	all, err := svc.GetRecentHistory(0)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

// History for one item only ever grows, one row per mutation.
func TestHistoryGrowsMonotonically(t *testing.T) {
	svc, db, stationID := newTestLedger(t)
	item := addToner(t, svc, 20)

	historyRepo := repository.NewHistoryRepo(db)
	count := func() int64 {
		n, err := historyRepo.CountByItemID(item.ID)
		require.NoError(t, err)
		return n
	}
	require.EqualValues(t, 1, count())

	_, err := svc.Dispose(item.ID, &DisposeRequest{
		Quantity: 5, Kind: DisposeSent, RemainingPolicy: KeepRemainder, StationID: &stationID,
	}, testActor)
	require.NoError(t, err)
	require.EqualValues(t, 2, count())

	_, err = svc.Restock(item.ID, &RestockRequest{Quantity: 2}, testActor)
	require.NoError(t, err)
	require.EqualValues(t, 3, count())

	// Failed operations add nothing
	_, err = svc.Dispose(item.ID, &DisposeRequest{
		Quantity: 1000, Kind: DisposeSent, RemainingPolicy: KeepRemainder, StationID: &stationID,
	}, testActor)
	require.Error(t, err)
	require.EqualValues(t, 3, count())
}
