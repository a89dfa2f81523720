package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"go-stock-ledger/internal/model"
	"go-stock-ledger/internal/repository"
	"go-stock-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLedger returns canned results so the handler's status mapping can be
// tested without a database.
type stubLedger struct {
	item *model.StockItem
	err  error
}

func (s *stubLedger) AddItem(req *service.AddItemRequest, actor service.Actor) (*model.StockItem, error) {
	return s.item, s.err
}
func (s *stubLedger) Restock(id uuid.UUID, req *service.RestockRequest, actor service.Actor) (*model.StockItem, error) {
	return s.item, s.err
}
func (s *stubLedger) Dispose(id uuid.UUID, req *service.DisposeRequest, actor service.Actor) (*model.StockItem, error) {
	return s.item, s.err
}
func (s *stubLedger) EditItem(id uuid.UUID, req *service.EditItemRequest, actor service.Actor) (*model.StockItem, error) {
	return s.item, s.err
}
func (s *stubLedger) DeleteItem(id uuid.UUID, actor service.Actor) error {
	return s.err
}
func (s *stubLedger) GetItem(id uuid.UUID) (*model.StockItem, error) {
	return s.item, s.err
}
func (s *stubLedger) ListItems(filter repository.StockFilter) ([]model.StockItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []model.StockItem{}, nil
}
func (s *stubLedger) GetItemHistory(id uuid.UUID) ([]model.StockHistory, error) {
	return nil, s.err
}
func (s *stubLedger) GetRecentHistory(limit int) ([]model.StockHistory, error) {
	return nil, s.err
}

func newTestApp(stub *stubLedger) *fiber.App {
	h := NewStockHandler(stub)
	app := fiber.New()
	app.Get("/stock", h.GetItems)
	app.Post("/stock", h.AddItem)
	app.Get("/stock/:id", h.GetItem)
	app.Post("/stock/:id/dispose", h.Dispose)
	return app
}

func TestAddItemReturns201(t *testing.T) {
	stub := &stubLedger{item: &model.StockItem{ItemName: "Toner X", Quantity: 10, Status: model.StatusInStock}}
	app := newTestApp(stub)

	body, _ := json.Marshal(fiber.Map{"item_name": "Toner X", "quantity": 10})
	req := httptest.NewRequest("POST", "/stock", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
}

func TestValidationErrorMapsTo400(t *testing.T) {
	stub := &stubLedger{err: &service.ValidationError{Field: "quantity", Reason: "failed on tag 'gt'"}}
	app := newTestApp(stub)

	body, _ := json.Marshal(fiber.Map{"item_name": "Toner X", "quantity": 0})
	req := httptest.NewRequest("POST", "/stock", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestNotFoundMapsTo404(t *testing.T) {
	stub := &stubLedger{err: service.ErrItemNotFound}
	app := newTestApp(stub)

	req := httptest.NewRequest("GET", "/stock/"+uuid.New().String(), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestInvalidUUIDMapsTo400(t *testing.T) {
	app := newTestApp(&stubLedger{})

	req := httptest.NewRequest("GET", "/stock/not-a-uuid", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestInsufficientStockMapsTo409WithAvailable(t *testing.T) {
	stub := &stubLedger{err: &service.InsufficientStockError{Requested: 12, Available: 10}}
	app := newTestApp(stub)

	station := uint(5)
	body, _ := json.Marshal(service.DisposeRequest{
		Quantity:        12,
		Kind:            service.DisposeSent,
		RemainingPolicy: service.KeepRemainder,
		StationID:       &station,
	})
	req := httptest.NewRequest("POST", "/stock/"+uuid.New().String()+"/dispose", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.EqualValues(t, 10, payload["available"])
	assert.EqualValues(t, 12, payload["requested"])
}
