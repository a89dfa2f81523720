package handler

import (
	"errors"
	"strconv"

	"go-stock-ledger/internal/model"
	"go-stock-ledger/internal/repository"
	"go-stock-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type StockHandler struct {
	service service.LedgerService
}

func NewStockHandler(s service.LedgerService) *StockHandler {
	return &StockHandler{service: s}
}

// getActor builds the acting-user context from the JWT claims set by the
// auth middleware.
func getActor(c *fiber.Ctx) service.Actor {
	actor := service.Actor{ID: "system", Name: "Unknown"}
	if v := c.Locals("user_id"); v != nil {
		actor.ID = v.(string)
	}
	if v := c.Locals("user_name"); v != nil {
		actor.Name = v.(string)
	}
	if v := c.Locals("username"); v != nil {
		actor.Username = v.(string)
	}
	return actor
}

// ledgerError maps the ledger's typed errors onto HTTP statuses.
func ledgerError(c *fiber.Ctx, err error) error {
	var vErr *service.ValidationError
	var stockErr *service.InsufficientStockError

	switch {
	case errors.Is(err, service.ErrItemNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrStationNotFound):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &vErr):
		return c.Status(400).JSON(fiber.Map{"error": vErr.Error()})
	case errors.As(err, &stockErr):
		return c.Status(409).JSON(fiber.Map{
			"error":     stockErr.Error(),
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	default:
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
}

func parseItemID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

// GetItems lists stock items, item_name ascending
// Query params: type, status, low_stock
func (h *StockHandler) GetItems(c *fiber.Ctx) error {
	filter := repository.StockFilter{
		ItemType: c.Query("type"),
		Status:   model.StockStatus(c.Query("status")),
	}
	if c.Query("low_stock") == "true" {
		filter.LowStockOnly = true
	}

	items, err := h.service.ListItems(filter)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(items)
}

func (h *StockHandler) GetItem(c *fiber.Ctx) error {
	id, err := parseItemID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	item, err := h.service.GetItem(id)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(item)
}

func (h *StockHandler) AddItem(c *fiber.Ctx) error {
	var req service.AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	item, err := h.service.AddItem(&req, getActor(c))
	if err != nil {
		return ledgerError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Stock item added", "data": item})
}

func (h *StockHandler) EditItem(c *fiber.Ctx) error {
	id, err := parseItemID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	var req service.EditItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	item, err := h.service.EditItem(id, &req, getActor(c))
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock item updated", "data": item})
}

func (h *StockHandler) DeleteItem(c *fiber.Ctx) error {
	id, err := parseItemID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	if err := h.service.DeleteItem(id, getActor(c)); err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock item deleted"})
}

// Dispose marks stock as sent to a station or used for a printer
// POST /api/v1/stock/:id/dispose
func (h *StockHandler) Dispose(c *fiber.Ctx) error {
	id, err := parseItemID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	var req service.DisposeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	item, err := h.service.Dispose(id, &req, getActor(c))
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock disposed", "data": item})
}

// Restock adds quantity back and reopens the item
// POST /api/v1/stock/:id/restock
func (h *StockHandler) Restock(c *fiber.Ctx) error {
	id, err := parseItemID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	var req service.RestockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	item, err := h.service.Restock(id, &req, getActor(c))
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock restocked", "data": item})
}

// GetItemHistory returns the audit trail of one item, newest first
func (h *StockHandler) GetItemHistory(c *fiber.Ctx) error {
	id, err := parseItemID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	entries, err := h.service.GetItemHistory(id)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(entries)
}

// GetRecentHistory returns the bounded all-items feed
// Query params: limit (default 50, max 200)
func (h *StockHandler) GetRecentHistory(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	entries, err := h.service.GetRecentHistory(limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(entries)
}
