package service

import (
	"errors"
	"fmt"
	"time"

	"go-stock-ledger/internal/model"
	"go-stock-ledger/internal/repository"
	"go-stock-ledger/internal/ws"
	"go-stock-ledger/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Actor identifies the authenticated user performing a ledger operation.
// The request layer builds it from the JWT claims; the ledger never reads
// ambient session state.
type Actor struct {
	ID       string
	Name     string
	Username string
}

type DisposeKind string

const (
	DisposeSent DisposeKind = "Sent"
	DisposeUsed DisposeKind = "Used"
)

type RemainingPolicy string

const (
	// ConsumeAll disposes the entire current quantity regardless of the
	// requested amount.
	ConsumeAll RemainingPolicy = "consume_all"
	// KeepRemainder deducts exactly the requested amount and keeps the item
	// In Stock while anything remains.
	KeepRemainder RemainingPolicy = "keep_remainder"
)

type AddItemRequest struct {
	ItemName       string  `json:"item_name" validate:"required"`
	ItemType       string  `json:"item_type"`
	Quantity       int     `json:"quantity" validate:"required,gt=0"`
	PurchaseDate   *string `json:"purchase_date"` // Format: YYYY-MM-DD
	Supplier       string  `json:"supplier"`
	ModelNumber    string  `json:"model_number"`
	CompatibleWith string  `json:"compatible_with"`
	Notes          string  `json:"notes"`
}

type RestockRequest struct {
	Quantity     int     `json:"quantity" validate:"required,gt=0"`
	PurchaseDate *string `json:"purchase_date"` // Format: YYYY-MM-DD
}

type DisposeRequest struct {
	Quantity        int             `json:"quantity" validate:"required,gt=0"`
	Kind            DisposeKind     `json:"kind" validate:"required,oneof=Sent Used"`
	RemainingPolicy RemainingPolicy `json:"remaining_policy" validate:"required,oneof=consume_all keep_remainder"`
	StationID       *uint           `json:"station_id"` // destination (Sent) or location (Used)
	Printer         string          `json:"printer"`    // required for Used
	Date            *string         `json:"date"`       // Format: YYYY-MM-DD, defaults to today
	Notes           string          `json:"notes"`
}

// EditItemRequest is a corrective edit: nil fields are left untouched, set
// fields overwrite directly. Quantity is NOT re-validated against disposition
// state, matching the original system.
type EditItemRequest struct {
	ItemName       *string `json:"item_name"`
	ItemType       *string `json:"item_type"`
	Quantity       *int    `json:"quantity"`
	PurchaseDate   *string `json:"purchase_date"` // Format: YYYY-MM-DD
	Supplier       *string `json:"supplier"`
	ModelNumber    *string `json:"model_number"`
	CompatibleWith *string `json:"compatible_with"`
	Notes          *string `json:"notes"`
}

type LedgerService interface {
	AddItem(req *AddItemRequest, actor Actor) (*model.StockItem, error)
	Restock(itemID uuid.UUID, req *RestockRequest, actor Actor) (*model.StockItem, error)
	Dispose(itemID uuid.UUID, req *DisposeRequest, actor Actor) (*model.StockItem, error)
	EditItem(itemID uuid.UUID, req *EditItemRequest, actor Actor) (*model.StockItem, error)
	DeleteItem(itemID uuid.UUID, actor Actor) error
	GetItem(itemID uuid.UUID) (*model.StockItem, error)
	ListItems(filter repository.StockFilter) ([]model.StockItem, error)
	GetItemHistory(itemID uuid.UUID) ([]model.StockHistory, error)
	GetRecentHistory(limit int) ([]model.StockHistory, error)
}

type ledgerService struct {
	stockRepo   repository.StockRepository
	historyRepo repository.HistoryRepository
	stationRepo repository.StationRepository
	db          *gorm.DB
	wsHub       *ws.Hub
}

func NewLedgerService(sRepo repository.StockRepository, hRepo repository.HistoryRepository, stRepo repository.StationRepository, db *gorm.DB, hub *ws.Hub) LedgerService {
	return &ledgerService{
		stockRepo:   sRepo,
		historyRepo: hRepo,
		stationRepo: stRepo,
		db:          db,
		wsHub:       hub,
	}
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func validateStruct(data interface{}) error {
	if errs := validator.ValidateStruct(data); len(errs) > 0 {
		firstErr := errs[0]
		return newValidationError(firstErr.FailedField, "failed on tag '"+firstErr.Tag+"'")
	}
	return nil
}

func (s *ledgerService) AddItem(req *AddItemRequest, actor Actor) (*model.StockItem, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	purchaseDate, err := parseDate(req.PurchaseDate)
	if err != nil {
		return nil, newValidationError("purchase_date", "must be YYYY-MM-DD")
	}

	item := &model.StockItem{
		ItemName:       req.ItemName,
		ItemType:       req.ItemType,
		Quantity:       req.Quantity,
		Status:         model.StatusInStock,
		PurchaseDate:   purchaseDate,
		Supplier:       req.Supplier,
		ModelNumber:    req.ModelNumber,
		CompatibleWith: req.CompatibleWith,
		Notes:          req.Notes,
	}
	item.CreatedBy = actor.ID
	item.UpdatedBy = actor.ID

	// Item insert and its audit row commit together
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.stockRepo.Create(tx, item); err != nil {
			return err
		}

		itemID := item.ID
		entry := &model.StockHistory{
			ItemID:        &itemID,
			Action:        model.ActionAdded,
			Details:       fmt.Sprintf("Added %d %s to stock", item.Quantity, item.ItemName),
			QuantityDelta: item.Quantity,
			PerformedBy:   actor.Name,
		}
		return s.historyRepo.Create(tx, entry)
	})
	if err != nil {
		return nil, err
	}

	go s.wsHub.Publish("stock_update", "item_added", map[string]interface{}{
		"item": map[string]interface{}{
			"id":        item.ID,
			"item_name": item.ItemName,
			"quantity":  item.Quantity,
			"status":    item.Status,
		},
		"message": fmt.Sprintf("%s added %d %s to stock", actor.Name, item.Quantity, item.ItemName),
	})

	return item, nil
}

func (s *ledgerService) Restock(itemID uuid.UUID, req *RestockRequest, actor Actor) (*model.StockItem, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	purchaseDate, err := parseDate(req.PurchaseDate)
	if err != nil {
		return nil, newValidationError("purchase_date", "must be YYYY-MM-DD")
	}

	var itemName string
	err = s.db.Transaction(func(tx *gorm.DB) error {
		item, err := s.stockRepo.FindByIDTx(tx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}
		itemName = item.ItemName

		// Restock always reopens the item. Prior disposition fields are left
		// stamped on purpose (observed behavior of the original system).
		updates := map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", req.Quantity),
			"status":     model.StatusInStock,
			"updated_by": actor.ID,
		}
		if purchaseDate != nil {
			updates["purchase_date"] = *purchaseDate
		}
		if err := s.stockRepo.Updates(tx, itemID, updates); err != nil {
			return err
		}

		details := fmt.Sprintf("Restocked %d %s", req.Quantity, item.ItemName)
		if req.PurchaseDate != nil && *req.PurchaseDate != "" {
			details += fmt.Sprintf(", purchased %s", *req.PurchaseDate)
		}
		entry := &model.StockHistory{
			ItemID:        &itemID,
			Action:        model.ActionRestocked,
			Details:       details,
			QuantityDelta: req.Quantity,
			PerformedBy:   actor.Name,
		}
		return s.historyRepo.Create(tx, entry)
	})
	if err != nil {
		return nil, err
	}

	go s.wsHub.Publish("stock_update", "item_restocked", map[string]interface{}{
		"item_id": itemID,
		"message": fmt.Sprintf("%s restocked %d %s", actor.Name, req.Quantity, itemName),
	})

	return s.stockRepo.FindByID(itemID)
}

func (s *ledgerService) Dispose(itemID uuid.UUID, req *DisposeRequest, actor Actor) (*model.StockItem, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	// Disposition-specific required fields
	if req.StationID == nil {
		return nil, newValidationError("station_id", "is required")
	}
	if req.Kind == DisposeUsed && req.Printer == "" {
		return nil, newValidationError("printer", "is required when marking stock as used")
	}

	station, err := s.stationRepo.FindByID(*req.StationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}

	dispDate, err := parseDate(req.Date)
	if err != nil {
		return nil, newValidationError("date", "must be YYYY-MM-DD")
	}
	if dispDate == nil {
		now := time.Now()
		dispDate = &now
	}

	var action model.HistoryAction
	var details, message string
	var disposed int

	err = s.db.Transaction(func(tx *gorm.DB) error {
		item, err := s.stockRepo.FindByIDTx(tx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}

		if req.Quantity > item.Quantity {
			return &InsufficientStockError{Requested: req.Quantity, Available: item.Quantity}
		}

		disposed = req.Quantity
		if req.RemainingPolicy == ConsumeAll {
			disposed = item.Quantity
		}
		remaining := item.Quantity - disposed

		extra := map[string]interface{}{"updated_by": actor.ID}
		if remaining == 0 {
			// Depleted: advance to the terminal status and stamp the
			// disposition fields.
			if req.Kind == DisposeSent {
				extra["status"] = model.StatusSent
				extra["sent_to_station_id"] = *req.StationID
				extra["sent_date"] = *dispDate
				extra["sent_notes"] = req.Notes
			} else {
				extra["status"] = model.StatusUsed
				extra["used_for_printer"] = req.Printer
				extra["used_at_station_id"] = *req.StationID
				extra["used_date"] = *dispDate
				extra["usage_notes"] = req.Notes
			}
		}

		rows, err := s.stockRepo.Deduct(tx, itemID, disposed, extra)
		if err != nil {
			return err
		}
		if rows == 0 {
			// Lost the compare-and-set race: someone else consumed stock
			// between our read and our write.
			current, err := s.stockRepo.FindByIDTx(tx, itemID)
			if err != nil {
				return ErrItemNotFound
			}
			return &InsufficientStockError{Requested: disposed, Available: current.Quantity}
		}

		switch {
		case req.Kind == DisposeSent && req.RemainingPolicy == ConsumeAll:
			action = model.ActionSent
			details = fmt.Sprintf("Sent all %d %s to %s", disposed, item.ItemName, station.Name)
		case req.Kind == DisposeSent:
			action = model.ActionPartialSent
			details = fmt.Sprintf("Sent %d %s to %s, %d items remain", disposed, item.ItemName, station.Name, remaining)
		case req.Kind == DisposeUsed && req.RemainingPolicy == ConsumeAll:
			action = model.ActionUsed
			details = fmt.Sprintf("Used all %d %s for %s at %s", disposed, item.ItemName, req.Printer, station.Name)
		default:
			action = model.ActionPartialUsed
			details = fmt.Sprintf("Used %d %s for %s at %s, %d items remain", disposed, item.ItemName, req.Printer, station.Name, remaining)
		}
		message = fmt.Sprintf("%s: %s", actor.Name, details)

		entry := &model.StockHistory{
			ItemID:        &itemID,
			Action:        action,
			Details:       details,
			QuantityDelta: -disposed,
			StationID:     req.StationID,
			Printer:       req.Printer,
			PerformedBy:   actor.Name,
		}
		return s.historyRepo.Create(tx, entry)
	})
	if err != nil {
		return nil, err
	}

	go s.wsHub.Publish("stock_update", "item_disposed", map[string]interface{}{
		"item_id":  itemID,
		"kind":     req.Kind,
		"quantity": disposed,
		"message":  message,
	})

	return s.stockRepo.FindByID(itemID)
}

func (s *ledgerService) EditItem(itemID uuid.UUID, req *EditItemRequest, actor Actor) (*model.StockItem, error) {
	if req.ItemName != nil && *req.ItemName == "" {
		return nil, newValidationError("item_name", "must not be empty")
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		return nil, newValidationError("quantity", "must not be negative")
	}

	purchaseDate, err := parseDate(req.PurchaseDate)
	if err != nil {
		return nil, newValidationError("purchase_date", "must be YYYY-MM-DD")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		item, err := s.stockRepo.FindByIDTx(tx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}

		updates := map[string]interface{}{"updated_by": actor.ID}
		name := item.ItemName
		delta := 0
		if req.ItemName != nil {
			updates["item_name"] = *req.ItemName
			name = *req.ItemName
		}
		if req.ItemType != nil {
			updates["item_type"] = *req.ItemType
		}
		if req.Quantity != nil {
			updates["quantity"] = *req.Quantity
			delta = *req.Quantity - item.Quantity
		}
		if purchaseDate != nil {
			updates["purchase_date"] = *purchaseDate
		}
		if req.Supplier != nil {
			updates["supplier"] = *req.Supplier
		}
		if req.ModelNumber != nil {
			updates["model_number"] = *req.ModelNumber
		}
		if req.CompatibleWith != nil {
			updates["compatible_with"] = *req.CompatibleWith
		}
		if req.Notes != nil {
			updates["notes"] = *req.Notes
		}

		if err := s.stockRepo.Updates(tx, itemID, updates); err != nil {
			return err
		}

		entry := &model.StockHistory{
			ItemID:        &itemID,
			Action:        model.ActionUpdated,
			Details:       fmt.Sprintf("Updated details of %s", name),
			QuantityDelta: delta,
			PerformedBy:   actor.Name,
		}
		return s.historyRepo.Create(tx, entry)
	})
	if err != nil {
		return nil, err
	}

	go s.wsHub.Publish("stock_update", "item_updated", map[string]interface{}{
		"item_id": itemID,
		"message": fmt.Sprintf("%s updated a stock item", actor.Name),
	})

	return s.stockRepo.FindByID(itemID)
}

func (s *ledgerService) DeleteItem(itemID uuid.UUID, actor Actor) error {
	var itemName string

	err := s.db.Transaction(func(tx *gorm.DB) error {
		item, err := s.stockRepo.FindByIDTx(tx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}
		itemName = item.ItemName

		// The audit row goes in before the row is removed and survives it.
		entry := &model.StockHistory{
			ItemID:        &itemID,
			Action:        model.ActionDeleted,
			Details:       fmt.Sprintf("Deleted %s from stock", item.ItemName),
			QuantityDelta: -item.Quantity,
			PerformedBy:   actor.Name,
		}
		if err := s.historyRepo.Create(tx, entry); err != nil {
			return err
		}

		return s.stockRepo.Delete(tx, itemID, actor.ID)
	})
	if err != nil {
		return err
	}

	go s.wsHub.Publish("stock_update", "item_deleted", map[string]interface{}{
		"item_id": itemID,
		"message": fmt.Sprintf("%s deleted %s from stock", actor.Name, itemName),
	})

	return nil
}

func (s *ledgerService) GetItem(itemID uuid.UUID) (*model.StockItem, error) {
	item, err := s.stockRepo.FindByID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *ledgerService) ListItems(filter repository.StockFilter) ([]model.StockItem, error) {
	return s.stockRepo.FindAll(filter)
}

// GetItemHistory returns the full trail for one item, newest first. It does
// not require the item to still exist: the trail outlives deletion.
func (s *ledgerService) GetItemHistory(itemID uuid.UUID) ([]model.StockHistory, error) {
	return s.historyRepo.FindByItemID(itemID)
}

func (s *ledgerService) GetRecentHistory(limit int) ([]model.StockHistory, error) {
	return s.historyRepo.FindRecent(limit)
}
