package model

import "time"

type StockStatus string

const (
	StatusInStock StockStatus = "In Stock"
	StatusSent    StockStatus = "Sent"
	StatusUsed    StockStatus = "Used"
)

// LowStockThreshold marks items that should surface in the low-stock feed.
const LowStockThreshold = 10

// StockItem is a consumable inventory record (toner, drums, cables, ...).
//
// The disposition fields are only stamped once the entire remaining quantity
// leaves "In Stock": either shipped to a station (Sent) or consumed for a
// printer (Used). Restock reopens a fully consumed item without clearing the
// previous disposition.
type StockItem struct {
	BaseModel
	ItemName string      `gorm:"type:varchar(255);not null" json:"item_name" validate:"required"`
	ItemType string      `gorm:"type:varchar(100)" json:"item_type"` // free-form category, e.g. "Toner"
	Quantity int         `gorm:"not null;default:0" json:"quantity"`
	Status   StockStatus `gorm:"type:varchar(20);not null;default:'In Stock'" json:"status"`

	PurchaseDate   *time.Time `gorm:"type:date" json:"purchase_date,omitempty"`
	Supplier       string     `gorm:"type:varchar(255)" json:"supplier"`
	ModelNumber    string     `gorm:"type:varchar(255)" json:"model_number"`
	CompatibleWith string     `gorm:"type:varchar(255)" json:"compatible_with"`
	Notes          string     `gorm:"type:text" json:"notes"`

	// Sent disposition
	SentToStationID *uint      `gorm:"index" json:"sent_to_station_id,omitempty"`
	SentToStation   *Station   `gorm:"foreignKey:SentToStationID" json:"sent_to_station,omitempty"`
	SentDate        *time.Time `gorm:"type:date" json:"sent_date,omitempty"`
	SentNotes       string     `gorm:"type:text" json:"sent_notes"`

	// Used disposition
	UsedForPrinter  string     `gorm:"type:varchar(255)" json:"used_for_printer"`
	UsedAtStationID *uint      `gorm:"index" json:"used_at_station_id,omitempty"`
	UsedAtStation   *Station   `gorm:"foreignKey:UsedAtStationID" json:"used_at_station,omitempty"`
	UsedDate        *time.Time `gorm:"type:date" json:"used_date,omitempty"`
	UsageNotes      string     `gorm:"type:text" json:"usage_notes"`
}

// TableName specifies the table name for GORM
func (StockItem) TableName() string {
	return "stock_items"
}

// IsLowStock reports whether the item should appear in the low-stock feed.
func (i *StockItem) IsLowStock() bool {
	return i.Status == StatusInStock && i.Quantity < LowStockThreshold
}
