package model

import (
	"time"

	"github.com/google/uuid"
)

type HistoryAction string

const (
	ActionAdded       HistoryAction = "Added"
	ActionRestocked   HistoryAction = "Restocked"
	ActionUpdated     HistoryAction = "Updated"
	ActionSent        HistoryAction = "Sent"
	ActionPartialSent HistoryAction = "Partial Sent"
	ActionUsed        HistoryAction = "Used"
	ActionPartialUsed HistoryAction = "Partial Used"
	ActionDeleted     HistoryAction = "Deleted"
)

// StockHistory is an append-only audit row. Exactly one row is written, in the
// same transaction, for every mutation of a StockItem. Rows are never updated
// or deleted; ItemID is nullable so the trail survives item deletion.
//
// Details keeps the human-readable sentence shown in the history feed; the
// structured delta lives in QuantityDelta / StationID / Printer so consumers
// never have to parse prose.
type StockHistory struct {
	ID     uint       `gorm:"primaryKey" json:"id"`
	ItemID *uuid.UUID `gorm:"type:uuid;index" json:"item_id,omitempty"`
	Item   *StockItem `gorm:"foreignKey:ItemID" json:"item,omitempty"`

	Action  HistoryAction `gorm:"type:varchar(20);not null" json:"action"`
	Details string        `gorm:"type:text" json:"details"`

	// Structured delta
	QuantityDelta int    `gorm:"not null;default:0" json:"quantity_delta"` // negative for disposals
	StationID     *uint  `json:"station_id,omitempty"`                     // disposition target, if any
	Printer       string `gorm:"type:varchar(255)" json:"printer,omitempty"`

	PerformedBy string    `gorm:"type:varchar(255)" json:"performed_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (StockHistory) TableName() string {
	return "stock_history"
}
