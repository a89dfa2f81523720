package model

// Station is a physical location that stock can be sent to or consumed at.
// Owned by the CRUD layer; the ledger only reads it.
type Station struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"type:varchar(150);uniqueIndex;not null" json:"name" validate:"required"`
	Location string `gorm:"type:varchar(200)" json:"location"`
}
