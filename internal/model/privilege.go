package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "stock:create"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Create Stock Item"
}

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	// User management
	{Code: "user:view", Name: "View User"},
	{Code: "user:create", Name: "Create User"},
	{Code: "user:update", Name: "Update User"},
	{Code: "user:delete", Name: "Delete User"},
	{Code: "user:update_privilege", Name: "Update User Privileges"},
	// Stock ledger
	{Code: "stock:view", Name: "View Stock"},
	{Code: "stock:create", Name: "Add Stock Item"},
	{Code: "stock:update", Name: "Edit Stock Item"},
	{Code: "stock:delete", Name: "Delete Stock Item"},
	{Code: "stock:dispose", Name: "Send / Use Stock"},
	{Code: "stock:restock", Name: "Restock"},
	// History feed
	{Code: "history:view", Name: "View Stock History"},
	// Stations
	{Code: "station:view", Name: "View Station"},
	{Code: "station:create", Name: "Create Station"},
	// Dashboard
	{Code: "dashboard:view", Name: "View Dashboard"},
}
