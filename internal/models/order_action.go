package models

import "gorm.io/gorm"

// Kinds of OrderAction.
const (
	ActionPlace  = "place"
	ActionCancel = "cancel"
)

// OrderAction records one place or cancel request submitted from the dashboard.
type OrderAction struct {
	gorm.Model
	Kind      string    `gorm:"index;not null" json:"kind"`
	AccountID string    `gorm:"index" json:"account_id"`
	ClientID  string    `json:"client_id,omitempty"`
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction,omitempty"`
	Offset    Offset    `json:"offset,omitempty"`
	Price     float64   `json:"price,omitempty"`
	Volume    int64     `json:"volume,omitempty"`
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	Timestamp int64     `gorm:"index" json:"timestamp"` // unix millis
}
