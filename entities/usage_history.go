package entities

import (
	"github.com/google/uuid"
)

// UsageHistory is written exactly once per mark-as-used action and is never
// mutated or deleted afterwards. Product name and category are snapshots, so
// the row survives deletion of the product itself.
type UsageHistory struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID           uuid.UUID `gorm:"index" json:"user_id"`
	ProductID        uuid.UUID `json:"product_id"`
	ProductName      string    `json:"product_name"`
	ProductCategory  string    `json:"product_category"`
	QuantityUsed     int       `json:"quantity_used"`
	WasExpired       bool      `json:"was_expired"`
	DaysBeforeExpiry int       `json:"days_before_expiry"` // negative when used after expiry
	UsageNotes       string    `json:"usage_notes,omitempty"`

	User *User `gorm:"foreignKey:UserID"`
	Timestamp
}
