package entities

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID     uuid.UUID `gorm:"index" json:"user_id"`
	Name       string    `json:"name"`
	Category   string    `gorm:"index" json:"category"`
	ExpiryDate time.Time `gorm:"type:date" json:"expiry_date"`
	Quantity   int       `gorm:"default:1" json:"quantity"`
	Notes      string    `json:"notes,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`

	User *User `gorm:"foreignKey:UserID"`
	Timestamp
}

// ProductWithDaysLeft maps the products_with_days_left view. days_left is
// derived server-side and never persisted on the base table.
type ProductWithDaysLeft struct {
	Product
	DaysLeft int `json:"days_left"`
}

func (ProductWithDaysLeft) TableName() string {
	return "products_with_days_left"
}
