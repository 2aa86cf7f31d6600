package entities

import (
	"github.com/google/uuid"
)

// UserStatistics is a server-maintained aggregate. The mark_product_as_used
// procedure and the product triggers keep it current; the API only reads it.
type UserStatistics struct {
	ID                      uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID                  uuid.UUID `gorm:"uniqueIndex" json:"user_id"`
	TotalProductsAdded      int       `json:"total_products_added"`
	TotalProductsUsed       int       `json:"total_products_used"`
	TotalProductsExpired    int       `json:"total_products_expired"`
	ActiveProducts          int       `json:"active_products"`
	ProductsUsedBeforeExpiry int      `json:"products_used_before_expiry"`
	ProductsUsedAfterExpiry int       `json:"products_used_after_expiry"`

	User *User `gorm:"foreignKey:UserID"`
	Timestamp
}
