package entities

import (
	"github.com/google/uuid"
)

// Category holds user-created categories. Categories remain an open string
// set: defaults are seeded in code and merged with these rows at read time.
type Category struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID uuid.UUID `gorm:"index:idx_user_category,unique" json:"user_id"`
	Name   string    `gorm:"index:idx_user_category,unique" json:"name"`

	User *User `gorm:"foreignKey:UserID"`
	Timestamp
}
