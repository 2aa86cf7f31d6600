package entities

import (
	"github.com/google/uuid"
)

// DeviceToken stores an Expo push token per device. Registration is
// best-effort on the client side (simulators never produce one), so a user
// may have zero tokens and alert delivery silently degrades to email only.
type DeviceToken struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID   uuid.UUID `gorm:"index" json:"user_id"`
	Token    string    `gorm:"uniqueIndex" json:"token"`
	Platform string    `json:"platform"` // "ios", "android"

	User *User `gorm:"foreignKey:UserID"`
	Timestamp
}
