package entities

import (
	"time"

	"github.com/google/uuid"
)

// AlertState persists the expiry-alert cooldown clock per user so a process
// restart cannot repeat an alert inside the cooldown window.
type AlertState struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID        uuid.UUID `gorm:"uniqueIndex" json:"user_id"`
	LastAlertTime time.Time `json:"last_alert_time"`

	User *User `gorm:"foreignKey:UserID"`
	Timestamp
}
