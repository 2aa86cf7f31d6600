package events

import "time"

// ProductChangeEvent announces any insert/update/delete on a user's products.
// Consumers treat it as a coarse signal and refetch the affected user's
// lists; no granular diff is carried.
type ProductChangeEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeProductCreated = "product.created"
	EventTypeProductUpdated = "product.updated"
	EventTypeProductDeleted = "product.deleted"
	EventTypeProductUsed    = "product.used"
)

// Kafka topics
const (
	TopicProductChanges = "product-events"
)
