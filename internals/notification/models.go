package notification

import "time"

// Notification kinds.
const (
	KindRegistered   = "registered"
	KindUnregistered = "unregistered"
	KindSlotAssigned = "slot_assigned"
	KindKicked       = "kicked"
	KindScrimUpdate  = "scrim_update"
)

// Notifications Table structure.
type Notification struct {
	ID          int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID      int       `json:"user_id" gorm:"index;not null"`
	Kind        string    `json:"kind" gorm:"not null"`
	Description string    `json:"description" gorm:"not null"`
	Status      string    `json:"status" gorm:"default:'unseen';not null"`
	CreatedAt   time.Time `json:"created_at"`
}
