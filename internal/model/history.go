package model

import (
	"time"

	"github.com/google/uuid"
)

// HistoryAction enum constants — one per lifecycle transition
const (
	ActionSubmitted    = "SUBMITTED"
	ActionApproved     = "APPROVED"
	ActionRejected     = "REJECTED"
	ActionPaused       = "PAUSED"
	ActionActivated    = "ACTIVATED"
	ActionClosed       = "CLOSED"
	ActionReminderSent = "REMINDER_SENT"
)

// HistoryEntry is an immutable audit record of one lifecycle transition.
// Entries are only ever appended — never updated or deleted.
type HistoryEntry struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"request_id"`
	ActorUserID *uuid.UUID `gorm:"type:uuid;index" json:"actor_user_id"` // nullable for system-originated entries
	Actor       *User      `gorm:"foreignKey:ActorUserID" json:"actor,omitempty"`
	Action      string     `gorm:"type:varchar(30);not null;index" json:"action"`
	Detail      string     `gorm:"type:text" json:"detail"`
	Reason      string     `gorm:"type:text" json:"reason,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}
