package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ParticipantRole enum constants
const (
	RoleApprover      = "APPROVER"
	RoleInformational = "INFORMATIONAL"
)

// ResponseState enum constants
const (
	ResponsePending  = "PENDING"
	ResponseApproved = "APPROVED"
	ResponseRejected = "REJECTED"
)

// Participant binds a user to a Request as an approver or informational recipient.
// (RequestID, UserID) is unique — a user is assigned at most once per request.
type Participant struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_request_user" json:"request_id"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_request_user" json:"user_id"`
	User          *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role          string          `gorm:"type:varchar(20);not null" json:"role"` // APPROVER, INFORMATIONAL
	ResponseState string          `gorm:"type:varchar(20);not null;default:'PENDING'" json:"response_state"`
	ResponseNote  string          `gorm:"type:text" json:"response_note,omitempty"`
	RespondedAt   *time.Time      `json:"responded_at"`
	AccessToken   uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();uniqueIndex" json:"-"` // opaque token for external approval links
	ApprovalLimit decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"approval_limit"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
