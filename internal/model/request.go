package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestKind enum constants
const (
	RequestKindProject = "PROJECT"
	RequestKindSOC     = "SOC" // Solicitud de Orden de Compra (purchase-order request)
)

// ApprovalState enum constants
const (
	StateDraft    = "DRAFT"
	StatePending  = "PENDING"
	StateApproved = "APPROVED"
	StateRejected = "REJECTED"
)

// ActivityState enum constants — meaningful only once ApprovalState is APPROVED
const (
	ActivityActive = "ACTIVE"
	ActivityPaused = "PAUSED"
	ActivityClosed = "CLOSED"
)

// Category enum constants
const (
	CategoryAcquisition    = "ACQUISITION"
	CategoryInfrastructure = "INFRASTRUCTURE"
	CategoryMaintenance    = "MAINTENANCE"
	CategoryTechnology     = "TECHNOLOGY_DEVELOPMENT"
	CategoryProfessional   = "PROFESSIONAL_SERVICES"
)

// ApprovalType enum constants — chosen by the approver at approval time
const (
	ApprovalTypeExpense    = "EXPENSE"
	ApprovalTypeInvestment = "INVESTMENT"
)

// ValidCategory reports whether c belongs to the closed category enumeration
func ValidCategory(c string) bool {
	switch c {
	case CategoryAcquisition, CategoryInfrastructure, CategoryMaintenance,
		CategoryTechnology, CategoryProfessional:
		return true
	}
	return false
}

// ValidApprovalType reports whether t belongs to the closed approval-type enumeration
func ValidApprovalType(t string) bool {
	return t == ApprovalTypeExpense || t == ApprovalTypeInvestment
}

// Request represents a capital Project or a Purchase-Order Request (SOC).
// Both kinds share the same lifecycle: DRAFT -> PENDING -> APPROVED/REJECTED,
// and once approved ACTIVE <-> PAUSED or CLOSED (terminal).
type Request struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Kind        string          `gorm:"type:varchar(10);not null;index" json:"kind"` // PROJECT, SOC
	Year        int             `gorm:"not null;index" json:"year"`
	Code        string          `gorm:"type:varchar(30);uniqueIndex" json:"code"` // assigned on submission, REQ-<year>-NNNNN
	Description string          `gorm:"type:text;not null" json:"description"`
	Observation string          `gorm:"type:text" json:"observation"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"amount"`
	Category    string          `gorm:"type:varchar(30);not null" json:"category"`

	// Cost center triple with denormalized display descriptions
	CampusCode     string `gorm:"type:varchar(20);not null;index" json:"campus_code"`
	CampusDesc     string `gorm:"type:varchar(255)" json:"campus_desc"`
	AreaCode       string `gorm:"type:varchar(20);not null" json:"area_code"`
	AreaDesc       string `gorm:"type:varchar(255)" json:"area_desc"`
	CostCenterCode string `gorm:"type:varchar(20);not null;index" json:"cost_center_code"`
	CostCenterDesc string `gorm:"type:varchar(255)" json:"cost_center_desc"`

	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_user_id"` // immutable after creation
	Owner       *User     `gorm:"foreignKey:OwnerUserID" json:"owner,omitempty"`

	ApprovalState   string     `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"approval_state"`
	ActivityState   string     `gorm:"type:varchar(20)" json:"activity_state,omitempty"`
	ApprovalType    string     `gorm:"type:varchar(20)" json:"approval_type,omitempty"` // set exactly once, at approval
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`     // immutable once set
	ApprovedBy      *uuid.UUID `gorm:"type:uuid" json:"approved_by"`
	Approver        *User      `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at"`

	// Locked guards against a second transition while one is awaiting confirmation
	Locked bool `gorm:"default:false" json:"locked"`

	Participants []Participant `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
	Attachments  []Attachment  `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
