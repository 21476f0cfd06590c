package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Attachment represents a document attached to a Request (quote, budget sheet, contract).
// Per request at most one attachment may have Selected = true.
type Attachment struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"request_id"`
	FileName       string          `gorm:"type:varchar(255);not null" json:"file_name"`
	StorageRef     string          `gorm:"type:varchar(255);not null" json:"storage_ref"` // opaque ref into the file store
	MimeType       string          `gorm:"type:varchar(100)" json:"mime_type"`
	DeclaredAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"declared_amount"` // parsed from the document or entered manually
	Selected       bool            `gorm:"default:false" json:"selected"`
	Position       int             `gorm:"not null;default:0" json:"position"` // insertion order, tie-breaker for review ordering
	UploadedBy     *uuid.UUID      `gorm:"type:uuid" json:"uploaded_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
