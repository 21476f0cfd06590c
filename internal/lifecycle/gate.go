package lifecycle

import (
	"github.com/shopspring/decimal"

	"solicitudes/internal/model"
)

// Flag identifies one of the three completeness conditions a request must
// satisfy before submission.
type Flag string

const (
	FlagForm         Flag = "form"
	FlagParticipants Flag = "participants"
	FlagAttachments  Flag = "attachments"
)

// Gate derives submit-readiness from three flags pushed in by their owning
// components (form validation, roster non-emptiness, attachment set
// non-emptiness). The gate holds no business rule beyond the conjunction,
// except the retention-threshold rule for purchase-order requests: a SOC whose
// amount exceeds the configured threshold additionally needs at least one
// assigned approver whose approval limit covers the amount. The rule lives
// here because it only gates submission, never later transitions.
type Gate struct {
	kind      string
	amount    decimal.Decimal
	threshold decimal.Decimal // TOPE_RETENCION; zero or negative disables the rule

	form                 bool
	participants         bool
	attachments          bool
	hasQualifiedApprover bool
}

// NewGate builds a gate for a request of the given kind and amount.
func NewGate(kind string, amount, threshold decimal.Decimal) *Gate {
	return &Gate{kind: kind, amount: amount, threshold: threshold}
}

func (g *Gate) SetFormComplete(ok bool)         { g.form = ok }
func (g *Gate) SetParticipantsComplete(ok bool) { g.participants = ok }
func (g *Gate) SetAttachmentsComplete(ok bool)  { g.attachments = ok }

// SetQualifiedApprover records whether at least one assigned approver has an
// approval limit covering the request amount.
func (g *Gate) SetQualifiedApprover(ok bool) { g.hasQualifiedApprover = ok }

// retentionApplies reports whether the extra approver condition is evaluated.
// Projects are exempt regardless of amount.
func (g *Gate) retentionApplies() bool {
	return g.kind == model.RequestKindSOC &&
		g.threshold.IsPositive() &&
		g.amount.GreaterThan(g.threshold)
}

func (g *Gate) participantsComplete() bool {
	if !g.participants {
		return false
	}
	if g.retentionApplies() {
		return g.hasQualifiedApprover
	}
	return true
}

// IsComplete reports whether every completeness condition holds.
func (g *Gate) IsComplete() bool {
	return g.form && g.participantsComplete() && g.attachments
}

// Missing returns the flags currently false, so callers can surface a precise
// validation message instead of a generic "incomplete" error.
func (g *Gate) Missing() []Flag {
	var missing []Flag
	if !g.form {
		missing = append(missing, FlagForm)
	}
	if !g.participantsComplete() {
		missing = append(missing, FlagParticipants)
	}
	if !g.attachments {
		missing = append(missing, FlagAttachments)
	}
	return missing
}
