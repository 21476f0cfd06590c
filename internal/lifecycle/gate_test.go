package lifecycle

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"solicitudes/internal/model"
)

func amt(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestGateRequiresAllThreeFlags(t *testing.T) {
	tests := []struct {
		form, participants, attachments bool
		want                            bool
	}{
		{false, false, false, false},
		{true, false, false, false},
		{false, true, false, false},
		{false, false, true, false},
		{true, true, false, false},
		{true, false, true, false},
		{false, true, true, false},
		{true, true, true, true},
	}

	for _, tt := range tests {
		g := NewGate(model.RequestKindProject, amt("1000"), decimal.Zero)
		g.SetFormComplete(tt.form)
		g.SetParticipantsComplete(tt.participants)
		g.SetAttachmentsComplete(tt.attachments)
		assert.Equalf(t, tt.want, g.IsComplete(),
			"form=%v participants=%v attachments=%v", tt.form, tt.participants, tt.attachments)
	}
}

func TestGateMissingNamesEachFailingFlag(t *testing.T) {
	g := NewGate(model.RequestKindProject, amt("1000"), decimal.Zero)
	g.SetParticipantsComplete(true)

	assert.ElementsMatch(t, []Flag{FlagForm, FlagAttachments}, g.Missing())

	g.SetFormComplete(true)
	g.SetAttachmentsComplete(true)
	assert.Empty(t, g.Missing())
	assert.True(t, g.IsComplete())
}

func TestRetentionRuleForPurchaseOrders(t *testing.T) {
	threshold := amt("50000000")

	t.Run("above threshold needs qualified approver", func(t *testing.T) {
		g := NewGate(model.RequestKindSOC, amt("60000000"), threshold)
		g.SetFormComplete(true)
		g.SetParticipantsComplete(true)
		g.SetAttachmentsComplete(true)

		assert.False(t, g.IsComplete())
		assert.Equal(t, []Flag{FlagParticipants}, g.Missing())

		g.SetQualifiedApprover(true)
		assert.True(t, g.IsComplete())
	})

	t.Run("at or below threshold is exempt", func(t *testing.T) {
		g := NewGate(model.RequestKindSOC, amt("50000000"), threshold)
		g.SetFormComplete(true)
		g.SetParticipantsComplete(true)
		g.SetAttachmentsComplete(true)

		assert.True(t, g.IsComplete())
	})

	t.Run("projects are exempt regardless of amount", func(t *testing.T) {
		g := NewGate(model.RequestKindProject, amt("900000000"), threshold)
		g.SetFormComplete(true)
		g.SetParticipantsComplete(true)
		g.SetAttachmentsComplete(true)

		assert.True(t, g.IsComplete())
	})

	t.Run("zero threshold disables the rule", func(t *testing.T) {
		g := NewGate(model.RequestKindSOC, amt("60000000"), decimal.Zero)
		g.SetFormComplete(true)
		g.SetParticipantsComplete(true)
		g.SetAttachmentsComplete(true)

		assert.True(t, g.IsComplete())
	})

	t.Run("qualified approver does not substitute for an empty roster", func(t *testing.T) {
		g := NewGate(model.RequestKindSOC, amt("60000000"), threshold)
		g.SetFormComplete(true)
		g.SetAttachmentsComplete(true)
		g.SetQualifiedApprover(true)

		assert.False(t, g.IsComplete())
		assert.Equal(t, []Flag{FlagParticipants}, g.Missing())
	})
}
