package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"solicitudes/internal/attachment"
	"solicitudes/internal/lifecycle"
	"solicitudes/internal/model"
	"solicitudes/internal/roster"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			"invalid transition",
			&lifecycle.InvalidTransitionError{From: lifecycle.State{Approval: model.StateRejected}, Attempted: lifecycle.Submit},
			http.StatusConflict,
		},
		{
			"unauthorized transition",
			&lifecycle.UnauthorizedTransitionError{Role: model.UserRoleStaff, Attempted: lifecycle.Approve},
			http.StatusForbidden,
		},
		{
			"incomplete request",
			&lifecycle.IncompleteRequestError{Missing: []lifecycle.Flag{lifecycle.FlagAttachments}},
			http.StatusUnprocessableEntity,
		},
		{
			"request busy",
			&lifecycle.RequestBusyError{RequestID: uuid.New()},
			http.StatusConflict,
		},
		{
			"duplicate participant",
			&roster.DuplicateParticipantError{UserID: uuid.New()},
			http.StatusConflict,
		},
		{
			"roster member missing",
			&roster.NotFoundError{UserID: uuid.New()},
			http.StatusNotFound,
		},
		{"missing reason", lifecycle.ErrMissingReason, http.StatusBadRequest},
		{"invalid approval type", lifecycle.ErrInvalidApprovalType, http.StatusBadRequest},
		{"attachment missing", attachment.ErrNotFound, http.StatusNotFound},
		{"record missing", gorm.ErrRecordNotFound, http.StatusNotFound},
		{
			"transport failure",
			&lifecycle.TransportError{Op: "approve", Err: errors.New("connection reset")},
			http.StatusBadGateway,
		},
		{"anything else", errors.New("boom"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

// Wrapped errors still map: the service layer wraps repository failures with
// context before they reach the handler.
func TestStatusForUnwrapsErrorChains(t *testing.T) {
	wrapped := fmt.Errorf("load request: %w", gorm.ErrRecordNotFound)
	assert.Equal(t, http.StatusNotFound, statusFor(wrapped))

	transport := &lifecycle.TransportError{Op: "submit", Err: errors.New("tx aborted")}
	assert.Equal(t, http.StatusBadGateway, statusFor(fmt.Errorf("submit failed: %w", transport)))
}
