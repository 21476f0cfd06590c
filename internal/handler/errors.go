package handler

import (
	"errors"
	"net/http"

	"solicitudes/internal/attachment"
	"solicitudes/internal/lifecycle"
	"solicitudes/internal/roster"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"solicitudes/pkg/response"
)

// writeError maps a domain error to an HTTP status and the verbatim message,
// so every guard failure surfaces as a distinguishable, human-readable reason
// instead of a generic failure banner.
func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
}

func statusFor(err error) int {
	var (
		invalidTransition *lifecycle.InvalidTransitionError
		unauthorized      *lifecycle.UnauthorizedTransitionError
		incomplete        *lifecycle.IncompleteRequestError
		busy              *lifecycle.RequestBusyError
		transport         *lifecycle.TransportError
		duplicate         *roster.DuplicateParticipantError
		rosterMissing     *roster.NotFoundError
	)

	switch {
	case errors.As(err, &invalidTransition):
		return http.StatusConflict
	case errors.As(err, &unauthorized):
		return http.StatusForbidden
	case errors.As(err, &incomplete):
		return http.StatusUnprocessableEntity
	case errors.As(err, &busy):
		return http.StatusConflict
	case errors.As(err, &duplicate):
		return http.StatusConflict
	case errors.As(err, &rosterMissing):
		return http.StatusNotFound
	case errors.Is(err, lifecycle.ErrMissingReason),
		errors.Is(err, lifecycle.ErrInvalidApprovalType):
		return http.StatusBadRequest
	case errors.Is(err, attachment.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.As(err, &transport):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}
