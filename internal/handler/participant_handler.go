package handler

import (
	"net/http"

	"solicitudes/internal/middleware"
	"solicitudes/internal/service"
	"solicitudes/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ParticipantHandler struct {
	participantService service.ParticipantService
}

func NewParticipantHandler(participantService service.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{participantService: participantService}
}

func (h *ParticipantHandler) RegisterRoutes(router *gin.RouterGroup) {
	participants := router.Group("/api/requests/:id/participants")
	participants.Use(middleware.RequireRole("admin", "manager", "approver", "staff"))
	{
		participants.GET("", h.GetRoster)
		participants.POST("", h.Assign)
		participants.DELETE("/:userId", h.Unassign)
		participants.POST("/move", h.Move)
		participants.GET("/search", h.Search)
	}

	// Token links are reached from notification emails, outside a login session.
	participations := router.Group("/api/participations")
	{
		participations.POST("/:token/approve", h.ApproveByToken)
		participations.POST("/:token/reject", h.RejectByToken)
	}
}

// GetRoster returns the available pool and the assigned set for a request
// @Summary      Get participant roster
// @Tags         participants
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RosterResponse}
// @Router       /api/requests/{id}/participants [get]
func (h *ParticipantHandler) GetRoster(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	roster, err := h.participantService.GetRoster(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, roster))
}

// Assign adds one user to the request's assigned set
func (h *ParticipantHandler) Assign(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	var req service.AssignParticipantDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	participant, err := h.participantService.Assign(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, participant))
}

// Unassign returns a user to the available pool
func (h *ParticipantHandler) Unassign(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid user id"))
		return
	}

	if err := h.participantService.Unassign(c.Request.Context(), id, userID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Participant removed"))
}

// Move transfers a selection of users between the two pools in one call
// @Summary      Move participants between pools
// @Tags         participants
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                       true  "Request ID"
// @Param        payload  body  service.MoveParticipantsDTO  true  "Selection and direction"
// @Success      200  {object}  response.Response{data=service.RosterResponse}
// @Router       /api/requests/{id}/participants/move [post]
func (h *ParticipantHandler) Move(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	var req service.MoveParticipantsDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	roster, err := h.participantService.Move(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, roster))
}

// Search filters the available pool by display name
func (h *ParticipantHandler) Search(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	matches, err := h.participantService.Search(c.Request.Context(), id, c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, matches))
}

// ApproveByToken records an individual approval through an access-token link
func (h *ParticipantHandler) ApproveByToken(c *gin.Context) {
	h.respondByToken(c, true)
}

// RejectByToken records an individual rejection through an access-token link
func (h *ParticipantHandler) RejectByToken(c *gin.Context) {
	h.respondByToken(c, false)
}

func (h *ParticipantHandler) respondByToken(c *gin.Context, approve bool) {
	token, err := uuid.Parse(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid participation token"))
		return
	}

	var req service.RespondDTO
	_ = c.ShouldBindJSON(&req) // note is optional

	participant, err := h.participantService.RespondByToken(c.Request.Context(), token, approve, req.Note)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, participant))
}
