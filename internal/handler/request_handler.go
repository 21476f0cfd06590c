package handler

import (
	"net/http"
	"strconv"

	"solicitudes/internal/lifecycle"
	"solicitudes/internal/middleware"
	"solicitudes/internal/repository"
	"solicitudes/internal/service"
	"solicitudes/pkg/pagination"
	"solicitudes/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RequestHandler struct {
	requestService service.RequestService
	historyService service.HistoryService
}

func NewRequestHandler(requestService service.RequestService, historyService service.HistoryService) *RequestHandler {
	return &RequestHandler{requestService: requestService, historyService: historyService}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/requests")
	requests.Use(middleware.RequireRole("admin", "manager", "approver", "staff"))
	{
		requests.POST("", h.CreateRequest)
		requests.GET("", h.ListRequests)
		requests.GET("/:id", h.GetRequest)
		requests.PUT("/:id", h.UpdateRequest)
		requests.GET("/:id/history", h.GetHistory)

		requests.POST("/:id/submit", h.Submit)
		requests.POST("/:id/approve", h.Approve)
		requests.POST("/:id/reject", h.Reject)
		requests.POST("/:id/pause", h.Pause)
		requests.POST("/:id/activate", h.Activate)
		requests.POST("/:id/close", h.Close)
		requests.POST("/:id/reminder", h.SendReminder)
	}
}

// actorFrom extracts the authenticated actor set by the auth middleware.
func actorFrom(c *gin.Context) (lifecycle.Actor, bool) {
	rawID, _ := c.Get("userID")
	idStr, _ := rawID.(string)
	userID, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid user identity in token"))
		return lifecycle.Actor{}, false
	}
	role, _ := c.Get("userRole")
	roleStr, _ := role.(string)
	return lifecycle.Actor{UserID: userID, Role: roleStr}, true
}

func requestIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request id"))
		return uuid.Nil, false
	}
	return id, true
}

// CreateRequest creates a new draft request owned by the caller
// @Summary      Create draft request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRequestDTO  true  "Draft fields"
// @Success      201      {object}  response.Response{data=service.RequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/requests [post]
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req service.CreateRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.requestService.CreateDraft(c.Request.Context(), actor.UserID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListRequests returns requests filtered by state, kind, cost center
// @Summary      List requests
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        state        query  string  false  "Approval state filter"
// @Param        kind         query  string  false  "PROJECT or SOC"
// @Param        cost_center  query  string  false  "Cost center code"
// @Param        campus       query  string  false  "Campus code"
// @Param        year         query  int     false  "Year"
// @Param        page         query  int     false  "Page number (default 1)"
// @Param        limit        query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	params := pagination.Parse(c)

	filter := repository.RequestFilter{
		ApprovalState:  c.Query("state"),
		Kind:           c.Query("kind"),
		CostCenterCode: c.Query("cost_center"),
		CampusCode:     c.Query("campus"),
		Page:           params.Page,
		Limit:          params.Limit,
	}
	if year := c.Query("year"); year != "" {
		if y, err := strconv.Atoi(year); err == nil {
			filter.Year = y
		}
	}

	requests, total, err := h.requestService.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   requests,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// GetRequest returns a single request with completeness flags
func (h *RequestHandler) GetRequest(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	result, err := h.requestService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// UpdateRequest edits the form fields of a draft
func (h *RequestHandler) UpdateRequest(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	var req service.UpdateRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.requestService.UpdateDraft(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Submit moves a draft to PENDING once the completeness gate passes
// @Summary      Submit request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      422  {object}  response.Response
// @Router       /api/requests/{id}/submit [post]
func (h *RequestHandler) Submit(c *gin.Context) {
	h.transition(c, func(actor lifecycle.Actor, id uuid.UUID) (service.RequestResponse, error) {
		return h.requestService.Submit(c.Request.Context(), actor, id)
	})
}

// Approve moves a pending request to APPROVED with the chosen approval type
func (h *RequestHandler) Approve(c *gin.Context) {
	var req service.ApproveDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: approval_type is required"))
		return
	}
	h.transition(c, func(actor lifecycle.Actor, id uuid.UUID) (service.RequestResponse, error) {
		return h.requestService.Approve(c.Request.Context(), actor, id, req.ApprovalType)
	})
}

// Reject moves a pending request to REJECTED with a mandatory reason
func (h *RequestHandler) Reject(c *gin.Context) {
	var req service.RejectDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		// Let the lifecycle surface the precise missing-reason message
		req.Reason = ""
	}
	h.transition(c, func(actor lifecycle.Actor, id uuid.UUID) (service.RequestResponse, error) {
		return h.requestService.Reject(c.Request.Context(), actor, id, req.Reason)
	})
}

func (h *RequestHandler) Pause(c *gin.Context) {
	h.transition(c, func(actor lifecycle.Actor, id uuid.UUID) (service.RequestResponse, error) {
		return h.requestService.Pause(c.Request.Context(), actor, id)
	})
}

func (h *RequestHandler) Activate(c *gin.Context) {
	h.transition(c, func(actor lifecycle.Actor, id uuid.UUID) (service.RequestResponse, error) {
		return h.requestService.Activate(c.Request.Context(), actor, id)
	})
}

func (h *RequestHandler) Close(c *gin.Context) {
	h.transition(c, func(actor lifecycle.Actor, id uuid.UUID) (service.RequestResponse, error) {
		return h.requestService.Close(c.Request.Context(), actor, id)
	})
}

func (h *RequestHandler) transition(c *gin.Context, fn func(lifecycle.Actor, uuid.UUID) (service.RequestResponse, error)) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	result, err := fn(actor, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// SendReminder dispatches a reminder to pending approvers of a PENDING request
func (h *RequestHandler) SendReminder(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	if err := h.requestService.SendReminder(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Reminder sent"))
}

// GetHistory returns the request's transition ledger, oldest first
func (h *RequestHandler) GetHistory(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	entries, err := h.historyService.GetRequestHistory(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, entries))
}
