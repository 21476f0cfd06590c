package handler

import (
	"net/http"

	"solicitudes/internal/middleware"
	"solicitudes/internal/service"
	"solicitudes/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type HistoryHandler struct {
	historyService service.HistoryService
}

func NewHistoryHandler(historyService service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

func (h *HistoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	audit := router.Group("/api/audit")
	audit.Use(middleware.RequireRole("admin", "manager"))
	{
		audit.GET("", h.GetAuditTrail)
	}
}

// GetAuditTrail returns the global transition ledger, newest first
// @Summary      Get audit trail
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        page   query  int  false  "Page number (default 1)"
// @Param        limit  query  int  false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=[]service.HistoryEntryResponse}
// @Router       /api/audit [get]
func (h *HistoryHandler) GetAuditTrail(c *gin.Context) {
	params := pagination.Parse(c)

	entries, total, err := h.historyService.GetAuditTrail(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   entries,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}
