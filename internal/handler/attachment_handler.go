package handler

import (
	"net/http"

	"solicitudes/internal/middleware"
	"solicitudes/internal/service"
	"solicitudes/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxUploadBytes caps a single attachment upload at 20 MiB.
const maxUploadBytes = 20 << 20

type AttachmentHandler struct {
	attachmentService service.AttachmentService
}

func NewAttachmentHandler(attachmentService service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

func (h *AttachmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	attachments := router.Group("/api/requests/:id/attachments")
	attachments.Use(middleware.RequireRole("admin", "manager", "approver", "staff"))
	{
		attachments.GET("", h.List)
		attachments.POST("", h.Upload)
		attachments.PUT("/:attachmentId/select", h.Select)
		attachments.DELETE("/:attachmentId", h.Delete)
	}
}

func attachmentIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("attachmentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid attachment id"))
		return uuid.Nil, false
	}
	return id, true
}

// List returns the attachments in review order, the selected one first
// @Summary      List attachments for review
// @Tags         attachments
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Request ID"
// @Success      200  {object}  response.Response{data=[]service.AttachmentResponse}
// @Router       /api/requests/{id}/attachments [get]
func (h *AttachmentHandler) List(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	attachments, err := h.attachmentService.ListForReview(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, attachments))
}

// Upload stores a quote file with its declared amount. New uploads are never
// selected; selection is a separate explicit call.
// @Summary      Upload attachment
// @Tags         attachments
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id               path      string  true   "Request ID"
// @Param        file             formData  file    true   "Quote document"
// @Param        declared_amount  formData  string  false  "Quoted amount"
// @Success      201  {object}  response.Response{data=service.AttachmentResponse}
// @Router       /api/requests/{id}/attachments [post]
func (h *AttachmentHandler) Upload(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Missing file in form data"))
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, response.Error(http.StatusRequestEntityTooLarge, "File exceeds the 20MB upload limit"))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to read uploaded file"))
		return
	}
	defer src.Close()

	result, err := h.attachmentService.Upload(
		c.Request.Context(),
		id,
		actor.UserID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		c.PostForm("declared_amount"),
		src,
	)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// Select marks one attachment as the chosen quote, clearing any previous pick
func (h *AttachmentHandler) Select(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}
	attachmentID, ok := attachmentIDParam(c)
	if !ok {
		return
	}

	if err := h.attachmentService.Select(c.Request.Context(), id, attachmentID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Attachment selected"))
}

// Delete removes an attachment and its stored file
func (h *AttachmentHandler) Delete(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}
	attachmentID, ok := attachmentIDParam(c)
	if !ok {
		return
	}

	if err := h.attachmentService.Delete(c.Request.Context(), id, attachmentID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Attachment deleted"))
}
