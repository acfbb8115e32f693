package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rise171/system-control-defects/internal/repository"
)

// GetAttachments handles GET /attachments
func (h *Handler) GetAttachments(c *gin.Context) {
	page := pageFrom(c)
	attachments, err := h.svc.Attachments.List(c.Request.Context(), actor(c), page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, "attachments", attachments, page)
}

// GetAttachmentsByDefect handles GET /attachments/defect/:defect_id
func (h *Handler) GetAttachmentsByDefect(c *gin.Context) {
	defectID, ok := pathID(c, "defect_id")
	if !ok {
		return
	}
	page := pageFrom(c)
	attachments, err := h.svc.Attachments.ListByDefect(c.Request.Context(), actor(c), defectID, page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, "attachments", attachments, page)
}

func (h *Handler) GetAttachment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	attachment, err := h.svc.Attachments.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attachment)
}

// CreateAttachment handles POST /attachments. Only metadata is stored; the
// file itself lives at filepath.
func (h *Handler) CreateAttachment(c *gin.Context) {
	var req repository.AttachmentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	attachment, err := h.svc.Attachments.Create(c.Request.Context(), actor(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, attachment)
}

// UpdateAttachment handles PUT /attachments/:id. "comment_id": 0 detaches it from its comment.
func (h *Handler) UpdateAttachment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req repository.AttachmentPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	attachment, err := h.svc.Attachments.Update(c.Request.Context(), actor(c), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attachment)
}

func (h *Handler) DeleteAttachment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.svc.Attachments.Delete(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondDeleted(c, deleted, "Attachment", id)
}
