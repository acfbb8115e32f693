package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rise171/system-control-defects/internal/repository"
)

// GetComments handles GET /comments
func (h *Handler) GetComments(c *gin.Context) {
	page := pageFrom(c)
	comments, err := h.svc.Comments.List(c.Request.Context(), actor(c), page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, "comments", comments, page)
}

// GetCommentsByDefect handles GET /comments/defect/:defect_id
func (h *Handler) GetCommentsByDefect(c *gin.Context) {
	defectID, ok := pathID(c, "defect_id")
	if !ok {
		return
	}
	page := pageFrom(c)
	comments, err := h.svc.Comments.ListByDefect(c.Request.Context(), actor(c), defectID, page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, "comments", comments, page)
}

// GetCommentsByAuthor handles GET /comments/user/:user_id
func (h *Handler) GetCommentsByAuthor(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	page := pageFrom(c)
	comments, err := h.svc.Comments.ListByAuthor(c.Request.Context(), actor(c), userID, page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, "comments", comments, page)
}

// GetComment handles GET /comments/:id
func (h *Handler) GetComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	comment, err := h.svc.Comments.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// CreateComment handles POST /comments
func (h *Handler) CreateComment(c *gin.Context) {
	var req repository.CommentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	comment, err := h.svc.Comments.Create(c.Request.Context(), actor(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// UpdateComment handles PUT /comments/:id
func (h *Handler) UpdateComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req repository.CommentPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	comment, err := h.svc.Comments.Update(c.Request.Context(), actor(c), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DeleteComment handles DELETE /comments/:id
func (h *Handler) DeleteComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.svc.Comments.Delete(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondDeleted(c, deleted, "Comment", id)
}
