package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rise171/system-control-defects/internal/repository"
)

/*
GetDefects handles GET /defects
Supports limit (default 100, max 1000) and offset (default 0); ordered by id.
*/
func (h *Handler) GetDefects(c *gin.Context) {
	page := pageFrom(c)
	defects, err := h.svc.Defects.List(c.Request.Context(), actor(c), page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, "defects", defects, page)
}

// GetDefectsByProject handles GET /defects/project/:project_id
func (h *Handler) GetDefectsByProject(c *gin.Context) {
	projectID, ok := pathID(c, "project_id")
	if !ok {
		return
	}
	page := pageFrom(c)
	defects, err := h.svc.Defects.ListByProject(c.Request.Context(), actor(c), projectID, page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, "defects", defects, page)
}

// GetDefectsByAssignee handles GET /defects/user/:user_id
func (h *Handler) GetDefectsByAssignee(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	page := pageFrom(c)
	defects, err := h.svc.Defects.ListByAssignee(c.Request.Context(), actor(c), userID, page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, "defects", defects, page)
}

// GetDefect handles GET /defects/:id
func (h *Handler) GetDefect(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	defect, err := h.svc.Defects.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, defect)
}

/*
CreateDefect handles POST /defects
The creator is always the authenticated user.
*/
func (h *Handler) CreateDefect(c *gin.Context) {
	var req repository.DefectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	defect, err := h.svc.Defects.Create(c.Request.Context(), actor(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, defect)
}

// UpdateDefect handles PUT /defects/:id. "assigned_to_id": 0 unassigns.
func (h *Handler) UpdateDefect(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req repository.DefectPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	defect, err := h.svc.Defects.Update(c.Request.Context(), actor(c), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, defect)
}

// DeleteDefect handles DELETE /defects/:id
func (h *Handler) DeleteDefect(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.svc.Defects.Delete(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondDeleted(c, deleted, "Defect", id)
}
