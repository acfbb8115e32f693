package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rise171/system-control-defects/internal/apperrors"
	"github.com/rise171/system-control-defects/internal/middleware"
	"github.com/rise171/system-control-defects/internal/policy"
	"github.com/rise171/system-control-defects/internal/realtime"
	"github.com/rise171/system-control-defects/internal/repository"
	"github.com/rise171/system-control-defects/internal/service"
)

// Handler serves the REST and websocket endpoints.
type Handler struct {
	svc    *service.Services
	hub    *realtime.Hub
	logger *slog.Logger
}

func New(svc *service.Services, hub *realtime.Hub, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, hub: hub, logger: logger}
}

func actor(c *gin.Context) *policy.Actor {
	return service.ActorFor(middleware.CurrentUser(c))
}

// respondError maps the error taxonomy to a status code. Anything outside it
// becomes a 500 whose detail is logged and never returned.
func (h *Handler) respondError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrUnauthorized):
		status = http.StatusForbidden
	default:
		_ = c.Error(err)
		h.logger.Error("request failed",
			"event", "http_internal_error",
			"module", "http",
			"layer", "handler",
			"path", c.FullPath(),
			"error", err.Error(),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
}

// pathID parses a positive integer path parameter; it writes a 400 and
// returns false otherwise.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// pageFrom reads limit and offset, falling back to the defaults on bad input.
func pageFrom(c *gin.Context) repository.Page {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(repository.DefaultLimit)))
	if err != nil {
		limit = repository.DefaultLimit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		offset = 0
	}
	return repository.NewPage(limit, offset)
}

func respondList[T any](c *gin.Context, key string, items []T, page repository.Page) {
	c.JSON(http.StatusOK, gin.H{
		key:      items,
		"count":  len(items),
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

func respondDeleted(c *gin.Context, deleted bool, entity string, id uint) {
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": entity + " not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": entity + " deleted successfully",
		"id":      id,
	})
}
