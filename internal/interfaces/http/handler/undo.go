package handler

import (
	"github.com/gin-gonic/gin"
	undoapp "github.com/pyme/backend/internal/application/undo"
	"github.com/pyme/backend/internal/interfaces/http/dto"
)

// UndoHandler exposes the per-user undo ledger
type UndoHandler struct {
	BaseHandler
	service *undoapp.UndoService
}

// NewUndoHandler creates a new UndoHandler
func NewUndoHandler(service *undoapp.UndoService) *UndoHandler {
	return &UndoHandler{service: service}
}

// RegisterRoutes mounts the undo routes
func (h *UndoHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/undo", h.UndoLast)
	rg.GET("/undo/availability", h.Availability)
	rg.GET("/undo/history", h.History)
}

// UndoLast reverses the caller's most recent undoable action.
// POST /api/v1/undo
func (h *UndoHandler) UndoLast(c *gin.Context) {
	userID, ok := h.actor(c)
	if !ok {
		return
	}
	result, err := h.service.UndoLast(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Availability tells whether an undo is possible right now and until when.
// GET /api/v1/undo/availability
func (h *UndoHandler) Availability(c *gin.Context) {
	userID, ok := h.actor(c)
	if !ok {
		return
	}
	avail, err := h.service.Availability(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, avail)
}

// History lists the caller's recent actions, newest first.
// GET /api/v1/undo/history?limit=20
func (h *UndoHandler) History(c *gin.Context) {
	userID, ok := h.actor(c)
	if !ok {
		return
	}
	var q dto.LimitRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, "limit must be between 1 and 100")
		return
	}
	entries, err := h.service.History(c.Request.Context(), userID, q.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = undoapp.DefaultHistoryLimit
	}
	h.SuccessWithMeta(c, entries, len(entries), limit)
}
