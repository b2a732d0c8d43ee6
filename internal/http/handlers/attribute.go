package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tnahs/hlts/internal/http/response"
	"github.com/tnahs/hlts/internal/services"
)

// AttributeHandler serves /api/{tags,collections,origins,topics}.
type AttributeHandler[T any] struct {
	svc      services.AttributeService[T]
	singular string
	plural   string
}

func NewAttributeHandler[T any](svc services.AttributeService[T], singular string) *AttributeHandler[T] {
	return &AttributeHandler[T]{svc: svc, singular: singular, plural: svc.Kind()}
}

// Register mounts the five CRUD routes on g.
func (h *AttributeHandler[T]) Register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// GET /api/<kind>
func (h *AttributeHandler[T]) List(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	rows, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{h.plural: rows})
}

// GET /api/<kind>/:id
func (h *AttributeHandler[T]) Get(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	row, err := h.svc.Get(c.Request.Context(), userID, id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{h.singular: row})
}

// POST /api/<kind>
// body: { "name": "...", "color": "...", "description": "..." }
func (h *AttributeHandler[T]) Create(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	var req services.AttributeInput
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.svc.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{h.singular: row})
}

// PATCH /api/<kind>/:id
func (h *AttributeHandler[T]) Update(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req services.AttributeInput
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.svc.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{h.singular: row})
}

// DELETE /api/<kind>/:id
func (h *AttributeHandler[T]) Delete(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), userID, id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondNoContent(c)
}
