package handlers

import (
	"github.com/gin-gonic/gin"

	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/http/response"
	"github.com/tnahs/hlts/internal/services"
)

type IndividualHandler struct {
	individuals services.IndividualService
}

func NewIndividualHandler(individuals services.IndividualService) *IndividualHandler {
	return &IndividualHandler{individuals: individuals}
}

type individualRequest struct {
	Name      *string                    `json:"name"`
	FirstName *string                    `json:"first_name"`
	LastName  *string                    `json:"last_name"`
	Aka       *[]knowledge.IndividualRef `json:"aka"`
}

// GET /api/individuals
func (h *IndividualHandler) List(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	rows, err := h.individuals.List(c.Request.Context(), userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"individuals": rows})
}

// GET /api/individuals/:id
func (h *IndividualHandler) Get(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	ind, err := h.individuals.Get(c.Request.Context(), userID, id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"individual": ind})
}

// POST /api/individuals
// body: { "name": "...", "first_name": "...", "last_name": "...", "aka": ["Name", {"id": "..."}] }
func (h *IndividualHandler) Create(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	var req individualRequest
	if !bindJSON(c, &req) {
		return
	}
	in := domainagg.CreateIndividualInput{UserID: userID}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.FirstName != nil {
		in.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		in.LastName = *req.LastName
	}
	if req.Aka != nil {
		in.Aka = *req.Aka
	}
	ind, err := h.individuals.Create(c.Request.Context(), in)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"individual": ind})
}

// PATCH /api/individuals/:id
// "aka", when present, replaces the whole aka set.
func (h *IndividualHandler) Update(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req individualRequest
	if !bindJSON(c, &req) {
		return
	}
	ind, err := h.individuals.Update(c.Request.Context(), domainagg.UpdateIndividualInput{
		UserID:       userID,
		IndividualID: id,
		Name:         req.Name,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Aka:          req.Aka,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"individual": ind})
}

// DELETE /api/individuals/:id
func (h *IndividualHandler) Delete(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.individuals.Delete(c.Request.Context(), userID, id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondNoContent(c)
}
