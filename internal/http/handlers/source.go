package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tnahs/hlts/internal/data/repos"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/http/response"
	"github.com/tnahs/hlts/internal/services"
)

type SourceHandler struct {
	sources services.SourceService
}

func NewSourceHandler(sources services.SourceService) *SourceHandler {
	return &SourceHandler{sources: sources}
}

type sourceRequest struct {
	Name        *string                    `json:"name"`
	Individuals *[]knowledge.IndividualRef `json:"individuals"`
	URL         *string                    `json:"url"`
	Date        *time.Time                 `json:"date"`
	ClearDate   bool                       `json:"clear_date"`
	Notes       *string                    `json:"notes"`
}

// GET /api/sources?name=&individual_id=&limit=
func (h *SourceHandler) List(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	var f repos.SourceFilter
	if name, has := c.GetQuery("name"); has {
		name = strings.TrimSpace(name)
		f.Name = &name
	}
	individualID, err := queryUUID(c, "individual_id")
	if err != nil {
		badQuery(c, err)
		return
	}
	f.IndividualID = individualID
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		badQuery(c, err)
		return
	}
	rows, err := h.sources.List(c.Request.Context(), userID, f)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sources": rows})
}

// GET /api/sources/:id
func (h *SourceHandler) Get(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	src, err := h.sources.Get(c.Request.Context(), userID, id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"source": src})
}

// POST /api/sources
// Get-or-create by (name, individuals). 201 when a new source was created.
func (h *SourceHandler) Resolve(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	var req sourceRequest
	if !bindJSON(c, &req) {
		return
	}
	in := domainagg.ResolveSourceInput{UserID: userID, Date: req.Date}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Individuals != nil {
		in.Individuals = *req.Individuals
	}
	if req.URL != nil {
		in.URL = *req.URL
	}
	if req.Notes != nil {
		in.Notes = *req.Notes
	}
	res, err := h.sources.Resolve(c.Request.Context(), in)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"source":              res.Source,
		"created":             res.Created,
		"created_individuals": nonNilIndividuals(res.CreatedIndividuals),
	})
}

// PATCH /api/sources/:id
// "individuals", when present, replaces the full set.
func (h *SourceHandler) Update(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req sourceRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.sources.Update(c.Request.Context(), domainagg.UpdateSourceInput{
		UserID:      userID,
		SourceID:    id,
		Name:        req.Name,
		Individuals: req.Individuals,
		URL:         req.URL,
		Notes:       req.Notes,
		Date:        req.Date,
		ClearDate:   req.ClearDate,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"source":              res.Source,
		"created_individuals": nonNilIndividuals(res.CreatedIndividuals),
	})
}

// DELETE /api/sources/:id
func (h *SourceHandler) Delete(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.sources.Delete(c.Request.Context(), userID, id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondNoContent(c)
}

// GET /api/sources/duplicates
func (h *SourceHandler) Duplicates(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	groups, err := h.sources.Duplicates(c.Request.Context(), userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"groups": groups})
}

// POST /api/sources/reconcile
func (h *SourceHandler) Reconcile(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	merged, err := h.sources.Reconcile(c.Request.Context(), userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"merged": merged})
}

func nonNilIndividuals(in []*knowledge.Individual) []*knowledge.Individual {
	if in == nil {
		return []*knowledge.Individual{}
	}
	return in
}
