package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tnahs/hlts/internal/data/repos"
	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/http/response"
	"github.com/tnahs/hlts/internal/services"
)

type NodeHandler struct {
	nodes services.NodeService
}

func NewNodeHandler(nodes services.NodeService) *NodeHandler {
	return &NodeHandler{nodes: nodes}
}

// nodeSource is either {"id": "..."} or a (name, individuals) pair.
type nodeSource struct {
	ID          *uuid.UUID                `json:"id"`
	Name        string                    `json:"name"`
	Individuals []knowledge.IndividualRef `json:"individuals"`
	URL         string                    `json:"url"`
	Notes       string                    `json:"notes"`
}

func (s *nodeSource) spec() *domainagg.SourceSpec {
	if s == nil {
		return nil
	}
	return &domainagg.SourceSpec{
		SourceID:    s.ID,
		Name:        s.Name,
		Individuals: s.Individuals,
		URL:         s.URL,
		Notes:       s.Notes,
	}
}

type createNodeRequest struct {
	Body        string      `json:"body"`
	Notes       string      `json:"notes"`
	Source      *nodeSource `json:"source"`
	Origin      string      `json:"origin"`
	Tags        []string    `json:"tags"`
	Collections []string    `json:"collections"`
	Related     []uuid.UUID `json:"related"`
	IsStarred   bool        `json:"is_starred"`
}

type updateNodeRequest struct {
	Body        *string      `json:"body"`
	Notes       *string      `json:"notes"`
	IsStarred   *bool        `json:"is_starred"`
	InTrash     *bool        `json:"in_trash"`
	Source      *nodeSource  `json:"source"`
	ClearSource bool         `json:"clear_source"`
	Origin      *string      `json:"origin"`
	Tags        *[]string    `json:"tags"`
	Collections *[]string    `json:"collections"`
	Related     *[]uuid.UUID `json:"related"`
}

// GET /api/nodes?tag_id=&collection_id=&topic_id=&source_id=&origin_id=&starred=&in_trash=&limit=&offset=
func (h *NodeHandler) List(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	var (
		f   repos.NodeFilter
		err error
	)
	for key, dst := range map[string]**uuid.UUID{
		"tag_id":        &f.TagID,
		"collection_id": &f.CollectionID,
		"topic_id":      &f.TopicID,
		"source_id":     &f.SourceID,
		"origin_id":     &f.OriginID,
	} {
		if *dst, err = queryUUID(c, key); err != nil {
			badQuery(c, err)
			return
		}
	}
	if f.IsStarred, err = queryBool(c, "starred"); err != nil {
		badQuery(c, err)
		return
	}
	if f.InTrash, err = queryBool(c, "in_trash"); err != nil {
		badQuery(c, err)
		return
	}
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		badQuery(c, err)
		return
	}
	if f.Offset, err = queryInt(c, "offset"); err != nil {
		badQuery(c, err)
		return
	}
	rows, err := h.nodes.List(c.Request.Context(), userID, f)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"nodes": rows})
}

// GET /api/nodes/:id
func (h *NodeHandler) Get(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	node, err := h.nodes.Get(c.Request.Context(), userID, id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"node": node})
}

// POST /api/nodes
func (h *NodeHandler) Create(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	var req createNodeRequest
	if !bindJSON(c, &req) {
		return
	}
	node, err := h.nodes.Create(c.Request.Context(), domainagg.CreateNodeInput{
		UserID:      userID,
		Body:        req.Body,
		Notes:       req.Notes,
		Source:      req.Source.spec(),
		Origin:      req.Origin,
		Tags:        req.Tags,
		Collections: req.Collections,
		Related:     req.Related,
		IsStarred:   req.IsStarred,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"node": node})
}

// PATCH /api/nodes/:id
func (h *NodeHandler) Update(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateNodeRequest
	if !bindJSON(c, &req) {
		return
	}
	node, err := h.nodes.Update(c.Request.Context(), domainagg.UpdateNodeInput{
		UserID:      userID,
		NodeID:      id,
		Body:        req.Body,
		Notes:       req.Notes,
		IsStarred:   req.IsStarred,
		InTrash:     req.InTrash,
		Source:      req.Source.spec(),
		ClearSource: req.ClearSource,
		Origin:      req.Origin,
		Tags:        req.Tags,
		Collections: req.Collections,
		Related:     req.Related,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"node": node})
}

// DELETE /api/nodes/:id
func (h *NodeHandler) Delete(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.nodes.Delete(c.Request.Context(), userID, id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondNoContent(c)
}

// POST /api/nodes/:id/seen
func (h *NodeHandler) Seen(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	node, err := h.nodes.Seen(c.Request.Context(), userID, id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"node": node})
}
