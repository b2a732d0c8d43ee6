package handlers

import (
	"github.com/gin-gonic/gin"

	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/http/response"
	"github.com/tnahs/hlts/internal/services"
)

type MergeHandler struct {
	merges services.MergeService
}

func NewMergeHandler(merges services.MergeService) *MergeHandler {
	return &MergeHandler{merges: merges}
}

// POST /api/merge
// body: { "which": "tags|collections|sources|origins|topics", "into": "name", "merging": ["name", ...] }
func (h *MergeHandler) Merge(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	var req struct {
		Which   string   `json:"which"`
		Into    string   `json:"into"`
		Merging []string `json:"merging"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.merges.Merge(c.Request.Context(), domainagg.MergeInput{
		UserID:  userID,
		Kind:    req.Which,
		Into:    req.Into,
		Merging: req.Merging,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"merge": res})
}

// GET /api/merges?kind=&limit=
func (h *MergeHandler) History(c *gin.Context) {
	userID, ok := owner(c)
	if !ok {
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		badQuery(c, err)
		return
	}
	rows, err := h.merges.History(c.Request.Context(), userID, c.Query("kind"), limit)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"merges": rows})
}
