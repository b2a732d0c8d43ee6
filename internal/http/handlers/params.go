package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/http/response"
	"github.com/tnahs/hlts/internal/platform/ctxutil"
)

// owner returns the authenticated owner or writes 401.
func owner(c *gin.Context) (uuid.UUID, bool) {
	id := ctxutil.OwnerID(c.Request.Context())
	if id == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing owner"))
		return uuid.Nil, false
	}
	return id, true
}

// pathID parses the :id parameter or writes 400.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), fmt.Errorf("invalid id %q", raw))
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the body. Malformed individual refs are reported as
// invalid_reference, anything else as validation.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		code := domainagg.CodeValidation
		if errors.Is(err, knowledge.ErrInvalidRef) {
			code = domainagg.CodeInvalidReference
		}
		response.RespondError(c, http.StatusBadRequest, string(code), err)
		return false
	}
	return true
}

func queryUUID(c *gin.Context, key string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, raw)
	}
	return &id, nil
}

func queryBool(c *gin.Context, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, raw)
	}
	return &v, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

func badQuery(c *gin.Context, err error) {
	response.RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
}
