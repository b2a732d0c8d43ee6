package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	pkgerrors "github.com/tnahs/hlts/internal/pkg/errors"
)

func respond(t *testing.T, err error) (int, ErrorEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RespondErr(c, err)
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env
}

func TestRespondErrMapsAggregateCodes(t *testing.T) {
	cases := []struct {
		code   domainagg.ErrorCode
		status int
	}{
		{domainagg.CodeValidation, http.StatusBadRequest},
		{domainagg.CodeInvalidReference, http.StatusBadRequest},
		{domainagg.CodeNotFound, http.StatusNotFound},
		{domainagg.CodeDuplicate, http.StatusConflict},
		{domainagg.CodeConflict, http.StatusConflict},
		{domainagg.CodePreconditionFailed, http.StatusUnprocessableEntity},
		{domainagg.CodeRetryable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		status, env := respond(t, domainagg.Newf(tc.code, "op", "boom"))
		require.Equal(t, tc.status, status, tc.code)
		require.Equal(t, string(tc.code), env.Error.Code)
		require.Contains(t, env.Error.Message, "boom")
	}
}

func TestRespondErrHidesInternalMessages(t *testing.T) {
	status, env := respond(t, errors.New("dial tcp 10.0.0.1: refused"))
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "internal", env.Error.Code)
	require.Equal(t, "internal server error", env.Error.Message)
}

func TestRespondErrSentinels(t *testing.T) {
	status, env := respond(t, pkgerrors.ErrUnauthorized)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "unauthorized", env.Error.Code)
}
