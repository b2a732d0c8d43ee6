package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/platform/ctxutil"
)

type fakeIndividuals struct {
	created *domainagg.CreateIndividualInput
	getErr  error
}

func (f *fakeIndividuals) List(context.Context, uuid.UUID) ([]*knowledge.Individual, error) {
	return []*knowledge.Individual{}, nil
}

func (f *fakeIndividuals) Get(_ context.Context, _, id uuid.UUID) (*knowledge.Individual, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &knowledge.Individual{Attribute: knowledge.Attribute{ID: id, Name: "Twain"}}, nil
}

func (f *fakeIndividuals) Create(_ context.Context, in domainagg.CreateIndividualInput) (*knowledge.Individual, error) {
	f.created = &in
	return &knowledge.Individual{Attribute: knowledge.Attribute{ID: uuid.New(), UserID: in.UserID, Name: in.Name}}, nil
}

func (f *fakeIndividuals) Update(context.Context, domainagg.UpdateIndividualInput) (*knowledge.Individual, error) {
	return nil, nil
}

func (f *fakeIndividuals) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func newIndividualRouter(svc *fakeIndividuals, owner uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if owner != uuid.Nil {
			ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: owner})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	})
	h := NewIndividualHandler(svc)
	r.GET("/individuals/:id", h.Get)
	r.POST("/individuals", h.Create)
	return r
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIndividualCreatePassesRefs(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()
	svc := &fakeIndividuals{}
	r := newIndividualRouter(svc, owner)

	w := serve(r, http.MethodPost, "/individuals", `{"name":"Twain","aka":["Clemens",{"id":"`+other.String()+`"}]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, svc.created)
	assert.Equal(t, owner, svc.created.UserID)
	require.Len(t, svc.created.Aka, 2)
	assert.Equal(t, knowledge.RefKindName, svc.created.Aka[0].Kind())
	assert.Equal(t, other, svc.created.Aka[1].ID())
}

func TestIndividualCreateRejectsMalformedRef(t *testing.T) {
	svc := &fakeIndividuals{}
	r := newIndividualRouter(svc, uuid.New())

	w := serve(r, http.MethodPost, "/individuals", `{"name":"Twain","aka":[42]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"invalid_reference"`)
	assert.Nil(t, svc.created)
}

func TestIndividualRequiresOwner(t *testing.T) {
	r := newIndividualRouter(&fakeIndividuals{}, uuid.Nil)
	w := serve(r, http.MethodGet, "/individuals/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIndividualGetMapsDomainErrors(t *testing.T) {
	svc := &fakeIndividuals{getErr: domainagg.Newf(domainagg.CodeNotFound, "individual.get", "individual missing")}
	r := newIndividualRouter(svc, uuid.New())

	w := serve(r, http.MethodGet, "/individuals/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"not_found"`)

	w = serve(r, http.MethodGet, "/individuals/nope", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
