package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduvault/eduvault-api/internal/middleware"
	"github.com/eduvault/eduvault-api/internal/models"
	"github.com/eduvault/eduvault-api/internal/service"
)

type subjectRepoStub struct {
	subjects map[string]*models.Subject
}

func newSubjectRepoStub(subjects ...*models.Subject) *subjectRepoStub {
	stub := &subjectRepoStub{subjects: make(map[string]*models.Subject)}
	for _, s := range subjects {
		stub.subjects[s.ID] = s
	}
	return stub
}

func (s *subjectRepoStub) List(_ context.Context) ([]models.Subject, error) {
	out := make([]models.Subject, 0, len(s.subjects))
	for _, subject := range s.subjects {
		out = append(out, *subject)
	}
	return out, nil
}

func (s *subjectRepoStub) FindByID(_ context.Context, id string) (*models.Subject, error) {
	subject, ok := s.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return subject, nil
}

func (s *subjectRepoStub) Create(_ context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	s.subjects[subject.ID] = subject
	return nil
}

func (s *subjectRepoStub) Delete(_ context.Context, id string) error {
	if _, ok := s.subjects[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.subjects, id)
	return nil
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func adminContextPrincipal() *service.Principal {
	return &service.Principal{
		User:         models.User{ID: "admin-1", Role: models.RoleAdmin, Access: true},
		Capabilities: models.CapabilitiesFor(models.RoleAdmin, true),
	}
}

func TestSubjectHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newSubjectRepoStub(&models.Subject{ID: "s1", Name: "Mathematics"})
	handler := NewSubjectHandler(service.NewSubjectService(repo, nil, nil, nil, nil))

	c, w := newGinContext(http.MethodGet, "/subjects", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Mathematics")
}

func TestSubjectHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newSubjectRepoStub()
	handler := NewSubjectHandler(service.NewSubjectService(repo, nil, nil, nil, nil))

	c, w := newGinContext(http.MethodGet, "/subjects/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestSubjectHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newSubjectRepoStub()
	handler := NewSubjectHandler(service.NewSubjectService(repo, nil, nil, nil, nil))

	payload, _ := json.Marshal(service.CreateSubjectRequest{Name: "Physics"})
	c, w := newGinContext(http.MethodPost, "/admin/subjects", payload)
	c.Set(middleware.ContextPrincipalKey, adminContextPrincipal())

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.subjects, 1)
}

func TestSubjectHandlerCreateInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newSubjectRepoStub()
	handler := NewSubjectHandler(service.NewSubjectService(repo, nil, nil, nil, nil))

	c, w := newGinContext(http.MethodPost, "/admin/subjects", []byte("{"))
	c.Set(middleware.ContextPrincipalKey, adminContextPrincipal())

	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubjectHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newSubjectRepoStub(&models.Subject{ID: "s1", Name: "Mathematics"})
	handler := NewSubjectHandler(service.NewSubjectService(repo, nil, nil, nil, nil))

	c, w := newGinContext(http.MethodDelete, "/admin/subjects/s1", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	c.Set(middleware.ContextPrincipalKey, adminContextPrincipal())

	handler.Delete(c)
	c.Writer.WriteHeaderNow()

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, repo.subjects)
}
