package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/eduvault/eduvault-api/internal/models"
	"github.com/eduvault/eduvault-api/internal/service"
)

type gateUserStub struct {
	users map[string]*models.User
}

func (s *gateUserStub) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func setClaims(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set(ContextUserKey, &models.JWTClaims{UserID: userID, Email: userID + "@example.com"})
		}
		c.Next()
	}
}

func newCapabilityRouter(gate *service.AccessGate, userID string, capability models.Capability) *gin.Engine {
	router := gin.New()
	router.GET("/", setClaims(userID), RequireCapability(gate, capability), func(c *gin.Context) {
		principal, _ := c.Get(ContextPrincipalKey)
		if principal == nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestRequireCapabilityGrantedUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gate := service.NewAccessGate(&gateUserStub{users: map[string]*models.User{
		"u1": {ID: "u1", Role: models.RoleUser, Access: true},
	}}, nil)

	recorder := httptest.NewRecorder()
	router := newCapabilityRouter(gate, "u1", models.CapabilityReadContent)
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestRequireCapabilityUngrantedUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gate := service.NewAccessGate(&gateUserStub{users: map[string]*models.User{
		"u1": {ID: "u1", Role: models.RoleUser, Access: false},
	}}, nil)

	recorder := httptest.NewRecorder()
	router := newCapabilityRouter(gate, "u1", models.CapabilityReadContent)
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "ACCESS_REQUIRED") {
		t.Fatalf("expected ACCESS_REQUIRED error code, got body %s", recorder.Body.String())
	}
}

func TestRequireCapabilityWriteDeniedForUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gate := service.NewAccessGate(&gateUserStub{users: map[string]*models.User{
		"u1": {ID: "u1", Role: models.RoleUser, Access: true},
	}}, nil)

	recorder := httptest.NewRecorder()
	router := newCapabilityRouter(gate, "u1", models.CapabilityWriteContent)
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "FORBIDDEN") {
		t.Fatalf("expected FORBIDDEN error code, got body %s", recorder.Body.String())
	}
}

func TestRequireCapabilityMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gate := service.NewAccessGate(&gateUserStub{users: map[string]*models.User{}}, nil)

	recorder := httptest.NewRecorder()
	router := newCapabilityRouter(gate, "", models.CapabilityReadContent)
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestRequireCapabilityDeletedAccount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gate := service.NewAccessGate(&gateUserStub{users: map[string]*models.User{}}, nil)

	recorder := httptest.NewRecorder()
	router := newCapabilityRouter(gate, "ghost", models.CapabilityReadContent)
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}
