package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduvault/eduvault-api/internal/models"
	appErrors "github.com/eduvault/eduvault-api/pkg/errors"
)

type mockUserRepo struct {
	users       map[string]*models.User
	accessCalls int
	roleCalls   int
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (m *mockUserRepo) SetAccess(ctx context.Context, id string, access bool, updatedAt time.Time) error {
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	m.accessCalls++
	user.Access = access
	return nil
}

func (m *mockUserRepo) SetRole(ctx context.Context, id string, role models.UserRole, updatedAt time.Time) error {
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	m.roleCalls++
	user.Role = role
	return nil
}

func adminPrincipal(id string) *Principal {
	return &Principal{
		User:         models.User{ID: id, Role: models.RoleAdmin},
		Capabilities: models.CapabilitiesFor(models.RoleAdmin, false),
	}
}

func TestUserServiceGrantAccess(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Role: models.RoleUser, Access: false},
	}}
	audit := &mockAudit{}
	svc := NewUserService(repo, audit, nil, zap.NewNop())

	user, err := svc.GrantAccess(context.Background(), "u1", adminPrincipal("a1"))
	require.NoError(t, err)
	assert.True(t, user.Access)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionAccessGrant, audit.logs[0].Action)
	assert.Equal(t, "a1", *audit.logs[0].UserID)
}

func TestUserServiceGrantAccessIdempotent(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Role: models.RoleUser, Access: true},
	}}
	svc := NewUserService(repo, nil, nil, zap.NewNop())

	user, err := svc.GrantAccess(context.Background(), "u1", adminPrincipal("a1"))
	require.NoError(t, err)
	assert.True(t, user.Access)

	user, err = svc.GrantAccess(context.Background(), "u1", adminPrincipal("a1"))
	require.NoError(t, err)
	assert.True(t, user.Access)
}

func TestUserServiceRevokeAccessMissingUser(t *testing.T) {
	svc := NewUserService(&mockUserRepo{users: map[string]*models.User{}}, nil, nil, zap.NewNop())

	_, err := svc.RevokeAccess(context.Background(), "missing", adminPrincipal("a1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestUserServiceSetAdminAllowsSelfDemotion(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"a1": {ID: "a1", Role: models.RoleAdmin},
	}}
	audit := &mockAudit{}
	svc := NewUserService(repo, audit, nil, zap.NewNop())

	demote := false
	user, err := svc.SetAdmin(context.Background(), "a1", SetAdminRequest{Admin: &demote}, adminPrincipal("a1"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionRoleChange, audit.logs[0].Action)
}

func TestUserServiceSetAdminRequiresFlag(t *testing.T) {
	svc := NewUserService(&mockUserRepo{users: map[string]*models.User{}}, nil, nil, zap.NewNop())

	_, err := svc.SetAdmin(context.Background(), "u1", SetAdminRequest{}, adminPrincipal("a1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestUserServiceListPaginationDefaults(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1"},
		"u2": {ID: "u2"},
	}}
	svc := NewUserService(repo, nil, nil, zap.NewNop())

	users, pagination, err := svc.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 2, pagination.TotalCount)
}
