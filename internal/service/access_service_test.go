package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduvault/eduvault-api/internal/models"
	appErrors "github.com/eduvault/eduvault-api/pkg/errors"
)

type mockUserFinder struct {
	users map[string]*models.User
}

func (m *mockUserFinder) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func TestAccessGateAdminHoldsAllCapabilities(t *testing.T) {
	finder := &mockUserFinder{users: map[string]*models.User{
		"a1": {ID: "a1", Role: models.RoleAdmin, Access: false},
	}}
	gate := NewAccessGate(finder, zap.NewNop())

	principal, err := gate.Resolve(context.Background(), "a1")
	require.NoError(t, err)
	assert.True(t, principal.Can(models.CapabilityReadContent))
	assert.True(t, principal.Can(models.CapabilityWriteContent))
	assert.True(t, principal.Can(models.CapabilityManageUsers))
}

func TestAccessGateGrantedUserReadsOnly(t *testing.T) {
	finder := &mockUserFinder{users: map[string]*models.User{
		"u1": {ID: "u1", Role: models.RoleUser, Access: true},
	}}
	gate := NewAccessGate(finder, zap.NewNop())

	principal, err := gate.Resolve(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, principal.Can(models.CapabilityReadContent))
	assert.False(t, principal.Can(models.CapabilityWriteContent))
	assert.False(t, principal.Can(models.CapabilityManageUsers))
}

func TestAccessGateUngrantedUserGetsAccessRequired(t *testing.T) {
	finder := &mockUserFinder{users: map[string]*models.User{
		"u1": {ID: "u1", Role: models.RoleUser, Access: false},
	}}
	gate := NewAccessGate(finder, zap.NewNop())

	_, err := gate.Require(context.Background(), "u1", models.CapabilityReadContent)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAccessRequired.Code, appErr.Code)

	_, err = gate.Require(context.Background(), "u1", models.CapabilityWriteContent)
	require.Error(t, err)
	appErr = appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestAccessGateRevocationAppliesOnNextResolve(t *testing.T) {
	user := &models.User{ID: "u1", Role: models.RoleUser, Access: true}
	finder := &mockUserFinder{users: map[string]*models.User{"u1": user}}
	gate := NewAccessGate(finder, zap.NewNop())

	_, err := gate.Require(context.Background(), "u1", models.CapabilityReadContent)
	require.NoError(t, err)

	user.Access = false

	_, err = gate.Require(context.Background(), "u1", models.CapabilityReadContent)
	require.Error(t, err, "revocation must bite without re-authentication")
}

func TestAccessGateSelfDemotionAppliesOnNextResolve(t *testing.T) {
	user := &models.User{ID: "a1", Role: models.RoleAdmin}
	finder := &mockUserFinder{users: map[string]*models.User{"a1": user}}
	gate := NewAccessGate(finder, zap.NewNop())

	_, err := gate.Require(context.Background(), "a1", models.CapabilityManageUsers)
	require.NoError(t, err)

	user.Role = models.RoleUser

	_, err = gate.Require(context.Background(), "a1", models.CapabilityManageUsers)
	require.Error(t, err, "demoted admin must lose privileges on the next request")
}

func TestAccessGateDeletedAccountUnauthorized(t *testing.T) {
	gate := NewAccessGate(&mockUserFinder{users: map[string]*models.User{}}, zap.NewNop())

	_, err := gate.Resolve(context.Background(), "gone")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}
