package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/eduvault/eduvault-api/internal/models"
	appErrors "github.com/eduvault/eduvault-api/pkg/errors"
)

type accessUserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Principal is the resolved identity for one request: the current user row
// and the capability set derived from it.
type Principal struct {
	User         models.User
	Capabilities models.CapabilitySet
}

// Can reports whether the principal holds a capability.
func (p *Principal) Can(c models.Capability) bool {
	if p == nil {
		return false
	}
	return p.Capabilities.Has(c)
}

// AccessGate maps an authenticated identity to its current access and role
// flags. It reads the user row on every resolution so flag changes (access
// revocation, admin self-demotion) apply on the caller's next action without
// re-authentication.
type AccessGate struct {
	repo   accessUserFinder
	logger *zap.Logger
}

// NewAccessGate constructs the gate.
func NewAccessGate(repo accessUserFinder, logger *zap.Logger) *AccessGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessGate{repo: repo, logger: logger}
}

// Resolve loads the user's current flags and derives its capability set.
func (g *AccessGate) Resolve(ctx context.Context, userID string) (*Principal, error) {
	user, err := g.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	return &Principal{
		User:         *user,
		Capabilities: models.CapabilitiesFor(user.Role, user.Access),
	}, nil
}

// Require resolves the principal and enforces a capability in one step.
func (g *AccessGate) Require(ctx context.Context, userID string, capability models.Capability) (*Principal, error) {
	principal, err := g.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !principal.Can(capability) {
		if capability == models.CapabilityReadContent {
			return nil, appErrors.ErrAccessRequired
		}
		return nil, appErrors.ErrForbidden
	}
	return principal, nil
}
