package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eduvault/eduvault-api/internal/models"
	appErrors "github.com/eduvault/eduvault-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	SetAccess(ctx context.Context, id string, access bool, updatedAt time.Time) error
	SetRole(ctx context.Context, id string, role models.UserRole, updatedAt time.Time) error
}

// SetAdminRequest toggles a user's admin role.
type SetAdminRequest struct {
	Admin *bool `json:"admin" validate:"required"`
}

// UserService handles user management workflows: listing accounts and
// flipping the access and admin flags. Users are never deleted.
type UserService struct {
	repo      userRepository
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	pagination := &models.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
	}

	return users, pagination, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// GrantAccess sets the content access flag. Idempotent.
func (s *UserService) GrantAccess(ctx context.Context, userID string, actor *Principal) (*models.User, error) {
	return s.setAccess(ctx, userID, true, actor)
}

// RevokeAccess clears the content access flag. Idempotent.
func (s *UserService) RevokeAccess(ctx context.Context, userID string, actor *Principal) (*models.User, error) {
	return s.setAccess(ctx, userID, false, actor)
}

func (s *UserService) setAccess(ctx context.Context, userID string, access bool, actor *Principal) (*models.User, error) {
	if err := s.repo.SetAccess(ctx, userID, access, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update access flag")
	}

	action := models.AuditActionAccessGrant
	if !access {
		action = models.AuditActionAccessRevoke
	}
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     actorID(actor),
		Action:     action,
		Resource:   "user",
		ResourceID: &userID,
		NewValues:  []byte(fmt.Sprintf(`{"access":%t}`, access)),
	})

	return s.Get(ctx, userID)
}

// SetAdmin toggles the admin role for a user. Self-demotion is allowed:
// because capabilities are resolved from the database per request, a demoted
// admin loses privileged access on their very next action.
func (s *UserService) SetAdmin(ctx context.Context, userID string, req SetAdminRequest, actor *Principal) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin payload")
	}

	role := models.RoleUser
	if *req.Admin {
		role = models.RoleAdmin
	}

	if err := s.repo.SetRole(ctx, userID, role, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     actorID(actor),
		Action:     models.AuditActionRoleChange,
		Resource:   "user",
		ResourceID: &userID,
		NewValues:  []byte(fmt.Sprintf(`{"role":"%s"}`, role)),
	})

	return s.Get(ctx, userID)
}

func (s *UserService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", log.Action), zap.Error(err))
	}
}

func actorID(actor *Principal) *string {
	if actor == nil {
		return nil
	}
	id := actor.User.ID
	return &id
}

func nullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
