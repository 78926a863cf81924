package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eduvault/eduvault-api/internal/models"
	appErrors "github.com/eduvault/eduvault-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

// catalogInvalidator drops cached catalog payloads after content mutations.
type catalogInvalidator interface {
	Invalidate(ctx context.Context)
}

// CreateSubjectRequest captures fields for creating subjects.
type CreateSubjectRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	CoverImage  string `json:"cover_image"`
}

// SubjectService handles the subject level of the content hierarchy.
// Subjects have no update operation; correcting one means delete and
// recreate.
type SubjectService struct {
	repo      subjectRepository
	audit     auditLogger
	catalog   catalogInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService creates a new subject service.
func NewSubjectService(repo subjectRepository, audit auditLogger, catalog catalogInvalidator, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, audit: audit, catalog: catalog, validator: validate, logger: logger}
}

// List returns all subjects ordered by name.
func (s *SubjectService) List(ctx context.Context) ([]models.Subject, error) {
	subjects, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// Get returns a subject by identifier.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// Create adds a new subject.
func (s *SubjectService) Create(ctx context.Context, req CreateSubjectRequest, actor *Principal) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	subject := &models.Subject{
		Name:        strings.TrimSpace(req.Name),
		Description: nullableString(strings.TrimSpace(req.Description)),
		CoverImage:  nullableString(strings.TrimSpace(req.CoverImage)),
	}
	if subject.Name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject name is required")
	}

	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     actorID(actor),
		Action:     models.AuditActionSubjectCreate,
		Resource:   "subject",
		ResourceID: &subject.ID,
		NewValues:  []byte(fmt.Sprintf(`{"name":%q}`, subject.Name)),
	})
	s.invalidate(ctx)

	return subject, nil
}

// Delete removes a subject together with its chapters, notes and videos.
func (s *SubjectService) Delete(ctx context.Context, id string, actor *Principal) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     actorID(actor),
		Action:     models.AuditActionSubjectDelete,
		Resource:   "subject",
		ResourceID: &id,
	})
	s.invalidate(ctx)

	return nil
}

func (s *SubjectService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", log.Action), zap.Error(err))
	}
}

func (s *SubjectService) invalidate(ctx context.Context) {
	if s.catalog != nil {
		s.catalog.Invalidate(ctx)
	}
}
