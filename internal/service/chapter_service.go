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

type chapterRepository interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.Chapter, error)
	FindByID(ctx context.Context, id string) (*models.Chapter, error)
	Create(ctx context.Context, chapter *models.Chapter) error
	Delete(ctx context.Context, id string) error
}

type chapterSubjectResolver interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// CreateChapterRequest captures fields for creating chapters.
type CreateChapterRequest struct {
	SubjectID   string `json:"subject_id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

// ChapterService handles the chapter level of the content hierarchy.
type ChapterService struct {
	repo      chapterRepository
	subjects  chapterSubjectResolver
	audit     auditLogger
	catalog   catalogInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChapterService creates a new chapter service.
func NewChapterService(repo chapterRepository, subjects chapterSubjectResolver, audit auditLogger, catalog catalogInvalidator, validate *validator.Validate, logger *zap.Logger) *ChapterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChapterService{repo: repo, subjects: subjects, audit: audit, catalog: catalog, validator: validate, logger: logger}
}

// ListForSubject returns the chapters owned by a subject. A missing subject
// yields not-found rather than an empty list so deep links surface cleanly.
func (s *ChapterService) ListForSubject(ctx context.Context, subjectID string) ([]models.Chapter, error) {
	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	chapters, err := s.repo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list chapters")
	}
	return chapters, nil
}

// Get returns a chapter by identifier.
func (s *ChapterService) Get(ctx context.Context, id string) (*models.Chapter, error) {
	chapter, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "chapter not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chapter")
	}
	return chapter, nil
}

// Create adds a new chapter under an existing subject.
func (s *ChapterService) Create(ctx context.Context, req CreateChapterRequest, actor *Principal) (*models.Chapter, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid chapter payload")
	}

	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subject does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	chapter := &models.Chapter{
		SubjectID:   req.SubjectID,
		Title:       strings.TrimSpace(req.Title),
		Description: nullableString(strings.TrimSpace(req.Description)),
	}
	if chapter.Title == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "chapter title is required")
	}

	if err := s.repo.Create(ctx, chapter); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create chapter")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     actorID(actor),
		Action:     models.AuditActionChapterCreate,
		Resource:   "chapter",
		ResourceID: &chapter.ID,
		NewValues:  []byte(fmt.Sprintf(`{"title":%q,"subject_id":%q}`, chapter.Title, chapter.SubjectID)),
	})
	s.invalidate(ctx)

	return chapter, nil
}

// Delete removes a chapter together with its notes and videos.
func (s *ChapterService) Delete(ctx context.Context, id string, actor *Principal) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "chapter not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete chapter")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     actorID(actor),
		Action:     models.AuditActionChapterDelete,
		Resource:   "chapter",
		ResourceID: &id,
	})
	s.invalidate(ctx)

	return nil
}

func (s *ChapterService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", log.Action), zap.Error(err))
	}
}

func (s *ChapterService) invalidate(ctx context.Context) {
	if s.catalog != nil {
		s.catalog.Invalidate(ctx)
	}
}
