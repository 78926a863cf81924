package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eduvault/eduvault-api/internal/models"
	appErrors "github.com/eduvault/eduvault-api/pkg/errors"
)

type videoRepository interface {
	ListByChapters(ctx context.Context, chapterIDs []string) ([]models.Video, error)
	FindByID(ctx context.Context, id string) (*models.Video, error)
	Create(ctx context.Context, video *models.Video) error
	Delete(ctx context.Context, id string) error
}

// CreateVideoRequest captures the payload for registering a video link.
type CreateVideoRequest struct {
	ChapterID string `json:"chapter_id" validate:"required"`
	Title     string `json:"title" validate:"required"`
	URL       string `json:"url" validate:"required,url"`
}

// VideoService manages external video links attached to chapters.
type VideoService struct {
	repo      videoRepository
	chapters  noteChapterResolver
	audit     auditLogger
	catalog   catalogInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVideoService constructs the service with defaults.
func NewVideoService(repo videoRepository, chapters noteChapterResolver, audit auditLogger, catalog catalogInvalidator, validate *validator.Validate, logger *zap.Logger) *VideoService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VideoService{
		repo:      repo,
		chapters:  chapters,
		audit:     audit,
		catalog:   catalog,
		validator: validate,
		logger:    logger,
	}
}

// ListForChapters returns videos belonging to the given chapter id set.
func (s *VideoService) ListForChapters(ctx context.Context, chapterIDs []string) ([]models.Video, error) {
	videos, err := s.repo.ListByChapters(ctx, chapterIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list videos")
	}
	return videos, nil
}

// Get returns a video by id.
func (s *VideoService) Get(ctx context.Context, id string) (*models.Video, error) {
	video, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}
	return video, nil
}

// Create registers a new video link under a chapter.
func (s *VideoService) Create(ctx context.Context, req CreateVideoRequest, actor *Principal) (*models.Video, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid video payload")
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "video title is required")
	}
	parsed, err := url.Parse(req.URL)
	if err != nil || parsed.Scheme != "http" && parsed.Scheme != "https" || parsed.Host == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "video url must be an absolute http(s) link")
	}

	if _, err := s.chapters.FindByID(ctx, req.ChapterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "chapter does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chapter")
	}

	video := &models.Video{
		ChapterID: req.ChapterID,
		Title:     req.Title,
		URL:       req.URL,
		CreatedBy: actorValue(actor),
	}
	if err := s.repo.Create(ctx, video); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create video")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     actorID(actor),
		Action:     models.AuditActionVideoCreate,
		Resource:   "video",
		ResourceID: &video.ID,
		NewValues:  []byte(fmt.Sprintf(`{"title":%q,"chapter_id":%q}`, video.Title, video.ChapterID)),
	})
	s.invalidate(ctx)

	return video, nil
}

// Delete removes a video link.
func (s *VideoService) Delete(ctx context.Context, id string, actor *Principal) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete video")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     actorID(actor),
		Action:     models.AuditActionVideoDelete,
		Resource:   "video",
		ResourceID: &id,
	})
	s.invalidate(ctx)

	return nil
}

func (s *VideoService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", log.Action), zap.Error(err))
	}
}

func (s *VideoService) invalidate(ctx context.Context) {
	if s.catalog != nil {
		s.catalog.Invalidate(ctx)
	}
}
