package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/eduvault/eduvault-api/internal/models"
	appErrors "github.com/eduvault/eduvault-api/pkg/errors"
)

const catalogCacheKey = "catalog:tree"

type catalogSubjectLister interface {
	List(ctx context.Context) ([]models.Subject, error)
}

type catalogChapterLister interface {
	ListAll(ctx context.Context) ([]models.Chapter, error)
}

type catalogNoteLister interface {
	ListByChapters(ctx context.Context, chapterIDs []string) ([]models.Note, error)
}

type catalogVideoLister interface {
	ListByChapters(ctx context.Context, chapterIDs []string) ([]models.Video, error)
}

// CatalogService assembles the full subject/chapter/content tree served
// to readers. The assembled tree may be cached; every content mutation
// routes through Invalidate so readers never see a stale hierarchy for
// longer than one request.
type CatalogService struct {
	subjects catalogSubjectLister
	chapters catalogChapterLister
	notes    catalogNoteLister
	videos   catalogVideoLister
	cache    *CacheService
	logger   *zap.Logger
}

// NewCatalogService constructs the service. cache may be nil.
func NewCatalogService(subjects catalogSubjectLister, chapters catalogChapterLister, notes catalogNoteLister, videos catalogVideoLister, cache *CacheService, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		subjects: subjects,
		chapters: chapters,
		notes:    notes,
		videos:   videos,
		cache:    cache,
		logger:   logger,
	}
}

// Tree returns the complete catalog hierarchy ordered by subject name,
// chapter title and content title.
func (s *CatalogService) Tree(ctx context.Context) ([]models.CatalogSubject, error) {
	if s.cache.Enabled() {
		var cached []models.CatalogSubject
		if hit, err := s.cache.Get(ctx, catalogCacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	tree, err := s.buildTree(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, catalogCacheKey, tree, 0); err != nil {
			s.logger.Warn("failed to cache catalog tree", zap.Error(err))
		}
	}

	return tree, nil
}

// Invalidate drops the cached catalog tree. It is safe to call when
// caching is disabled.
func (s *CatalogService) Invalidate(ctx context.Context) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, catalogCacheKey); err != nil {
		s.logger.Warn("failed to invalidate catalog cache", zap.Error(err))
	}
}

func (s *CatalogService) buildTree(ctx context.Context) ([]models.CatalogSubject, error) {
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	chapters, err := s.chapters.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list chapters")
	}

	chapterIDs := make([]string, 0, len(chapters))
	for _, ch := range chapters {
		chapterIDs = append(chapterIDs, ch.ID)
	}

	var notes []models.Note
	var videos []models.Video
	if len(chapterIDs) > 0 {
		notes, err = s.notes.ListByChapters(ctx, chapterIDs)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notes")
		}
		videos, err = s.videos.ListByChapters(ctx, chapterIDs)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list videos")
		}
	}

	notesByChapter := make(map[string][]models.Note, len(chapters))
	for _, n := range notes {
		notesByChapter[n.ChapterID] = append(notesByChapter[n.ChapterID], n)
	}
	videosByChapter := make(map[string][]models.Video, len(chapters))
	for _, v := range videos {
		videosByChapter[v.ChapterID] = append(videosByChapter[v.ChapterID], v)
	}

	chaptersBySubject := make(map[string][]models.CatalogChapter, len(subjects))
	for _, ch := range chapters {
		entry := models.CatalogChapter{
			Chapter: ch,
			Notes:   notesByChapter[ch.ID],
			Videos:  videosByChapter[ch.ID],
		}
		if entry.Notes == nil {
			entry.Notes = []models.Note{}
		}
		if entry.Videos == nil {
			entry.Videos = []models.Video{}
		}
		chaptersBySubject[ch.SubjectID] = append(chaptersBySubject[ch.SubjectID], entry)
	}

	tree := make([]models.CatalogSubject, 0, len(subjects))
	for _, sub := range subjects {
		entries := chaptersBySubject[sub.ID]
		if entries == nil {
			entries = []models.CatalogChapter{}
		}
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].Chapter.Title == entries[j].Chapter.Title {
				return entries[i].Chapter.ID < entries[j].Chapter.ID
			}
			return entries[i].Chapter.Title < entries[j].Chapter.Title
		})
		tree = append(tree, models.CatalogSubject{
			Subject:  sub,
			Chapters: entries,
		})
	}

	return tree, nil
}
