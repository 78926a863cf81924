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

type mockVideoRepo struct {
	videos map[string]*models.Video
}

func (m *mockVideoRepo) ListByChapters(ctx context.Context, chapterIDs []string) ([]models.Video, error) {
	var out []models.Video
	for _, v := range m.videos {
		for _, id := range chapterIDs {
			if v.ChapterID == id {
				out = append(out, *v)
			}
		}
	}
	return out, nil
}

func (m *mockVideoRepo) FindByID(ctx context.Context, id string) (*models.Video, error) {
	v, ok := m.videos[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *v
	return &copied, nil
}

func (m *mockVideoRepo) Create(ctx context.Context, video *models.Video) error {
	if video.ID == "" {
		video.ID = "v1"
	}
	if m.videos == nil {
		m.videos = make(map[string]*models.Video)
	}
	m.videos[video.ID] = video
	return nil
}

func (m *mockVideoRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.videos[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.videos, id)
	return nil
}

func newTestVideoService(repo *mockVideoRepo) *VideoService {
	chapters := &mockChapterResolver{chapters: map[string]*models.Chapter{
		"ch1": {ID: "ch1", SubjectID: "s1", Title: "Algebra"},
	}}
	return NewVideoService(repo, chapters, nil, nil, nil, zap.NewNop())
}

func TestVideoServiceCreate(t *testing.T) {
	repo := &mockVideoRepo{}
	svc := newTestVideoService(repo)

	video, err := svc.Create(context.Background(), CreateVideoRequest{
		ChapterID: "ch1",
		Title:     "Intro",
		URL:       "https://video.example.com/watch?v=abc",
	}, &Principal{User: models.User{ID: "a1"}})
	require.NoError(t, err)
	assert.Equal(t, "Intro", video.Title)
	assert.Equal(t, "a1", video.CreatedBy)
}

func TestVideoServiceCreateRejectsRelativeURL(t *testing.T) {
	svc := newTestVideoService(&mockVideoRepo{})

	_, err := svc.Create(context.Background(), CreateVideoRequest{
		ChapterID: "ch1",
		Title:     "Intro",
		URL:       "/relative/path",
	}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestVideoServiceCreateRejectsUnknownChapter(t *testing.T) {
	svc := newTestVideoService(&mockVideoRepo{})

	_, err := svc.Create(context.Background(), CreateVideoRequest{
		ChapterID: "missing",
		Title:     "Intro",
		URL:       "https://video.example.com/watch?v=abc",
	}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestVideoServiceDeleteNotFound(t *testing.T) {
	svc := newTestVideoService(&mockVideoRepo{})

	err := svc.Delete(context.Background(), "missing", nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
