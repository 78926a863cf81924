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

type mockChapterRepo struct {
	chapters map[string]*models.Chapter
}

func (m *mockChapterRepo) ListBySubject(ctx context.Context, subjectID string) ([]models.Chapter, error) {
	var out []models.Chapter
	for _, ch := range m.chapters {
		if ch.SubjectID == subjectID {
			out = append(out, *ch)
		}
	}
	return out, nil
}

func (m *mockChapterRepo) FindByID(ctx context.Context, id string) (*models.Chapter, error) {
	ch, ok := m.chapters[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *ch
	return &copied, nil
}

func (m *mockChapterRepo) Create(ctx context.Context, chapter *models.Chapter) error {
	if chapter.ID == "" {
		chapter.ID = "ch1"
	}
	if m.chapters == nil {
		m.chapters = make(map[string]*models.Chapter)
	}
	m.chapters[chapter.ID] = chapter
	return nil
}

func (m *mockChapterRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.chapters[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.chapters, id)
	return nil
}

func newTestChapterService(repo *mockChapterRepo, invalidator *mockInvalidator) *ChapterService {
	subjects := &mockSubjectRepo{subjects: map[string]*models.Subject{
		"s1": {ID: "s1", Name: "Mathematics"},
	}}
	return NewChapterService(repo, subjects, nil, invalidator, nil, zap.NewNop())
}

func TestChapterServiceCreate(t *testing.T) {
	repo := &mockChapterRepo{}
	invalidator := &mockInvalidator{}
	svc := newTestChapterService(repo, invalidator)

	chapter, err := svc.Create(context.Background(), CreateChapterRequest{SubjectID: "s1", Title: "Algebra"}, adminPrincipal("a1"))
	require.NoError(t, err)
	assert.Equal(t, "Algebra", chapter.Title)
	assert.Equal(t, "s1", chapter.SubjectID)
	assert.Equal(t, 1, invalidator.calls)
}

func TestChapterServiceCreateRejectsUnknownSubject(t *testing.T) {
	svc := newTestChapterService(&mockChapterRepo{}, &mockInvalidator{})

	_, err := svc.Create(context.Background(), CreateChapterRequest{SubjectID: "missing", Title: "Algebra"}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestChapterServiceListForMissingSubject(t *testing.T) {
	svc := newTestChapterService(&mockChapterRepo{}, &mockInvalidator{})

	_, err := svc.ListForSubject(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestChapterServiceDelete(t *testing.T) {
	repo := &mockChapterRepo{chapters: map[string]*models.Chapter{
		"ch1": {ID: "ch1", SubjectID: "s1", Title: "Algebra"},
	}}
	invalidator := &mockInvalidator{}
	svc := newTestChapterService(repo, invalidator)

	require.NoError(t, svc.Delete(context.Background(), "ch1", nil))
	assert.Empty(t, repo.chapters)
	assert.Equal(t, 1, invalidator.calls)
}
