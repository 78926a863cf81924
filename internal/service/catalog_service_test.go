package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduvault/eduvault-api/internal/models"
)

type catalogChapterStub struct {
	chapters []models.Chapter
}

func (m *catalogChapterStub) ListAll(ctx context.Context) ([]models.Chapter, error) {
	return m.chapters, nil
}

func newTestCatalogService() *CatalogService {
	subjects := &mockSubjectRepo{subjects: map[string]*models.Subject{
		"s1": {ID: "s1", Name: "Mathematics"},
		"s2": {ID: "s2", Name: "Physics"},
	}}
	chapters := &catalogChapterStub{chapters: []models.Chapter{
		{ID: "ch2", SubjectID: "s1", Title: "Geometry"},
		{ID: "ch1", SubjectID: "s1", Title: "Algebra"},
	}}
	notes := &mockNoteRepo{notes: map[string]*models.Note{
		"n1": {ID: "n1", ChapterID: "ch1", Title: "Lesson 1"},
	}}
	videos := &mockVideoRepo{videos: map[string]*models.Video{
		"v1": {ID: "v1", ChapterID: "ch2", Title: "Shapes", URL: "https://video.example.com/1"},
	}}
	return NewCatalogService(subjects, chapters, notes, videos, nil, zap.NewNop())
}

func TestCatalogServiceTreeGroupsContentByChapter(t *testing.T) {
	svc := newTestCatalogService()

	tree, err := svc.Tree(context.Background())
	require.NoError(t, err)
	require.Len(t, tree, 2)

	bySubject := make(map[string]models.CatalogSubject, len(tree))
	for _, s := range tree {
		bySubject[s.Subject.ID] = s
	}

	math := bySubject["s1"]
	require.Len(t, math.Chapters, 2)
	assert.Equal(t, "Algebra", math.Chapters[0].Title, "chapters sorted by title")
	assert.Equal(t, "Geometry", math.Chapters[1].Title)

	require.Len(t, math.Chapters[0].Notes, 1)
	assert.Equal(t, "Lesson 1", math.Chapters[0].Notes[0].Title)
	assert.Empty(t, math.Chapters[0].Videos)
	require.NotNil(t, math.Chapters[0].Videos, "empty content renders as [] not null")

	require.Len(t, math.Chapters[1].Videos, 1)
	assert.Equal(t, "Shapes", math.Chapters[1].Videos[0].Title)
}

func TestCatalogServiceTreeEmptySubject(t *testing.T) {
	svc := newTestCatalogService()

	tree, err := svc.Tree(context.Background())
	require.NoError(t, err)

	for _, s := range tree {
		if s.Subject.ID == "s2" {
			require.NotNil(t, s.Chapters, "childless subject renders as [] not null")
			assert.Empty(t, s.Chapters)
			return
		}
	}
	t.Fatal("expected subject s2 in tree")
}

func TestCatalogServiceInvalidateNoCacheIsNoop(t *testing.T) {
	svc := newTestCatalogService()
	svc.Invalidate(context.Background())
}
