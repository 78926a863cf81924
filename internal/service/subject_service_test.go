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

type mockSubjectRepo struct {
	subjects map[string]*models.Subject
	deleted  []string
}

func (m *mockSubjectRepo) List(ctx context.Context) ([]models.Subject, error) {
	var out []models.Subject
	for _, s := range m.subjects {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockSubjectRepo) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	s, ok := m.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (m *mockSubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = "s1"
	}
	if m.subjects == nil {
		m.subjects = make(map[string]*models.Subject)
	}
	m.subjects[subject.ID] = subject
	return nil
}

func (m *mockSubjectRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.subjects[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.subjects, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) Invalidate(ctx context.Context) {
	m.calls++
}

func TestSubjectServiceCreate(t *testing.T) {
	repo := &mockSubjectRepo{}
	invalidator := &mockInvalidator{}
	audit := &mockAudit{}
	svc := NewSubjectService(repo, audit, invalidator, nil, zap.NewNop())

	subject, err := svc.Create(context.Background(), CreateSubjectRequest{Name: "Mathematics"}, adminPrincipal("a1"))
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", subject.Name)
	assert.Equal(t, 1, invalidator.calls, "content mutations must drop the cached catalog")
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionSubjectCreate, audit.logs[0].Action)
}

func TestSubjectServiceCreateRequiresName(t *testing.T) {
	svc := NewSubjectService(&mockSubjectRepo{}, nil, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateSubjectRequest{}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSubjectServiceDelete(t *testing.T) {
	repo := &mockSubjectRepo{subjects: map[string]*models.Subject{
		"s1": {ID: "s1", Name: "Mathematics"},
	}}
	invalidator := &mockInvalidator{}
	svc := NewSubjectService(repo, nil, invalidator, nil, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "s1", adminPrincipal("a1")))
	assert.Contains(t, repo.deleted, "s1")
	assert.Equal(t, 1, invalidator.calls)
}

func TestSubjectServiceDeleteNotFound(t *testing.T) {
	svc := NewSubjectService(&mockSubjectRepo{}, nil, nil, nil, zap.NewNop())

	err := svc.Delete(context.Background(), "missing", nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
