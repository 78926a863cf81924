package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduvault/eduvault-api/internal/models"
)

func chapterColumns() []string {
	return []string{"id", "subject_id", "title", "description", "created_at", "updated_at"}
}

func TestChapterRepositoryListBySubject(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChapterRepository(db)

	rows := sqlmock.NewRows(chapterColumns()).
		AddRow("ch1", "s1", "Algebra", nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, subject_id, title, description, created_at, updated_at FROM chapters WHERE subject_id = $1 ORDER BY title ASC, id ASC")).
		WithArgs("s1").
		WillReturnRows(rows)

	chapters, err := repo.ListBySubject(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, chapters, 1)
	assert.Nil(t, chapters[0].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChapterRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChapterRepository(db)

	mock.ExpectExec("INSERT INTO chapters").
		WillReturnResult(sqlmock.NewResult(1, 1))

	chapter := &models.Chapter{SubjectID: "s1", Title: "Algebra"}
	require.NoError(t, repo.Create(context.Background(), chapter))
	assert.NotEmpty(t, chapter.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChapterRepositoryDeleteCascades(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChapterRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notes WHERE chapter_id = $1")).
		WithArgs("ch1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM videos WHERE chapter_id = $1")).
		WithArgs("ch1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM chapters WHERE id = $1")).
		WithArgs("ch1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "ch1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChapterRepositoryDeleteMissingRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChapterRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM notes").WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM videos").WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM chapters").WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
