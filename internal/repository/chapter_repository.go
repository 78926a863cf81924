package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eduvault/eduvault-api/internal/models"
)

// ChapterRepository handles persistence for chapters.
type ChapterRepository struct {
	db *sqlx.DB
}

// NewChapterRepository creates a new repository instance.
func NewChapterRepository(db *sqlx.DB) *ChapterRepository {
	return &ChapterRepository{db: db}
}

// ListBySubject returns the chapters owned by a subject ordered by title.
func (r *ChapterRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.Chapter, error) {
	const query = `SELECT id, subject_id, title, description, created_at, updated_at FROM chapters WHERE subject_id = $1 ORDER BY title ASC, id ASC`
	chapters := make([]models.Chapter, 0)
	if err := r.db.SelectContext(ctx, &chapters, query, subjectID); err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	return chapters, nil
}

// ListAll returns every chapter ordered by title, used for catalog assembly.
func (r *ChapterRepository) ListAll(ctx context.Context) ([]models.Chapter, error) {
	const query = `SELECT id, subject_id, title, description, created_at, updated_at FROM chapters ORDER BY title ASC, id ASC`
	chapters := make([]models.Chapter, 0)
	if err := r.db.SelectContext(ctx, &chapters, query); err != nil {
		return nil, fmt.Errorf("list all chapters: %w", err)
	}
	return chapters, nil
}

// FindByID returns a chapter by id.
func (r *ChapterRepository) FindByID(ctx context.Context, id string) (*models.Chapter, error) {
	const query = `SELECT id, subject_id, title, description, created_at, updated_at FROM chapters WHERE id = $1`
	var chapter models.Chapter
	if err := r.db.GetContext(ctx, &chapter, query, id); err != nil {
		return nil, err
	}
	return &chapter, nil
}

// Create persists a new chapter.
func (r *ChapterRepository) Create(ctx context.Context, chapter *models.Chapter) error {
	if chapter.ID == "" {
		chapter.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if chapter.CreatedAt.IsZero() {
		chapter.CreatedAt = now
	}
	chapter.UpdatedAt = now

	const query = `INSERT INTO chapters (id, subject_id, title, description, created_at, updated_at) VALUES (:id, :subject_id, :title, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, chapter); err != nil {
		return fmt.Errorf("create chapter: %w", err)
	}
	return nil
}

// Delete removes a chapter and cascades to its notes and videos in one
// transaction.
func (r *ChapterRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chapter delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE chapter_id = $1`, id); err != nil {
		return fmt.Errorf("cascade delete notes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM videos WHERE chapter_id = $1`, id); err != nil {
		return fmt.Errorf("cascade delete videos: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM chapters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete chapter: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chapter delete: %w", err)
	}
	return nil
}
