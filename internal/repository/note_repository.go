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

// NoteRepository handles persistence for note metadata rows.
type NoteRepository struct {
	db *sqlx.DB
}

// NewNoteRepository creates a new repository instance.
func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// ListByChapters returns notes whose chapter is in the given id set,
// ordered by title.
func (r *NoteRepository) ListByChapters(ctx context.Context, chapterIDs []string) ([]models.Note, error) {
	notes := make([]models.Note, 0)
	if len(chapterIDs) == 0 {
		return notes, nil
	}
	query, args, err := sqlx.In(`SELECT id, chapter_id, title, file_key, mime_type, size_bytes, uploaded_by, created_at FROM notes WHERE chapter_id IN (?) ORDER BY title ASC, id ASC`, chapterIDs)
	if err != nil {
		return nil, fmt.Errorf("build notes query: %w", err)
	}
	query = r.db.Rebind(query)
	if err := r.db.SelectContext(ctx, &notes, query, args...); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// FindByID returns a note by id.
func (r *NoteRepository) FindByID(ctx context.Context, id string) (*models.Note, error) {
	const query = `SELECT id, chapter_id, title, file_key, mime_type, size_bytes, uploaded_by, created_at FROM notes WHERE id = $1`
	var note models.Note
	if err := r.db.GetContext(ctx, &note, query, id); err != nil {
		return nil, err
	}
	return &note, nil
}

// Create persists note metadata. The binary must already be in storage.
func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO notes (id, chapter_id, title, file_key, mime_type, size_bytes, uploaded_by, created_at) VALUES (:id, :chapter_id, :title, :file_key, :mime_type, :size_bytes, :uploaded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

// Delete removes a note metadata row. The stored binary is intentionally
// left behind; the maintenance scan reports such orphans.
func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListFileKeys returns every referenced storage key, used by the orphan scan.
func (r *NoteRepository) ListFileKeys(ctx context.Context) ([]string, error) {
	keys := make([]string, 0)
	if err := r.db.SelectContext(ctx, &keys, `SELECT file_key FROM notes`); err != nil {
		return nil, fmt.Errorf("list note file keys: %w", err)
	}
	return keys, nil
}
