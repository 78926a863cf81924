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

// SubjectRepository handles persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns all subjects ordered by name for deterministic rendering.
func (r *SubjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	const query = `SELECT id, name, description, cover_image, created_at, updated_at FROM subjects ORDER BY name ASC, id ASC`
	subjects := make([]models.Subject, 0)
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByID returns a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, name, description, cover_image, created_at, updated_at FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// Create persists a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = now
	}
	subject.UpdatedAt = now

	const query = `INSERT INTO subjects (id, name, description, cover_image, created_at, updated_at) VALUES (:id, :name, :description, :cover_image, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Delete removes a subject and cascades to its chapters and their notes and
// videos inside one transaction so no orphan rows survive. Stored note
// binaries are left in place.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin subject delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE chapter_id IN (SELECT id FROM chapters WHERE subject_id = $1)`, id); err != nil {
		return fmt.Errorf("cascade delete notes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM videos WHERE chapter_id IN (SELECT id FROM chapters WHERE subject_id = $1)`, id); err != nil {
		return fmt.Errorf("cascade delete videos: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chapters WHERE subject_id = $1`, id); err != nil {
		return fmt.Errorf("cascade delete chapters: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit subject delete: %w", err)
	}
	return nil
}
