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

// VideoRepository handles persistence for video links.
type VideoRepository struct {
	db *sqlx.DB
}

// NewVideoRepository creates a new repository instance.
func NewVideoRepository(db *sqlx.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// ListByChapters returns videos whose chapter is in the given id set,
// ordered by title.
func (r *VideoRepository) ListByChapters(ctx context.Context, chapterIDs []string) ([]models.Video, error) {
	videos := make([]models.Video, 0)
	if len(chapterIDs) == 0 {
		return videos, nil
	}
	query, args, err := sqlx.In(`SELECT id, chapter_id, title, url, created_by, created_at FROM videos WHERE chapter_id IN (?) ORDER BY title ASC, id ASC`, chapterIDs)
	if err != nil {
		return nil, fmt.Errorf("build videos query: %w", err)
	}
	query = r.db.Rebind(query)
	if err := r.db.SelectContext(ctx, &videos, query, args...); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

// FindByID returns a video by id.
func (r *VideoRepository) FindByID(ctx context.Context, id string) (*models.Video, error) {
	const query = `SELECT id, chapter_id, title, url, created_by, created_at FROM videos WHERE id = $1`
	var video models.Video
	if err := r.db.GetContext(ctx, &video, query, id); err != nil {
		return nil, err
	}
	return &video, nil
}

// Create persists a new video link.
func (r *VideoRepository) Create(ctx context.Context, video *models.Video) error {
	if video.ID == "" {
		video.ID = uuid.NewString()
	}
	if video.CreatedAt.IsZero() {
		video.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO videos (id, chapter_id, title, url, created_by, created_at) VALUES (:id, :chapter_id, :title, :url, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, video); err != nil {
		return fmt.Errorf("create video: %w", err)
	}
	return nil
}

// Delete removes a video link.
func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
