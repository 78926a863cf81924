package models

import "time"

// Subject is a top-level topic owning zero or more chapters.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CoverImage  *string   `db:"cover_image" json:"cover_image,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Chapter belongs to exactly one subject and owns notes and videos.
type Chapter struct {
	ID          string    `db:"id" json:"id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
