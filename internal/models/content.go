package models

import "time"

// Note is a PDF document attached to a chapter. FileKey references the
// stored binary; deleting the row does not remove the object (see the
// maintenance orphan scan).
type Note struct {
	ID         string    `db:"id" json:"id"`
	ChapterID  string    `db:"chapter_id" json:"chapter_id"`
	Title      string    `db:"title" json:"title"`
	FileKey    string    `db:"file_key" json:"file_key"`
	MimeType   string    `db:"mime_type" json:"mime_type"`
	SizeBytes  int64     `db:"size_bytes" json:"size_bytes"`
	UploadedBy string    `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Video is an external video link attached to a chapter.
type Video struct {
	ID        string    `db:"id" json:"id"`
	ChapterID string    `db:"chapter_id" json:"chapter_id"`
	Title     string    `db:"title" json:"title"`
	URL       string    `db:"url" json:"url"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CatalogChapter groups a chapter with its owned content.
type CatalogChapter struct {
	Chapter
	Notes  []Note  `json:"notes"`
	Videos []Video `json:"videos"`
}

// CatalogSubject groups a subject with its chapters.
type CatalogSubject struct {
	Subject
	Chapters []CatalogChapter `json:"chapters"`
}
