package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eduvault/eduvault-api/internal/models"
	appErrors "github.com/eduvault/eduvault-api/pkg/errors"
)

type noteRepository interface {
	ListByChapters(ctx context.Context, chapterIDs []string) ([]models.Note, error)
	FindByID(ctx context.Context, id string) (*models.Note, error)
	Create(ctx context.Context, note *models.Note) error
	Delete(ctx context.Context, id string) error
}

type noteChapterResolver interface {
	FindByID(ctx context.Context, id string) (*models.Chapter, error)
}

type noteFileStorage interface {
	SaveStream(key string, r io.Reader) (string, error)
	Open(key string) (*os.File, error)
	Delete(key string) error
}

type noteSignedURLSigner interface {
	Generate(resourceID, key string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (resourceID, key string, expiresAt time.Time, err error)
}

// NoteUpload carries upload metadata and a seekable content reader.
type NoteUpload struct {
	Filename string
	Size     int64
	MimeType string
	Content  io.ReadSeeker
}

// NoteDownload bundles file reader metadata for streaming.
type NoteDownload struct {
	File      *os.File
	Filename  string
	MimeType  string
	SizeBytes int64
	ExpiresAt time.Time
}

// UploadNoteRequest captures the multipart form fields for a note.
type UploadNoteRequest struct {
	ChapterID string `form:"chapter_id" validate:"required"`
	Title     string `form:"title" validate:"required"`
}

// NoteServiceConfig holds validation parameters and link building inputs.
type NoteServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	APIPrefix    string
}

// NoteService manages note metadata and the backing PDF objects. Uploads
// write the object first and the metadata row second; a failed row insert
// triggers a compensating object delete so neither side is left dangling.
type NoteService struct {
	repo      noteRepository
	chapters  noteChapterResolver
	storage   noteFileStorage
	signer    noteSignedURLSigner
	audit     auditLogger
	catalog   catalogInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	cfg       NoteServiceConfig
	mimeSet   map[string]struct{}
}

// NewNoteService constructs the service with defaults.
func NewNoteService(repo noteRepository, chapters noteChapterResolver, storage noteFileStorage, signer noteSignedURLSigner, audit auditLogger, catalog catalogInvalidator, validate *validator.Validate, logger *zap.Logger, cfg NoteServiceConfig) *NoteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 25 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"application/pdf"}
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(mt)] = struct{}{}
	}
	return &NoteService{
		repo:      repo,
		chapters:  chapters,
		storage:   storage,
		signer:    signer,
		audit:     audit,
		catalog:   catalog,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		mimeSet:   mimeSet,
	}
}

// ListForChapters returns notes belonging to the given chapter id set.
func (s *NoteService) ListForChapters(ctx context.Context, chapterIDs []string) ([]models.Note, error) {
	notes, err := s.repo.ListByChapters(ctx, chapterIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notes")
	}
	return notes, nil
}

// Get returns note metadata by id.
func (s *NoteService) Get(ctx context.Context, id string) (*models.Note, error) {
	note, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "note not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load note")
	}
	return note, nil
}

// Upload persists the PDF object and its metadata row for a new note.
func (s *NoteService) Upload(ctx context.Context, req UploadNoteRequest, upload NoteUpload, actor *Principal) (*models.Note, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid note payload")
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "note title is required")
	}
	if upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}

	if _, err := s.chapters.FindByID(ctx, req.ChapterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "chapter does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chapter")
	}

	mimeType, err := s.detectMime(upload)
	if err != nil {
		return nil, err
	}
	if _, allowed := s.mimeSet[strings.ToLower(mimeType)]; !allowed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mime type not allowed")
	}

	key := s.generateKey(req.ChapterID, upload.Filename)
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset upload stream")
	}
	storedKey, err := s.storage.SaveStream(key, upload.Content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist note file")
	}

	note := &models.Note{
		ChapterID:  req.ChapterID,
		Title:      req.Title,
		FileKey:    storedKey,
		MimeType:   mimeType,
		SizeBytes:  upload.Size,
		UploadedBy: actorValue(actor),
	}
	if err := s.repo.Create(ctx, note); err != nil {
		// Compensate so a failed metadata insert does not strand the object.
		if delErr := s.storage.Delete(storedKey); delErr != nil {
			s.logger.Warn("failed to clean up stored object after insert failure", zap.String("key", storedKey), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create note metadata")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     actorID(actor),
		Action:     models.AuditActionNoteUpload,
		Resource:   "note",
		ResourceID: &note.ID,
		NewValues:  []byte(fmt.Sprintf(`{"title":%q,"chapter_id":%q}`, note.Title, note.ChapterID)),
	})
	s.invalidate(ctx)

	return note, nil
}

// GetDownloadURL generates a signed URL for downloading the note PDF.
func (s *NoteService) GetDownloadURL(ctx context.Context, id string) (string, time.Time, error) {
	if s.signer == nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	note, err := s.Get(ctx, id)
	if err != nil {
		return "", time.Time{}, err
	}
	token, expiresAt, err := s.signer.Generate(note.ID, note.FileKey)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate download token")
	}
	base := strings.TrimRight(s.cfg.APIPrefix, "/")
	url := fmt.Sprintf("%s/notes/%s/download?token=%s", base, note.ID, token)
	return url, expiresAt, nil
}

// Download validates the token and opens the note file for streaming.
func (s *NoteService) Download(ctx context.Context, id, token string) (*NoteDownload, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	note, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	noteID, key, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	if noteID != note.ID || key != note.FileKey {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	file, err := s.storage.Open(key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open note file")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read note file metadata")
	}
	return &NoteDownload{
		File:      file,
		Filename:  filepath.Base(key),
		MimeType:  note.MimeType,
		SizeBytes: info.Size(),
		ExpiresAt: expiresAt,
	}, nil
}

// Delete removes the note metadata row. The stored object remains behind;
// the maintenance orphan scan reports it.
func (s *NoteService) Delete(ctx context.Context, id string, actor *Principal) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "note not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete note")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     actorID(actor),
		Action:     models.AuditActionNoteDelete,
		Resource:   "note",
		ResourceID: &id,
	})
	s.invalidate(ctx)

	return nil
}

// detectMime sniffs the first bytes of the upload. The client-declared
// Content-Type is advisory; it only wins when sniffing is inconclusive.
func (s *NoteService) detectMime(upload NoteUpload) (string, error) {
	if upload.Content == nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "file reader missing")
	}
	header := make([]byte, 512)
	n, err := upload.Content.Read(header)
	if err != nil && err != io.EOF {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect file")
	}
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset upload stream")
	}
	if n == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "empty file")
	}
	detected := http.DetectContentType(header[:n])
	if base, _, found := strings.Cut(detected, ";"); found {
		detected = strings.TrimSpace(base)
	}
	if detected == "application/octet-stream" && upload.MimeType != "" {
		return upload.MimeType, nil
	}
	return detected, nil
}

func (s *NoteService) generateKey(chapterID, original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" {
		ext = ".pdf"
	}
	return fmt.Sprintf("notes/%s/%d_%s%s", chapterID, time.Now().Unix(), randomSuffix(), ext)
}

func (s *NoteService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", log.Action), zap.Error(err))
	}
}

func (s *NoteService) invalidate(ctx context.Context) {
	if s.catalog != nil {
		s.catalog.Invalidate(ctx)
	}
}

func actorValue(actor *Principal) string {
	if actor == nil {
		return ""
	}
	return actor.User.ID
}

func randomSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano()%100000)
	}
	return hex.EncodeToString(buf)
}
