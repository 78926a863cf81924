package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eduvault/eduvault-api/internal/models"
	appErrors "github.com/eduvault/eduvault-api/pkg/errors"
	"github.com/eduvault/eduvault-api/pkg/export"
)

type catalogTreeProvider interface {
	Tree(ctx context.Context) ([]models.CatalogSubject, error)
}

type exportFileStorage interface {
	Save(key string, data []byte) (string, error)
	Open(key string) (*os.File, error)
	Delete(key string) error
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour. Link expiry is owned by the
// signer, not the service.
type ExportConfig struct {
	APIPrefix string
}

// ExportDownload bundles a stored export file for streaming.
type ExportDownload struct {
	File     *os.File
	Filename string
	Format   models.ExportFormat
}

// ExportService flattens the catalog into a dataset and renders it as
// CSV or PDF, stored on disk and handed out through signed URLs.
type ExportService struct {
	catalog catalogTreeProvider
	storage exportFileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  noteSignedURLSigner
	audit   auditLogger
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(catalog catalogTreeProvider, storage exportFileStorage, signer noteSignedURLSigner, audit auditLogger, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		catalog: catalog,
		storage: storage,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		audit:   audit,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate renders the current catalog as the requested format and
// returns metadata including a signed download URL.
func (s *ExportService) Generate(ctx context.Context, format models.ExportFormat, actor *Principal) (*models.CatalogExport, error) {
	if format != models.ExportFormatCSV && format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}

	tree, err := s.catalog.Tree(ctx)
	if err != nil {
		return nil, err
	}
	dataset := buildCatalogDataset(tree)

	var payload []byte
	switch format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, "Content Catalog")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	exportID := uuid.NewString()
	filename := fmt.Sprintf("exports/catalog_%s_%d.%s", exportID, time.Now().Unix(), format)
	key, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(exportID, key)
	if err != nil {
		// Leave no stored file without a working link.
		if delErr := s.storage.Delete(key); delErr != nil {
			s.logger.Warn("failed to clean up export after signing failure", zap.String("key", key), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}

	result := &models.CatalogExport{
		ID:          exportID,
		Format:      format,
		FileKey:     key,
		SizeBytes:   int64(len(payload)),
		RequestedBy: actorValue(actor),
		CreatedAt:   time.Now().UTC(),
		DownloadURL: fmt.Sprintf("%s/admin/exports/download?token=%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		ExpiresAt:   expiresAt,
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     actorID(actor),
		Action:     models.AuditActionCatalogExport,
		Resource:   "catalog_export",
		ResourceID: &result.ID,
		NewValues:  []byte(fmt.Sprintf(`{"format":%q,"size_bytes":%s}`, format, strconv.FormatInt(result.SizeBytes, 10))),
	})

	return result, nil
}

// Download validates the signed token and opens the stored export file.
func (s *ExportService) Download(token string) (*ExportDownload, error) {
	_, key, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	file, err := s.storage.Open(key)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
	}
	format := models.ExportFormatCSV
	if strings.HasSuffix(key, ".pdf") {
		format = models.ExportFormatPDF
	}
	parts := strings.Split(key, "/")
	return &ExportDownload{
		File:     file,
		Filename: parts[len(parts)-1],
		Format:   format,
	}, nil
}

func (s *ExportService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", log.Action), zap.Error(err))
	}
}

func buildCatalogDataset(tree []models.CatalogSubject) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"Subject", "Chapter", "Type", "Title", "Detail"},
	}
	for _, sub := range tree {
		if len(sub.Chapters) == 0 {
			dataset.Rows = append(dataset.Rows, []string{sub.Subject.Name, "", "", "", ""})
			continue
		}
		for _, ch := range sub.Chapters {
			if len(ch.Notes) == 0 && len(ch.Videos) == 0 {
				dataset.Rows = append(dataset.Rows, []string{sub.Subject.Name, ch.Chapter.Title, "", "", ""})
				continue
			}
			for _, n := range ch.Notes {
				dataset.Rows = append(dataset.Rows, []string{sub.Subject.Name, ch.Chapter.Title, "note", n.Title, n.FileKey})
			}
			for _, v := range ch.Videos {
				dataset.Rows = append(dataset.Rows, []string{sub.Subject.Name, ch.Chapter.Title, "video", v.Title, v.URL})
			}
		}
	}
	return dataset
}
