package models

import "time"

// ExportFormat enumerates supported catalog export encodings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// CatalogExport describes a rendered export of the content hierarchy.
type CatalogExport struct {
	ID          string       `json:"id"`
	Format      ExportFormat `json:"format"`
	FileKey     string       `json:"file_key"`
	SizeBytes   int64        `json:"size_bytes"`
	RequestedBy string       `json:"requested_by"`
	CreatedAt   time.Time    `json:"created_at"`
	DownloadURL string       `json:"download_url"`
	ExpiresAt   time.Time    `json:"expires_at"`
}
