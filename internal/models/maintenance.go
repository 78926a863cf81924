package models

import "time"

// OrphanScanStatus tracks the lifecycle of a storage scan job.
type OrphanScanStatus string

const (
	OrphanScanStatusPending   OrphanScanStatus = "PENDING"
	OrphanScanStatusRunning   OrphanScanStatus = "RUNNING"
	OrphanScanStatusCompleted OrphanScanStatus = "COMPLETED"
	OrphanScanStatusFailed    OrphanScanStatus = "FAILED"
)

// OrphanScan reports stored note files that no metadata row references.
// The scan only reports; orphaned objects are never deleted automatically.
type OrphanScan struct {
	ID           string           `json:"id"`
	Status       OrphanScanStatus `json:"status"`
	RequestedBy  string           `json:"requested_by"`
	StartedAt    time.Time        `json:"started_at"`
	FinishedAt   *time.Time       `json:"finished_at,omitempty"`
	ScannedCount int              `json:"scanned_count"`
	OrphanKeys   []string         `json:"orphan_keys"`
	Error        string           `json:"error,omitempty"`
}
