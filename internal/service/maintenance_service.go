package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eduvault/eduvault-api/internal/models"
	appErrors "github.com/eduvault/eduvault-api/pkg/errors"
	"github.com/eduvault/eduvault-api/pkg/jobs"
)

const notesKeyPrefix = "notes/"

type orphanKeyLister interface {
	ListFileKeys(ctx context.Context) ([]string, error)
}

type orphanObjectLister interface {
	List() ([]string, error)
}

// MaintenanceConfig tunes background maintenance behaviour. ResultTTL
// bounds how long finished scan results stay queryable; zero or negative
// falls back to a day.
type MaintenanceConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
	ResultTTL  time.Duration
}

const defaultScanResultTTL = 24 * time.Hour

// MaintenanceService runs the orphan file scan. Stored objects whose key
// no longer appears in the notes table are reported, never removed; note
// deletion intentionally leaves the binary behind and this scan is how
// operators find out.
type MaintenanceService struct {
	notes   orphanKeyLister
	objects orphanObjectLister
	audit   auditLogger
	logger  *zap.Logger
	queue   *jobs.Queue

	mu        sync.RWMutex
	scans     map[string]*models.OrphanScan
	resultTTL time.Duration
}

// NewMaintenanceService constructs the service and its job queue. Call
// Start before enqueueing scans and Stop during shutdown.
func NewMaintenanceService(notes orphanKeyLister, objects orphanObjectLister, audit auditLogger, logger *zap.Logger, cfg MaintenanceConfig) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.ResultTTL
	if ttl <= 0 {
		ttl = defaultScanResultTTL
	}
	s := &MaintenanceService{
		notes:     notes,
		objects:   objects,
		audit:     audit,
		logger:    logger,
		scans:     make(map[string]*models.OrphanScan),
		resultTTL: ttl,
	}
	s.queue = jobs.NewQueue("maintenance", s.handleJob, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start begins the background workers.
func (s *MaintenanceService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the background workers.
func (s *MaintenanceService) Stop() {
	s.queue.Stop()
}

// StartScan registers a new scan and enqueues it for execution.
func (s *MaintenanceService) StartScan(ctx context.Context, actor *Principal) (*models.OrphanScan, error) {
	scan := &models.OrphanScan{
		ID:          uuid.NewString(),
		Status:      models.OrphanScanStatusPending,
		RequestedBy: actorValue(actor),
	}

	s.mu.Lock()
	s.evictExpiredLocked()
	s.scans[scan.ID] = scan
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: scan.ID, Type: "orphan_scan", Payload: scan.ID}); err != nil {
		s.mu.Lock()
		delete(s.scans, scan.ID)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue scan")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     actorID(actor),
		Action:     models.AuditActionOrphanScan,
		Resource:   "orphan_scan",
		ResourceID: &scan.ID,
	})

	return s.snapshot(scan.ID), nil
}

// GetScan returns the current state of a scan. Finished results expire
// after the configured TTL and read back as not found.
func (s *MaintenanceService) GetScan(_ context.Context, id string) (*models.OrphanScan, error) {
	s.mu.Lock()
	s.evictExpiredLocked()
	s.mu.Unlock()

	scan := s.snapshot(id)
	if scan == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "scan not found")
	}
	return scan, nil
}

func (s *MaintenanceService) handleJob(ctx context.Context, job jobs.Job) error {
	id, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	return s.runScan(ctx, id)
}

func (s *MaintenanceService) runScan(ctx context.Context, id string) error {
	now := time.Now().UTC()
	s.update(id, func(scan *models.OrphanScan) {
		scan.Status = models.OrphanScanStatusRunning
		scan.StartedAt = now
	})

	stored, err := s.objects.List()
	if err != nil {
		s.fail(id, err)
		return err
	}
	referenced, err := s.notes.ListFileKeys(ctx)
	if err != nil {
		s.fail(id, err)
		return err
	}

	known := make(map[string]struct{}, len(referenced))
	for _, key := range referenced {
		known[key] = struct{}{}
	}

	var orphans []string
	scanned := 0
	for _, key := range stored {
		if !strings.HasPrefix(key, notesKeyPrefix) {
			continue
		}
		scanned++
		if _, ok := known[key]; !ok {
			orphans = append(orphans, key)
		}
	}
	sort.Strings(orphans)

	finished := time.Now().UTC()
	s.update(id, func(scan *models.OrphanScan) {
		scan.Status = models.OrphanScanStatusCompleted
		scan.FinishedAt = &finished
		scan.ScannedCount = scanned
		scan.OrphanKeys = orphans
	})

	s.logger.Info("orphan scan completed",
		zap.String("scan_id", id),
		zap.Int("scanned", scanned),
		zap.Int("orphans", len(orphans)))

	return nil
}

func (s *MaintenanceService) fail(id string, cause error) {
	finished := time.Now().UTC()
	msg := cause.Error()
	s.update(id, func(scan *models.OrphanScan) {
		scan.Status = models.OrphanScanStatusFailed
		scan.FinishedAt = &finished
		scan.Error = msg
	})
}

// evictExpiredLocked drops finished scans older than the result TTL.
// Callers must hold the write lock.
func (s *MaintenanceService) evictExpiredLocked() {
	cutoff := time.Now().Add(-s.resultTTL)
	for id, scan := range s.scans {
		if scan.FinishedAt != nil && scan.FinishedAt.Before(cutoff) {
			delete(s.scans, id)
		}
	}
}

func (s *MaintenanceService) update(id string, fn func(*models.OrphanScan)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if scan, ok := s.scans[id]; ok {
		fn(scan)
	}
}

func (s *MaintenanceService) snapshot(id string) *models.OrphanScan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scan, ok := s.scans[id]
	if !ok {
		return nil
	}
	copied := *scan
	if scan.OrphanKeys != nil {
		copied.OrphanKeys = append([]string(nil), scan.OrphanKeys...)
	}
	return &copied
}

func (s *MaintenanceService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", log.Action), zap.Error(err))
	}
}
