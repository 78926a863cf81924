package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduvault/eduvault-api/internal/models"
)

type stubKeyLister struct {
	keys []string
	err  error
}

func (s *stubKeyLister) ListFileKeys(ctx context.Context) ([]string, error) {
	return s.keys, s.err
}

type stubObjectLister struct {
	keys []string
	err  error
}

func (s *stubObjectLister) List() ([]string, error) {
	return s.keys, s.err
}

func TestMaintenanceServiceReportsOrphans(t *testing.T) {
	notes := &stubKeyLister{keys: []string{"notes/ch1/kept.pdf"}}
	objects := &stubObjectLister{keys: []string{
		"notes/ch1/kept.pdf",
		"notes/ch1/orphan.pdf",
		"notes/ch2/another_orphan.pdf",
		"exports/catalog.csv",
	}}
	svc := NewMaintenanceService(notes, objects, nil, zap.NewNop(), MaintenanceConfig{})
	svc.Start(context.Background())
	defer svc.Stop()

	scan, err := svc.StartScan(context.Background(), adminPrincipal("a1"))
	require.NoError(t, err)
	assert.Equal(t, "a1", scan.RequestedBy)

	require.Eventually(t, func() bool {
		current, err := svc.GetScan(context.Background(), scan.ID)
		return err == nil && current.Status == models.OrphanScanStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	result, err := svc.GetScan(context.Background(), scan.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.ScannedCount, "export files are outside the scan")
	assert.Equal(t, []string{"notes/ch1/orphan.pdf", "notes/ch2/another_orphan.pdf"}, result.OrphanKeys)
	assert.False(t, result.StartedAt.IsZero())
	assert.NotNil(t, result.FinishedAt)
}

func TestMaintenanceServiceScanFailure(t *testing.T) {
	notes := &stubKeyLister{}
	objects := &stubObjectLister{err: context.DeadlineExceeded}
	svc := NewMaintenanceService(notes, objects, nil, zap.NewNop(), MaintenanceConfig{MaxRetries: 1, RetryDelay: time.Millisecond})
	svc.Start(context.Background())
	defer svc.Stop()

	scan, err := svc.StartScan(context.Background(), nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		current, err := svc.GetScan(context.Background(), scan.ID)
		return err == nil && current.Status == models.OrphanScanStatusFailed
	}, 5*time.Second, 10*time.Millisecond)

	result, err := svc.GetScan(context.Background(), scan.ID)
	require.NoError(t, err)
	require.NotEmpty(t, result.Error)
}

func TestMaintenanceServiceEvictsExpiredResults(t *testing.T) {
	svc := NewMaintenanceService(&stubKeyLister{}, &stubObjectLister{}, nil, zap.NewNop(), MaintenanceConfig{ResultTTL: time.Minute})

	stale := time.Now().Add(-2 * time.Minute)
	svc.scans["old"] = &models.OrphanScan{
		ID:         "old",
		Status:     models.OrphanScanStatusCompleted,
		FinishedAt: &stale,
	}
	svc.scans["running"] = &models.OrphanScan{
		ID:     "running",
		Status: models.OrphanScanStatusRunning,
	}

	_, err := svc.GetScan(context.Background(), "old")
	require.Error(t, err)

	current, err := svc.GetScan(context.Background(), "running")
	require.NoError(t, err)
	assert.Equal(t, models.OrphanScanStatusRunning, current.Status)
}

func TestMaintenanceServiceGetScanNotFound(t *testing.T) {
	svc := NewMaintenanceService(&stubKeyLister{}, &stubObjectLister{}, nil, zap.NewNop(), MaintenanceConfig{})

	_, err := svc.GetScan(context.Background(), "missing")
	require.Error(t, err)
}

func TestMaintenanceServiceStartScanRequiresRunningQueue(t *testing.T) {
	svc := NewMaintenanceService(&stubKeyLister{}, &stubObjectLister{}, nil, zap.NewNop(), MaintenanceConfig{})

	_, err := svc.StartScan(context.Background(), nil)
	require.Error(t, err)
}
