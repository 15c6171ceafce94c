package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/highercomve/timesheets/internal/apperrors"
	"github.com/highercomve/timesheets/internal/models"
)

func newTestStorage(t *testing.T) (*Storage, *FileBackend) {
	t.Helper()
	backend, err := NewFileBackend(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	s := NewStorage(backend, zap.NewNop())
	s.now = func() time.Time { return time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC) }
	return s, backend
}

func seed(t *testing.T, s *Storage) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.MutateWorkers(ctx, func([]models.Worker) ([]models.Worker, error) {
		return []models.Worker{
			{ContractorID: "w1", Name: "Ana", Email: "ana@example.com", InviteToken: "TOK-1"},
			{ContractorID: "w2", Name: "Ben", Email: "ben@example.com", InviteToken: "TOK-2"},
		}, nil
	}))
	for _, e := range []models.TimeEntry{
		{ID: "e1", WorkerID: "w1", Date: "2024-03-01", Status: models.StatusApproved},
		{ID: "e2", WorkerID: "w2", Date: "2024-03-04", Status: models.StatusSubmitted},
		{ID: "e3", WorkerID: "w1", Date: "2024-03-10", Status: models.StatusDraft},
	} {
		require.NoError(t, s.AddEntry(ctx, e))
	}
}

func TestFileBackendEmpty(t *testing.T) {
	ctx := context.Background()
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	client, err := b.LoadClient(ctx)
	require.NoError(t, err)
	assert.Nil(t, client)

	workers, err := b.LoadWorkers(ctx)
	require.NoError(t, err)
	assert.Empty(t, workers)

	entries, err := b.LoadEntries(ctx)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestFileBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	h := 2.5
	entries := []models.TimeEntry{{
		ID: "e1", WorkerID: "w1", Date: "2024-03-01", ManualHours: &h, Status: models.StatusDraft,
		ProofOfWork: []models.ProofOfWork{{ID: "p1", Type: models.ProofNote, Content: "notes"}},
	}}
	require.NoError(t, b.SaveEntries(ctx, entries))

	got, err := b.LoadEntries(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2.5, *got[0].ManualHours)
	assert.Equal(t, "notes", got[0].ProofOfWork[0].Content)

	files, err := os.ReadDir(b.BaseDir)
	require.NoError(t, err)
	assert.Len(t, files, 1, "temp files must not be left behind")

	require.NoError(t, b.Clear(ctx))
	got, err = b.LoadEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileBackendCorrupt(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(b.path(workersFile), []byte("{nope"), 0644))

	_, err = b.LoadWorkers(context.Background())
	assert.Error(t, err)
}

func TestStorageLookups(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStorage(t)
	seed(t, s)

	w, err := s.WorkerByToken(ctx, "TOK-2")
	require.NoError(t, err)
	assert.Equal(t, "w2", w.ContractorID)

	_, err = s.WorkerByToken(ctx, "")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))

	_, err = s.Worker(ctx, "nobody")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))

	byWorker, err := s.EntriesByWorker(ctx, "w1")
	require.NoError(t, err)
	assert.Len(t, byWorker, 2)

	byStatus, err := s.EntriesByStatus(ctx, models.StatusSubmitted)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "e2", byStatus[0].ID)

	inRange, err := s.EntriesInRange(ctx,
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, inRange, 2)
}

func TestStorageEntryMutations(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStorage(t)
	seed(t, s)

	err := s.AddEntry(ctx, models.TimeEntry{ID: "e1"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrConflict))

	updated, err := s.UpdateEntry(ctx, "e2", func(e *models.TimeEntry) error {
		e.Status = models.StatusApproved
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)
	require.NotNil(t, updated.LastModified)
	assert.Equal(t, 2024, updated.LastModified.Year())

	_, err = s.UpdateEntry(ctx, "e1", func(*models.TimeEntry) error {
		return apperrors.InvalidArgument("refused")
	})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidArgument))

	e1 := entryByID(t, s, "e1")
	require.NotNil(t, e1)
	assert.Nil(t, e1.LastModified, "failed update must not be saved")

	require.NoError(t, s.DeleteEntry(ctx, "e3"))
	assert.Nil(t, entryByID(t, s, "e3"))
	assert.True(t, apperrors.HasCode(s.DeleteEntry(ctx, "e3"), apperrors.ErrNotFound))
}

func entryByID(t *testing.T, s *Storage, id string) *models.TimeEntry {
	t.Helper()
	found, err := s.EntriesWhere(context.Background(), func(e models.TimeEntry) bool { return e.ID == id })
	require.NoError(t, err)
	if len(found) == 0 {
		return nil
	}
	return &found[0]
}

func TestStorageDeleteWorkerCascades(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStorage(t)
	seed(t, s)

	require.NoError(t, s.DeleteWorker(ctx, "w1"))

	workers, err := s.Workers(ctx)
	require.NoError(t, err)
	require.Len(t, workers, 1)
	assert.Equal(t, "w2", workers[0].ContractorID)

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "e2", entries[0].ID)

	assert.True(t, apperrors.HasCode(s.DeleteWorker(ctx, "w1"), apperrors.ErrNotFound))
}

// brokenWorkersBackend fails every worker write.
type brokenWorkersBackend struct {
	*FileBackend
}

func (b brokenWorkersBackend) SaveWorkers(context.Context, []models.Worker) error {
	return errors.New("disk full")
}

func TestStorageDeleteWorkerRestoresEntriesOnFailure(t *testing.T) {
	ctx := context.Background()
	s, fb := newTestStorage(t)
	seed(t, s)

	broken := NewStorage(brokenWorkersBackend{fb}, zap.NewNop())
	err := broken.DeleteWorker(ctx, "w1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	workers, err := s.Workers(ctx)
	require.NoError(t, err)
	assert.Len(t, workers, 2)

	entries, err := s.EntriesByWorker(ctx, "w1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestStorageUpdateWorker(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStorage(t)
	seed(t, s)

	w, err := s.UpdateWorker(ctx, "w2", func(w *models.Worker) error {
		w.IsActive = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, w.IsActive)

	_, err = s.UpdateWorker(ctx, "missing", func(*models.Worker) error { return nil })
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}

func TestStorageExportImport(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStorage(t)
	seed(t, s)
	require.NoError(t, s.SaveClient(ctx, models.Client{ID: "c1", Name: "Acme"}))

	snap, err := s.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.Equal(t, "Acme", snap.Client.Name)
	assert.Len(t, snap.Workers, 2)
	assert.Len(t, snap.TimeEntries, 3)

	other, _ := newTestStorage(t)
	require.NoError(t, other.Import(ctx, snap))

	imported, err := other.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, imported)

	// Partial snapshots leave missing collections alone.
	require.NoError(t, other.Import(ctx, Snapshot{Workers: []models.Worker{{ContractorID: "w9"}}}))
	entries, err := other.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestStorageClearAndUsage(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStorage(t)
	seed(t, s)

	usage, err := s.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, QuotaBytes, usage.Total)
	assert.Greater(t, usage.Used, int64(0))
	assert.InDelta(t, float64(usage.Used)/float64(QuotaBytes)*100, usage.Percentage, 1e-9)

	require.NoError(t, s.Clear(ctx))
	client, err := s.Client(ctx)
	require.NoError(t, err)
	assert.Nil(t, client)
	workers, err := s.Workers(ctx)
	require.NoError(t, err)
	assert.Empty(t, workers)
}
