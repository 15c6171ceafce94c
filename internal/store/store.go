package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/highercomve/timesheets/internal/apperrors"
	"github.com/highercomve/timesheets/internal/models"
)

// Storage is the read-modify-write layer over a Backend. Mutations within
// one process are serialised; across processes the last writer wins.
type Storage struct {
	backend Backend
	logger  *zap.Logger
	mu      sync.Mutex
	now     func() time.Time
}

func NewStorage(backend Backend, logger *zap.Logger) *Storage {
	return &Storage{backend: backend, logger: logger, now: time.Now}
}

// Client returns the configured client, or nil.
func (s *Storage) Client(ctx context.Context) (*models.Client, error) {
	return s.backend.LoadClient(ctx)
}

func (s *Storage) SaveClient(ctx context.Context, client models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.SaveClient(ctx, &client)
}

func (s *Storage) Workers(ctx context.Context) ([]models.Worker, error) {
	return s.backend.LoadWorkers(ctx)
}

func (s *Storage) Worker(ctx context.Context, id string) (models.Worker, error) {
	workers, err := s.backend.LoadWorkers(ctx)
	if err != nil {
		return models.Worker{}, err
	}
	for _, w := range workers {
		if w.ContractorID == id {
			return w, nil
		}
	}
	return models.Worker{}, apperrors.NotFound("worker %s not found", id)
}

func (s *Storage) WorkerByToken(ctx context.Context, token string) (models.Worker, error) {
	workers, err := s.backend.LoadWorkers(ctx)
	if err != nil {
		return models.Worker{}, err
	}
	for _, w := range workers {
		if token != "" && w.InviteToken == token {
			return w, nil
		}
	}
	return models.Worker{}, apperrors.NotFound("invalid invite token")
}

// MutateWorkers runs fn over the stored workers and saves what it returns.
// Nothing is saved when fn fails.
func (s *Storage) MutateWorkers(ctx context.Context, fn func([]models.Worker) ([]models.Worker, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	workers, err := s.backend.LoadWorkers(ctx)
	if err != nil {
		return err
	}
	updated, err := fn(workers)
	if err != nil {
		return err
	}
	return s.backend.SaveWorkers(ctx, updated)
}

// UpdateWorker applies fn to the worker with the given id.
func (s *Storage) UpdateWorker(ctx context.Context, id string, fn func(*models.Worker) error) (models.Worker, error) {
	var out models.Worker
	err := s.MutateWorkers(ctx, func(workers []models.Worker) ([]models.Worker, error) {
		for i := range workers {
			if workers[i].ContractorID != id {
				continue
			}
			if err := fn(&workers[i]); err != nil {
				return nil, err
			}
			out = workers[i]
			return workers, nil
		}
		return nil, apperrors.NotFound("worker %s not found", id)
	})
	return out, err
}

// DeleteWorker removes a worker and every entry it logged.
func (s *Storage) DeleteWorker(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	workers, err := s.backend.LoadWorkers(ctx)
	if err != nil {
		return err
	}
	kept := make([]models.Worker, 0, len(workers))
	for _, w := range workers {
		if w.ContractorID != id {
			kept = append(kept, w)
		}
	}
	if len(kept) == len(workers) {
		return apperrors.NotFound("worker %s not found", id)
	}

	entries, err := s.backend.LoadEntries(ctx)
	if err != nil {
		return err
	}
	remaining := make([]models.TimeEntry, 0, len(entries))
	for _, e := range entries {
		if e.WorkerID != id {
			remaining = append(remaining, e)
		}
	}

	if err := s.backend.SaveEntries(ctx, remaining); err != nil {
		return err
	}
	if err := s.backend.SaveWorkers(ctx, kept); err != nil {
		// Put the entries back so the worker is not left without them.
		if restoreErr := s.backend.SaveEntries(ctx, entries); restoreErr != nil {
			s.logger.Error("Failed to restore entries after worker delete failed",
				zap.String("worker_id", id),
				zap.Error(restoreErr),
			)
		}
		return apperrors.Wrap(err, "delete worker")
	}
	s.logger.Info("Worker deleted",
		zap.String("worker_id", id),
		zap.Int("entries_removed", len(entries)-len(remaining)),
	)
	return nil
}

func (s *Storage) Entries(ctx context.Context) ([]models.TimeEntry, error) {
	return s.backend.LoadEntries(ctx)
}

// EntriesWhere returns the stored entries matching keep, in stored order.
func (s *Storage) EntriesWhere(ctx context.Context, keep func(models.TimeEntry) bool) ([]models.TimeEntry, error) {
	entries, err := s.backend.LoadEntries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.TimeEntry, 0, len(entries))
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Storage) EntriesByWorker(ctx context.Context, workerID string) ([]models.TimeEntry, error) {
	return s.EntriesWhere(ctx, func(e models.TimeEntry) bool { return e.WorkerID == workerID })
}

func (s *Storage) EntriesByStatus(ctx context.Context, status models.Status) ([]models.TimeEntry, error) {
	return s.EntriesWhere(ctx, func(e models.TimeEntry) bool { return e.Status == status })
}

// EntriesInRange returns entries dated between start and end, inclusive.
func (s *Storage) EntriesInRange(ctx context.Context, start, end time.Time) ([]models.TimeEntry, error) {
	from, to := start.Format(models.DateLayout), end.Format(models.DateLayout)
	return s.EntriesWhere(ctx, func(e models.TimeEntry) bool {
		return e.Date >= from && e.Date <= to
	})
}

// MutateEntries runs fn over the stored entries and saves what it returns.
// Nothing is saved when fn fails.
func (s *Storage) MutateEntries(ctx context.Context, fn func([]models.TimeEntry) ([]models.TimeEntry, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.backend.LoadEntries(ctx)
	if err != nil {
		return err
	}
	updated, err := fn(entries)
	if err != nil {
		return err
	}
	return s.backend.SaveEntries(ctx, updated)
}

// AddEntry appends an entry. Ids must be unique.
func (s *Storage) AddEntry(ctx context.Context, entry models.TimeEntry) error {
	return s.MutateEntries(ctx, func(entries []models.TimeEntry) ([]models.TimeEntry, error) {
		for _, e := range entries {
			if e.ID == entry.ID {
				return nil, apperrors.Conflict("time entry %s already exists", entry.ID)
			}
		}
		return append(entries, entry), nil
	})
}

// UpdateEntry applies fn to the entry with the given id and stamps
// LastModified.
func (s *Storage) UpdateEntry(ctx context.Context, id string, fn func(*models.TimeEntry) error) (models.TimeEntry, error) {
	var out models.TimeEntry
	err := s.MutateEntries(ctx, func(entries []models.TimeEntry) ([]models.TimeEntry, error) {
		for i := range entries {
			if entries[i].ID != id {
				continue
			}
			if err := fn(&entries[i]); err != nil {
				return nil, err
			}
			now := s.now()
			entries[i].LastModified = &now
			out = entries[i]
			return entries, nil
		}
		return nil, apperrors.NotFound("time entry %s not found", id)
	})
	return out, err
}

func (s *Storage) DeleteEntry(ctx context.Context, id string) error {
	return s.MutateEntries(ctx, func(entries []models.TimeEntry) ([]models.TimeEntry, error) {
		for i, e := range entries {
			if e.ID == id {
				return append(entries[:i], entries[i+1:]...), nil
			}
		}
		return nil, apperrors.NotFound("time entry %s not found", id)
	})
}

// Export returns a snapshot of everything stored.
func (s *Storage) Export(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(ctx)
}

func (s *Storage) snapshot(ctx context.Context) (Snapshot, error) {
	client, err := s.backend.LoadClient(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	workers, err := s.backend.LoadWorkers(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	entries, err := s.backend.LoadEntries(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Client:      client,
		Workers:     workers,
		TimeEntries: entries,
		ExportDate:  s.now().UTC(),
		Version:     SnapshotVersion,
	}, nil
}

// Import replaces the collections present in snap. Absent collections are
// left as they are.
func (s *Storage) Import(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Client != nil {
		if err := s.backend.SaveClient(ctx, snap.Client); err != nil {
			return apperrors.Wrap(err, "import client")
		}
	}
	if snap.Workers != nil {
		if err := s.backend.SaveWorkers(ctx, snap.Workers); err != nil {
			return apperrors.Wrap(err, "import workers")
		}
	}
	if snap.TimeEntries != nil {
		if err := s.backend.SaveEntries(ctx, snap.TimeEntries); err != nil {
			return apperrors.Wrap(err, "import time entries")
		}
	}
	s.logger.Info("Data imported",
		zap.Bool("client", snap.Client != nil),
		zap.Int("workers", len(snap.Workers)),
		zap.Int("time_entries", len(snap.TimeEntries)),
	)
	return nil
}

// Clear removes all stored data.
func (s *Storage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Clear(ctx); err != nil {
		return err
	}
	s.logger.Warn("All data cleared")
	return nil
}

// Usage reports the serialised size of the stored data against QuotaBytes.
func (s *Storage) Usage(ctx context.Context) (Usage, error) {
	s.mu.Lock()
	snap, err := s.snapshot(ctx)
	s.mu.Unlock()
	if err != nil {
		return Usage{}, err
	}

	var used int64
	for _, v := range []any{snap.Client, snap.Workers, snap.TimeEntries} {
		data, err := json.Marshal(v)
		if err != nil {
			return Usage{}, err
		}
		used += int64(len(data))
	}
	return Usage{
		Used:       used,
		Total:      QuotaBytes,
		Percentage: float64(used) / float64(QuotaBytes) * 100,
	}, nil
}
