package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/highercomve/timesheets/internal/models"
	"github.com/highercomve/timesheets/internal/store"
)

// ApprovalService is the client side of the entry workflow.
type ApprovalService struct {
	store  *store.Storage
	logger *zap.Logger
}

func NewApprovalService(s *store.Storage, logger *zap.Logger) *ApprovalService {
	return &ApprovalService{store: s, logger: logger}
}

// Pending returns draft and submitted entries, in stored order.
func (a *ApprovalService) Pending(ctx context.Context) ([]models.TimeEntry, error) {
	return a.store.EntriesWhere(ctx, func(e models.TimeEntry) bool { return e.Status.Pending() })
}

// PendingForWorker is Pending restricted to one worker.
func (a *ApprovalService) PendingForWorker(ctx context.Context, workerID string) ([]models.TimeEntry, error) {
	return a.store.EntriesWhere(ctx, func(e models.TimeEntry) bool {
		return e.WorkerID == workerID && e.Status.Pending()
	})
}

func (a *ApprovalService) Approve(ctx context.Context, entryID string) (models.TimeEntry, error) {
	e, err := a.store.UpdateEntry(ctx, entryID, func(e *models.TimeEntry) error {
		return transition(e, models.StatusApproved)
	})
	if err != nil {
		return models.TimeEntry{}, err
	}
	a.logger.Info("Entry approved", zap.String("entry_id", entryID), zap.String("worker_id", e.WorkerID))
	return e, nil
}

// Reject rejects an entry. An empty note clears any previous one.
func (a *ApprovalService) Reject(ctx context.Context, entryID, notes string) (models.TimeEntry, error) {
	e, err := a.store.UpdateEntry(ctx, entryID, func(e *models.TimeEntry) error {
		if err := transition(e, models.StatusRejected); err != nil {
			return err
		}
		e.ClientNotes = notes
		return nil
	})
	if err != nil {
		return models.TimeEntry{}, err
	}
	a.logger.Info("Entry rejected", zap.String("entry_id", entryID), zap.String("worker_id", e.WorkerID))
	return e, nil
}

// ApproveAll approves every pending entry among ids and returns how many
// changed. Unknown ids and entries already decided are skipped.
func (a *ApprovalService) ApproveAll(ctx context.Context, ids []string) (int, error) {
	return a.bulk(ctx, ids, models.StatusApproved, "")
}

// RejectAll is ApproveAll for rejections; notes is applied to each entry.
func (a *ApprovalService) RejectAll(ctx context.Context, ids []string, notes string) (int, error) {
	return a.bulk(ctx, ids, models.StatusRejected, notes)
}

func (a *ApprovalService) bulk(ctx context.Context, ids []string, to models.Status, notes string) (int, error) {
	wanted := toSet(ids)
	changed := 0
	err := a.store.MutateEntries(ctx, func(entries []models.TimeEntry) ([]models.TimeEntry, error) {
		for i := range entries {
			e := &entries[i]
			if _, ok := wanted[e.ID]; !ok || !e.Status.Pending() {
				continue
			}
			if err := transition(e, to); err != nil {
				return nil, err
			}
			if to == models.StatusRejected {
				e.ClientNotes = notes
			}
			changed++
		}
		return entries, nil
	})
	if err != nil {
		return 0, err
	}
	a.logger.Info("Bulk status change",
		zap.String("status", string(to)),
		zap.Int("requested", len(ids)),
		zap.Int("changed", changed),
	)
	return changed, nil
}
