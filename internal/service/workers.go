package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/highercomve/timesheets/internal/apperrors"
	"github.com/highercomve/timesheets/internal/models"
	"github.com/highercomve/timesheets/internal/store"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ContractorIDPattern is the accepted shape of a contractor id.
var ContractorIDPattern = regexp.MustCompile(`^[\w-]+$`)

type NewWorker struct {
	ContractorID string              `json:"contractorId" validate:"required"`
	Name         string              `json:"name" validate:"required"`
	Email        string              `json:"email" validate:"required,email"`
	TrackingMode models.TrackingMode `json:"trackingMode,omitempty" validate:"omitempty,oneof=clock timesheet"`
}

type WorkerUpdate struct {
	Name         *string              `json:"name,omitempty" validate:"omitempty,min=1"`
	Email        *string              `json:"email,omitempty" validate:"omitempty,email"`
	TrackingMode *models.TrackingMode `json:"trackingMode,omitempty" validate:"omitempty,oneof=clock timesheet"`
}

type WorkerStats struct {
	TotalEntries     int     `json:"totalEntries"`
	DraftEntries     int     `json:"draftEntries"`
	SubmittedEntries int     `json:"submittedEntries"`
	ApprovedEntries  int     `json:"approvedEntries"`
	RejectedEntries  int     `json:"rejectedEntries"`
	TotalHours       float64 `json:"totalHours"`
	ApprovedHours    float64 `json:"approvedHours"`
	PendingHours     float64 `json:"pendingHours"`
}

type MergeResult struct {
	Added   []models.Worker `json:"added"`
	Skipped int             `json:"skipped"`
}

// WorkerService manages the worker roster.
type WorkerService struct {
	store    *store.Storage
	logger   *zap.Logger
	now      func() time.Time
	newToken func(time.Time) (string, error)
}

func NewWorkerService(s *store.Storage, logger *zap.Logger) *WorkerService {
	return &WorkerService{store: s, logger: logger, now: time.Now, newToken: GenerateInviteToken}
}

func (s *WorkerService) List(ctx context.Context) ([]models.Worker, error) {
	return s.store.Workers(ctx)
}

func (s *WorkerService) Get(ctx context.Context, id string) (models.Worker, error) {
	return s.store.Worker(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func findConflict(workers []models.Worker, id, email, skipID string) error {
	for _, w := range workers {
		if w.ContractorID == skipID {
			continue
		}
		if id != "" && w.ContractorID == id {
			return apperrors.Conflict("contractor id %s already exists", id)
		}
		if email != "" && normalizeEmail(w.Email) == email {
			return apperrors.Conflict("email %s is already registered", email)
		}
	}
	return nil
}

// Add registers a worker with a fresh invite token. The worker stays
// inactive until the invite link is first used.
func (s *WorkerService) Add(ctx context.Context, in NewWorker) (models.Worker, error) {
	in.ContractorID = strings.TrimSpace(in.ContractorID)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validate.Struct(in); err != nil {
		return models.Worker{}, apperrors.InvalidArgument("invalid worker: %v", err)
	}
	if !ContractorIDPattern.MatchString(in.ContractorID) {
		return models.Worker{}, apperrors.InvalidArgument("contractor id %q may only contain letters, digits, _ and -", in.ContractorID)
	}

	token, err := s.newToken(s.now())
	if err != nil {
		return models.Worker{}, apperrors.Wrap(err, "add worker")
	}
	mode := in.TrackingMode
	if mode == "" {
		mode = models.TrackingClock
	}
	w := models.Worker{
		ContractorID: in.ContractorID,
		Name:         in.Name,
		Email:        in.Email,
		InviteToken:  token,
		TrackingMode: mode,
	}

	err = s.store.MutateWorkers(ctx, func(workers []models.Worker) ([]models.Worker, error) {
		if err := findConflict(workers, w.ContractorID, w.Email, ""); err != nil {
			return nil, err
		}
		return append(workers, w), nil
	})
	if err != nil {
		return models.Worker{}, err
	}
	s.logger.Info("Worker added", zap.String("worker_id", w.ContractorID))
	return w, nil
}

func (s *WorkerService) Update(ctx context.Context, id string, in WorkerUpdate) (models.Worker, error) {
	if err := validate.Struct(in); err != nil {
		return models.Worker{}, apperrors.InvalidArgument("invalid worker update: %v", err)
	}

	var out models.Worker
	err := s.store.MutateWorkers(ctx, func(workers []models.Worker) ([]models.Worker, error) {
		if in.Email != nil {
			if err := findConflict(workers, "", normalizeEmail(*in.Email), id); err != nil {
				return nil, err
			}
		}
		for i := range workers {
			w := &workers[i]
			if w.ContractorID != id {
				continue
			}
			if in.Name != nil {
				w.Name = strings.TrimSpace(*in.Name)
			}
			if in.Email != nil {
				w.Email = normalizeEmail(*in.Email)
			}
			if in.TrackingMode != nil {
				w.TrackingMode = *in.TrackingMode
			}
			out = *w
			return workers, nil
		}
		return nil, apperrors.NotFound("worker %s not found", id)
	})
	return out, err
}

// Delete removes the worker together with its entries.
func (s *WorkerService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteWorker(ctx, id)
}

// Activate resolves an invite token. The first use marks the worker active
// and records when they joined; later uses return the worker unchanged.
func (s *WorkerService) Activate(ctx context.Context, token string) (models.Worker, error) {
	w, err := s.store.WorkerByToken(ctx, token)
	if err != nil {
		return models.Worker{}, err
	}
	if w.IsActive {
		return w, nil
	}

	now := s.now()
	w, err = s.store.UpdateWorker(ctx, w.ContractorID, func(w *models.Worker) error {
		if !w.IsActive {
			w.IsActive = true
			w.JoinedAt = &now
		}
		return nil
	})
	if err != nil {
		return models.Worker{}, err
	}
	s.logger.Info("Worker activated", zap.String("worker_id", w.ContractorID))
	return w, nil
}

// Stats counts a worker's entries and hours by status.
func (s *WorkerService) Stats(ctx context.Context, id string) (WorkerStats, error) {
	if _, err := s.store.Worker(ctx, id); err != nil {
		return WorkerStats{}, err
	}
	entries, err := s.store.EntriesByWorker(ctx, id)
	if err != nil {
		return WorkerStats{}, err
	}
	return ComputeWorkerStats(entries), nil
}

func ComputeWorkerStats(entries []models.TimeEntry) WorkerStats {
	var st WorkerStats
	for _, e := range entries {
		h := ComputeDurationHours(e)
		st.TotalEntries++
		st.TotalHours += h
		switch e.Status {
		case models.StatusDraft:
			st.DraftEntries++
			st.PendingHours += h
		case models.StatusSubmitted:
			st.SubmittedEntries++
			st.PendingHours += h
		case models.StatusApproved:
			st.ApprovedEntries++
			st.ApprovedHours += h
		case models.StatusRejected:
			st.RejectedEntries++
		}
	}
	return st
}

// ImportMerge adds the workers whose contractor id and email are both new,
// keeping the incoming order. Duplicates within the batch are skipped too.
func (s *WorkerService) ImportMerge(ctx context.Context, incoming []models.Worker) (MergeResult, error) {
	var res MergeResult
	err := s.store.MutateWorkers(ctx, func(workers []models.Worker) ([]models.Worker, error) {
		res = MergeResult{Added: []models.Worker{}}
		for _, w := range incoming {
			w.Email = normalizeEmail(w.Email)
			if findConflict(workers, w.ContractorID, w.Email, "") != nil {
				res.Skipped++
				continue
			}
			workers = append(workers, w)
			res.Added = append(res.Added, w)
		}
		return workers, nil
	})
	if err != nil {
		return MergeResult{}, err
	}
	s.logger.Info("Workers imported", zap.Int("added", len(res.Added)), zap.Int("skipped", res.Skipped))
	return res, nil
}
