package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/highercomve/timesheets/internal/apperrors"
	"github.com/highercomve/timesheets/internal/models"
	"github.com/highercomve/timesheets/internal/store"
)

const (
	MinManualHours = 0.25
	MaxManualHours = 12

	MaxScreenshotBytes = 2 * 1024 * 1024
	MaxFileBytes       = 5 * 1024 * 1024
)

const clockLayout = "15:04:05"

func validateManualHours(h float64) error {
	if h < MinManualHours || h > MaxManualHours {
		return apperrors.InvalidArgument("hours must be between %.2f and %d", MinManualHours, MaxManualHours)
	}
	return nil
}

// ProofInput is an attachment as uploaded by a worker.
type ProofInput struct {
	Type        models.ProofType `json:"type" validate:"required,oneof=screenshot file note"`
	Content     string           `json:"content" validate:"required"`
	Description string           `json:"description,omitempty"`
	FileName    string           `json:"fileName,omitempty"`
	FileSize    int64            `json:"fileSize,omitempty"`
}

func (p ProofInput) size() int64 {
	if p.FileSize > 0 {
		return p.FileSize
	}
	return int64(len(p.Content))
}

func validateProof(p ProofInput) error {
	if strings.TrimSpace(p.Content) == "" {
		return apperrors.InvalidArgument("proof content is required")
	}
	switch p.Type {
	case models.ProofScreenshot:
		if p.size() > MaxScreenshotBytes {
			return apperrors.NewAppError(apperrors.ErrTooLarge, "screenshot exceeds 2MB", nil)
		}
	case models.ProofFile:
		if p.size() > MaxFileBytes {
			return apperrors.NewAppError(apperrors.ErrTooLarge, "file exceeds 5MB", nil)
		}
	case models.ProofNote:
	default:
		return apperrors.InvalidArgument("unknown proof type %q", p.Type)
	}
	return nil
}

// ManualEntry is a timesheet line submitted by a worker.
type ManualEntry struct {
	Date        string       `json:"date" validate:"required"`
	Hours       float64      `json:"hours" validate:"required"`
	Description string       `json:"description" validate:"required"`
	Proof       []ProofInput `json:"proof,omitempty" validate:"dive"`
}

// TrackingService is the worker side: clock sessions, timesheets and proof.
type TrackingService struct {
	store  *store.Storage
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

func NewTrackingService(s *store.Storage, logger *zap.Logger) *TrackingService {
	return &TrackingService{store: s, logger: logger, now: time.Now, newID: uuid.NewString}
}

func (t *TrackingService) preferences(ctx context.Context) (models.TrackingPreferences, error) {
	client, err := t.store.Client(ctx)
	if err != nil {
		return models.TrackingPreferences{}, err
	}
	if client == nil {
		return models.DefaultTrackingPreferences(), nil
	}
	return client.TrackingPreferences, nil
}

// ActiveSession returns the worker's open clock session, or nil.
func (t *TrackingService) ActiveSession(ctx context.Context, workerID string) (*models.TimeEntry, error) {
	entries, err := t.store.EntriesWhere(ctx, func(e models.TimeEntry) bool {
		return e.WorkerID == workerID && e.Open()
	})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[len(entries)-1], nil
}

// ClockIn opens a session for today. A worker has at most one open session.
func (t *TrackingService) ClockIn(ctx context.Context, workerID, description string) (models.TimeEntry, error) {
	prefs, err := t.preferences(ctx)
	if err != nil {
		return models.TimeEntry{}, err
	}
	if !prefs.AllowClockInOut {
		return models.TimeEntry{}, apperrors.Forbidden("clock in/out is disabled")
	}
	if _, err := t.store.Worker(ctx, workerID); err != nil {
		return models.TimeEntry{}, err
	}

	now := t.now()
	entry := models.TimeEntry{
		ID:          t.newID(),
		WorkerID:    workerID,
		Date:        now.Format(models.DateLayout),
		StartTime:   now.Format(clockLayout),
		Description: description,
		ProofOfWork: []models.ProofOfWork{},
		Status:      models.StatusDraft,
	}

	err = t.store.MutateEntries(ctx, func(entries []models.TimeEntry) ([]models.TimeEntry, error) {
		for _, e := range entries {
			if e.WorkerID == workerID && e.Open() {
				return nil, apperrors.Conflict("worker %s is already clocked in", workerID)
			}
		}
		return append(entries, entry), nil
	})
	if err != nil {
		return models.TimeEntry{}, err
	}

	t.logger.Info("Clocked in", zap.String("worker_id", workerID), zap.String("entry_id", entry.ID))
	return entry, nil
}

// ClockOut closes the worker's open session. A non-empty description
// replaces the one given at clock in.
func (t *TrackingService) ClockOut(ctx context.Context, workerID, description string) (models.TimeEntry, error) {
	active, err := t.ActiveSession(ctx, workerID)
	if err != nil {
		return models.TimeEntry{}, err
	}
	if active == nil {
		return models.TimeEntry{}, apperrors.NotFound("worker %s has no active session", workerID)
	}

	end := t.now().Format(clockLayout)
	e, err := t.store.UpdateEntry(ctx, active.ID, func(e *models.TimeEntry) error {
		if !e.Open() {
			return apperrors.Conflict("session %s is already closed", e.ID)
		}
		e.EndTime = end
		if description != "" {
			e.Description = description
		}
		return nil
	})
	if err != nil {
		return models.TimeEntry{}, err
	}

	t.logger.Info("Clocked out",
		zap.String("worker_id", workerID),
		zap.String("entry_id", e.ID),
		zap.Float64("hours", ComputeDurationHours(e)),
	)
	return e, nil
}

// SubmitManualEntry records a timesheet line. Proof is mandatory for
// workers in timesheet mode and when the client requires it.
func (t *TrackingService) SubmitManualEntry(ctx context.Context, workerID string, in ManualEntry) (models.TimeEntry, error) {
	prefs, err := t.preferences(ctx)
	if err != nil {
		return models.TimeEntry{}, err
	}
	if !prefs.AllowManualEntry {
		return models.TimeEntry{}, apperrors.Forbidden("manual entries are disabled")
	}
	worker, err := t.store.Worker(ctx, workerID)
	if err != nil {
		return models.TimeEntry{}, err
	}

	if _, err := time.Parse(models.DateLayout, in.Date); err != nil {
		return models.TimeEntry{}, apperrors.InvalidArgument("invalid date %q", in.Date)
	}
	if err := validateManualHours(in.Hours); err != nil {
		return models.TimeEntry{}, err
	}
	if strings.TrimSpace(in.Description) == "" {
		return models.TimeEntry{}, apperrors.InvalidArgument("description is required")
	}
	if len(in.Proof) == 0 && (worker.TrackingMode == models.TrackingTimesheet || prefs.RequireProofOfWork) {
		return models.TimeEntry{}, apperrors.InvalidArgument("proof of work is required")
	}

	now := t.now()
	proofs := make([]models.ProofOfWork, 0, len(in.Proof))
	for _, p := range in.Proof {
		if err := validateProof(p); err != nil {
			return models.TimeEntry{}, err
		}
		proofs = append(proofs, t.newProof(p, now))
	}

	hours := in.Hours
	entry := models.TimeEntry{
		ID:          t.newID(),
		WorkerID:    workerID,
		Date:        in.Date,
		ManualHours: &hours,
		Description: strings.TrimSpace(in.Description),
		ProofOfWork: proofs,
		Status:      models.StatusSubmitted,
	}
	if err := t.store.AddEntry(ctx, entry); err != nil {
		return models.TimeEntry{}, err
	}

	t.logger.Info("Manual entry submitted",
		zap.String("worker_id", workerID),
		zap.String("entry_id", entry.ID),
		zap.Float64("hours", hours),
	)
	return entry, nil
}

// Submit sends one of the worker's draft entries for review.
func (t *TrackingService) Submit(ctx context.Context, workerID, entryID string) (models.TimeEntry, error) {
	return t.store.UpdateEntry(ctx, entryID, func(e *models.TimeEntry) error {
		if e.WorkerID != workerID {
			return apperrors.Forbidden("entry %s belongs to another worker", entryID)
		}
		if e.Open() {
			return apperrors.InvalidArgument("clock out before submitting")
		}
		return transition(e, models.StatusSubmitted)
	})
}

func (t *TrackingService) newProof(p ProofInput, now time.Time) models.ProofOfWork {
	return models.ProofOfWork{
		ID:          t.newID(),
		Type:        p.Type,
		Timestamp:   now,
		Content:     p.Content,
		Description: p.Description,
		FileName:    p.FileName,
		FileSize:    p.size(),
	}
}

// AddProof attaches proof to one of the worker's undecided entries.
func (t *TrackingService) AddProof(ctx context.Context, workerID, entryID string, p ProofInput) (models.TimeEntry, error) {
	if err := validateProof(p); err != nil {
		return models.TimeEntry{}, err
	}
	proof := t.newProof(p, t.now())
	return t.store.UpdateEntry(ctx, entryID, func(e *models.TimeEntry) error {
		if e.WorkerID != workerID {
			return apperrors.Forbidden("entry %s belongs to another worker", entryID)
		}
		if e.Status.Terminal() {
			return apperrors.Forbidden("entry %s is already %s", entryID, e.Status)
		}
		e.ProofOfWork = append(e.ProofOfWork, proof)
		return nil
	})
}

// RemoveProof detaches a proof from one of the worker's undecided entries.
func (t *TrackingService) RemoveProof(ctx context.Context, workerID, entryID, proofID string) (models.TimeEntry, error) {
	return t.store.UpdateEntry(ctx, entryID, func(e *models.TimeEntry) error {
		if e.WorkerID != workerID {
			return apperrors.Forbidden("entry %s belongs to another worker", entryID)
		}
		if e.Status.Terminal() {
			return apperrors.Forbidden("entry %s is already %s", entryID, e.Status)
		}
		for i, p := range e.ProofOfWork {
			if p.ID == proofID {
				e.ProofOfWork = append(e.ProofOfWork[:i:i], e.ProofOfWork[i+1:]...)
				return nil
			}
		}
		return apperrors.NotFound("proof %s not found", proofID)
	})
}
