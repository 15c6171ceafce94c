package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/highercomve/timesheets/internal/apperrors"
	"github.com/highercomve/timesheets/internal/models"
	"github.com/highercomve/timesheets/internal/store"
)

// EditWindowDays is how far back a worker may still edit an entry.
const EditWindowDays = 30

// Edit-tracked fields, in comparison order.
const (
	FieldDate        = "date"
	FieldStartTime   = "startTime"
	FieldEndTime     = "endTime"
	FieldManualHours = "manualHours"
	FieldDescription = "description"
	FieldStatus      = "status"
)

// ValidateEditPermissions returns a FORBIDDEN error when a worker may not
// edit e at time now.
func ValidateEditPermissions(e models.TimeEntry, now time.Time) error {
	switch e.Status {
	case models.StatusApproved:
		return apperrors.Forbidden("cannot edit approved entries")
	case models.StatusRejected:
		return apperrors.Forbidden("cannot edit rejected entries")
	}
	day, ok := e.Day()
	if !ok {
		return apperrors.Forbidden("entry has no valid date")
	}
	if today(now).Sub(day) > EditWindowDays*24*time.Hour {
		return apperrors.Forbidden("cannot edit entries older than %d days", EditWindowDays)
	}
	return nil
}

func today(now time.Time) time.Time {
	year, month, d := now.Date()
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// validateEditedDate keeps a changed date inside the edit window and out of
// the future.
func validateEditedDate(e models.TimeEntry, now time.Time) error {
	day, _ := e.Day()
	if day.After(today(now)) {
		return apperrors.InvalidArgument("date %s is in the future", e.Date)
	}
	if today(now).Sub(day) > EditWindowDays*24*time.Hour {
		return apperrors.Forbidden("cannot move entries more than %d days back", EditWindowDays)
	}
	return nil
}

func CanEdit(e models.TimeEntry, now time.Time) bool {
	return ValidateEditPermissions(e, now) == nil
}

type FieldChange struct {
	Field    string `json:"field"`
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
}

// CompareEntries lists the tracked fields that differ between before and
// after.
func CompareEntries(before, after models.TimeEntry) []FieldChange {
	var changes []FieldChange
	add := func(field, o, n string) {
		if o != n {
			changes = append(changes, FieldChange{Field: field, OldValue: o, NewValue: n})
		}
	}
	add(FieldDate, before.Date, after.Date)
	add(FieldStartTime, before.StartTime, after.StartTime)
	add(FieldEndTime, before.EndTime, after.EndTime)
	add(FieldManualHours, formatHours(before.ManualHours), formatHours(after.ManualHours))
	add(FieldDescription, before.Description, after.Description)
	return changes
}

func formatHours(h *float64) string {
	if h == nil {
		return ""
	}
	return strconv.FormatFloat(*h, 'f', -1, 64)
}

// EntryEdit is a partial update; nil fields are left unchanged.
type EntryEdit struct {
	Date        *string  `json:"date,omitempty"`
	StartTime   *string  `json:"startTime,omitempty"`
	EndTime     *string  `json:"endTime,omitempty"`
	ManualHours *float64 `json:"manualHours,omitempty"`
	Description *string  `json:"description,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

func (ed EntryEdit) apply(e models.TimeEntry) models.TimeEntry {
	out := e.Clone()
	if ed.Date != nil {
		out.Date = *ed.Date
	}
	if ed.StartTime != nil {
		out.StartTime = *ed.StartTime
	}
	if ed.EndTime != nil {
		out.EndTime = *ed.EndTime
	}
	if ed.ManualHours != nil {
		h := *ed.ManualHours
		out.ManualHours = &h
	}
	if ed.Description != nil {
		out.Description = *ed.Description
	}
	return out
}

func validateEdited(e models.TimeEntry) error {
	if _, ok := e.Day(); !ok {
		return apperrors.InvalidArgument("invalid date %q", e.Date)
	}
	if e.StartTime != "" && !models.ValidClock(e.StartTime) {
		return apperrors.InvalidArgument("invalid start time %q", e.StartTime)
	}
	if e.EndTime != "" && !models.ValidClock(e.EndTime) {
		return apperrors.InvalidArgument("invalid end time %q", e.EndTime)
	}
	if e.ManualHours != nil {
		return validateManualHours(*e.ManualHours)
	}
	return nil
}

// EditService applies worker edits and keeps the edit history.
type EditService struct {
	store  *store.Storage
	logger *zap.Logger
	now    func() time.Time
}

func NewEditService(s *store.Storage, logger *zap.Logger) *EditService {
	return &EditService{store: s, logger: logger, now: time.Now}
}

// Edit applies ed to one of the worker's own entries. Every changed field is
// recorded in the edit history; editing a submitted entry sends it back to
// draft.
func (s *EditService) Edit(ctx context.Context, workerID, entryID string, ed EntryEdit) (models.TimeEntry, error) {
	return s.update(ctx, workerID, entryID, ed, false)
}

// RequestAdjustment edits the times of a clock entry and submits it for
// review in one step.
func (s *EditService) RequestAdjustment(ctx context.Context, workerID, entryID, startTime, endTime, reason string) (models.TimeEntry, error) {
	if reason == "" {
		return models.TimeEntry{}, apperrors.InvalidArgument("a reason is required for an adjustment")
	}
	ed := EntryEdit{StartTime: &startTime, EndTime: &endTime, Reason: reason}
	return s.update(ctx, workerID, entryID, ed, true)
}

func (s *EditService) update(ctx context.Context, workerID, entryID string, ed EntryEdit, submit bool) (models.TimeEntry, error) {
	now := s.now()
	var changes []FieldChange

	e, err := s.store.UpdateEntry(ctx, entryID, func(e *models.TimeEntry) error {
		if e.WorkerID != workerID {
			return apperrors.Forbidden("entry %s belongs to another worker", entryID)
		}
		if err := ValidateEditPermissions(*e, now); err != nil {
			return err
		}
		if submit && e.ManualHours != nil {
			return apperrors.InvalidArgument("adjustments apply to clock entries only")
		}

		edited := ed.apply(*e)
		if err := validateEdited(edited); err != nil {
			return err
		}
		if edited.Date != e.Date {
			if err := validateEditedDate(edited, now); err != nil {
				return err
			}
		}
		if submit && (edited.StartTime == "" || edited.EndTime == "") {
			return apperrors.InvalidArgument("an adjustment needs both start and end time")
		}

		changes = CompareEntries(*e, edited)
		for _, c := range changes {
			edited.EditHistory = append(edited.EditHistory, models.EditRecord{
				Timestamp: now,
				Field:     c.Field,
				OldValue:  c.OldValue,
				NewValue:  c.NewValue,
				Reason:    ed.Reason,
			})
		}

		target := edited.Status
		switch {
		case submit:
			target = models.StatusSubmitted
		case len(changes) > 0 && edited.Status == models.StatusSubmitted:
			target = models.StatusDraft
		}
		if target != edited.Status {
			from := edited.Status
			if err := transition(&edited, target); err != nil {
				return err
			}
			edited.EditHistory = append(edited.EditHistory, models.EditRecord{
				Timestamp: now,
				Field:     FieldStatus,
				OldValue:  string(from),
				NewValue:  string(target),
				Reason:    ed.Reason,
			})
		}

		*e = edited
		return nil
	})
	if err != nil {
		return models.TimeEntry{}, err
	}

	s.logger.Info("Entry edited",
		zap.String("entry_id", entryID),
		zap.String("worker_id", workerID),
		zap.Int("changes", len(changes)),
		zap.String("status", string(e.Status)),
	)
	return e, nil
}
