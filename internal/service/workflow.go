package service

import (
	"errors"
	"fmt"

	"github.com/highercomve/timesheets/internal/apperrors"
	"github.com/highercomve/timesheets/internal/models"
)

// ErrInvalidTransition is wrapped by every refused status change.
var ErrInvalidTransition = errors.New("invalid status transition")

// transitions lists the allowed status changes.
var transitions = map[models.Status][]models.Status{
	models.StatusDraft:     {models.StatusSubmitted, models.StatusApproved, models.StatusRejected},
	models.StatusSubmitted: {models.StatusDraft, models.StatusApproved, models.StatusRejected},
}

func CanTransition(from, to models.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// transition moves e to status to or fails with ErrInvalidTransition.
func transition(e *models.TimeEntry, to models.Status) error {
	if !CanTransition(e.Status, to) {
		return apperrors.NewAppError(apperrors.ErrConflict,
			fmt.Sprintf("entry %s cannot go from %s to %s", e.ID, e.Status, to), ErrInvalidTransition)
	}
	e.Status = to
	return nil
}
