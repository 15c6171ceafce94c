package mirror

import (
	"time"

	"github.com/highercomve/timesheets/internal/models"
)

// Table names on the Supabase side.
const (
	tableClients     = "clients"
	tableWorkers     = "workers"
	tableTimeEntries = "time_entries"
	tableProofOfWork = "proof_of_work"
)

type clientRow struct {
	ID                  string                     `json:"id"`
	Name                string                     `json:"name"`
	Email               string                     `json:"email"`
	TrackingPreferences models.TrackingPreferences `json:"tracking_preferences"`
}

type workerRow struct {
	ContractorID string     `json:"contractor_id"`
	ClientID     string     `json:"client_id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	InviteToken  string     `json:"invite_token"`
	IsActive     bool       `json:"is_active"`
	TrackingMode string     `json:"tracking_mode"`
	JoinedAt     *time.Time `json:"joined_at,omitempty"`
}

// entryRow has no client column; entries reach their client through the
// worker.
type entryRow struct {
	ID          string   `json:"id"`
	WorkerID    string   `json:"worker_id"`
	Date        string   `json:"date"`
	StartTime   *string  `json:"start_time"`
	EndTime     *string  `json:"end_time"`
	ManualHours *float64 `json:"manual_hours"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	ClientNotes *string  `json:"client_notes"`
}

type proofRow struct {
	ID          string    `json:"id"`
	TimeEntryID string    `json:"time_entry_id"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	Content     string    `json:"content"`
	Description *string   `json:"description"`
	FileName    *string   `json:"file_name"`
	FileSize    *int64    `json:"file_size"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func newClientRow(c models.Client) clientRow {
	return clientRow{ID: c.ID, Name: c.Name, Email: c.Email, TrackingPreferences: c.TrackingPreferences}
}

func newWorkerRow(clientID string, w models.Worker) workerRow {
	return workerRow{
		ContractorID: w.ContractorID,
		ClientID:     clientID,
		Name:         w.Name,
		Email:        w.Email,
		InviteToken:  w.InviteToken,
		IsActive:     w.IsActive,
		TrackingMode: string(w.TrackingMode),
		JoinedAt:     w.JoinedAt,
	}
}

func newEntryRow(e models.TimeEntry) entryRow {
	return entryRow{
		ID:          e.ID,
		WorkerID:    e.WorkerID,
		Date:        e.Date,
		StartTime:   nullable(e.StartTime),
		EndTime:     nullable(e.EndTime),
		ManualHours: e.ManualHours,
		Description: e.Description,
		Status:      string(e.Status),
		ClientNotes: nullable(e.ClientNotes),
	}
}

func newProofRow(entryID string, p models.ProofOfWork) proofRow {
	row := proofRow{
		ID:          p.ID,
		TimeEntryID: entryID,
		Type:        string(p.Type),
		Timestamp:   p.Timestamp,
		Content:     p.Content,
		Description: nullable(p.Description),
		FileName:    nullable(p.FileName),
	}
	if p.FileSize > 0 {
		size := p.FileSize
		row.FileSize = &size
	}
	return row
}
