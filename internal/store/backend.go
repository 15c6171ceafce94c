package store

import (
	"context"
	"time"

	"github.com/highercomve/timesheets/internal/models"
)

// Backend persists whole collections. Callers serialise read-modify-write
// cycles; a Backend only has to make each single write atomic.
type Backend interface {
	// LoadClient returns nil when no client has been set up.
	LoadClient(ctx context.Context) (*models.Client, error)
	SaveClient(ctx context.Context, client *models.Client) error
	LoadWorkers(ctx context.Context) ([]models.Worker, error)
	SaveWorkers(ctx context.Context, workers []models.Worker) error
	LoadEntries(ctx context.Context) ([]models.TimeEntry, error)
	SaveEntries(ctx context.Context, entries []models.TimeEntry) error
	Clear(ctx context.Context) error
}

// SnapshotVersion is written into every exported Snapshot.
const SnapshotVersion = "1.0"

// Snapshot is the full export/import document.
type Snapshot struct {
	Client      *models.Client     `json:"client"`
	Workers     []models.Worker    `json:"workers"`
	TimeEntries []models.TimeEntry `json:"timeEntries"`
	ExportDate  time.Time          `json:"exportDate"`
	Version     string             `json:"version"`
}

// QuotaBytes is the storage budget usage is reported against.
const QuotaBytes int64 = 5 * 1024 * 1024

type Usage struct {
	Used       int64   `json:"used"`
	Total      int64   `json:"total"`
	Percentage float64 `json:"percentage"`
}
