package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/highercomve/timesheets/internal/config"
	"github.com/highercomve/timesheets/internal/models"
)

type clientRow struct {
	ID                  string `gorm:"primaryKey"`
	Name                string
	Email               string
	TrackingPreferences datatypes.JSON `gorm:"type:jsonb"`
}

func (clientRow) TableName() string { return "clients" }

type workerRow struct {
	ContractorID string `gorm:"primaryKey"`
	Position     int    `gorm:"not null"`
	Name         string
	Email        string `gorm:"index"`
	InviteToken  string `gorm:"uniqueIndex"`
	IsActive     bool
	TrackingMode string
	JoinedAt     *time.Time
}

func (workerRow) TableName() string { return "workers" }

type entryRow struct {
	ID           string `gorm:"primaryKey"`
	Position     int    `gorm:"not null"`
	WorkerID     string `gorm:"index"`
	Date         string `gorm:"index"`
	StartTime    string
	EndTime      string
	ManualHours  *float64
	Description  string
	ProofOfWork  datatypes.JSON `gorm:"type:jsonb"`
	Status       string         `gorm:"index"`
	ClientNotes  string
	EditHistory  datatypes.JSON `gorm:"type:jsonb"`
	LastModified *time.Time
}

func (entryRow) TableName() string { return "time_entries" }

// PostgresBackend stores each collection in its own table. Collection writes
// replace the table content inside one transaction.
type PostgresBackend struct {
	db *gorm.DB
}

func NewPostgresBackend(db *gorm.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// NewConnection opens and pings a postgres database.
func NewConnection(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:      gormlogger.Default.LogMode(gormlogger.Warn),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL database: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Database connection established",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Name),
	)
	return db, nil
}

// Migrate creates or updates the tables.
func (b *PostgresBackend) Migrate(ctx context.Context) error {
	return b.db.WithContext(ctx).AutoMigrate(&clientRow{}, &workerRow{}, &entryRow{})
}

func (b *PostgresBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (b *PostgresBackend) LoadClient(ctx context.Context) (*models.Client, error) {
	var row clientRow
	err := b.db.WithContext(ctx).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

func (b *PostgresBackend) SaveClient(ctx context.Context, client *models.Client) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&clientRow{}).Error; err != nil {
			return err
		}
		if client == nil {
			return nil
		}
		row, err := newClientRow(*client)
		if err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
}

func (b *PostgresBackend) LoadWorkers(ctx context.Context) ([]models.Worker, error) {
	var rows []workerRow
	if err := b.db.WithContext(ctx).Order("position").Find(&rows).Error; err != nil {
		return nil, err
	}
	workers := make([]models.Worker, 0, len(rows))
	for _, r := range rows {
		workers = append(workers, r.toModel())
	}
	return workers, nil
}

func (b *PostgresBackend) SaveWorkers(ctx context.Context, workers []models.Worker) error {
	rows := make([]workerRow, 0, len(workers))
	for i, w := range workers {
		rows = append(rows, newWorkerRow(i, w))
	}
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&workerRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 200).Error
	})
}

func (b *PostgresBackend) LoadEntries(ctx context.Context) ([]models.TimeEntry, error) {
	var rows []entryRow
	if err := b.db.WithContext(ctx).Order("position").Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]models.TimeEntry, 0, len(rows))
	for _, r := range rows {
		e, err := r.toModel()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (b *PostgresBackend) SaveEntries(ctx context.Context, entries []models.TimeEntry) error {
	rows := make([]entryRow, 0, len(entries))
	for i, e := range entries {
		row, err := newEntryRow(i, e)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&entryRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 200).Error
	})
}

func (b *PostgresBackend) Clear(ctx context.Context) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&entryRow{}, &workerRow{}, &clientRow{}} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func newClientRow(c models.Client) (clientRow, error) {
	prefs, err := json.Marshal(c.TrackingPreferences)
	if err != nil {
		return clientRow{}, err
	}
	return clientRow{ID: c.ID, Name: c.Name, Email: c.Email, TrackingPreferences: prefs}, nil
}

func (r clientRow) toModel() (*models.Client, error) {
	c := &models.Client{ID: r.ID, Name: r.Name, Email: r.Email}
	if len(r.TrackingPreferences) > 0 {
		if err := json.Unmarshal(r.TrackingPreferences, &c.TrackingPreferences); err != nil {
			return nil, fmt.Errorf("client %s: %w", r.ID, err)
		}
	}
	return c, nil
}

func newWorkerRow(pos int, w models.Worker) workerRow {
	return workerRow{
		ContractorID: w.ContractorID,
		Position:     pos,
		Name:         w.Name,
		Email:        w.Email,
		InviteToken:  w.InviteToken,
		IsActive:     w.IsActive,
		TrackingMode: string(w.TrackingMode),
		JoinedAt:     w.JoinedAt,
	}
}

func (r workerRow) toModel() models.Worker {
	return models.Worker{
		ContractorID: r.ContractorID,
		Name:         r.Name,
		Email:        r.Email,
		InviteToken:  r.InviteToken,
		IsActive:     r.IsActive,
		TrackingMode: models.TrackingMode(r.TrackingMode),
		JoinedAt:     r.JoinedAt,
	}
}

func newEntryRow(pos int, e models.TimeEntry) (entryRow, error) {
	proof := e.ProofOfWork
	if proof == nil {
		proof = []models.ProofOfWork{}
	}
	proofJSON, err := json.Marshal(proof)
	if err != nil {
		return entryRow{}, err
	}
	var history datatypes.JSON
	if len(e.EditHistory) > 0 {
		if history, err = json.Marshal(e.EditHistory); err != nil {
			return entryRow{}, err
		}
	}
	return entryRow{
		ID:           e.ID,
		Position:     pos,
		WorkerID:     e.WorkerID,
		Date:         e.Date,
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		ManualHours:  e.ManualHours,
		Description:  e.Description,
		ProofOfWork:  proofJSON,
		Status:       string(e.Status),
		ClientNotes:  e.ClientNotes,
		EditHistory:  history,
		LastModified: e.LastModified,
	}, nil
}

func (r entryRow) toModel() (models.TimeEntry, error) {
	e := models.TimeEntry{
		ID:           r.ID,
		WorkerID:     r.WorkerID,
		Date:         r.Date,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		ManualHours:  r.ManualHours,
		Description:  r.Description,
		ProofOfWork:  []models.ProofOfWork{},
		Status:       models.Status(r.Status),
		ClientNotes:  r.ClientNotes,
		LastModified: r.LastModified,
	}
	if len(r.ProofOfWork) > 0 {
		if err := json.Unmarshal(r.ProofOfWork, &e.ProofOfWork); err != nil {
			return models.TimeEntry{}, fmt.Errorf("entry %s proof of work: %w", r.ID, err)
		}
	}
	if len(r.EditHistory) > 0 {
		if err := json.Unmarshal(r.EditHistory, &e.EditHistory); err != nil {
			return models.TimeEntry{}, fmt.Errorf("entry %s edit history: %w", r.ID, err)
		}
	}
	return e, nil
}
