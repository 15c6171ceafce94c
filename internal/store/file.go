package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/highercomve/timesheets/internal/models"
)

const (
	clientFile  = "client.json"
	workersFile = "workers.json"
	entriesFile = "time_entries.json"
)

// FileBackend keeps one JSON document per collection under BaseDir.
type FileBackend struct {
	BaseDir string
}

func NewFileBackend(baseDir string) (*FileBackend, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating data folder: %w", err)
	}
	return &FileBackend{BaseDir: baseDir}, nil
}

func (b *FileBackend) path(name string) string {
	return filepath.Join(b.BaseDir, name)
}

// read decodes name into v. A missing file leaves v untouched.
func (b *FileBackend) read(name string, v any) error {
	data, err := os.ReadFile(b.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("error decoding %s: %w", name, err)
	}
	return nil
}

// write replaces name through a temp file and rename so readers never see
// a partial document.
func (b *FileBackend) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.BaseDir, name+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.path(name))
}

func (b *FileBackend) LoadClient(_ context.Context) (*models.Client, error) {
	var client *models.Client
	if err := b.read(clientFile, &client); err != nil {
		return nil, err
	}
	return client, nil
}

func (b *FileBackend) SaveClient(_ context.Context, client *models.Client) error {
	if client == nil {
		return removeIfExists(b.path(clientFile))
	}
	return b.write(clientFile, client)
}

func (b *FileBackend) LoadWorkers(_ context.Context) ([]models.Worker, error) {
	workers := []models.Worker{}
	if err := b.read(workersFile, &workers); err != nil {
		return nil, err
	}
	return workers, nil
}

func (b *FileBackend) SaveWorkers(_ context.Context, workers []models.Worker) error {
	if workers == nil {
		workers = []models.Worker{}
	}
	return b.write(workersFile, workers)
}

func (b *FileBackend) LoadEntries(_ context.Context) ([]models.TimeEntry, error) {
	entries := []models.TimeEntry{}
	if err := b.read(entriesFile, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (b *FileBackend) SaveEntries(_ context.Context, entries []models.TimeEntry) error {
	if entries == nil {
		entries = []models.TimeEntry{}
	}
	return b.write(entriesFile, entries)
}

func (b *FileBackend) Clear(_ context.Context) error {
	for _, name := range []string{clientFile, workersFile, entriesFile} {
		if err := removeIfExists(b.path(name)); err != nil {
			return err
		}
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
