// Package mirror copies the local data set to a Supabase project through its
// REST API and checks that the remote copy matches.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/highercomve/timesheets/internal/apperrors"
	"github.com/highercomve/timesheets/internal/config"
	"github.com/highercomve/timesheets/internal/store"
)

const defaultTimeout = 10 * time.Second

// Client talks to the Supabase REST endpoint (PostgREST).
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

func NewClient(cfg config.SupabaseConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

func (c *Client) newRequest(ctx context.Context, method, table string, params url.Values, body any) (*http.Request, error) {
	target := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if len(params) > 0 {
		target = fmt.Sprintf("%s?%s", target, params.Encode())
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("Supabase request completed",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("request_duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("supabase returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// upsert inserts row into table, replacing an existing row with the same
// primary key.
func (c *Client) upsert(ctx context.Context, table string, row any) error {
	req, err := c.newRequest(ctx, http.MethodPost, table, nil, row)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")
	_, err = c.do(req)
	return err
}

// count returns how many rows of table match params.
func (c *Client) count(ctx context.Context, table string, params url.Values) (int, error) {
	req, err := c.newRequest(ctx, http.MethodGet, table, params, nil)
	if err != nil {
		return 0, err
	}
	body, err := c.do(req)
	if err != nil {
		return 0, err
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return 0, fmt.Errorf("decode %s: %w", table, err)
	}
	return len(rows), nil
}

func eqFilter(column, value, sel string) url.Values {
	params := url.Values{}
	params.Add(column, fmt.Sprintf("eq.%s", value))
	params.Add("select", sel)
	return params
}

// Report is the outcome of a migration. Warnings hold the records that
// could not be copied.
type Report struct {
	Workers  int      `json:"workers"`
	Entries  int      `json:"timeEntries"`
	Proofs   int      `json:"proofs"`
	Warnings []string `json:"warnings"`
}

// Migrate copies snap to Supabase: the client first, then its workers, their
// time entries and every entry's proof. Only a missing or failing client
// aborts the run; other failures are reported as warnings.
func (c *Client) Migrate(ctx context.Context, snap store.Snapshot) (Report, error) {
	report := Report{Warnings: []string{}}
	if snap.Client == nil {
		return report, apperrors.InvalidArgument("no client data to migrate")
	}
	clientID := snap.Client.ID

	c.logger.Info("Supabase migration started",
		zap.String("client_id", clientID),
		zap.Int("workers", len(snap.Workers)),
		zap.Int("time_entries", len(snap.TimeEntries)),
	)

	if err := c.upsert(ctx, tableClients, newClientRow(*snap.Client)); err != nil {
		c.logger.Error("Failed to migrate client", zap.String("client_id", clientID), zap.Error(err))
		return report, apperrors.Wrap(err, "migrate client")
	}

	for _, w := range snap.Workers {
		if err := c.upsert(ctx, tableWorkers, newWorkerRow(clientID, w)); err != nil {
			report.warn(c.logger, fmt.Sprintf("worker %s: %v", w.ContractorID, err))
			continue
		}
		report.Workers++
	}

	for _, e := range snap.TimeEntries {
		if err := c.upsert(ctx, tableTimeEntries, newEntryRow(e)); err != nil {
			report.warn(c.logger, fmt.Sprintf("time entry %s: %v", e.ID, err))
			continue
		}
		report.Entries++

		for _, p := range e.ProofOfWork {
			if err := c.upsert(ctx, tableProofOfWork, newProofRow(e.ID, p)); err != nil {
				report.warn(c.logger, fmt.Sprintf("proof %s of entry %s: %v", p.ID, e.ID, err))
				continue
			}
			report.Proofs++
		}
	}

	c.logger.Info("Supabase migration finished",
		zap.Int("workers", report.Workers),
		zap.Int("time_entries", report.Entries),
		zap.Int("proofs", report.Proofs),
		zap.Int("warnings", len(report.Warnings)),
	)
	return report, nil
}

func (r *Report) warn(logger *zap.Logger, msg string) {
	logger.Warn("Supabase migration record failed", zap.String("detail", msg))
	r.Warnings = append(r.Warnings, msg)
}

// Validation compares the remote copy with the local data.
type Validation struct {
	Valid         bool     `json:"valid"`
	LocalWorkers  int      `json:"localWorkers"`
	RemoteWorkers int      `json:"remoteWorkers"`
	LocalEntries  int      `json:"localTimeEntries"`
	RemoteEntries int      `json:"remoteTimeEntries"`
	Mismatches    []string `json:"mismatches"`
}

// Validate checks that the client exists remotely and that the worker and
// entry counts match snap. Count mismatches are reported but do not make the
// result invalid; a missing client does.
func (c *Client) Validate(ctx context.Context, snap store.Snapshot) (Validation, error) {
	v := Validation{
		LocalWorkers: len(snap.Workers),
		LocalEntries: len(snap.TimeEntries),
		Mismatches:   []string{},
	}
	if snap.Client == nil {
		return v, apperrors.InvalidArgument("no client data to validate")
	}
	clientID := snap.Client.ID

	found, err := c.count(ctx, tableClients, eqFilter("id", clientID, "id"))
	if err != nil {
		return v, apperrors.Wrap(err, "validate client")
	}
	if found == 0 {
		v.Mismatches = append(v.Mismatches, fmt.Sprintf("client %s not found", clientID))
		return v, nil
	}
	v.Valid = true

	if v.RemoteWorkers, err = c.count(ctx, tableWorkers, eqFilter("client_id", clientID, "contractor_id")); err != nil {
		return v, apperrors.Wrap(err, "validate workers")
	}
	if v.RemoteWorkers != v.LocalWorkers {
		v.Mismatches = append(v.Mismatches,
			fmt.Sprintf("workers: local %d, remote %d", v.LocalWorkers, v.RemoteWorkers))
	}

	if v.RemoteEntries, err = c.count(ctx, tableTimeEntries, eqFilter("workers.client_id", clientID, "id,workers!inner(client_id)")); err != nil {
		return v, apperrors.Wrap(err, "validate time entries")
	}
	if v.RemoteEntries != v.LocalEntries {
		v.Mismatches = append(v.Mismatches,
			fmt.Sprintf("time entries: local %d, remote %d", v.LocalEntries, v.RemoteEntries))
	}

	c.logger.Info("Supabase validation finished",
		zap.Bool("valid", v.Valid),
		zap.Int("mismatches", len(v.Mismatches)),
	)
	return v, nil
}
