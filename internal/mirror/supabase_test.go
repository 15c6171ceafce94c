package mirror

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/highercomve/timesheets/internal/apperrors"
	"github.com/highercomve/timesheets/internal/config"
	"github.com/highercomve/timesheets/internal/models"
	"github.com/highercomve/timesheets/internal/store"
)

type fakeSupabase struct {
	mu      sync.Mutex
	tables  map[string][]map[string]any
	queries map[string]url.Values
	fail    func(table string, row map[string]any) bool
}

func newFakeSupabase(t *testing.T) (*fakeSupabase, *httptest.Server) {
	f := &fakeSupabase{tables: map[string][]map[string]any{}, queries: map[string]url.Values{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-api-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
		f.mu.Lock()
		defer f.mu.Unlock()

		switch r.Method {
		case http.MethodPost:
			assert.Contains(t, r.Header.Get("Prefer"), "resolution=merge-duplicates")
			var row map[string]any
			if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&row)) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if f.fail != nil && f.fail(table, row) {
				w.WriteHeader(http.StatusConflict)
				w.Write([]byte(`{"message":"duplicate key"}`))
				return
			}
			f.tables[table] = append(f.tables[table], row)
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			f.queries[table] = r.URL.Query()
			out := []map[string]any{}
			for _, row := range f.tables[table] {
				if f.matches(table, row, r.URL.Query()) {
					out = append(out, row)
				}
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(out)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

// matches applies eq filters. workers.client_id is resolved through the
// entry's worker, like an inner join.
func (f *fakeSupabase) matches(table string, row map[string]any, query url.Values) bool {
	for col, vals := range query {
		if col == "select" {
			continue
		}
		value := toString(row[col])
		if col == "workers.client_id" {
			value = ""
			for _, w := range f.tables[tableWorkers] {
				if w["contractor_id"] == row["worker_id"] {
					value = toString(w["client_id"])
				}
			}
		}
		if "eq."+value != vals[0] {
			return false
		}
	}
	return true
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func keys(row map[string]any) []string {
	out := make([]string, 0, len(row))
	for k := range row {
		out = append(out, k)
	}
	return out
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(config.SupabaseConfig{
		URL:     srv.URL + "/",
		APIKey:  "test-api-key",
		Timeout: 5 * time.Second,
	}, zap.NewNop())
}

func testSnapshot() store.Snapshot {
	hours := 2.5
	return store.Snapshot{
		Client: &models.Client{ID: "client-1", Name: "Acme", Email: "ops@acme.test",
			TrackingPreferences: models.DefaultTrackingPreferences()},
		Workers: []models.Worker{
			{ContractorID: "W1", Name: "Ana", Email: "ana@acme.test", TrackingMode: models.TrackingClock},
			{ContractorID: "W2", Name: "Ben", Email: "ben@acme.test", TrackingMode: models.TrackingTimesheet},
		},
		TimeEntries: []models.TimeEntry{
			{ID: "e1", WorkerID: "W1", Date: "2024-03-04", StartTime: "09:00", EndTime: "12:00",
				Description: "work", Status: models.StatusApproved},
			{ID: "e2", WorkerID: "W2", Date: "2024-03-05", ManualHours: &hours, Description: "docs",
				Status: models.StatusSubmitted, ProofOfWork: []models.ProofOfWork{
					{ID: "p1", Type: models.ProofNote, Content: "wrote docs"},
					{ID: "p2", Type: models.ProofFile, Content: "data:...", FileName: "a.pdf", FileSize: 12},
				}},
		},
	}
}

func TestMigrate(t *testing.T) {
	f, srv := newFakeSupabase(t)
	c := newTestClient(srv)

	report, err := c.Migrate(context.Background(), testSnapshot())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Workers)
	assert.Equal(t, 2, report.Entries)
	assert.Equal(t, 2, report.Proofs)
	assert.Empty(t, report.Warnings)

	require.Len(t, f.tables[tableClients], 1)
	assert.Equal(t, "client-1", f.tables[tableClients][0]["id"])
	require.Len(t, f.tables[tableWorkers], 2)
	assert.Equal(t, "client-1", f.tables[tableWorkers][0]["client_id"])
	require.Len(t, f.tables[tableTimeEntries], 2)
	assert.ElementsMatch(t, []string{
		"id", "worker_id", "date", "start_time", "end_time",
		"manual_hours", "description", "status", "client_notes",
	}, keys(f.tables[tableTimeEntries][0]))
	assert.Nil(t, f.tables[tableTimeEntries][1]["start_time"])
	assert.Equal(t, 2.5, f.tables[tableTimeEntries][1]["manual_hours"])
	require.Len(t, f.tables[tableProofOfWork], 2)
	assert.Equal(t, "e2", f.tables[tableProofOfWork][0]["time_entry_id"])
	assert.Nil(t, f.tables[tableProofOfWork][0]["file_size"])
	assert.Equal(t, float64(12), f.tables[tableProofOfWork][1]["file_size"])
}

func TestMigrateRecordFailuresAreWarnings(t *testing.T) {
	f, srv := newFakeSupabase(t)
	f.fail = func(table string, row map[string]any) bool {
		return table == tableWorkers && row["contractor_id"] == "W2"
	}
	c := newTestClient(srv)

	report, err := c.Migrate(context.Background(), testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Workers)
	assert.Equal(t, 2, report.Entries)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "worker W2")
	assert.Contains(t, report.Warnings[0], "duplicate key")
}

func TestMigrateRequiresClient(t *testing.T) {
	f, srv := newFakeSupabase(t)
	c := newTestClient(srv)

	snap := testSnapshot()
	snap.Client = nil
	_, err := c.Migrate(context.Background(), snap)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidArgument))
	assert.Empty(t, f.tables)
}

func TestMigrateClientFailureAborts(t *testing.T) {
	f, srv := newFakeSupabase(t)
	f.fail = func(table string, _ map[string]any) bool { return table == tableClients }
	c := newTestClient(srv)

	_, err := c.Migrate(context.Background(), testSnapshot())
	require.Error(t, err)
	assert.Empty(t, f.tables[tableWorkers])
}

func TestValidate(t *testing.T) {
	f, srv := newFakeSupabase(t)
	c := newTestClient(srv)
	snap := testSnapshot()

	t.Run("missing client", func(t *testing.T) {
		v, err := c.Validate(context.Background(), snap)
		require.NoError(t, err)
		assert.False(t, v.Valid)
		require.Len(t, v.Mismatches, 1)
		assert.Contains(t, v.Mismatches[0], "client-1")
	})

	_, err := c.Migrate(context.Background(), snap)
	require.NoError(t, err)

	t.Run("in sync", func(t *testing.T) {
		v, err := c.Validate(context.Background(), snap)
		require.NoError(t, err)
		assert.True(t, v.Valid)
		assert.Empty(t, v.Mismatches)
		assert.Equal(t, 2, v.RemoteWorkers)
		assert.Equal(t, 2, v.RemoteEntries)

		q := f.queries[tableTimeEntries]
		assert.Equal(t, "id,workers!inner(client_id)", q.Get("select"))
		assert.Equal(t, "eq.client-1", q.Get("workers.client_id"))
		assert.Empty(t, q.Get("client_id"))
	})

	t.Run("count mismatch", func(t *testing.T) {
		local := snap
		local.Workers = append(append([]models.Worker{}, snap.Workers...), models.Worker{ContractorID: "W3"})
		v, err := c.Validate(context.Background(), local)
		require.NoError(t, err)
		assert.True(t, v.Valid)
		require.Len(t, v.Mismatches, 1)
		assert.Equal(t, "workers: local 3, remote 2", v.Mismatches[0])
	})
}

func TestValidateRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Validate(context.Background(), testSnapshot())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrInternal, apperrors.CodeOf(err))
}
