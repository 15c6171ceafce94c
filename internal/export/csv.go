// Package export renders reports as CSV and PDF documents.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/highercomve/timesheets/internal/models"
	"github.com/highercomve/timesheets/internal/service"
)

// UnknownWorkerName labels entries whose worker no longer exists.
const UnknownWorkerName = "Unknown"

var entryHeaders = []string{
	"Worker ID",
	"Worker Name",
	"Date",
	"Start Time",
	"End Time",
	"Manual Hours",
	"Total Hours",
	"Description",
	"Status",
	"Proof Count",
	"Client Notes",
}

var consolidatedHeaders = []string{
	"Reference",
	"Worker name",
	"Email",
	"Total Hours",
	"Approved Hours",
	"Pending Hours",
	"Status",
	"Period",
	"Last Activity",
}

// Hours formats a number of hours with two decimals.
func Hours(h float64) string {
	return decimal.NewFromFloat(h).StringFixed(2)
}

// WriteEntriesCSV writes one row per entry.
func WriteEntriesCSV(w io.Writer, entries []models.TimeEntry, workers []models.Worker) error {
	names := make(map[string]string, len(workers))
	for _, wk := range workers {
		names[wk.ContractorID] = wk.Name
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(entryHeaders); err != nil {
		return err
	}
	for _, e := range entries {
		name, ok := names[e.WorkerID]
		if !ok {
			name = UnknownWorkerName
		}
		manual := ""
		if e.ManualHours != nil {
			manual = Hours(*e.ManualHours)
		}
		record := []string{
			e.WorkerID,
			name,
			e.Date,
			e.StartTime,
			e.EndTime,
			manual,
			Hours(service.ComputeDurationHours(e)),
			e.Description,
			string(e.Status),
			strconv.Itoa(len(e.ProofOfWork)),
			e.ClientNotes,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteConsolidatedCSV writes one row per worker report in the layout Ontop
// payroll imports.
func WriteConsolidatedCSV(w io.Writer, reports []service.WorkerReport, period string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(consolidatedHeaders); err != nil {
		return err
	}
	for _, r := range reports {
		record := []string{
			r.WorkerID,
			r.WorkerName,
			r.WorkerEmail,
			Hours(r.TotalHours),
			Hours(r.ApprovedHours),
			Hours(r.PendingHours),
			r.Status,
			period,
			r.LastActivity,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
