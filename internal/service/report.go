package service

import (
	"math"
	"sort"
	"time"

	"github.com/highercomve/timesheets/internal/models"
)

// Worker status labels used by WorkerReport.Status.
const (
	LabelPendingReview = "Pending Review"
	LabelUpToDate      = "Up to Date"
	LabelNoActivity    = "No Activity"
)

// NoWorker is ReportSummary.MostActiveWorker when nobody logged hours.
const NoWorker = "None"

// DateRange is an inclusive range of calendar days. Only the date part of
// Start and End is used.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days is the range length in whole days, rounded up. An open range has no
// length.
func (r DateRange) Days() int {
	if r.Start.IsZero() || r.End.IsZero() || !r.End.After(r.Start) {
		return 0
	}
	return int(math.Ceil(r.End.Sub(r.Start).Hours() / 24))
}

// AverageHoursPerDay is total spread over r, or zero for an empty range.
func AverageHoursPerDay(total float64, r DateRange) float64 {
	days := r.Days()
	if days == 0 {
		return 0
	}
	return total / float64(days)
}

func (r DateRange) startKey() string { return r.Start.Format(models.DateLayout) }
func (r DateRange) endKey() string   { return r.End.Format(models.DateLayout) }

// Contains reports whether the calendar day d falls inside the range.
func (r DateRange) Contains(d time.Time) bool {
	key := d.Format(models.DateLayout)
	return key >= r.startKey() && key <= r.endKey()
}

// Filter selects entries for a report. Empty WorkerIDs or Statuses match
// everything.
type Filter struct {
	DateRange DateRange       `json:"dateRange"`
	WorkerIDs []string        `json:"workerIds,omitempty"`
	Statuses  []models.Status `json:"statuses,omitempty"`
}

type WorkerReport struct {
	WorkerID         string  `json:"workerId"`
	WorkerName       string  `json:"workerName"`
	WorkerEmail      string  `json:"workerEmail"`
	TotalHours       float64 `json:"totalHours"`
	ApprovedHours    float64 `json:"approvedHours"`
	PendingHours     float64 `json:"pendingHours"`
	RejectedHours    float64 `json:"rejectedHours"`
	EntriesCount     int     `json:"entriesCount"`
	ProofOfWorkCount int     `json:"proofOfWorkCount"`
	// AverageHoursPerDay spreads TotalHours over the report's date range.
	AverageHoursPerDay float64 `json:"averageHoursPerDay"`
	LastActivity       string  `json:"lastActivity,omitempty"`
	Status             string  `json:"status"`
}

type ReportSummary struct {
	TotalWorkers          int     `json:"totalWorkers"`
	TotalHours            float64 `json:"totalHours"`
	TotalApproved         float64 `json:"totalApproved"`
	TotalPending          float64 `json:"totalPending"`
	TotalRejected         float64 `json:"totalRejected"`
	AverageHoursPerWorker float64 `json:"averageHoursPerWorker"`
	MostActiveWorker      string  `json:"mostActiveWorker"`
}

// ChartDataPoint is one label/value pair of a chart series. Labels are
// ISO dates for time series and names or statuses otherwise.
type ChartDataPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ComputeDurationHours returns the fractional hours an entry accounts for.
func ComputeDurationHours(entry models.TimeEntry) float64 {
	return entry.Source().Hours()
}

// FilterEntries keeps the entries matching f, in input order.
func FilterEntries(entries []models.TimeEntry, f Filter) []models.TimeEntry {
	workers := toSet(f.WorkerIDs)
	statuses := make(map[models.Status]struct{}, len(f.Statuses))
	for _, s := range f.Statuses {
		statuses[s] = struct{}{}
	}

	out := make([]models.TimeEntry, 0, len(entries))
	for _, e := range entries {
		day, ok := e.Day()
		if !ok || !f.DateRange.Contains(day) {
			continue
		}
		if len(workers) > 0 {
			if _, ok := workers[e.WorkerID]; !ok {
				continue
			}
		}
		if len(statuses) > 0 {
			if _, ok := statuses[e.Status]; !ok {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// AggregateByWorker builds one report per worker, in worker order. Entries
// whose worker is not in workers are ignored.
func AggregateByWorker(entries []models.TimeEntry, workers []models.Worker) []WorkerReport {
	reports := make([]WorkerReport, len(workers))
	index := make(map[string]int, len(workers))
	for i, w := range workers {
		reports[i] = WorkerReport{
			WorkerID:    w.ContractorID,
			WorkerName:  w.Name,
			WorkerEmail: w.Email,
		}
		index[w.ContractorID] = i
	}

	for _, e := range entries {
		i, ok := index[e.WorkerID]
		if !ok {
			continue
		}
		r := &reports[i]
		hours := ComputeDurationHours(e)
		switch {
		case e.Status == models.StatusApproved:
			r.ApprovedHours += hours
		case e.Status.Pending():
			r.PendingHours += hours
		case e.Status == models.StatusRejected:
			r.RejectedHours += hours
		}
		r.EntriesCount++
		r.ProofOfWorkCount += len(e.ProofOfWork)
		if day, ok := e.Day(); ok {
			if key := day.Format(models.DateLayout); key > r.LastActivity {
				r.LastActivity = key
			}
		}
	}

	for i := range reports {
		r := &reports[i]
		r.TotalHours = r.ApprovedHours + r.PendingHours + r.RejectedHours
		r.Status = statusLabel(*r)
	}
	return reports
}

func statusLabel(r WorkerReport) string {
	if r.PendingHours > 0 {
		return LabelPendingReview
	}
	if r.ApprovedHours > 0 {
		return LabelUpToDate
	}
	return LabelNoActivity
}

// ActiveReports drops reports without hours, keeping order.
func ActiveReports(reports []WorkerReport) []WorkerReport {
	out := make([]WorkerReport, 0, len(reports))
	for _, r := range reports {
		if r.TotalHours > 0 {
			out = append(out, r)
		}
	}
	return out
}

// SortByTotalHours returns a copy ordered by TotalHours, largest first.
// Equal totals keep their relative order.
func SortByTotalHours(reports []WorkerReport) []WorkerReport {
	out := append([]WorkerReport(nil), reports...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalHours > out[j].TotalHours
	})
	return out
}

// Summarize totals a set of worker reports.
func Summarize(reports []WorkerReport) ReportSummary {
	s := ReportSummary{MostActiveWorker: NoWorker}
	for _, r := range reports {
		if r.TotalHours > 0 {
			s.TotalWorkers++
		}
		s.TotalHours += r.TotalHours
		s.TotalApproved += r.ApprovedHours
		s.TotalPending += r.PendingHours
		s.TotalRejected += r.RejectedHours
	}
	if s.TotalWorkers > 0 {
		s.AverageHoursPerWorker = s.TotalHours / float64(s.TotalWorkers)
	}
	if sorted := SortByTotalHours(reports); len(sorted) > 0 && sorted[0].TotalHours > 0 {
		s.MostActiveWorker = sorted[0].WorkerName
	}
	return s
}

// BucketByDate sums hours per calendar day, oldest first. Entries without a
// valid date are skipped.
func BucketByDate(entries []models.TimeEntry) []ChartDataPoint {
	return bucket(entries, GroupByDay)
}

// BucketByWeek sums hours per Sunday-anchored week, oldest first. Labels are
// the week start dates.
func BucketByWeek(entries []models.TimeEntry) []ChartDataPoint {
	return bucket(entries, GroupByWeek)
}

func bucket(entries []models.TimeEntry, groupBy string) []ChartDataPoint {
	totals := make(map[string]float64)
	for _, e := range entries {
		day, ok := e.Day()
		if !ok {
			continue
		}
		totals[GetGroupKey(day, groupBy)] += ComputeDurationHours(e)
	}

	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	points := make([]ChartDataPoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, ChartDataPoint{Label: k, Value: totals[k]})
	}
	return points
}

// LastBuckets returns at most the n most recent points of an ascending series.
func LastBuckets(points []ChartDataPoint, n int) []ChartDataPoint {
	if n <= 0 || len(points) <= n {
		return append([]ChartDataPoint(nil), points...)
	}
	return append([]ChartDataPoint(nil), points[len(points)-n:]...)
}

// StatusDistribution counts entries per status, in workflow order. Statuses
// without entries are omitted.
func StatusDistribution(entries []models.TimeEntry) []ChartDataPoint {
	counts := make(map[models.Status]int)
	for _, e := range entries {
		counts[e.Status]++
	}
	var points []ChartDataPoint
	for _, s := range models.Statuses {
		if c := counts[s]; c > 0 {
			points = append(points, ChartDataPoint{Label: string(s), Value: float64(c)})
		}
	}
	return points
}

// HoursPerWorker returns the top n workers with hours. n <= 0 means all.
func HoursPerWorker(reports []WorkerReport, n int) []ChartDataPoint {
	active := ActiveReports(SortByTotalHours(reports))
	if n > 0 && len(active) > n {
		active = active[:n]
	}
	points := make([]ChartDataPoint, 0, len(active))
	for _, r := range active {
		points = append(points, ChartDataPoint{Label: r.WorkerName, Value: r.TotalHours})
	}
	return points
}

// UnknownWorkerRefs lists, in first-seen order, worker ids referenced by
// entries but missing from workers.
func UnknownWorkerRefs(entries []models.TimeEntry, workers []models.Worker) []string {
	known := make(map[string]struct{}, len(workers))
	for _, w := range workers {
		known[w.ContractorID] = struct{}{}
	}
	seen := make(map[string]struct{})
	var unknown []string
	for _, e := range entries {
		if _, ok := known[e.WorkerID]; ok {
			continue
		}
		if _, ok := seen[e.WorkerID]; ok {
			continue
		}
		seen[e.WorkerID] = struct{}{}
		unknown = append(unknown, e.WorkerID)
	}
	return unknown
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
