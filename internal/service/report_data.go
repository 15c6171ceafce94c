package service

import (
	"github.com/highercomve/timesheets/internal/models"
)

// DailyChartDays caps the daily hours series of a report.
const DailyChartDays = 7

// TopWorkersChart caps the hours-per-worker series of a report.
const TopWorkersChart = 5

type EntryStats struct {
	TotalEntries    int     `json:"totalEntries"`
	ApprovedEntries int     `json:"approvedEntries"`
	ApprovalRate    float64 `json:"approvalRate"` // percent of entries approved
}

type ChartData struct {
	HoursPerWorker     []ChartDataPoint `json:"hoursPerWorker"`
	DailyHours         []ChartDataPoint `json:"dailyHours"`
	WeeklyHours        []ChartDataPoint `json:"weeklyHours"`
	StatusDistribution []ChartDataPoint `json:"statusDistribution"`
}

// ReportData is everything the full report view and its exports need.
type ReportData struct {
	Filter         Filter             `json:"filter"`
	Summary        ReportSummary      `json:"summary"`
	Stats          EntryStats         `json:"stats"`
	WorkerReports  []WorkerReport     `json:"workerReports"`
	Charts         ChartData          `json:"charts"`
	Entries        []models.TimeEntry `json:"entries"`
	UnknownWorkers []string           `json:"unknownWorkers,omitempty"`
}

// GenerateReport runs the whole aggregation for a filter. Every worker in
// scope gets a report, sorted by total hours.
func GenerateReport(entries []models.TimeEntry, workers []models.Worker, f Filter) ReportData {
	filtered := FilterEntries(entries, f)
	scoped := ScopeWorkers(workers, f.WorkerIDs)
	reports := SortByTotalHours(AggregateByWorker(filtered, scoped))
	for i := range reports {
		reports[i].AverageHoursPerDay = AverageHoursPerDay(reports[i].TotalHours, f.DateRange)
	}

	return ReportData{
		Filter:        f,
		Summary:       Summarize(reports),
		Stats:         ComputeEntryStats(filtered),
		WorkerReports: reports,
		Charts: ChartData{
			HoursPerWorker:     HoursPerWorker(reports, TopWorkersChart),
			DailyHours:         LastBuckets(BucketByDate(filtered), DailyChartDays),
			WeeklyHours:        BucketByWeek(filtered),
			StatusDistribution: StatusDistribution(filtered),
		},
		Entries:        filtered,
		UnknownWorkers: UnknownWorkerRefs(filtered, workers),
	}
}

// DashboardReports is the worker summary shown on the client dashboard:
// workers with hours in the range, in worker order.
func DashboardReports(entries []models.TimeEntry, workers []models.Worker, r DateRange) []WorkerReport {
	filtered := FilterEntries(entries, Filter{DateRange: r})
	return ActiveReports(AggregateByWorker(filtered, workers))
}

// ScopeWorkers keeps the workers named in ids; empty ids keeps all.
func ScopeWorkers(workers []models.Worker, ids []string) []models.Worker {
	if len(ids) == 0 {
		return append([]models.Worker(nil), workers...)
	}
	set := toSet(ids)
	out := make([]models.Worker, 0, len(ids))
	for _, w := range workers {
		if _, ok := set[w.ContractorID]; ok {
			out = append(out, w)
		}
	}
	return out
}

func ComputeEntryStats(entries []models.TimeEntry) EntryStats {
	s := EntryStats{TotalEntries: len(entries)}
	for _, e := range entries {
		if e.Status == models.StatusApproved {
			s.ApprovedEntries++
		}
	}
	if s.TotalEntries > 0 {
		s.ApprovalRate = float64(s.ApprovedEntries) / float64(s.TotalEntries) * 100
	}
	return s
}
