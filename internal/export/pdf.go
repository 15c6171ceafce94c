package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"

	"github.com/highercomve/timesheets/internal/models"
	"github.com/highercomve/timesheets/internal/service"
)

var (
	entryTableHeaders  = []string{"Date", "Worker", "Description", "Hours", "Status"}
	entryTableGrid     = []uint{2, 3, 4, 1, 2}
	workerTableHeaders = []string{"Worker", "Total", "Approved", "Pending", "Status"}
	workerTableGrid    = []uint{4, 2, 2, 2, 2}
	stripe             = &color.Color{Red: 240, Green: 240, Blue: 240}
)

func tableProps(grid []uint) props.TableList {
	return props.TableList{
		HeaderProp: props.TableListContent{
			Size:      9,
			GridSizes: grid,
		},
		ContentProp: props.TableListContent{
			Size:      9,
			GridSizes: grid,
		},
		Align:                consts.Center,
		AlternatedBackground: stripe,
		HeaderContentSpace:   1,
		Line:                 false,
	}
}

func sectionTitle(m pdf.Maroto, title string, size float64) {
	m.Row(10, func() {
		m.Col(12, func() {
			m.Text(title, props.Text{
				Top:   5,
				Style: consts.Bold,
				Size:  size,
				Align: consts.Left,
			})
		})
	})
}

func rightNote(m pdf.Maroto, text string, size float64) {
	m.Row(8, func() {
		m.Col(12, func() {
			m.Text(text, props.Text{
				Style: consts.Bold,
				Align: consts.Right,
				Size:  size,
			})
		})
	})
}

// WritePDF renders a report: summary, per-worker table and the entries,
// grouped by day or week when groupBy asks for it.
func WritePDF(w io.Writer, data service.ReportData, groupBy string) error {
	m := pdf.NewMaroto(consts.Portrait, consts.A4)
	m.SetPageMargins(20, 10, 20)

	start := data.Filter.DateRange.Start.Format(models.DateLayout)
	end := data.Filter.DateRange.End.Format(models.DateLayout)

	m.RegisterHeader(func() {
		m.Row(10, func() {
			m.Col(12, func() {
				m.Text("Timesheet Report", props.Text{
					Top:   3,
					Style: consts.Bold,
					Align: consts.Center,
					Size:  16,
				})
			})
		})
		m.Row(10, func() {
			m.Col(12, func() {
				m.Text(fmt.Sprintf("%s - %s", start, end), props.Text{
					Top:   3,
					Style: consts.Normal,
					Align: consts.Center,
					Size:  12,
				})
			})
		})
	})

	writeSummary(m, data)

	sectionTitle(m, "Workers", 14)
	workerRows := make([][]string, 0, len(data.WorkerReports))
	for _, r := range data.WorkerReports {
		workerRows = append(workerRows, []string{
			r.WorkerName,
			Hours(r.TotalHours),
			Hours(r.ApprovedHours),
			Hours(r.PendingHours),
			r.Status,
		})
	}
	if len(workerRows) > 0 {
		m.TableList(workerTableHeaders, workerRows, tableProps(workerTableGrid))
	}

	sectionTitle(m, "Time Entries", 14)
	names := make(map[string]string, len(data.WorkerReports))
	for _, r := range data.WorkerReports {
		names[r.WorkerID] = r.WorkerName
	}
	writeEntries(m, data.Entries, names, groupBy)

	buf, err := m.Output()
	if err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func writeSummary(m pdf.Maroto, data service.ReportData) {
	s := data.Summary
	lines := []string{
		fmt.Sprintf("Total hours: %s", Hours(s.TotalHours)),
		fmt.Sprintf("Approved: %s  Pending: %s  Rejected: %s",
			Hours(s.TotalApproved), Hours(s.TotalPending), Hours(s.TotalRejected)),
		fmt.Sprintf("Active workers: %d  Average per worker: %s", s.TotalWorkers, Hours(s.AverageHoursPerWorker)),
		fmt.Sprintf("Most active: %s", s.MostActiveWorker),
		fmt.Sprintf("Entries: %d  Approval rate: %.1f%%", data.Stats.TotalEntries, data.Stats.ApprovalRate),
	}

	sectionTitle(m, "Summary", 14)
	for _, line := range lines {
		m.Row(6, func() {
			m.Col(12, func() {
				m.Text(line, props.Text{Size: 10})
			})
		})
	}
}

func entryRow(e models.TimeEntry, names map[string]string) []string {
	name, ok := names[e.WorkerID]
	if !ok {
		name = UnknownWorkerName
	}
	return []string{
		e.Date,
		name,
		e.Description,
		Hours(service.ComputeDurationHours(e)),
		string(e.Status),
	}
}

func writeEntries(m pdf.Maroto, entries []models.TimeEntry, names map[string]string, groupBy string) {
	var total float64
	for _, e := range entries {
		total += service.ComputeDurationHours(e)
	}

	if groupBy != service.GroupByDay && groupBy != service.GroupByWeek {
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, entryRow(e, names))
		}
		if len(rows) > 0 {
			m.TableList(entryTableHeaders, rows, tableProps(entryTableGrid))
		}
	} else {
		groups := make(map[string][]models.TimeEntry)
		var keys []string
		for _, e := range entries {
			day, ok := e.Day()
			if !ok {
				continue
			}
			key := service.GetGroupKey(day, groupBy)
			if _, exists := groups[key]; !exists {
				keys = append(keys, key)
			}
			groups[key] = append(groups[key], e)
		}

		sort.Sort(sort.Reverse(sort.StringSlice(keys)))

		for _, key := range keys {
			group := groups[key]
			var subtotal float64
			rows := make([][]string, 0, len(group))
			for _, e := range group {
				subtotal += service.ComputeDurationHours(e)
				rows = append(rows, entryRow(e, names))
			}

			day, _ := group[0].Day()
			sectionTitle(m, service.GetGroupTitle(day, groupBy), 12)
			m.TableList(entryTableHeaders, rows, tableProps(entryTableGrid))
			rightNote(m, fmt.Sprintf("Subtotal: %s h", Hours(subtotal)), 10)
			m.Row(5, func() {})
		}
	}

	m.Row(20, func() {
		m.Col(12, func() {
			m.Text(fmt.Sprintf("Total: %s h", Hours(total)), props.Text{
				Top:   10,
				Style: consts.Bold,
				Align: consts.Right,
				Size:  12,
			})
		})
	})
}
