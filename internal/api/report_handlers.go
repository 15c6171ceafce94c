package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/highercomve/timesheets/internal/apperrors"
	"github.com/highercomve/timesheets/internal/export"
	"github.com/highercomve/timesheets/internal/models"
	"github.com/highercomve/timesheets/internal/service"
)

// splitList flattens repeated and comma separated query values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (s *Server) dateRange(c echo.Context) (service.DateRange, error) {
	r, err := service.PeriodRange(c.QueryParam("period"), s.now(), c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		return service.DateRange{}, apperrors.InvalidArgument("%v", err)
	}
	if r.End.Before(r.Start) {
		return service.DateRange{}, apperrors.InvalidArgument("end date is before start date")
	}
	return r, nil
}

// reportFilter reads period, start, end, worker and status from the query.
func (s *Server) reportFilter(c echo.Context) (service.Filter, error) {
	r, err := s.dateRange(c)
	if err != nil {
		return service.Filter{}, err
	}
	f := service.Filter{
		DateRange: r,
		WorkerIDs: splitList(c.QueryParams()["worker"]),
	}
	for _, v := range splitList(c.QueryParams()["status"]) {
		st := models.Status(v)
		if !st.Valid() {
			return service.Filter{}, apperrors.InvalidArgument("unknown status %q", v)
		}
		f.Statuses = append(f.Statuses, st)
	}
	return f, nil
}

func (s *Server) reportData(c echo.Context) (service.ReportData, []models.Worker, error) {
	f, err := s.reportFilter(c)
	if err != nil {
		return service.ReportData{}, nil, err
	}
	ctx := c.Request().Context()
	entries, err := s.services.Store.Entries(ctx)
	if err != nil {
		return service.ReportData{}, nil, err
	}
	workers, err := s.services.Store.Workers(ctx)
	if err != nil {
		return service.ReportData{}, nil, err
	}
	return service.GenerateReport(entries, workers, f), workers, nil
}

func periodLabel(r service.DateRange) string {
	return fmt.Sprintf("%s - %s", r.Start.Format(models.DateLayout), r.End.Format(models.DateLayout))
}

func attachment(c echo.Context, name, contentType string, data []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, contentType, data)
}

func (s *Server) report(c echo.Context) error {
	data, _, err := s.reportData(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, data)
}

func (s *Server) dashboard(c echo.Context) error {
	r, err := s.dateRange(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	entries, err := s.services.Store.Entries(ctx)
	if err != nil {
		return err
	}
	workers, err := s.services.Store.Workers(ctx)
	if err != nil {
		return err
	}

	reports := service.DashboardReports(entries, workers, r)
	return c.JSON(http.StatusOK, echo.Map{
		"dateRange": r,
		"summary":   service.Summarize(reports),
		"workers":   reports,
	})
}

func (s *Server) entriesCSV(c echo.Context) error {
	data, workers, err := s.reportData(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := export.WriteEntriesCSV(&buf, data.Entries, workers); err != nil {
		return apperrors.Wrap(err, "write entries csv")
	}
	r := data.Filter.DateRange
	name := fmt.Sprintf("timesheet-entries-%s-%s.csv", r.Start.Format(models.DateLayout), r.End.Format(models.DateLayout))
	return attachment(c, name, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) consolidatedCSV(c echo.Context) error {
	data, _, err := s.reportData(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := export.WriteConsolidatedCSV(&buf, data.WorkerReports, periodLabel(data.Filter.DateRange)); err != nil {
		return apperrors.Wrap(err, "write consolidated csv")
	}
	r := data.Filter.DateRange
	name := fmt.Sprintf("timesheet-consolidated-%s-%s.csv", r.Start.Format(models.DateLayout), r.End.Format(models.DateLayout))
	return attachment(c, name, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) reportPDF(c echo.Context) error {
	groupBy := c.QueryParam("groupBy")
	if groupBy == "" {
		groupBy = service.GroupByNone
	}
	if !service.ValidGroupBy(groupBy) {
		return apperrors.InvalidArgument("unknown grouping %q", groupBy)
	}
	data, _, err := s.reportData(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := export.WritePDF(&buf, data, groupBy); err != nil {
		return apperrors.Wrap(err, "render pdf")
	}
	r := data.Filter.DateRange
	name := fmt.Sprintf("timesheet-report-%s-%s.pdf", r.Start.Format(models.DateLayout), r.End.Format(models.DateLayout))
	return attachment(c, name, "application/pdf", buf.Bytes())
}
