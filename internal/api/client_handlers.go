package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/highercomve/timesheets/internal/apperrors"
	"github.com/highercomve/timesheets/internal/importer"
	"github.com/highercomve/timesheets/internal/service"
)

type rejectRequest struct {
	Notes string `json:"notes"`
}

type bulkRequest struct {
	IDs   []string `json:"ids" validate:"required,min=1,dive,required"`
	Notes string   `json:"notes"`
}

func (s *Server) getClient(c echo.Context) error {
	client, err := s.services.Settings.Client(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, client)
}

func (s *Server) saveClient(c echo.Context) error {
	var in service.ClientInput
	if err := bind(c, &in); err != nil {
		return err
	}
	client, err := s.services.Settings.SaveClient(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, client)
}

func (s *Server) listWorkers(c echo.Context) error {
	workers, err := s.services.Workers.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, workers)
}

func (s *Server) getWorker(c echo.Context) error {
	w, err := s.services.Workers.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, w)
}

func (s *Server) addWorker(c echo.Context) error {
	var in service.NewWorker
	if err := bind(c, &in); err != nil {
		return err
	}
	w, err := s.services.Workers.Add(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, w)
}

func (s *Server) updateWorker(c echo.Context) error {
	var in service.WorkerUpdate
	if err := bind(c, &in); err != nil {
		return err
	}
	w, err := s.services.Workers.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, w)
}

func (s *Server) deleteWorker(c echo.Context) error {
	if err := s.services.Workers.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) workerStats(c echo.Context) error {
	stats, err := s.services.Workers.Stats(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// importWorkers merges the hourly contractors of an uploaded Ontop CSV into
// the roster.
func (s *Server) importWorkers(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperrors.InvalidArgument("a CSV file is required")
	}
	if fh.Size > importer.MaxUploadBytes {
		return apperrors.NewAppError(apperrors.ErrTooLarge, "file exceeds 10MB", nil)
	}
	src, err := fh.Open()
	if err != nil {
		return apperrors.Wrap(err, "open upload")
	}
	defer src.Close()

	now := s.now()
	res, err := importer.ParseOntop(src, func() (string, error) {
		return service.GenerateInviteToken(now)
	})
	if err != nil {
		return err
	}

	merged, err := s.services.Workers.ImportMerge(c.Request().Context(), res.Workers)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"added":       merged.Added,
		"skipped":     merged.Skipped,
		"invalidRows": res.Skipped,
	})
}

func (s *Server) pendingEntries(c echo.Context) error {
	ctx := c.Request().Context()
	if workerID := c.QueryParam("worker"); workerID != "" {
		entries, err := s.services.Approvals.PendingForWorker(ctx, workerID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, entries)
	}
	entries, err := s.services.Approvals.Pending(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) approveEntry(c echo.Context) error {
	e, err := s.services.Approvals.Approve(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (s *Server) rejectEntry(c echo.Context) error {
	var in rejectRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	e, err := s.services.Approvals.Reject(c.Request().Context(), c.Param("id"), in.Notes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (s *Server) approveAll(c echo.Context) error {
	var in bulkRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	n, err := s.services.Approvals.ApproveAll(c.Request().Context(), in.IDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"changed": n})
}

func (s *Server) rejectAll(c echo.Context) error {
	var in bulkRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	n, err := s.services.Approvals.RejectAll(c.Request().Context(), in.IDs, in.Notes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"changed": n})
}
