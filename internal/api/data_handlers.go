package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/highercomve/timesheets/internal/apperrors"
	"github.com/highercomve/timesheets/internal/mirror"
	"github.com/highercomve/timesheets/internal/models"
	"github.com/highercomve/timesheets/internal/store"
)

func (s *Server) exportData(c echo.Context) error {
	snap, err := s.services.Store.Export(c.Request().Context())
	if err != nil {
		return err
	}
	name := fmt.Sprintf("timesheets-backup-%s.json", snap.ExportDate.Format(models.DateLayout))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) importData(c echo.Context) error {
	var snap store.Snapshot
	if err := c.Bind(&snap); err != nil {
		return apperrors.InvalidArgument("invalid backup file")
	}
	if snap.Client == nil && snap.Workers == nil && snap.TimeEntries == nil {
		return apperrors.InvalidArgument("backup contains no data")
	}
	if err := s.services.Store.Import(c.Request().Context(), snap); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) clearData(c echo.Context) error {
	if err := s.services.Store.Clear(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) usage(c echo.Context) error {
	u, err := s.services.Store.Usage(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (s *Server) mirrorSnapshot(c echo.Context) (*mirror.Client, store.Snapshot, error) {
	if s.services.Mirror == nil {
		return nil, store.Snapshot{}, apperrors.InvalidArgument("supabase mirror is not configured")
	}
	snap, err := s.services.Store.Export(c.Request().Context())
	if err != nil {
		return nil, store.Snapshot{}, err
	}
	return s.services.Mirror, snap, nil
}

func (s *Server) migrateMirror(c echo.Context) error {
	m, snap, err := s.mirrorSnapshot(c)
	if err != nil {
		return err
	}
	report, err := m.Migrate(c.Request().Context(), snap)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) validateMirror(c echo.Context) error {
	m, snap, err := s.mirrorSnapshot(c)
	if err != nil {
		return err
	}
	v, err := m.Validate(c.Request().Context(), snap)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}
