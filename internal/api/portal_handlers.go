package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/highercomve/timesheets/internal/models"
	"github.com/highercomve/timesheets/internal/service"
)

type clockRequest struct {
	Description string `json:"description"`
}

type adjustmentRequest struct {
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
}

// activate accepts an invite. It is the only portal route open to workers
// that are not active yet.
func (s *Server) activate(c echo.Context) error {
	w, err := s.services.Workers.Activate(c.Request().Context(), c.Param("token"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, w)
}

func (s *Server) portalWorker(c echo.Context) error {
	client, err := s.services.Store.Client(c.Request().Context())
	if err != nil {
		return err
	}
	prefs := models.DefaultTrackingPreferences()
	if client != nil {
		prefs = client.TrackingPreferences
	}
	return c.JSON(http.StatusOK, echo.Map{
		"worker":      currentWorker(c),
		"preferences": prefs,
	})
}

func (s *Server) activeSession(c echo.Context) error {
	session, err := s.services.Tracking.ActiveSession(c.Request().Context(), currentWorker(c).ContractorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"session": session})
}

func (s *Server) clockIn(c echo.Context) error {
	var in clockRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	e, err := s.services.Tracking.ClockIn(c.Request().Context(), currentWorker(c).ContractorID, in.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, e)
}

func (s *Server) clockOut(c echo.Context) error {
	var in clockRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	e, err := s.services.Tracking.ClockOut(c.Request().Context(), currentWorker(c).ContractorID, in.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (s *Server) workerEntries(c echo.Context) error {
	entries, err := s.services.Store.EntriesByWorker(c.Request().Context(), currentWorker(c).ContractorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) manualEntry(c echo.Context) error {
	var in service.ManualEntry
	if err := bind(c, &in); err != nil {
		return err
	}
	e, err := s.services.Tracking.SubmitManualEntry(c.Request().Context(), currentWorker(c).ContractorID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, e)
}

func (s *Server) editEntry(c echo.Context) error {
	var in service.EntryEdit
	if err := bind(c, &in); err != nil {
		return err
	}
	e, err := s.services.Edits.Edit(c.Request().Context(), currentWorker(c).ContractorID, c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (s *Server) submitEntry(c echo.Context) error {
	e, err := s.services.Tracking.Submit(c.Request().Context(), currentWorker(c).ContractorID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (s *Server) requestAdjustment(c echo.Context) error {
	var in adjustmentRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	e, err := s.services.Edits.RequestAdjustment(c.Request().Context(),
		currentWorker(c).ContractorID, c.Param("id"), in.StartTime, in.EndTime, in.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (s *Server) addProof(c echo.Context) error {
	var in service.ProofInput
	if err := bind(c, &in); err != nil {
		return err
	}
	e, err := s.services.Tracking.AddProof(c.Request().Context(), currentWorker(c).ContractorID, c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, e)
}

func (s *Server) removeProof(c echo.Context) error {
	e, err := s.services.Tracking.RemoveProof(c.Request().Context(),
		currentWorker(c).ContractorID, c.Param("id"), c.Param("proofId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}
