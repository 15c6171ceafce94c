// Package api exposes the timesheet services over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/highercomve/timesheets/internal/config"
	"github.com/highercomve/timesheets/internal/logger"
	"github.com/highercomve/timesheets/internal/mirror"
	"github.com/highercomve/timesheets/internal/service"
	"github.com/highercomve/timesheets/internal/store"
	"github.com/highercomve/timesheets/internal/version"
)

// bodyLimit leaves room for a base64 encoded 5MB proof file.
const bodyLimit = "16M"

// Services groups everything the handlers call into.
type Services struct {
	Store     *store.Storage
	Settings  *service.SettingsService
	Workers   *service.WorkerService
	Tracking  *service.TrackingService
	Edits     *service.EditService
	Approvals *service.ApprovalService
	// Mirror is nil when no Supabase project is configured.
	Mirror *mirror.Client
}

func NewServices(s *store.Storage, m *mirror.Client, logger *zap.Logger) Services {
	return Services{
		Store:     s,
		Settings:  service.NewSettingsService(s, logger),
		Workers:   service.NewWorkerService(s, logger),
		Tracking:  service.NewTrackingService(s, logger),
		Edits:     service.NewEditService(s, logger),
		Approvals: service.NewApprovalService(s, logger),
		Mirror:    m,
	}
}

type Server struct {
	config   config.ServerConfig
	logger   *zap.Logger
	echo     *echo.Echo
	services Services
	now      func() time.Time
}

func NewServer(cfg config.ServerConfig, log *zap.Logger, services Services) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		config:   cfg,
		logger:   log,
		echo:     e,
		services: services,
		now:      time.Now,
	}

	e.Validator = &requestValidator{validator: validator.New(validator.WithRequiredStructEnabled())}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(logger.EchoRequestLogger(log))
	e.Use(middleware.BodyLimit(bodyLimit))
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
	}))

	s.setupRoutes()
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	addr := s.config.Address()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": config.AppName,
			"version": version.Version,
		})
	})

	v1 := s.echo.Group("/api/v1")

	// Client routes
	client := v1.Group("", s.clientAuth())

	client.GET("/client", s.getClient)
	client.PUT("/client", s.saveClient)

	workers := client.Group("/workers")
	workers.GET("", s.listWorkers)
	workers.POST("", s.addWorker)
	workers.POST("/import", s.importWorkers)
	workers.GET("/:id", s.getWorker)
	workers.PATCH("/:id", s.updateWorker)
	workers.DELETE("/:id", s.deleteWorker)
	workers.GET("/:id/stats", s.workerStats)

	approvals := client.Group("/approvals")
	approvals.GET("/pending", s.pendingEntries)
	approvals.POST("/approve", s.approveAll)
	approvals.POST("/reject", s.rejectAll)
	client.POST("/entries/:id/approve", s.approveEntry)
	client.POST("/entries/:id/reject", s.rejectEntry)

	reports := client.Group("/reports")
	reports.GET("", s.report)
	reports.GET("/dashboard", s.dashboard)
	reports.GET("/entries.csv", s.entriesCSV)
	reports.GET("/consolidated.csv", s.consolidatedCSV)
	reports.GET("/report.pdf", s.reportPDF)

	data := client.Group("/data")
	data.GET("/export", s.exportData)
	data.POST("/import", s.importData)
	data.DELETE("", s.clearData)
	data.GET("/usage", s.usage)
	data.POST("/mirror/migrate", s.migrateMirror)
	data.GET("/mirror/validate", s.validateMirror)

	// Worker portal, addressed by invite token
	v1.POST("/portal/:token/activate", s.activate)

	portal := v1.Group("/portal/:token", s.portalAuth)
	portal.GET("", s.portalWorker)
	portal.GET("/session", s.activeSession)
	portal.POST("/clock-in", s.clockIn)
	portal.POST("/clock-out", s.clockOut)
	portal.GET("/entries", s.workerEntries)
	portal.POST("/entries", s.manualEntry)
	portal.PATCH("/entries/:id", s.editEntry)
	portal.POST("/entries/:id/submit", s.submitEntry)
	portal.POST("/entries/:id/adjustment", s.requestAdjustment)
	portal.POST("/entries/:id/proof", s.addProof)
	portal.DELETE("/entries/:id/proof/:proofId", s.removeProof)
}
