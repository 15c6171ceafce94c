package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/highercomve/timesheets/internal/apperrors"
	"github.com/highercomve/timesheets/internal/models"
	"github.com/highercomve/timesheets/internal/store"
)

type ClientInput struct {
	Name                string                      `json:"name" validate:"required"`
	Email               string                      `json:"email" validate:"required,email"`
	TrackingPreferences *models.TrackingPreferences `json:"trackingPreferences,omitempty"`
}

// SettingsService manages the client account.
type SettingsService struct {
	store  *store.Storage
	logger *zap.Logger
}

func NewSettingsService(s *store.Storage, logger *zap.Logger) *SettingsService {
	return &SettingsService{store: s, logger: logger}
}

func (s *SettingsService) Client(ctx context.Context) (models.Client, error) {
	c, err := s.store.Client(ctx)
	if err != nil {
		return models.Client{}, err
	}
	if c == nil {
		return models.Client{}, apperrors.NotFound("client is not set up")
	}
	return *c, nil
}

// SaveClient creates the client on first use and updates it afterwards.
// Preferences default to DefaultTrackingPreferences.
func (s *SettingsService) SaveClient(ctx context.Context, in ClientInput) (models.Client, error) {
	if err := validate.Struct(in); err != nil {
		return models.Client{}, apperrors.InvalidArgument("invalid client: %v", err)
	}
	existing, err := s.store.Client(ctx)
	if err != nil {
		return models.Client{}, err
	}

	c := models.Client{ID: uuid.NewString(), TrackingPreferences: models.DefaultTrackingPreferences()}
	if existing != nil {
		c = *existing
	}
	c.Name = in.Name
	c.Email = in.Email
	if in.TrackingPreferences != nil {
		c.TrackingPreferences = *in.TrackingPreferences
	}
	if !validScreenshotFrequency(c.TrackingPreferences.ScreenshotFrequency) {
		return models.Client{}, apperrors.InvalidArgument("invalid screenshot frequency %q", c.TrackingPreferences.ScreenshotFrequency)
	}

	if err := s.store.SaveClient(ctx, c); err != nil {
		return models.Client{}, err
	}
	s.logger.Info("Client saved", zap.String("client_id", c.ID))
	return c, nil
}

func validScreenshotFrequency(f string) bool {
	switch f {
	case "manual", "random", "disabled":
		return true
	}
	return false
}
