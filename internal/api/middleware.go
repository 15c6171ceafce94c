package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/highercomve/timesheets/internal/apperrors"
	"github.com/highercomve/timesheets/internal/models"
)

const workerKey = "worker"

type requestValidator struct {
	validator *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	if err := v.validator.Struct(i); err != nil {
		return apperrors.InvalidArgument("invalid request: %v", err)
	}
	return nil
}

func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperrors.InvalidArgument("invalid request body")
	}
	return c.Validate(dst)
}

// clientAuth requires the configured API key as a bearer token. Without a
// key the client routes are open.
func (s *Server) clientAuth() echo.MiddlewareFunc {
	apiKey := s.config.APIKey
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		Skipper: func(echo.Context) bool { return apiKey == "" },
		Validator: func(key string, c echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return apperrors.NewAppError(apperrors.ErrUnauthenticated, "invalid or missing api key", err)
		},
	})
}

// portalAuth resolves the invite token to an activated worker.
func (s *Server) portalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		w, err := s.services.Store.WorkerByToken(c.Request().Context(), c.Param("token"))
		if err != nil {
			if apperrors.HasCode(err, apperrors.ErrNotFound) {
				return apperrors.NewAppError(apperrors.ErrUnauthenticated, "unknown invite token", nil)
			}
			return err
		}
		if !w.IsActive {
			return apperrors.Forbidden("invite for %s has not been accepted", w.ContractorID)
		}
		c.Set(workerKey, w)
		return next(c)
	}
}

func currentWorker(c echo.Context) models.Worker {
	w, _ := c.Get(workerKey).(models.Worker)
	return w
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	he := apperrors.ToHTTPError(err)
	if he.Code >= http.StatusInternalServerError {
		apperrors.LogError(s.logger, err, "Request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
		)
	}

	body := echo.Map{"error": he.Message}
	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		body["code"] = appErr.Code()
	}

	var respErr error
	if c.Request().Method == http.MethodHead {
		respErr = c.NoContent(he.Code)
	} else {
		respErr = c.JSON(he.Code, body)
	}
	if respErr != nil {
		s.logger.Error("Failed to write error response", zap.Error(respErr))
	}
}
