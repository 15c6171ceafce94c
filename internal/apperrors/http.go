package apperrors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

var httpStatus = map[string]int{
	ErrInternal:        http.StatusInternalServerError,
	ErrNotFound:        http.StatusNotFound,
	ErrInvalidArgument: http.StatusBadRequest,
	ErrUnauthenticated: http.StatusUnauthorized,
	ErrForbidden:       http.StatusForbidden,
	ErrConflict:        http.StatusConflict,
	ErrTooLarge:        http.StatusRequestEntityTooLarge,
}

func ToHTTPStatus(code string) int {
	if s, ok := httpStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// internalMessage replaces the text of 5xx errors; callers log the cause.
const internalMessage = "internal server error"

// ToHTTPError converts err into an echo error with a matching status.
func ToHTTPError(err error) *echo.HTTPError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if As(err, &appErr) {
		status := ToHTTPStatus(appErr.Code())
		if status >= http.StatusInternalServerError {
			return echo.NewHTTPError(status, internalMessage)
		}
		return echo.NewHTTPError(status, appErr.Error())
	}

	var echoErr *echo.HTTPError
	if As(err, &echoErr) {
		return echoErr
	}

	return echo.NewHTTPError(http.StatusInternalServerError, internalMessage)
}
