package apperrors

import (
	"go.uber.org/zap"
)

// LogError logs err with its code, if any.
func LogError(logger *zap.Logger, err error, msg string, fields ...zap.Field) {
	if err == nil {
		return
	}

	all := make([]zap.Field, 0, len(fields)+2)
	all = append(all, zap.Error(err))

	var appErr *AppError
	if As(err, &appErr) {
		all = append(all, zap.String("error_code", appErr.Code()))
	}
	all = append(all, fields...)

	logger.Error(msg, all...)
}
