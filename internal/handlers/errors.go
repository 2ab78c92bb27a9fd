package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/fleet_finance_engine/internal/apperrors"
	"github.com/SscSPs/fleet_finance_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// statusForError maps service errors onto HTTP status codes.
func statusForError(err error) int {
	var appErr *apperrors.AppError
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrEntryNumberOverflow):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrConfiguration),
		errors.Is(err, apperrors.ErrUnbalancedEntry):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrTransientStore):
		return http.StatusServiceUnavailable
	case errors.As(err, &appErr):
		return appErr.Code
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the JSON error body. Server-side failures
// hide their cause behind publicMsg.
func respondError(c *gin.Context, err error, publicMsg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	status := statusForError(err)

	body := gin.H{"error": err.Error()}
	var cfgErr *apperrors.ConfigurationError
	if errors.As(err, &cfgErr) {
		body["missingCodes"] = cfgErr.MissingCodes
	}

	if status >= http.StatusInternalServerError {
		logger.Error(publicMsg, slog.String("error", err.Error()), slog.Int("status", status))
		body = gin.H{"error": publicMsg}
		if status == http.StatusServiceUnavailable {
			c.Header("Retry-After", "1")
		}
	} else {
		logger.Warn(publicMsg, slog.String("error", err.Error()), slog.Int("status", status))
	}
	c.AbortWithStatusJSON(status, body)
}

// actorFromContext returns the authenticated user, which is recorded as the actor of every write.
func actorFromContext(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("User ID not found in context")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return userID, ok
}
