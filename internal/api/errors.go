package api

import (
	"context"
	"errors"
	"net/http"

	"storefront-service/internal/service"
	"storefront-service/internal/square"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const timeoutMessage = "The payment provider did not respond in time. Please try again."

// respondError maps a service error onto the HTTP error taxonomy. fallback is
// the message used when the error carries no user-facing text.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	var validation *service.ValidationError
	var apiErr *square.APIError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, errorResponse{Error: validation.Message})

	case errors.Is(err, service.ErrNotConfigured):
		h.logger.Error("Provider not configured", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})

	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("Provider call timed out", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusGatewayTimeout, errorResponse{Error: timeoutMessage, Retryable: true})

	case errors.As(err, &apiErr):
		h.logger.Error("Provider rejected request",
			zap.String("operation", apiErr.Operation),
			zap.Int("status", apiErr.StatusCode),
			zap.Error(err))
		msg := apiErr.Message()
		if msg == "" {
			msg = fallback
		}
		c.JSON(http.StatusInternalServerError, errorResponse{
			Error:   msg,
			Code:    apiErr.First().Code,
			Details: providerErrors(apiErr.Errors),
		})

	default:
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: fallback, Details: err.Error()})
	}
}
