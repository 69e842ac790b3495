package handlers

import (
	"errors"
	"net/http"

	"taxibot/internal/domain"
	"taxibot/internal/http/middleware"
	"taxibot/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	reqID := middleware.GetRequestID(c)
	if reqID != "" {
		c.JSON(status, gin.H{
			"error":      message,
			"code":       code,
			"details":    details,
			"request_id": reqID,
			"message":    message,
		})
		return
	}
	c.JSON(status, ErrorResponse{Error: message, Code: code, Details: details})
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsConflict(err), errors.Is(err, domain.ErrSeatsExhausted):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, domain.ErrStoreUnavailable):
		utils.LogEvent(middleware.GetRequestID(c), "http", c.FullPath(), err.Error())
		respondError(c, http.StatusServiceUnavailable, "store_unavailable", "store unavailable", nil)
	default:
		utils.LogEvent(middleware.GetRequestID(c), "http", c.FullPath(), err.Error())
		respondError(c, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}
