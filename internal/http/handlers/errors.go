package handlers

import (
	"net/http"

	"github.com/Harsha992004/online-bus-booking-app/internal/domain"
	"github.com/Harsha992004/online-bus-booking-app/internal/http/middleware"
	"github.com/Harsha992004/online-bus-booking-app/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error     string   `json:"error"`
	Code      string   `json:"code"`
	Taken     []string `json:"taken,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, taken []string) {
	c.JSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Taken:     taken,
		RequestID: middleware.GetRequestID(c),
	})
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsForbidden(err):
		respondError(c, http.StatusForbidden, "forbidden", err.Error(), nil)
	case domain.IsSeatConflict(err):
		respondError(c, http.StatusConflict, "seat_conflict", err.Error(), domain.TakenSeats(err))
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		utils.LogError(middleware.GetRequestID(c), "http", c.FullPath(), err)
		respondError(c, http.StatusInternalServerError, "internal_error", "something went wrong", nil)
	}
}
