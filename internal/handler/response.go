package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bemyrider/internal/repository"
	"bemyrider/internal/service"
)

// ErrorResponse represents an error response. Details is diagnostic text for operators only.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
// Server errors get a generic message; the underlying error goes to details and to gin's error list.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code < http.StatusInternalServerError {
		c.JSON(code, ErrorResponse{Error: err.Error()})
		return
	}

	_ = c.Error(err)
	c.JSON(code, ErrorResponse{Error: serverErrorMessage(err), Details: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Partial failures wrap their cause, so they are matched first.
	case errors.Is(err, service.ErrPartialFailure):
		return http.StatusInternalServerError

	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden

	// Client-correctable and precondition errors
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrOnboardingIncomplete),
		errors.Is(err, service.ErrInvalidSignature):
		return http.StatusBadRequest

	// Not found errors
	case errors.Is(err, service.ErrNotFoundOrForbidden),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrDuplicateReview),
		errors.Is(err, repository.ErrDuplicate),
		errors.Is(err, service.ErrConflict):
		return http.StatusConflict

	case errors.Is(err, service.ErrPaymentProvider):
		return http.StatusBadGateway

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

func serverErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrPartialFailure):
		return "Payment created but the booking could not be saved; it will be reconciled"
	case errors.Is(err, service.ErrPaymentProvider):
		return "Payment provider error"
	default:
		return "Internal server error"
	}
}
