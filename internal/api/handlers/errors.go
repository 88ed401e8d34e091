package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/herdadmin/internal/platform"
	"example.com/backstage/services/herdadmin/internal/services"
	"example.com/backstage/services/herdadmin/internal/tracking"
	"example.com/backstage/services/herdadmin/internal/validation"
)

// ErrorResponse defines the structure of an error response
type ErrorResponse struct {
	Message string                  `json:"message"`
	Code    string                  `json:"code,omitempty"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

// Error represents an API error
type Error struct {
	Message    string
	StatusCode int
	Code       string
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Common API errors
var (
	ErrInvalidRequest     = &Error{Message: "Invalid request", StatusCode: http.StatusBadRequest, Code: "INVALID_REQUEST"}
	ErrNotFound           = &Error{Message: "Resource not found", StatusCode: http.StatusNotFound, Code: "NOT_FOUND"}
	ErrInternalServer     = &Error{Message: "Internal server error", StatusCode: http.StatusInternalServerError, Code: "INTERNAL_ERROR"}
	ErrConflict           = &Error{Message: "Conflict", StatusCode: http.StatusConflict, Code: "CONFLICT"}
	ErrValidation         = &Error{Message: "Validation error", StatusCode: http.StatusBadRequest, Code: "VALIDATION_ERROR"}
	ErrBadGateway         = &Error{Message: "Platform request failed", StatusCode: http.StatusBadGateway, Code: "PLATFORM_ERROR"}
	ErrServiceUnavailable = &Error{Message: "Service unavailable", StatusCode: http.StatusServiceUnavailable, Code: "SERVICE_UNAVAILABLE"}
)

// errorTable maps service sentinels to API errors. The sentinel's own text
// is sent as the message.
var errorTable = []struct {
	target error
	api    *Error
}{
	{tracking.ErrInvalidTransition, ErrConflict},
	{tracking.ErrTerminalStage, ErrConflict},
	{tracking.ErrNotAtFinalStage, ErrConflict},
	{tracking.ErrAlreadyDelivered, ErrConflict},
	{tracking.ErrInvalidUnit, ErrInvalidRequest},
	{tracking.ErrInvalidOrderID, ErrInvalidRequest},
	{services.ErrUnknownTab, ErrInvalidRequest},
	{services.ErrUnknownModal, ErrInvalidRequest},
	{services.ErrOrderNotFound, ErrNotFound},
	{services.ErrUserNotFound, ErrNotFound},
	{services.ErrSearchDisabled, ErrServiceUnavailable},
	{services.ErrTreeNotConfigured, ErrServiceUnavailable},
}

// NewError creates a new API error with custom details
func NewError(message string, statusCode int, code string) *Error {
	return &Error{
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

// WriteError writes err as a JSON error response. Errors the table does not
// know become 502 with fallback when fallback is set, else 500.
func WriteError(c *gin.Context, err error, fallback string) {
	var apiError *Error
	if errors.As(err, &apiError) {
		c.JSON(apiError.StatusCode, ErrorResponse{Message: apiError.Message, Code: apiError.Code})
		return
	}

	var verr *validation.Error
	if errors.As(err, &verr) {
		c.JSON(ErrValidation.StatusCode, ErrorResponse{
			Message: verr.Error(),
			Code:    ErrValidation.Code,
			Fields:  verr.Fields,
		})
		return
	}

	if upstream, ok := platform.AsAPIError(err); ok {
		c.JSON(ErrBadGateway.StatusCode, ErrorResponse{Message: upstream.Message, Code: ErrBadGateway.Code})
		return
	}

	for _, e := range errorTable {
		if errors.Is(err, e.target) {
			c.JSON(e.api.StatusCode, ErrorResponse{Message: err.Error(), Code: e.api.Code})
			return
		}
	}

	if fallback != "" {
		log.Error().Err(err).Msg("Platform request failed")
		c.JSON(ErrBadGateway.StatusCode, ErrorResponse{Message: fallback, Code: ErrBadGateway.Code})
		return
	}

	log.Error().Err(err).Msg("Unhandled error")
	c.JSON(ErrInternalServer.StatusCode, ErrorResponse{Message: ErrInternalServer.Message, Code: ErrInternalServer.Code})
}

// bindError writes a 400 for a malformed request body
func bindError(c *gin.Context, err error) {
	log.Debug().Err(err).Msg("Invalid request body")
	c.JSON(ErrInvalidRequest.StatusCode, ErrorResponse{Message: err.Error(), Code: ErrInvalidRequest.Code})
}
