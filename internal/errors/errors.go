package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/donations/api/internal/middleware"
)

// Error code constants for standardized error responses
const (
	ErrNotFound            = "NOT_FOUND"
	ErrBadRequest          = "BAD_REQUEST"
	ErrInternalServer      = "INTERNAL_SERVER_ERROR"
	ErrValidation          = "VALIDATION_ERROR"
	ErrUnknownYear         = "UNKNOWN_YEAR"
	ErrYearNotLoaded       = "YEAR_NOT_LOADED"
	ErrUnknownView         = "UNKNOWN_VIEW"
	ErrUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrStorageUnavailable  = "STORAGE_UNAVAILABLE"
)

// ErrorResponse is the top-level error response structure.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// respond writes the envelope and aborts the handler chain.
func respond(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: middleware.GetRequestID(c),
		},
	})
}

// warn logs a client error when a request logger is present.
func warn(c *gin.Context, msg string, fields map[string]interface{}) {
	log := middleware.GetLogger(c)
	if log == nil {
		return
	}
	fields["request_id"] = middleware.GetRequestID(c)
	fields["path"] = c.Request.URL.Path
	log.Warn(msg, fields)
}

// NotFound returns a 404 Not Found error response.
func NotFound(c *gin.Context, message string) {
	NotFoundWithCode(c, ErrNotFound, message)
}

// NotFoundWithCode returns a 404 with a more specific code, such as
// ErrUnknownYear or ErrYearNotLoaded.
func NotFoundWithCode(c *gin.Context, code, message string) {
	warn(c, "Resource not found", map[string]interface{}{
		"code":    code,
		"message": message,
	})
	respond(c, http.StatusNotFound, code, message, nil)
}

// BadRequest returns a 400 Bad Request error response with optional details.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	fields := map[string]interface{}{"message": message}
	if details != nil {
		fields["details"] = details
	}
	warn(c, "Bad request", fields)
	respond(c, http.StatusBadRequest, ErrBadRequest, message, details)
}

// BadGateway returns a 502 when the published dataset source could not be
// reached or returned something unusable.
func BadGateway(c *gin.Context, message string, err error) {
	logError(c, "Upstream unavailable", message, err)
	respond(c, http.StatusBadGateway, ErrUpstreamUnavailable, message, nil)
}

// ServiceUnavailable returns a 503 when the dataset cache cannot be reached.
func ServiceUnavailable(c *gin.Context, message string, err error) {
	logError(c, "Storage unavailable", message, err)
	respond(c, http.StatusServiceUnavailable, ErrStorageUnavailable, message, nil)
}

// InternalServerError returns a 500 Internal Server Error response.
// The underlying error is logged but never exposed to the client.
func InternalServerError(c *gin.Context, message string, err error) {
	logError(c, "Internal server error", message, err)
	respond(c, http.StatusInternalServerError, ErrInternalServer, message, nil)
}

func logError(c *gin.Context, msg, message string, err error) {
	log := middleware.GetLogger(c)
	if log == nil {
		return
	}
	log.Error(msg, err, map[string]interface{}{
		"message":    message,
		"request_id": middleware.GetRequestID(c),
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
	})
}

// ValidationError returns a 400 Bad Request error response with field-specific validation errors.
func ValidationError(c *gin.Context, validationErrors validator.ValidationErrors) {
	details := make(map[string]interface{}, len(validationErrors))
	for _, err := range validationErrors {
		details[err.Field()] = formatValidationError(err)
	}

	warn(c, "Validation error", map[string]interface{}{"fields": details})
	respond(c, http.StatusBadRequest, ErrValidation, "Validation failed for one or more fields", details)
}

// BindingError reports a failed gin binding: field validation failures get
// per-field details, anything else (a malformed body or a non-numeric path
// parameter) is a plain bad request.
func BindingError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if stderrors.As(err, &validationErrors) {
		ValidationError(c, validationErrors)
		return
	}
	BadRequest(c, "Invalid request parameters", map[string]interface{}{"reason": err.Error()})
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is too short or small (minimum: " + err.Param() + ")"
	case "max":
		return "Value is too long or large (maximum: " + err.Param() + ")"
	case "gt":
		return "Must be greater than " + err.Param()
	case "gte":
		return "Must be greater than or equal to " + err.Param()
	case "lt":
		return "Must be less than " + err.Param()
	case "lte":
		return "Must be less than or equal to " + err.Param()
	case "oneof":
		return "Must be one of: " + err.Param()
	case "numeric":
		return "Must be numeric"
	case "boolean":
		return "Must be true or false"
	default:
		return "Validation failed for tag: " + err.Tag()
	}
}
