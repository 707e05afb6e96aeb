package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is an HTTP-facing application error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Wrap returns a copy of e carrying err as its cause.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// WithDetails returns a copy of e with details attached to the response body.
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// WithMessage returns a copy of e with a different message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// Common error types. Treat these as constants; use the With helpers to
// derive request-specific values.
var (
	ErrBadRequest         = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized       = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrInvalidToken       = New(http.StatusUnauthorized, "Invalid token", nil)
	ErrNotFound           = New(http.StatusNotFound, "Not found", nil)
	ErrRequestTimeout     = New(http.StatusRequestTimeout, "Request timed out", nil)
	ErrTooLarge           = New(http.StatusRequestEntityTooLarge, "Upload too large", nil)
	ErrTooManyRequests    = New(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
	ErrInternalServer     = New(http.StatusInternalServerError, "Internal server error", nil)
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, "Service unavailable", nil)
)

// Forecast error types
var (
	ErrMissingFile     = New(http.StatusBadRequest, "No file uploaded", nil)
	ErrInvalidFileType = New(http.StatusBadRequest, "Only CSV files are allowed", nil)
	ErrInvalidCSV      = New(http.StatusBadRequest, "Invalid CSV", nil)
	ErrSchemaMismatch  = New(http.StatusUnprocessableEntity, "Input is missing required columns", nil)
	ErrTransformFailed = New(http.StatusUnprocessableEntity, "Input contains a value the model cannot use", nil)
	ErrJobNotFound     = New(http.StatusNotFound, "Forecast job not found", nil)
	ErrNoChartData     = New(http.StatusUnprocessableEntity, "No dated forecasts to plot", nil)
)

// Respond writes err as JSON and aborts the chain. Errors that are not
// *Error are reported as 500 without exposing their text.
func Respond(c *gin.Context, err error) {
	appErr := FromError(err)
	c.AbortWithStatusJSON(appErr.Code, appErr)
}

// ErrorMiddleware renders the last error attached with c.Error when the
// handler did not write a response itself.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		Respond(c, c.Errors.Last().Err)
	}
}
