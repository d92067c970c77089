package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lexdraft/doc-template-service/api/model"
	"github.com/lexdraft/doc-template-service/internal/models"
	"github.com/lexdraft/doc-template-service/pkg/jobqueue"
)

// Application error types.
const (
	ErrorTypeValidation = "VALIDATION_ERROR"
	ErrorTypeNotFound   = "NOT_FOUND_ERROR"
	ErrorTypeConflict   = "CONFLICT_ERROR"
	ErrorTypeInternal   = "INTERNAL_ERROR"
	ErrorTypeBusiness   = "BUSINESS_ERROR"
)

// AppError is an error with an HTTP mapping.
type AppError struct {
	Type    string
	Message string
	Details string
	Code    int
}

// Error implements the error interface.
func (e AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewValidationError builds a 400 input validation error.
func NewValidationError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusBadRequest,
	}
}

// NewNotFoundError builds a 404 error.
func NewNotFoundError(message string) AppError {
	return AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
		Code:    http.StatusNotFound,
	}
}

// NewConflictError builds a 409 error for state conflicts, such as
// cancelling a job that already started.
func NewConflictError(message string) AppError {
	return AppError{
		Type:    ErrorTypeConflict,
		Message: message,
		Code:    http.StatusConflict,
	}
}

// NewInternalError builds a 500 error.
func NewInternalError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusInternalServerError,
	}
}

// NewBusinessError builds a 400 business logic error.
func NewBusinessError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeBusiness,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusBadRequest,
	}
}

// ErrorMiddleware recovers panics and converts collected errors into the
// response envelope. Known domain errors map to their HTTP status; anything
// else is a 500.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.WithFields(logrus.Fields{
					"error": err,
					"stack": string(debug.Stack()),
					"path":  c.Request.URL.Path,
				}).Error("Panic recovered in API request")

				errResp := model.NewErrorResponse(
					http.StatusInternalServerError,
					"An unexpected error occurred",
				)
				if gin.Mode() == gin.DebugMode {
					errResp.Message = fmt.Sprintf("Panic: %v", err)
				}
				errResp.TraceID = traceIDFrom(c)

				c.AbortWithStatusJSON(http.StatusInternalServerError, errResp)
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		traceID := traceIDFrom(c)

		appErr := classify(err)
		log.WithFields(logrus.Fields{
			"error_type": appErr.Type,
			"trace_id":   traceID,
			"path":       c.Request.URL.Path,
		}).Error(appErr.Message)

		errResp := model.NewErrorResponse(appErr.Code, appErr.Message)
		errResp.TraceID = traceID
		if appErr.Code == http.StatusInternalServerError && gin.Mode() == gin.DebugMode {
			errResp.Message = err.Error()
		}

		c.AbortWithStatusJSON(appErr.Code, errResp)
	}
}

// classify maps an error to its AppError form.
func classify(err error) AppError {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, models.ErrTemplateNotFound):
		return NewNotFoundError("template not found")
	case errors.Is(err, models.ErrGenerationNotFound):
		return NewNotFoundError("generation record not found")
	case errors.Is(err, jobqueue.ErrJobNotFound):
		return NewNotFoundError("generation job not found")
	case errors.Is(err, jobqueue.ErrJobNotCancelable):
		return NewConflictError("job already started or finished")
	case errors.Is(err, jobqueue.ErrQueueFull):
		return AppError{
			Type:    ErrorTypeBusiness,
			Message: "generation queue is full, retry later",
			Code:    http.StatusServiceUnavailable,
		}
	case errors.Is(err, jobqueue.ErrQueueClosed):
		return AppError{
			Type:    ErrorTypeInternal,
			Message: "generation queue is shut down",
			Code:    http.StatusServiceUnavailable,
		}
	default:
		return NewInternalError("Internal server error")
	}
}

func traceIDFrom(c *gin.Context) string {
	if traceID, exists := c.Get("TraceID"); exists {
		if s, ok := traceID.(string); ok {
			return s
		}
	}
	return ""
}

// HandleError attaches an error to the context for ErrorMiddleware.
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
}
