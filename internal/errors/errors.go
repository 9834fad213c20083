package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
)

// ErrorType represents different types of errors
type ErrorType string

const (
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeNoActiveProfile ErrorType = "no_active_profile"
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeStore           ErrorType = "store"
	ErrorTypeConfig          ErrorType = "config"
	ErrorTypePermission      ErrorType = "permission"
	ErrorTypeInternal        ErrorType = "internal"
)

// AppError represents an application error with additional context
type AppError struct {
	Type     ErrorType
	Message  string
	Code     string
	Internal error
	Context  map[string]interface{}
	Source   string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the internal error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return errors.Is(e.Internal, target)
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// LogFields returns structured logging fields
func (e *AppError) LogFields() []interface{} {
	fields := []interface{}{
		"error_type", e.Type,
		"error_code", e.Code,
		"error_message", e.Message,
		"source", e.Source,
	}

	if e.Internal != nil {
		fields = append(fields, "internal_error", e.Internal.Error())
	}

	for k, v := range e.Context {
		fields = append(fields, k, v)
	}

	return fields
}

// New creates a new AppError
func New(errorType ErrorType, code, message string) *AppError {
	_, file, line, _ := runtime.Caller(1)
	source := fmt.Sprintf("%s:%d", file, line)

	return &AppError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Source:  source,
		Context: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error into AppError
func Wrap(err error, errorType ErrorType, code, message string) *AppError {
	_, file, line, _ := runtime.Caller(1)
	source := fmt.Sprintf("%s:%d", file, line)

	return &AppError{
		Type:     errorType,
		Code:     code,
		Message:  message,
		Internal: err,
		Source:   source,
		Context:  make(map[string]interface{}),
	}
}

// Handler provides error handling strategies
type Handler struct {
	logger *slog.Logger
}

// NewHandler creates a new error handler
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// Handle processes an error according to its type
func (h *Handler) Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		h.handleAppError(ctx, appErr)
	} else {
		h.handleGenericError(ctx, err)
	}
}

// handleAppError handles AppError instances
func (h *Handler) handleAppError(ctx context.Context, err *AppError) {
	switch err.Type {
	case ErrorTypeValidation:
		h.logger.WarnContext(ctx, "Validation error", err.LogFields()...)
	case ErrorTypeNotFound, ErrorTypeNoActiveProfile:
		h.logger.WarnContext(ctx, "Request error", err.LogFields()...)
	case ErrorTypePermission:
		h.logger.WarnContext(ctx, "Permission error", err.LogFields()...)
	case ErrorTypeStore, ErrorTypeConfig, ErrorTypeInternal:
		h.logger.ErrorContext(ctx, "Critical error", err.LogFields()...)
	default:
		h.logger.ErrorContext(ctx, "Unknown error type", err.LogFields()...)
	}
}

// handleGenericError handles generic errors
func (h *Handler) handleGenericError(ctx context.Context, err error) {
	h.logger.ErrorContext(ctx, "Unhandled error", "error", err.Error())
}

// LogAndReturn logs an error and returns it
func (h *Handler) LogAndReturn(ctx context.Context, err error) error {
	h.Handle(ctx, err)
	return err
}

// Predefined errors. Compare with errors.Is, which matches on Type and Code.
var (
	ErrProfileNotFound   = New(ErrorTypeNotFound, "PROFILE_NOT_FOUND", "Profile not found in catalogue")
	ErrNoActiveProfile   = New(ErrorTypeNoActiveProfile, "NO_ACTIVE_PROFILE", "No active permanent profile switch")
	ErrValidationFailure = New(ErrorTypeValidation, "VALIDATION_FAILED", "Profile switch failed safety validation")
	ErrStoreFailure      = New(ErrorTypeStore, "STORE_FAILURE", "Profile switch store operation failed")
	ErrUnauthorized      = New(ErrorTypePermission, "UNAUTHORIZED", "Unauthorized access")
	ErrInvalidConfig     = New(ErrorTypeConfig, "INVALID_CONFIG", "Invalid configuration")
	ErrInternal          = New(ErrorTypeInternal, "INTERNAL", "Internal error")
)

// NewProfileNotFoundError reports a catalogue lookup miss
func NewProfileNotFoundError(name string) *AppError {
	return New(ErrorTypeNotFound, "PROFILE_NOT_FOUND", fmt.Sprintf("profile %q not found", name)).
		WithContext("profile", name)
}

// NewNoActiveProfileError reports that no permanent switch exists to base an override on
func NewNoActiveProfileError() *AppError {
	return New(ErrorTypeNoActiveProfile, "NO_ACTIVE_PROFILE", "no active permanent profile switch")
}

// NewValidationFailure carries the reasons a candidate switch was declined
func NewValidationFailure(reasons []string) *AppError {
	return New(ErrorTypeValidation, "VALIDATION_FAILED", "profile switch failed safety validation").
		WithContext("reasons", reasons)
}

func NewStoreFailure(err error) *AppError {
	return Wrap(err, ErrorTypeStore, "STORE_FAILURE", "profile switch store operation failed")
}

func NewConfigError(message string) *AppError {
	return New(ErrorTypeConfig, "INVALID_CONFIG", message)
}

func NewInternalError(err error) *AppError {
	return Wrap(err, ErrorTypeInternal, "INTERNAL", "Internal error")
}

// Reasons returns the validation reasons attached to err, if any
func Reasons(err error) []string {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return nil
	}
	reasons, _ := appErr.Context["reasons"].([]string)
	return reasons
}
