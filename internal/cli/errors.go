package cli

import (
	"errors"
	"fmt"

	"github.com/DreamCats/opencommands/internal/parser"
	"github.com/DreamCats/opencommands/internal/reconcile"
	"github.com/DreamCats/opencommands/internal/registry"
	"github.com/DreamCats/opencommands/internal/sources"
	"github.com/DreamCats/opencommands/internal/store"
)

// Error codes for structured error responses.
// These codes are stable and can be relied upon by agents.
const (
	// Command errors
	ErrCommandNotFound  = "COMMAND_NOT_FOUND"
	ErrCommandAmbiguous = "COMMAND_AMBIGUOUS"
	ErrDuplicateCommand = "DUPLICATE_COMMAND"
	ErrValidationFailed = "VALIDATION_FAILED"

	// Source errors
	ErrSourceFetchFailed = "SOURCE_FETCH_FAILED"
	ErrSourceUnknown     = "SOURCE_UNKNOWN"
	ErrInstallConflict   = "INSTALL_CONFLICT"

	// Config errors
	ErrConfigInvalid = "CONFIG_INVALID"

	// File errors
	ErrFileExists     = "FILE_EXISTS"
	ErrFileReadError  = "FILE_READ_ERROR"
	ErrFileWriteError = "FILE_WRITE_ERROR"

	// Database errors
	ErrDatabaseError = "DATABASE_ERROR"

	// Input errors
	ErrInvalidInput         = "INVALID_INPUT"
	ErrConfirmationRequired = "CONFIRMATION_REQUIRED"
	ErrCanceled             = "CANCELED"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnSkippedDocument    = "SKIPPED_DOCUMENT"
	WarnDuplicateCommand   = "DUPLICATE_COMMAND"
	WarnSourceFetchFailed  = "SOURCE_FETCH_FAILED"
	WarnWriteFailed        = "WRITE_FAILED"
	WarnHistoryUnavailable = "HISTORY_UNAVAILABLE"
	WarnNoCommands         = "NO_COMMANDS"
)

// cliError is an error with a stable code attached.
type cliError struct {
	Code       string
	Message    string
	Suggestion string
	Details    any
	Err        error
}

func (e *cliError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

func (e *cliError) Unwrap() error {
	return e.Err
}

func newError(code string, err error, suggestion string) *cliError {
	return &cliError{Code: code, Err: err, Suggestion: suggestion}
}

func newErrorf(code, suggestion, format string, args ...any) *cliError {
	return &cliError{Code: code, Message: fmt.Sprintf(format, args...), Suggestion: suggestion}
}

// reportedError marks an error whose JSON envelope was already written.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// errorInfo maps err to its envelope, deriving a code from the typed errors
// the lower layers return.
func errorInfo(err error) *ErrorInfo {
	info := &ErrorInfo{Code: ErrInternal, Message: err.Error()}

	var ce *cliError
	if errors.As(err, &ce) {
		info.Code = ce.Code
		info.Suggestion = ce.Suggestion
		info.Details = ce.Details
		return info
	}

	var ve *parser.ValidationError
	var de *registry.DuplicateKeyError
	var fe *sources.SourceFetchError
	switch {
	case errors.As(err, &ve):
		info.Code = ErrValidationFailed
		info.Details = map[string]any{"path": ve.Path, "problems": ve.Problems}
	case errors.As(err, &de):
		info.Code = ErrDuplicateCommand
		info.Details = map[string]any{"key": de.Key}
	case errors.As(err, &fe):
		info.Code = ErrSourceFetchFailed
		info.Details = map[string]any{"type": fe.Kind, "locator": fe.Locator}
	case errors.Is(err, store.ErrPlanConflicts):
		info.Code = ErrInstallConflict
	case errors.Is(err, reconcile.ErrCanceled):
		info.Code = ErrCanceled
	}
	return info
}
