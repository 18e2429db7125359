package types

import (
	"errors"
	"fmt"
)

var (
	ErrConfigNotFound       = errors.New("config not found")
	ErrConfigParseFailed    = errors.New("config parse failed")
	ErrConfigIsNil          = errors.New("config is nil")
	ErrConfigValidateFailed = errors.New("config validate failed")
)

var (
	ErrHandlerIsNil         = errors.New("handler is nil")
	ErrHandlerNameEmpty     = errors.New("handler name is empty")
	ErrHandlerExists        = errors.New("handler already registered")
	ErrHandlerNotFound      = errors.New("handler not found")
	ErrTooManyHandlers      = errors.New("too many handlers")
	ErrDuplicateWeight      = errors.New("duplicate handler weight")
	ErrRegistryFinalized    = errors.New("registry already finalized")
	ErrRegistryNotFinalized = errors.New("registry not finalized")
)

var (
	ErrFutureAwaited  = errors.New("future awaited twice")
	ErrPanicRecovered = errors.New("panic recovered")
	ErrRateLimited    = errors.New("rate limit exceeded")
)

var (
	ErrLogFileIsEmpty     = errors.New("log file is empty")
	ErrLogFileWrongFormat = errors.New("log file wrong format")
	ErrLoggerTypeUnknown  = errors.New("logger type unknown")
	ErrLoggerConfigIsNil  = errors.New("logger config is nil")
)

var (
	ErrServerNotRunning     = errors.New("server not running")
	ErrServerAlreadyRunning = errors.New("server already running")
)

func Errorf(baseErr error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", baseErr, fmt.Sprintf(format, args...))
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func NewErrorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

func IsError(err, target error) bool {
	return errors.Is(err, target)
}
