package domain

import "errors"

var (
	// ErrInvalidInput is returned for malformed arguments or configuration. Not retriable.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable is returned when an external service cannot be reached or times out.
	// The cycle is retried by the supervisor.
	ErrUnavailable = errors.New("service unavailable")

	// ErrRejected is returned when an external service explicitly refuses a request.
	ErrRejected = errors.New("request rejected")
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// NetworkError represents a network-related error that may be retriable
type NetworkError struct {
	Op        string // Operation that failed (e.g., "get_quotes", "send_transaction")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is reports every network error as ErrUnavailable.
func (e *NetworkError) Is(target error) bool {
	return target == ErrUnavailable
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// NewFatalNetworkError creates a non-retriable network error
func NewFatalNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: false}
}

// RejectedError carries the reason a remote service gave for refusing a request.
type RejectedError struct {
	Op     string
	Reason string
}

func (e *RejectedError) Error() string {
	return e.Op + ": rejected: " + e.Reason
}

func (e *RejectedError) IsRetriable() bool {
	return false
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// NewRejectedError creates a rejection error for op.
func NewRejectedError(op, reason string) *RejectedError {
	return &RejectedError{Op: op, Reason: reason}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidInput
}
