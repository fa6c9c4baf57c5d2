package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Graph structure errors.
const (
	// ErrCodeNotFound indicates a referenced node or component does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExists indicates a name is already registered.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	// ErrCodeCycleDetected indicates the dependency relation is not acyclic.
	ErrCodeCycleDetected ErrorCode = "CYCLE_DETECTED"
)

// ErrCodeInvalidInput covers bad definitions, inputs and request parameters.
const ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

// Execution errors.
const (
	// ErrCodeComputeFailed indicates a node's computation returned an error.
	ErrCodeComputeFailed ErrorCode = "COMPUTE_FAILED"
	// ErrCodeCanceled indicates the caller canceled a run.
	ErrCodeCanceled ErrorCode = "CANCELED"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Request errors.
const (
	// ErrCodeRateLimited indicates a client exceeded its request budget.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)
