package runtime

import "errors"

// Errors returned by Runtime operations. Every one of them surfaces to the
// host as StatusError.
var (
	ErrInvalidHandle         = errors.New("invalid instance handle")
	ErrGUIDMismatch          = errors.New("guid does not match the model")
	ErrInvalidState          = errors.New("operation not allowed in current state")
	ErrErrorState            = errors.New("instance is in the error state")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrInvalidValueReference = errors.New("invalid value reference")
	ErrReadOnly              = errors.New("variable is read-only")
	ErrUnsupported           = errors.New("operation not supported")
	ErrStepFailed            = errors.New("step failed")
	ErrNotRegistered         = errors.New("no model registered")
	ErrTooManyInstances      = errors.New("instance table is full")
)

// ErrFatal may be wrapped by a model's DoStep error to signal that the
// instance cannot continue. The instance moves to the error state.
var ErrFatal = errors.New("fatal model error")

// Status mirrors fmi2Status. Only OK and Error are produced.
type Status int

const (
	StatusOK      Status = 0
	StatusWarning Status = 1
	StatusDiscard Status = 2
	StatusError   Status = 3
	StatusFatal   Status = 4
	StatusPending Status = 5
)

var statusNames = map[Status]string{
	StatusOK:      "ok",
	StatusWarning: "warning",
	StatusDiscard: "discard",
	StatusError:   "error",
	StatusFatal:   "fatal",
	StatusPending: "pending",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// StatusOf maps an operation result to the status reported to the host.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	return StatusError
}
