package dispatch

import "errors"

var (
	// ErrTransport wraps read and write failures on the host streams. It is
	// the only error that ends the loop abnormally.
	ErrTransport = errors.New("transport failure")

	// ErrNotRawHandler is returned when the raw layout is selected for a
	// handler that cannot take raw lines.
	ErrNotRawHandler = errors.New("handler does not implement raw handling")

	ErrNilHandler = errors.New("handler is nil")
)

// Fault causes used in logs and metrics.
const (
	causeError = "error"
	causePanic = "panic"
)
