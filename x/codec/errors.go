package codec

import "errors"

var (
	// ErrUnknownTag marks a line whose first field names no request kind the
	// layout understands. Callers ignore such lines without replying.
	ErrUnknownTag = errors.New("unrecognized request tag")

	ErrFieldCount     = errors.New("unexpected field count")
	ErrInvalidHex     = errors.New("invalid hexadecimal field")
	ErrUnknownChannel = errors.New("unknown channel")
	ErrMissingFeature = errors.New("missing feature name")
	ErrLineTooLong    = errors.New("line exceeds maximum size")
)

// DecodeError describes a malformed line for a recognized tag.
type DecodeError struct {
	Kind  Kind
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return "decode " + e.Kind.String() + ": " + e.Err.Error()
	}
	return "decode " + e.Kind.String() + " field " + e.Field + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }
