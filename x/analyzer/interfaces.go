package analyzer

import (
	"context"

	"github.com/compose-network/spi-annotator/x/codec"
)

// Handler defines the interface a concrete protocol analyzer implements. The
// dispatch loop calls it once per request line, in the order the host sends
// them, from a single goroutine.
type Handler interface {
	// Name returns the identifier of the analyzer (e.g., "sc16is7xx").
	Name() string

	// BubbleText returns one or more candidate annotations for a value on one
	// channel. Hosts that render at several widths pick among the candidates,
	// longest first. An empty slice means no annotation.
	BubbleText(req codec.BubbleRequest) ([]string, error)

	// Markers returns zero or more point-in-time markers for a frame.
	Markers(req codec.MarkerRequest) ([]codec.Marker, error)
}

// Tabulator is implemented by handlers that render their own tabular summary.
// Handlers without it get the summary derived from BubbleText.
type Tabulator interface {
	Tabular(req codec.TabularRequest) (string, error)
}

// RawHandler receives lines with only the tag interpreted. It is used with the
// raw layout.
type RawHandler interface {
	Name() string
	HandleRaw(req codec.RawRequest) (codec.Response, error)
}

// Lifecycle is implemented by handlers that hold resources across the
// session.
type Lifecycle interface {
	// OnStart is called once before the first request is read.
	OnStart(ctx context.Context) error
	// OnStop is called once after the input stream ends.
	OnStop(ctx context.Context) error
}
