package analyzer

import (
	"context"

	"github.com/compose-network/spi-annotator/x/codec"
)

// Base provides a default, embeddable implementation of the Handler interface.
// It is intended to be used by analyzer implementations to reduce boilerplate.
//
// Base answers every request with no result and has no-op lifecycle hooks.
// An embedding type overrides the operations it cares about. Since Base does
// not implement Tabulator, tabular requests fall back to the summary built
// from BubbleText.
type Base struct {
	name string
}

// NewBase creates a Base with the given analyzer name.
func NewBase(name string) Base {
	return Base{name: name}
}

// Name returns the identifier of the analyzer.
func (b Base) Name() string { return b.name }

// BubbleText returns no annotation.
func (b Base) BubbleText(codec.BubbleRequest) ([]string, error) { return nil, nil }

// Markers returns no markers.
func (b Base) Markers(codec.MarkerRequest) ([]codec.Marker, error) { return nil, nil }

// OnStart is a no-op lifecycle hook.
func (b Base) OnStart(context.Context) error { return nil }

// OnStop is a no-op lifecycle hook.
func (b Base) OnStop(context.Context) error { return nil }
