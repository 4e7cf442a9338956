// Package startstop is a raw-layout analyzer that places Start and Stop
// markers from the MISO value of each frame and labels every bubble with a
// fixed text.
package startstop

import (
	"github.com/compose-network/spi-annotator/x/analyzer"
	"github.com/compose-network/spi-annotator/x/codec"
)

const (
	Name = "startstop"

	DefaultLabel = "My sample message"
)

// Analyzer implements analyzer.RawHandler. Field positions are counted from
// the end of the line so the same code serves every field layout.
type Analyzer struct {
	analyzer.Base
	label string
}

// New creates the analyzer. An empty label selects DefaultLabel.
func New(label string) *Analyzer {
	if label == "" {
		label = DefaultLabel
	}
	return &Analyzer{Base: analyzer.NewBase(Name), label: label}
}

func (a *Analyzer) HandleRaw(req codec.RawRequest) (codec.Response, error) {
	switch req.Tag {
	case codec.KindBubble:
		return codec.Text(a.label), nil
	case codec.KindMarker:
		return a.markers(req.Fields)
	default:
		return codec.NoResult(), nil
	}
}

// markers reads the MISO value, the last field of a marker line.
func (a *Analyzer) markers(fields []string) (codec.Response, error) {
	if len(fields) == 0 {
		return codec.NoResult(), nil
	}
	miso, err := codec.ParseHex(fields[len(fields)-1])
	if err != nil {
		return codec.NoResult(), err
	}

	var markers []codec.Marker
	switch miso {
	case 0xff:
		markers = append(markers, codec.NewMarker(0, codec.ChannelMISO, codec.MarkerStop))
	case 0x00:
		markers = append(markers, codec.NewMarker(0, codec.ChannelMOSI, codec.MarkerStart))
	}
	return codec.RawLines.Markers(markers), nil
}
