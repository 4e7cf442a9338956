// Package sc16is7xx annotates SPI traffic to an NXP SC16IS7xx UART bridge.
//
// Each transaction starts with a command byte on MOSI that selects a register,
// a UART channel and the direction. The following byte carries data: on MOSI
// for writes, on MISO for reads.
package sc16is7xx

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/compose-network/spi-annotator/x/analyzer"
	"github.com/compose-network/spi-annotator/x/capability"
	"github.com/compose-network/spi-annotator/x/codec"
)

const Name = "sc16is7xx"

// ErrNoFrameType is returned when a request lacks the frame type the Analyzer
// needs to tell the command byte from data bytes.
var ErrNoFrameType = errors.New("frame type not present in request")

// Analyzer uses the frame type to find the command byte: the host reports
// frame type 0 for the first byte of a transaction.
type Analyzer struct {
	analyzer.Base
	log zerolog.Logger

	requestIsWrite bool
}

// New creates a frame-type driven analyzer.
func New(log zerolog.Logger) *Analyzer {
	return &Analyzer{
		Base: analyzer.NewBase(Name),
		log:  log.With().Str("analyzer", Name).Logger(),
	}
}

// OverriddenOperations reports bubble text as the only operation implemented.
func (a *Analyzer) OverriddenOperations() capability.Set {
	return capability.Of(codec.MessageBubble)
}

func (a *Analyzer) BubbleText(req codec.BubbleRequest) ([]string, error) {
	if !req.HasFrameFields {
		return nil, ErrNoFrameType
	}
	requestPhase := req.FrameType == 0

	if req.Direction != codec.ChannelMOSI {
		if !requestPhase && !a.requestIsWrite {
			return []string{codec.Hex(req.Value)}, nil
		}
		return nil, nil
	}

	if !requestPhase {
		if a.requestIsWrite {
			return []string{codec.Hex(req.Value)}, nil
		}
		return nil, nil
	}

	a.requestIsWrite = isWrite(req.Value)
	cmd, ok := parseCommand(req.Value)
	if !ok {
		a.log.Error().
			Str("value", codec.Hex(req.Value)).
			Uint64("frame_index", req.FrameIndex).
			Msg("Unexpected channel bits in command byte")
		return nil, nil
	}
	return cmd.candidates(), nil
}
