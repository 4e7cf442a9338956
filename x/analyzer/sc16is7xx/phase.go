package sc16is7xx

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/compose-network/spi-annotator/x/analyzer"
	"github.com/compose-network/spi-annotator/x/capability"
	"github.com/compose-network/spi-annotator/x/codec"
)

const PhaseName = "sc16is7xx-phase"

// PhaseTracker is for layouts that carry no frame type. It guesses the
// transaction phase by alternating on MOSI bytes, and resynchronizes when a
// byte in the command position has invalid channel bits.
type PhaseTracker struct {
	analyzer.Base
	log zerolog.Logger

	requestPhase   bool
	requestIsWrite bool
}

// NewPhaseTracker creates a phase-guessing analyzer.
func NewPhaseTracker(log zerolog.Logger) *PhaseTracker {
	return &PhaseTracker{
		Base: analyzer.NewBase(PhaseName),
		log:  log.With().Str("analyzer", PhaseName).Logger(),
	}
}

// CapabilityFlags disables markers, which this analyzer never produces.
func (p *PhaseTracker) CapabilityFlags() capability.Flags {
	flags := capability.DefaultFlags()
	flags.Marker = false
	return flags
}

func (p *PhaseTracker) BubbleText(req codec.BubbleRequest) ([]string, error) {
	if req.Direction != codec.ChannelMOSI {
		if !p.requestPhase && !p.requestIsWrite {
			return []string{codec.Hex(req.Value)}, nil
		}
		return nil, nil
	}

	if p.requestPhase {
		p.requestPhase = false
		if p.requestIsWrite {
			return []string{codec.Hex(req.Value)}, nil
		}
		return nil, nil
	}

	p.requestIsWrite = isWrite(req.Value)
	cmd, ok := parseCommand(req.Value)
	if !ok {
		p.log.Debug().Str("value", codec.Hex(req.Value)).Msg("Not a command byte, staying in data phase")
		return nil, nil
	}
	p.requestPhase = true
	return []string{fmt.Sprintf("(%s) %s Ch %s", cmd.shortOp(), cmd.registerName(), cmd.channel)}, nil
}
