package sc16is7xx

import (
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compose-network/spi-annotator/x/analyzer"
	"github.com/compose-network/spi-annotator/x/capability"
	"github.com/compose-network/spi-annotator/x/codec"
)

func bubble(frameType uint64, ch codec.Channel, value uint64) codec.BubbleRequest {
	return codec.BubbleRequest{
		Frame:     codec.Frame{FrameType: frameType, HasFrameFields: true},
		Direction: ch,
		Value:     value,
	}
}

func TestAnalyzer_WriteTransaction(t *testing.T) {
	t.Parallel()

	a := New(zerolog.New(io.Discard))

	// write IER on channel B: register 1, channel bits 01
	texts, err := a.BubbleText(bubble(0, codec.ChannelMOSI, 0x0a))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Write IER of channel B",
		"W IER [B]",
		"W 0x1 B",
		"0xa",
	}, texts)

	texts, err = a.BubbleText(bubble(1, codec.ChannelMOSI, 0x55))
	require.NoError(t, err)
	assert.Equal(t, []string{"0x55"}, texts)

	texts, err = a.BubbleText(bubble(1, codec.ChannelMISO, 0xff))
	require.NoError(t, err)
	assert.Empty(t, texts)
}

func TestAnalyzer_ReadTransaction(t *testing.T) {
	t.Parallel()

	a := New(zerolog.New(io.Discard))

	// read RHR on channel A
	texts, err := a.BubbleText(bubble(0, codec.ChannelMOSI, 0x80))
	require.NoError(t, err)
	assert.Equal(t, "Read RHR / DLL(9) of channel A", texts[0])
	assert.Equal(t, "R RHR / DLL(9) [A]", texts[1])

	texts, err = a.BubbleText(bubble(1, codec.ChannelMOSI, 0x00))
	require.NoError(t, err)
	assert.Empty(t, texts)

	texts, err = a.BubbleText(bubble(1, codec.ChannelMISO, 0x41))
	require.NoError(t, err)
	assert.Equal(t, []string{"0x41"}, texts)
}

func TestAnalyzer_WriteRegisterNames(t *testing.T) {
	t.Parallel()

	a := New(zerolog.New(io.Discard))
	texts, err := a.BubbleText(bubble(0, codec.ChannelMOSI, 0x10))
	require.NoError(t, err)
	assert.Equal(t, "W FCR / EFR(10) [A]", texts[1])
}

func TestAnalyzer_InvalidChannelBits(t *testing.T) {
	t.Parallel()

	a := New(zerolog.New(io.Discard))
	texts, err := a.BubbleText(bubble(0, codec.ChannelMOSI, 0x04))
	require.NoError(t, err)
	assert.Empty(t, texts)
}

func TestAnalyzer_InvalidCommandKeepsDirection(t *testing.T) {
	t.Parallel()

	a := New(zerolog.New(io.Discard))

	// channel bits 10 name no UART, but bit 7 still marks a write
	texts, err := a.BubbleText(bubble(0, codec.ChannelMOSI, 0x04))
	require.NoError(t, err)
	assert.Empty(t, texts)

	texts, err = a.BubbleText(bubble(1, codec.ChannelMOSI, 0x55))
	require.NoError(t, err)
	assert.Equal(t, []string{"0x55"}, texts)

	texts, err = a.BubbleText(bubble(1, codec.ChannelMISO, 0x41))
	require.NoError(t, err)
	assert.Empty(t, texts)
}

func TestAnalyzer_RequiresFrameType(t *testing.T) {
	t.Parallel()

	a := New(zerolog.New(io.Discard))
	_, err := a.BubbleText(codec.BubbleRequest{Direction: codec.ChannelMOSI, Value: 0x08})
	assert.ErrorIs(t, err, ErrNoFrameType)
}

func TestAnalyzer_ReflectiveCapabilities(t *testing.T) {
	t.Parallel()

	r := capability.NewRegistry(New(zerolog.New(io.Discard)), capability.PolicyReflective)
	assert.True(t, r.Lookup("bubble"))
	assert.False(t, r.Lookup("marker"))
	assert.False(t, r.Lookup("tabular"))
}

func TestPhaseTracker_Alternates(t *testing.T) {
	t.Parallel()

	p := NewPhaseTracker(zerolog.New(io.Discard))

	texts, err := p.BubbleText(codec.BubbleRequest{Direction: codec.ChannelMOSI, Value: 0x08})
	require.NoError(t, err)
	assert.Equal(t, []string{"(W) IER Ch A"}, texts)

	texts, err = p.BubbleText(codec.BubbleRequest{Direction: codec.ChannelMOSI, Value: 0x07})
	require.NoError(t, err)
	assert.Equal(t, []string{"0x7"}, texts)

	// back in the command position: a read of LSR
	texts, err = p.BubbleText(codec.BubbleRequest{Direction: codec.ChannelMOSI, Value: 0xa8})
	require.NoError(t, err)
	assert.Equal(t, []string{"(R) LSR / XON2(10) Ch A"}, texts)

	texts, err = p.BubbleText(codec.BubbleRequest{Direction: codec.ChannelMOSI, Value: 0x00})
	require.NoError(t, err)
	assert.Empty(t, texts)

	texts, err = p.BubbleText(codec.BubbleRequest{Direction: codec.ChannelMISO, Value: 0x60})
	require.NoError(t, err)
	assert.Equal(t, []string{"0x60"}, texts)
}

func TestPhaseTracker_ResyncsOnInvalidCommand(t *testing.T) {
	t.Parallel()

	p := NewPhaseTracker(zerolog.New(io.Discard))

	texts, err := p.BubbleText(codec.BubbleRequest{Direction: codec.ChannelMOSI, Value: 0x06})
	require.NoError(t, err)
	assert.Empty(t, texts)

	texts, err = p.BubbleText(codec.BubbleRequest{Direction: codec.ChannelMOSI, Value: 0x08})
	require.NoError(t, err)
	assert.Equal(t, []string{"(W) IER Ch A"}, texts)
}

func TestPhaseTracker_InvalidCommandKeepsDirection(t *testing.T) {
	t.Parallel()

	p := NewPhaseTracker(zerolog.New(io.Discard))

	for _, v := range []uint64{0x80, 0x00} {
		_, err := p.BubbleText(codec.BubbleRequest{Direction: codec.ChannelMOSI, Value: v})
		require.NoError(t, err)
	}

	// a write byte with invalid channel bits ends the read
	texts, err := p.BubbleText(codec.BubbleRequest{Direction: codec.ChannelMOSI, Value: 0x06})
	require.NoError(t, err)
	assert.Empty(t, texts)

	texts, err = p.BubbleText(codec.BubbleRequest{Direction: codec.ChannelMISO, Value: 0x41})
	require.NoError(t, err)
	assert.Empty(t, texts)
}

func TestPhaseTracker_DefaultTabular(t *testing.T) {
	t.Parallel()

	p := NewPhaseTracker(zerolog.New(io.Discard))
	got, err := analyzer.Tabular(p, codec.TabularRequest{MOSI: 0x08, MISO: 0x05})
	require.NoError(t, err)
	assert.Equal(t, "MOSI: (W) IER Ch A; MISO: 0x5", got)
}

func TestPhaseTracker_DeclaresNoMarkers(t *testing.T) {
	t.Parallel()

	r := capability.NewRegistry(NewPhaseTracker(zerolog.New(io.Discard)), capability.PolicyDeclarative)
	assert.False(t, r.Lookup("marker"))
	assert.True(t, r.Lookup("bubble"))
	assert.True(t, r.Lookup("tabular"))
}
