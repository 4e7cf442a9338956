package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compose-network/spi-annotator/x/codec"
)

type mosiOnly struct {
	Base
	calls []codec.Channel
}

func (m *mosiOnly) BubbleText(req codec.BubbleRequest) ([]string, error) {
	m.calls = append(m.calls, req.Direction)
	if req.Direction == codec.ChannelMOSI {
		return []string{"W IER", "W 0x1"}, nil
	}
	return nil, nil
}

type ownTabular struct{ Base }

func (ownTabular) Tabular(req codec.TabularRequest) (string, error) {
	return "custom", nil
}

type failingBubble struct{ Base }

func (failingBubble) BubbleText(codec.BubbleRequest) ([]string, error) {
	return nil, errors.New("boom")
}

func TestDefaultTabular_SubstitutesRawValue(t *testing.T) {
	t.Parallel()

	h := &mosiOnly{Base: NewBase("mosi-only")}
	req := codec.TabularRequest{MOSI: 0x08, MISO: 0x05}

	got, err := Tabular(h, req)
	require.NoError(t, err)
	assert.Equal(t, "MOSI: W IER; MISO: 0x5", got)
	assert.Equal(t, []codec.Channel{codec.ChannelMOSI, codec.ChannelMISO}, h.calls)
}

func TestDefaultTabular_PassesChannelValues(t *testing.T) {
	t.Parallel()

	got, err := Tabular(NewBase("empty"), codec.TabularRequest{MOSI: 0xab, MISO: 0})
	require.NoError(t, err)
	assert.Equal(t, "MOSI: 0xab; MISO: 0x0", got)
}

func TestTabular_UsesTabulator(t *testing.T) {
	t.Parallel()

	got, err := Tabular(ownTabular{}, codec.TabularRequest{})
	require.NoError(t, err)
	assert.Equal(t, "custom", got)
}

func TestDefaultTabular_PropagatesBubbleFailure(t *testing.T) {
	t.Parallel()

	_, err := Tabular(failingBubble{}, codec.TabularRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bubble text for MOSI")
}

func TestBase_Defaults(t *testing.T) {
	t.Parallel()

	b := NewBase("noop")
	assert.Equal(t, "noop", b.Name())

	texts, err := b.BubbleText(codec.BubbleRequest{})
	require.NoError(t, err)
	assert.Empty(t, texts)

	markers, err := b.Markers(codec.MarkerRequest{})
	require.NoError(t, err)
	assert.Empty(t, markers)

	require.NoError(t, b.OnStart(context.Background()))
	require.NoError(t, b.OnStop(context.Background()))
}
