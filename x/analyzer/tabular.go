package analyzer

import (
	"fmt"

	"github.com/compose-network/spi-annotator/x/codec"
)

// Tabular renders the tabular summary for a frame, using the handler's own
// implementation when it has one.
func Tabular(h Handler, req codec.TabularRequest) (string, error) {
	if t, ok := h.(Tabulator); ok {
		return t.Tabular(req)
	}
	return DefaultTabular(h, req)
}

// DefaultTabular builds "MOSI: <text>; MISO: <text>" from the handler's first
// bubble candidate for each channel. A channel without bubble text shows its
// raw value in hex.
func DefaultTabular(h Handler, req codec.TabularRequest) (string, error) {
	mosi, err := channelText(h, req, codec.ChannelMOSI)
	if err != nil {
		return "", err
	}
	miso, err := channelText(h, req, codec.ChannelMISO)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("MOSI: %s; MISO: %s", mosi, miso), nil
}

func channelText(h Handler, req codec.TabularRequest, ch codec.Channel) (string, error) {
	bubble := req.BubbleFor(ch)
	texts, err := h.BubbleText(bubble)
	if err != nil {
		return "", fmt.Errorf("bubble text for %s: %w", ch, err)
	}
	if len(texts) == 0 || texts[0] == "" {
		return codec.Hex(bubble.Value), nil
	}
	return texts[0], nil
}
