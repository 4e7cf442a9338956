package codec

import (
	"fmt"
	"strconv"
	"strings"
)

// Channel identifies which half of a full-duplex SPI transaction a value belongs to.
type Channel int

const (
	ChannelSCK Channel = iota
	ChannelMOSI
	ChannelMISO
)

var channelNames = [...]string{
	ChannelSCK:  "SCK",
	ChannelMOSI: "MOSI",
	ChannelMISO: "MISO",
}

// String returns the upper-case channel name used by the host.
func (c Channel) String() string {
	if c < 0 || int(c) >= len(channelNames) {
		return fmt.Sprintf("Channel(%d)", int(c))
	}
	return channelNames[c]
}

// ParseChannel matches a channel name case-insensitively.
func ParseChannel(name string) (Channel, error) {
	for i, n := range channelNames {
		if strings.EqualFold(n, name) {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownChannel, name)
}

// MarkerType is a rendering hint for a marker. It carries no behavior.
type MarkerType int

const (
	MarkerErrorDot MarkerType = iota
	MarkerSquare
	MarkerErrorSquare
	MarkerUpArrow
	MarkerDownArrow
	MarkerX
	MarkerErrorX
	MarkerStart
	MarkerStop
	MarkerOne
	MarkerZero
	MarkerDot
)

var markerTypeNames = [...]string{
	MarkerErrorDot:    "ErrorDot",
	MarkerSquare:      "Square",
	MarkerErrorSquare: "ErrorSquare",
	MarkerUpArrow:     "UpArrow",
	MarkerDownArrow:   "DownArrow",
	MarkerX:           "X",
	MarkerErrorX:      "ErrorX",
	MarkerStart:       "Start",
	MarkerStop:        "Stop",
	MarkerOne:         "One",
	MarkerZero:        "Zero",
	MarkerDot:         "Dot",
}

func (m MarkerType) String() string {
	if m < 0 || int(m) >= len(markerTypeNames) {
		return fmt.Sprintf("MarkerType(%d)", int(m))
	}
	return markerTypeNames[m]
}

// MessageType is a kind of annotation the host may request.
type MessageType int

const (
	MessageBubble MessageType = iota
	MessageMarker
	MessageTabular
)

var messageTypeNames = [...]string{
	MessageBubble:  "bubble",
	MessageMarker:  "marker",
	MessageTabular: "tabular",
}

func (m MessageType) String() string {
	if m < 0 || int(m) >= len(messageTypeNames) {
		return fmt.Sprintf("MessageType(%d)", int(m))
	}
	return messageTypeNames[m]
}

// MessageTypes lists every message type in wire order.
func MessageTypes() []MessageType {
	return []MessageType{MessageBubble, MessageMarker, MessageTabular}
}

// ParseMessageType matches a capability name exactly, as sent in feature queries.
func ParseMessageType(name string) (MessageType, bool) {
	for i, n := range messageTypeNames {
		if n == name {
			return MessageType(i), true
		}
	}
	return 0, false
}

// Marker is a point-in-time annotation at a sample index on one channel.
type Marker struct {
	SampleIndex uint64
	Channel     Channel
	Type        MarkerType
}

// NewMarker creates a marker.
func NewMarker(idx uint64, ch Channel, typ MarkerType) Marker {
	return Marker{SampleIndex: idx, Channel: ch, Type: typ}
}

// Format renders the marker as a reply line. The host parses the index as
// hexadecimal. Lower-cased channel names are used by the multi-line layouts.
func (m Marker) Format(lowerChannel bool) string {
	ch := m.Channel.String()
	if lowerChannel {
		ch = strings.ToLower(ch)
	}
	return strconv.FormatUint(m.SampleIndex, 16) + FieldSeparator + ch + FieldSeparator + m.Type.String()
}

// String uses the enrichable form.
func (m Marker) String() string {
	return m.Format(true)
}
