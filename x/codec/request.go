package codec

import (
	"fmt"
	"strconv"
)

// Kind selects the request variant, taken from the first field of a line.
type Kind int

const (
	KindUnknown Kind = iota
	KindBubble
	KindMarker
	KindTabular
	KindFeature
)

var kindTags = map[string]Kind{
	"bubble":  KindBubble,
	"marker":  KindMarker,
	"tabular": KindTabular,
	"feature": KindFeature,
}

func (k Kind) String() string {
	switch k {
	case KindBubble:
		return "bubble"
	case KindMarker:
		return "marker"
	case KindTabular:
		return "tabular"
	case KindFeature:
		return "feature"
	default:
		return "unknown"
	}
}

// Request is a decoded input line.
type Request interface {
	Kind() Kind
}

// PacketID is an optional correlation identifier. An empty wire field leaves
// Valid false, which is distinct from a present id of zero.
type PacketID struct {
	ID    uint64
	Valid bool
}

// SomePacketID returns a present packet id.
func SomePacketID(id uint64) PacketID {
	return PacketID{ID: id, Valid: true}
}

func (p PacketID) String() string {
	if !p.Valid {
		return "none"
	}
	return "0x" + strconv.FormatUint(p.ID, 16)
}

// Frame is the envelope shared by bubble, marker and tabular requests.
// FrameType and Flags are only meaningful when HasFrameFields is set.
type Frame struct {
	PacketID       PacketID
	FrameIndex     uint64
	StartSample    uint64
	EndSample      uint64
	FrameType      uint64
	Flags          uint64
	HasFrameFields bool
}

// BubbleRequest asks for bubble text for one channel of a frame.
type BubbleRequest struct {
	Frame
	Direction Channel
	Value     uint64
}

func (BubbleRequest) Kind() Kind { return KindBubble }

// MarkerRequest asks for markers within a frame.
type MarkerRequest struct {
	Frame
	SampleCount uint64
	MOSI        uint64
	MISO        uint64
}

func (MarkerRequest) Kind() Kind { return KindMarker }

// TabularRequest asks for a one-line digest of both channels of a frame.
type TabularRequest struct {
	Frame
	MOSI uint64
	MISO uint64
}

func (TabularRequest) Kind() Kind { return KindTabular }

// BubbleFor builds the bubble request for one channel of a tabular frame.
func (r TabularRequest) BubbleFor(ch Channel) BubbleRequest {
	value := r.MOSI
	if ch == ChannelMISO {
		value = r.MISO
	}
	return BubbleRequest{Frame: r.Frame, Direction: ch, Value: value}
}

// FeatureRequest probes whether a message type is enabled.
type FeatureRequest struct {
	Name string
}

func (FeatureRequest) Kind() Kind { return KindFeature }

// RawRequest carries an undecoded line for raw handlers.
type RawRequest struct {
	Tag    Kind
	Line   string
	Fields []string
}

func (r RawRequest) Kind() Kind { return r.Tag }

// Hex formats a value the way the default tabular summary prints raw data.
func Hex(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}
