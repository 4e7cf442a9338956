package codec

import (
	"fmt"
	"strconv"
	"strings"
)

var _ Codec = (*LineCodec)(nil)

// LineCodec implements tab-delimited line decoding for one layout
type LineCodec struct {
	layout      Layout
	maxLineSize int
}

// NewLineCodec creates a codec for the layout. A non-positive maxLineSize
// selects DefaultMaxLineSize.
func NewLineCodec(layout Layout, maxLineSize int) *LineCodec {
	if maxLineSize <= 0 {
		maxLineSize = DefaultMaxLineSize
	}
	return &LineCodec{layout: layout, maxLineSize: maxLineSize}
}

func (c *LineCodec) Layout() Layout { return c.layout }

func (c *LineCodec) MaxLineSize() int { return c.maxLineSize }

// Tag returns the request kind named by the first field of a line, or
// KindUnknown when this layout does not recognize it.
func (c *LineCodec) Tag(line string) Kind {
	tag, _, _ := strings.Cut(line, FieldSeparator)
	k, ok := kindTags[tag]
	if !ok || !c.layout.Recognizes(k) {
		return KindUnknown
	}
	return k
}

// Decode parses one line with trailing whitespace already removed.
// Unrecognized tags return ErrUnknownTag; malformed lines for a recognized tag
// return a *DecodeError.
func (c *LineCodec) Decode(line string) (Request, error) {
	kind := c.Tag(line)
	if kind == KindUnknown {
		return nil, ErrUnknownTag
	}
	if len(line) > c.maxLineSize {
		return nil, &DecodeError{Kind: kind, Err: ErrLineTooLong}
	}

	fields := strings.Split(line, FieldSeparator)[1:]

	if c.layout.Raw {
		return RawRequest{Tag: kind, Line: line, Fields: fields}, nil
	}

	if kind == KindFeature {
		if len(fields) == 0 || fields[0] == "" {
			return nil, &DecodeError{Kind: kind, Field: "name", Err: ErrMissingFeature}
		}
		if len(fields) != 1 {
			return nil, &DecodeError{Kind: kind, Err: ErrFieldCount}
		}
		return FeatureRequest{Name: fields[0]}, nil
	}

	if want := c.layout.FieldCount(kind); len(fields) != want {
		return nil, &DecodeError{
			Kind: kind,
			Err:  fmt.Errorf("%w: want %d, got %d", ErrFieldCount, want, len(fields)),
		}
	}

	r := &fieldReader{kind: kind, fields: fields}
	switch kind {
	case KindBubble:
		req := BubbleRequest{}
		req.Frame = c.readFrame(r, nil)
		req.Direction = r.channel("direction")
		req.Value = r.hex("value")
		if r.err != nil {
			return nil, r.err
		}
		return req, nil
	case KindMarker:
		req := MarkerRequest{}
		req.Frame = c.readFrame(r, &req.SampleCount)
		req.MOSI = r.hex("mosi_value")
		req.MISO = r.hex("miso_value")
		if r.err != nil {
			return nil, r.err
		}
		return req, nil
	default:
		req := TabularRequest{}
		req.Frame = c.readFrame(r, nil)
		req.MOSI = r.hex("mosi_value")
		req.MISO = r.hex("miso_value")
		if r.err != nil {
			return nil, r.err
		}
		return req, nil
	}
}

// readFrame reads the envelope. Marker lines carry the sample count between
// the frame index and the sample bounds; pass a non-nil count to read it.
func (c *LineCodec) readFrame(r *fieldReader, count *uint64) Frame {
	var f Frame
	if c.layout.PacketID {
		f.PacketID = r.optionalHex("packet_id")
	}
	f.FrameIndex = r.hex("frame_index")
	if count != nil {
		*count = r.hex("sample_count")
	}
	f.StartSample = r.hex("start_sample")
	f.EndSample = r.hex("end_sample")
	if c.layout.FrameFields {
		f.HasFrameFields = true
		f.FrameType = r.hex("frame_type")
		f.Flags = r.hex("flags")
	}
	return f
}

// Encode serializes a response body.
func (c *LineCodec) Encode(resp Response) string {
	return resp.Encode()
}

// fieldReader consumes fields in order and keeps the first error.
type fieldReader struct {
	kind   Kind
	fields []string
	pos    int
	err    error
}

func (r *fieldReader) next() string {
	if r.pos >= len(r.fields) {
		return ""
	}
	s := r.fields[r.pos]
	r.pos++
	return s
}

func (r *fieldReader) hex(name string) uint64 {
	s := r.next()
	if r.err != nil {
		return 0
	}
	v, err := ParseHex(s)
	if err != nil {
		r.err = &DecodeError{Kind: r.kind, Field: name, Err: err}
		return 0
	}
	return v
}

func (r *fieldReader) optionalHex(name string) PacketID {
	s := r.next()
	if r.err != nil || s == "" {
		return PacketID{}
	}
	v, err := ParseHex(s)
	if err != nil {
		r.err = &DecodeError{Kind: r.kind, Field: name, Err: err}
		return PacketID{}
	}
	return SomePacketID(v)
}

func (r *fieldReader) channel(name string) Channel {
	s := r.next()
	if r.err != nil {
		return 0
	}
	ch, err := ParseChannel(s)
	if err != nil {
		r.err = &DecodeError{Kind: r.kind, Field: name, Err: err}
		return 0
	}
	return ch
}

// ParseHex parses a base-16 field. A 0x prefix is accepted; an empty field is
// an error.
func ParseHex(s string) (uint64, error) {
	digits := s
	if len(digits) > 2 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		digits = digits[2:]
	}
	if digits == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	v, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	return v, nil
}
