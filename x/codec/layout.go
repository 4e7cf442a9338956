package codec

const (
	FieldSeparator = "\t"
	LineSeparator  = "\n"

	DefaultMaxLineSize = 64 * 1024
)

// Layout describes one protocol variant: which optional fields a line carries
// and how replies are framed.
type Layout struct {
	Name string `yaml:"name"`

	// PacketID adds the packet id column after the tag. The column may be empty.
	PacketID bool `yaml:"packet_id"`
	// FrameFields adds frame type and flags after the sample bounds.
	FrameFields bool `yaml:"frame_fields"`
	// Features enables the feature tag.
	Features bool `yaml:"features"`
	// MultiLine frames bubble and tabular results as newline-terminated blocks
	// instead of a single line.
	MultiLine bool `yaml:"multi_line"`
	// LowerMarkerChannel writes marker channel names in lower case.
	LowerMarkerChannel bool `yaml:"lower_marker_channel"`
	// Raw leaves fields undecoded for raw handlers.
	Raw bool `yaml:"raw"`
}

var (
	// Scriptable is the fixed-capability variant without packet ids or frame
	// type fields. Replies are single lines.
	Scriptable = Layout{
		Name: "scriptable",
	}

	// Typed carries frame type and flags and negotiates features, without
	// packet ids. Bubble and tabular replies are single lines; markers keep
	// the newline-terminated block.
	Typed = Layout{
		Name:               "typed",
		FrameFields:        true,
		Features:           true,
		LowerMarkerChannel: true,
	}

	// Enrichable is the fully negotiated variant.
	Enrichable = Layout{
		Name:               "enrichable",
		PacketID:           true,
		FrameFields:        true,
		Features:           true,
		MultiLine:          true,
		LowerMarkerChannel: true,
	}

	// RawLines hands each recognized line, feature probes included, to a raw
	// handler unparsed.
	RawLines = Layout{
		Name:               "raw",
		Features:           true,
		MultiLine:          true,
		LowerMarkerChannel: true,
		Raw:                true,
	}
)

// BuiltinLayouts lists the predefined layouts.
func BuiltinLayouts() []Layout {
	return []Layout{Enrichable, Typed, Scriptable, RawLines}
}

// Recognizes reports whether the layout accepts the request kind.
func (l Layout) Recognizes(k Kind) bool {
	switch k {
	case KindBubble, KindMarker, KindTabular:
		return true
	case KindFeature:
		return l.Features
	default:
		return false
	}
}

// envelopeFields is the number of columns taken by optional envelope parts.
func (l Layout) envelopeFields() int {
	n := 0
	if l.PacketID {
		n++
	}
	if l.FrameFields {
		n += 2
	}
	return n
}

// FieldCount returns the number of fields after the tag for a request kind.
func (l Layout) FieldCount(k Kind) int {
	switch k {
	case KindBubble, KindTabular:
		return 5 + l.envelopeFields()
	case KindMarker:
		return 6 + l.envelopeFields()
	case KindFeature:
		return 1
	default:
		return 0
	}
}

// Single wraps one string for this layout's framing.
func (l Layout) Single(s string) Response {
	if s == "" {
		return NoResult()
	}
	if l.MultiLine {
		return Lines(s)
	}
	return Text(s)
}

// Candidates wraps bubble candidates. Single-line layouts keep only the first.
func (l Layout) Candidates(texts []string) Response {
	if len(texts) == 0 {
		return NoResult()
	}
	if l.MultiLine {
		return Lines(texts...)
	}
	return Text(texts[0])
}

// Markers renders markers as reply lines.
func (l Layout) Markers(markers []Marker) Response {
	if len(markers) == 0 {
		return NoResult()
	}
	lines := make([]string, 0, len(markers))
	for _, m := range markers {
		lines = append(lines, m.Format(l.LowerMarkerChannel))
	}
	return Lines(lines...)
}
