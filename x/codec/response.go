package codec

import "strings"

type responseKind int

const (
	responseNone responseKind = iota
	responseText
	responseLines
)

// Response is the result of one request: nothing, a single string, or a
// sequence of lines.
type Response struct {
	kind  responseKind
	text  string
	lines []string
}

// NoResult is the empty response.
func NoResult() Response { return Response{} }

// Text is a single-string response, encoded verbatim.
func Text(s string) Response {
	return Response{kind: responseText, text: s}
}

// Lines is a multi-line response. Each element becomes one line and the block
// is terminated by a newline.
func Lines(lines ...string) Response {
	return Response{kind: responseLines, lines: lines}
}

// IsEmpty reports whether the response encodes to the empty string.
func (r Response) IsEmpty() bool {
	switch r.kind {
	case responseText:
		return r.text == ""
	case responseLines:
		return len(r.lines) == 0
	default:
		return true
	}
}

// Values returns the response content as a slice.
func (r Response) Values() []string {
	switch r.kind {
	case responseText:
		if r.text == "" {
			return nil
		}
		return []string{r.text}
	case responseLines:
		return r.lines
	default:
		return nil
	}
}

// Encode serializes the response body. The frame terminator is added by the
// writer, not here.
func (r Response) Encode() string {
	if r.IsEmpty() {
		return ""
	}
	if r.kind == responseText {
		return r.text
	}
	return strings.Join(r.lines, LineSeparator) + LineSeparator
}

func (r Response) String() string { return r.Encode() }
