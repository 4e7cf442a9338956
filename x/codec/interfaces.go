package codec

// Codec translates between wire lines and typed requests and responses.
type Codec interface {
	// Tag classifies a line without decoding it.
	Tag(line string) Kind
	Decode(line string) (Request, error)
	Encode(resp Response) string
	Layout() Layout
	MaxLineSize() int
}

// Registry manages the protocol layouts selectable at startup
type Registry interface {
	Register(layout Layout)
	Get(name string) (Layout, bool)
	Names() []string
	Default() Layout
}
