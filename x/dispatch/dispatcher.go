// Package dispatch runs the request/reply loop between the logic-analyzer
// host and an analyzer handler.
//
// The loop reads one line, decodes it, routes it to the matching handler
// operation, encodes the result and writes exactly one reply frame, then
// flushes. The host blocks on every reply before sending the next request,
// so the flush is part of the protocol. Lines with unrecognized tags get no
// reply at all. Malformed lines and handler failures are logged and answered
// with an empty reply so the stream never loses its request/reply pairing.
//
// The loop is single-threaded. Handler calls arrive in input order and are
// never buffered, reordered or batched, so handlers may keep state across
// calls without locking.
package dispatch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/compose-network/spi-annotator/x/analyzer"
	"github.com/compose-network/spi-annotator/x/capability"
	"github.com/compose-network/spi-annotator/x/codec"
)

const (
	writeBufferSize = 16384

	maxLoggedLine = 256

	featureYes = "yes"
	featureNo  = "no"
)

// Dispatcher connects a line codec, a capability registry and a handler.
type Dispatcher struct {
	cfg        Config
	log        zerolog.Logger
	handler    analyzer.Handler
	codec      codec.Codec
	caps       *capability.Registry
	router     *router
	metrics    *Metrics
	transcript *zerolog.Logger

	processed atomic.Uint64
	replies   atomic.Uint64
}

// New creates a dispatcher for the handler. Capabilities are resolved once,
// here, for the lifetime of the dispatcher.
func New(log zerolog.Logger, handler analyzer.Handler, opts ...Option) (*Dispatcher, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &Dispatcher{
		cfg:        cfg,
		log:        log.With().Str("component", "dispatch").Str("layout", cfg.Layout.Name).Logger(),
		handler:    handler,
		codec:      codec.NewLineCodec(cfg.Layout, cfg.MaxLineSize),
		caps:       capability.NewRegistry(handler, cfg.Policy),
		router:     newRouter(),
		metrics:    cfg.Metrics,
		transcript: cfg.Transcript,
	}

	if err := d.registerRoutes(); err != nil {
		return nil, err
	}

	d.log.Info().
		Str("analyzer", handler.Name()).
		Str("policy", cfg.Policy.String()).
		Str("capabilities", d.caps.Enabled().String()).
		Interface("operations", d.router.operations()).
		Msg("Dispatcher ready")

	return d, nil
}

func (d *Dispatcher) registerRoutes() error {
	layout := d.cfg.Layout

	if layout.Raw {
		raw, ok := d.handler.(analyzer.RawHandler)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotRawHandler, d.handler.Name())
		}
		op := func(req codec.Request) (codec.Response, error) {
			return raw.HandleRaw(req.(codec.RawRequest))
		}
		// raw handlers answer feature probes too; an empty reply reads as enabled
		for _, k := range []codec.Kind{codec.KindBubble, codec.KindMarker, codec.KindTabular, codec.KindFeature} {
			d.router.register(k, "handle_raw", op)
		}
		return nil
	}

	d.router.register(codec.KindBubble, "bubble_text", func(req codec.Request) (codec.Response, error) {
		texts, err := d.handler.BubbleText(req.(codec.BubbleRequest))
		if err != nil {
			return codec.NoResult(), err
		}
		return layout.Candidates(texts), nil
	})

	d.router.register(codec.KindMarker, "markers", func(req codec.Request) (codec.Response, error) {
		markers, err := d.handler.Markers(req.(codec.MarkerRequest))
		if err != nil {
			return codec.NoResult(), err
		}
		return layout.Markers(markers), nil
	})

	d.router.register(codec.KindTabular, "tabular", func(req codec.Request) (codec.Response, error) {
		text, err := analyzer.Tabular(d.handler, req.(codec.TabularRequest))
		if err != nil {
			return codec.NoResult(), err
		}
		return layout.Single(text), nil
	})

	return nil
}

// Layout returns the active protocol layout.
func (d *Dispatcher) Layout() codec.Layout { return d.cfg.Layout }

// Capabilities returns the resolved capability registry.
func (d *Dispatcher) Capabilities() *capability.Registry { return d.caps }

// Processed returns the number of lines read so far.
func (d *Dispatcher) Processed() uint64 { return d.processed.Load() }

// Replies returns the number of reply frames written so far.
func (d *Dispatcher) Replies() uint64 { return d.replies.Load() }

// Run consumes in line by line until end of input and writes replies to out.
// End of input returns nil. A failed read or write returns an error wrapping
// ErrTransport. The context is checked between lines only.
func (d *Dispatcher) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	if lc, ok := d.handler.(analyzer.Lifecycle); ok {
		if err := lc.OnStart(ctx); err != nil {
			return fmt.Errorf("failed to start analyzer %s: %w", d.handler.Name(), err)
		}
		defer func() {
			if err := lc.OnStop(context.WithoutCancel(ctx)); err != nil {
				d.log.Warn().Err(err).Msg("Analyzer stop hook failed")
			}
		}()
	}

	// room for the longest accepted line plus its CR LF terminator
	reader := bufio.NewReaderSize(in, d.codec.MaxLineSize()+2)
	writer := bufio.NewWriterSize(out, writeBufferSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, oversize, readErr := readLine(reader)
		if len(line) > 0 {
			var reply string
			var ok bool
			if oversize {
				reply, ok = d.HandleOversize(line)
			} else {
				reply, ok = d.Handle(line)
			}
			if ok {
				if err := d.write(writer, reply); err != nil {
					return err
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				d.log.Info().
					Uint64("lines", d.Processed()).
					Uint64("replies", d.Replies()).
					Msg("Input closed")
				return nil
			}
			return fmt.Errorf("%w: read request: %w", ErrTransport, readErr)
		}
	}
}

// readLine returns the next line. A line that does not fit the reader's
// buffer is discarded up to its newline: only the buffered head is returned,
// with oversize set, so memory stays bounded by the buffer size.
func readLine(r *bufio.Reader) (line string, oversize bool, err error) {
	frag, err := r.ReadSlice('\n')
	if !errors.Is(err, bufio.ErrBufferFull) {
		return string(frag), false, err
	}

	line = string(frag)
	for errors.Is(err, bufio.ErrBufferFull) {
		_, err = r.ReadSlice('\n')
	}
	return line, true, err
}

// write sends one reply frame and flushes it.
func (d *Dispatcher) write(w *bufio.Writer, reply string) error {
	if _, err := w.WriteString(reply); err != nil {
		return fmt.Errorf("%w: write reply: %w", ErrTransport, err)
	}
	if _, err := w.WriteString(codec.LineSeparator); err != nil {
		return fmt.Errorf("%w: write reply: %w", ErrTransport, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: flush reply: %w", ErrTransport, err)
	}

	d.replies.Add(1)
	d.metrics.recordReply()
	return nil
}

// Handle processes one line and returns the reply body without the frame
// terminator. ok is false when the line must not be answered.
func (d *Dispatcher) Handle(line string) (reply string, ok bool) {
	d.processed.Add(1)

	line = strings.TrimRightFunc(line, unicode.IsSpace)
	d.log.Debug().Str("line", line).Msg(">>")
	d.record(">> ", line)

	req, err := d.codec.Decode(line)
	switch {
	case errors.Is(err, codec.ErrUnknownTag):
		d.metrics.recordIgnored()
		return "", false
	case err != nil:
		return d.reject(d.codec.Tag(line), line, err), true
	}

	d.metrics.recordRequest(req.Kind().String())

	var resp codec.Response
	if f, isFeature := req.(codec.FeatureRequest); isFeature {
		resp = codec.Text(featureAnswer(d.caps.Lookup(f.Name)))
	} else if rt, found := d.router.lookup(req.Kind()); found {
		resp = d.guard(rt, req)
	}

	d.metrics.observeReply(req.Kind().String(), len(resp.Values()))

	reply = d.codec.Encode(resp)
	d.reply(reply)
	return reply, true
}

// HandleOversize answers a line that exceeded the maximum line size. Only
// the head of the line is available, which is enough to read its tag.
func (d *Dispatcher) HandleOversize(head string) (reply string, ok bool) {
	d.processed.Add(1)
	d.record(">> ", head+"...")

	kind := d.codec.Tag(head)
	if kind == codec.KindUnknown {
		d.metrics.recordIgnored()
		return "", false
	}
	return d.reject(kind, head, codec.ErrLineTooLong), true
}

// reject logs a malformed line of a recognized kind and returns its reply.
func (d *Dispatcher) reject(kind codec.Kind, line string, err error) string {
	d.metrics.recordDecodeError(kind.String())
	if len(line) > maxLoggedLine {
		line = line[:maxLoggedLine] + "..."
	}
	d.log.Warn().
		Err(err).
		Str("kind", kind.String()).
		Str("line", line).
		Msg("decode_failed")

	var reply string
	// the host treats any feature reply other than "no" as enabled
	if kind == codec.KindFeature {
		reply = featureNo
	}
	d.reply(reply)
	return reply
}

func (d *Dispatcher) reply(reply string) {
	d.log.Debug().Str("reply", reply).Msg("<<")
	d.record("<< ", reply)
}

func (d *Dispatcher) record(prefix, text string) {
	if d.transcript == nil {
		return
	}
	d.transcript.Log().Msg(prefix + text)
}

func featureAnswer(enabled bool) string {
	if enabled {
		return featureYes
	}
	return featureNo
}
