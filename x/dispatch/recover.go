package dispatch

import (
	"runtime/debug"
	"time"

	"github.com/compose-network/spi-annotator/x/codec"
)

// guard runs a handler operation inside the failure boundary. Errors and
// panics are logged with the operation name and the request, counted, and
// turned into an empty response. Nothing escapes to the loop.
func (d *Dispatcher) guard(rt route, req codec.Request) (resp codec.Response) {
	start := time.Now()

	defer func() {
		d.metrics.observe(rt.operation, time.Since(start))
		if rec := recover(); rec != nil {
			d.log.Error().
				Str("operation", rt.operation).
				Interface("panic", rec).
				Interface("request", req).
				Bytes("stack", debug.Stack()).
				Msg("handler_panic")
			d.metrics.recordFault(rt.operation, causePanic)
			resp = codec.NoResult()
		}
	}()

	out, err := rt.fn(req)
	if err != nil {
		d.log.Error().
			Err(err).
			Str("operation", rt.operation).
			Interface("request", req).
			Msg("handler_failed")
		d.metrics.recordFault(rt.operation, causeError)
		return codec.NoResult()
	}
	return out
}
