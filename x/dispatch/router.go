package dispatch

import (
	"github.com/compose-network/spi-annotator/x/codec"
)

// OperationFunc handles one decoded request and returns its response.
type OperationFunc func(req codec.Request) (codec.Response, error)

type route struct {
	operation string
	fn        OperationFunc
}

// router maps request kinds to handler operations. It is built once in New
// and only read afterwards, from the loop goroutine.
type router struct {
	routes map[codec.Kind]route
}

func newRouter() *router {
	return &router{routes: make(map[codec.Kind]route)}
}

// register binds a request kind to a named operation
func (r *router) register(kind codec.Kind, operation string, fn OperationFunc) {
	r.routes[kind] = route{operation: operation, fn: fn}
}

// lookup returns the operation for a request kind
func (r *router) lookup(kind codec.Kind) (route, bool) {
	rt, ok := r.routes[kind]
	return rt, ok
}

// operations returns the registered operation names by kind, for logging
func (r *router) operations() map[string]string {
	out := make(map[string]string, len(r.routes))
	for k, rt := range r.routes {
		out[k.String()] = rt.operation
	}
	return out
}
