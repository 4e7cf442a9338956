// Package capability answers feature queries about which message types a
// handler supports.
//
// Two policies exist. Under the declarative policy a handler publishes flags
// and anything it does not mention is enabled. Under the reflective policy a
// handler lists the operations it actually implements and everything else is
// disabled. Both are computed once, when the registry is built. The result is
// advisory metadata for the host and never gates dispatch.
package capability

import (
	"fmt"
	"strings"

	"github.com/compose-network/spi-annotator/x/codec"
)

// Set is a bitset of message types.
type Set uint8

// Of builds a set from message types.
func Of(types ...codec.MessageType) Set {
	var s Set
	for _, t := range types {
		s = s.With(t)
	}
	return s
}

// All contains bubble, marker and tabular.
func All() Set {
	return Of(codec.MessageTypes()...)
}

func (s Set) With(t codec.MessageType) Set { return s | 1<<uint(t) }

func (s Set) Without(t codec.MessageType) Set { return s &^ (1 << uint(t)) }

func (s Set) Has(t codec.MessageType) bool { return s&(1<<uint(t)) != 0 }

// Types returns the members in wire order.
func (s Set) Types() []codec.MessageType {
	var out []codec.MessageType
	for _, t := range codec.MessageTypes() {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s Set) String() string {
	names := make([]string, 0, 3)
	for _, t := range s.Types() {
		names = append(names, t.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}

// Flags is the declarative form: explicit switches, all on by default.
type Flags struct {
	Bubble  bool `mapstructure:"bubble"  yaml:"bubble"`
	Marker  bool `mapstructure:"marker"  yaml:"marker"`
	Tabular bool `mapstructure:"tabular" yaml:"tabular"`
}

// DefaultFlags enables everything.
func DefaultFlags() Flags {
	return Flags{Bubble: true, Marker: true, Tabular: true}
}

// Set converts the flags to a set.
func (f Flags) Set() Set {
	var s Set
	if f.Bubble {
		s = s.With(codec.MessageBubble)
	}
	if f.Marker {
		s = s.With(codec.MessageMarker)
	}
	if f.Tabular {
		s = s.With(codec.MessageTabular)
	}
	return s
}

// Declarer is implemented by handlers that use the declarative policy.
type Declarer interface {
	CapabilityFlags() Flags
}

// Overrider is implemented by handlers that use the reflective policy. It
// returns the operations the handler provides its own implementation for.
type Overrider interface {
	OverriddenOperations() Set
}

// Policy selects how enabled message types are derived from a handler.
type Policy int

const (
	PolicyDeclarative Policy = iota
	PolicyReflective
)

func (p Policy) String() string {
	switch p {
	case PolicyDeclarative:
		return "declarative"
	case PolicyReflective:
		return "reflective"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses a policy name.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "declarative":
		return PolicyDeclarative, nil
	case "reflective":
		return PolicyReflective, nil
	default:
		return 0, fmt.Errorf("unknown capability policy %q", name)
	}
}

// Resolve computes the enabled message types of a handler under a policy.
func Resolve(handler any, policy Policy) Set {
	switch policy {
	case PolicyReflective:
		if o, ok := handler.(Overrider); ok {
			return o.OverriddenOperations()
		}
		return 0
	default:
		if d, ok := handler.(Declarer); ok {
			return d.CapabilityFlags().Set()
		}
		return All()
	}
}

// Registry holds the enabled set for the lifetime of a dispatch loop.
type Registry struct {
	policy  Policy
	enabled Set
}

// NewRegistry resolves the handler's capabilities once.
func NewRegistry(handler any, policy Policy) *Registry {
	return &Registry{policy: policy, enabled: Resolve(handler, policy)}
}

func (r *Registry) Policy() Policy { return r.policy }

// Enabled returns the enabled set.
func (r *Registry) Enabled() Set { return r.enabled }

// Supports reports whether a message type is enabled.
func (r *Registry) Supports(t codec.MessageType) bool { return r.enabled.Has(t) }

// Lookup answers a feature query by capability name. Unknown names are
// not supported.
func (r *Registry) Lookup(name string) bool {
	t, ok := codec.ParseMessageType(name)
	if !ok {
		return false
	}
	return r.enabled.Has(t)
}
