// Package catalog names the analyzers built into the binary and the layout
// and capability policy each one is written for.
package catalog

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/compose-network/spi-annotator/x/analyzer"
	"github.com/compose-network/spi-annotator/x/analyzer/sc16is7xx"
	"github.com/compose-network/spi-annotator/x/analyzer/startstop"
	"github.com/compose-network/spi-annotator/x/capability"
	"github.com/compose-network/spi-annotator/x/codec"
)

const NoopName = "noop"

// Options are passed to analyzer constructors.
type Options struct {
	Log   zerolog.Logger
	Label string
}

// Entry describes one built-in analyzer.
type Entry struct {
	Name        string
	Description string
	Layout      codec.Layout
	Policy      capability.Policy
	New         func(Options) analyzer.Handler
}

var entries = map[string]Entry{
	NoopName: {
		Name:        NoopName,
		Description: "answers every request with no result",
		Layout:      codec.Enrichable,
		Policy:      capability.PolicyDeclarative,
		New:         func(Options) analyzer.Handler { return analyzer.NewBase(NoopName) },
	},
	sc16is7xx.Name: {
		Name:        sc16is7xx.Name,
		Description: "SC16IS7xx UART bridge registers, command byte found by frame type",
		Layout:      codec.Enrichable,
		Policy:      capability.PolicyReflective,
		New:         func(o Options) analyzer.Handler { return sc16is7xx.New(o.Log) },
	},
	sc16is7xx.PhaseName: {
		Name:        sc16is7xx.PhaseName,
		Description: "SC16IS7xx UART bridge registers, command byte found by alternating phases",
		Layout:      codec.Typed,
		Policy:      capability.PolicyDeclarative,
		New:         func(o Options) analyzer.Handler { return sc16is7xx.NewPhaseTracker(o.Log) },
	},
	startstop.Name: {
		Name:        startstop.Name,
		Description: "raw lines, Start/Stop markers from the MISO value",
		Layout:      codec.RawLines,
		Policy:      capability.PolicyDeclarative,
		New:         func(o Options) analyzer.Handler { return startstop.New(o.Label) },
	},
}

// Lookup returns the entry for an analyzer name.
func Lookup(name string) (Entry, error) {
	e, ok := entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("unknown analyzer %q (available: %v)", name, Names())
	}
	return e, nil
}

// Names returns the analyzer names in sorted order.
func Names() []string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns all entries sorted by name.
func Entries() []Entry {
	out := make([]Entry, 0, len(entries))
	for _, name := range Names() {
		out = append(out, entries[name])
	}
	return out
}
