package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Default(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	def := r.Default()
	assert.Equal(t, "enrichable", def.Name)
	assert.True(t, def.PacketID)
	assert.True(t, def.Features)
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(Layout{Name: "custom", FrameFields: true})

	got, ok := r.Get("custom")
	require.True(t, ok)
	assert.True(t, got.FrameFields)
	assert.False(t, got.PacketID)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_Names(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	assert.Equal(t, []string{"enrichable", "raw", "scriptable", "typed"}, r.Names())
}
