package interval

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunner_Validates(t *testing.T) {
	t.Parallel()

	_, err := NewRunner(Config{Interval: time.Second})
	require.ErrorIs(t, err, ErrNoHandler)

	_, err = NewRunner(Config{Handler: func(context.Context, Tick) error { return nil }})
	require.ErrorIs(t, err, ErrInvalidInterval)
}

func TestRunner_EmitsSequentialTicks(t *testing.T) {
	t.Parallel()

	ticks := make(chan Tick, 10)
	r, err := NewRunner(Config{
		Handler: func(_ context.Context, tk Tick) error {
			ticks <- tk
			return nil
		},
		Interval: 10 * time.Millisecond,
		Logger:   zerolog.New(io.Discard),
	})
	require.NoError(t, err)

	r.Start(context.Background())
	defer r.Stop()

	var last uint64
	for i := 0; i < 3; i++ {
		select {
		case tk := <-ticks:
			assert.Greater(t, tk.Seq, last)
			assert.Equal(t, 10*time.Millisecond, tk.Interval)
			last = tk.Seq
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for tick %d", i)
		}
	}
}

func TestRunner_CoalescesMissedTicks(t *testing.T) {
	t.Parallel()

	origin := time.Unix(1000, 0)
	var (
		mu      sync.Mutex
		current = origin
	)
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	setNow := func(t time.Time) {
		mu.Lock()
		current = t
		mu.Unlock()
	}

	ticks := make(chan Tick, 10)
	r, err := NewRunner(Config{
		Handler: func(_ context.Context, tk Tick) error {
			ticks <- tk
			return nil
		},
		Interval: time.Minute,
		Origin:   origin,
		Now:      now,
		Logger:   zerolog.New(io.Discard),
	})
	require.NoError(t, err)

	// jump past several ticks before the first timer fires
	setNow(origin.Add(5*time.Minute + time.Second))
	r.Start(context.Background())
	defer r.Stop()

	select {
	case tk := <-ticks:
		assert.Equal(t, uint64(5), tk.Seq)
		assert.Equal(t, origin.Add(5*time.Minute), tk.At)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for coalesced tick")
	}
}

func TestRunner_StopsOnHandlerError(t *testing.T) {
	t.Parallel()

	var calls int
	var mu sync.Mutex
	r, err := NewRunner(Config{
		Handler: func(context.Context, Tick) error {
			mu.Lock()
			calls++
			mu.Unlock()
			return errors.New("done")
		},
		Interval: 5 * time.Millisecond,
		Logger:   zerolog.New(io.Discard),
	})
	require.NoError(t, err)

	r.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	r.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestRunner_TickForTime(t *testing.T) {
	t.Parallel()

	origin := time.Unix(0, 0)
	r, err := NewRunner(Config{
		Handler:  func(context.Context, Tick) error { return nil },
		Interval: 10 * time.Second,
		Origin:   origin,
	})
	require.NoError(t, err)

	seq, at := r.TickForTime(origin.Add(35 * time.Second))
	assert.Equal(t, uint64(3), seq)
	assert.Equal(t, origin.Add(30*time.Second), at)

	seq, at = r.TickForTime(origin.Add(-time.Second))
	assert.Equal(t, uint64(0), seq)
	assert.Equal(t, origin, at)
}

func TestRunner_StopIdempotent(t *testing.T) {
	t.Parallel()

	r, err := NewRunner(Config{
		Handler:  func(context.Context, Tick) error { return nil },
		Interval: time.Hour,
	})
	require.NoError(t, err)

	r.Stop()
	r.Start(context.Background())
	r.Start(context.Background())
	r.Stop()
	r.Stop()
}
