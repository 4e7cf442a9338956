package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compose-network/spi-annotator/annotator-app/config"
	"github.com/compose-network/spi-annotator/x/capability"
	"github.com/compose-network/spi-annotator/x/codec"
)

func runSession(t *testing.T, cfg *config.Config, input string) string {
	t.Helper()

	app, err := NewApp(cfg, zerolog.New(io.Discard))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, app.Run(context.Background(), strings.NewReader(input), &out))
	return out.String()
}

func TestApp_UsesAnalyzerLayout(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Analyzer.Name = "sc16is7xx"

	app, err := NewApp(cfg, zerolog.New(io.Discard))
	require.NoError(t, err)
	assert.Equal(t, codec.Enrichable, app.layout)
	assert.Equal(t, capability.PolicyReflective, app.policy)

	out := runSession(t, cfg, "feature\tmarker\nfeature\tbubble\nbubble\t\t0\t0\t10\t0\t0\tMOSI\ta\n")
	assert.Equal(t, "no\nyes\nWrite IER of channel B\nW IER [B]\nW 0x1 B\n0xa\n\n", out)
}

func TestApp_ConfigOverridesLayout(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Protocol.Layout = "scriptable"
	cfg.Protocol.CapabilityPolicy = "reflective"

	app, err := NewApp(cfg, zerolog.New(io.Discard))
	require.NoError(t, err)
	assert.Equal(t, codec.Scriptable, app.layout)
	assert.Equal(t, capability.PolicyReflective, app.policy)
}

func TestApp_RawAnalyzerWithTranscript(t *testing.T) {
	t.Parallel()

	transcript := filepath.Join(t.TempDir(), "transcript.log")
	cfg := config.Default()
	cfg.Analyzer.Name = "startstop"
	cfg.Analyzer.Label = "hello"
	cfg.Log.Transcript = transcript

	out := runSession(t, cfg, "bubble\t0\t0\t10\tMOSI\t1\nmarker\t0\t1\t0\t10\t0\tff\n")
	assert.Equal(t, "hello\n0\tmiso\tStop\n\n", out)

	data, err := os.ReadFile(transcript)
	require.NoError(t, err)
	assert.Contains(t, string(data), ">> bubble\t0\t0\t10\tMOSI\t1")
	assert.Contains(t, string(data), "<< hello")
}

func TestApp_MetricsServerWired(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Metrics.Enabled = true
	cfg.API.ListenAddr = "127.0.0.1:0"

	app, err := NewApp(cfg, zerolog.New(io.Discard))
	require.NoError(t, err)
	require.NotNil(t, app.apiServer)
	require.NotNil(t, app.registry)

	families, err := app.registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "annotator_session_start_time_seconds")

	var out bytes.Buffer
	require.NoError(t, app.Run(context.Background(), strings.NewReader("feature\ttabular\n"), &out))
	assert.Equal(t, "yes\n", out.String())
}

func TestApp_UnknownAnalyzer(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Analyzer.Name = "missing"
	_, err := NewApp(cfg, zerolog.New(io.Discard))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown analyzer")
}

func TestApplyFlags_OnlyChanged(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.SetGlobalNormalizationFunc(normalizeFlag)
	flags := cmd.Flags()
	flags.String("log-level", "", "")
	flags.String("analyzer", "", "")
	flags.String("layout", "", "")
	flags.Bool("metrics", false, "")
	require.NoError(t, flags.Parse([]string{"--loglevel", "DEBUG", "--layout", "Typed"}))

	cfg := config.Default()
	cfg.Analyzer.Name = "sc16is7xx"
	applyFlags(cmd, cfg)

	assert.Equal(t, "DEBUG", cfg.Log.Level)
	assert.Equal(t, "typed", cfg.Protocol.Layout)
	assert.Equal(t, "sc16is7xx", cfg.Analyzer.Name)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestAnalyzersCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{Use: "analyzers"}
	cmd.SetOut(&out)
	runAnalyzers(cmd, nil)

	assert.Contains(t, out.String(), "NAME")
	assert.Contains(t, out.String(), "sc16is7xx-phase")
	assert.Contains(t, out.String(), "startstop")
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestApp_ReportsStats(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Log.StatsInterval = 10 * time.Millisecond

	var logs lockedBuffer
	app, err := NewApp(cfg, zerolog.New(&logs))
	require.NoError(t, err)
	require.NotNil(t, app.reporter)

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	var out bytes.Buffer
	go func() { done <- app.Run(context.Background(), pr, &out) }()

	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "Session stats")
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, pw.Close())
	require.NoError(t, <-done)
}
