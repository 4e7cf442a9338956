package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/compose-network/spi-annotator/annotator-app/config"
	applog "github.com/compose-network/spi-annotator/log"
	"github.com/compose-network/spi-annotator/metrics"
	apisrv "github.com/compose-network/spi-annotator/server/api"
	apimw "github.com/compose-network/spi-annotator/server/api/middleware"
	"github.com/compose-network/spi-annotator/x/analyzer/catalog"
	"github.com/compose-network/spi-annotator/x/capability"
	"github.com/compose-network/spi-annotator/x/codec"
	"github.com/compose-network/spi-annotator/x/dispatch"
	"github.com/compose-network/spi-annotator/x/interval"
)

// App runs one analyzer session over a pair of streams.
type App struct {
	cfg       *config.Config
	log       zerolog.Logger
	sessionID string
	started   time.Time

	entry      catalog.Entry
	layout     codec.Layout
	policy     capability.Policy
	dispatcher *dispatch.Dispatcher

	registry  *prometheus.Registry
	apiServer *apisrv.Server
	reporter  *interval.Runner

	closers []io.Closer
}

// NewApp resolves the analyzer, layout and policy and builds the dispatcher.
func NewApp(cfg *config.Config, log zerolog.Logger) (*App, error) {
	sessionID := uuid.NewString()
	app := &App{
		cfg:       cfg,
		log:       log.With().Str("component", "app").Str("session_id", sessionID).Logger(),
		sessionID: sessionID,
		started:   time.Now(),
	}

	if err := app.initialize(log.With().Str("session_id", sessionID).Logger()); err != nil {
		app.close()
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}

	return app, nil
}

func (a *App) initialize(log zerolog.Logger) error {
	if err := a.resolveProtocol(); err != nil {
		return err
	}

	opts := []dispatch.Option{
		dispatch.WithLayout(a.layout),
		dispatch.WithPolicy(a.policy),
		dispatch.WithMaxLineSize(a.cfg.Protocol.MaxLineSize),
	}

	if a.cfg.Log.Transcript != "" {
		f, err := applog.OpenFile(a.cfg.Log.Transcript)
		if err != nil {
			return fmt.Errorf("failed to open transcript: %w", err)
		}
		a.closers = append(a.closers, f)
		opts = append(opts, dispatch.WithTranscript(applog.NewTranscript(f)))
	}

	if a.cfg.Metrics.Enabled {
		a.registry = metrics.NewRegistry()
		opts = append(opts, dispatch.WithMetrics(dispatch.NewMetrics(a.registry)))

		started := metrics.NewComponentRegistry(a.registry, "annotator", "session").NewGauge(prometheus.GaugeOpts{
			Name: "start_time_seconds",
			Help: "Unix time the analyzer session started",
		})
		started.Set(float64(a.started.Unix()))
	}

	handler := a.entry.New(catalog.Options{Log: log, Label: a.cfg.Analyzer.Label})
	d, err := dispatch.New(log, handler, opts...)
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	a.dispatcher = d

	if a.cfg.Metrics.Enabled {
		a.initializeAPIServer()
	}

	if a.cfg.Log.StatsInterval > 0 {
		r, err := interval.NewRunner(interval.Config{
			Handler:  a.reportStats,
			Interval: a.cfg.Log.StatsInterval,
			Origin:   a.started,
			Logger:   a.log,
		})
		if err != nil {
			return fmt.Errorf("failed to create stats reporter: %w", err)
		}
		a.reporter = r
	}

	return nil
}

func (a *App) reportStats(_ context.Context, tick interval.Tick) error {
	a.log.Info().
		Uint64("tick", tick.Seq).
		Uint64("lines", a.dispatcher.Processed()).
		Uint64("replies", a.dispatcher.Replies()).
		Dur("uptime", time.Since(a.started)).
		Msg("Session stats")
	return nil
}

// resolveProtocol picks the analyzer's preferred layout and policy unless
// the configuration names them.
func (a *App) resolveProtocol() error {
	entry, err := catalog.Lookup(a.cfg.Analyzer.Name)
	if err != nil {
		return err
	}
	a.entry = entry

	a.layout = entry.Layout
	if name := a.cfg.Protocol.Layout; name != "" {
		layout, ok := codec.NewRegistry().Get(name)
		if !ok {
			return fmt.Errorf("unknown layout %q", name)
		}
		a.layout = layout
	}

	a.policy = entry.Policy
	if name := a.cfg.Protocol.CapabilityPolicy; name != "" {
		policy, err := capability.ParsePolicy(name)
		if err != nil {
			return err
		}
		a.policy = policy
	}

	return nil
}

func (a *App) initializeAPIServer() {
	s := apisrv.NewServer(a.cfg.API, a.log)
	s.Use(apimw.Recover(a.log))
	s.Use(apimw.RequestID())
	s.Use(apimw.Logger(a.log))
	if a.cfg.Metrics.Compress {
		s.EnableCompression()
	}

	apisrv.RegisterMonitoring(s, apisrv.Identity{
		SessionID: a.sessionID,
		Analyzer:  a.entry.Name,
		Layout:    a.layout.Name,
		Started:   a.started,
	}, a.dispatcher, a.registry)

	a.apiServer = s
}

// Run serves requests from in until end of input, a transport failure or
// cancellation of ctx.
func (a *App) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	defer a.close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.apiServer != nil {
		go func() {
			if err := a.apiServer.Start(runCtx); err != nil {
				a.log.Error().Err(err).Msg("API server error")
			}
		}()
	}

	if a.reporter != nil {
		a.reporter.Start(runCtx)
		defer a.reporter.Stop()
	}

	a.log.Info().
		Str("analyzer", a.entry.Name).
		Str("layout", a.layout.Name).
		Str("policy", a.policy.String()).
		Msg("Analyzer session started")

	done := make(chan error, 1)
	go func() { done <- a.dispatcher.Run(runCtx, in, out) }()

	select {
	case err := <-done:
		if err != nil {
			a.log.Error().Err(err).Msg("Analyzer session failed")
			return err
		}
	case <-ctx.Done():
		// the loop may be parked in a read; it is abandoned with the process
		a.log.Info().Msg("Context canceled, stopping analyzer session")
	}

	a.log.Info().
		Uint64("lines", a.dispatcher.Processed()).
		Uint64("replies", a.dispatcher.Replies()).
		Dur("uptime", time.Since(a.started)).
		Msg("Analyzer session finished")
	return nil
}

func (a *App) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Close failed")
		}
	}
	a.closers = nil
}
