package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/compose-network/spi-annotator/annotator-app/config"
	"github.com/compose-network/spi-annotator/log"
	"github.com/compose-network/spi-annotator/x/analyzer/catalog"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "spi-annotator",
		Short: "SPI protocol analyzer backend",
		Long: "Answers annotation requests from a logic-analyzer host.\n\n" +
			"Requests arrive on standard input, one per line, and each recognized\n" +
			"request gets exactly one reply on standard output. Logs go to standard\n" +
			"error or to the configured log file.",
		SilenceUsage: true,
		RunE:         runApp,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run:   runVersion,
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE:  runConfig,
	}

	analyzersCmd = &cobra.Command{
		Use:   "analyzers",
		Short: "List the built-in analyzers",
		Run:   runAnalyzers,
	}
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func execute() error {
	initCommands()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func initCommands() {
	rootCmd.AddCommand(versionCmd, configCmd, analyzersCmd)

	rootCmd.SetGlobalNormalizationFunc(normalizeFlag)

	flags := rootCmd.PersistentFlags()

	flags.StringVar(&cfgFile, "config", "", "config file path (YAML)")
	flags.String("log-level", "", "log level (CRITICAL, ERROR, WARNING, INFO, DEBUG)")
	flags.Bool("log-pretty", false, "enable pretty logging")
	flags.String("log-file", "", "write logs to this file instead of standard error")
	flags.String("transcript", "", "record every request and reply to this file")

	flags.String("analyzer", "", "built-in analyzer name")
	flags.String("label", "", "bubble label for the startstop analyzer")
	flags.String("layout", "", "protocol layout (scriptable, typed, enrichable, raw)")
	flags.String("capability-policy", "", "capability policy (declarative, reflective)")
	flags.Int("max-line-size", 0, "maximum accepted request line length")

	flags.Bool("metrics", false, "serve /metrics and /healthz")
	flags.String("metrics-addr", "", "metrics server listen address")
}

// normalizeFlag accepts --loglevel as an alias of --log-level.
func normalizeFlag(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "loglevel" {
		name = "log-level"
	}
	return pflag.NormalizedName(name)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	applyFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func runApp(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var logOut io.Writer = os.Stderr
	if cfg.Log.File != "" {
		f, err := log.OpenFile(cfg.Log.File)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	log := log.NewWithOutput(logOut, cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Str("go_version", runtime.Version()).
		Msg("Build information")

	log.Info().
		Str("config_file", cfgFile).
		Str("analyzer", cfg.Analyzer.Name).
		Str("layout", cfg.Protocol.Layout).
		Str("capability_policy", cfg.Protocol.CapabilityPolicy).
		Bool("metrics_enabled", cfg.Metrics.Enabled).
		Str("log_level", cfg.Log.Level).
		Msg("Configuration loaded")

	application, err := NewApp(cfg, log.Logger)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return application.Run(cmd.Context(), os.Stdin, os.Stdout)
}

func runVersion(cmd *cobra.Command, _ []string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "SPI Annotator\n")
	fmt.Fprintf(out, "Version:    %s\n", Version)
	fmt.Fprintf(out, "Build Time: %s\n", BuildTime)
	fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
	fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
	fmt.Fprintf(out, "OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

func runAnalyzers(cmd *cobra.Command, _ []string) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLAYOUT\tPOLICY\tDESCRIPTION")
	for _, e := range catalog.Entries() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Name, e.Layout.Name, e.Policy, e.Description)
	}
	_ = tw.Flush()
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if changed("log-pretty") {
		cfg.Log.Pretty, _ = flags.GetBool("log-pretty")
	}
	if changed("log-file") {
		cfg.Log.File, _ = flags.GetString("log-file")
	}
	if changed("transcript") {
		cfg.Log.Transcript, _ = flags.GetString("transcript")
	}

	if changed("analyzer") {
		cfg.Analyzer.Name, _ = flags.GetString("analyzer")
	}
	if changed("label") {
		cfg.Analyzer.Label, _ = flags.GetString("label")
	}
	if changed("layout") {
		cfg.Protocol.Layout, _ = flags.GetString("layout")
		cfg.Protocol.Layout = strings.ToLower(cfg.Protocol.Layout)
	}
	if changed("capability-policy") {
		cfg.Protocol.CapabilityPolicy, _ = flags.GetString("capability-policy")
	}
	if changed("max-line-size") {
		cfg.Protocol.MaxLineSize, _ = flags.GetInt("max-line-size")
	}

	if changed("metrics") {
		cfg.Metrics.Enabled, _ = flags.GetBool("metrics")
	}
	if changed("metrics-addr") {
		cfg.API.ListenAddr, _ = flags.GetString("metrics-addr")
	}
}
