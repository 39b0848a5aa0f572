package cli

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pvaler/subsh/internal/config"
	"github.com/pvaler/subsh/internal/logging"
	"github.com/pvaler/subsh/internal/metrics"
	"github.com/pvaler/subsh/internal/proc"
)

func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *appContext) {
	ctx := &appContext{}

	root := &cobra.Command{
		Use:   "subsh",
		Short: "Subprocess pipeline engine",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.initialize(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&ctx.configFile, "config", "c", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "", "Log level (overrides configuration)")
	root.PersistentFlags().StringVar(&ctx.logFormat, "log-format", "", "Log format: console or json (overrides configuration)")
	root.PersistentFlags().StringVar(&ctx.metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address")

	root.AddCommand(newRunCmd(ctx))
	root.AddCommand(newAliasesCmd(ctx))
	root.AddCommand(newConfigCmd(ctx))

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, ctx
}

// Execute runs the CLI entrypoint. A pipeline that finished with a non-zero
// status becomes the process exit code, following shell conventions for
// signal deaths.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		var exitErr *proc.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitCode(exitErr.ReturnCode))
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// exitCode maps an engine return code to a process exit status: signal
// deaths become 128+signal.
func exitCode(rc int) int {
	if rc < 0 {
		return 128 - rc
	}
	return rc
}

// appContext carries flag values and the state PersistentPreRunE resolves
// from them: the loaded configuration, the logger, and the metrics server
// if one was requested.
type appContext struct {
	configFile  string
	logLevel    string
	logFormat   string
	metricsAddr string

	doc *config.Document
	log zerolog.Logger
}

func (c *appContext) initialize(cmd *cobra.Command) error {
	doc := config.Default()
	if c.configFile != "" {
		loaded, err := config.Load(c.configFile)
		if err != nil {
			return err
		}
		doc = loaded
	}
	c.doc = doc

	level := doc.Logging.Level
	if c.logLevel != "" {
		level = c.logLevel
	}
	format := doc.Logging.Format
	if c.logFormat != "" {
		format = c.logFormat
	}
	log, err := logging.New(cmd.ErrOrStderr(), level, format)
	if err != nil {
		return err
	}
	c.log = log

	if c.metricsAddr != "" {
		if err := c.serveMetrics(); err != nil {
			return err
		}
	}
	return nil
}

// serveMetrics exposes the metrics registry over HTTP for the lifetime of
// the process. Scrapes of a short-lived invocation are best-effort.
func (c *appContext) serveMetrics() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              c.metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.log.Error().Err(err).Str("addr", c.metricsAddr).Msg("metrics server failed")
		}
	}()
	c.log.Debug().Str("addr", c.metricsAddr).Msg("metrics server listening")
	return nil
}

// runner builds the execution engine from the resolved configuration.
func (c *appContext) runner(opts ...proc.Option) (*proc.Runner, error) {
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	policy, err := c.doc.Settings.Policy(interactive)
	if err != nil {
		return nil, err
	}
	base := []proc.Option{
		proc.WithAliases(c.doc.Registry()),
		proc.WithLogger(c.log),
	}
	return proc.NewRunner(policy, append(base, opts...)...), nil
}
