// marionette drives the display, keyboard, and mouse of a running container
// for agent computer use.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/haasonsaas/marionette/internal/config"
	"github.com/haasonsaas/marionette/internal/observability"
)

const version = "0.3.0"

type app struct {
	cfg     *config.Config
	logger  *observability.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer

	shutdownTracer func(context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var verbose bool

	a := &app{}

	root := &cobra.Command{
		Use:           "marionette",
		Short:         "Computer-use automation for containerized displays",
		Long:          "marionette executes computer-use actions (mouse, keyboard, screenshot) inside a running container and rescales coordinates between the container display and agent coordinate space.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if verbose {
				cfg.Logging.Level = "debug"
			}
			a.cfg = cfg
			a.logger = observability.NewLogger(observability.LogConfig{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			})

			if cfg.Observability.Metrics.Enabled {
				a.metrics = observability.NewMetrics(prometheus.DefaultRegisterer)
				go serveMetrics(cmd.Context(), a.logger, cfg.Observability.Metrics.Listen)
			}
			if cfg.Observability.Tracing.Enabled {
				a.tracer, a.shutdownTracer = observability.NewTracer(observability.TraceConfig{
					ServiceName:    cfg.Observability.Tracing.ServiceName,
					ServiceVersion: version,
					Endpoint:       cfg.Observability.Tracing.Endpoint,
					SamplingRate:   cfg.Observability.Tracing.SamplingRate,
					EnableInsecure: cfg.Observability.Tracing.Insecure,
				})
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.shutdownTracer != nil {
				return a.shutdownTracer(cmd.Context())
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "Path to config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(buildActCmd(a))
	root.AddCommand(buildScreenInfoCmd(a))
	root.AddCommand(buildScreenshotCmd(a))
	root.AddCommand(buildToolDefCmd(a))

	return root
}

func defaultConfigPath() string {
	if path := os.Getenv("MARIONETTE_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "marionette.yaml"
	}
	return home + "/.config/marionette/config.yaml"
}

func serveMetrics(ctx context.Context, logger *observability.Logger, listen string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: listen, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Warn(ctx, "metrics server stopped", "error", err)
	}
}
