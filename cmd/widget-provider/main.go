// Package main implements the reference Kite provider binary. It serves a
// single "widget" resource type backed by a local SQLite database and is
// normally launched by the Kite engine, which supplies the plugin
// handshake environment.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kitehq/kite-plugin-go/pkg/provider"
	"github.com/kitehq/kite-plugin-go/pkg/serve"
	"github.com/kitehq/kite-plugin-go/pkg/telemetry"
	"github.com/kitehq/kite-plugin-go/pkg/widget"
)

const (
	providerName    = "widget"
	providerVersion = "1.0.0"
)

// config is the optional YAML configuration file of the binary. Everything
// has a working default; the engine-facing behavior is driven entirely by
// the plugin environment, not by this file.
type config struct {
	// StorePath is where the widget database lives.
	StorePath string `yaml:"store_path"`

	Logging telemetry.LoggingConfig `yaml:"logging"`
	Metrics telemetry.MetricsConfig `yaml:"metrics"`
	Tracing telemetry.TracingConfig `yaml:"tracing"`
}

func defaultConfig() config {
	return config{
		StorePath: "widgets.db",
		Logging:   telemetry.DefaultLoggingConfig(),
		Metrics:   telemetry.DefaultMetricsConfig(),
		Tracing:   telemetry.DefaultTracingConfig(),
	}
}

// loadConfig reads the YAML config file when one is given.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		var herr *serve.HandshakeError
		if errors.As(err, &herr) {
			fmt.Fprintln(os.Stderr, herr.Error())
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "widget-provider",
		Short: "Reference Kite provider serving the widget resource type",
		Long: `widget-provider is the reference provider plugin of the Kite provider SDK.
It manages "widget" resources in a local SQLite database and speaks the
Kite plugin protocol over gRPC. It is meant to be launched by the Kite
engine; run "widget-provider schema" to inspect its resource schema.`,
		Version:       providerVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")

	rootCmd.AddCommand(newServeCommand(&configPath))
	rootCmd.AddCommand(newSchemaCommand())
	return rootCmd
}

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the plugin protocol (normally invoked by the engine)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			log, err := telemetry.NewLogger(cfg.Logging)
			if err != nil {
				return err
			}
			metrics := telemetry.NewMetrics(cfg.Metrics)
			if srv := metrics.Serve(); srv != nil {
				defer srv.Close()
			}
			tracer, err := telemetry.NewTracer(cfg.Tracing, providerName, providerVersion)
			if err != nil {
				return err
			}
			defer func() {
				_ = tracer.Shutdown(context.Background())
			}()

			store, err := widget.OpenStore(cmd.Context(), cfg.StorePath)
			if err != nil {
				return err
			}
			defer store.Close()

			reg := provider.NewRegistry(providerName, providerVersion)
			if err := provider.Register(reg, widget.TypeName, widget.NewHandler(store)); err != nil {
				return err
			}

			return serve.Serve(cmd.Context(), reg, serve.Options{
				Logger:  log,
				Metrics: metrics,
				Tracer:  tracer,
			})
		},
	}
}

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the widget resource schema as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := provider.NewRegistry(providerName, providerVersion)
			if err := provider.Register(reg, widget.TypeName, widget.NewHandler(nil)); err != nil {
				return err
			}
			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(reg.Schemas())
		},
	}
}
