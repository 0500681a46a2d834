package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/xraph/vidqueue"
	"github.com/xraph/vidqueue/engine"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	envFiles   []string
	verbose    bool
	jsonLogs   bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "vidqueue",
		Short: "Queue and dispatch media-processing jobs",
		Long: `vidqueue accepts fetch requests and media webhooks over HTTP, queues
them, and drains the queue in batches against the media API. Every job
is either acknowledged or retried after a fixed delay.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringSliceVar(&g.envFiles, "env-file", nil, "dotenv files to load (default .env)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&g.jsonLogs, "json", false, "log as JSON")

	root.AddCommand(
		serveCmd(g),
		drainCmd(g),
		enqueueCmd(g),
		dlqCmd(g),
	)
	return root
}

func (g *globals) logger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if g.verbose {
		opts.Level = slog.LevelDebug
	}
	if g.jsonLogs {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func (g *globals) config() (vidqueue.Config, error) {
	cfg, err := vidqueue.LoadConfig(g.configPath, g.envFiles...)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// build loads the configuration and wires an engine from it.
func (g *globals) build() (*engine.Engine, *slog.Logger, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, nil, err
	}
	logger := g.logger()
	slog.SetDefault(logger)

	eng, err := engine.Build(cfg, engine.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("build engine: %w", err)
	}
	return eng, logger, nil
}
