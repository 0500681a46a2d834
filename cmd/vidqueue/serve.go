package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func serveCmd(g *globals) *cobra.Command {
	var (
		addr         string
		noConsumer   bool
		shutdownWait time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the inbound HTTP API and run the consumer loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, logger, err := g.build()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = eng.Config().HTTP.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !noConsumer {
				if err := eng.Start(ctx); err != nil {
					return err
				}
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           eng.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			serveErr := make(chan error, 1)
			go func() {
				logger.Info("http listening", slog.String("addr", addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
			case err := <-serveErr:
				if err != nil {
					logger.Error("http server failed", slog.String("error", err.Error()))
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
			defer cancel()

			httpErr := srv.Shutdown(shutdownCtx)
			return errors.Join(httpErr, eng.Stop(shutdownCtx))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noConsumer, "no-consumer", false, "serve HTTP only")
	cmd.Flags().DurationVar(&shutdownWait, "shutdown-timeout", 30*time.Second, "time allowed for graceful shutdown")
	return cmd
}
