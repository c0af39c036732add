package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpctrl "github.com/agrilens/agrilens/pkg/controller/http"
	"github.com/agrilens/agrilens/pkg/service/worker"
	"github.com/agrilens/agrilens/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var shutdownTimeout time.Duration
	var refreshTargets []string
	var refreshInterval time.Duration
	var p pipeline

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("AGRILENS_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "shutdown-timeout",
			Usage:       "Grace period for in-flight requests on shutdown",
			Value:       10 * time.Second,
			Sources:     cli.EnvVars("AGRILENS_SHUTDOWN_TIMEOUT"),
			Destination: &shutdownTimeout,
		},
		&cli.StringSliceFlag{
			Name:        "refresh-target",
			Usage:       "crop:location kept warm in the research cache (repeatable)",
			Sources:     cli.EnvVars("AGRILENS_REFRESH_TARGETS"),
			Destination: &refreshTargets,
		},
		&cli.DurationFlag{
			Name:        "refresh-interval",
			Usage:       "Interval between research refresh passes",
			Value:       6 * time.Hour,
			Sources:     cli.EnvVars("AGRILENS_REFRESH_INTERVAL"),
			Destination: &refreshInterval,
		},
	}
	flags = append(flags, p.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, cleanup, err := p.build(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if len(refreshTargets) > 0 {
				targets := make([]worker.Target, 0, len(refreshTargets))
				for _, s := range refreshTargets {
					target, err := worker.ParseTarget(s)
					if err != nil {
						return err
					}
					targets = append(targets, target)
				}

				refresh := func(ctx context.Context, crop, location string) error {
					_, err := uc.Research.Research(ctx, crop, location)
					return err
				}
				refreshWorker := worker.NewResearchRefreshWorker(refresh, targets, refreshInterval)
				if err := refreshWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start research refresh worker")
				}
				defer refreshWorker.Stop()
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)
			case <-ctx.Done():
				logging.Default().Info("Context canceled, shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logging.Default().Info("Server shutdown completed")
			return nil
		},
	}
}
