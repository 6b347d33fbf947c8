package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/tendril/internal/config"
	"github.com/aretw0/tendril/internal/dashboard"
	"github.com/aretw0/tendril/internal/logging"
	redisAdapter "github.com/aretw0/tendril/pkg/adapters/redis"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the metrics dashboard",
	Long: `Starts an HTTP server that renders the latest handler output from
the output key. The dashboard is a pure consumer: it reads on request and
shows a "no data" state until the runtime publishes something.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(1)
		}

		port, _ := cmd.Flags().GetString("port")
		logger := logging.New(cfg.LogLevel)

		store := redisAdapter.New(cfg.Host, cfg.Port, cfg.DB)
		defer store.Close()

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: dashboard.NewServer(store, cfg.OutputKey, logger).Router(),
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("dashboard listening", "addr", srv.Addr, "output_key", cfg.OutputKey)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			logger.Error("server error", "err", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("forced close failed", "err", err)
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
