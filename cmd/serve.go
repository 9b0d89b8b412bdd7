package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/naka-gawa/gh-contributions/internal/config"
	"github.com/naka-gawa/gh-contributions/internal/gateway"
	httptransport "github.com/naka-gawa/gh-contributions/internal/transport/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the contributions API over HTTP",
	Long: `Serves /contributions, /contributions/summary, /contest-ratings,
/debug-env and /health until SIGINT or SIGTERM is received.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func runServer(ctx context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	aggregator, err := newAggregator(cfg, logger)
	if err != nil {
		return err
	}
	ratings := gateway.NewRatingsClient(nil, cfg.ContestAPIURL, cfg.UpstreamTimeout, logger.WithName("ratings"))

	httpHandler := httptransport.NewHandler(aggregator, ratings, httptransport.Diagnostics{
		TokenPresent: cfg.TokenPresent(),
		Username:     cfg.GitHubUsername,
		Environment:  cfg.Environment,
	}, logger.WithName("http"))

	srv := &http.Server{
		Addr:    cfg.ServerPort,
		Handler: httpHandler.RegisterRoutes(),
		// The pipeline may spend one search timeout plus one enrichment timeout.
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 2*cfg.UpstreamTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("server starting", "port", cfg.ServerPort, "tokenPresent", cfg.TokenPresent(), "detailAPI", cfg.DetailAPI)
		serverErrors <- srv.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-stopCtx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server shut down gracefully")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String(config.KeyPort, "", "Port to listen on (default 8080, env PORT)")
	_ = viper.BindPFlag(config.KeyPort, serveCmd.Flags().Lookup(config.KeyPort))
}
