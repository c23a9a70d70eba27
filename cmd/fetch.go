package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/avasile/renderfeed/pkg/config"
	"github.com/avasile/renderfeed/pkg/feed"
	"github.com/avasile/renderfeed/pkg/logging"
	"github.com/avasile/renderfeed/pkg/metrics"
)

func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <url> [url...]",
		Short: "Fetch one or more feeds and print them as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runFetch,
	}
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	metrics.Init()
	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Addr, logger)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := feed.New(cfg.ClientOptions(logger), logger)
	if err := client.Initialize(ctx); err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Close(closeCtx); err != nil {
			logger.Warn("pool close", zap.Error(err))
		}
	}()

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	var firstErr error
	for _, url := range args {
		f, err := client.FetchAndParse(ctx, url)
		if err != nil {
			logger.Error("fetch failed", zap.String("url", url), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := enc.Encode(f); err != nil {
			return err
		}
	}
	return firstErr
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	logger.Info("serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics listener stopped", zap.Error(err))
	}
}
