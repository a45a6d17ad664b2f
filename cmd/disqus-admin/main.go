package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/goliatone/go-disqus-backstore/internal/adminapi"
	"github.com/goliatone/go-disqus-backstore/pkg/config"
	"github.com/goliatone/go-disqus-backstore/pkg/di"
	"github.com/goliatone/go-disqus-backstore/pkg/logging"
	"github.com/goliatone/go-disqus-backstore/pkg/telemetry"
)

func main() {
	configFile := pflag.StringP("config", "c", "", "path to a config file (yaml, json or toml)")
	pflag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.WithComponent("disqus-admin")
	logger.Info("Starting forum admin server", zap.String("forum", cfg.Disqus.Forum))

	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	metrics, err := telemetry.NewMetrics(telemetry.Meter())
	if err != nil {
		logger.Fatal("Failed to create metrics", zap.Error(err))
	}

	container, err := di.NewContainer(context.Background(), cfg,
		di.WithLogger(logging.GetLogger()),
		di.WithMetrics(metrics),
	)
	if err != nil {
		logger.Fatal("Failed to build components", zap.Error(err))
	}
	defer container.Close()

	if strings.EqualFold(cfg.Logging.Level, "debug") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := adminapi.NewRouter(container.Threads(), container.Posts(),
		adminapi.WithLogger(logging.WithComponent("adminapi")),
		adminapi.WithMetricsHandler(promhttp.Handler()),
	)

	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
