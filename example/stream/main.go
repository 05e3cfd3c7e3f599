package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/swdee/go-vistrack"
	"github.com/swdee/go-vistrack/config"
	"github.com/swdee/go-vistrack/inference"
	"github.com/swdee/go-vistrack/logger"
	"github.com/swdee/go-vistrack/monitor"
	"github.com/swdee/go-vistrack/postprocess"
	"go.uber.org/zap"
)

func main() {

	cfg, err := config.Load(config.ParseConfigFlag())

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must(cfg.Debug)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Demo failed", zap.Error(err))
	}
}

// run starts the demo server and blocks until it is interrupted
func run(cfg *config.Config, log *zap.Logger) error {

	labels := postprocess.COCOLabels

	if cfg.Model.Labels != "" {
		var err error
		labels, err = vistrack.LoadLabelsFile(cfg.Model.Labels)

		if err != nil {
			return err
		}
	}

	pool, err := inference.NewPool(cfg.Model.PoolSize,
		inference.ONNXFactory(cfg.Model.Path, cfg.Model.Backend, cfg.Model.Target))

	if err != nil {
		return fmt.Errorf("error creating inference pool: %w", err)
	}

	defer pool.Close()

	log.Info("Model loaded",
		zap.String("path", cfg.Model.Path),
		zap.Int("inputWidth", cfg.Model.InputWidth),
		zap.Int("inputHeight", cfg.Model.InputHeight),
		zap.Int("labels", len(labels)),
		zap.Int("poolSize", pool.Size()))

	reg := prometheus.NewRegistry()
	metrics := vistrack.NewMetrics(reg)

	mon, err := monitor.NewProcessMonitor(reg, log)

	if err != nil {
		return err
	}

	demo := NewDemo(cfg, pool, labels, metrics, log)

	if err := demo.bufferVideo(cfg.Server.Source); err != nil {
		return err
	}

	defer demo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go mon.Run(ctx, monitor.DefaultInterval)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: newRouter(demo, reg),
		// streams end when their request context is cancelled
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info("Open browser and view video",
			zap.String("url", fmt.Sprintf("http://localhost:%d/stream", cfg.Server.Port)))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
