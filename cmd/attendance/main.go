package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/example/geo-attendance/internal/application"
	"github.com/example/geo-attendance/internal/attendance"
	"github.com/example/geo-attendance/internal/config"
	httptransport "github.com/example/geo-attendance/internal/http"
	"github.com/example/geo-attendance/internal/logging"
	"github.com/example/geo-attendance/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout); err != nil {
		slog.Error("attendance service stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.New(stdout, level)

	repo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := repo.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           newHandler(cfg, repo, reg, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", server.Addr, err)
	}
	logger.Info("attendance API listening",
		"addr", ln.Addr().String(),
		"backend", cfg.Backend,
		"zone_radius_meters", cfg.Zone.RadiusMeters,
	)
	return serve(ctx, server, ln, logger)
}

// newHandler wires the check-in service, metrics and handlers over repo.
func newHandler(cfg config.Config, repo repository, reg *prometheus.Registry, logger *slog.Logger) http.Handler {
	store := attendance.NewStore(repo, attendance.WithKey(cfg.StoreKey), attendance.WithLogger(logger))
	service := application.NewCheckInServiceWithLogger(store, cfg.Zone, newRecordID, time.Now, logger)

	m := metrics.New(reg)
	service.UseMetrics(m)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Zone:       httptransport.NewZoneHandler(service, logger),
		Attendance: httptransport.NewAttendanceHandler(service, cfg.Location, time.Now, logger),
		Health:     httptransport.NewHealthHandler(repo, logger),
		Metrics:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Recorder:   m,
		Logger:     logger,
	})
}

// serve runs server on ln until ctx is cancelled, then shuts it down
// gracefully.
func serve(ctx context.Context, server *http.Server, ln net.Listener, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down attendance API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// newRecordID returns a time-ordered UUIDv7.
func newRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
