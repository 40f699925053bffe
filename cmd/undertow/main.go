// Command undertow serves the calc, static and sleep routes over pipelined
// HTTP/1.1.
//
// Usage:
//
//	undertow [-p port] [-v] [-static dir] [-metrics addr]
//
//	-p port        TCP port to listen on (default 80)
//	-v             verbose diagnostics on standard output
//	-static dir    directory served under /static/ (default "static")
//	-metrics addr  serve /metrics and /stats on addr (default off)
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/undertow/pkg/undertow/handlers"
	"github.com/yourusername/undertow/pkg/undertow/http11"
	"github.com/yourusername/undertow/pkg/undertow/metrics"
	"github.com/yourusername/undertow/pkg/undertow/middleware"
	"github.com/yourusername/undertow/pkg/undertow/router"
	"github.com/yourusername/undertow/pkg/undertow/server"
)

// shutdownTimeout bounds graceful shutdown after a signal.
const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args, os.Stdout, os.Stderr))
}

// run starts the server and blocks until ctx is cancelled or serving fails.
// It returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := parseArgs(filepath.Base(args[0]), args[1:], stdout)
	logger := newLogger(opts.Verbose, stdout, stderr)

	var (
		m   *metrics.Metrics
		reg *prometheus.Registry
	)
	if opts.MetricsAddr != "" {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
	}

	table, err := buildRoutes(opts, logger, m)
	if err != nil {
		logger.Error().Err(err).Msg("routes")
		return 1
	}

	cfg := server.DefaultConfig()
	cfg.Addr = ":" + strconv.Itoa(opts.Port)
	cfg.Logger = logger
	cfg.Handler = middleware.AccessLog(logger)(table)
	if m != nil {
		cfg.Observer = m
	}
	srv := server.New(cfg)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, server.ErrServerClosed) {
			return err
		}
		return nil
	})

	var metricsSrv *http.Server
	if reg != nil {
		metricsSrv = &http.Server{
			Addr: opts.MetricsAddr,
			Handler: metrics.Handler(reg, func() any {
				return srv.Stats().Snapshot()
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info().Str("addr", opts.MetricsAddr).Msg("metrics endpoint listening")
			if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown: %w", err))
		}
		if metricsSrv != nil {
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped")
		return 1
	}
	return 0
}

// newLogger writes human-readable debug output to stdout when verbose, and
// only errors, as JSON on stderr, otherwise.
func newLogger(verbose bool, stdout, stderr io.Writer) zerolog.Logger {
	if verbose {
		return zerolog.New(zerolog.ConsoleWriter{Out: stdout, TimeFormat: time.TimeOnly}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
	}
	return zerolog.New(stderr).Level(zerolog.ErrorLevel).With().Timestamp().Logger()
}

// buildRoutes mounts the built-in handlers. A non-nil m records per-route
// handler latency.
func buildRoutes(opts options, logger zerolog.Logger, m *metrics.Metrics) (*router.Table, error) {
	var obs middleware.HandlerObserver
	if m != nil {
		obs = m
	}
	route := func(prefix, name string, h http11.Handler) router.Route {
		return router.Route{
			Prefix:  prefix,
			Name:    name,
			Handler: middleware.Chain(h, middleware.Instrument(obs, name)),
		}
	}

	return router.New(
		route(handlers.CalcPrefix, "calc", handlers.Calc{}),
		route(handlers.StaticPrefix, "static", handlers.NewStatic(opts.StaticDir, logger)),
		route(handlers.SleepPrefix, "sleep", &handlers.Sleep{}),
	)
}
