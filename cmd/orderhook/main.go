// Command orderhook serves the Stripe checkout webhook that marks orders paid.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	httpmw "github.com/mihaimyh/orderhook/middleware/http"
	"github.com/mihaimyh/orderhook/pkg/billing"
	prommetrics "github.com/mihaimyh/orderhook/pkg/billing/metrics/prometheus"
	"github.com/mihaimyh/orderhook/pkg/billing/stripe"
	"github.com/mihaimyh/orderhook/pkg/orders"
	zerologadapter "github.com/mihaimyh/orderhook/pkg/orders/logger/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "orderhook:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		return err
	}

	zlog, err := newLogger(cfg, os.Stdout)
	if err != nil {
		return err
	}
	logger := zerologadapter.NewLogger(&zlog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	provider, err := stripe.NewProvider(stripe.Config{Config: billing.Config{
		Storage:         store,
		WebhookSecret:   cfg.WebhookSecret,
		Logger:          logger,
		Metrics:         prommetrics.NewMetrics(reg, "orderhook"),
		RateLimit:       cfg.RateLimit,
		RateLimitWindow: cfg.RateLimitWindow,
	}})
	if err != nil {
		return err
	}

	servers := []*http.Server{{
		Addr:              cfg.Addr,
		Handler:           newRouter(cfg, provider, store, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if cfg.MetricsAddr != "off" {
		servers = append(servers, &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			logger.Info("listening", orders.Field{Key: "addr", Value: srv.Addr})
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// pinger is implemented by stores that can report connectivity.
type pinger interface {
	Ping(ctx context.Context) error
}

func newRouter(cfg *Config, provider billing.Provider, store orders.Storage, logger orders.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httpmw.AccessLog(logger))
	r.Use(middleware.Recoverer)

	r.Method(http.MethodPost, cfg.WebhookPath, provider.WebhookHandler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if p, ok := store.(pinger); ok {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				logger.Warn("health check failed", orders.Field{Key: "error", Value: err})
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return r
}
