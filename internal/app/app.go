// Package app wires the storefront server together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/digitaltumana/storefront/internal/handler"
	"github.com/digitaltumana/storefront/internal/marketplace"
	"github.com/digitaltumana/storefront/internal/session"
	"github.com/digitaltumana/storefront/internal/storage/postgres"
	"github.com/digitaltumana/storefront/pkg/health"
	"github.com/digitaltumana/storefront/pkg/httpmiddleware"
)

const (
	serviceName = "storefront"
	// maxTrackedClients bounds each rate limiter's client table.
	maxTrackedClients = 100_000
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("marketplace", cfg.MarketplaceURL),
		zap.Bool("attempt_log", cfg.DatabaseURL != ""),
	)

	fee, err := cfg.ShippingFeePerSeller()
	if err != nil {
		return err
	}

	client, err := marketplace.New(marketplace.Config{
		BaseURL:        cfg.MarketplaceURL,
		Timeout:        cfg.UpstreamTimeout,
		TracerProvider: m.TracerProvider(),
		MeterProvider:  m.MeterProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create marketplace client")
	}

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddReadinessCheck("marketplace", cfg.UpstreamTimeout,
		health.UpstreamCheck(&http.Client{Timeout: cfg.UpstreamTimeout}, cfg.MarketplaceURL))

	// The attempt log is optional; without a database checkouts still work.
	var attempts handler.AttemptStore
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		attempts = postgres.NewAttemptRepository(pool)
		healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	}

	var verifier *session.Verifier
	if cfg.TokenSecret != "" {
		verifier, err = session.NewVerifier(session.VerifierConfig{
			Secret: cfg.TokenSecret,
			Issuer: cfg.TokenIssuer,
		})
		if err != nil {
			return errors.Wrap(err, "create token verifier")
		}
	}

	h, err := handler.NewHandler(
		handler.HandlerConfig{
			ShippingFeePerSeller: fee,
			MeterProvider:        m.MeterProvider(),
			Verifier:             verifier,
		},
		client,
		attempts,
	)
	if err != nil {
		return errors.Wrap(err, "create handler")
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout(),
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           newRouter(ctx, cfg, lg, h, healthSvc, m.TracerProvider(), m.MeterProvider()),
	}

	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// newRouter mounts the probes and the API behind the middleware chain.
func newRouter(
	ctx context.Context,
	cfg *Config,
	lg *zap.Logger,
	h *handler.Handler,
	healthSvc *health.Health,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Routes())

	return httpmiddleware.Wrap(mux,
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins: cfg.CORS.Origins,
			MaxAge:       86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:     cfg.RateLimit.PerIP,
			Window:  cfg.RateLimit.Window,
			KeyFunc: httpmiddleware.IPKey(cfg.RateLimit.TrustForwarded),
			MaxKeys: maxTrackedClients,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:     cfg.RateLimit.Max,
			Window:  cfg.RateLimit.Window,
			MaxKeys: maxTrackedClients,
		}),
		httpmiddleware.Timeout(cfg.RequestTimeout()),
		httpmiddleware.Instrument(serviceName, tp, mp),
		httpmiddleware.LogRequests(),
	)
}
