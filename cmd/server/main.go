package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"formgate/internal/contact/guard"
	contacthandler "formgate/internal/contact/handler"
	contactmetrics "formgate/internal/contact/metrics"
	"formgate/internal/contact/notify"
	"formgate/internal/contact/schema"
	"formgate/internal/contact/service"
	"formgate/internal/contact/tracer"
	"formgate/internal/platform/config"
	"formgate/internal/platform/health"
	"formgate/internal/platform/logger"
	rlconfig "formgate/internal/ratelimit/config"
	rlmetrics "formgate/internal/ratelimit/metrics"
	rlservice "formgate/internal/ratelimit/service"
	"formgate/internal/ratelimit/store/memory"
	"formgate/internal/ratelimit/workers/sweep"
	httptransport "formgate/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Development)

	log.Info("initializing formgate",
		"addr", cfg.Addr,
		"development", cfg.Development,
		"allowed_origins", cfg.AllowedOrigins,
	)

	if len(cfg.AllowedOrigins) == 0 {
		log.Warn("no allowed origins configured, accepting submissions from any origin")
	}

	rateCfg := &rlconfig.Config{
		Window:            cfg.RateLimitWindow,
		RequestsPerWindow: cfg.RateLimitRequests,
		BlockDuration:     cfg.RateLimitBlock,
		SweepInterval:     cfg.SweepInterval,
	}

	store := memory.New()
	rlMetrics := rlmetrics.New()
	limiter, err := rlservice.New(store,
		rlservice.WithLogger(log),
		rlservice.WithConfig(rateCfg),
		rlservice.WithMetrics(rlMetrics),
	)
	if err != nil {
		log.Error("failed to build rate limiter", "error", err)
		os.Exit(1)
	}

	var sink notify.Sink
	if cfg.Mail.APIKey != "" {
		sink = notify.NewResendSink(cfg.Mail.APIBaseURL, cfg.Mail.APIKey, cfg.Mail.SendTimeout)
	} else {
		log.Warn("no mail API key configured, submissions will be rejected with 503")
	}

	contactMetrics := contactmetrics.New()
	spans := tracer.NewOTel()

	dispatcher := notify.New(sink, cfg.Mail.FromAddress, cfg.Mail.OwnerAddress, cfg.Mail.SendTimeout,
		notify.WithLogger(log),
		notify.WithTracer(spans),
		notify.WithMetrics(contactMetrics),
	)

	g := guard.New(cfg.AllowedOrigins, guard.WithLogger(log))

	svc, err := service.New(limiter, schema.Default(), g, dispatcher,
		service.WithLogger(log),
		service.WithTracer(spans),
		service.WithMetrics(contactMetrics),
	)
	if err != nil {
		log.Error("failed to build contact service", "error", err)
		os.Exit(1)
	}

	contact := contacthandler.New(svc, contacthandler.Config{
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RateLimit:      cfg.RateLimitRequests,
		RateWindowSecs: int(cfg.RateLimitWindow.Seconds()),
		Development:    cfg.Development,
	}, contacthandler.WithLogger(log))

	env := "production"
	if cfg.Development {
		env = "development"
	}
	healthHandler := health.New(env)
	healthHandler.RegisterCheck("notification_sink", func() error {
		if !dispatcher.Configured() {
			return errors.New("notification sink not configured")
		}
		return nil
	})

	router := httptransport.NewRouter(contact, healthHandler, &cfg, log)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	sweeper := sweep.New(store,
		sweep.WithLogger(log),
		sweep.WithInterval(cfg.SweepInterval),
		sweep.WithMetrics(rlMetrics),
	)
	group.Go(func() error {
		if err := sweeper.Start(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
