package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hamed0406/routerwatch/internal/config"
	"github.com/hamed0406/routerwatch/internal/httpapi"
	"github.com/hamed0406/routerwatch/internal/logging"
	"github.com/hamed0406/routerwatch/internal/metrics"
	"github.com/hamed0406/routerwatch/internal/monitor"
	"github.com/hamed0406/routerwatch/internal/notify"
	"github.com/hamed0406/routerwatch/internal/probe"
	"github.com/hamed0406/routerwatch/internal/repo/memory"
	"github.com/hamed0406/routerwatch/internal/reset"
	"github.com/hamed0406/routerwatch/internal/status"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(logging.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level, Location: loc})
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(cfg, loc, logger); err != nil {
		logger.Error("watchdog_failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, loc *time.Location, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mc := cfg.MonitorConfig()
	logger.Info("monitor_starting",
		zap.String("webhook_url", cfg.Webhook.URL()),
		zap.Bool("verify_tls", cfg.Webhook.VerifyTLS),
		zap.String("probe_mode", cfg.Probe.Mode),
		zap.String("probe_target", cfg.Probe.Target),
		zap.Duration("sleep_while_offline", mc.OfflinePollInterval),
		zap.Duration("sleep_while_online", mc.OnlinePollInterval),
		zap.Duration("sleep_after_reset", mc.PostResetCooldown),
		zap.Int("failed_pings_to_reset", mc.FailuresBeforeReset),
		zap.Int("attempts_to_log_alive", mc.HeartbeatInterval),
		zap.Int("max_resets", mc.MaxResetsPerOutage),
		zap.String("timezone", loc.String()),
	)

	checker, err := probe.NewChecker(cfg.Probe.Mode, cfg.Probe.Timeout())
	if err != nil {
		return err
	}
	attempts := max(cfg.Probe.RetryAttempts, 1)
	if attempts > 1 {
		checker = &probe.RetryChecker{Inner: checker, Attempts: attempts, Backoff: cfg.Probe.RetryBackoff()}
	}
	// one timeout per attempt plus the gaps between them
	budget := time.Duration(attempts)*cfg.Probe.Timeout() + time.Duration(attempts-1)*cfg.Probe.RetryBackoff()
	reach := probe.NewReachability(checker, cfg.Probe.Target, budget, logger)

	trigger, err := reset.NewWebhook(reset.Config{
		URL:                cfg.Webhook.URL(),
		Timeout:            cfg.Webhook.Timeout(),
		InsecureSkipVerify: !cfg.Webhook.VerifyTLS,
		EnableHTTP2:        true,
	})
	if err != nil {
		return err
	}

	clock := monitor.NewClock(loc)
	store := memory.New(memory.DefaultCapacity)

	var notifier notify.Notifier
	if s := notify.NewSlack(cfg.SlackWebhookURL); s != nil {
		notifier = s
	}
	recorder := status.NewRecorder(logger, store, notifier, clock.Now())

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector()
	if err := collector.Register(reg); err != nil {
		return err
	}

	mon, err := monitor.New(mc, monitor.Deps{
		Probe:    reach,
		Clock:    clock,
		Sleeper:  monitor.NewSleeper(),
		Trigger:  trigger,
		Logger:   logger,
		Observer: monitor.Observers{recorder, collector},
	})
	if err != nil {
		return err
	}

	var srv *http.Server
	if cfg.Status.Addr != "" {
		api := httpapi.NewServer(logger, recorder, store, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv = &http.Server{
			Addr: cfg.Status.Addr,
			Handler: api.Router(httpapi.Options{
				Keys:            cfg.Status.APIKeys,
				RateLimitPerMin: cfg.Status.RateLimitPerMin,
				RateBurst:       cfg.Status.RateBurst,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("status_listen", zap.String("addr", cfg.Status.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("status_server_error", zap.Error(err))
			}
		}()
	}

	err = mon.Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logger.Warn("status_shutdown_error", zap.Error(serr))
		}
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
