// The evaluator is the pipeline's long-running binary. On a schedule (or once
// with -once) it scores every enabled compliance policy over a lookback
// window, alerts subscribed users whose thresholds are exceeded, and opens
// tickets for critical scores.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/davidleathers/compliance-risk-backend/internal/infrastructure/cache"
	"github.com/davidleathers/compliance-risk-backend/internal/infrastructure/config"
	"github.com/davidleathers/compliance-risk-backend/internal/infrastructure/database"
	"github.com/davidleathers/compliance-risk-backend/internal/infrastructure/notify"
	"github.com/davidleathers/compliance-risk-backend/internal/infrastructure/repository"
	"github.com/davidleathers/compliance-risk-backend/internal/infrastructure/telemetry"
	"github.com/davidleathers/compliance-risk-backend/internal/infrastructure/ticketing"
	"github.com/davidleathers/compliance-risk-backend/internal/scheduler"
	"github.com/davidleathers/compliance-risk-backend/internal/service/alerting"
	"github.com/davidleathers/compliance-risk-backend/internal/service/escalation"
	"github.com/davidleathers/compliance-risk-backend/internal/service/evaluation"
	"github.com/davidleathers/compliance-risk-backend/internal/service/scoring"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/compliance"
	"github.com/davidleathers/compliance-risk-backend/internal/domain/notification"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to configuration file")
		once       = flag.Bool("once", false, "Run a single evaluation and exit")
		window     = flag.Int("window", 0, "Scoring window in days (0 = configured default)")
		userID     = flag.String("user", "", "Scope the run to a single user")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := telemetry.SetupLogger(cfg.LogLevel)

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create infrastructure logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.Initialize(ctx, &telemetry.Config{
		ServiceName:    "compliance-evaluator",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SamplingRate:   cfg.Telemetry.SamplingRate,
		ExportTimeout:  cfg.Telemetry.ExportTimeout,
		BatchTimeout:   cfg.Telemetry.BatchTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	pool, err := database.Connect(ctx, database.Config{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, zapLogger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	eventRepo := repository.NewEventRepository(pool)
	policyRepo := repository.NewPolicyRepository(pool)

	var prefs notification.PreferenceRepository = repository.NewPreferenceRepository(pool)
	var prefCache *cache.PreferenceCache
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(&cache.Config{
			URL:      cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, zapLogger)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisCache.Close()

		prefCache = cache.NewPreferenceCache(prefs, redisCache, cfg.Redis.PreferenceTTL, zapLogger)
		prefs = prefCache
	}

	senders, inAppServer := buildSenders(cfg, zapLogger)
	if inAppServer != nil {
		go func() {
			logger.Info("in-app websocket server listening", "addr", cfg.Notification.InApp.ListenAddr)
			if err := inAppServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("in-app server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			inAppServer.Shutdown(shutdownCtx)
		}()
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: mux}
		go func() {
			logger.Info("metrics server listening", "addr", cfg.Metrics.ListenAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metricsServer.Shutdown(shutdownCtx)
		}()
	}

	clock := compliance.RealClock{}

	scoringSvc := scoring.NewService(eventRepo, policyRepo, clock, logger, scoring.Config{
		DefaultWindowDays: cfg.Evaluation.WindowDays,
		FetchTimeout:      cfg.Evaluation.FetchTimeout,
	})
	alertingSvc := alerting.NewService(prefs, senders, clock, logger, alerting.Config{
		SendTimeout: cfg.Evaluation.SendTimeout,
	})
	escalationSvc := escalation.NewService(buildTrackers(cfg, zapLogger), logger, cfg.Evaluation.TicketTimeout)

	evaluationSvc := evaluation.NewService(scoringSvc, alertingSvc, escalationSvc, prometheusMetrics{}, logger)

	runWindow := cfg.Evaluation.WindowDays
	if *window > 0 {
		runWindow = *window
	}

	if *once {
		report := evaluationSvc.Run(ctx, runWindow, *userID)
		if report.Aborted {
			os.Exit(1)
		}
		return
	}

	runners := []*scheduler.Runner{
		scheduler.NewRunner("evaluation", cfg.Evaluation.Interval, func(ctx context.Context) {
			evaluationSvc.Run(ctx, runWindow, *userID)
		}, logger, scheduler.WithJitter(cfg.Evaluation.Jitter), scheduler.WithRunOnStart()),
	}

	if prefCache != nil {
		runners = append(runners, scheduler.NewRunner("preference-cache-refresh",
			cfg.Redis.PreferenceTTL, func(ctx context.Context) {
				if err := prefCache.Refresh(ctx); err != nil {
					logger.Warn("preference cache refresh failed", "error", err)
				}
			}, logger))
	}

	for _, r := range runners {
		go r.Start(ctx)
	}

	<-ctx.Done()
	logger.Info("shutting down")
}

// buildSenders assembles the configured channel senders. A disabled channel
// stays nil; the dispatcher reports attempts on it as failures.
func buildSenders(cfg *config.Config, zapLogger *zap.Logger) (alerting.Senders, *http.Server) {
	var senders alerting.Senders
	var inAppServer *http.Server

	if cfg.Notification.Email.Enabled {
		senders.Email = notify.NewEmailClient(notify.EmailConfig{
			BaseURL: cfg.Notification.Email.BaseURL,
			APIKey:  cfg.Notification.Email.APIKey,
			From:    cfg.Notification.Email.From,
			Timeout: cfg.Notification.Email.Timeout,
		}, zapLogger)
	}

	if cfg.Notification.SMS.Enabled {
		senders.SMS = notify.NewSMSClient(notify.SMSConfig{
			BaseURL:      cfg.Notification.SMS.BaseURL,
			APIKey:       cfg.Notification.SMS.APIKey,
			From:         cfg.Notification.SMS.From,
			RateLimitRPS: cfg.Notification.SMS.RateLimitRPS,
			Timeout:      cfg.Notification.SMS.Timeout,
		}, zapLogger)
	}

	if cfg.Notification.InApp.Enabled {
		hubCfg := notify.DefaultInAppConfig()
		hubCfg.WriteTimeout = cfg.Notification.InApp.WriteTimeout
		hubCfg.SendBufferSize = cfg.Notification.InApp.SendBufferSize
		hub := notify.NewInAppHub(hubCfg, zapLogger)
		senders.InApp = hub

		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		inAppServer = &http.Server{Addr: cfg.Notification.InApp.ListenAddr, Handler: mux}
	}

	if cfg.Notification.Webhook.Enabled {
		senders.Webhook = notify.NewWebhookClient(notify.WebhookConfig{
			SigningSecret: cfg.Notification.Webhook.SigningSecret,
			Timeout:       cfg.Notification.Webhook.Timeout,
			RateLimitRPS:  cfg.Notification.Webhook.RateLimitRPS,
		}, zapLogger)
	}

	return senders, inAppServer
}

func buildTrackers(cfg *config.Config, zapLogger *zap.Logger) []escalation.TicketTracker {
	var trackers []escalation.TicketTracker

	if cfg.Ticketing.Jira.Enabled {
		trackers = append(trackers, ticketing.NewJiraClient(ticketing.JiraConfig{
			BaseURL:    cfg.Ticketing.Jira.BaseURL,
			ProjectKey: cfg.Ticketing.Jira.ProjectKey,
			Email:      cfg.Ticketing.Jira.Email,
			APIToken:   cfg.Ticketing.Jira.APIToken,
			IssueType:  cfg.Ticketing.Jira.IssueType,
			Timeout:    cfg.Ticketing.Jira.Timeout,
		}, zapLogger))
	}

	for _, t := range cfg.Ticketing.Trackers {
		trackers = append(trackers, ticketing.NewRESTTracker(ticketing.RESTTrackerConfig{
			Name:      t.Name,
			URL:       t.URL,
			AuthToken: t.AuthToken,
			Timeout:   t.Timeout,
		}, zapLogger))
	}

	return trackers
}
