package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/Dosada05/tournament-scheduler/brackets"
	"github.com/Dosada05/tournament-scheduler/config"
	"github.com/Dosada05/tournament-scheduler/db"
	"github.com/Dosada05/tournament-scheduler/handlers"
	"github.com/Dosada05/tournament-scheduler/repositories"
	"github.com/Dosada05/tournament-scheduler/routes"
	"github.com/Dosada05/tournament-scheduler/services"
	"github.com/Dosada05/tournament-scheduler/storage"
)

// reminderRate caps reminder pushes per second during a sweep.
const reminderRate = 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	var store repositories.DocumentStore
	if cfg.DatabaseURL != "" {
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := dbConn.Close(); err != nil {
				logger.Error("failed to close database connection", slog.Any("error", err))
			} else {
				logger.Info("database connection closed")
			}
		}()
		schemaCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = db.EnsureSchema(schemaCtx, dbConn)
		cancel()
		if err != nil {
			logger.Error("failed to prepare database schema", slog.Any("error", err))
			os.Exit(1)
		}
		store = repositories.NewPostgresDocumentStore(dbConn)
		logger.Info("database connection established")
	} else {
		store = repositories.NewMemoryStore()
		logger.Warn("DATABASE_URL not set, documents are kept in memory")
	}

	catalogue, err := config.LoadSportRules(cfg.SportRulesFile)
	if err != nil {
		logger.Error("failed to load sport rules", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("sport rules loaded", slog.Int("sports", len(catalogue)))

	var uploader storage.FileUploader
	if cfg.R2.Complete() {
		uploader, err = storage.NewCloudflareR2Uploader(context.Background(), cfg.R2)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized", slog.String("bucket", cfg.R2.BucketName))
	} else {
		logger.Info("R2 not configured, schedule publishing disabled")
	}

	wsHub := brackets.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(registry)
	tracer := otel.Tracer("github.com/Dosada05/tournament-scheduler")

	eventRepo := repositories.NewEventRepository(store)
	participantRepo := repositories.NewParticipantRepository(store)
	groupRepo := repositories.NewGroupRepository(store)
	matchRepo := repositories.NewMatchRepository(store)
	standingRepo := repositories.NewStandingRepository(store)
	notificationRepo := repositories.NewNotificationRepository(store)
	correctionRepo := repositories.NewCorrectionRepository(store)
	sportRepo := repositories.NewSportRuleRepository(store)

	pushNotifier := services.NewHubNotifier(wsHub)
	notifier := services.MultiNotifier{services.NewStoreNotifier(notificationRepo, logger), pushNotifier}
	sportRules := services.NewSportRulesProvider(sportRepo, catalogue, logger)

	eventService := services.NewEventService(eventRepo, participantRepo, logger)
	standingsService := services.NewStandingsService(eventRepo, participantRepo, groupRepo, matchRepo, standingRepo, sportRules, wsHub, metrics, tracer, logger)
	progressionService := services.NewProgressionService(eventRepo, groupRepo, matchRepo, wsHub, metrics, tracer, logger)
	matchService := services.NewMatchService(services.MatchServiceDeps{
		Events:       eventRepo,
		Participants: participantRepo,
		Groups:       groupRepo,
		Matches:      matchRepo,
		Corrections:  correctionRepo,
		Rules:        sportRules,
		Standings:    standingsService,
		Progression:  progressionService,
		Notifier:     notifier,
		Hub:          wsHub,
		Metrics:      metrics,
		Tracer:       tracer,
		Logger:       logger,
	})
	fixtureService := services.NewFixtureService(eventRepo, participantRepo, groupRepo, matchRepo, standingsService, wsHub, tracer, logger)
	swissService := services.NewSwissService(eventRepo, participantRepo, groupRepo, matchRepo, standingRepo, standingsService, wsHub, tracer, logger)
	scheduleService := services.NewScheduleService(eventRepo, participantRepo, groupRepo, matchRepo, notifier, wsHub, metrics, tracer, logger)
	exportService := services.NewExportService(eventRepo, participantRepo, groupRepo, scheduleService, uploader, logger)
	reminderService := services.NewReminderService(participantRepo, matchRepo, notificationRepo, pushNotifier,
		rate.NewLimiter(rate.Limit(reminderRate), reminderRate), metrics, logger)
	logger.Info("services initialized")

	sweepCtx, stopSweeps := context.WithCancel(context.Background())
	defer stopSweeps()
	if cfg.ReminderInterval > 0 {
		go runReminders(sweepCtx, reminderService, cfg.ReminderInterval, logger)
		logger.Info("reminder sweep started", slog.Duration("interval", cfg.ReminderInterval))
	}

	router := routes.SetupRoutes(routes.Handlers{
		Events:        handlers.NewEventHandler(eventService),
		Fixtures:      handlers.NewFixtureHandler(fixtureService),
		Matches:       handlers.NewMatchHandler(matchService),
		Standings:     handlers.NewStandingsHandler(standingsService, swissService),
		Schedule:      handlers.NewScheduleHandler(scheduleService, exportService),
		Notifications: handlers.NewNotificationHandler(services.NewNotificationService(notificationRepo)),
		Sports:        handlers.NewSportHandler(sportRules),
		WebSocket:     handlers.NewWebSocketHandler(wsHub, eventService, logger),
	}, routes.Options{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.AllowedOrigins,
		Gatherer:       registry,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
		}
	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		stopSweeps()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if err := server.Close(); err != nil {
				logger.Error("failed to close server", slog.Any("error", err))
			}
		} else {
			logger.Info("server stopped gracefully")
		}
	}
}

// runReminders sweeps once per interval until ctx is done. A failed sweep
// is logged and retried on the next tick.
func runReminders(ctx context.Context, reminders services.ReminderService, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("reminder sweep stopped")
			return
		case now := <-ticker.C:
			sent, err := reminders.Sweep(ctx, now.UTC())
			if err != nil {
				logger.Error("reminder sweep failed", slog.Any("error", err))
				continue
			}
			if sent > 0 {
				logger.Info("reminders sent", slog.Int("count", sent))
			}
		}
	}
}
