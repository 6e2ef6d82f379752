package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"signalTracker/config"
	"signalTracker/internal/adapters/logger"
	"signalTracker/internal/adapters/pricesource"
	"signalTracker/internal/adapters/sqlite"
	"signalTracker/internal/adapters/telegram"
	"signalTracker/internal/app"
	"signalTracker/internal/ports"
	"signalTracker/internal/pricefeed"
	"signalTracker/internal/signal"
	"signalTracker/internal/tracker"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := newLogger(cfg)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel, "format": cfg.LogFormat})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err) // Also log to stderr
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger.Info(context.Background(), "Database repository initialized")

	// 4. Initialize Price Sources and Selector
	sources := pricesource.NewAll(cfg.Providers, appLogger)
	selector, err := pricefeed.NewSelector(sources, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize price selector")
		log.Fatalf("FATAL: Failed to initialize price selector: %v", err)
	}
	appLogger.Info(context.Background(), "Price selector initialized", map[string]interface{}{"sources": selector.SourceCount()})

	// 5. Initialize Telegram Adapter (may run disabled without a token)
	bot, err := telegram.New(telegram.Config{
		BotToken:    cfg.TelegramBotToken,
		ProbeChatID: cfg.LogChannelID,
		Logger:      appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Telegram adapter")
		log.Fatalf("FATAL: Failed to initialize Telegram adapter: %v", err)
	}

	// 6. Initialize Parser and Level Calculator
	parser, err := signal.NewParser(cfg.SignalMarker)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize signal parser")
		log.Fatalf("FATAL: Failed to initialize signal parser: %v", err)
	}
	profile, err := signal.ProfileByName(cfg.LevelProfile)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Unknown level profile")
		log.Fatalf("FATAL: Unknown level profile: %v", err)
	}
	calc := signal.NewCalculator(profile)

	// 7. Initialize Tracker. The rate-limit callback is bound after the
	// service exists; the indirection keeps construction order simple.
	var service *app.Service
	trk, err := tracker.New(tracker.Config{
		Feed:             selector,
		Repo:             repo,
		Notifier:         bot,
		Checker:          bot,
		Logger:           appLogger,
		PollInterval:     cfg.PollInterval,
		FailureThreshold: cfg.FailureThreshold,
		RateLimited: func(source string) {
			if service != nil {
				service.RateLimitedCallback()(source)
			}
		},
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize tracker")
		log.Fatalf("FATAL: Failed to initialize tracker: %v", err)
	}

	// 8. Initialize Application Service
	service, err = app.NewService(cfg, appLogger, parser, calc, selector, trk, repo, bot, bot, cfg.Providers.ConfiguredCount())
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize service")
		log.Fatalf("FATAL: Failed to initialize service: %v", err)
	}
	appLogger.Info(context.Background(), "Signal tracker service initialized")

	// 9. Start the Service
	if err := service.Start(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Service exited with error")
		log.Fatalf("FATAL: Service exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}

// newLogger selects the structured or plain logger per LOG_FORMAT.
func newLogger(cfg *config.Config) ports.Logger {
	if cfg.LogFormat == "json" {
		return logger.NewZerolog(logger.ZerologConfig{Level: cfg.LogLevel})
	}
	return logger.NewStdLogger(logger.ParseLevel(cfg.LogLevel))
}
