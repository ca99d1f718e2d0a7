package main

import (
	"log"

	"otp-service/cmd"
	"otp-service/internal/data/repository"
	"otp-service/internal/notifier"
	"otp-service/internal/wire"
	"otp-service/pkg/database"
	"otp-service/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Initialize repositories
	repos := repository.NewRepository(db, logger)

	// Channel transports fall back to log-only delivery when their
	// gateway is not configured
	notifiers := buildNotifiers(config, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, notifiers, config, logger)

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	cmd.APIServer(app.Router, config.App.Port)
}

func buildNotifiers(config *utils.Config, logger *zap.Logger) *notifier.Registry {
	registry := &notifier.Registry{}

	if email, err := notifier.NewEmailNotifier(config.Email, logger); err == nil {
		registry.Email = email
	} else {
		logger.Warn("Email transport not configured, using dev delivery", zap.Error(err))
		registry.Email = notifier.NewDevNotifier(logger)
	}

	if sms, err := notifier.NewSmsNotifier(config.Sms, logger); err == nil {
		registry.Sms = sms
	} else {
		logger.Warn("Sms transport not configured, using dev delivery", zap.Error(err))
		registry.Sms = notifier.NewDevNotifier(logger)
	}

	return registry
}
