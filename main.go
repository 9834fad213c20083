package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vladimiradmaev/profile-switcher/internal/bot"
	"github.com/vladimiradmaev/profile-switcher/internal/bot/handlers"
	"github.com/vladimiradmaev/profile-switcher/internal/bot/state"
	"github.com/vladimiradmaev/profile-switcher/internal/catalogue"
	"github.com/vladimiradmaev/profile-switcher/internal/config"
	"github.com/vladimiradmaev/profile-switcher/internal/database"
	"github.com/vladimiradmaev/profile-switcher/internal/logger"
	"github.com/vladimiradmaev/profile-switcher/internal/repository"
	"github.com/vladimiradmaev/profile-switcher/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Warn(".env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.InitWithConfig(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	}); err != nil {
		logger.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()
	logger.Info("Starting Profile Switcher Bot...")

	if cfg.Telegram.Token == "" {
		logger.Fatal("TELEGRAM_BOT_TOKEN is required")
	}
	if len(cfg.Telegram.AllowedUserIDs) == 0 {
		logger.Fatal("TELEGRAM_ALLOWED_USERS is required")
	}

	db, err := database.Open(cfg.DB)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Repositories
	profileRepo := repository.NewProfileRepository(db)
	switchStore := repository.NewSwitchStore(db)

	definitions, err := catalogue.LoadFile(cfg.Profile.CataloguePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Warn("Profile catalogue file not found, using stored profiles", "path", cfg.Profile.CataloguePath)
	case err != nil:
		logger.Fatalf("Failed to load profile catalogue: %v", err)
	default:
		if err := profileRepo.Import(ctx, definitions); err != nil {
			logger.Fatalf("Failed to import profile catalogue: %v", err)
		}
		logger.Info("Profile catalogue imported", "profiles", len(definitions))
	}

	// Services
	resolver, err := services.NewEffectiveProfileResolver(switchStore, cfg.Profile.CacheSize)
	if err != nil {
		logger.Fatalf("Failed to create profile resolver: %v", err)
	}
	factory := services.NewSwitchFactory(profileRepo, switchStore, cfg)
	committer := services.NewSwitchCommitter(switchStore, resolver)
	switcher := services.NewProfileSwitchService(profileRepo, factory, services.NewSafetyValidator(), committer, resolver, cfg, cfg)
	logger.Info("Services initialized successfully", "active_profile", resolver.CurrentProfileName(ctx, true, true))

	// Conversation state
	var stateManager state.StateManager = state.NewManager()
	if cfg.Redis.Host != "" {
		redisManager, err := state.NewRedisManager(cfg.Redis.Host, cfg.Redis.Port)
		if err != nil {
			logger.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisManager.Close()
		stateManager = redisManager
		logger.Info("Using Redis for conversation state", "host", cfg.Redis.Host)
	}

	telegramBot, err := bot.NewBot(cfg.Telegram.Token, handlers.Dependencies{
		Resolver:  resolver,
		Switcher:  switcher,
		Catalogue: profileRepo,
		History:   switchStore,
		Location:  cfg.Profile.Timezone,
	}, stateManager, cfg.Telegram.AllowedUserIDs)
	if err != nil {
		logger.Fatalf("Failed to create bot: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Bot stopped with error", "error", err)
			stop()
		}
	}()

	logger.Info("Bot is running. Press Ctrl+C to stop.")
	wg.Wait()
	logger.Info("Bot stopped")
}
