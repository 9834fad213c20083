package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vladimiradmaev/profile-switcher/internal/catalogue"
	"github.com/vladimiradmaev/profile-switcher/internal/config"
	"github.com/vladimiradmaev/profile-switcher/internal/domain"
	"github.com/vladimiradmaev/profile-switcher/internal/services"
)

func main() {
	fmt.Println("🔍 Проверка конфигурации...")

	// Загружаем .env файл если есть
	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  .env файл не найден: %v\n", err)
	}

	// Загружаем и валидируем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Ошибка валидации конфигурации:\n%v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ Конфигурация валидна!")
	fmt.Printf("📋 Детали конфигурации:\n")
	fmt.Printf("  - Telegram Token: %s\n", maskToken(cfg.Telegram.Token))
	fmt.Printf("  - Allowed Users: %d\n", len(cfg.Telegram.AllowedUserIDs))
	fmt.Printf("  - DB Driver: %s\n", cfg.DB.Driver)
	if cfg.DB.Driver == "sqlite" {
		fmt.Printf("  - SQLite Path: %s\n", cfg.DB.SQLitePath)
	} else {
		fmt.Printf("  - DB Host: %s:%s\n", cfg.DB.Host, cfg.DB.Port)
		fmt.Printf("  - DB User: %s\n", cfg.DB.User)
		fmt.Printf("  - DB Password: %s\n", maskToken(cfg.DB.Password))
		fmt.Printf("  - DB Name: %s\n", cfg.DB.DBName)
	}
	fmt.Printf("  - Redis: %s\n", redisSummary(cfg.Redis))
	fmt.Printf("  - Log Level: %v\n", cfg.Logger.Level)
	fmt.Printf("  - Log Output: %s\n", cfg.Logger.OutputPath)
	fmt.Printf("  - Log Format: %s\n", cfg.Logger.Format)
	fmt.Printf("  - Timezone: %s\n", cfg.Profile.Timezone)
	fmt.Printf("  - Profile Cache: %d\n", cfg.Profile.CacheSize)
	fmt.Printf("  - Percentage Range: %d-%d%%\n", cfg.Limits.MinPercentage, cfg.Limits.MaxPercentage)
	fmt.Printf("  - Max Duration: %d мин\n", cfg.Limits.MaxDurationMinutes)
	fmt.Printf("  - Pump Basal: %.2f-%.2f Ед/ч, шаг %.2f\n", cfg.Pump.BasalMinimumRate, cfg.Pump.BasalMaximumRate, cfg.Pump.BasalStep)

	fmt.Printf("\n📚 Каталог профилей: %s\n", cfg.Profile.CataloguePath)
	definitions, err := catalogue.LoadFile(cfg.Profile.CataloguePath)
	if err != nil {
		fmt.Printf("❌ Ошибка каталога:\n%v\n", err)
		os.Exit(1)
	}

	checks, err := checkCatalogue(context.Background(), definitions, cfg)
	if err != nil {
		fmt.Printf("❌ Ошибка проверки каталога: %v\n", err)
		os.Exit(1)
	}

	failed := 0
	for _, check := range checks {
		if len(check.Problems) == 0 {
			fmt.Printf("  ✅ %s\n", check.Name)
			continue
		}
		failed++
		fmt.Printf("  ❌ %s:\n     %s\n", check.Name, strings.Join(check.Problems, "\n     "))
	}

	if failed > 0 {
		fmt.Printf("\n❌ Профилей с ошибками: %d из %d\n", failed, len(checks))
		os.Exit(1)
	}
	fmt.Printf("\n✅ Все профили прошли проверку (%d)\n", len(checks))
}

// profileCheck is the validation outcome of one catalogue profile
type profileCheck struct {
	Name     string
	Problems []string
}

// checkCatalogue validates the record a permanent 100% switch to each profile would commit
func checkCatalogue(ctx context.Context, definitions []domain.ProfileDefinition, cfg *config.Config) ([]profileCheck, error) {
	mem := catalogue.NewMemory(definitions...)
	factory := services.NewSwitchFactory(mem, nil, cfg)
	validator := services.NewSafetyValidator()

	names, err := mem.Names(ctx)
	if err != nil {
		return nil, err
	}
	checks := make([]profileCheck, 0, len(names))
	for _, name := range names {
		candidate, err := factory.Build(ctx, mem, name, 0, 100, 0, 0)
		if err != nil {
			return nil, err
		}
		verdict := validator.Validate(candidate, cfg.Capabilities(), cfg.HardLimits())
		checks = append(checks, profileCheck{Name: name, Problems: verdict.Messages()})
	}
	return checks, nil
}

func redisSummary(cfg config.RedisConfig) string {
	if cfg.Host == "" {
		return "<не используется, состояние в памяти>"
	}
	return cfg.Host + ":" + cfg.Port
}

func maskToken(token string) string {
	if token == "" {
		return "<не установлен>"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
