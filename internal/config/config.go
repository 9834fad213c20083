package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vladimiradmaev/profile-switcher/internal/domain"
	apperrors "github.com/vladimiradmaev/profile-switcher/internal/errors"
	"github.com/vladimiradmaev/profile-switcher/internal/logger"
)

type Config struct {
	Telegram TelegramConfig
	DB       DBConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Profile  ProfileConfig
	Limits   domain.HardLimits
	Pump     domain.PumpCapabilities
	Insulin  InsulinConfig
}

type TelegramConfig struct {
	Token          string
	AllowedUserIDs []int64
}

type DBConfig struct {
	Driver     string // "postgres" or "sqlite"
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

type RedisConfig struct {
	Host string
	Port string
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string
	Format     string
}

type ProfileConfig struct {
	CataloguePath string
	CacheSize     int
	Timezone      *time.Location
}

type InsulinConfig struct {
	Label       string
	PeakMinutes int
}

// HardLimits implements domain.LimitsProvider
func (c *Config) HardLimits() domain.HardLimits {
	return c.Limits
}

// Capabilities implements domain.PumpProvider
func (c *Config) Capabilities() domain.PumpCapabilities {
	return c.Pump
}

// InsulinConfiguration implements domain.InsulinProvider. EndMillis is filled in per profile.
func (c *Config) InsulinConfiguration() domain.InsulinConfiguration {
	return domain.InsulinConfiguration{
		Label:      c.Insulin.Label,
		PeakMillis: int64(c.Insulin.PeakMinutes) * int64(time.Minute/time.Millisecond),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envReader parses typed environment values and records every malformed one
type envReader struct {
	problems []string
}

func (r *envReader) invalid(key, value, kind string) {
	r.problems = append(r.problems, fmt.Sprintf("invalid %s %q: expected %s", key, value, kind))
}

func (r *envReader) getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		r.invalid(key, value, "an integer")
		return defaultValue
	}
	return parsed
}

func (r *envReader) getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		r.invalid(key, value, "a number")
		return defaultValue
	}
	return parsed
}

func (r *envReader) getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		r.invalid(key, value, "a boolean")
		return defaultValue
	}
	return parsed
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.LevelDebug
	case "info":
		return logger.LevelInfo
	case "warn", "warning":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

func parseUserIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram user id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func Load() (*Config, error) {
	var problems []string
	env := &envReader{}

	userIDs, err := parseUserIDs(os.Getenv("TELEGRAM_ALLOWED_USERS"))
	if err != nil {
		problems = append(problems, err.Error())
	}

	tzName := getEnvOrDefault("PROFILE_TIMEZONE", "Local")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		problems = append(problems, fmt.Sprintf("invalid PROFILE_TIMEZONE %q", tzName))
		tz = time.Local
	}

	cfg := &Config{
		Telegram: TelegramConfig{
			Token:          os.Getenv("TELEGRAM_BOT_TOKEN"),
			AllowedUserIDs: userIDs,
		},
		DB: DBConfig{
			Driver:     getEnvOrDefault("DB_DRIVER", "postgres"),
			Host:       getEnvOrDefault("DB_HOST", "localhost"),
			Port:       getEnvOrDefault("DB_PORT", "5432"),
			User:       getEnvOrDefault("DB_USER", "postgres"),
			Password:   getEnvOrDefault("DB_PASSWORD", "postgres"),
			DBName:     getEnvOrDefault("DB_NAME", "profile_switcher"),
			SQLitePath: getEnvOrDefault("DB_SQLITE_PATH", "data/profiles.db"),
		},
		Redis: RedisConfig{
			Host: os.Getenv("REDIS_HOST"),
			Port: getEnvOrDefault("REDIS_PORT", "6379"),
		},
		Logger: LoggerConfig{
			Level:      parseLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "logs/app.log"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
		},
		Profile: ProfileConfig{
			CataloguePath: getEnvOrDefault("PROFILE_CATALOGUE", "profiles.yaml"),
			// Four hours of second-granularity lookups
			CacheSize: env.getEnvInt("PROFILE_CACHE_SIZE", 4*3600),
			Timezone:  tz,
		},
		Limits: domain.HardLimits{
			MinPercentage:      env.getEnvInt("LIMIT_MIN_PERCENTAGE", 30),
			MaxPercentage:      env.getEnvInt("LIMIT_MAX_PERCENTAGE", 250),
			MaxDurationMinutes: env.getEnvInt("LIMIT_MAX_DURATION_MINUTES", 7*24*60),
			MinISF:             env.getEnvFloat("LIMIT_MIN_ISF", 2),
			MaxISF:             env.getEnvFloat("LIMIT_MAX_ISF", 1000),
			MinIC:              env.getEnvFloat("LIMIT_MIN_IC", 2),
			MaxIC:              env.getEnvFloat("LIMIT_MAX_IC", 100),
			MinTarget:          env.getEnvFloat("LIMIT_MIN_TARGET", 80),
			MaxTarget:          env.getEnvFloat("LIMIT_MAX_TARGET", 200),
			MinDIA:             env.getEnvFloat("LIMIT_MIN_DIA", 5),
			MaxDIA:             env.getEnvFloat("LIMIT_MAX_DIA", 10),
			MaxBasal:           env.getEnvFloat("LIMIT_MAX_BASAL", 10),
		},
		Pump: domain.PumpCapabilities{
			BasalStep:        env.getEnvFloat("PUMP_BASAL_STEP", 0.01),
			BasalMinimumRate: env.getEnvFloat("PUMP_BASAL_MIN", 0.04),
			BasalMaximumRate: env.getEnvFloat("PUMP_BASAL_MAX", 25),
			HourlyBasalOnly:  env.getEnvBool("PUMP_HOURLY_BASAL_ONLY", false),
		},
		Insulin: InsulinConfig{
			Label:       getEnvOrDefault("INSULIN_LABEL", "Rapid-Acting Oref"),
			PeakMinutes: env.getEnvInt("INSULIN_PEAK_MINUTES", 75),
		},
	}

	problems = append(problems, env.problems...)
	problems = append(problems, cfg.validate()...)
	if len(problems) > 0 {
		return nil, apperrors.NewConfigError(strings.Join(problems, "; "))
	}
	return cfg, nil
}

func (c *Config) validate() []string {
	var problems []string

	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("unsupported DB_DRIVER %q", c.DB.Driver))
	}
	if c.Profile.CacheSize <= 0 {
		problems = append(problems, "PROFILE_CACHE_SIZE must be positive")
	}

	l := c.Limits
	if l.MinPercentage <= 0 || l.MinPercentage > l.MaxPercentage {
		problems = append(problems, "percentage limits must satisfy 0 < min <= max")
	}
	if l.MaxDurationMinutes <= 0 {
		problems = append(problems, "LIMIT_MAX_DURATION_MINUTES must be positive")
	}
	if l.MinISF > l.MaxISF || l.MinIC > l.MaxIC || l.MinTarget > l.MaxTarget || l.MinDIA > l.MaxDIA {
		problems = append(problems, "min limits must not exceed max limits")
	}
	if c.Pump.BasalStep <= 0 {
		problems = append(problems, "PUMP_BASAL_STEP must be positive")
	}
	if c.Pump.BasalMinimumRate > c.Pump.BasalMaximumRate {
		problems = append(problems, "PUMP_BASAL_MIN must not exceed PUMP_BASAL_MAX")
	}

	return problems
}
