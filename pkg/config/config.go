package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	JWT       JWTConfig
	Owner     OwnerConfig
	CORS      CORSConfig
	Log       LogConfig
	Site      SiteConfig
	Publish   PublishConfig
	Scheduler SchedulerConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig toggles the Redis schedule cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// OwnerConfig describes the single account allowed to edit site content.
type OwnerConfig struct {
	Email        string
	PasswordHash string
	FullName     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SiteConfig governs rendered page storage and calendar defaults.
type SiteConfig struct {
	Timezone        string
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
	OfficeHours     []string
	GridDayStart    string
	GridDayEnd      string
	GridSlotMinutes int
}

// PublishConfig sizes the background page publisher.
type PublishConfig struct {
	Workers    int
	MaxRetries int
	StatusTTL  time.Duration
}

// SchedulerConfig controls how configuration mistakes in assignment rules surface.
type SchedulerConfig struct {
	StrictAssignments bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 15*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Owner = OwnerConfig{
		Email:        v.GetString("OWNER_EMAIL"),
		PasswordHash: v.GetString("OWNER_PASSWORD_HASH"),
		FullName:     v.GetString("OWNER_NAME"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Site = SiteConfig{
		Timezone:        v.GetString("SITE_TIMEZONE"),
		StorageDir:      v.GetString("SITE_STORAGE_DIR"),
		SignedURLSecret: v.GetString("SITE_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("SITE_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("SITE_CLEANUP_INTERVAL"), time.Hour),
		OfficeHours:     splitAndTrim(v.GetString("OFFICE_HOURS")),
		GridDayStart:    v.GetString("GRID_DAY_START"),
		GridDayEnd:      v.GetString("GRID_DAY_END"),
		GridSlotMinutes: v.GetInt("GRID_SLOT_MINUTES"),
	}

	cfg.Publish = PublishConfig{
		Workers:    v.GetInt("PUBLISH_WORKERS"),
		MaxRetries: v.GetInt("PUBLISH_RETRIES"),
		StatusTTL:  parseDuration(v.GetString("PUBLISH_STATUS_TTL"), 6*time.Hour),
	}

	cfg.Scheduler = SchedulerConfig{
		StrictAssignments: v.GetBool("SCHEDULER_STRICT_ASSIGNMENTS"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "course_site")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "15m")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "course-site-api")

	v.SetDefault("OWNER_EMAIL", "owner@example.edu")
	v.SetDefault("OWNER_PASSWORD_HASH", "")
	v.SetDefault("OWNER_NAME", "Site Owner")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SITE_TIMEZONE", "America/New_York")
	v.SetDefault("SITE_STORAGE_DIR", "./public")
	v.SetDefault("SITE_SIGNED_URL_SECRET", "dev_site_secret")
	v.SetDefault("SITE_SIGNED_URL_TTL", "24h")
	v.SetDefault("SITE_CLEANUP_INTERVAL", "1h")
	v.SetDefault("OFFICE_HOURS", "")
	v.SetDefault("GRID_DAY_START", "08:00")
	v.SetDefault("GRID_DAY_END", "18:00")
	v.SetDefault("GRID_SLOT_MINUTES", 30)

	v.SetDefault("PUBLISH_WORKERS", 1)
	v.SetDefault("PUBLISH_RETRIES", 3)
	v.SetDefault("PUBLISH_STATUS_TTL", "6h")

	v.SetDefault("SCHEDULER_STRICT_ASSIGNMENTS", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
