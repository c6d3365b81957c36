package config

import (
	"errors"
	"io/fs"
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
	CORS      CORSConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Reports   ReportsConfig
	Metrics   MetricsConfig
}

type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MigrateOnStart bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig holds the credit policy, teaching window and async run settings.
type SchedulerConfig struct {
	MaxCredits        float64
	DefaultMinCredits float64
	OverloadFactor    float64
	TeachingDayStart  string
	TeachingDayEnd    string
	RandomSeed        int64

	WorkerEnabled bool
	JobTries      int
	JobTimeout    time.Duration
	JobQueueKey   string
	EventsChannel string
}

// ReportsConfig governs caching of schedule reports.
type ReportsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
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
		Host:           v.GetString("DB_HOST"),
		Port:           v.GetInt("DB_PORT"),
		User:           v.GetString("DB_USER"),
		Password:       v.GetString("DB_PASSWORD"),
		Name:           v.GetString("DB_NAME"),
		SSLMode:        v.GetString("DB_SSL_MODE"),
		MaxOpenConns:   v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:   v.GetInt("DB_MAX_IDLE_CONNS"),
		MigrateOnStart: v.GetBool("DB_MIGRATE_ON_START"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	jobTries := v.GetInt("SCHEDULER_JOB_TRIES")
	if jobTries <= 0 {
		jobTries = 3
	}
	cfg.Scheduler = SchedulerConfig{
		MaxCredits:        v.GetFloat64("SCHEDULER_MAX_CREDITS"),
		DefaultMinCredits: v.GetFloat64("SCHEDULER_DEFAULT_MIN_CREDITS"),
		OverloadFactor:    v.GetFloat64("SCHEDULER_OVERLOAD_FACTOR"),
		TeachingDayStart:  v.GetString("SCHEDULER_TEACHING_DAY_START"),
		TeachingDayEnd:    v.GetString("SCHEDULER_TEACHING_DAY_END"),
		RandomSeed:        v.GetInt64("SCHEDULER_RANDOM_SEED"),
		WorkerEnabled:     v.GetBool("SCHEDULER_WORKER_ENABLED"),
		JobTries:          jobTries,
		JobTimeout:        parseDuration(v.GetString("SCHEDULER_JOB_TIMEOUT"), 600*time.Second),
		JobQueueKey:       v.GetString("SCHEDULER_JOB_QUEUE_KEY"),
		EventsChannel:     v.GetString("SCHEDULER_EVENTS_CHANNEL"),
	}

	cfg.Reports = ReportsConfig{
		CacheEnabled: v.GetBool("ENABLE_REPORT_CACHE"),
		CacheTTL:     parseDuration(v.GetString("SCHEDULER_REPORT_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

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
	v.SetDefault("DB_NAME", "section_allocator")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MIGRATE_ON_START", false)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULER_MAX_CREDITS", 18.0)
	v.SetDefault("SCHEDULER_DEFAULT_MIN_CREDITS", 12.0)
	v.SetDefault("SCHEDULER_OVERLOAD_FACTOR", 1.5)
	v.SetDefault("SCHEDULER_TEACHING_DAY_START", "08:30")
	v.SetDefault("SCHEDULER_TEACHING_DAY_END", "17:30")
	v.SetDefault("SCHEDULER_RANDOM_SEED", 0)
	v.SetDefault("SCHEDULER_WORKER_ENABLED", true)
	v.SetDefault("SCHEDULER_JOB_TRIES", 3)
	v.SetDefault("SCHEDULER_JOB_TIMEOUT", "600s")
	v.SetDefault("SCHEDULER_JOB_QUEUE_KEY", "scheduler:jobs")
	v.SetDefault("SCHEDULER_EVENTS_CHANNEL", "scheduler:events")

	v.SetDefault("ENABLE_REPORT_CACHE", true)
	v.SetDefault("SCHEDULER_REPORT_CACHE_TTL", "10m")
	v.SetDefault("ENABLE_METRICS", true)
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
