// Package bootstrap assembles the repositories and services shared by the API and the CLI.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/section-allocator/internal/models"
	"github.com/noah-isme/section-allocator/internal/repository"
	"github.com/noah-isme/section-allocator/internal/scheduler"
	"github.com/noah-isme/section-allocator/internal/service"
	"github.com/noah-isme/section-allocator/pkg/cache"
	"github.com/noah-isme/section-allocator/pkg/config"
	"github.com/noah-isme/section-allocator/pkg/database"
	"github.com/noah-isme/section-allocator/pkg/jobs"
)

// Container owns the process-wide dependencies.
type Container struct {
	DB          *sqlx.DB
	Redis       *redis.Client
	Metrics     *service.MetricsService
	Departments *repository.DepartmentRepository
	Scheduler   *service.SchedulerService
	Exports     *service.ExportService
	Jobs        *service.ScheduleJobService
}

// Options selects optional parts of the container.
type Options struct {
	// RequireRedis fails the build when Redis is unreachable instead of running without cache and jobs.
	RequireRedis bool
}

// EngineConfig maps scheduler settings onto the engine configuration.
func EngineConfig(cfg config.SchedulerConfig) (scheduler.Config, error) {
	engineCfg := scheduler.DefaultConfig()
	if cfg.MaxCredits > 0 {
		engineCfg.MaxCredits = cfg.MaxCredits
	}
	if cfg.DefaultMinCredits > 0 {
		engineCfg.DefaultMinCredits = cfg.DefaultMinCredits
	}
	if cfg.OverloadFactor > 0 {
		engineCfg.OverloadFactor = cfg.OverloadFactor
	}
	if cfg.TeachingDayStart != "" {
		start, err := models.ParseTimeOfDay(cfg.TeachingDayStart)
		if err != nil {
			return engineCfg, fmt.Errorf("teaching day start: %w", err)
		}
		engineCfg.DayStart = start
	}
	if cfg.TeachingDayEnd != "" {
		end, err := models.ParseTimeOfDay(cfg.TeachingDayEnd)
		if err != nil {
			return engineCfg, fmt.Errorf("teaching day end: %w", err)
		}
		engineCfg.DayEnd = end
	}
	if engineCfg.DayEnd <= engineCfg.DayStart {
		return engineCfg, fmt.Errorf("teaching day end %s is not after start %s", engineCfg.DayEnd, engineCfg.DayStart)
	}
	engineCfg.RandomSeed = cfg.RandomSeed
	return engineCfg, nil
}

// Build connects to Postgres and Redis and wires every service.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	engineCfg, err := EngineConfig(cfg.Scheduler)
	if err != nil {
		return nil, err
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.MigrateOnStart {
		if err := database.RunMigrations(db.DB, logger); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		if opts.RequireRedis {
			_ = db.Close()
			return nil, err
		}
		logger.Warn("redis unavailable; report cache, async runs and events disabled", zap.Error(err))
		redisClient = nil
	}

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}
	validate := validator.New()

	cacheRepo := repository.NewCacheRepository(redisClient, logger)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Reports.CacheTTL, logger, cfg.Reports.CacheEnabled && redisClient != nil)

	var events interface {
		Publish(ctx context.Context, channel string, payload interface{}) error
	}
	if redisClient != nil {
		events = cacheRepo
	}

	engine := scheduler.NewEngine(engineCfg, logger)
	schedulerSvc := service.NewSchedulerService(
		repository.NewSemesterRepository(db),
		repository.NewCourseRepository(db),
		repository.NewInstructorRepository(db),
		repository.NewPreferenceRepository(db),
		repository.NewSectionRepository(db),
		db,
		engine,
		cacheSvc,
		events,
		metrics,
		validate,
		logger,
		service.SchedulerServiceConfig{ReportTTL: cfg.Reports.CacheTTL, EventsChannel: cfg.Scheduler.EventsChannel},
	)

	c := &Container{
		DB:          db,
		Redis:       redisClient,
		Metrics:     metrics,
		Departments: repository.NewDepartmentRepository(db),
		Scheduler:   schedulerSvc,
		Exports:     service.NewExportService(schedulerSvc, logger),
	}
	if redisClient != nil {
		c.Jobs = service.NewScheduleJobService(
			jobs.NewRedisList(redisClient, cfg.Scheduler.JobQueueKey),
			schedulerSvc,
			metrics,
			validate,
			logger,
			service.ScheduleJobConfig{Tries: cfg.Scheduler.JobTries, Timeout: cfg.Scheduler.JobTimeout},
		)
	}
	return c, nil
}

// Close releases the database and Redis connections.
func (c *Container) Close() error {
	var firstErr error
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			firstErr = err
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RedisPinger adapts a Redis client to the readiness probe.
type RedisPinger struct {
	Client *redis.Client
}

// PingContext pings Redis.
func (p RedisPinger) PingContext(ctx context.Context) error {
	return p.Client.Ping(ctx).Err()
}
