package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaultsCoverSchedulerPolicy(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, 18.0, cfg.Scheduler.MaxCredits)
	assert.Equal(t, 12.0, cfg.Scheduler.DefaultMinCredits)
	assert.Equal(t, 1.5, cfg.Scheduler.OverloadFactor)
	assert.Equal(t, "08:30", cfg.Scheduler.TeachingDayStart)
	assert.Equal(t, "17:30", cfg.Scheduler.TeachingDayEnd)
	assert.Equal(t, 3, cfg.Scheduler.JobTries)
	assert.Equal(t, 600*time.Second, cfg.Scheduler.JobTimeout)
	assert.Equal(t, "scheduler:events", cfg.Scheduler.EventsChannel)
	assert.Equal(t, 10*time.Minute, cfg.Reports.CacheTTL)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("SCHEDULER_MAX_CREDITS", "21")
	t.Setenv("SCHEDULER_JOB_TRIES", "0")
	t.Setenv("SCHEDULER_JOB_TIMEOUT", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, 21.0, cfg.Scheduler.MaxCredits)
	assert.Equal(t, 3, cfg.Scheduler.JobTries)
	assert.Equal(t, 600*time.Second, cfg.Scheduler.JobTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}
