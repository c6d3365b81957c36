package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/section-allocator/internal/models"
	"github.com/noah-isme/section-allocator/internal/scheduler"
	"github.com/noah-isme/section-allocator/pkg/config"
)

func TestEngineConfigDefaults(t *testing.T) {
	cfg, err := EngineConfig(config.SchedulerConfig{})
	require.NoError(t, err)
	assert.Equal(t, scheduler.DefaultConfig(), cfg)
}

func TestEngineConfigOverrides(t *testing.T) {
	cfg, err := EngineConfig(config.SchedulerConfig{
		MaxCredits:        21,
		DefaultMinCredits: 9,
		OverloadFactor:    2,
		TeachingDayStart:  "08:00",
		TeachingDayEnd:    "18:00:00",
		RandomSeed:        7,
	})
	require.NoError(t, err)
	assert.Equal(t, 21.0, cfg.MaxCredits)
	assert.Equal(t, 9.0, cfg.DefaultMinCredits)
	assert.Equal(t, 2.0, cfg.OverloadFactor)
	assert.Equal(t, models.MustTimeOfDay("08:00"), cfg.DayStart)
	assert.Equal(t, models.MustTimeOfDay("18:00"), cfg.DayEnd)
	assert.Equal(t, int64(7), cfg.RandomSeed)
}

func TestEngineConfigRejectsBadWindow(t *testing.T) {
	_, err := EngineConfig(config.SchedulerConfig{TeachingDayStart: "nine"})
	assert.Error(t, err)

	_, err = EngineConfig(config.SchedulerConfig{TeachingDayStart: "17:30", TeachingDayEnd: "08:30"})
	assert.Error(t, err)
}
