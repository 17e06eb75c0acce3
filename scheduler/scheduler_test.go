package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"persona_analyzer/config"
)

func TestGetNextTimePoint(t *testing.T) {
	now := time.Date(2023, 5, 10, 14, 30, 0, 0, time.UTC)

	// 目标时间点还没过，当天执行
	next := getNextTimePoint(now, 18, 0)
	assert.Equal(t, time.Date(2023, 5, 10, 18, 0, 0, 0, time.UTC), next)

	// 目标时间点已过，顺延到第二天
	next = getNextTimePoint(now, 2, 30)
	assert.Equal(t, time.Date(2023, 5, 11, 2, 30, 0, 0, time.UTC), next)
}

func TestValidateHourMinute(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scheduler.DefaultHour = 2
	cfg.Scheduler.DefaultMinute = 30

	hour, minute := validateHourMinute(cfg, 18, 45)
	assert.Equal(t, 18, hour)
	assert.Equal(t, 45, minute)

	// 越界的值回退到默认
	hour, minute = validateHourMinute(cfg, 25, -1)
	assert.Equal(t, 2, hour)
	assert.Equal(t, 30, minute)
}

func TestSecondsToDuration(t *testing.T) {
	assert.Equal(t, 90*time.Second, secondsToDuration(90))
}
