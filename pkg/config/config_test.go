package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	require.NotNil(t, cfg)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "America/New_York", cfg.Site.Timezone)
	assert.Equal(t, 30, cfg.Site.GridSlotMinutes)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.True(t, cfg.Scheduler.StrictAssignments)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Nil(t, cfg.Site.OfficeHours)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("OFFICE_HOURS", "MON 10:00-11:00, WED 14:00-15:30,")
	v.Set("SCHEDULER_STRICT_ASSIGNMENTS", false)
	v.Set("CACHE_TTL", "not-a-duration")
	v.Set("SITE_SIGNED_URL_TTL", "2h")

	cfg := fromViper(v)
	assert.Equal(t, []string{"MON 10:00-11:00", "WED 14:00-15:30"}, cfg.Site.OfficeHours)
	assert.False(t, cfg.Scheduler.StrictAssignments)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 2*time.Hour, cfg.Site.SignedURLTTL)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a , ,b "))
}
