package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("HOLD_TIMEOUT", "")

	cfg := Load()
	assert.Equal(t, "json", cfg.StoreDriver)
	assert.Equal(t, 10*time.Minute, cfg.HoldTimeout)
	assert.Equal(t, 24*time.Hour, cfg.ReservationTTL)
	assert.False(t, cfg.EnforceWindows)
	assert.Equal(t, "local", cfg.LockBackend)
	assert.Equal(t, "logs/booking.log", cfg.BookingLogPath)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("HOLD_TIMEOUT", "90s")
	t.Setenv("ENFORCE_BOOKING_WINDOWS", "yes")
	t.Setenv("LOCK_BACKEND", "REDIS")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")

	cfg := Load()
	assert.Equal(t, 90*time.Second, cfg.HoldTimeout)
	assert.True(t, cfg.EnforceWindows)
	assert.Equal(t, "redis", cfg.LockBackend)
	assert.Equal(t, 15, cfg.AccessTTLMin)
}

func TestValidate(t *testing.T) {
	ok := Config{StoreDriver: "json", LockBackend: "local", HoldTimeout: time.Minute, ReservationTTL: time.Hour, SweepInterval: time.Second, AccessTTLMin: 1}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.StoreDriver = "sqlite"
	assert.Error(t, bad.Validate())

	bad = ok
	bad.LockBackend = "etcd"
	assert.Error(t, bad.Validate())

	bad = ok
	bad.HoldTimeout = 0
	assert.Error(t, bad.Validate())
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "off")
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "2m")
	assert.False(t, envBool("X_BOOL", true))
	assert.Equal(t, 7, envInt("X_INT", 7))
	assert.Equal(t, 2*time.Minute, envDur("X_DUR", time.Second))
	assert.Equal(t, "d", envStr("X_MISSING", "d"))
}

func TestRateLimitConfig_Floors(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "10s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 50*time.Second, cfg.TTL)
}

func TestNewLogger(t *testing.T) {
	log := Config{LogLevel: "debug", LogFormat: "json"}.NewLogger()
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}
