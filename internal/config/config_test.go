package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8090", cfg.HTTPPort)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.APIBaseURL)
	assert.Equal(t, "file", cfg.CacheBackend)
	assert.Equal(t, "orarsync-cache.json", cfg.CacheFile)
	assert.Equal(t, time.Minute, cfg.PollInterval)
	assert.Equal(t, 120, cfg.RateLimit)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://orar.example.com")
	t.Setenv("ACADEMIC_YEAR", "2")
	t.Setenv("SEMESTER", "semester2")
	t.Setenv("CYCLE_TYPE", "FR")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("POLL_INTERVAL", "30s")

	cfg := Load()

	assert.Equal(t, "https://orar.example.com", cfg.APIBaseURL)
	assert.Equal(t, 2, cfg.AcademicYear)
	assert.Equal(t, "semester2", cfg.Semester)
	assert.Equal(t, "FR", cfg.CycleType)
	assert.Equal(t, "redis", cfg.CacheBackend)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "soon")
	t.Setenv("ACADEMIC_YEAR", "first")

	cfg := Load()

	assert.Equal(t, time.Minute, cfg.PollInterval)
	assert.Zero(t, cfg.AcademicYear)
}
