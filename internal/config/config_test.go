package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "DB_DRIVER", "EXAM_MAX_ATTEMPTS", "KNOWN_COURSES", "EXAM_CACHE_TTL", "LOG_MODE", "ENABLE_LOCAL_AUTH"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	assert.Equal(t, ModeOffline, c.Mode)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 3, c.ExamMaxAttempts)
	assert.Equal(t, []string{"foundation", "intermediate", "advanced"}, c.KnownCourses)
	assert.Equal(t, 10*time.Minute, c.ExamCacheTTL)
	assert.Equal(t, "development", c.LogMode)
	assert.True(t, c.EnableLocalAuth)
	assert.Equal(t, c.CORSOriginsOffline, c.CORSOrigins())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("PUBLIC_URL", "https://academy.example.org/")
	t.Setenv("EXAM_MAX_ATTEMPTS", "5")
	t.Setenv("KNOWN_COURSES", " foundation , , advanced")
	t.Setenv("EXAM_CACHE_TTL", "90s")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("LOG_MODE", "")
	t.Setenv("ENABLE_LOCAL_AUTH", "")

	c := FromEnv()
	assert.Equal(t, ModeOnline, c.Mode)
	assert.Equal(t, "https://academy.example.org", c.PublicURL)
	assert.Equal(t, 5, c.ExamMaxAttempts)
	assert.Equal(t, []string{"foundation", "advanced"}, c.KnownCourses)
	assert.Equal(t, 90*time.Second, c.ExamCacheTTL)
	assert.Equal(t, 0, c.RedisDB)
	assert.Equal(t, "production", c.LogMode)
	assert.False(t, c.EnableLocalAuth)
	assert.Equal(t, c.CORSOriginsOnline, c.CORSOrigins())
}

func TestLoadReadsDotEnvWithoutOverriding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("EXAM_MAX_ATTEMPTS=7\nHTTP_ADDR=:9999\n"), 0o600))
	t.Setenv("HTTP_ADDR", ":7000")
	t.Setenv("EXAM_MAX_ATTEMPTS", "")
	require.NoError(t, os.Unsetenv("EXAM_MAX_ATTEMPTS"))

	c := Load(path)
	assert.Equal(t, 7, c.ExamMaxAttempts)
	assert.Equal(t, ":7000", c.HTTPAddr)
	require.NoError(t, os.Unsetenv("EXAM_MAX_ATTEMPTS"))
}
