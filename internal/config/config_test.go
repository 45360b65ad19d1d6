package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("TEST_SIMRS_KEY", "k-123")
	dbPath := filepath.Join(t.TempDir(), "nested", "db.sqlite")

	path := writeConfig(t, `
simrs:
  base_url: http://simrs.local/api
  api_key: ${TEST_SIMRS_KEY}
database:
  path: `+dbPath+`
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "k-123", cfg.SIMRS.APIKey)
	assert.Equal(t, "Asia/Jakarta", cfg.Timezone)
	assert.Equal(t, "Asia/Jakarta", cfg.Location().String())
	assert.Equal(t, 10*time.Second, cfg.SIMRSTimeout())
	assert.Equal(t, 30*time.Second, cfg.PollInterval())
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout())
	assert.Equal(t, 1, cfg.Booking.MinDaysAhead)
	assert.Equal(t, 14, cfg.Booking.MaxDaysAhead)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 24*time.Hour, cfg.BackupInterval())
	assert.Equal(t, time.Minute, cfg.DirectoryRetryAfter())
	assert.Equal(t, time.Duration(0), cfg.DoctorCacheTTL())
	assert.False(t, cfg.Queue.DiscardStale)

	_, err = os.Stat(filepath.Dir(dbPath))
	assert.NoError(t, err, "database directory is created")
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
timezone: Asia/Makassar
simrs:
  base_url: http://simrs.local
database:
  path: `+filepath.Join(t.TempDir(), "db.sqlite")+`
queue:
  poll_interval_seconds: 10
  discard_stale: true
booking:
  min_days_ahead: 2
  max_days_ahead: 30
cache:
  doctor_ttl_seconds: 300
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Makassar", cfg.Location().String())
	assert.Equal(t, 10*time.Second, cfg.PollInterval())
	assert.True(t, cfg.Queue.DiscardStale)
	assert.Equal(t, 2, cfg.Booking.MinDaysAhead)
	assert.Equal(t, 30, cfg.Booking.MaxDaysAhead)
	assert.Equal(t, 5*time.Minute, cfg.DoctorCacheTTL())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing base url", body: "timezone: Asia/Jakarta\n"},
		{name: "bad timezone", body: "timezone: Mars/Olympus\nsimrs:\n  base_url: http://x\n"},
		{name: "inverted window", body: "simrs:\n  base_url: http://x\nbooking:\n  min_days_ahead: 10\n  max_days_ahead: 3\n"},
		{name: "malformed yaml", body: "simrs: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
