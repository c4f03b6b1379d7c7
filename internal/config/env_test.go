package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func Test_parseEnv(t *testing.T) {
	t.Run("process environment", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://db/app")
		t.Setenv("GATEPASS_PROBE_INTERVAL", "45s")
		t.Setenv("GATEPASS_TOMBSTONE_DELETES", "false")
		t.Setenv("GATEPASS_RECONCILE_RATE", "2.5")
		t.Setenv("GATEPASS_RECONCILE_BURST", "9")

		cfg := &Config{}
		cfg.LoadDefaults()
		parseEnv(cfg, "")

		assert.Equal(t, "postgres://db/app", cfg.RemoteDSN)
		assert.Equal(t, 45*time.Second, cfg.ProbeInterval)
		assert.False(t, cfg.TombstoneDeletes)
		assert.Equal(t, 2.5, cfg.ReconcileRate)
		assert.Equal(t, 9, cfg.ReconcileBurst)
	})

	t.Run("GATEPASS_REMOTE_DSN wins over DATABASE_URL", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://generic")
		t.Setenv("GATEPASS_REMOTE_DSN", "postgres://specific")

		cfg := &Config{}
		parseEnv(cfg, "")
		assert.Equal(t, "postgres://specific", cfg.RemoteDSN)
	})

	t.Run("dotenv file fills gaps only", func(t *testing.T) {
		dir := t.TempDir()
		env := writeFile(t, dir, ".env", "GATEPASS_S3_BUCKET=file-bucket\nGATEPASS_LOG_FORMAT=json\n")
		t.Setenv("GATEPASS_S3_BUCKET", "real-bucket")

		cfg := &Config{}
		parseEnv(cfg, env)
		assert.Equal(t, "real-bucket", cfg.S3Bucket)
		assert.Equal(t, "json", cfg.LogFormat)
	})

	t.Run("missing dotenv file is ignored", func(t *testing.T) {
		cfg := &Config{LocalDSN: "keep.db"}
		require.NotPanics(t, func() { parseEnv(cfg, filepath.Join(t.TempDir(), "absent.env")) })
		assert.Equal(t, "keep.db", cfg.LocalDSN)
	})

	t.Run("bad duration panics", func(t *testing.T) {
		t.Setenv("GATEPASS_REMOTE_TIMEOUT", "ten seconds")
		require.Panics(t, func() { parseEnv(&Config{}, "") })
	})

	t.Run("bad bool panics", func(t *testing.T) {
		t.Setenv("GATEPASS_REMOTE_MIGRATE", "maybe")
		require.Panics(t, func() { parseEnv(&Config{}, "") })
	})
}
