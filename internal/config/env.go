package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "GATEPASS_"

// parseEnv overlays cfg with environment variables. Variables missing from
// the process environment are looked up in envFile, if it exists.
func parseEnv(cfg *Config, envFile string) {
	var fileVars map[string]string
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVars = vars
		case errors.Is(err, fs.ErrNotExist):
		default:
			panic(fmt.Errorf("read %s: %w", envFile, err))
		}
	}

	lookup := func(name string) (string, bool) {
		if v, ok := os.LookupEnv(name); ok {
			return v, true
		}
		v, ok := fileVars[name]
		return v, ok
	}

	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(envPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(fmt.Errorf("%s%s: %w", envPrefix, name, err))
			}
			*dst = d
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(envPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				panic(fmt.Errorf("%s%s: %w", envPrefix, name, err))
			}
			*dst = b
		}
	}

	if v, ok := lookup("DATABASE_URL"); ok {
		cfg.RemoteDSN = v
	}
	str("REMOTE_DSN", &cfg.RemoteDSN)
	str("LOCAL_DSN", &cfg.LocalDSN)
	dur("PROBE_INTERVAL", &cfg.ProbeInterval)
	dur("REMOTE_TIMEOUT", &cfg.RemoteTimeout)
	dur("NETWORK_POLL_INTERVAL", &cfg.NetworkPollInterval)
	if v, ok := lookup(envPrefix + "RECONCILE_RATE"); ok {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(fmt.Errorf("%sRECONCILE_RATE: %w", envPrefix, err))
		}
		cfg.ReconcileRate = r
	}
	if v, ok := lookup(envPrefix + "RECONCILE_BURST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("%sRECONCILE_BURST: %w", envPrefix, err))
		}
		cfg.ReconcileBurst = n
	}
	boolean("TOMBSTONE_DELETES", &cfg.TombstoneDeletes)
	boolean("REMOTE_MIGRATE", &cfg.RemoteMigrate)
	str("SESSION_SECRET", &cfg.SessionSecret)
	dur("SESSION_TTL", &cfg.SessionTTL)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("METRICS_ADDR", &cfg.MetricsAddr)
	str("EXPORT_DIR", &cfg.ExportDir)
	str("S3_BUCKET", &cfg.S3Bucket)
	str("S3_REGION", &cfg.S3Region)
	str("S3_ENDPOINT", &cfg.S3BaseEndpoint)
	str("S3_ACCESS_KEY", &cfg.S3AccessKey)
	str("S3_SECRET_KEY", &cfg.S3SecretKey)
}
