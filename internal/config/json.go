package config

import (
	"encoding/json"
	"os"

	"github.com/gatepass/gatepass/internal/flagx"
	"github.com/gatepass/gatepass/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Pointer fields tell
// "absent" apart from the zero value so a file only overrides what it sets.
type JsonConfig struct {
	RemoteDSN           *string         `json:"remote_dsn"`
	LocalDSN            *string         `json:"local_dsn"`
	ProbeInterval       *timex.Duration `json:"probe_interval"`
	RemoteTimeout       *timex.Duration `json:"remote_timeout"`
	NetworkPollInterval *timex.Duration `json:"network_poll_interval"`
	ReconcileRate       *float64        `json:"reconcile_rate"`
	ReconcileBurst      *int            `json:"reconcile_burst"`
	TombstoneDeletes    *bool           `json:"tombstone_deletes"`
	RemoteMigrate       *bool           `json:"remote_migrate"`
	SessionSecret       *string         `json:"session_secret"`
	SessionTTL          *timex.Duration `json:"session_ttl"`
	LogLevel            *string         `json:"log_level"`
	LogFormat           *string         `json:"log_format"`
	MetricsAddr         *string         `json:"metrics_addr"`
	ExportDir           *string         `json:"export_dir"`
	S3Bucket            *string         `json:"s3_bucket"`
	S3Region            *string         `json:"s3_region"`
	S3BaseEndpoint      *string         `json:"s3_endpoint"`
	S3AccessKey         *string         `json:"s3_access_key"`
	S3SecretKey         *string         `json:"s3_secret_key"`
}

// parseJson overlays cfg with the file named by -c/-config, if any.
// Read and decode errors panic.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}
	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.RemoteDSN, jc.RemoteDSN)
	setString(&cfg.LocalDSN, jc.LocalDSN)
	if jc.ProbeInterval != nil {
		cfg.ProbeInterval = jc.ProbeInterval.Duration
	}
	if jc.RemoteTimeout != nil {
		cfg.RemoteTimeout = jc.RemoteTimeout.Duration
	}
	if jc.NetworkPollInterval != nil {
		cfg.NetworkPollInterval = jc.NetworkPollInterval.Duration
	}
	if jc.ReconcileRate != nil {
		cfg.ReconcileRate = *jc.ReconcileRate
	}
	if jc.ReconcileBurst != nil {
		cfg.ReconcileBurst = *jc.ReconcileBurst
	}
	if jc.TombstoneDeletes != nil {
		cfg.TombstoneDeletes = *jc.TombstoneDeletes
	}
	if jc.RemoteMigrate != nil {
		cfg.RemoteMigrate = *jc.RemoteMigrate
	}
	setString(&cfg.SessionSecret, jc.SessionSecret)
	if jc.SessionTTL != nil {
		cfg.SessionTTL = jc.SessionTTL.Duration
	}
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.MetricsAddr, jc.MetricsAddr)
	setString(&cfg.ExportDir, jc.ExportDir)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
