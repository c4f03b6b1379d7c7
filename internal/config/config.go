package config

import (
	"errors"
	"os"
	"time"
)

// Config holds runtime settings of the sync layer and the CLI around it.
type Config struct {
	RemoteDSN string
	LocalDSN  string

	ProbeInterval       time.Duration
	RemoteTimeout       time.Duration
	NetworkPollInterval time.Duration

	ReconcileRate  float64
	ReconcileBurst int

	// TombstoneDeletes records failed or offline remote deletes so that
	// reconciliation can replay them. When false a delete only removes the
	// local copy and a failed remote delete is forgotten.
	TombstoneDeletes bool
	RemoteMigrate    bool

	SessionSecret string
	SessionTTL    time.Duration

	LogLevel    string
	LogFormat   string
	MetricsAddr string

	ExportDir      string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.RemoteDSN = ""
	c.LocalDSN = "gatepass.db"
	c.ProbeInterval = 30 * time.Second
	c.RemoteTimeout = 10 * time.Second
	c.NetworkPollInterval = 5 * time.Second
	c.ReconcileRate = 20
	c.ReconcileBurst = 5
	c.TombstoneDeletes = true
	c.RemoteMigrate = false
	c.SessionSecret = "change-me"
	c.SessionTTL = 12 * time.Hour
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.MetricsAddr = ""
	c.ExportDir = "."
	c.S3Region = "us-east-1"
}

// Validate rejects settings the sync layer cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.LocalDSN == "" {
		errs = append(errs, errors.New("local dsn is required"))
	}
	if c.ProbeInterval <= 0 {
		errs = append(errs, errors.New("probe interval must be positive"))
	}
	if c.RemoteTimeout <= 0 {
		errs = append(errs, errors.New("remote timeout must be positive"))
	}
	if c.ReconcileRate <= 0 || c.ReconcileBurst <= 0 {
		errs = append(errs, errors.New("reconcile rate and burst must be positive"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config from defaults, environment, JSON and flags, in
// that order.
func LoadConfig() *Config {
	return Load(os.Args[1:], ".env")
}

// Load is LoadConfig with explicit arguments and .env path.
func Load(args []string, envFile string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg, envFile)
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
