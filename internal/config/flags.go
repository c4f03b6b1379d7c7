package config

import (
	"flag"
	"io"

	"github.com/gatepass/gatepass/internal/flagx"
)

var (
	valueFlags = []string{
		"-remote", "-local", "-probe", "-timeout", "-net-poll",
		"-rate", "-burst", "-log-level", "-log-format", "-metrics",
		"-export-dir", "-s3-bucket", "-s3-endpoint",
	}
	boolFlags = []string{"-parity-deletes", "-remote-migrate"}
)

// parseFlags overlays cfg with command-line flags.
//
//	-remote string       backend Postgres DSN
//	-local string        local SQLite file
//	-probe duration      reachability retry interval
//	-timeout duration    backend call timeout
//	-net-poll duration   device network polling interval
//	-rate float          reconciliation pushes per second
//	-burst int           reconciliation burst
//	-parity-deletes      disable delete tombstones
//	-remote-migrate      apply backend migrations at start
//	-log-level string
//	-log-format string   text or json
//	-metrics string      listen address of the /metrics endpoint
//	-export-dir string   directory for CSV exports
//	-s3-bucket string    archive bucket for CSV exports
//	-s3-endpoint string  S3-compatible endpoint URL
//
// Unknown arguments are filtered out first, so the REPL and other flag sets
// can share os.Args. Parse errors panic.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, valueFlags, boolFlags...)

	fs := flag.NewFlagSet("gatepass", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.RemoteDSN, "remote", cfg.RemoteDSN, "backend Postgres DSN")
	fs.StringVar(&cfg.LocalDSN, "local", cfg.LocalDSN, "local SQLite file")
	fs.DurationVar(&cfg.ProbeInterval, "probe", cfg.ProbeInterval, "reachability retry interval")
	fs.DurationVar(&cfg.RemoteTimeout, "timeout", cfg.RemoteTimeout, "backend call timeout")
	fs.DurationVar(&cfg.NetworkPollInterval, "net-poll", cfg.NetworkPollInterval, "network presence polling interval")
	fs.Float64Var(&cfg.ReconcileRate, "rate", cfg.ReconcileRate, "reconciliation pushes per second")
	fs.IntVar(&cfg.ReconcileBurst, "burst", cfg.ReconcileBurst, "reconciliation burst")
	parity := fs.Bool("parity-deletes", !cfg.TombstoneDeletes, "forget failed remote deletes instead of tombstoning them")
	fs.BoolVar(&cfg.RemoteMigrate, "remote-migrate", cfg.RemoteMigrate, "apply backend migrations at start")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json")
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "metrics listen address")
	fs.StringVar(&cfg.ExportDir, "export-dir", cfg.ExportDir, "CSV export directory")
	fs.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "CSV archive bucket")
	fs.StringVar(&cfg.S3BaseEndpoint, "s3-endpoint", cfg.S3BaseEndpoint, "S3-compatible endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.TombstoneDeletes = !*parity
}
