package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/gatepass/gatepass/internal/auth"
	"github.com/gatepass/gatepass/internal/buildinfo"
	"github.com/gatepass/gatepass/internal/config"
	"github.com/gatepass/gatepass/internal/connectivity"
	"github.com/gatepass/gatepass/internal/coordinator"
	"github.com/gatepass/gatepass/internal/local"
	"github.com/gatepass/gatepass/internal/logging"
	"github.com/gatepass/gatepass/internal/metrics"
	"github.com/gatepass/gatepass/internal/models"
	"github.com/gatepass/gatepass/internal/netx"
	"github.com/gatepass/gatepass/internal/remote"
)

var errPermission = errors.New("not allowed for this account")

type App struct {
	config   *config.Config
	log      logging.Logger
	store    *local.Store
	backend  *remote.Postgres
	monitor  *connectivity.Monitor
	coord    *coordinator.Coordinator
	registry *prometheus.Registry

	reader *bufio.Reader
	out    io.Writer

	user    *models.AdminUser
	session *auth.Session
}

// NewApp opens the local store and the backend named by c and assembles the
// sync layer. Without a backend DSN the app runs on the local store alone.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log := logging.New(os.Stderr, c.LogLevel, c.LogFormat)

	db, err := local.InitDatabase(ctx, c.LocalDSN)
	if err != nil {
		log.Error(ctx, "error initializing local store", "error", err)
		return nil, err
	}
	store := local.NewStore(db, log)

	var (
		gw      remote.Gateway = remote.Offline{}
		backend *remote.Postgres
	)
	if c.RemoteDSN != "" {
		bdb, err := remote.Open(c.RemoteDSN)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		if c.RemoteMigrate {
			if err := remote.RunMigrations(ctx, bdb); err != nil {
				log.Warn(ctx, "backend migrations not applied", "error", err)
			}
		}
		backend = remote.NewPostgres(bdb)
		gw = backend
	} else {
		log.Warn(ctx, "no backend configured, working from the local store only")
	}

	a := newApp(c, log, store, gw)
	a.backend = backend
	if backend == nil {
		a.monitor.ForceStatus(connectivity.StatusDisconnected)
	}
	return a, nil
}

func newApp(c *config.Config, log logging.Logger, store *local.Store, gw remote.Gateway) *App {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if err := buildinfo.Register(reg); err != nil {
		log.Warn(context.Background(), "build info metric not registered", "error", err)
	}

	mon := connectivity.New(gw, log, connectivity.Options{
		ProbeInterval: c.ProbeInterval,
		ProbeTimeout:  c.RemoteTimeout,
		Metrics:       m,
	})
	coord := coordinator.New(store, gw, mon, log, coordinator.Options{
		RemoteTimeout:    c.RemoteTimeout,
		TombstoneDeletes: c.TombstoneDeletes,
		PushRate:         rate.Limit(c.ReconcileRate),
		PushBurst:        c.ReconcileBurst,
		Metrics:          m,
	})

	return &App{
		config:   c,
		log:      log,
		store:    store,
		monitor:  mon,
		coord:    coord,
		registry: reg,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
}

// Run starts the background loops, restores a saved session and serves the
// shell until the user exits or ctx ends.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.Close()

	go a.coord.Run(ctx)
	go a.monitor.Run(ctx)
	if a.backend != nil {
		go netx.Watch(ctx, netx.SystemInterfaces, a.config.NetworkPollInterval, a.monitor.SetOnline)
	}
	if a.config.MetricsAddr != "" {
		go a.serveMetrics(ctx)
	}

	a.restoreSession(ctx)
	fmt.Fprintln(a.out, "Welcome to gatepass (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

func (a *App) Close() {
	a.monitor.Close()
	if err := a.store.Close(); err != nil {
		a.log.Warn(context.Background(), "closing local store", "error", err)
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.log.Warn(context.Background(), "closing backend", "error", err)
		}
	}
}

func (a *App) serveMetrics(ctx context.Context) {
	srv := &http.Server{
		Addr:              a.config.MetricsAddr,
		Handler:           metrics.Handler(a.registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	a.log.Info(ctx, "serving metrics", "addr", a.config.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.log.Error(ctx, "metrics server stopped", "error", err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.user != nil
}

func (a *App) isSuperUser() bool {
	return a.user != nil && a.user.Role == models.RoleSuperUser
}

func (a *App) getStatus() string {
	s := string(a.coord.Status())
	if a.user != nil {
		s = a.user.Username + " " + s
	}
	return fmt.Sprintf("(%s)", s)
}
