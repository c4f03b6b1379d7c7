// Package coordinator is the sync layer between the local store and the
// backend. Every mutation is committed locally first; the backend is used
// when the connectivity monitor reports it reachable, and records written
// while it is not are pushed later by Reconcile.
//
// Backend failures never reach callers. They are logged, counted and
// answered from the local mirror. Local failures are returned wrapped in
// local.ErrLocalPersistence.
package coordinator

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/gatepass/gatepass/internal/connectivity"
	"github.com/gatepass/gatepass/internal/local"
	"github.com/gatepass/gatepass/internal/logging"
	"github.com/gatepass/gatepass/internal/metrics"
	"github.com/gatepass/gatepass/internal/models"
	"github.com/gatepass/gatepass/internal/remote"
)

// Monitor is the part of connectivity.Monitor the coordinator uses.
type Monitor interface {
	Status() connectivity.Status
	Snapshot() connectivity.Snapshot
	Subscribe() (<-chan connectivity.Transition, func())
	Probe(ctx context.Context) connectivity.Status
}

type Options struct {
	// RemoteTimeout bounds every backend call.
	RemoteTimeout time.Duration
	// TombstoneDeletes records deletes that could not reach the backend so
	// that Reconcile can replay them.
	TombstoneDeletes bool
	// PushRate and PushBurst pace backend calls made by Reconcile. A zero
	// PushRate means no pacing.
	PushRate  rate.Limit
	PushBurst int
	Metrics   *metrics.Metrics
	// Now is the clock, time.Now when nil.
	Now func() time.Time
}

type Coordinator struct {
	store   *local.Store
	gw      remote.Gateway
	monitor Monitor
	log     logging.Logger
	opts    Options
	limiter *rate.Limiter

	reconciling chan struct{}
	rechecking  chan struct{}
}

func New(store *local.Store, gw remote.Gateway, monitor Monitor, log logging.Logger, opts Options) *Coordinator {
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	limit, burst := opts.PushRate, opts.PushBurst
	if limit <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &Coordinator{
		store:       store,
		gw:          gw,
		monitor:     monitor,
		log:         log.With("module", "coordinator"),
		opts:        opts,
		limiter:     rate.NewLimiter(limit, burst),
		reconciling: make(chan struct{}, 1),
		rechecking:  make(chan struct{}, 1),
	}
}

// Status is the backend connectivity status.
func (c *Coordinator) Status() connectivity.Status {
	return c.monitor.Status()
}

// Snapshot reports device presence together with backend reachability.
func (c *Coordinator) Snapshot() connectivity.Snapshot {
	return c.monitor.Snapshot()
}

func (c *Coordinator) connected() bool {
	return c.monitor.Status() == connectivity.StatusConnected
}

func (c *Coordinator) now() time.Time {
	return c.opts.Now()
}

// call runs fn against the backend under the remote timeout. A backend
// failure makes the monitor probe again so that an outage is noticed.
func (c *Coordinator) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	rctx, cancel := context.WithTimeout(ctx, c.opts.RemoteTimeout)
	defer cancel()

	start := time.Now()
	err := fn(rctx)
	c.opts.Metrics.ObserveRemote(op, time.Since(start).Seconds())
	if errors.Is(err, remote.ErrRemoteUnavailable) && ctx.Err() == nil {
		c.recheck(ctx)
	}
	return err
}

// recheck starts a probe unless one started here is still running.
func (c *Coordinator) recheck(ctx context.Context) {
	select {
	case c.rechecking <- struct{}{}:
	default:
		return
	}
	go func() {
		defer func() { <-c.rechecking }()
		status := c.monitor.Probe(context.WithoutCancel(ctx))
		c.log.Debug(ctx, "backend rechecked after failure", "status", status)
	}()
}

// Run reconciles whenever the backend comes back after being unreachable,
// and once on the first connection if local work is pending. A backend
// already connected when Run subscribes counts as the first connection. It
// returns when ctx is done or the monitor closes.
func (c *Coordinator) Run(ctx context.Context) {
	ch, cancel := c.monitor.Subscribe()
	defer cancel()

	first := true
	if c.monitor.Status() == connectivity.StatusConnected {
		first = false
		if c.hasPending(ctx) {
			c.reconcileNow(ctx)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case tr, ok := <-ch:
			if !ok {
				return
			}
			if tr.To != connectivity.StatusConnected {
				continue
			}
			run := tr.Reconnect || (first && c.hasPending(ctx))
			first = false
			if run {
				c.reconcileNow(ctx)
			}
		}
	}
}

func (c *Coordinator) hasPending(ctx context.Context) bool {
	pending, err := c.Pending(ctx)
	if err != nil {
		c.log.Error(ctx, "count pending work", "error", err)
	}
	return pending > 0
}

func (c *Coordinator) reconcileNow(ctx context.Context) {
	report, err := c.Reconcile(ctx)
	if err != nil {
		c.log.Error(ctx, "reconcile after reconnect", "error", err)
		return
	}
	c.log.Info(ctx, "reconciled after reconnect",
		"pushed", report.Pushed, "deleted", report.Deleted, "failed", report.Failed)
}

// Pending counts unsynced records and queued deletes.
func (c *Coordinator) Pending(ctx context.Context) (int, error) {
	total := 0
	for _, kind := range models.Kinds {
		n, err := c.store.CountUnsynced(ctx, kind)
		if err != nil {
			return 0, err
		}
		total += n
	}
	tombs, err := c.store.Tombstones(ctx)
	if err != nil {
		return 0, err
	}
	return total + len(tombs), nil
}

// LastReconcile returns when Reconcile last completed, zero if never.
func (c *Coordinator) LastReconcile(ctx context.Context) (time.Time, error) {
	raw, err := c.store.GetMeta(ctx, local.MetaLastReconcile)
	if err != nil || raw == nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}
