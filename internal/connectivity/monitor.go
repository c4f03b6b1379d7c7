// Package connectivity tracks whether the backend can be used.
//
// Two inputs feed the Monitor: device network presence, pushed through
// SetOnline, and backend reachability, tested by probing. The result is a
// tri-state Status. A failed probe schedules a retry after ProbeInterval for
// as long as the device is online; a successful probe cancels it.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/gatepass/gatepass/internal/logging"
	"github.com/gatepass/gatepass/internal/metrics"
)

type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

var allStatuses = []string{string(StatusConnecting), string(StatusConnected), string(StatusDisconnected)}

// Prober tests backend reachability with a cheap read.
type Prober interface {
	Ping(ctx context.Context) error
}

// Transition is one status change. Reconnect is set on the change that
// brings the backend back after it was last seen disconnected; the first
// successful probe after startup is not a reconnect.
type Transition struct {
	From      Status
	To        Status
	Reconnect bool
	At        time.Time
}

// Snapshot is the externally visible connectivity state.
type Snapshot struct {
	Online  bool
	Backend Status
}

type Options struct {
	ProbeInterval time.Duration
	ProbeTimeout  time.Duration
	Metrics       *metrics.Metrics
}

type Monitor struct {
	prober Prober
	log    logging.Logger
	opts   Options

	probeMu sync.Mutex

	mu      sync.Mutex
	ctx     context.Context
	status  Status
	settled Status
	online  bool
	forced  Status
	retry   *time.Timer
	subs    []chan Transition
	closed  bool
}

func New(prober Prober, log logging.Logger, opts Options) *Monitor {
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = 30 * time.Second
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 10 * time.Second
	}
	m := &Monitor{
		prober: prober,
		log:    log.With("module", "connectivity"),
		opts:   opts,
		ctx:    context.Background(),
		status: StatusConnecting,
		online: true,
	}
	opts.Metrics.SetStatus(string(StatusConnecting), allStatuses)
	return m
}

// Run issues the first probe and blocks until ctx is done, then closes the
// monitor.
func (m *Monitor) Run(ctx context.Context) {
	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()

	go m.Probe(ctx)

	<-ctx.Done()
	m.Close()
}

func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Online: m.online, Backend: m.status}
}

// Subscribe returns a channel of transitions and a function that ends the
// subscription. Slow subscribers miss transitions rather than block the
// monitor.
func (m *Monitor) Subscribe() (<-chan Transition, func()) {
	ch := make(chan Transition, 32)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	m.subs = append(m.subs, ch)
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, s := range m.subs {
				if s == ch {
					m.subs = append(m.subs[:i], m.subs[i+1:]...)
					close(ch)
					return
				}
			}
		})
	}
}

// Probe tests the backend now and returns the resulting status. While the
// status is forced or the device is offline the prober is not called.
func (m *Monitor) Probe(ctx context.Context) Status {
	m.probeMu.Lock()
	defer m.probeMu.Unlock()

	m.mu.Lock()
	if m.closed {
		s := m.status
		m.mu.Unlock()
		return s
	}
	if m.forced != "" {
		s := m.forced
		m.mu.Unlock()
		return s
	}
	if !m.online {
		m.stopRetryLocked()
		m.setLocked(StatusDisconnected)
		m.mu.Unlock()
		return StatusDisconnected
	}
	m.setLocked(StatusConnecting)
	m.mu.Unlock()

	pctx, cancel := context.WithTimeout(ctx, m.opts.ProbeTimeout)
	err := m.prober.Ping(pctx)
	cancel()

	m.mu.Lock()
	defer m.mu.Unlock()

	// the world may have changed while the probe was in flight
	if m.closed || m.forced != "" {
		return m.status
	}
	if !m.online {
		m.setLocked(StatusDisconnected)
		return m.status
	}

	if err != nil {
		m.opts.Metrics.Probe(metrics.ResultError)
		m.log.Debug(ctx, "backend probe failed", "error", err)
		m.setLocked(StatusDisconnected)
		m.scheduleRetryLocked()
		return m.status
	}

	m.opts.Metrics.Probe(metrics.ResultOK)
	m.stopRetryLocked()
	m.setLocked(StatusConnected)
	return m.status
}

// SetOnline records device network presence. Going offline disconnects at
// once and cancels pending retries; coming online probes at once.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.closed || m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	ctx := m.ctx
	if !online {
		m.stopRetryLocked()
		if m.forced == "" {
			m.setLocked(StatusDisconnected)
		}
		m.mu.Unlock()
		m.log.Info(ctx, "device went offline")
		return
	}
	m.mu.Unlock()

	m.log.Info(ctx, "device came online")
	go m.Probe(ctx)
}

// ForceStatus pins the status until Release is called. Probes do not run
// while pinned.
func (m *Monitor) ForceStatus(s Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.forced = s
	m.stopRetryLocked()
	m.setLocked(s)
}

// Release drops a pinned status and probes again.
func (m *Monitor) Release() {
	m.mu.Lock()
	if m.forced == "" {
		m.mu.Unlock()
		return
	}
	m.forced = ""
	ctx := m.ctx
	m.mu.Unlock()

	m.Probe(ctx)
}

// Close stops the retry timer and closes every subscription.
func (m *Monitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.stopRetryLocked()
	for _, ch := range m.subs {
		close(ch)
	}
	m.subs = nil
}

func (m *Monitor) setLocked(s Status) {
	if m.status == s {
		return
	}
	t := Transition{
		From:      m.status,
		To:        s,
		Reconnect: s == StatusConnected && m.settled == StatusDisconnected,
		At:        time.Now(),
	}
	m.status = s
	if s != StatusConnecting {
		m.settled = s
	}
	m.opts.Metrics.SetStatus(string(s), allStatuses)

	for _, ch := range m.subs {
		select {
		case ch <- t:
		default:
			m.log.Warn(m.ctx, "dropping connectivity transition for slow subscriber", "from", t.From, "to", t.To)
		}
	}
}

func (m *Monitor) scheduleRetryLocked() {
	if !m.online || m.retry != nil {
		return
	}
	ctx := m.ctx
	var t *time.Timer
	t = time.AfterFunc(m.opts.ProbeInterval, func() {
		m.mu.Lock()
		if m.retry == t {
			m.retry = nil
		}
		m.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		m.Probe(ctx)
	})
	m.retry = t
}

func (m *Monitor) stopRetryLocked() {
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
}
