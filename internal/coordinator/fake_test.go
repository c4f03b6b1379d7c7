package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gatepass/gatepass/internal/connectivity"
	"github.com/gatepass/gatepass/internal/local"
	"github.com/gatepass/gatepass/internal/logging"
	"github.com/gatepass/gatepass/internal/models"
	"github.com/gatepass/gatepass/internal/remote"
)

// fakeGateway is an in-memory backend. Setting err makes every call fail.
type fakeGateway struct {
	mu    sync.Mutex
	rows  map[models.Kind]map[string]models.Record
	err   error
	calls []string

	// when block is set Create signals entered and waits on block
	block   chan struct{}
	entered chan struct{}
}

func newFakeGateway() *fakeGateway {
	g := &fakeGateway{rows: make(map[models.Kind]map[string]models.Record)}
	for _, k := range models.Kinds {
		g.rows[k] = make(map[string]models.Record)
	}
	return g
}

func clone(r models.Record) models.Record {
	out, err := models.New(r.Kind())
	if err != nil {
		panic(err)
	}
	b, err := json.Marshal(r)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		panic(err)
	}
	out.SetSynced(true)
	return out
}

func (g *fakeGateway) begin(op string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, op)
	if g.err != nil {
		return fmt.Errorf("%w: %s: %w", remote.ErrRemoteUnavailable, op, g.err)
	}
	return nil
}

func (g *fakeGateway) fail(err error) {
	g.mu.Lock()
	g.err = err
	g.mu.Unlock()
}

func (g *fakeGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *fakeGateway) resetCalls() {
	g.mu.Lock()
	g.calls = nil
	g.mu.Unlock()
}

// seed stores records directly, bypassing call accounting.
func (g *fakeGateway) seed(recs ...models.Record) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range recs {
		g.rows[r.Kind()][r.GetID()] = clone(r)
	}
}

func (g *fakeGateway) has(kind models.Kind, id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.rows[kind][id]
	return ok
}

func (g *fakeGateway) get(kind models.Kind, id string) models.Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rows[kind][id]
}

func (g *fakeGateway) count(kind models.Kind) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rows[kind])
}

func (g *fakeGateway) sorted(kind models.Kind) []models.Record {
	out := make([]models.Record, 0, len(g.rows[kind]))
	for _, r := range g.rows[kind] {
		out = append(out, clone(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetCreatedAt().After(out[j].GetCreatedAt()) })
	return out
}

func (g *fakeGateway) Ping(ctx context.Context) error {
	return g.begin("ping")
}

func (g *fakeGateway) List(ctx context.Context, kind models.Kind, f models.Filter) ([]models.Record, error) {
	if err := g.begin("list " + string(kind)); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return models.Apply(f, g.sorted(kind)), nil
}

func (g *fakeGateway) Create(ctx context.Context, rec models.Record) (models.Record, error) {
	if err := g.begin("create " + string(rec.Kind())); err != nil {
		return nil, err
	}
	if g.block != nil {
		g.entered <- struct{}{}
		<-g.block
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, dup := g.rows[rec.Kind()][rec.GetID()]; dup {
		return nil, fmt.Errorf("%w: %s_pkey", remote.ErrAlreadyExists, rec.Kind().Table())
	}
	g.rows[rec.Kind()][rec.GetID()] = clone(rec)
	return clone(rec), nil
}

func (g *fakeGateway) UpdateEmployee(ctx context.Context, id string, patch models.EmployeePatch) (*models.Employee, error) {
	if err := g.begin("update employee"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.rows[models.KindEmployee][id]
	if !ok {
		return nil, fmt.Errorf("employee %s: %w", id, models.ErrNotFound)
	}
	emp := rec.(*models.Employee)
	patch.Apply(emp)
	return clone(emp).(*models.Employee), nil
}

func (g *fakeGateway) Delete(ctx context.Context, kind models.Kind, id string) error {
	if err := g.begin("delete " + string(kind)); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rows[kind], id)
	return nil
}

func (g *fakeGateway) visitors(orgID string) []*models.Visitor {
	var out []*models.Visitor
	for _, r := range g.sorted(models.KindVisitor) {
		v := r.(*models.Visitor)
		if orgID == "" || v.OrganizationID == orgID {
			out = append(out, v)
		}
	}
	return out
}

func (g *fakeGateway) FindVisitorByNationalID(ctx context.Context, aadhar string) (*models.Visitor, error) {
	if err := g.begin("find visitor"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, v := range g.visitors("") {
		if v.AadharNumber == aadhar {
			return v, nil
		}
	}
	return nil, nil
}

func (g *fakeGateway) WeeklyVisitCounts(ctx context.Context, orgID string, now time.Time) ([7]int, error) {
	if err := g.begin("weekly"); err != nil {
		return [7]int{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	var dates []string
	for _, v := range g.visitors(orgID) {
		dates = append(dates, v.VisitDate)
	}
	return remote.Histogram(dates, now), nil
}

func (g *fakeGateway) VisitorStats(ctx context.Context, orgID string, today time.Time) (remote.Stats, error) {
	if err := g.begin("stats"); err != nil {
		return remote.Stats{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	vs := g.visitors(orgID)
	s := remote.Stats{Total: len(vs)}
	for _, v := range vs {
		if v.VisitDate == today.Format(models.DateLayout) {
			s.Today++
		}
	}
	return s, nil
}

func (g *fakeGateway) FindAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	if err := g.begin("find admin"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range g.rows[models.KindAdminUser] {
		if a := r.(*models.AdminUser); a.Username == username {
			return clone(a).(*models.AdminUser), nil
		}
	}
	return nil, nil
}

func (g *fakeGateway) deleteWhere(kind models.Kind, match func(models.Record) bool) {
	for id, r := range g.rows[kind] {
		if match(r) {
			delete(g.rows[kind], id)
		}
	}
}

func (g *fakeGateway) ownedOrgs(adminID string) map[string]bool {
	orgs := map[string]bool{}
	for id, r := range g.rows[models.KindOrganization] {
		if r.Creator() == adminID {
			orgs[id] = true
		}
	}
	return orgs
}

func (g *fakeGateway) DeleteAdminCascade(ctx context.Context, adminID string) error {
	if err := g.begin("delete admin cascade"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	orgs := g.ownedOrgs(adminID)
	g.deleteWhere(models.KindEmployee, func(r models.Record) bool { return r.Creator() == adminID || orgs[r.OrganizationRef()] })
	g.deleteWhere(models.KindOrganization, func(r models.Record) bool { return orgs[r.GetID()] })
	delete(g.rows[models.KindAdminUser], adminID)
	return nil
}

func (g *fakeGateway) DeleteOwnedBy(ctx context.Context, adminID string) error {
	if err := g.begin("delete owned"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	orgs := g.ownedOrgs(adminID)
	g.deleteWhere(models.KindVisitor, func(r models.Record) bool { return orgs[r.OrganizationRef()] })
	g.deleteWhere(models.KindEmployee, func(r models.Record) bool { return r.Creator() == adminID || orgs[r.OrganizationRef()] })
	g.deleteWhere(models.KindOrganization, func(r models.Record) bool { return orgs[r.GetID()] })
	return nil
}

func (g *fakeGateway) PurgeAll(ctx context.Context) error {
	if err := g.begin("purge"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, k := range models.Kinds {
		g.rows[k] = make(map[string]models.Record)
	}
	return nil
}

// subscribedMonitor reports when the coordinator has subscribed.
type subscribedMonitor struct {
	*connectivity.Monitor
	subscribed chan struct{}
}

func (m *subscribedMonitor) Subscribe() (<-chan connectivity.Transition, func()) {
	ch, cancel := m.Monitor.Subscribe()
	close(m.subscribed)
	return ch, cancel
}

// clock advances one second per reading.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// 2024-05-01 is a Wednesday.
var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type env struct {
	c     *Coordinator
	store *local.Store
	gw    *fakeGateway
	mon   *connectivity.Monitor
	dsn   string
}

func newEnv(t *testing.T, opts Options) *env {
	t.Helper()
	ctx := context.Background()

	dsn := filepath.Join(t.TempDir(), "gatepass.db")
	db, err := local.InitDatabase(ctx, dsn)
	require.NoError(t, err)
	store := local.NewStore(db, logging.Discard())
	t.Cleanup(func() { _ = store.Close() })

	gw := newFakeGateway()
	mon := connectivity.New(gw, logging.Discard(), connectivity.Options{ProbeInterval: time.Hour, ProbeTimeout: time.Second})
	t.Cleanup(mon.Close)
	mon.ForceStatus(connectivity.StatusConnected)

	if opts.Now == nil {
		opts.Now = (&clock{now: t0}).Now
	}
	return &env{
		c:     New(store, gw, mon, logging.Discard(), opts),
		store: store,
		gw:    gw,
		mon:   mon,
		dsn:   dsn,
	}
}

func (e *env) online()  { e.mon.ForceStatus(connectivity.StatusConnected) }
func (e *env) offline() { e.mon.ForceStatus(connectivity.StatusDisconnected) }

func org(name, admin string) *models.Organization {
	return &models.Organization{Name: name, Type: models.OrganizationPrivate, CreatedBy: admin}
}

func employee(name, orgID, admin string) *models.Employee {
	return &models.Employee{Name: name, OrganizationID: orgID, CreatedBy: admin}
}

func guest(name, orgID string) *models.Visitor {
	return &models.Visitor{FullName: name, NumberOfVisitors: 1, OrganizationID: orgID}
}

func idsOf(recs []models.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.GetID()
	}
	return out
}
