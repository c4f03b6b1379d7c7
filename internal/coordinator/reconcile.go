package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/gatepass/gatepass/internal/local"
	"github.com/gatepass/gatepass/internal/metrics"
	"github.com/gatepass/gatepass/internal/models"
	"github.com/gatepass/gatepass/internal/remote"
)

// Report summarises one reconciliation pass.
type Report struct {
	Pushed  int
	Deleted int
	Failed  int
	// Skipped is set when the pass did not run, either because another one
	// was in progress or because the backend was unreachable.
	Skipped bool
}

// Reconcile pushes every unsynced record to the backend, kind by kind in
// models.Kinds order, then replays queued deletes. Backend failures leave the
// record unsynced and are counted in Report.Failed. A call made while
// another pass runs returns at once with Skipped set.
func (c *Coordinator) Reconcile(ctx context.Context) (Report, error) {
	select {
	case c.reconciling <- struct{}{}:
		defer func() { <-c.reconciling }()
	default:
		c.log.Debug(ctx, "reconcile already running")
		return Report{Skipped: true}, nil
	}

	if !c.connected() {
		c.log.Debug(ctx, "reconcile skipped, backend unreachable")
		return Report{Skipped: true}, nil
	}

	var report Report
	for _, kind := range models.Kinds {
		pending, err := c.store.Unsynced(ctx, kind)
		if err != nil {
			return report, err
		}
		for _, rec := range pending {
			if err := c.limiter.Wait(ctx); err != nil {
				return report, err
			}
			if err := c.push(ctx, rec); err != nil {
				report.Failed++
				c.opts.Metrics.Reconcile(string(kind), metrics.ResultError, 1)
				c.log.Warn(ctx, "push failed", "kind", kind, "id", rec.GetID(), "error", err)
				continue
			}
			if err := c.store.MarkSynced(ctx, kind, rec.GetID()); err != nil && !errors.Is(err, models.ErrNotFound) {
				return report, err
			}
			report.Pushed++
			c.opts.Metrics.Reconcile(string(kind), metrics.ResultOK, 1)
		}
	}

	if err := c.drainTombstones(ctx, &report); err != nil {
		return report, err
	}

	if err := c.store.SetMeta(ctx, local.MetaLastReconcile, []byte(c.now().UTC().Format(time.RFC3339Nano))); err != nil {
		return report, err
	}
	c.publishUnsynced(ctx)

	if report.Pushed+report.Deleted+report.Failed > 0 {
		c.log.Info(ctx, "reconciled", "pushed", report.Pushed, "deleted", report.Deleted, "failed", report.Failed)
	}
	return report, nil
}

// push sends one record. An employee edited offline may already exist on
// the backend, so it is updated first and created only if missing. A create
// rejected because the id is already stored counts as pushed.
func (c *Coordinator) push(ctx context.Context, rec models.Record) error {
	if emp, ok := rec.(*models.Employee); ok {
		err := c.call(ctx, "update", func(ctx context.Context) error {
			_, err := c.gw.UpdateEmployee(ctx, emp.ID, fullPatch(emp))
			return err
		})
		if !errors.Is(err, models.ErrNotFound) {
			return err
		}
	}
	err := c.call(ctx, "create", func(ctx context.Context) error {
		_, err := c.gw.Create(ctx, rec)
		return err
	})
	if errors.Is(err, remote.ErrAlreadyExists) {
		c.log.Debug(ctx, "record already on backend", "kind", rec.Kind(), "id", rec.GetID())
		return nil
	}
	return err
}

func (c *Coordinator) drainTombstones(ctx context.Context, report *Report) error {
	tombs, err := c.store.Tombstones(ctx)
	if err != nil {
		return err
	}
	for _, t := range tombs {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		err := c.call(ctx, "delete", func(ctx context.Context) error {
			return c.gw.Delete(ctx, t.Kind, t.ID)
		})
		if err != nil {
			report.Failed++
			c.log.Warn(ctx, "queued delete failed", "kind", t.Kind, "id", t.ID, "error", err)
			continue
		}
		if err := c.store.RemoveTombstone(ctx, t.Kind, t.ID); err != nil {
			return err
		}
		report.Deleted++
	}
	return nil
}

func (c *Coordinator) publishUnsynced(ctx context.Context) {
	if c.opts.Metrics == nil {
		return
	}
	for _, kind := range models.Kinds {
		n, err := c.store.CountUnsynced(ctx, kind)
		if err != nil {
			c.log.Warn(ctx, "count unsynced", "kind", kind, "error", err)
			continue
		}
		c.opts.Metrics.SetUnsynced(string(kind), n)
	}
}

func fullPatch(e *models.Employee) models.EmployeePatch {
	return models.EmployeePatch{
		Name:           &e.Name,
		Designation:    &e.Designation,
		Department:     &e.Department,
		Location:       &e.Location,
		PhoneNumber:    &e.PhoneNumber,
		Image:          &e.Image,
		OrganizationID: &e.OrganizationID,
	}
}
