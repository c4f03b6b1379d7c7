package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gatepass/gatepass/internal/ids"
	"github.com/gatepass/gatepass/internal/metrics"
	"github.com/gatepass/gatepass/internal/models"
)

// Read returns the records of a kind matching f, newest first.
//
// While connected the backend answers and the local mirror is refreshed
// with what it returned, keeping local records and edits that were never
// pushed and hiding ids with a queued delete. An unfiltered read replaces the mirror of
// the kind; a filtered read only upserts the returned rows. When the backend
// is unreachable, or the call fails, the local mirror answers instead.
func (c *Coordinator) Read(ctx context.Context, kind models.Kind, f models.Filter) ([]models.Record, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", models.ErrValidation, string(kind))
	}

	if c.connected() {
		var fresh []models.Record
		err := c.call(ctx, "list", func(ctx context.Context) error {
			var err error
			fresh, err = c.gw.List(ctx, kind, f)
			return err
		})
		if err == nil {
			out, err := c.refreshMirror(ctx, kind, f, fresh)
			if err != nil {
				c.opts.Metrics.Op(string(kind), "read", metrics.ResultError)
				return nil, err
			}
			c.opts.Metrics.Op(string(kind), "read", metrics.ResultOK)
			return out, nil
		}
		c.log.Warn(ctx, "backend read failed, using local mirror", "kind", kind, "error", err)
	}

	out, err := c.readLocal(ctx, kind, f)
	if err != nil {
		c.opts.Metrics.Op(string(kind), "read", metrics.ResultError)
		return nil, err
	}
	c.opts.Metrics.Op(string(kind), "read", metrics.ResultFallback)
	return out, nil
}

func (c *Coordinator) readLocal(ctx context.Context, kind models.Kind, f models.Filter) ([]models.Record, error) {
	all, err := c.store.Get(ctx, kind)
	if err != nil {
		return nil, err
	}
	return models.Apply(f, all), nil
}

func (c *Coordinator) refreshMirror(ctx context.Context, kind models.Kind, f models.Filter, fresh []models.Record) ([]models.Record, error) {
	deleted, err := c.store.TombstonedIDs(ctx, kind)
	if err != nil {
		return nil, err
	}
	pending, err := c.store.Unsynced(ctx, kind)
	if err != nil {
		return nil, err
	}

	// A local edit not yet pushed wins over the backend copy until
	// reconcile sends it.
	unpushed := make(map[string]struct{}, len(pending))
	for _, r := range pending {
		unpushed[r.GetID()] = struct{}{}
	}

	out := make([]models.Record, 0, len(fresh)+len(pending))
	for _, r := range fresh {
		if _, gone := deleted[r.GetID()]; gone {
			continue
		}
		if _, edited := unpushed[r.GetID()]; edited {
			continue
		}
		r.SetSynced(true)
		out = append(out, r)
	}
	for _, r := range pending {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].GetCreatedAt().After(out[j].GetCreatedAt())
	})

	if f.IsZero() {
		err = c.store.Put(ctx, kind, out)
	} else {
		err = c.store.UpsertMany(ctx, out)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Create stores rec locally and, when connected, on the backend. It assigns
// the id and creation time; visitors also get today's visit date and time
// unless set. The returned record is the backend's copy when the backend
// accepted it, otherwise the local unsynced copy. Only a local failure or
// invalid input is reported.
func (c *Coordinator) Create(ctx context.Context, rec models.Record) (models.Record, error) {
	kind := rec.Kind()
	now := c.now()
	rec.SetID(ids.NewAt(now))
	rec.SetCreatedAt(now)
	rec.SetSynced(false)
	if v, ok := rec.(*models.Visitor); ok {
		v.StampVisit(now)
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	if err := c.store.Upsert(ctx, rec); err != nil {
		c.opts.Metrics.Op(string(kind), "create", metrics.ResultError)
		return nil, err
	}

	if !c.connected() {
		c.log.Debug(ctx, "created offline", "kind", kind, "id", rec.GetID())
		c.opts.Metrics.Op(string(kind), "create", metrics.ResultFallback)
		return rec, nil
	}

	var stored models.Record
	err := c.call(ctx, "create", func(ctx context.Context) error {
		var err error
		stored, err = c.gw.Create(ctx, rec)
		return err
	})
	if err != nil {
		c.log.Warn(ctx, "backend create failed, kept for reconciliation", "kind", kind, "id", rec.GetID(), "error", err)
		c.opts.Metrics.Op(string(kind), "create", metrics.ResultFallback)
		return rec, nil
	}

	stored.SetSynced(true)
	if err := c.store.Upsert(ctx, stored); err != nil {
		c.opts.Metrics.Op(string(kind), "create", metrics.ResultError)
		return nil, err
	}
	c.opts.Metrics.Op(string(kind), "create", metrics.ResultOK)
	return stored, nil
}

// UpdateEmployee patches an employee locally and, when connected, on the
// backend. A missing id yields models.ErrNotFound.
func (c *Coordinator) UpdateEmployee(ctx context.Context, id string, patch models.EmployeePatch) (*models.Employee, error) {
	rec, err := c.store.GetByID(ctx, models.KindEmployee, id)
	if err != nil {
		return nil, err
	}
	emp, ok := rec.(*models.Employee)
	if !ok {
		return nil, fmt.Errorf("employee %s: unexpected %T", id, rec)
	}

	patch.Apply(emp)
	emp.SetSynced(false)
	if err := emp.Validate(); err != nil {
		return nil, err
	}
	if err := c.store.Upsert(ctx, emp); err != nil {
		c.opts.Metrics.Op(string(models.KindEmployee), "update", metrics.ResultError)
		return nil, err
	}

	if !c.connected() {
		c.opts.Metrics.Op(string(models.KindEmployee), "update", metrics.ResultFallback)
		return emp, nil
	}

	var stored *models.Employee
	err = c.call(ctx, "update", func(ctx context.Context) error {
		var err error
		stored, err = c.gw.UpdateEmployee(ctx, id, patch)
		return err
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.log.Debug(ctx, "employee not on backend yet", "id", id)
		} else {
			c.log.Warn(ctx, "backend update failed, kept for reconciliation", "id", id, "error", err)
		}
		c.opts.Metrics.Op(string(models.KindEmployee), "update", metrics.ResultFallback)
		return emp, nil
	}

	stored.SetSynced(true)
	if err := c.store.Upsert(ctx, stored); err != nil {
		c.opts.Metrics.Op(string(models.KindEmployee), "update", metrics.ResultError)
		return nil, err
	}
	c.opts.Metrics.Op(string(models.KindEmployee), "update", metrics.ResultOK)
	return stored, nil
}

// Delete removes a record locally and, when connected, on the backend.
// Deleting a missing id is not an error. With tombstones enabled a delete
// the backend did not confirm is queued for Reconcile, unless the record
// never reached the backend.
func (c *Coordinator) Delete(ctx context.Context, kind models.Kind, id string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", models.ErrValidation, string(kind))
	}

	pushed := true
	rec, err := c.store.GetByID(ctx, kind, id)
	switch {
	case err == nil:
		pushed = rec.IsSynced()
	case !errors.Is(err, models.ErrNotFound):
		return err
	}

	remoteDone := c.deleteRemote(ctx, kind, id)
	if err := c.forget(ctx, kind, id, pushed, remoteDone); err != nil {
		c.opts.Metrics.Op(string(kind), "delete", metrics.ResultError)
		return err
	}

	if remoteDone {
		c.opts.Metrics.Op(string(kind), "delete", metrics.ResultOK)
	} else {
		c.opts.Metrics.Op(string(kind), "delete", metrics.ResultFallback)
	}
	return nil
}

// deleteRemote reports whether the backend confirmed the delete.
func (c *Coordinator) deleteRemote(ctx context.Context, kind models.Kind, id string) bool {
	if !c.connected() {
		return false
	}
	err := c.call(ctx, "delete", func(ctx context.Context) error {
		return c.gw.Delete(ctx, kind, id)
	})
	if err != nil {
		c.log.Warn(ctx, "backend delete failed", "kind", kind, "id", id, "error", err)
		return false
	}
	return true
}

// forget drops a record from the mirror and queues a tombstone when the
// backend may still hold it.
func (c *Coordinator) forget(ctx context.Context, kind models.Kind, id string, pushed, remoteDone bool) error {
	if pushed && !remoteDone && c.opts.TombstoneDeletes {
		if err := c.store.AddTombstone(ctx, kind, id, c.now()); err != nil {
			return err
		}
	}
	removed, err := c.store.Delete(ctx, kind, id)
	if err != nil {
		return err
	}
	if !removed {
		c.log.Debug(ctx, "delete of unknown id", "kind", kind, "id", id)
	}
	return nil
}
