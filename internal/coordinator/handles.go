package coordinator

import (
	"context"
	"fmt"

	"github.com/gatepass/gatepass/internal/models"
)

// Handle is a typed view of one kind. T is a pointer record type such as
// *models.Visitor.
type Handle[T models.Record] struct {
	c    *Coordinator
	kind models.Kind
}

// For returns the handle of the kind of T.
func For[T models.Record](c *Coordinator) *Handle[T] {
	var zero T
	return &Handle[T]{c: c, kind: zero.Kind()}
}

func (c *Coordinator) Organizations() *Handle[*models.Organization] {
	return For[*models.Organization](c)
}

func (c *Coordinator) Employees() *Handle[*models.Employee] {
	return For[*models.Employee](c)
}

func (c *Coordinator) Visitors() *Handle[*models.Visitor] {
	return For[*models.Visitor](c)
}

func (c *Coordinator) AdminUsers() *Handle[*models.AdminUser] {
	return For[*models.AdminUser](c)
}

func (h *Handle[T]) Read(ctx context.Context, f models.Filter) ([]T, error) {
	recs, err := h.c.Read(ctx, h.kind, f)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		t, ok := r.(T)
		if !ok {
			return nil, fmt.Errorf("%s read: unexpected %T", h.kind, r)
		}
		out = append(out, t)
	}
	return out, nil
}

func (h *Handle[T]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	stored, err := h.c.Create(ctx, rec)
	if err != nil {
		return zero, err
	}
	t, ok := stored.(T)
	if !ok {
		return zero, fmt.Errorf("%s create: unexpected %T", h.kind, stored)
	}
	return t, nil
}

func (h *Handle[T]) Delete(ctx context.Context, id string) error {
	return h.c.Delete(ctx, h.kind, id)
}
