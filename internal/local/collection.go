package local

import (
	"context"
	"fmt"

	"github.com/gatepass/gatepass/internal/models"
)

// Collection is a typed view of one kind in the Store. T is a pointer record
// type such as *models.Visitor.
type Collection[T models.Record] struct {
	store *Store
	kind  models.Kind
}

// NewCollection binds a typed view to s. The kind is taken from T.
func NewCollection[T models.Record](s *Store) *Collection[T] {
	var zero T
	return &Collection[T]{store: s, kind: zero.Kind()}
}

func (c *Collection[T]) Kind() models.Kind {
	return c.kind
}

func (c *Collection[T]) cast(recs []models.Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		t, ok := r.(T)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected %T in %s collection", ErrLocalPersistence, r, c.kind)
		}
		out = append(out, t)
	}
	return out, nil
}

func (c *Collection[T]) Get(ctx context.Context) ([]T, error) {
	recs, err := c.store.Get(ctx, c.kind)
	if err != nil {
		return nil, err
	}
	return c.cast(recs)
}

// Find returns the records matching f.
func (c *Collection[T]) Find(ctx context.Context, f models.Filter) ([]T, error) {
	all, err := c.Get(ctx)
	if err != nil {
		return nil, err
	}
	return models.Apply(f, all), nil
}

func (c *Collection[T]) Put(ctx context.Context, recs []T) error {
	generic := make([]models.Record, len(recs))
	for i, r := range recs {
		generic[i] = r
	}
	return c.store.Put(ctx, c.kind, generic)
}

func (c *Collection[T]) Upsert(ctx context.Context, rec T) error {
	return c.store.Upsert(ctx, rec)
}

func (c *Collection[T]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T
	rec, err := c.store.GetByID(ctx, c.kind, id)
	if err != nil {
		return zero, err
	}
	t, ok := rec.(T)
	if !ok {
		return zero, fmt.Errorf("%w: unexpected %T in %s collection", ErrLocalPersistence, rec, c.kind)
	}
	return t, nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) (bool, error) {
	return c.store.Delete(ctx, c.kind, id)
}

func (c *Collection[T]) Unsynced(ctx context.Context) ([]T, error) {
	recs, err := c.store.Unsynced(ctx, c.kind)
	if err != nil {
		return nil, err
	}
	return c.cast(recs)
}

// DeleteWhere removes the records for which match returns true.
func (c *Collection[T]) DeleteWhere(ctx context.Context, match func(T) bool) ([]string, error) {
	return c.store.DeleteWhere(ctx, c.kind, func(r models.Record) bool {
		t, ok := r.(T)
		return ok && match(t)
	})
}
