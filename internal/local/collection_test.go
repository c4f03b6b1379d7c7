package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatepass/gatepass/internal/models"
)

func TestCollection_Typed(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	emps := NewCollection[*models.Employee](s)
	assert.Equal(t, models.KindEmployee, emps.Kind())

	require.NoError(t, emps.Put(ctx, []*models.Employee{
		{Meta: models.Meta{ID: "e1", CreatedAt: t0}, Name: "Asha", OrganizationID: "o1", CreatedBy: "a1"},
		{Meta: models.Meta{ID: "e2", CreatedAt: t0.Add(time.Second)}, Name: "Bala", OrganizationID: "o2", CreatedBy: "a1"},
	}))

	got, err := emps.Find(ctx, models.Filter{OrganizationID: "o1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Asha", got[0].Name)

	e2, err := emps.GetByID(ctx, "e2")
	require.NoError(t, err)
	assert.Equal(t, "Bala", e2.Name)

	e2.Designation = "Peon"
	e2.Synced = true
	require.NoError(t, emps.Upsert(ctx, e2))

	pending, err := emps.Unsynced(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "e1", pending[0].ID)

	removed, err := emps.DeleteWhere(ctx, func(e *models.Employee) bool { return e.Designation == "Peon" })
	require.NoError(t, err)
	assert.Equal(t, []string{"e2"}, removed)

	ok, err := emps.Delete(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, ok)

	all, err := emps.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = emps.GetByID(ctx, "e1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
