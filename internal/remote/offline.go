package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/gatepass/gatepass/internal/models"
)

// Offline is the gateway used when no backend is configured. Every call
// fails with ErrRemoteUnavailable, so the sync layer runs on the local store
// alone.
type Offline struct{}

var _ Gateway = Offline{}

var errNoBackend = fmt.Errorf("%w: no backend configured", ErrRemoteUnavailable)

func (Offline) Ping(context.Context) error { return errNoBackend }

func (Offline) List(context.Context, models.Kind, models.Filter) ([]models.Record, error) {
	return nil, errNoBackend
}

func (Offline) Create(context.Context, models.Record) (models.Record, error) {
	return nil, errNoBackend
}

func (Offline) UpdateEmployee(context.Context, string, models.EmployeePatch) (*models.Employee, error) {
	return nil, errNoBackend
}

func (Offline) Delete(context.Context, models.Kind, string) error { return errNoBackend }

func (Offline) FindVisitorByNationalID(context.Context, string) (*models.Visitor, error) {
	return nil, errNoBackend
}

func (Offline) WeeklyVisitCounts(context.Context, string, time.Time) ([7]int, error) {
	return [7]int{}, errNoBackend
}

func (Offline) VisitorStats(context.Context, string, time.Time) (Stats, error) {
	return Stats{}, errNoBackend
}

func (Offline) FindAdminByUsername(context.Context, string) (*models.AdminUser, error) {
	return nil, errNoBackend
}

func (Offline) DeleteAdminCascade(context.Context, string) error { return errNoBackend }
func (Offline) DeleteOwnedBy(context.Context, string) error      { return errNoBackend }
func (Offline) PurgeAll(context.Context) error                   { return errNoBackend }
