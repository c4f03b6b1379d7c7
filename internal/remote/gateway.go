// Package remote is the gateway to the hosted relational backend. Each
// record kind has one Postgres table; the gateway offers per-kind CRUD and a
// few composite queries.
//
// The gateway never retries. Every failure is reported wrapped in
// ErrRemoteUnavailable, except models.ErrNotFound for updates of missing
// rows.
package remote

import (
	"context"
	"time"

	"github.com/gatepass/gatepass/internal/models"
)

// Stats are visitor counters for a dashboard.
type Stats struct {
	Total int
	Today int
}

// Gateway is the backend contract used by the sync coordinator.
type Gateway interface {
	// Ping issues a cheap read to test reachability.
	Ping(ctx context.Context) error

	// List returns the rows of a kind matching f, newest first.
	List(ctx context.Context, kind models.Kind, f models.Filter) ([]models.Record, error)
	// Create inserts rec and returns the stored row.
	Create(ctx context.Context, rec models.Record) (models.Record, error)
	// UpdateEmployee applies patch to the employee and returns the stored row.
	UpdateEmployee(ctx context.Context, id string, patch models.EmployeePatch) (*models.Employee, error)
	// Delete removes a row. Deleting a missing row is not an error.
	Delete(ctx context.Context, kind models.Kind, id string) error

	// FindVisitorByNationalID returns the most recent visitor registered
	// with the given Aadhar number, or nil when there is none.
	FindVisitorByNationalID(ctx context.Context, aadhar string) (*models.Visitor, error)
	// WeeklyVisitCounts returns visits per weekday of the Sunday-to-Saturday
	// week containing now. An empty orgID counts every organization.
	WeeklyVisitCounts(ctx context.Context, orgID string, now time.Time) ([7]int, error)
	// VisitorStats counts all visits and the visits dated today.
	VisitorStats(ctx context.Context, orgID string, today time.Time) (Stats, error)
	// FindAdminByUsername returns the admin user or nil when there is none.
	FindAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error)

	// DeleteAdminCascade removes an admin user with its organizations and
	// the employees created by it or working in those organizations.
	DeleteAdminCascade(ctx context.Context, adminID string) error
	// DeleteOwnedBy removes the organizations created by adminID, their
	// employees and visitors, and every employee created by adminID.
	DeleteOwnedBy(ctx context.Context, adminID string) error
	// PurgeAll removes every row of every kind.
	PurgeAll(ctx context.Context) error
}
