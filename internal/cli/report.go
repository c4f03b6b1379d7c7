package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gatepass/gatepass/internal/connectivity"
	"github.com/gatepass/gatepass/internal/export"
	"github.com/gatepass/gatepass/internal/models"
	"github.com/gatepass/gatepass/internal/remote"
)

var weekdays = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func (a *App) Status(ctx context.Context) error {
	snap := a.coord.Snapshot()
	network := "down"
	if snap.Online {
		network = "up"
	}
	fmt.Fprintf(a.out, "Backend: %s, network: %s\n", snap.Backend, network)
	if a.backend == nil {
		fmt.Fprintln(a.out, "No backend configured")
	}

	pending, err := a.coord.Pending(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Pending changes: %d\n", pending)

	last, err := a.coord.LastReconcile(ctx)
	if err != nil {
		return err
	}
	if last.IsZero() {
		fmt.Fprintln(a.out, "Last sync: never")
	} else {
		fmt.Fprintf(a.out, "Last sync: %s\n", last.Local().Format(time.DateTime))
	}

	if a.user != nil {
		fmt.Fprintf(a.out, "Logged in as %s (%s)\n", a.user.Username, a.user.Role)
	}
	return nil
}

// Stats prints visit totals and this week's visits per weekday. Without an
// organization id an admin gets the sum over its own organizations.
func (a *App) Stats(ctx context.Context, orgID string) error {
	var orgIDs []string
	switch {
	case orgID != "":
		if !a.isSuperUser() {
			mine, err := a.orgSet(ctx)
			if err != nil {
				return err
			}
			if !mine[orgID] {
				return fmt.Errorf("organization %s: %w", orgID, models.ErrNotFound)
			}
		}
		orgIDs = []string{orgID}
	case a.isSuperUser():
		orgIDs = []string{""}
	default:
		orgs, err := a.orgs(ctx)
		if err != nil {
			return err
		}
		for _, o := range orgs {
			orgIDs = append(orgIDs, o.ID)
		}
	}

	var (
		stats remote.Stats
		week  [7]int
	)
	for _, id := range orgIDs {
		s, err := a.coord.VisitorStats(ctx, id)
		if err != nil {
			return err
		}
		w, err := a.coord.WeeklyVisitCounts(ctx, id)
		if err != nil {
			return err
		}
		stats.Total += s.Total
		stats.Today += s.Today
		for i := range week {
			week[i] += w[i]
		}
	}

	fmt.Fprintf(a.out, "Visits: %d total, %d today\n", stats.Total, stats.Today)
	parts := make([]string, len(week))
	for i, n := range week {
		parts[i] = fmt.Sprintf("%s %d", weekdays[i], n)
	}
	fmt.Fprintf(a.out, "This week: %s\n", strings.Join(parts, ", "))
	return nil
}

// Export writes a CSV file of the visitors the user may see. Arguments are
// org=<id>, admin=<id> (super user only) and upload.
func (a *App) Export(ctx context.Context, args []string) error {
	scope := export.Scope{Role: a.user.Role, UserID: a.user.ID}
	upload := false
	for _, arg := range args {
		key, val, _ := strings.Cut(arg, "=")
		switch key {
		case "org":
			scope.OrganizationID = val
		case "admin":
			if !a.isSuperUser() {
				return errPermission
			}
			scope.AdminID = val
		case "upload":
			upload = true
		default:
			return fmt.Errorf("%w: unknown export option %q", models.ErrValidation, arg)
		}
	}

	data, err := export.Load(ctx, a.coord)
	if err != nil {
		return err
	}
	now := time.Now()
	path, n, err := export.ToFile(a.config.ExportDir, data, scope, now)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported %d visitor(s) to %s\n", n, path)

	if !upload {
		return nil
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	arch, err := export.NewArchiver(ctx, export.ArchiveConfig{
		Bucket:       a.config.S3Bucket,
		Region:       a.config.S3Region,
		BaseEndpoint: a.config.S3BaseEndpoint,
		AccessKey:    a.config.S3AccessKey,
		SecretKey:    a.config.S3SecretKey,
	})
	if err != nil {
		return err
	}
	loc, err := arch.Upload(ctx, export.ArchiveKey(a.user.Role, now), body)
	if err != nil {
		return fmt.Errorf("upload export: %w", err)
	}
	a.log.Info(ctx, "export archived", "location", loc, "visitors", n)
	fmt.Fprintf(a.out, "Uploaded to %s\n", loc)
	return nil
}

func (a *App) Sync(ctx context.Context) error {
	report, err := a.coord.Reconcile(ctx)
	if err != nil {
		return err
	}
	if report.Skipped {
		fmt.Fprintln(a.out, "Sync skipped: backend not connected or a sync is already running")
		return nil
	}
	fmt.Fprintf(a.out, "Synced: %d pushed, %d deleted, %d failed\n", report.Pushed, report.Deleted, report.Failed)
	return nil
}

// SetOffline pins the backend status to disconnected, or hands it back to
// the probes.
func (a *App) SetOffline(ctx context.Context, offline bool) error {
	if a.backend == nil {
		fmt.Fprintln(a.out, "No backend configured, working offline")
		return nil
	}
	if offline {
		a.monitor.ForceStatus(connectivity.StatusDisconnected)
		a.log.Info(ctx, "forced offline")
		fmt.Fprintln(a.out, "Working offline")
		return nil
	}
	a.monitor.Release()
	fmt.Fprintln(a.out, "Reconnecting to the backend")
	return nil
}

// Wipe removes the admin's organizations with their employees and visitors.
// For a super user it clears every collection and logs out.
func (a *App) Wipe(ctx context.Context) error {
	prompt := "Delete all your organizations, employees and visitors?"
	if a.isSuperUser() {
		prompt = "Delete ALL data including admin accounts?"
	}
	ok, err := Confirm(a.reader, prompt, a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}

	if !a.isSuperUser() {
		if err := a.coord.DeleteOwnedData(ctx, a.user.ID); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Your data was deleted")
		return nil
	}

	if err := a.coord.PurgeAll(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "All data was deleted")
	return a.Logout(ctx)
}
