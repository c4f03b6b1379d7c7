// Package export writes visitor registrations as CSV, scoped to what the
// requesting admin may see, and can archive the file to an S3-compatible
// bucket.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gatepass/gatepass/internal/coordinator"
	"github.com/gatepass/gatepass/internal/filex"
	"github.com/gatepass/gatepass/internal/models"
)

// Header is the fixed column set of an export.
var Header = []string{
	"Date",
	"Time",
	"Visitor Name",
	"Phone Number",
	"Aadhar Number",
	"Number of Visitors",
	"Team Member Names",
	"Department Name",
	"Officer/Employee Name",
	"Purpose To Meet",
	"Description",
	"Organization",
	"Registered Under Admin",
}

const (
	UnknownOrganization = "Unknown Organization"
	UnknownAdmin        = "Unknown Admin"
)

// Scope says who exports and which optional narrowing applies. An admin
// only ever sees visitors of organizations it created; OrganizationID may
// narrow that further. A super user sees everything, optionally narrowed by
// OrganizationID and by AdminID, the creator of the visitor's organization.
type Scope struct {
	Role           models.Role
	UserID         string
	OrganizationID string
	AdminID        string
}

// Data is the input of an export.
type Data struct {
	Visitors      []*models.Visitor
	Organizations []*models.Organization
	Admins        []*models.AdminUser
}

// Load reads everything an export needs through the coordinator.
func Load(ctx context.Context, c *coordinator.Coordinator) (Data, error) {
	var (
		d   Data
		err error
	)
	if d.Visitors, err = c.Visitors().Read(ctx, models.Filter{}); err != nil {
		return Data{}, fmt.Errorf("load visitors: %w", err)
	}
	if d.Organizations, err = c.Organizations().Read(ctx, models.Filter{}); err != nil {
		return Data{}, fmt.Errorf("load organizations: %w", err)
	}
	if d.Admins, err = c.AdminUsers().Read(ctx, models.Filter{}); err != nil {
		return Data{}, fmt.Errorf("load admin users: %w", err)
	}
	return d, nil
}

// Select returns the visitors the scope may export, in input order.
func Select(d Data, s Scope) ([]*models.Visitor, error) {
	owner := make(map[string]string, len(d.Organizations))
	for _, o := range d.Organizations {
		owner[o.ID] = o.CreatedBy
	}

	var keep func(v *models.Visitor) bool
	switch s.Role {
	case models.RoleAdmin:
		if s.UserID == "" {
			return nil, fmt.Errorf("%w: admin export needs the admin id", models.ErrValidation)
		}
		keep = func(v *models.Visitor) bool {
			created, ok := owner[v.OrganizationID]
			return ok && created == s.UserID &&
				(s.OrganizationID == "" || v.OrganizationID == s.OrganizationID)
		}
	case models.RoleSuperUser:
		keep = func(v *models.Visitor) bool {
			if s.OrganizationID != "" && v.OrganizationID != s.OrganizationID {
				return false
			}
			if s.AdminID != "" {
				created, ok := owner[v.OrganizationID]
				return ok && created == s.AdminID
			}
			return true
		}
	default:
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrValidation, s.Role)
	}

	out := make([]*models.Visitor, 0, len(d.Visitors))
	for _, v := range d.Visitors {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

// Write emits the header and one row per selected visitor and returns the
// number of rows.
func Write(w io.Writer, d Data, s Scope) (int, error) {
	visitors, err := Select(d, s)
	if err != nil {
		return 0, err
	}

	orgs := make(map[string]*models.Organization, len(d.Organizations))
	for _, o := range d.Organizations {
		orgs[o.ID] = o
	}
	admins := make(map[string]string, len(d.Admins))
	for _, a := range d.Admins {
		admins[a.ID] = a.FullName
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, err
	}
	for _, v := range visitors {
		orgName, adminName := UnknownOrganization, UnknownAdmin
		if o, ok := orgs[v.OrganizationID]; ok {
			if o.Name != "" {
				orgName = o.Name
			}
			if name := admins[o.CreatedBy]; name != "" {
				adminName = name
			}
		}
		count := ""
		if v.NumberOfVisitors > 0 {
			count = strconv.Itoa(v.NumberOfVisitors)
		}
		if err := cw.Write([]string{
			v.VisitDate,
			v.VisitTime,
			v.FullName,
			v.MobileNumber,
			v.AadharNumber,
			count,
			v.TeamMemberNames,
			v.Department,
			v.OfficerName,
			v.PurposeToMeet,
			v.Description,
			orgName,
			adminName,
		}); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}
	return len(visitors), nil
}

// FileName is the export file name for a role on a given day.
func FileName(role models.Role, now time.Time) string {
	return fmt.Sprintf("visitor-data-%s-%s.csv", role, now.Format(models.DateLayout))
}

// ToFile writes the export into dir, creating it when missing, and returns its path and row count.
func ToFile(dir string, d Data, s Scope, now time.Time) (string, int, error) {
	dir, err := filex.EnsureDir(dir)
	if err != nil {
		return "", 0, err
	}
	path := filepath.Join(dir, FileName(s.Role, now))
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create export file: %w", err)
	}
	n, err := Write(f, d, s)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("write export: %w", err)
	}
	return path, n, nil
}
