package remote

import (
	"fmt"
	"strings"

	"github.com/gatepass/gatepass/internal/models"
)

type scanner interface {
	Scan(dest ...any) error
}

// codec maps one record kind onto its table.
type codec struct {
	table string
	// columns in SELECT/INSERT order; the first is always id and the last
	// created_at.
	columns []string
	// orgColumn and creatorColumn back models.Filter; "" means the kind has
	// no such column and a filter on it matches nothing.
	orgColumn     string
	creatorColumn string

	values func(models.Record) []any
	scan   func(scanner) (models.Record, error)
}

func (c codec) columnList() string {
	return strings.Join(c.columns, ", ")
}

var codecs = map[models.Kind]codec{
	models.KindOrganization: {
		table: "organizations",
		columns: []string{"id", "name", "address", "logo", "type", "government_type",
			"ministry_name", "created_by", "created_at"},
		orgColumn:     "id",
		creatorColumn: "created_by",
		values: func(r models.Record) []any {
			o := r.(*models.Organization)
			return []any{o.ID, o.Name, o.Address, o.Logo, string(o.Type), string(o.GovernmentType),
				o.MinistryName, o.CreatedBy, o.CreatedAt}
		},
		scan: func(s scanner) (models.Record, error) {
			o := &models.Organization{}
			var typ, gov string
			err := s.Scan(&o.ID, &o.Name, &o.Address, &o.Logo, &typ, &gov,
				&o.MinistryName, &o.CreatedBy, &o.CreatedAt)
			o.Type, o.GovernmentType = models.OrganizationType(typ), models.GovernmentType(gov)
			return o, err
		},
	},
	models.KindEmployee: {
		table: "employees",
		columns: []string{"id", "name", "designation", "department", "location", "phone_number",
			"image", "organization_id", "created_by", "created_at"},
		orgColumn:     "organization_id",
		creatorColumn: "created_by",
		values: func(r models.Record) []any {
			e := r.(*models.Employee)
			return []any{e.ID, e.Name, e.Designation, e.Department, e.Location, e.PhoneNumber,
				e.Image, e.OrganizationID, e.CreatedBy, e.CreatedAt}
		},
		scan: func(s scanner) (models.Record, error) {
			e := &models.Employee{}
			err := s.Scan(&e.ID, &e.Name, &e.Designation, &e.Department, &e.Location, &e.PhoneNumber,
				&e.Image, &e.OrganizationID, &e.CreatedBy, &e.CreatedAt)
			return e, err
		},
	},
	models.KindVisitor: {
		table: "visitors",
		columns: []string{"id", "full_name", "mobile_number", "aadhar_number", "number_of_visitors",
			"team_member_names", "photo", "department", "officer_name", "purpose_to_meet",
			"description", "organization_id", "visit_date", "visit_time", "created_at"},
		orgColumn: "organization_id",
		values: func(r models.Record) []any {
			v := r.(*models.Visitor)
			return []any{v.ID, v.FullName, v.MobileNumber, v.AadharNumber, v.NumberOfVisitors,
				v.TeamMemberNames, v.Photo, v.Department, v.OfficerName, v.PurposeToMeet,
				v.Description, v.OrganizationID, v.VisitDate, v.VisitTime, v.CreatedAt}
		},
		scan: func(s scanner) (models.Record, error) {
			v := &models.Visitor{}
			err := s.Scan(&v.ID, &v.FullName, &v.MobileNumber, &v.AadharNumber, &v.NumberOfVisitors,
				&v.TeamMemberNames, &v.Photo, &v.Department, &v.OfficerName, &v.PurposeToMeet,
				&v.Description, &v.OrganizationID, &v.VisitDate, &v.VisitTime, &v.CreatedAt)
			return v, err
		},
	},
	models.KindAdminUser: {
		table: "admin_users",
		columns: []string{"id", "full_name", "username", "password_hash", "phone_number",
			"aadhar_number", "role", "created_at"},
		values: func(r models.Record) []any {
			u := r.(*models.AdminUser)
			return []any{u.ID, u.FullName, u.Username, u.PasswordHash, u.PhoneNumber,
				u.AadharNumber, string(u.Role), u.CreatedAt}
		},
		scan: func(s scanner) (models.Record, error) {
			u := &models.AdminUser{}
			var role string
			err := s.Scan(&u.ID, &u.FullName, &u.Username, &u.PasswordHash, &u.PhoneNumber,
				&u.AadharNumber, &role, &u.CreatedAt)
			u.Role = models.Role(role)
			return u, err
		},
	},
}

func codecFor(kind models.Kind) (codec, error) {
	c, ok := codecs[kind]
	if !ok {
		return codec{}, fmt.Errorf("%w: unknown kind %q", models.ErrValidation, string(kind))
	}
	return c, nil
}
