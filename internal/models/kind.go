package models

import "fmt"

// Kind names a record category. Each kind has its own local collection and
// its own backend table.
type Kind string

const (
	KindOrganization Kind = "organization"
	KindEmployee     Kind = "employee"
	KindVisitor      Kind = "visitor"
	KindAdminUser    Kind = "admin_user"
)

// Kinds lists every kind in reconciliation order. Organizations go first so
// that employees and visitors never reference a missing parent on the backend.
var Kinds = []Kind{KindOrganization, KindEmployee, KindVisitor, KindAdminUser}

// Table returns the backend table name for the kind.
func (k Kind) Table() string {
	switch k {
	case KindOrganization:
		return "organizations"
	case KindEmployee:
		return "employees"
	case KindVisitor:
		return "visitors"
	case KindAdminUser:
		return "admin_users"
	}
	return ""
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k.Table() != ""
}

// New returns an empty record of the given kind, ready to be decoded into.
func New(k Kind) (Record, error) {
	switch k {
	case KindOrganization:
		return &Organization{}, nil
	case KindEmployee:
		return &Employee{}, nil
	case KindVisitor:
		return &Visitor{}, nil
	case KindAdminUser:
		return &AdminUser{}, nil
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrValidation, string(k))
}

// ParseKind accepts the kind name as well as a few plural aliases used by the CLI.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "organization", "organizations", "org", "orgs":
		return KindOrganization, nil
	case "employee", "employees", "emp":
		return KindEmployee, nil
	case "visitor", "visitors":
		return KindVisitor, nil
	case "admin_user", "admin_users", "admin", "admins":
		return KindAdminUser, nil
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrValidation, s)
}
