package models

import (
	"fmt"
	"strings"
)

// Employee belongs to an organization and is managed by the admin owning it.
type Employee struct {
	Meta
	Name           string `json:"name"`
	Designation    string `json:"designation"`
	Department     string `json:"department"`
	Location       string `json:"location"`
	PhoneNumber    string `json:"phone_number"`
	Image          string `json:"image,omitempty"`
	OrganizationID string `json:"organization_id"`
	CreatedBy      string `json:"created_by"`
}

func (e *Employee) Kind() Kind              { return KindEmployee }
func (e *Employee) OrganizationRef() string { return e.OrganizationID }
func (e *Employee) Creator() string         { return e.CreatedBy }

func (e *Employee) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: employee name is required", ErrValidation)
	}
	if e.OrganizationID == "" {
		return fmt.Errorf("%w: employee organization is required", ErrValidation)
	}
	return nil
}

// EmployeePatch is a partial update. Nil fields are left untouched.
type EmployeePatch struct {
	Name           *string `json:"name,omitempty"`
	Designation    *string `json:"designation,omitempty"`
	Department     *string `json:"department,omitempty"`
	Location       *string `json:"location,omitempty"`
	PhoneNumber    *string `json:"phone_number,omitempty"`
	Image          *string `json:"image,omitempty"`
	OrganizationID *string `json:"organization_id,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p EmployeePatch) IsEmpty() bool {
	return p.Name == nil && p.Designation == nil && p.Department == nil &&
		p.Location == nil && p.PhoneNumber == nil && p.Image == nil && p.OrganizationID == nil
}

// Apply copies the set fields of p onto e.
func (p EmployeePatch) Apply(e *Employee) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Designation != nil {
		e.Designation = *p.Designation
	}
	if p.Department != nil {
		e.Department = *p.Department
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.PhoneNumber != nil {
		e.PhoneNumber = *p.PhoneNumber
	}
	if p.Image != nil {
		e.Image = *p.Image
	}
	if p.OrganizationID != nil {
		e.OrganizationID = *p.OrganizationID
	}
}
