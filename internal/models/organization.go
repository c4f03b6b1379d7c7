package models

import (
	"fmt"
	"strings"
)

// OrganizationType classifies an organization.
type OrganizationType string

const (
	OrganizationGovernment OrganizationType = "government"
	OrganizationPrivate    OrganizationType = "private"
)

// GovernmentType is the optional sub-classification of a government organization.
type GovernmentType string

const (
	GovernmentState   GovernmentType = "state"
	GovernmentCentral GovernmentType = "central"
)

// Organization is a site that receives visitors. It is owned by the admin
// that created it.
type Organization struct {
	Meta
	Name           string           `json:"name"`
	Address        string           `json:"address"`
	Logo           string           `json:"logo,omitempty"`
	Type           OrganizationType `json:"type"`
	GovernmentType GovernmentType   `json:"government_type,omitempty"`
	MinistryName   string           `json:"ministry_name,omitempty"`
	CreatedBy      string           `json:"created_by"`
}

func (o *Organization) Kind() Kind              { return KindOrganization }
func (o *Organization) OrganizationRef() string { return o.ID }
func (o *Organization) Creator() string         { return o.CreatedBy }

// Validate checks required fields and the classification enums.
func (o *Organization) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return fmt.Errorf("%w: organization name is required", ErrValidation)
	}
	switch o.Type {
	case OrganizationGovernment:
		switch o.GovernmentType {
		case "", GovernmentState, GovernmentCentral:
		default:
			return fmt.Errorf("%w: unknown government type %q", ErrValidation, o.GovernmentType)
		}
	case OrganizationPrivate:
		if o.GovernmentType != "" {
			return fmt.Errorf("%w: private organization cannot have a government type", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown organization type %q", ErrValidation, o.Type)
	}
	return nil
}
