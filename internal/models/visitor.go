package models

import (
	"fmt"
	"strings"
	"time"
)

// Date and time layouts used for Visitor.VisitDate and Visitor.VisitTime.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Visitor is a single registration at the front desk. Visitors are created
// once and never edited through the sync layer.
type Visitor struct {
	Meta
	FullName         string `json:"full_name"`
	MobileNumber     string `json:"mobile_number"`
	AadharNumber     string `json:"aadhar_number"`
	NumberOfVisitors int    `json:"number_of_visitors"`
	TeamMemberNames  string `json:"team_member_names,omitempty"`
	Photo            string `json:"photo,omitempty"`
	Department       string `json:"department"`
	OfficerName      string `json:"officer_name"`
	PurposeToMeet    string `json:"purpose_to_meet"`
	Description      string `json:"description,omitempty"`
	OrganizationID   string `json:"organization_id"`
	VisitDate        string `json:"visit_date"`
	VisitTime        string `json:"visit_time"`
}

func (v *Visitor) Kind() Kind              { return KindVisitor }
func (v *Visitor) OrganizationRef() string { return v.OrganizationID }
func (v *Visitor) Creator() string         { return "" }

func (v *Visitor) Validate() error {
	if strings.TrimSpace(v.FullName) == "" {
		return fmt.Errorf("%w: visitor name is required", ErrValidation)
	}
	if v.OrganizationID == "" {
		return fmt.Errorf("%w: visitor organization is required", ErrValidation)
	}
	if v.NumberOfVisitors < 1 {
		return fmt.Errorf("%w: number of visitors must be at least 1", ErrValidation)
	}
	if v.VisitDate != "" {
		if _, err := time.Parse(DateLayout, v.VisitDate); err != nil {
			return fmt.Errorf("%w: visit date %q is not YYYY-MM-DD", ErrValidation, v.VisitDate)
		}
	}
	if v.VisitTime != "" {
		if _, err := time.Parse(TimeLayout, v.VisitTime); err != nil {
			return fmt.Errorf("%w: visit time %q is not HH:MM", ErrValidation, v.VisitTime)
		}
	}
	return nil
}

// StampVisit fills empty VisitDate/VisitTime from t.
func (v *Visitor) StampVisit(t time.Time) {
	if v.VisitDate == "" {
		v.VisitDate = t.Format(DateLayout)
	}
	if v.VisitTime == "" {
		v.VisitTime = t.Format(TimeLayout)
	}
}
