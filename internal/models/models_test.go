package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"organization", KindOrganization, false},
		{"orgs", KindOrganization, false},
		{"employees", KindEmployee, false},
		{"visitor", KindVisitor, false},
		{"admin", KindAdminUser, false},
		{"admin_user", KindAdminUser, false},
		{"gadget", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKinds_ReconcileOrderAndTables(t *testing.T) {
	assert.Equal(t, []Kind{KindOrganization, KindEmployee, KindVisitor, KindAdminUser}, Kinds)
	for _, k := range Kinds {
		assert.True(t, k.Valid())
		r, err := New(k)
		require.NoError(t, err)
		assert.Equal(t, k, r.Kind())
	}
	assert.Equal(t, "admin_users", KindAdminUser.Table())
	assert.False(t, Kind("nope").Valid())

	_, err := New("nope")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFilter_Match(t *testing.T) {
	org := &Organization{Meta: Meta{ID: "o1"}, CreatedBy: "a1"}
	emp := &Employee{OrganizationID: "o1", CreatedBy: "a2"}
	vis := &Visitor{OrganizationID: "o2"}

	assert.True(t, Filter{}.Match(vis))
	assert.True(t, Filter{OrganizationID: "o1"}.Match(org))
	assert.True(t, Filter{OrganizationID: "o1"}.Match(emp))
	assert.False(t, Filter{OrganizationID: "o1"}.Match(vis))
	assert.True(t, Filter{CreatedBy: "a1"}.Match(org))
	assert.False(t, Filter{CreatedBy: "a1"}.Match(emp))
	assert.False(t, Filter{CreatedBy: "a1"}.Match(vis))
	assert.False(t, Filter{OrganizationID: "o1", CreatedBy: "a1"}.Match(emp))
}

func TestApply_KeepsOrder(t *testing.T) {
	in := []*Employee{
		{Meta: Meta{ID: "1"}, OrganizationID: "a"},
		{Meta: Meta{ID: "2"}, OrganizationID: "b"},
		{Meta: Meta{ID: "3"}, OrganizationID: "a"},
	}
	got := Apply(Filter{OrganizationID: "a"}, in)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	assert.Len(t, Apply(Filter{}, in), 3)
}

func TestEmployeePatch_Apply(t *testing.T) {
	e := &Employee{Name: "Asha", Designation: "Clerk", Department: "Revenue", PhoneNumber: "1"}

	p := EmployeePatch{Designation: ptr("Officer"), PhoneNumber: ptr("")}
	require.False(t, p.IsEmpty())
	p.Apply(e)

	assert.Equal(t, "Asha", e.Name)
	assert.Equal(t, "Officer", e.Designation)
	assert.Equal(t, "Revenue", e.Department)
	assert.Equal(t, "", e.PhoneNumber)
	assert.True(t, EmployeePatch{}.IsEmpty())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		wantErr bool
	}{
		{"org ok", &Organization{Name: "Collectorate", Type: OrganizationGovernment, GovernmentType: GovernmentState}, false},
		{"org no name", &Organization{Type: OrganizationPrivate}, true},
		{"org bad type", &Organization{Name: "x", Type: "ngo"}, true},
		{"private with gov type", &Organization{Name: "x", Type: OrganizationPrivate, GovernmentType: GovernmentCentral}, true},
		{"employee ok", &Employee{Name: "a", OrganizationID: "o"}, false},
		{"employee no org", &Employee{Name: "a"}, true},
		{"visitor ok", &Visitor{FullName: "v", OrganizationID: "o", NumberOfVisitors: 1, VisitDate: "2024-05-01", VisitTime: "09:30"}, false},
		{"visitor zero party", &Visitor{FullName: "v", OrganizationID: "o"}, true},
		{"visitor bad date", &Visitor{FullName: "v", OrganizationID: "o", NumberOfVisitors: 2, VisitDate: "01/05/2024"}, true},
		{"admin ok", &AdminUser{Username: "root", PasswordHash: "$2a$", Role: RoleSuperUser}, false},
		{"admin bad role", &AdminUser{Username: "root", PasswordHash: "$2a$", Role: "owner"}, true},
		{"admin no hash", &AdminUser{Username: "root", Role: RoleAdmin}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVisitor_StampVisit(t *testing.T) {
	now := time.Date(2024, 5, 1, 14, 7, 0, 0, time.UTC)

	v := &Visitor{}
	v.StampVisit(now)
	assert.Equal(t, "2024-05-01", v.VisitDate)
	assert.Equal(t, "14:07", v.VisitTime)

	v = &Visitor{VisitDate: "2023-01-01", VisitTime: "08:00"}
	v.StampVisit(now)
	assert.Equal(t, "2023-01-01", v.VisitDate)
	assert.Equal(t, "08:00", v.VisitTime)
}

func TestMeta_SyncedNotSerialized(t *testing.T) {
	v := &Visitor{Meta: Meta{ID: "v1", Synced: true}, FullName: "Ravi"}
	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "synced")
	assert.Contains(t, string(b), `"full_name":"Ravi"`)

	var back Visitor
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "v1", back.ID)
	assert.False(t, back.Synced)
}
