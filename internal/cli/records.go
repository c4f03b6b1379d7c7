package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/gatepass/gatepass/internal/models"
)

func (a *App) orgs(ctx context.Context) ([]*models.Organization, error) {
	f := models.Filter{}
	if !a.isSuperUser() {
		f.CreatedBy = a.user.ID
	}
	return a.coord.Organizations().Read(ctx, f)
}

func (a *App) employees(ctx context.Context) ([]*models.Employee, error) {
	f := models.Filter{}
	if !a.isSuperUser() {
		f.CreatedBy = a.user.ID
	}
	return a.coord.Employees().Read(ctx, f)
}

// visitors returns the visitors of the organizations the user can see.
func (a *App) visitors(ctx context.Context) ([]*models.Visitor, error) {
	all, err := a.coord.Visitors().Read(ctx, models.Filter{})
	if err != nil || a.isSuperUser() {
		return all, err
	}
	mine, err := a.orgSet(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, v := range all {
		if mine[v.OrganizationID] {
			out = append(out, v)
		}
	}
	return out, nil
}

func (a *App) orgSet(ctx context.Context) (map[string]bool, error) {
	orgs, err := a.orgs(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(orgs))
	for _, o := range orgs {
		set[o.ID] = true
	}
	return set, nil
}

func syncMark(r models.Record) string {
	if r.IsSynced() {
		return ""
	}
	return "*"
}

func (a *App) List(ctx context.Context, what string) error {
	kind, err := models.ParseKind(what)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	switch kind {
	case models.KindOrganization:
		orgs, err := a.orgs(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "ID\tNAME\tTYPE\tADDRESS\t")
		for _, o := range orgs {
			fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\t\n", o.ID, syncMark(o), o.Name, o.Type, o.Address)
		}
	case models.KindEmployee:
		emps, err := a.employees(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "ID\tNAME\tDESIGNATION\tDEPARTMENT\tORGANIZATION\t")
		for _, e := range emps {
			fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\t%s\t\n", e.ID, syncMark(e), e.Name, e.Designation, e.Department, e.OrganizationID)
		}
	case models.KindVisitor:
		vs, err := a.visitors(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "ID\tDATE\tTIME\tNAME\tVISITORS\tMEETING\t")
		for _, v := range vs {
			fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\t%d\t%s\t\n", v.ID, syncMark(v), v.VisitDate, v.VisitTime, v.FullName, v.NumberOfVisitors, v.OfficerName)
		}
	case models.KindAdminUser:
		if !a.isSuperUser() {
			return errPermission
		}
		admins, err := a.coord.AdminUsers().Read(ctx, models.Filter{})
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "ID\tUSERNAME\tNAME\tROLE\t")
		for _, u := range admins {
			fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\t\n", u.ID, syncMark(u), u.Username, u.FullName, u.Role)
		}
	}
	return nil
}

func (a *App) Add(ctx context.Context, what string) error {
	kind, err := models.ParseKind(what)
	if err != nil {
		return err
	}

	var rec models.Record
	switch kind {
	case models.KindOrganization:
		rec, err = a.promptOrganization()
	case models.KindEmployee:
		rec, err = a.promptEmployee(ctx)
	case models.KindVisitor:
		rec, err = a.promptVisitor(ctx)
	case models.KindAdminUser:
		if !a.isSuperUser() {
			return errPermission
		}
		in, perr := a.promptAdmin(models.RoleAdmin)
		if perr != nil {
			return perr
		}
		u, err := a.coord.CreateAdminUser(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Created admin %s (%s)\n", u.Username, u.ID)
		return nil
	}
	if err != nil {
		return err
	}

	stored, err := a.coord.Create(ctx, rec)
	if err != nil {
		return err
	}
	state := "saved"
	if !stored.IsSynced() {
		state = "saved locally, will sync when the backend is reachable"
	}
	fmt.Fprintf(a.out, "%s %s %s\n", kind, stored.GetID(), state)
	return nil
}

func (a *App) promptOrganization() (*models.Organization, error) {
	o := &models.Organization{CreatedBy: a.user.ID}
	var err error
	if o.Name, err = getSimpleText(a.reader, "Organization name", a.out); err != nil {
		return nil, err
	}
	if o.Address, err = getSimpleText(a.reader, "Address", a.out); err != nil {
		return nil, err
	}
	typ, err := GetChoice(a.reader, "Type", []string{string(models.OrganizationPrivate), string(models.OrganizationGovernment)}, a.out)
	if err != nil {
		return nil, err
	}
	o.Type = models.OrganizationType(typ)
	if o.Type == models.OrganizationGovernment {
		gt, err := GetChoice(a.reader, "Government type", []string{string(models.GovernmentState), string(models.GovernmentCentral)}, a.out)
		if err != nil {
			return nil, err
		}
		o.GovernmentType = models.GovernmentType(gt)
		if o.MinistryName, err = getSimpleText(a.reader, "Ministry name", a.out); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// pickOrganization asks for one of the user's organizations, defaulting to
// the only one when there is exactly one.
func (a *App) pickOrganization(ctx context.Context) (string, error) {
	orgs, err := a.orgs(ctx)
	if err != nil {
		return "", err
	}
	if len(orgs) == 0 {
		return "", fmt.Errorf("%w: add an organization first", models.ErrValidation)
	}
	def := ""
	if len(orgs) == 1 {
		def = orgs[0].ID
	} else {
		for _, o := range orgs {
			fmt.Fprintf(a.out, "  %s  %s\n", o.ID, o.Name)
		}
	}
	id, err := GetDefaultText(a.reader, "Organization id", def, a.out)
	if err != nil {
		return "", err
	}
	for _, o := range orgs {
		if o.ID == id {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: unknown organization %q", models.ErrValidation, id)
}

func (a *App) promptEmployee(ctx context.Context) (*models.Employee, error) {
	e := &models.Employee{CreatedBy: a.user.ID}
	var err error
	if e.OrganizationID, err = a.pickOrganization(ctx); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		prompt string
		dst    *string
	}{
		{"Name", &e.Name},
		{"Designation", &e.Designation},
		{"Department", &e.Department},
		{"Location", &e.Location},
		{"Phone number", &e.PhoneNumber},
	} {
		if *f.dst, err = getSimpleText(a.reader, f.prompt, a.out); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// promptVisitor registers a visit. A known Aadhar number pre-fills the
// visitor's name and phone from the latest earlier visit.
func (a *App) promptVisitor(ctx context.Context) (*models.Visitor, error) {
	v := &models.Visitor{}
	var err error
	if v.OrganizationID, err = a.pickOrganization(ctx); err != nil {
		return nil, err
	}
	if v.AadharNumber, err = getSimpleText(a.reader, "Aadhar number", a.out); err != nil {
		return nil, err
	}
	if prev, err := a.coord.FindVisitorByNationalID(ctx, v.AadharNumber); err != nil {
		return nil, err
	} else if prev != nil {
		fmt.Fprintf(a.out, "Returning visitor, last seen %s\n", prev.VisitDate)
		v.FullName, v.MobileNumber = prev.FullName, prev.MobileNumber
	}

	if v.FullName, err = GetDefaultText(a.reader, "Visitor name", v.FullName, a.out); err != nil {
		return nil, err
	}
	if v.MobileNumber, err = GetDefaultText(a.reader, "Phone number", v.MobileNumber, a.out); err != nil {
		return nil, err
	}
	if v.NumberOfVisitors, err = GetNumber(a.reader, "Number of visitors", 1, a.out); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrValidation, err)
	}
	if v.NumberOfVisitors > 1 {
		if v.TeamMemberNames, err = getSimpleText(a.reader, "Team member names", a.out); err != nil {
			return nil, err
		}
	}
	for _, f := range []struct {
		prompt string
		dst    *string
	}{
		{"Department", &v.Department},
		{"Officer/employee to meet", &v.OfficerName},
		{"Purpose", &v.PurposeToMeet},
		{"Description", &v.Description},
	} {
		if *f.dst, err = getSimpleText(a.reader, f.prompt, a.out); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// EditEmployee prompts for every field; an empty answer keeps the value.
func (a *App) EditEmployee(ctx context.Context, id string) error {
	emps, err := a.employees(ctx)
	if err != nil {
		return err
	}
	var cur *models.Employee
	for _, e := range emps {
		if e.ID == id {
			cur = e
		}
	}
	if cur == nil {
		return fmt.Errorf("employee %s: %w", id, models.ErrNotFound)
	}

	var patch models.EmployeePatch
	for _, f := range []struct {
		prompt string
		cur    string
		dst    **string
	}{
		{"Name", cur.Name, &patch.Name},
		{"Designation", cur.Designation, &patch.Designation},
		{"Department", cur.Department, &patch.Department},
		{"Location", cur.Location, &patch.Location},
		{"Phone number", cur.PhoneNumber, &patch.PhoneNumber},
	} {
		s, err := GetDefaultText(a.reader, f.prompt, f.cur, a.out)
		if err != nil {
			return err
		}
		if s != f.cur {
			*f.dst = &s
		}
	}
	if patch.IsEmpty() {
		fmt.Fprintln(a.out, "Nothing changed")
		return nil
	}

	updated, err := a.coord.UpdateEmployee(ctx, id, patch)
	if err != nil {
		return err
	}
	if updated.IsSynced() {
		fmt.Fprintf(a.out, "employee %s updated\n", updated.ID)
	} else {
		fmt.Fprintf(a.out, "employee %s updated locally\n", updated.ID)
	}
	return nil
}

// Delete removes a record the user can see. Deleting an admin cascades to
// its organizations and employees.
func (a *App) Delete(ctx context.Context, what, id string) error {
	kind, err := models.ParseKind(what)
	if err != nil {
		return err
	}

	if kind == models.KindAdminUser {
		if !a.isSuperUser() {
			return errPermission
		}
		if id == a.user.ID {
			return fmt.Errorf("%w: cannot delete the logged in account", models.ErrValidation)
		}
		if err := a.coord.DeleteAdminUser(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "admin %s deleted\n", id)
		return nil
	}

	if !a.isSuperUser() {
		ok, err := a.visible(ctx, kind, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s %s: %w", kind, id, models.ErrNotFound)
		}
	}
	if err := a.coord.Delete(ctx, kind, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s deleted\n", kind, id)
	return nil
}

func (a *App) visible(ctx context.Context, kind models.Kind, id string) (bool, error) {
	var recs []models.Record
	switch kind {
	case models.KindOrganization:
		orgs, err := a.orgs(ctx)
		if err != nil {
			return false, err
		}
		for _, o := range orgs {
			recs = append(recs, o)
		}
	case models.KindEmployee:
		emps, err := a.employees(ctx)
		if err != nil {
			return false, err
		}
		for _, e := range emps {
			recs = append(recs, e)
		}
	case models.KindVisitor:
		vs, err := a.visitors(ctx)
		if err != nil {
			return false, err
		}
		for _, v := range vs {
			recs = append(recs, v)
		}
	}
	for _, r := range recs {
		if r.GetID() == id {
			return true, nil
		}
	}
	return false, nil
}

func (a *App) Lookup(ctx context.Context, aadhar string) error {
	v, err := a.coord.FindVisitorByNationalID(ctx, aadhar)
	if err != nil {
		return err
	}
	if v == nil {
		fmt.Fprintln(a.out, "No visitor with that Aadhar number")
		return nil
	}
	fmt.Fprintf(a.out, "%s, phone %s, last visit %s %s, %d visitor(s)\n",
		v.FullName, v.MobileNumber, v.VisitDate, v.VisitTime, v.NumberOfVisitors)
	return nil
}
