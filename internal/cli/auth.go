package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatepass/gatepass/internal/auth"
	"github.com/gatepass/gatepass/internal/coordinator"
	"github.com/gatepass/gatepass/internal/local"
	"github.com/gatepass/gatepass/internal/models"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login checks credentials against the backend, or the local mirror when it
// is unreachable, and saves a signed session so the next start skips the
// prompt.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	user, err := a.coord.Authenticate(ctx, username, string(password))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return errors.New("wrong username or password")
		}
		return err
	}

	token, err := auth.IssueSession(user, []byte(a.config.SessionSecret), a.config.SessionTTL)
	if err != nil {
		return fmt.Errorf("issue session: %w", err)
	}
	if err := a.store.SetMeta(ctx, local.MetaSession, []byte(token)); err != nil {
		return err
	}
	session, err := auth.ParseSession(token, []byte(a.config.SessionSecret))
	if err != nil {
		return err
	}

	a.user, a.session = user, session
	a.log.Info(ctx, "logged in", "user", user.Username, "role", user.Role)
	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", user.Username, user.Role)
	return nil
}

// Setup creates the first super user. It is refused once any account exists.
func (a *App) Setup(ctx context.Context) error {
	admins, err := a.coord.AdminUsers().Read(ctx, models.Filter{})
	if err != nil {
		return err
	}
	if len(admins) > 0 {
		return errors.New("setup already done, login instead")
	}

	in, err := a.promptAdmin(models.RoleSuperUser)
	if err != nil {
		return err
	}
	u, err := a.coord.CreateAdminUser(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created super user %s, you can login now\n", u.Username)
	return nil
}

func (a *App) promptAdmin(role models.Role) (coordinator.NewAdmin, error) {
	var in coordinator.NewAdmin
	var err error
	if in.FullName, err = getSimpleText(a.reader, "Full name", a.out); err != nil {
		return in, err
	}
	if in.Username, err = getSimpleText(a.reader, "Username", a.out); err != nil {
		return in, err
	}
	pw, err := getPassword(a.out)
	if err != nil {
		return in, err
	}
	in.Password = string(pw)
	wipe(pw)
	if in.PhoneNumber, err = getSimpleText(a.reader, "Phone number", a.out); err != nil {
		return in, err
	}
	if in.AadharNumber, err = getSimpleText(a.reader, "Aadhar number", a.out); err != nil {
		return in, err
	}
	in.Role = role
	return in, nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.store.DeleteMeta(ctx, local.MetaSession); err != nil {
		return err
	}
	a.user, a.session = nil, nil
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// restoreSession logs the saved user back in when its session is still
// valid and the account is still mirrored.
func (a *App) restoreSession(ctx context.Context) {
	raw, err := a.store.GetMeta(ctx, local.MetaSession)
	if err != nil || raw == nil {
		return
	}
	session, err := auth.ParseSession(string(raw), []byte(a.config.SessionSecret))
	if err != nil {
		a.log.Info(ctx, "saved session dropped", "reason", err)
		_ = a.store.DeleteMeta(ctx, local.MetaSession)
		return
	}
	rec, err := a.store.GetByID(ctx, models.KindAdminUser, session.UserID)
	if err != nil {
		a.log.Info(ctx, "saved session dropped", "reason", err)
		_ = a.store.DeleteMeta(ctx, local.MetaSession)
		return
	}
	user, ok := rec.(*models.AdminUser)
	if !ok {
		return
	}
	a.user, a.session = user, session
	fmt.Fprintf(a.out, "Welcome back, %s\n", user.Username)
}
