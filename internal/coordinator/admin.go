package coordinator

import (
	"context"
	"fmt"
	"strings"

	"github.com/gatepass/gatepass/internal/auth"
	"github.com/gatepass/gatepass/internal/local"
	"github.com/gatepass/gatepass/internal/models"
)

// NewAdmin is the input of CreateAdminUser. Password is plaintext and is
// hashed before anything is stored.
type NewAdmin struct {
	FullName     string
	Username     string
	Password     string
	PhoneNumber  string
	AadharNumber string
	Role         models.Role
}

// CreateAdminUser hashes the password and creates the account. Usernames
// already present in the local mirror are rejected.
func (c *Coordinator) CreateAdminUser(ctx context.Context, in NewAdmin) (*models.AdminUser, error) {
	username := strings.TrimSpace(in.Username)
	if existing, err := c.localAdmin(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: username %q is taken", models.ErrValidation, username)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrValidation, err)
	}
	return c.AdminUsers().Create(ctx, &models.AdminUser{
		FullName:     in.FullName,
		Username:     username,
		PasswordHash: hash,
		PhoneNumber:  in.PhoneNumber,
		AadharNumber: in.AadharNumber,
		Role:         in.Role,
	})
}

// Authenticate checks a username and password against the backend when
// reachable and against the local mirror otherwise. An account found on the
// backend is mirrored so that later offline logins work. When the backend
// answers that the account does not exist, only a local account that was
// never pushed may log in; a pushed one was deleted remotely and is dropped
// from the mirror.
func (c *Coordinator) Authenticate(ctx context.Context, username, password string) (*models.AdminUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, auth.ErrInvalidCredentials
	}

	var (
		user     *models.AdminUser
		answered bool
	)
	if c.connected() {
		err := c.call(ctx, "find_admin", func(ctx context.Context) error {
			var err error
			user, err = c.gw.FindAdminByUsername(ctx, username)
			return err
		})
		if err != nil {
			c.log.Warn(ctx, "backend login lookup failed, using local mirror", "error", err)
		} else {
			answered = true
		}
		if user != nil {
			user.SetSynced(true)
			if err := c.store.Upsert(ctx, user); err != nil {
				return nil, err
			}
		}
	}

	if user == nil {
		var err error
		if user, err = c.localAdmin(ctx, username); err != nil {
			return nil, err
		}
		if user != nil && answered && user.IsSynced() {
			c.log.Info(ctx, "account removed on backend, dropping local copy", "user", username)
			if _, err := c.store.Delete(ctx, models.KindAdminUser, user.ID); err != nil {
				return nil, err
			}
			user = nil
		}
	}
	if user == nil {
		return nil, auth.ErrInvalidCredentials
	}
	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}
	return user, nil
}

func (c *Coordinator) localAdmin(ctx context.Context, username string) (*models.AdminUser, error) {
	admins, err := local.NewCollection[*models.AdminUser](c.store).Get(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range admins {
		if a.Username == username {
			return a, nil
		}
	}
	return nil, nil
}

// DeleteAdminUser removes an admin together with the organizations it
// created and the employees it created or that work in those organizations.
// Visitors are kept.
func (c *Coordinator) DeleteAdminUser(ctx context.Context, adminID string) error {
	remoteDone := c.bulkRemote(ctx, "delete_admin", func(ctx context.Context) error {
		return c.gw.DeleteAdminCascade(ctx, adminID)
	})

	orgs, err := c.ownedOrgs(ctx, adminID)
	if err != nil {
		return err
	}
	if err := c.removeLocal(ctx, models.KindEmployee, func(r models.Record) bool {
		_, inOrg := orgs[r.OrganizationRef()]
		return r.Creator() == adminID || inOrg
	}, remoteDone); err != nil {
		return err
	}
	if err := c.removeLocal(ctx, models.KindOrganization, func(r models.Record) bool {
		_, owned := orgs[r.GetID()]
		return owned
	}, remoteDone); err != nil {
		return err
	}
	return c.removeLocal(ctx, models.KindAdminUser, func(r models.Record) bool {
		return r.GetID() == adminID
	}, remoteDone)
}

// DeleteOwnedData removes the organizations an admin created with their
// visitors and employees, and every employee the admin created. The admin
// account stays.
func (c *Coordinator) DeleteOwnedData(ctx context.Context, adminID string) error {
	remoteDone := c.bulkRemote(ctx, "delete_owned", func(ctx context.Context) error {
		return c.gw.DeleteOwnedBy(ctx, adminID)
	})

	orgs, err := c.ownedOrgs(ctx, adminID)
	if err != nil {
		return err
	}
	inOrgs := func(r models.Record) bool {
		_, ok := orgs[r.OrganizationRef()]
		return ok
	}
	if err := c.removeLocal(ctx, models.KindVisitor, inOrgs, remoteDone); err != nil {
		return err
	}
	if err := c.removeLocal(ctx, models.KindEmployee, func(r models.Record) bool {
		return r.Creator() == adminID || inOrgs(r)
	}, remoteDone); err != nil {
		return err
	}
	return c.removeLocal(ctx, models.KindOrganization, inOrgs, remoteDone)
}

// PurgeAll removes every record of every kind, admin accounts included.
func (c *Coordinator) PurgeAll(ctx context.Context) error {
	remoteDone := c.bulkRemote(ctx, "purge", c.gw.PurgeAll)

	all := func(models.Record) bool { return true }
	for _, kind := range []models.Kind{models.KindVisitor, models.KindEmployee, models.KindOrganization, models.KindAdminUser} {
		if err := c.removeLocal(ctx, kind, all, remoteDone); err != nil {
			return err
		}
	}
	return nil
}

// bulkRemote runs a composite backend delete and reports whether it
// succeeded.
func (c *Coordinator) bulkRemote(ctx context.Context, op string, fn func(ctx context.Context) error) bool {
	if !c.connected() {
		return false
	}
	if err := c.call(ctx, op, fn); err != nil {
		c.log.Warn(ctx, "backend bulk delete failed", "op", op, "error", err)
		return false
	}
	return true
}

func (c *Coordinator) ownedOrgs(ctx context.Context, adminID string) (map[string]struct{}, error) {
	orgs, err := local.NewCollection[*models.Organization](c.store).Find(ctx, models.Filter{CreatedBy: adminID})
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(orgs))
	for _, o := range orgs {
		out[o.ID] = struct{}{}
	}
	return out, nil
}

// removeLocal forgets every mirrored record of kind that match selects.
func (c *Coordinator) removeLocal(ctx context.Context, kind models.Kind, match func(models.Record) bool, remoteDone bool) error {
	recs, err := c.store.Get(ctx, kind)
	if err != nil {
		return err
	}
	for _, r := range recs {
		if !match(r) {
			continue
		}
		if err := c.forget(ctx, kind, r.GetID(), r.IsSynced(), remoteDone); err != nil {
			return err
		}
	}
	return nil
}
