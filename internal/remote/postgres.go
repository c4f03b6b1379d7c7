package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/gatepass/gatepass/internal/dbx"
	"github.com/gatepass/gatepass/internal/models"
	"github.com/gatepass/gatepass/internal/remote/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres implements Gateway over database/sql.
type Postgres struct {
	db *sql.DB
}

var _ Gateway = (*Postgres)(nil)

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Open connects to dsn through the pgx driver. The connection is lazy: an
// unreachable backend is reported by the first call, not by Open.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// RunMigrations applies the backend schema.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	p, err := goose.NewProvider(goose.DialectPostgres, db, migrations.Migrations)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return mapError("migrate", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) Ping(ctx context.Context) error {
	var one int
	err := p.db.QueryRowContext(ctx, `SELECT 1 FROM organizations LIMIT 1`).Scan(&one)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return mapError("ping", err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, kind models.Kind, f models.Filter) ([]models.Record, error) {
	c, err := codecFor(kind)
	if err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if f.OrganizationID != "" {
		if c.orgColumn == "" {
			return []models.Record{}, nil
		}
		args = append(args, f.OrganizationID)
		where = append(where, fmt.Sprintf("%s = $%d", c.orgColumn, len(args)))
	}
	if f.CreatedBy != "" {
		if c.creatorColumn == "" {
			return []models.Record{}, nil
		}
		args = append(args, f.CreatedBy)
		where = append(where, fmt.Sprintf("%s = $%d", c.creatorColumn, len(args)))
	}

	q := `SELECT ` + c.columnList() + ` FROM ` + c.table
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC`

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapError("list "+c.table, err)
	}
	defer rows.Close()

	out := []models.Record{}
	for rows.Next() {
		rec, err := c.scan(rows)
		if err != nil {
			return nil, mapError("scan "+c.table, err)
		}
		rec.SetSynced(true)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list "+c.table, err)
	}
	return out, nil
}

func (p *Postgres) Create(ctx context.Context, rec models.Record) (models.Record, error) {
	c, err := codecFor(rec.Kind())
	if err != nil {
		return nil, err
	}
	q := `INSERT INTO ` + c.table + ` (` + c.columnList() + `) VALUES (` +
		dbx.Placeholders(1, len(c.columns)) + `) RETURNING ` + c.columnList()

	stored, err := c.scan(p.db.QueryRowContext(ctx, q, c.values(rec)...))
	if err != nil {
		return nil, mapError("create "+c.table, err)
	}
	stored.SetSynced(true)
	return stored, nil
}

func (p *Postgres) UpdateEmployee(ctx context.Context, id string, patch models.EmployeePatch) (*models.Employee, error) {
	c := codecs[models.KindEmployee]

	fields := []struct {
		column string
		value  *string
	}{
		{"name", patch.Name},
		{"designation", patch.Designation},
		{"department", patch.Department},
		{"location", patch.Location},
		{"phone_number", patch.PhoneNumber},
		{"image", patch.Image},
		{"organization_id", patch.OrganizationID},
	}
	var (
		set  []string
		args []any
	)
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		args = append(args, *f.value)
		set = append(set, fmt.Sprintf("%s = $%d", f.column, len(args)))
	}
	args = append(args, id)

	var q string
	if len(set) == 0 {
		q = `SELECT ` + c.columnList() + ` FROM employees WHERE id = $1`
	} else {
		q = `UPDATE employees SET ` + strings.Join(set, ", ") +
			fmt.Sprintf(` WHERE id = $%d RETURNING `, len(args)) + c.columnList()
	}

	rec, err := c.scan(p.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("employee %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, mapError("update employees", err)
	}
	e := rec.(*models.Employee)
	e.Synced = true
	return e, nil
}

func (p *Postgres) Delete(ctx context.Context, kind models.Kind, id string) error {
	c, err := codecFor(kind)
	if err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, `DELETE FROM `+c.table+` WHERE id = $1`, id); err != nil {
		return mapError("delete "+c.table, err)
	}
	return nil
}

func (p *Postgres) FindVisitorByNationalID(ctx context.Context, aadhar string) (*models.Visitor, error) {
	c := codecs[models.KindVisitor]
	q := `SELECT ` + c.columnList() + ` FROM visitors WHERE aadhar_number = $1 ORDER BY created_at DESC LIMIT 1`

	rec, err := c.scan(p.db.QueryRowContext(ctx, q, aadhar))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("find visitor", err)
	}
	v := rec.(*models.Visitor)
	v.Synced = true
	return v, nil
}

func (p *Postgres) WeeklyVisitCounts(ctx context.Context, orgID string, now time.Time) ([7]int, error) {
	start, end := WeekBounds(now)
	q := `SELECT visit_date FROM visitors WHERE visit_date BETWEEN $1 AND $2`
	args := []any{start, end}
	if orgID != "" {
		q += ` AND organization_id = $3`
		args = append(args, orgID)
	}

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return [7]int{}, mapError("weekly counts", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return [7]int{}, mapError("weekly counts", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return [7]int{}, mapError("weekly counts", err)
	}
	return Histogram(dates, now), nil
}

func (p *Postgres) VisitorStats(ctx context.Context, orgID string, today time.Time) (Stats, error) {
	q := `SELECT COUNT(*), COUNT(*) FILTER (WHERE visit_date = $1) FROM visitors`
	args := []any{today.Format(models.DateLayout)}
	if orgID != "" {
		q += ` WHERE organization_id = $2`
		args = append(args, orgID)
	}

	var s Stats
	if err := p.db.QueryRowContext(ctx, q, args...).Scan(&s.Total, &s.Today); err != nil {
		return Stats{}, mapError("visitor stats", err)
	}
	return s, nil
}

func (p *Postgres) FindAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	c := codecs[models.KindAdminUser]
	q := `SELECT ` + c.columnList() + ` FROM admin_users WHERE username = $1`

	rec, err := c.scan(p.db.QueryRowContext(ctx, q, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("find admin", err)
	}
	u := rec.(*models.AdminUser)
	u.Synced = true
	return u, nil
}

const ownedOrgs = `SELECT id FROM organizations WHERE created_by = $1`

func (p *Postgres) DeleteAdminCascade(ctx context.Context, adminID string) error {
	err := dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, q := range []string{
			`DELETE FROM employees WHERE created_by = $1 OR organization_id IN (` + ownedOrgs + `)`,
			`DELETE FROM organizations WHERE created_by = $1`,
			`DELETE FROM admin_users WHERE id = $1`,
		} {
			if _, err := tx.ExecContext(ctx, q, adminID); err != nil {
				return err
			}
		}
		return nil
	})
	return mapError("delete admin", err)
}

func (p *Postgres) DeleteOwnedBy(ctx context.Context, adminID string) error {
	err := dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, q := range []string{
			`DELETE FROM visitors WHERE organization_id IN (` + ownedOrgs + `)`,
			`DELETE FROM employees WHERE created_by = $1 OR organization_id IN (` + ownedOrgs + `)`,
			`DELETE FROM organizations WHERE created_by = $1`,
		} {
			if _, err := tx.ExecContext(ctx, q, adminID); err != nil {
				return err
			}
		}
		return nil
	})
	return mapError("delete owned data", err)
}

func (p *Postgres) PurgeAll(ctx context.Context) error {
	err := dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, kind := range []models.Kind{models.KindVisitor, models.KindEmployee, models.KindOrganization, models.KindAdminUser} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+kind.Table()); err != nil {
				return err
			}
		}
		return nil
	})
	return mapError("purge", err)
}
