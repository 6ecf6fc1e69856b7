package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/angembang/college-en-ligne/internal/apperror"
)

// RoleRepository defines data access for the fixed role enumeration.
type RoleRepository interface {
	FindRoleByID(ctx context.Context, id int64) (*Role, error)
	FindRoleByName(ctx context.Context, name string) (*Role, error)
}

// AccountRepository presents the four per-role account tables behind one
// contract. Cross-table operations keep a FIXED table order so behavior is
// deterministic when (out-of-band) the same email ended up in two tables:
//
//   - EmailExists probes principals, teachers, teachers_referents, collegians
//     (registration order).
//   - FindByEmail probes principals, teachers_referents, teachers, collegians
//     (login precedence) and the first match wins.
//
// All SQL lives in the concrete implementation -- no SQL leaks out.
type AccountRepository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*Account, string, error)

	CreatePrincipal(ctx context.Context, a *Account) error
	CreateTeacher(ctx context.Context, a *Account) error
	CreateTeacherReferent(ctx context.Context, a *Account) error
	CreateCollegian(ctx context.Context, a *Account) error
}

// roleRepository implements RoleRepository over MariaDB.
type roleRepository struct {
	db *sql.DB
}

// NewRoleRepository creates a role repository backed by the given DB pool.
func NewRoleRepository(db *sql.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) FindRoleByID(ctx context.Context, id int64) (*Role, error) {
	role := &Role{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM roles WHERE id = ?`, id).
		Scan(&role.ID, &role.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("rôle introuvable")
	}
	if err != nil {
		return nil, fmt.Errorf("querying role by id: %w", err)
	}
	return role, nil
}

func (r *roleRepository) FindRoleByName(ctx context.Context, name string) (*Role, error) {
	role := &Role{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM roles WHERE name = ?`, name).
		Scan(&role.ID, &role.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("rôle introuvable")
	}
	if err != nil {
		return nil, fmt.Errorf("querying role by name: %w", err)
	}
	return role, nil
}

// accountRepository implements AccountRepository with hand-written MariaDB
// queries across the four account tables.
type accountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates an account repository backed by the given DB pool.
func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

// registrationOrder is the table probe order for uniqueness checks.
var registrationOrder = []string{"principals", "teachers", "teachers_referents", "collegians"}

// loginOrder is the table probe order for credential lookup. Referents come
// before plain teachers here, unlike the registration order.
var loginOrder = []string{"principals", "teachers_referents", "teachers", "collegians"}

// EmailExists returns true if any of the four account tables holds the email.
// Probed in registration order, first hit short-circuits. Used during
// registration to check for duplicates before hashing the password.
func (r *accountRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	for _, table := range registrationOrder {
		query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE email = ?)`, table)

		var exists bool
		if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
			return false, fmt.Errorf("checking email in %s: %w", table, err)
		}
		if exists {
			return true, nil
		}
	}
	return false, nil
}

// FindByEmail retrieves an account by email, probing the four tables in
// login order. Returns the account and the table it came from.
// Returns apperror.NotFound if no table holds the email.
func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*Account, string, error) {
	for _, table := range loginOrder {
		a, err := r.findInTable(ctx, table, email)
		if err == nil {
			return a, table, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, "", fmt.Errorf("querying %s by email: %w", table, err)
		}
	}
	return nil, "", apperror.NewNotFound("aucun compte avec cet email")
}

// findInTable scans one account table for the email. The column set differs
// per table: teachers_referents carry id_class, collegians carry id_class
// and id_language.
func (r *accountRepository) findInTable(ctx context.Context, table, email string) (*Account, error) {
	a := &Account{}

	switch table {
	case "teachers_referents":
		err := r.db.QueryRowContext(ctx,
			`SELECT id, first_name, last_name, email, password, id_class, id_role
			 FROM teachers_referents WHERE email = ?`, email).
			Scan(&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.PasswordHash, &a.ClassID, &a.RoleID)
		return a, err

	case "collegians":
		err := r.db.QueryRowContext(ctx,
			`SELECT id, first_name, last_name, email, password, id_class, id_language, id_role
			 FROM collegians WHERE email = ?`, email).
			Scan(&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.PasswordHash, &a.ClassID, &a.LanguageID, &a.RoleID)
		return a, err

	default: // principals, teachers
		query := fmt.Sprintf(
			`SELECT id, first_name, last_name, email, password, id_role
			 FROM %s WHERE email = ?`, table)
		err := r.db.QueryRowContext(ctx, query, email).
			Scan(&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.PasswordHash, &a.RoleID)
		return a, err
	}
}

// CreatePrincipal inserts a new principal row.
func (r *accountRepository) CreatePrincipal(ctx context.Context, a *Account) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO principals (first_name, last_name, email, password, id_role)
		 VALUES (?, ?, ?, ?, ?)`,
		a.FirstName, a.LastName, a.Email, a.PasswordHash, a.RoleID,
	)
	if err != nil {
		return fmt.Errorf("inserting principal: %w", err)
	}
	a.ID, _ = res.LastInsertId()
	return nil
}

// CreateTeacher inserts a new teacher row.
func (r *accountRepository) CreateTeacher(ctx context.Context, a *Account) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO teachers (first_name, last_name, email, password, id_role)
		 VALUES (?, ?, ?, ?, ?)`,
		a.FirstName, a.LastName, a.Email, a.PasswordHash, a.RoleID,
	)
	if err != nil {
		return fmt.Errorf("inserting teacher: %w", err)
	}
	a.ID, _ = res.LastInsertId()
	return nil
}

// CreateTeacherReferent inserts a new teacher referent row. a.ClassID must
// be set; the service validates it before calling.
func (r *accountRepository) CreateTeacherReferent(ctx context.Context, a *Account) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO teachers_referents (first_name, last_name, email, password, id_class, id_role)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.FirstName, a.LastName, a.Email, a.PasswordHash, a.ClassID, a.RoleID,
	)
	if err != nil {
		return fmt.Errorf("inserting teacher referent: %w", err)
	}
	a.ID, _ = res.LastInsertId()
	return nil
}

// CreateCollegian inserts a new collegian row. a.LanguageID stays NULL for
// entry-level classes.
func (r *accountRepository) CreateCollegian(ctx context.Context, a *Account) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO collegians (first_name, last_name, email, password, id_class, id_language, id_role)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.FirstName, a.LastName, a.Email, a.PasswordHash, a.ClassID, a.LanguageID, a.RoleID,
	)
	if err != nil {
		return fmt.Errorf("inserting collegian: %w", err)
	}
	a.ID, _ = res.LastInsertId()
	return nil
}
