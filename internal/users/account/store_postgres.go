// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/crm/internal/platform/apperr"
	"github.com/taibuivan/crm/internal/platform/database/schema"
	"github.com/taibuivan/crm/internal/platform/dberr"
	"github.com/taibuivan/crm/internal/platform/sec"
)

// # Repository Implementation

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new Postgres implementation for account storage.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// selectColumns lists the account columns in [ScanTargets] order.
var selectColumns = fmt.Sprintf(`%s, %s, %s, %s, %s, %s, %s, %s`,
	schema.UserAccount.ID, schema.UserAccount.Email, schema.UserAccount.Password,
	schema.UserAccount.FirstName, schema.UserAccount.LastName, schema.UserAccount.Roles,
	schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
)

// SelectColumns returns the account columns qualified by alias, in [ScanTargets] order.
// Other repositories use it to join the owning account.
func SelectColumns(alias string) string {
	return fmt.Sprintf(`%[1]s.%[2]s, %[1]s.%[3]s, %[1]s.%[4]s, %[1]s.%[5]s, %[1]s.%[6]s, %[1]s.%[7]s, %[1]s.%[8]s, %[1]s.%[9]s`,
		alias,
		schema.UserAccount.ID, schema.UserAccount.Email, schema.UserAccount.Password,
		schema.UserAccount.FirstName, schema.UserAccount.LastName, schema.UserAccount.Roles,
		schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
	)
}

// ScanTargets returns scan destinations for the columns of [SelectColumns].
// Call the returned finish func after Scan to decode the role array.
func ScanTargets(user *User) ([]any, func()) {
	var roles []string
	targets := []any{
		&user.ID, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &roles,
		&user.CreatedAt, &user.UpdatedAt,
	}
	return targets, func() {
		user.Roles = sec.ParseRoleSet(roles)
		user.CreatedAt = user.CreatedAt.UTC()
		user.UpdatedAt = user.UpdatedAt.UTC()
	}
}

/*
FindByID retrieves a live user record from users.account.

Parameters:
  - context: context.Context
  - id: string (UUID)

Returns:
  - *User: Hydrated identity entity
  - error: apperr.NotFound or apperr.PersistenceFailure
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s IS NULL`,
		selectColumns, schema.UserAccount.Table, schema.UserAccount.ID, schema.UserAccount.DeletedAt)

	return repository.findOne(context, "find_by_id", query, id)
}

/*
FindByEmail retrieves a live user record by normalized email.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated identity entity
  - error: apperr.NotFound or apperr.PersistenceFailure
*/
func (repository *PostgresRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s IS NULL`,
		selectColumns, schema.UserAccount.Table, schema.UserAccount.Email, schema.UserAccount.DeletedAt)

	return repository.findOne(context, "find_by_email", query, email)
}

func (repository *PostgresRepository) findOne(context context.Context, operation, query string, arg string) (*User, error) {
	user := &User{}
	targets, finish := ScanTargets(user)

	if err := repository.pool.QueryRow(context, query, arg).Scan(targets...); err != nil {
		if dberr.IsNotFound(err) {
			return nil, apperr.NotFound("Account")
		}
		return nil, apperr.PersistenceFailure(fmt.Errorf("postgres_account_repo_%s_failed: %w", operation, err))
	}
	finish()

	return user, nil
}

/*
UpdateProfile modifies the mutable name fields of a user.

Parameters:
  - context: context.Context
  - user: *User (FirstName, LastName and UpdatedAt are written)

Returns:
  - error: apperr.NotFound when the account is gone, or storage failures
*/
func (repository *PostgresRepository) UpdateProfile(context context.Context, user *User) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4
		WHERE %s = $1 AND %s IS NULL`,
		schema.UserAccount.Table,
		schema.UserAccount.FirstName, schema.UserAccount.LastName, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.DeletedAt,
	)

	return repository.exec(context, "update_profile", query, user.ID, user.FirstName, user.LastName, user.UpdatedAt)
}

// UpdatePasswordHash replaces the stored hash of a live account.
func (repository *PostgresRepository) UpdatePasswordHash(context context.Context, id, passwordHash string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = NOW()
		WHERE %s = $1 AND %s IS NULL`,
		schema.UserAccount.Table,
		schema.UserAccount.Password, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.DeletedAt,
	)

	return repository.exec(context, "update_password_hash", query, id, passwordHash)
}

func (repository *PostgresRepository) exec(context context.Context, operation, query string, args ...any) error {
	tag, err := repository.pool.Exec(context, query, args...)
	if err != nil {
		return apperr.PersistenceFailure(fmt.Errorf("postgres_account_repo_%s_failed: %w", operation, err))
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Account")
	}
	return nil
}
