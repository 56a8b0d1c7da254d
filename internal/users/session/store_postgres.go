// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/crm/internal/platform/apperr"
	"github.com/taibuivan/crm/internal/platform/database/schema"
	"github.com/taibuivan/crm/internal/platform/dberr"
	"github.com/taibuivan/crm/internal/users/account"
	"github.com/taibuivan/crm/pkg/pointer"
)

// # Repository Implementation

// PostgresRepository implements [Repository] on users.session.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new Postgres implementation for session storage.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// sessionColumns returns the session columns qualified by alias, in [scanSession] order.
func sessionColumns(alias string) string {
	return fmt.Sprintf(`%[1]s.%[2]s, %[1]s.%[3]s, %[1]s.%[4]s, %[1]s.%[5]s, %[1]s.%[6]s, %[1]s.%[7]s`,
		alias,
		schema.UserSession.UserID, schema.UserSession.TokenHash, schema.UserSession.UserAgent,
		schema.UserSession.CreatedAt, schema.UserSession.ExpiresAt, schema.UserSession.RevokedAt,
	)
}

func sessionTargets(session *Session) []any {
	return []any{
		&session.UserID, &session.TokenHash, &session.UserAgent,
		&session.CreatedAt, &session.ExpiresAt, &session.RevokedAt,
	}
}

func normalizeTimes(session *Session) {
	session.CreatedAt = session.CreatedAt.UTC()
	session.ExpiresAt = session.ExpiresAt.UTC()
	if session.RevokedAt != nil {
		session.RevokedAt = pointer.To(session.RevokedAt.UTC())
	}
}

// # Queries

// A session is live while expiresat > now. Every read and revoke uses that
// predicate and the purge deletes its complement, so a row is never both
// visible and purgeable at the same instant.
var (
	insertSessionQuery = fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5)`,
		schema.UserSession.Table,
		schema.UserSession.UserID, schema.UserSession.TokenHash, schema.UserSession.UserAgent,
		schema.UserSession.CreatedAt, schema.UserSession.ExpiresAt,
	)

	findActiveQuery = fmt.Sprintf(`
		SELECT %s, %s
		FROM %s s
		JOIN %s a ON a.%s = s.%s
		WHERE s.%s = $1 AND s.%s = $2 AND s.%s > $3 AND a.%s IS NULL`,
		sessionColumns("s"), account.SelectColumns("a"),
		schema.UserSession.Table,
		schema.UserAccount.Table, schema.UserAccount.ID, schema.UserSession.UserID,
		schema.UserSession.UserID, schema.UserSession.TokenHash, schema.UserSession.ExpiresAt,
		schema.UserAccount.DeletedAt,
	)

	revokeQuery = fmt.Sprintf(`
		UPDATE %[1]s s
		SET %[4]s = $3, %[5]s = $3
		WHERE s.%[2]s = $1 AND s.%[3]s = $2 AND s.%[4]s > $3
		RETURNING %[6]s`,
		schema.UserSession.Table,
		schema.UserSession.UserID, schema.UserSession.TokenHash,
		schema.UserSession.ExpiresAt, schema.UserSession.RevokedAt,
		sessionColumns("s"),
	)

	revokeAllQuery = fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $2
		WHERE %s = $1 AND %s > $2`,
		schema.UserSession.Table,
		schema.UserSession.ExpiresAt, schema.UserSession.RevokedAt,
		schema.UserSession.UserID, schema.UserSession.ExpiresAt,
	)

	purgeExpiredQuery = fmt.Sprintf(`DELETE FROM %s WHERE %s <= $1`,
		schema.UserSession.Table, schema.UserSession.ExpiresAt)

	listActiveQuery = fmt.Sprintf(`
		SELECT %s
		FROM %s s
		WHERE s.%s = $1 AND s.%s > $2
		ORDER BY s.%s DESC`,
		sessionColumns("s"),
		schema.UserSession.Table,
		schema.UserSession.UserID, schema.UserSession.ExpiresAt,
		schema.UserSession.CreatedAt,
	)
)

/*
Insert persists a freshly minted session.

Parameters:
  - context: context.Context
  - session: *Session (TokenHash must already be set)

Returns:
  - error: [ErrDuplicateKey] on a primary key collision, or apperr.PersistenceFailure
*/
func (repository *PostgresRepository) Insert(context context.Context, session *Session) error {
	_, err := repository.pool.Exec(context, insertSessionQuery,
		session.UserID, session.TokenHash, session.UserAgent, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		if dberr.IsUniqueViolation(err, schema.UserSession.KeyConstraint) {
			return ErrDuplicateKey
		}
		return apperr.PersistenceFailure(fmt.Errorf("postgres_session_repo_insert_failed: %w", err))
	}

	return nil
}

/*
FindActive loads a live session joined with its live owning account.

Parameters:
  - context: context.Context
  - userID: string
  - tokenHash: string
  - now: time.Time

Returns:
  - *Session: With User populated
  - error: apperr.SessionNotFound or apperr.PersistenceFailure
*/
func (repository *PostgresRepository) FindActive(context context.Context, userID, tokenHash string, now time.Time) (*Session, error) {
	session := &Session{User: &account.User{}}
	userTargets, finish := account.ScanTargets(session.User)
	targets := append(sessionTargets(session), userTargets...)

	if err := repository.pool.QueryRow(context, findActiveQuery, userID, tokenHash, now).Scan(targets...); err != nil {
		if dberr.IsNotFound(err) {
			return nil, apperr.SessionNotFound()
		}
		return nil, apperr.PersistenceFailure(fmt.Errorf("postgres_session_repo_find_active_failed: %w", err))
	}
	finish()
	normalizeTimes(session)

	return session, nil
}

// Revoke ends one live session. The expiry predicate and the update run as a
// single statement so a concurrent revoke of the same key affects it once.
func (repository *PostgresRepository) Revoke(context context.Context, userID, tokenHash string, now time.Time) (*Session, error) {
	session := &Session{}
	if err := repository.pool.QueryRow(context, revokeQuery, userID, tokenHash, now).Scan(sessionTargets(session)...); err != nil {
		if dberr.IsNotFound(err) {
			return nil, apperr.SessionNotFound()
		}
		return nil, apperr.PersistenceFailure(fmt.Errorf("postgres_session_repo_revoke_failed: %w", err))
	}
	normalizeTimes(session)

	return session, nil
}

// RevokeAll ends every live session of a user.
func (repository *PostgresRepository) RevokeAll(context context.Context, userID string, now time.Time) (int, error) {
	tag, err := repository.pool.Exec(context, revokeAllQuery, userID, now)
	if err != nil {
		return 0, apperr.PersistenceFailure(fmt.Errorf("postgres_session_repo_revoke_all_failed: %w", err))
	}

	return int(tag.RowsAffected()), nil
}

// PurgeExpired physically deletes expired and revoked rows.
func (repository *PostgresRepository) PurgeExpired(context context.Context, now time.Time) (int, error) {
	tag, err := repository.pool.Exec(context, purgeExpiredQuery, now)
	if err != nil {
		return 0, apperr.PersistenceFailure(fmt.Errorf("postgres_session_repo_purge_failed: %w", err))
	}

	return int(tag.RowsAffected()), nil
}

// ListActive returns the live sessions of a user, newest first.
func (repository *PostgresRepository) ListActive(context context.Context, userID string, now time.Time) ([]Session, error) {
	rows, err := repository.pool.Query(context, listActiveQuery, userID, now)
	if err != nil {
		return nil, apperr.PersistenceFailure(fmt.Errorf("postgres_session_repo_list_active_failed: %w", err))
	}

	sessions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Session, error) {
		var session Session
		err := row.Scan(sessionTargets(&session)...)
		normalizeTimes(&session)
		return session, err
	})
	if err != nil {
		return nil, apperr.PersistenceFailure(fmt.Errorf("postgres_session_repo_list_active_scan_failed: %w", err))
	}

	return sessions, nil
}
