// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/crm/internal/platform/apperr"
	"github.com/taibuivan/crm/internal/platform/database/schema"
	"github.com/taibuivan/crm/pkg/pagination"
)

// PostgresRepository implements [Repository] on system.auditlog.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new Postgres implementation of the audit store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// selectColumns lists the entry columns plus the window total, in scan order.
var selectColumns = fmt.Sprintf(`%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, COUNT(*) OVER() AS total_count`,
	schema.SystemAuditLog.ID, schema.SystemAuditLog.ActorID, schema.SystemAuditLog.TargetID,
	schema.SystemAuditLog.TargetType, schema.SystemAuditLog.Action, schema.SystemAuditLog.Status,
	schema.SystemAuditLog.Agent, schema.SystemAuditLog.IPAddress, schema.SystemAuditLog.Meta,
	schema.SystemAuditLog.CreatedAt,
)

// # Queries

// Listings are newest first. The id breaks ties between entries written in
// the same instant, and the window count returns the unpaged total.
var (
	insertEntryQuery = fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		schema.SystemAuditLog.Table,
		schema.SystemAuditLog.ID, schema.SystemAuditLog.ActorID, schema.SystemAuditLog.TargetID,
		schema.SystemAuditLog.TargetType, schema.SystemAuditLog.Action, schema.SystemAuditLog.Status,
		schema.SystemAuditLog.Agent, schema.SystemAuditLog.IPAddress, schema.SystemAuditLog.Meta,
		schema.SystemAuditLog.CreatedAt,
	)

	findByActorQuery = fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s DESC, %s DESC
		LIMIT $2 OFFSET $3`,
		selectColumns, schema.SystemAuditLog.Table,
		schema.SystemAuditLog.ActorID,
		schema.SystemAuditLog.CreatedAt, schema.SystemAuditLog.ID,
	)

	findByTargetQuery = fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND %s = $2
		ORDER BY %s DESC, %s DESC
		LIMIT $3 OFFSET $4`,
		selectColumns, schema.SystemAuditLog.Table,
		schema.SystemAuditLog.TargetID, schema.SystemAuditLog.TargetType,
		schema.SystemAuditLog.CreatedAt, schema.SystemAuditLog.ID,
	)

	findInPeriodQuery = fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s BETWEEN $1 AND $2
		ORDER BY %s DESC, %s DESC
		LIMIT $3 OFFSET $4`,
		selectColumns, schema.SystemAuditLog.Table,
		schema.SystemAuditLog.CreatedAt,
		schema.SystemAuditLog.CreatedAt, schema.SystemAuditLog.ID,
	)
)

/*
Insert appends one row to system.auditlog.

Parameters:
  - context: context.Context
  - entry: *Entry

Returns:
  - error: apperr.PersistenceFailure on any driver error
*/
func (repository *PostgresRepository) Insert(context context.Context, entry *Entry) error {
	_, err := repository.pool.Exec(context, insertEntryQuery,
		entry.ID,
		entry.ActorID,
		entry.TargetID,
		entry.TargetType,
		entry.Action,
		string(entry.Status),
		entry.Agent,
		entry.IPAddress,
		entry.Meta,
		entry.CreatedAt,
	)
	if err != nil {
		return apperr.PersistenceFailure(fmt.Errorf("postgres_audit_repo_insert_failed: %w", err))
	}

	return nil
}

// FindByActor lists entries performed by userID.
func (repository *PostgresRepository) FindByActor(context context.Context, userID string, page pagination.Params) ([]Entry, int, error) {
	return repository.list(context, "find_by_actor", findByActorQuery, userID, page.Limit, page.Offset())
}

// FindByTarget lists entries recorded against one target.
func (repository *PostgresRepository) FindByTarget(context context.Context, targetID, targetType string, page pagination.Params) ([]Entry, int, error) {
	return repository.list(context, "find_by_target", findByTargetQuery, targetID, targetType, page.Limit, page.Offset())
}

// FindInPeriod lists entries created within the inclusive [start, end] window.
func (repository *PostgresRepository) FindInPeriod(context context.Context, start, end time.Time, page pagination.Params) ([]Entry, int, error) {
	return repository.list(context, "find_in_period", findInPeriodQuery, start, end, page.Limit, page.Offset())
}

// list runs a paged query built from [selectColumns] and hydrates the entries.
func (repository *PostgresRepository) list(context context.Context, operation, query string, args ...any) ([]Entry, int, error) {
	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, 0, apperr.PersistenceFailure(fmt.Errorf("postgres_audit_repo_%s_failed: %w", operation, err))
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	var totalCount int

	for rows.Next() {
		entry, err := scanEntry(rows, &totalCount)
		if err != nil {
			return nil, 0, apperr.PersistenceFailure(fmt.Errorf("postgres_audit_repo_scan_failed: %w", err))
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, apperr.PersistenceFailure(fmt.Errorf("postgres_audit_repo_%s_failed: %w", operation, err))
	}

	return entries, totalCount, nil
}

// entryTargets returns scan destinations in [selectColumns] order.
func entryTargets(entry *Entry, status *string, totalCount *int) []any {
	return []any{
		&entry.ID,
		&entry.ActorID,
		&entry.TargetID,
		&entry.TargetType,
		&entry.Action,
		status,
		&entry.Agent,
		&entry.IPAddress,
		&entry.Meta,
		&entry.CreatedAt,
		totalCount,
	}
}

func scanEntry(rows pgx.Rows, totalCount *int) (Entry, error) {
	var entry Entry
	var status string

	err := rows.Scan(entryTargets(&entry, &status, totalCount)...)
	entry.Status = Status(status)
	entry.CreatedAt = entry.CreatedAt.UTC()

	return entry, err
}
