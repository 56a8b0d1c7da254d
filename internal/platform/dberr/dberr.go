// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/crm/internal/platform/apperr"
)

// IsNotFound reports whether err is pgx's "no rows" sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports whether err is a Postgres 23505 unique_violation,
// optionally restricted to a named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgError *pgconn.PgError
	if !errors.As(err, &pgError) || pgError.Code != pgerrcode.UniqueViolation {
		return false
	}
	return constraint == "" || pgError.ConstraintName == constraint
}

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if IsNotFound(err) {
		return apperr.NotFound(resource)
	}

	// 2. Duplicate keys surface as AlreadyExists
	if IsUniqueViolation(err, "") {
		return apperr.Conflict(resource + " already exists")
	}

	// 3. Everything else is a storage fault, fatal to the current call
	return apperr.PersistenceFailure(err)
}
