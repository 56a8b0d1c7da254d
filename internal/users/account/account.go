// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account owns the users.account table and the User entity.

The authentication core only reads accounts, with one exception: a password
hash is rewritten after a successful login that verified an outdated hash.
Staff can edit their own display names through the profile endpoint.

# Architecture

  - Entities: User.
  - Repository: PostgreSQL users.account.
  - Service: Profile reads and updates.
*/
package account

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/taibuivan/crm/internal/platform/sec"
)

// # Domain Entities

// User is a staff member able to sign in to the CRM.
type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	Roles        sec.RoleSet `json:"roles"`
	PasswordHash string      `json:"-"` // Explicitly omitted from JSON for security.
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	DeletedAt    *time.Time  `json:"deleted_at,omitempty"`
}

// FullName joins the first and last name.
func (user *User) FullName() string {
	return strings.TrimSpace(user.FirstName + " " + user.LastName)
}

// # Field Identifiers

const (
	FieldEmail     = "email"
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
)

// NormalizeEmail trims and Unicode case-folds an address, the form stored in
// users.account and used for every lookup.
func NormalizeEmail(email string) string {
	// A Caser is stateful and must not be shared between goroutines.
	return cases.Fold().String(strings.TrimSpace(email))
}

// # Repository Contracts

// Repository defines the persistence contract for user accounts.
// Soft-deleted accounts are invisible to every method.
type Repository interface {
	/*
		FindByID retrieves a user record by their unique ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail retrieves a user by normalized email.

		Parameters:
		  - context: context.Context
		  - email: string (Already passed through [NormalizeEmail])

		Returns:
		  - *User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	// UpdateProfile persists FirstName, LastName and UpdatedAt.
	UpdateProfile(context context.Context, user *User) error

	// UpdatePasswordHash replaces the stored hash for id.
	UpdatePasswordHash(context context.Context, id, passwordHash string) error
}
