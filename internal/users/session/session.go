// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session implements opaque, server-side login sessions.

A session is identified by the pair (user id, token). The raw token only ever
exists in the client's cookie and in the [Session] returned by [Store.Create];
users.session stores its SHA-256 hash.

# Lifecycle

	Create ──► Active ──Revoke/RevokeAll──► Revoked ──PurgeExpired──► (deleted)
	              └────── 30 days pass ──► Expired ──PurgeExpired──► (deleted)

Revocation moves expiresat to "now", so a revoked session is invisible to
every lookup exactly like an expired one. The row stays until the [Sweeper]
deletes it.
*/
package session

import (
	"context"
	"errors"
	"time"

	"github.com/taibuivan/crm/internal/platform/constants"
	"github.com/taibuivan/crm/internal/platform/sec"
	"github.com/taibuivan/crm/internal/users/account"
	"github.com/taibuivan/crm/pkg/uuid"
)

// # Domain Entities

// Status is the tagged lifecycle state of a session at a given instant.
type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
	StatusExpired Status = "expired"
)

// Key identifies one session as presented by a client.
type Key struct {
	UserID string
	Token  string
}

// WellFormed reports whether the key could possibly name a stored session:
// a canonical UUID and a token of the exact generated shape.
func (key Key) WellFormed() bool {
	return uuid.IsValid(key.UserID) && sec.IsWellFormedToken(key.Token, constants.SessionTokenLength)
}

// Session is a time-bounded, revocable proof of authentication bound to one
// user and one client agent.
type Session struct {
	// Token is the raw secret. It is only set on the value returned by [Store.Create].
	Token     string     `json:"-"`
	TokenHash string     `json:"-"`
	UserID    string     `json:"user_id"`
	UserAgent string     `json:"user_agent"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`

	// User is the owning account, loaded eagerly by lookups.
	User *account.User `json:"-"`
}

// Status derives the lifecycle state at now.
func (session *Session) Status(now time.Time) Status {
	switch {
	case session.RevokedAt != nil:
		return StatusRevoked
	case !session.ExpiresAt.After(now):
		return StatusExpired
	default:
		return StatusActive
	}
}

// # Repository Contracts

// ErrDuplicateKey is returned by [Repository.Insert] when (userid, tokenhash) already exists.
var ErrDuplicateKey = errors.New("session: duplicate key")

// Repository defines the persistence contract for sessions.
//
// Every method takes "now" from the caller so expiry is judged by a single clock.
// A row is live only while expiresat > now.
type Repository interface {
	/*
		Insert stores a new session row.

		Returns:
		  - error: [ErrDuplicateKey] on a key collision, otherwise storage failures
	*/
	Insert(context context.Context, session *Session) error

	/*
		FindActive loads a live session and its owning account.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - tokenHash: string (hex SHA-256 of the raw token)
		  - now: time.Time

		Returns:
		  - *Session: With User populated
		  - error: apperr.SessionNotFound or storage failures
	*/
	FindActive(context context.Context, userID, tokenHash string, now time.Time) (*Session, error)

	// Revoke sets expiresat and revokedat to now on a live session in one statement.
	// It returns apperr.SessionNotFound when no live row matched.
	Revoke(context context.Context, userID, tokenHash string, now time.Time) (*Session, error)

	// RevokeAll revokes every live session of userID and returns how many were affected.
	RevokeAll(context context.Context, userID string, now time.Time) (int, error)

	// PurgeExpired deletes rows with expiresat <= now and returns how many were removed.
	PurgeExpired(context context.Context, now time.Time) (int, error)

	// ListActive returns the live sessions of userID, newest first.
	ListActive(context context.Context, userID string, now time.Time) ([]Session, error)
}
