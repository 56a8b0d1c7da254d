// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/taibuivan/crm/internal/platform/apperr"
	"github.com/taibuivan/crm/internal/platform/clock"
	"github.com/taibuivan/crm/internal/platform/constants"
	"github.com/taibuivan/crm/internal/platform/sec"
	"github.com/taibuivan/crm/pkg/uuid"
)

// TokenSource produces raw session tokens.
type TokenSource func() (string, error)

// Option customizes a [Store].
type Option func(*Store)

// WithTokenSource replaces the crypto/rand token generator.
func WithTokenSource(source TokenSource) Option {
	return func(store *Store) {
		store.tokens = source
	}
}

// Store owns the session lifecycle. Expiry is always judged against its clock.
type Store struct {
	repository Repository
	clock      clock.Clock
	tokens     TokenSource
}

// NewStore constructs a session [Store].
func NewStore(repository Repository, clk clock.Clock, options ...Option) *Store {
	store := &Store{
		repository: repository,
		clock:      clk,
		tokens: func() (string, error) {
			return sec.GenerateSecureToken(constants.SessionTokenLength)
		},
	}
	for _, option := range options {
		option(store)
	}
	return store
}

/*
Create mints a new session for userID.

Description: The raw token is only present on the returned value. A key
collision regenerates the token, up to [constants.SessionCreateAttempts] times.

Parameters:
  - context: context.Context
  - userID: string (UUID)
  - agent: string (User-Agent; "unknown" when empty)

Returns:
  - *Session: Including the raw Token
  - error: apperr.ValidationError or storage failures
*/
func (store *Store) Create(context context.Context, userID, agent string) (*Session, error) {
	if !uuid.IsValid(userID) {
		return nil, apperr.ValidationError("Invalid user id", apperr.FieldError{Field: "user_id", Message: "Must be a valid UUID"})
	}
	if strings.TrimSpace(agent) == "" {
		agent = constants.UnknownUserAgent
	}

	for attempt := 1; attempt <= constants.SessionCreateAttempts; attempt++ {
		token, err := store.tokens()
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("session_store_token_failed: %w", err))
		}

		now := store.clock.Now()
		session := &Session{
			Token:     token,
			TokenHash: sec.HashToken(token),
			UserID:    userID,
			UserAgent: agent,
			CreatedAt: now,
			ExpiresAt: now.Add(constants.SessionTTL),
		}

		err = store.repository.Insert(context, session)
		if errors.Is(err, ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("session_store_create_failed: %w", err)
		}

		return session, nil
	}

	return nil, apperr.Internal(fmt.Errorf("session_store_create_exhausted: %d attempts collided", constants.SessionCreateAttempts))
}

/*
FindActive resolves a client-presented key to a live session.

Parameters:
  - context: context.Context
  - key: Key

Returns:
  - *Session: With the owning User loaded
  - error: apperr.SessionNotFound for malformed, unknown, expired or revoked keys
*/
func (store *Store) FindActive(context context.Context, key Key) (*Session, error) {
	if !key.WellFormed() {
		return nil, apperr.SessionNotFound()
	}
	return store.repository.FindActive(context, key.UserID, sec.HashToken(key.Token), store.clock.Now())
}

// Revoke ends the session named by key. Revoking twice returns apperr.SessionNotFound.
func (store *Store) Revoke(context context.Context, key Key) (*Session, error) {
	if !key.WellFormed() {
		return nil, apperr.SessionNotFound()
	}
	return store.repository.Revoke(context, key.UserID, sec.HashToken(key.Token), store.clock.Now())
}

// RevokeAll ends every live session of userID and returns how many there were.
func (store *Store) RevokeAll(context context.Context, userID string) (int, error) {
	if !uuid.IsValid(userID) {
		return 0, nil
	}
	return store.repository.RevokeAll(context, userID, store.clock.Now())
}

// PurgeExpired deletes every session whose expiry is at or before now.
func (store *Store) PurgeExpired(context context.Context) (int, error) {
	return store.repository.PurgeExpired(context, store.clock.Now())
}

// ListActive returns the live sessions of userID, newest first.
func (store *Store) ListActive(context context.Context, userID string) ([]Session, error) {
	if !uuid.IsValid(userID) {
		return []Session{}, nil
	}

	sessions, err := store.repository.ListActive(context, userID, store.clock.Now())
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []Session{}
	}
	return sessions, nil
}
