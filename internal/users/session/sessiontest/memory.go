// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sessiontest provides an in-memory [session.Repository] for tests of
// the session store and of the packages built on it.
package sessiontest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taibuivan/crm/internal/platform/apperr"
	"github.com/taibuivan/crm/internal/users/account"
	"github.com/taibuivan/crm/internal/users/session"
	"github.com/taibuivan/crm/pkg/pointer"
)

type rowKey struct {
	userID    string
	tokenHash string
}

// MemoryRepository mirrors the SQL predicates of the postgres repository.
// It is safe for concurrent use.
type MemoryRepository struct {
	mu    sync.Mutex
	rows  map[rowKey]session.Session
	users map[string]*account.User

	// FailWith, when set, is returned by every call.
	FailWith error

	// Inserts counts successful inserts.
	Inserts int
}

// NewMemoryRepository returns an empty repository whose lookups join users.
func NewMemoryRepository(users ...*account.User) *MemoryRepository {
	repository := &MemoryRepository{
		rows:  map[rowKey]session.Session{},
		users: map[string]*account.User{},
	}
	for _, user := range users {
		repository.users[user.ID] = user
	}
	return repository
}

// Seed stores a row as-is, bypassing the store.
func (repository *MemoryRepository) Seed(row session.Session) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	row.Token = ""
	row.User = nil
	repository.rows[rowKey{row.UserID, row.TokenHash}] = row
}

// Len returns the number of stored rows, live or not.
func (repository *MemoryRepository) Len() int {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	return len(repository.rows)
}

func (repository *MemoryRepository) Insert(_ context.Context, row *session.Session) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if repository.FailWith != nil {
		return repository.FailWith
	}

	key := rowKey{row.UserID, row.TokenHash}
	if _, exists := repository.rows[key]; exists {
		return session.ErrDuplicateKey
	}

	stored := *row
	stored.Token = ""
	stored.User = nil
	repository.rows[key] = stored
	repository.Inserts++
	return nil
}

func (repository *MemoryRepository) FindActive(_ context.Context, userID, tokenHash string, now time.Time) (*session.Session, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if repository.FailWith != nil {
		return nil, repository.FailWith
	}

	row, ok := repository.rows[rowKey{userID, tokenHash}]
	user, known := repository.users[userID]
	if !ok || !known || user.DeletedAt != nil || !row.ExpiresAt.After(now) {
		return nil, apperr.SessionNotFound()
	}

	clone := *user
	row.User = &clone
	return &row, nil
}

func (repository *MemoryRepository) Revoke(_ context.Context, userID, tokenHash string, now time.Time) (*session.Session, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if repository.FailWith != nil {
		return nil, repository.FailWith
	}

	key := rowKey{userID, tokenHash}
	row, ok := repository.rows[key]
	if !ok || !row.ExpiresAt.After(now) {
		return nil, apperr.SessionNotFound()
	}

	row.ExpiresAt = now
	row.RevokedAt = pointer.To(now)
	repository.rows[key] = row
	return &row, nil
}

func (repository *MemoryRepository) RevokeAll(_ context.Context, userID string, now time.Time) (int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if repository.FailWith != nil {
		return 0, repository.FailWith
	}

	count := 0
	for key, row := range repository.rows {
		if key.userID != userID || !row.ExpiresAt.After(now) {
			continue
		}
		row.ExpiresAt = now
		row.RevokedAt = pointer.To(now)
		repository.rows[key] = row
		count++
	}
	return count, nil
}

func (repository *MemoryRepository) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if repository.FailWith != nil {
		return 0, repository.FailWith
	}

	count := 0
	for key, row := range repository.rows {
		if !row.ExpiresAt.After(now) {
			delete(repository.rows, key)
			count++
		}
	}
	return count, nil
}

func (repository *MemoryRepository) ListActive(_ context.Context, userID string, now time.Time) ([]session.Session, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if repository.FailWith != nil {
		return nil, repository.FailWith
	}

	out := make([]session.Session, 0)
	for key, row := range repository.rows {
		if key.userID == userID && row.ExpiresAt.After(now) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
