// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/taibuivan/crm/internal/system/audit"
	"github.com/taibuivan/crm/pkg/pagination"
)

// memoryRepository is an in-process [audit.Repository] for tests.
type memoryRepository struct {
	mu        sync.Mutex
	entries   []audit.Entry
	insertErr error
}

func (repository *memoryRepository) Insert(_ context.Context, entry *audit.Entry) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if repository.insertErr != nil {
		return repository.insertErr
	}
	repository.entries = append(repository.entries, *entry)
	return nil
}

func (repository *memoryRepository) FindByActor(_ context.Context, userID string, page pagination.Params) ([]audit.Entry, int, error) {
	return repository.filter(page, func(entry audit.Entry) bool {
		return entry.ActorID != nil && *entry.ActorID == userID
	})
}

func (repository *memoryRepository) FindByTarget(_ context.Context, targetID, targetType string, page pagination.Params) ([]audit.Entry, int, error) {
	return repository.filter(page, func(entry audit.Entry) bool {
		return entry.TargetID != nil && *entry.TargetID == targetID &&
			entry.TargetType != nil && *entry.TargetType == targetType
	})
}

func (repository *memoryRepository) FindInPeriod(_ context.Context, start, end time.Time, page pagination.Params) ([]audit.Entry, int, error) {
	return repository.filter(page, func(entry audit.Entry) bool {
		return !entry.CreatedAt.Before(start) && !entry.CreatedAt.After(end)
	})
}

func (repository *memoryRepository) filter(page pagination.Params, keep func(audit.Entry) bool) ([]audit.Entry, int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	matched := make([]audit.Entry, 0)
	for _, entry := range repository.entries {
		if keep(entry) {
			matched = append(matched, entry)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	offset := page.Offset()
	if offset >= total {
		return []audit.Entry{}, total, nil
	}
	end := offset + page.Limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (repository *memoryRepository) all() []audit.Entry {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	return append([]audit.Entry(nil), repository.entries...)
}

var errStorageDown = errors.New("connection refused")

var firstPage = pagination.Params{Page: 1, Limit: pagination.DefaultLimit}
