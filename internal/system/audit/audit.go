// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package audit implements the append-only trail of security-relevant actions.

Every gated request and every login attempt leaves exactly one [Entry] naming
what was attempted, by whom, against which target and with which outcome.

# Architecture

  - Service: Validates, masks and persists entries; answers the three queries.
  - Recorder: Opens a [Scope] per operation and finishes it exactly once.
  - Repository: Abstracted storage (PostgreSQL system.auditlog).

Entries are immutable. Nothing in this package updates or deletes a row.
*/
package audit

import (
	"context"
	"time"

	"github.com/taibuivan/crm/pkg/pagination"
)

// # Domain Entities

// Status is the outcome recorded for an action.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Valid reports whether the status is one of the two known outcomes.
func (status Status) Valid() bool {
	return status == StatusSuccess || status == StatusFailure
}

// TargetTypeUser is the only target kind written by the core.
const TargetTypeUser = "user"

// Entry is one immutable audit record.
type Entry struct {
	ID         string         `json:"id"`
	ActorID    *string        `json:"actor_id"`
	TargetID   *string        `json:"target_id"`
	TargetType *string        `json:"target_type"`
	Action     string         `json:"action"`
	Status     Status         `json:"status"`
	Agent      string         `json:"agent"`
	IPAddress  string         `json:"ip_address,omitempty"`
	Meta       map[string]any `json:"meta"`
	CreatedAt  time.Time      `json:"created_at"`
}

// # Repository Contracts

// Repository defines the persistence contract for audit entries.
//
// All list methods order by createdat DESC and return the total match count
// alongside the requested page.
type Repository interface {
	/*
		Insert appends a fully populated entry.

		Parameters:
		  - context: context.Context
		  - entry: *Entry (ID and CreatedAt already assigned)

		Returns:
		  - error: Storage failures
	*/
	Insert(context context.Context, entry *Entry) error

	/*
		FindByActor lists entries whose actor is userID.

		Returns:
		  - []Entry: One page of entries
		  - int: Total matching entries
		  - error: Storage failures
	*/
	FindByActor(context context.Context, userID string, page pagination.Params) ([]Entry, int, error)

	// FindByTarget lists entries recorded against (targetType, targetID).
	FindByTarget(context context.Context, targetID, targetType string, page pagination.Params) ([]Entry, int, error)

	// FindInPeriod lists entries with start <= createdat <= end.
	FindInPeriod(context context.Context, start, end time.Time, page pagination.Params) ([]Entry, int, error)
}
