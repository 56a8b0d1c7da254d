// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/taibuivan/crm/internal/platform/apperr"
	"github.com/taibuivan/crm/internal/platform/clock"
	"github.com/taibuivan/crm/internal/platform/constants"
	"github.com/taibuivan/crm/internal/platform/validate"
	"github.com/taibuivan/crm/pkg/pagination"
	"github.com/taibuivan/crm/pkg/uuid"
)

// Service implements the audit log use cases.
type Service struct {
	repository Repository
	clock      clock.Clock
}

// NewService constructs a new audit [Service].
func NewService(repository Repository, clk clock.Clock) *Service {
	return &Service{repository: repository, clock: clk}
}

/*
Create validates and appends a new entry.

Description: Assigns a UUIDv7 id and the creation time, defaults the agent and
masks secret-like meta keys before the entry reaches storage.

Parameters:
  - context: context.Context
  - entry: Entry (ID and CreatedAt are ignored)

Returns:
  - *Entry: The stored entry
  - error: apperr.ValidationError or storage failures
*/
func (service *Service) Create(context context.Context, entry Entry) (*Entry, error) {
	entry.Action = strings.TrimSpace(entry.Action)

	validator := &validate.Validator{}
	validator.Required("action", entry.Action).
		Custom("status", !entry.Status.Valid(), "Must be one of: success, failure")
	if entry.ActorID != nil {
		validator.UUID("actor_id", *entry.ActorID)
	}
	if (entry.TargetID == nil) != (entry.TargetType == nil) {
		validator.Custom("target_type", true, "Target id and type must be set together")
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(entry.Agent) == "" {
		entry.Agent = constants.UnknownUserAgent
	}

	entry.ID = uuid.New()
	entry.CreatedAt = service.clock.Now()
	entry.Meta = MaskMeta(entry.Meta)

	if err := service.repository.Insert(context, &entry); err != nil {
		return nil, fmt.Errorf("audit_service_create_failed: %w", err)
	}

	return &entry, nil
}

/*
FindByActor lists the entries performed by userID, newest first.

Returns:
  - []Entry: One page of entries
  - int: Total matching entries
  - error: apperr.ValidationError for a malformed id, or storage failures
*/
func (service *Service) FindByActor(context context.Context, userID string, page pagination.Params) ([]Entry, int, error) {
	if err := (&validate.Validator{}).UUID("user_id", userID).Err(); err != nil {
		return nil, 0, err
	}

	return service.repository.FindByActor(context, userID, page)
}

// FindByTarget lists the entries recorded against one target, newest first.
func (service *Service) FindByTarget(context context.Context, targetID, targetType string, page pagination.Params) ([]Entry, int, error) {
	validator := &validate.Validator{}
	validator.Required("target_id", targetID).Required("target_type", targetType)
	if err := validator.Err(); err != nil {
		return nil, 0, err
	}

	return service.repository.FindByTarget(context, targetID, targetType, page)
}

/*
FindInPeriod lists the entries created within [start, end], newest first.

Returns:
  - error: apperr.InvalidRange when start is not strictly before end
*/
func (service *Service) FindInPeriod(context context.Context, start, end time.Time, page pagination.Params) ([]Entry, int, error) {
	if !start.Before(end) {
		return nil, 0, apperr.InvalidRange("start must be before end")
	}

	return service.repository.FindInPeriod(context, start.UTC(), end.UTC(), page)
}
