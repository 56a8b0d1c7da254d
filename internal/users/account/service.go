// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/taibuivan/crm/internal/platform/clock"
	"github.com/taibuivan/crm/internal/platform/validate"
	"github.com/taibuivan/crm/internal/system/audit"
	"github.com/taibuivan/crm/pkg/pagination"
)

// maxNameLength bounds first and last names.
const maxNameLength = 100

// AuditTrail is the read side of the audit log used for the self-service trail.
type AuditTrail interface {
	FindByActor(context context.Context, userID string, page pagination.Params) ([]audit.Entry, int, error)
}

// Service implements the profile use cases.
type Service struct {
	repository Repository
	trail      AuditTrail
	clock      clock.Clock
}

// NewService constructs a new account [Service].
func NewService(repository Repository, trail AuditTrail, clk clock.Clock) *Service {
	return &Service{repository: repository, trail: trail, clock: clk}
}

// GetProfile returns the live account for userID.
func (service *Service) GetProfile(context context.Context, userID string) (*User, error) {
	return service.repository.FindByID(context, userID)
}

// UpdateProfileInput carries a partial name update. Nil fields are left unchanged.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
}

/*
UpdateProfile applies a partial name change to the caller's own account.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *User: The updated account
  - error: apperr.ValidationError, apperr.NotFound or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*User, error) {
	validator := &validate.Validator{}
	if input.FirstName == nil && input.LastName == nil {
		validator.Custom(FieldFirstName, true, "At least one field must be provided")
	}
	if input.FirstName != nil {
		validator.Required(FieldFirstName, *input.FirstName).MaxLen(FieldFirstName, *input.FirstName, maxNameLength)
	}
	if input.LastName != nil {
		validator.Required(FieldLastName, *input.LastName).MaxLen(FieldLastName, *input.LastName, maxNameLength)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	user, err := service.repository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	user.UpdatedAt = service.clock.Now()

	if err := service.repository.UpdateProfile(context, user); err != nil {
		return nil, fmt.Errorf("account_service_update_profile_failed: %w", err)
	}

	return user, nil
}

// AuditTrail lists the entries the user performed, newest first.
func (service *Service) AuditTrail(context context.Context, userID string, page pagination.Params) ([]audit.Entry, int, error) {
	return service.trail.FindByActor(context, userID, page)
}
