// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/taibuivan/crm/internal/platform/apperr"
	"github.com/taibuivan/crm/internal/platform/ctxutil"
	"github.com/taibuivan/crm/internal/platform/sec"
	"github.com/taibuivan/crm/internal/users/account"
)

// Internal credential failures. They never leave this package unmerged:
// [Service.Login] turns both into apperr.InvalidCredentials.
var (
	ErrAccountNotFound = errors.New("auth: account not found")
	ErrInvalidPassword = errors.New("auth: invalid password")
)

// CredentialService verifies an email and password pair against users.account.
type CredentialService struct {
	accounts account.Repository
}

// NewCredentialService constructs a [CredentialService].
func NewCredentialService(accounts account.Repository) *CredentialService {
	return &CredentialService{accounts: accounts}
}

/*
Authenticate resolves the account owning email and verifies password.

Description: The email is trimmed and case-folded before lookup. A missing
account still pays for one password verification. After a successful match
against a legacy or outdated hash, the password is rehashed and stored; a
failed rehash is only logged.

Parameters:
  - context: context.Context
  - email: string
  - password: string

Returns:
  - *account.User: The verified account
  - error: [ErrAccountNotFound], [ErrInvalidPassword] or storage failures
*/
func (service *CredentialService) Authenticate(context context.Context, email, password string) (*account.User, error) {
	user, err := service.accounts.FindByEmail(context, account.NormalizeEmail(email))
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			sec.BurnPasswordCheck(password)
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if !sec.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidPassword
	}

	if sec.NeedsRehash(user.PasswordHash) {
		service.rehash(context, user, password)
	}

	return user, nil
}

func (service *CredentialService) rehash(context context.Context, user *account.User, password string) {
	logger := ctxutil.GetLogger(context)

	hash, err := sec.HashPassword(password)
	if err != nil {
		logger.WarnContext(context, "password_rehash_failed", slog.String("user_id", user.ID), slog.Any("error", err))
		return
	}

	if err := service.accounts.UpdatePasswordHash(context, user.ID, hash); err != nil {
		logger.WarnContext(context, "password_rehash_failed", slog.String("user_id", user.ID), slog.Any("error", err))
		return
	}

	user.PasswordHash = hash
	logger.InfoContext(context, "password_rehashed", slog.String("user_id", user.ID))
}
