// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/crm/internal/platform/apperr"
	"github.com/taibuivan/crm/internal/platform/sec"
	"github.com/taibuivan/crm/internal/users/account"
	"github.com/taibuivan/crm/internal/users/auth"
)

/*
TestCredentialService_Authenticate covers the distinguishable internal outcomes.
*/
func TestCredentialService_Authenticate(t *testing.T) {
	hash, err := sec.HashPassword(password)
	require.NoError(t, err)

	accounts := newAccountRepository(&account.User{ID: adaID, Email: "ada@crm.example", PasswordHash: hash})
	service := auth.NewCredentialService(accounts)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid", email: "ada@crm.example", password: password},
		{name: "case folded and trimmed", email: "  ADA@CRM.Example ", password: password},
		{name: "wrong password", email: "ada@crm.example", password: "nope", wantErr: auth.ErrInvalidPassword},
		{name: "unknown account", email: "nobody@crm.example", password: password, wantErr: auth.ErrAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := service.Authenticate(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, adaID, user.ID)
		})
	}
}

func TestCredentialService_Authenticate_StorageFailure(t *testing.T) {
	accounts := newAccountRepository()
	accounts.failOn = apperr.PersistenceFailure(errors.New("connection refused"))

	_, err := auth.NewCredentialService(accounts).Authenticate(context.Background(), "ada@crm.example", password)
	assert.True(t, apperr.HasCode(err, apperr.CodePersistence))
	assert.NotErrorIs(t, err, auth.ErrAccountNotFound)
}

/*
TestCredentialService_Rehash upgrades a legacy bcrypt hash after a successful login.
*/
func TestCredentialService_Rehash(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	accounts := newAccountRepository(&account.User{ID: adaID, Email: "ada@crm.example", PasswordHash: string(legacy)})
	service := auth.NewCredentialService(accounts)

	_, err = service.Authenticate(context.Background(), "ada@crm.example", "wrong")
	require.ErrorIs(t, err, auth.ErrInvalidPassword)
	assert.Equal(t, string(legacy), accounts.hashOf(adaID), "failed attempts never rehash")

	user, err := service.Authenticate(context.Background(), "ada@crm.example", password)
	require.NoError(t, err)

	stored := accounts.hashOf(adaID)
	assert.True(t, strings.HasPrefix(stored, "$argon2id$"))
	assert.Equal(t, stored, user.PasswordHash)
	assert.False(t, sec.NeedsRehash(stored))
	assert.True(t, sec.CheckPasswordHash(password, stored))
}
