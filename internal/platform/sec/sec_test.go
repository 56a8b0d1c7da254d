// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/crm/internal/platform/sec"
)

/*
TestAuthorize covers the role policy: empty/member-only requirements,
the admin override and ANY-match intersection.
*/
func TestAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		held     sec.RoleSet
		required sec.RoleSet
		allowed  bool
	}{
		{"support_lacks_moderator_or_accountant", sec.NewRoleSet(sec.RoleSupport), sec.NewRoleSet(sec.RoleModerator, sec.RoleAccountant), false},
		{"admin_passes_any_requirement", sec.NewRoleSet(sec.RoleAdmin), sec.NewRoleSet(sec.RoleModerator, sec.RoleAccountant), true},
		{"admin_passes_writer_requirement", sec.NewRoleSet(sec.RoleAdmin), sec.NewRoleSet(sec.RoleWriter), true},
		{"empty_requirement_admits_anyone", sec.NewRoleSet(), sec.NewRoleSet(), true},
		{"member_requirement_admits_anyone", sec.NewRoleSet(sec.RoleSupport), sec.NewRoleSet(sec.RoleMember), true},
		{"single_overlap_is_enough", sec.NewRoleSet(sec.RoleSupport, sec.RoleAccountant), sec.NewRoleSet(sec.RoleModerator, sec.RoleAccountant), true},
		{"member_plus_other_is_not_member_only", sec.NewRoleSet(sec.RoleMember), sec.NewRoleSet(sec.RoleMember, sec.RoleWriter), true},
		{"no_roles_fails_restricted", sec.NewRoleSet(), sec.NewRoleSet(sec.RoleWriter), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, sec.Authorize(tt.held, tt.required))
		})
	}
}

/*
TestParseRoleSet verifies unknown stored roles are dropped and duplicates collapse.
*/
func TestParseRoleSet(t *testing.T) {
	set := sec.ParseRoleSet([]string{"admin", "ADMIN", " support ", "root"})

	assert.Len(t, set, 2)
	assert.True(t, set.IsSuperuser())
	assert.True(t, set.Has(sec.RoleSupport))
	assert.Equal(t, []string{"admin", "support"}, set.Strings())
}

/*
TestRoleSet_JSON verifies the set renders as a sorted array and parses back.
*/
func TestRoleSet_JSON(t *testing.T) {
	raw, err := json.Marshal(sec.NewRoleSet(sec.RoleWriter, sec.RoleAccountant))
	require.NoError(t, err)
	assert.JSONEq(t, `["accountant","writer"]`, string(raw))

	var decoded sec.RoleSet
	require.NoError(t, json.Unmarshal([]byte(`["moderator","bogus"]`), &decoded))
	assert.Equal(t, sec.NewRoleSet(sec.RoleModerator), decoded)
}

/*
TestHashPassword_RoundTrip checks Argon2id hashing and verification.
*/
func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := sec.HashPassword("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"))
	assert.True(t, sec.CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, sec.CheckPasswordHash("correct horse battery stapler", hash))
	assert.False(t, sec.NeedsRehash(hash))

	other, err := sec.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts must differ")
}

/*
TestCheckPasswordHash_Legacy verifies bcrypt hashes still verify and are flagged for rehash.
*/
func TestCheckPasswordHash_Legacy(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, sec.CheckPasswordHash("hunter22", string(legacy)))
	assert.False(t, sec.CheckPasswordHash("hunter23", string(legacy)))
	assert.True(t, sec.NeedsRehash(string(legacy)))
}

/*
TestCheckPasswordHash_Malformed rejects garbage without panicking.
*/
func TestCheckPasswordHash_Malformed(t *testing.T) {
	for _, hash := range []string{
		"",
		"plain",
		"$argon2id$v=19$m=0,t=1,p=4$AAAA$AAAA",
		"$argon2id$v=18$m=65536,t=1,p=4$AAAA$AAAA",
		"$argon2id$v=19$m=65536,t=1,p=999$AAAA$AAAA",
		"$argon2id$v=19$m=65536,t=1,p=4$!!$AAAA",
	} {
		assert.False(t, sec.CheckPasswordHash("anything", hash), hash)
		assert.True(t, sec.NeedsRehash(hash), hash)
	}
}

/*
TestGenerateSecureToken checks token shape and the stored digest.
*/
func TestGenerateSecureToken(t *testing.T) {
	token, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	assert.Len(t, token, 43)
	assert.True(t, sec.IsWellFormedToken(token, 32))
	assert.False(t, sec.IsWellFormedToken(token+"A", 32))
	assert.False(t, sec.IsWellFormedToken("not a token", 32))

	assert.Len(t, sec.HashToken(token), 64)
	assert.Equal(t, sec.HashToken(token), sec.HashToken(token))
}
