// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/crm/internal/platform/database/schema"
	"github.com/taibuivan/crm/internal/users/account"
)

// compact collapses whitespace so assertions do not depend on indentation.
func compact(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

/*
TestQueries_LivenessPredicates pins the expiry comparisons that decide which
rows are live, revocable or purgeable.
*/
func TestQueries_LivenessPredicates(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		contains []string
		excludes []string
	}{
		{
			name:  "find_active",
			query: findActiveQuery,
			contains: []string{
				"FROM users.session s JOIN users.account a ON a.id = s.userid",
				"WHERE s.userid = $1 AND s.tokenhash = $2 AND s.expiresat > $3 AND a.deletedat IS NULL",
			},
			excludes: []string{"expiresat >= $3"},
		},
		{
			name:  "revoke",
			query: revokeQuery,
			contains: []string{
				"UPDATE users.session s SET expiresat = $3, revokedat = $3",
				"WHERE s.userid = $1 AND s.tokenhash = $2 AND s.expiresat > $3 RETURNING",
			},
		},
		{
			name:     "revoke_all",
			query:    revokeAllQuery,
			contains: []string{"SET expiresat = $2, revokedat = $2 WHERE userid = $1 AND expiresat > $2"},
		},
		{
			name:     "purge_expired",
			query:    purgeExpiredQuery,
			contains: []string{"DELETE FROM users.session WHERE expiresat <= $1"},
			excludes: []string{"userid"},
		},
		{
			name:  "list_active",
			query: listActiveQuery,
			contains: []string{
				"WHERE s.userid = $1 AND s.expiresat > $2",
				"ORDER BY s.createdat DESC",
			},
		},
		{
			name:     "insert",
			query:    insertSessionQuery,
			contains: []string{"INSERT INTO users.session (userid, tokenhash, useragent, createdat, expiresat) VALUES ($1, $2, $3, $4, $5)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := compact(tt.query)
			for _, fragment := range tt.contains {
				assert.Contains(t, query, fragment)
			}
			for _, fragment := range tt.excludes {
				assert.NotContains(t, query, fragment)
			}
		})
	}
}

/*
TestQueries_ScanOrder keeps the selected columns and the scan targets in step.
*/
func TestQueries_ScanOrder(t *testing.T) {
	columns := strings.Split(sessionColumns("s"), ", ")
	require.Len(t, sessionTargets(&Session{}), len(columns))

	userTargets, _ := account.ScanTargets(&account.User{})
	require.Len(t, userTargets, len(strings.Split(account.SelectColumns("a"), ", ")))

	assert.Equal(t, "s."+schema.UserSession.UserID, columns[0])
	assert.Equal(t, "s."+schema.UserSession.RevokedAt, columns[len(columns)-1])
}

/*
TestQueries_MatchMigration checks every column and the key constraint the
repository names against the shipped schema.
*/
func TestQueries_MatchMigration(t *testing.T) {
	raw, err := os.ReadFile("../../../data/migrations/000001_init.up.sql")
	require.NoError(t, err)
	migration := strings.ToLower(string(raw))

	names := append(schema.UserSession.Columns(), schema.UserSession.KeyConstraint)
	for _, name := range names {
		assert.Contains(t, migration, name)
	}
	assert.Contains(t, migration, "create table "+schema.UserSession.Table)
}
