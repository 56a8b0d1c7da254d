// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// UserSessionTable represents the 'users.session' table
type UserSessionTable struct {
	Table     string
	UserID    string
	TokenHash string
	UserAgent string
	ExpiresAt string
	RevokedAt string
	CreatedAt string

	// KeyConstraint is the unique (userid, tokenhash) constraint name.
	KeyConstraint string
}

// UserSession is the schema definition for users.session
var UserSession = UserSessionTable{
	Table:         "users.session",
	UserID:        "userid",
	TokenHash:     "tokenhash",
	UserAgent:     "useragent",
	ExpiresAt:     "expiresat",
	RevokedAt:     "revokedat",
	CreatedAt:     "createdat",
	KeyConstraint: "session_pkey",
}

// Columns returns all standard column names
func (t UserSessionTable) Columns() []string {
	return []string{t.UserID, t.TokenHash, t.UserAgent, t.ExpiresAt, t.RevokedAt, t.CreatedAt}
}
