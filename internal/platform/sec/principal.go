// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "time"

// Principal is the identity the gate attaches to a request after resolving an
// active session. It is passed down the call chain through [context.Context],
// never kept in package state.
type Principal struct {
	UserID           string
	Email            string
	Roles            RoleSet
	SessionCreatedAt time.Time
	SessionExpiresAt time.Time
}
