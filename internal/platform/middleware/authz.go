// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"

	"github.com/taibuivan/crm/internal/platform/sec"
)

// Guard is the single enforcement point for protected routes.
//
// # Contract
//
// Require returns middleware that resolves the caller's session, checks the
// role requirement and records exactly one audit entry named action for the
// request, whatever its outcome. An empty role list, or exactly [sec.RoleMember],
// admits any authenticated user.
//
// Defining the contract here lets domain handlers mount protected routes
// without importing the auth package that implements it.
type Guard interface {
	Require(action string, roles ...sec.Role) func(http.Handler) http.Handler
}
