// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey defines the typed context keys shared by the middleware
// chain, the auth gate and the audit recorder.
//
// Only ctxutil reads or writes these keys. The gate's current session and the
// audit scope use keys private to their own packages.
package ctxkey

// key keeps these values apart from string keys set by other packages.
type key string

const (
	// KeyRequestID is the context key for the X-Request-ID correlation value.
	KeyRequestID key = "request_id"

	// KeyPrincipal is the context key for the authenticated [sec.Principal].
	KeyPrincipal key = "principal"

	// KeyLogger is the context key for the per-request [*log/slog.Logger].
	KeyLogger key = "logger"

	// KeyAgent and KeyClientIP carry what the audit trail records as the
	// entry's agent and ipaddress.
	KeyAgent    key = "agent"
	KeyClientIP key = "client_ip"
)
