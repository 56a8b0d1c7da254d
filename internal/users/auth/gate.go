// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/taibuivan/crm/internal/platform/apperr"
	"github.com/taibuivan/crm/internal/platform/ctxutil"
	"github.com/taibuivan/crm/internal/platform/metrics"
	"github.com/taibuivan/crm/internal/platform/middleware"
	"github.com/taibuivan/crm/internal/platform/respond"
	"github.com/taibuivan/crm/internal/platform/sec"
	"github.com/taibuivan/crm/internal/system/audit"
	"github.com/taibuivan/crm/internal/users/session"
)

// Reasons recorded when the gate rejects a request as unauthenticated.
const (
	reasonMissingCredentials = "missing_credentials"
	reasonSessionNotFound    = "session_not_found"
)

// errAuthenticationRequired is the single 401 rendered by the gate.
func errAuthenticationRequired() *apperr.AppError {
	return apperr.Unauthorized("Authentication required")
}

// SessionFinder resolves a presented key to a live session.
type SessionFinder interface {
	FindActive(context stdctx.Context, key session.Key) (*session.Session, error)
}

/*
Gate is the single enforcement point for protected routes.

Each request moves through Unauthenticated, Authenticated and then either
Authorized or Forbidden. Whatever the exit path (401, 403, handler success,
handler status >= 400 or panic) exactly one audit entry named after the
route's action is written.
*/
type Gate struct {
	sessions SessionFinder
	recorder *audit.Recorder
	metrics  *metrics.Metrics
}

// NewGate constructs a [Gate].
func NewGate(sessions SessionFinder, recorder *audit.Recorder, m *metrics.Metrics) *Gate {
	return &Gate{sessions: sessions, recorder: recorder, metrics: m}
}

// Require implements [middleware.Guard].
func (gate *Gate) Require(action string, roles ...sec.Role) func(http.Handler) http.Handler {
	required := sec.NewRoleSet(roles...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			scope := gate.recorder.Begin(request.Context(), action)
			ctx := audit.WithScope(request.Context(), scope)

			defer func() {
				if recovered := recover(); recovered != nil {
					scope.Annotate("panic", true)
					gate.recorder.Finish(ctx, scope, fmt.Errorf("auth: panic in %s: %v", action, recovered))
					panic(recovered)
				}
			}()

			authorized, err := gate.authorize(ctx, request, scope, required)
			if err != nil {
				respond.Error(writer, request.WithContext(ctx), err)
				gate.recorder.Finish(ctx, scope, err)
				return
			}
			ctx = authorized

			recorder := middleware.NewStatusRecorder(writer)
			next.ServeHTTP(recorder, request.WithContext(ctx))

			if recorder.Status >= http.StatusBadRequest {
				scope.Annotate("http_status", recorder.Status)
				scope.Fail("")
			}
			gate.recorder.Finish(ctx, scope, nil)
		})
	}
}

// authorize resolves the session cookies and applies the role policy.
// It returns the request context enriched with the principal.
//
// Every unauthenticated outcome renders the same 401. The audit entry keeps
// the internal reason.
func (gate *Gate) authorize(context stdctx.Context, request *http.Request, scope *audit.Scope, required sec.RoleSet) (stdctx.Context, error) {
	key, ok := ReadSessionKey(request)
	if !ok {
		gate.metrics.GateDecision(metrics.OutcomeUnauthenticated)
		scope.Annotate("reason", reasonMissingCredentials)
		return nil, errAuthenticationRequired()
	}

	current, err := gate.sessions.FindActive(context, key)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeSessionNotFound) {
			gate.metrics.GateDecision(metrics.OutcomeUnauthenticated)
			scope.Annotate("reason", reasonSessionNotFound)
			return nil, errAuthenticationRequired()
		}
		gate.metrics.GateDecision(metrics.OutcomeError)
		return nil, err
	}

	principal := &sec.Principal{
		UserID:           current.UserID,
		Email:            current.User.Email,
		Roles:            current.User.Roles,
		SessionCreatedAt: current.CreatedAt,
		SessionExpiresAt: current.ExpiresAt,
	}
	scope.SetActor(principal.UserID)

	ctx := ctxutil.WithPrincipal(context, principal)
	ctx = withSession(ctx, current, key)
	ctx = ctxutil.WithLogger(ctx, ctxutil.GetLogger(ctx).With(slog.String("user_id", principal.UserID)))

	if !sec.Authorize(principal.Roles, required) {
		gate.metrics.GateDecision(metrics.OutcomeForbidden)
		ctxutil.GetLogger(ctx).WarnContext(ctx, "gate_forbidden",
			slog.String("action", scope.Action()),
			slog.Any("required", required.Strings()),
		)
		return nil, apperr.Forbidden("Insufficient role for this operation")
	}

	gate.metrics.GateDecision(metrics.OutcomeAuthorized)
	return ctx, nil
}

// # Request Session

type currentSessionKey struct{}

type currentSession struct {
	session *session.Session
	key     session.Key
}

func withSession(context stdctx.Context, current *session.Session, key session.Key) stdctx.Context {
	return stdctx.WithValue(context, currentSessionKey{}, currentSession{session: current, key: key})
}

// CurrentSession returns the session resolved by the gate and the key that named it.
func CurrentSession(context stdctx.Context) (*session.Session, session.Key, bool) {
	value, ok := context.Value(currentSessionKey{}).(currentSession)
	if !ok {
		return nil, session.Key{}, false
	}
	return value.session, value.key, true
}
