// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements login, logout and the authorization gate.

# Architecture

  - CredentialService: Verifies an email and password against users.account.
  - Service: Orchestrates login and logout over the session store.
  - Gate: Resolves the session cookies of every protected request, applies the
    role policy and records one audit entry per request.
  - Handler: The /api/v1/auth routes and the session cookie contract.

Sessions are opaque server-side tokens; nothing in this package signs or
verifies bearer tokens.
*/
package auth

import (
	stdctx "context"
	"errors"
	"log/slog"
	"strings"

	"github.com/taibuivan/crm/internal/platform/apperr"
	"github.com/taibuivan/crm/internal/platform/ctxutil"
	"github.com/taibuivan/crm/internal/platform/metrics"
	"github.com/taibuivan/crm/internal/platform/validate"
	"github.com/taibuivan/crm/internal/system/audit"
	"github.com/taibuivan/crm/internal/users/account"
	"github.com/taibuivan/crm/internal/users/session"
)

// Audited actions of this package.
const (
	ActionLogin            = "auth.login"
	ActionLogout           = "auth.logout"
	ActionLogoutEverywhere = "auth.logout-everywhere"
	ActionMe               = "auth.me"
	ActionSessions         = "auth.sessions"
)

// Reasons recorded on a failed login entry.
const (
	reasonInvalidJSON     = "invalid_json"
	reasonAccountNotFound = "account_not_found"
	reasonInvalidPassword = "invalid_password"
)

// # Field Identifiers

const (
	fieldEmail    = "email"
	fieldPassword = "password"
)

// Authenticator verifies credentials. [*CredentialService] satisfies it.
type Authenticator interface {
	Authenticate(context stdctx.Context, email, password string) (*account.User, error)
}

// SessionStore is the subset of [*session.Store] used by the service and the gate.
type SessionStore interface {
	Create(context stdctx.Context, userID, agent string) (*session.Session, error)
	FindActive(context stdctx.Context, key session.Key) (*session.Session, error)
	Revoke(context stdctx.Context, key session.Key) (*session.Session, error)
	RevokeAll(context stdctx.Context, userID string) (int, error)
	ListActive(context stdctx.Context, userID string) ([]session.Session, error)
}

// Service implements the login and logout use cases.
type Service struct {
	credentials Authenticator
	sessions    SessionStore
	recorder    *audit.Recorder
	metrics     *metrics.Metrics
}

// NewService constructs a new auth [Service].
func NewService(credentials Authenticator, sessions SessionStore, recorder *audit.Recorder, m *metrics.Metrics) *Service {
	return &Service{credentials: credentials, sessions: sessions, recorder: recorder, metrics: m}
}

// LoginInput holds the data required to open a session.
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
}

// LoginDecoder fills a [LoginInput] from the transport. It runs inside the
// audited scope, so an unreadable request still leaves an auth.login entry.
type LoginDecoder func(input *LoginInput) error

/*
Login decodes the attempt, verifies credentials and opens a new session.

Description: The whole attempt is recorded as one auth.login entry, including
a request that cannot be decoded. On failure the entry carries the submitted
email and the internal reason while the caller only ever sees
apperr.InvalidCredentials.

Parameters:
  - context: context.Context
  - decode: LoginDecoder

Returns:
  - *session.Session: The new session, including its raw token and User
  - error: apperr.ValidationError, apperr.InvalidCredentials or storage failures
*/
func (service *Service) Login(context stdctx.Context, decode LoginDecoder) (*session.Session, error) {
	var created *session.Session

	err := service.recorder.Do(context, ActionLogin, func(context stdctx.Context, scope *audit.Scope) error {
		var input LoginInput
		if err := decode(&input); err != nil {
			scope.Fail(reasonInvalidJSON)
			return err
		}

		scope.Annotate(fieldEmail, account.NormalizeEmail(input.Email))

		validator := &validate.Validator{}
		validator.Required(fieldEmail, strings.TrimSpace(input.Email)).
			Email(fieldEmail, strings.TrimSpace(input.Email)).
			Required(fieldPassword, input.Password)
		if err := validator.Err(); err != nil {
			return err
		}

		user, err := service.credentials.Authenticate(context, input.Email, input.Password)
		switch {
		case errors.Is(err, ErrAccountNotFound):
			scope.Fail(reasonAccountNotFound)
			return apperr.InvalidCredentials()
		case errors.Is(err, ErrInvalidPassword):
			scope.Fail(reasonInvalidPassword)
			return apperr.InvalidCredentials()
		case err != nil:
			return err
		}

		scope.SetActor(user.ID)
		scope.SetTarget(user.ID, audit.TargetTypeUser)

		created, err = service.sessions.Create(context, user.ID, input.UserAgent)
		if err != nil {
			return err
		}
		created.User = user

		return nil
	})

	service.metrics.LoginAttempt(loginResult(err))
	if err != nil {
		return nil, err
	}

	ctxutil.GetLogger(context).InfoContext(context, "login_succeeded", slog.String("user_id", created.UserID))
	return created, nil
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return metrics.LoginSucceeded
	case apperr.HasCode(err, apperr.CodeInvalidCredentials), apperr.HasCode(err, apperr.CodeValidation):
		return metrics.LoginRejected
	default:
		return metrics.LoginErrored
	}
}

// Logout revokes the session named by key.
func (service *Service) Logout(context stdctx.Context, key session.Key) error {
	if _, err := service.sessions.Revoke(context, key); err != nil {
		return err
	}

	ctxutil.GetLogger(context).InfoContext(context, "logout_succeeded")
	return nil
}

// LogoutEverywhere revokes every live session of userID and returns how many were ended.
func (service *Service) LogoutEverywhere(context stdctx.Context, userID string) (int, error) {
	count, err := service.sessions.RevokeAll(context, userID)
	if err != nil {
		return 0, err
	}

	ctxutil.GetLogger(context).InfoContext(context, "logout_everywhere_succeeded", slog.Int("revoked", count))
	return count, nil
}

// Sessions lists the live sessions of userID.
func (service *Service) Sessions(context stdctx.Context, userID string) ([]session.Session, error) {
	return service.sessions.ListActive(context, userID)
}
