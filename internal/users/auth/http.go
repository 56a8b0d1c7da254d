// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/crm/internal/platform/apperr"
	"github.com/taibuivan/crm/internal/platform/middleware"
	requestutil "github.com/taibuivan/crm/internal/platform/request"
	"github.com/taibuivan/crm/internal/platform/respond"
	"github.com/taibuivan/crm/internal/system/audit"
	"github.com/taibuivan/crm/internal/users/account"
	"github.com/taibuivan/crm/internal/users/session"
	"github.com/taibuivan/crm/pkg/slice"
)

// # Definitions & Constructors

// Handler implements the authentication HTTP endpoints.
type Handler struct {
	authService   *Service
	secureCookies bool
}

// NewHandler constructs a new [Handler]. secureCookies sets the Secure flag
// on both session cookies.
func NewHandler(service *Service, secureCookies bool) *Handler {
	return &Handler{authService: service, secureCookies: secureCookies}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST /login              : Verifies credentials and sets the session cookies.
//   - POST /logout             : Revokes the current session.
//   - POST /logout-everywhere  : Revokes every session of the caller.
//   - GET  /me                 : The caller's profile and current session.
//   - GET  /sessions           : The caller's live sessions.
func (handler *Handler) Routes(guard middleware.Guard) chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/login", handler.login)

	// Protected endpoints
	router.With(guard.Require(ActionLogout)).Post("/logout", handler.logout)
	router.With(guard.Require(ActionLogoutEverywhere)).Post("/logout-everywhere", handler.logoutEverywhere)
	router.With(guard.Require(ActionMe)).Get("/me", handler.me)
	router.With(guard.Require(ActionSessions)).Get("/sessions", handler.sessions)

	return router
}

// # Payloads

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User      *account.User `json:"user"`
	ExpiresAt time.Time     `json:"expires_at"`
}

type meResponse struct {
	User    *account.User `json:"user"`
	Session sessionView   `json:"session"`
}

type sessionView struct {
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Current   bool      `json:"current"`
}

type logoutEverywhereResponse struct {
	Revoked int `json:"revoked"`
}

func toView(value *session.Session, current bool) sessionView {
	return sessionView{
		UserAgent: value.UserAgent,
		CreatedAt: value.CreatedAt,
		ExpiresAt: value.ExpiresAt,
		Current:   current,
	}
}

/*
POST /api/v1/auth/login.

Description: Verifies credentials and establishes a session. The raw token
travels only in the auth-token cookie, never in the body.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: loginResponse: The user and the session expiry
  - 400: ErrInvalidJSON/Validation: Malformed input
  - 401: INVALID_CREDENTIALS: Unknown email or wrong password, indistinguishably
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	created, err := handler.authService.Login(request.Context(), func(input *LoginInput) error {
		var payload loginRequest
		if err := requestutil.DecodeJSON(request, &payload); err != nil {
			return err
		}

		input.Email = payload.Email
		input.Password = payload.Password
		input.UserAgent = request.UserAgent()
		return nil
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	SetSessionCookies(writer, created, handler.secureCookies)
	respond.OK(writer, loginResponse{User: created.User, ExpiresAt: created.ExpiresAt})
}

/*
POST /api/v1/auth/logout.

Description: Revokes the session that authenticated this request and clears
the cookies. The cookies are cleared even when the session was revoked
concurrently.

Response:
  - 204: No Content
  - 401: SESSION_NOT_FOUND: The session ended in the meantime
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	_, key, ok := CurrentSession(request.Context())
	if !ok {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	err := handler.authService.Logout(request.Context(), key)
	ClearSessionCookies(writer, handler.secureCookies)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
POST /api/v1/auth/logout-everywhere.

Response:
  - 200: logoutEverywhereResponse: How many sessions were revoked
*/
func (handler *Handler) logoutEverywhere(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	count, err := handler.authService.LogoutEverywhere(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	audit.ScopeFrom(request.Context()).Annotate("revoked", count)

	ClearSessionCookies(writer, handler.secureCookies)
	respond.OK(writer, logoutEverywhereResponse{Revoked: count})
}

/*
GET /api/v1/auth/me.

Response:
  - 200: meResponse: The caller and the session used for this request
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	current, _, ok := CurrentSession(request.Context())
	if !ok {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	respond.OK(writer, meResponse{User: current.User, Session: toView(current, true)})
}

/*
GET /api/v1/auth/sessions.

Description: Lists the caller's live sessions, newest first, flagging the one
used for this request. Tokens and their hashes are never rendered.

Response:
  - 200: []sessionView
*/
func (handler *Handler) sessions(writer http.ResponseWriter, request *http.Request) {
	current, _, ok := CurrentSession(request.Context())
	if !ok {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	sessions, err := handler.authService.Sessions(request.Context(), current.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, slice.Map(sessions, func(live session.Session) sessionView {
		return toView(&live, live.TokenHash == current.TokenHash)
	}))
}
