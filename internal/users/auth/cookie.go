// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/taibuivan/crm/internal/platform/constants"
	"github.com/taibuivan/crm/internal/users/session"
)

// # Session Cookies

// SetSessionCookies writes the auth-token and auth-user-id pair for created.
// Both expire with the session.
func SetSessionCookies(writer http.ResponseWriter, created *session.Session, secure bool) {
	http.SetCookie(writer, sessionCookie(constants.SessionTokenCookieName, created.Token, secure, func(cookie *http.Cookie) {
		cookie.Expires = created.ExpiresAt
	}))
	http.SetCookie(writer, sessionCookie(constants.SessionUserCookieName, created.UserID, secure, func(cookie *http.Cookie) {
		cookie.Expires = created.ExpiresAt
	}))
}

// ClearSessionCookies instructs the client to drop both session cookies.
func ClearSessionCookies(writer http.ResponseWriter, secure bool) {
	for _, name := range []string{constants.SessionTokenCookieName, constants.SessionUserCookieName} {
		http.SetCookie(writer, sessionCookie(name, "", secure, func(cookie *http.Cookie) {
			cookie.MaxAge = -1
		}))
	}
}

// ReadSessionKey extracts the session key from the request cookies.
// It reports false when either cookie is missing or empty.
func ReadSessionKey(request *http.Request) (session.Key, bool) {
	token, err := request.Cookie(constants.SessionTokenCookieName)
	if err != nil || token.Value == "" {
		return session.Key{}, false
	}

	userID, err := request.Cookie(constants.SessionUserCookieName)
	if err != nil || userID.Value == "" {
		return session.Key{}, false
	}

	return session.Key{UserID: userID.Value, Token: token.Value}, true
}

func sessionCookie(name, value string, secure bool, apply func(*http.Cookie)) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     constants.SessionCookiePath,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	apply(cookie)
	return cookie
}
