// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/crm/internal/platform/apperr"
	"github.com/taibuivan/crm/internal/platform/ctxutil"
	"github.com/taibuivan/crm/internal/platform/sec"
	"github.com/taibuivan/crm/internal/platform/validate"
)

// maxBodyBytes bounds every decoded JSON body.
const maxBodyBytes = 1 << 20

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(http.MaxBytesReader(nil, request.Body, maxBodyBytes)).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Time parses an RFC 3339 query parameter.

Returns:
  - time.Time: The parsed instant in UTC
  - error: A validation error naming the parameter when it is missing or malformed
*/
func Time(request *http.Request, name string) (time.Time, error) {
	raw := request.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, validate.RequiredError(name, "This field is required")
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, validate.RequiredError(name, "Must be an RFC 3339 timestamp")
	}
	return parsed.UTC(), nil
}

/*
Principal extracts the authenticated principal from the request context.

Returns nil if the request did not pass the gate.
*/
func Principal(request *http.Request) *sec.Principal {
	return ctxutil.GetPrincipal(request.Context())
}

/*
RequiredPrincipal ensures the request is authenticated and returns its principal.

Returns:
  - *sec.Principal: The authenticated identity
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredPrincipal(request *http.Request) (*sec.Principal, error) {

	// Get the principal attached by the gate
	principal := ctxutil.GetPrincipal(request.Context())

	// If the user is not authenticated, return an error
	if principal == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}

	return principal, nil
}

/*
RequiredUserID returns the User ID of the currently logged-in user.

Returns:
  - string: User UUID
  - error: apperr.Unauthorized if not authenticated
*/
func RequiredUserID(request *http.Request) (string, error) {
	principal, err := RequiredPrincipal(request)
	if err != nil {
		return "", err
	}

	return principal.UserID, nil
}
