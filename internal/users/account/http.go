// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/crm/internal/platform/middleware"
	requestutil "github.com/taibuivan/crm/internal/platform/request"
	"github.com/taibuivan/crm/internal/platform/respond"
	"github.com/taibuivan/crm/internal/system/audit"
	"github.com/taibuivan/crm/pkg/pagination"
	"github.com/taibuivan/crm/pkg/pointer"
)

// Audited actions of this package.
const (
	ActionUpdate       = "user.update"
	ActionReadOwnAudit = "audit.read-self"
)

// Handler implements the HTTP layer for the caller's own account.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] with the self-service endpoints, all behind guard.
func (handler *Handler) Routes(guard middleware.Guard) chi.Router {
	router := chi.NewRouter()

	router.With(guard.Require(ActionUpdate)).Put("/me", handler.updateMe)
	router.With(guard.Require(ActionReadOwnAudit)).Get("/me/audit", handler.listMyAudit)

	return router
}

// updateMeRequest defines the expected JSON payload for profile updates.
type updateMeRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

/*
PUT /api/v1/users/me.

Description: Applies partial name updates to the authenticated user's profile.
The audit entry targets the user and carries the submitted fields.

Request:
  - body: updateMeRequest (Partial JSON)

Response:
  - 200: User: The updated profile
  - 400: ErrInvalidJSON/Validation: Invalid input data
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	scope := audit.ScopeFrom(request.Context())
	scope.SetTarget(userID, audit.TargetTypeUser)

	var input updateMeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	changes := map[string]any{}
	if input.FirstName != nil {
		changes[FieldFirstName] = pointer.Val(input.FirstName)
	}
	if input.LastName != nil {
		changes[FieldLastName] = pointer.Val(input.LastName)
	}
	scope.Annotate("changes", changes)

	user, err := handler.accountService.UpdateProfile(request.Context(), userID, UpdateProfileInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
GET /api/v1/users/me/audit.

Description: Lists the audit entries the caller performed, newest first.

Response:
  - 200: []Entry with pagination meta
*/
func (handler *Handler) listMyAudit(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page := pagination.FromRequest(request)
	entries, total, err := handler.accountService.AuditTrail(request.Context(), userID, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, entries, page.Meta(total))
}
