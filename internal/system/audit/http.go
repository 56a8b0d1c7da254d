// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/crm/internal/platform/middleware"
	requestutil "github.com/taibuivan/crm/internal/platform/request"
	"github.com/taibuivan/crm/internal/platform/respond"
	"github.com/taibuivan/crm/internal/platform/sec"
	"github.com/taibuivan/crm/pkg/pagination"
)

// ActionRead is recorded for every administrative audit query.
const ActionRead = "audit.read"

// Handler exposes the audit queries to administrators.
type Handler struct {
	auditService *Service
}

// NewHandler constructs a new audit [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{auditService: service}
}

// Routes returns a [chi.Router] whose every endpoint requires the admin role.
//
// # Endpoints
//   - GET /?start=&end=                      : Entries within an inclusive RFC 3339 window.
//   - GET /actors/{userID}                   : Entries performed by a user.
//   - GET /targets/{targetType}/{targetID}   : Entries recorded against a target.
func (handler *Handler) Routes(guard middleware.Guard) chi.Router {
	router := chi.NewRouter()
	router.Use(guard.Require(ActionRead, sec.RoleAdmin))

	router.Get("/", handler.listInPeriod)
	router.Get("/actors/{userID}", handler.listByActor)
	router.Get("/targets/{targetType}/{targetID}", handler.listByTarget)

	return router
}

/*
GET /api/v1/audit?start=&end=.

Response:
  - 200: []Entry with pagination meta
  - 400: INVALID_RANGE when start >= end, VALIDATION_ERROR for malformed timestamps
*/
func (handler *Handler) listInPeriod(writer http.ResponseWriter, request *http.Request) {
	start, err := requestutil.Time(request, "start")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	end, err := requestutil.Time(request, "end")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	ScopeFrom(request.Context()).Annotate("query", "period")

	page := pagination.FromRequest(request)
	entries, total, err := handler.auditService.FindInPeriod(request.Context(), start, end, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, entries, page.Meta(total))
}

/*
GET /api/v1/audit/actors/{userID}.

Response:
  - 200: []Entry with pagination meta
  - 400: VALIDATION_ERROR for a malformed user id
*/
func (handler *Handler) listByActor(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.Param(request, "userID")

	scope := ScopeFrom(request.Context())
	scope.Annotate("query", "actor")
	scope.SetTarget(userID, TargetTypeUser)

	page := pagination.FromRequest(request)
	entries, total, err := handler.auditService.FindByActor(request.Context(), userID, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, entries, page.Meta(total))
}

/*
GET /api/v1/audit/targets/{targetType}/{targetID}.

Response:
  - 200: []Entry with pagination meta
*/
func (handler *Handler) listByTarget(writer http.ResponseWriter, request *http.Request) {
	targetType := requestutil.Param(request, "targetType")
	targetID := requestutil.Param(request, "targetID")

	scope := ScopeFrom(request.Context())
	scope.Annotate("query", "target")
	scope.SetTarget(targetID, targetType)

	page := pagination.FromRequest(request)
	entries, total, err := handler.auditService.FindByTarget(request.Context(), targetID, targetType, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, entries, page.Meta(total))
}
