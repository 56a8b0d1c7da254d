// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/crm/internal/platform/apperr"
	"github.com/taibuivan/crm/internal/platform/clock"
	"github.com/taibuivan/crm/internal/platform/metrics"
	"github.com/taibuivan/crm/internal/platform/middleware"
	"github.com/taibuivan/crm/internal/platform/respond"
	"github.com/taibuivan/crm/internal/platform/sec"
	"github.com/taibuivan/crm/internal/system/audit"
	"github.com/taibuivan/crm/internal/users/account"
	"github.com/taibuivan/crm/internal/users/auth"
	"github.com/taibuivan/crm/internal/users/session"
	"github.com/taibuivan/crm/internal/users/session/sessiontest"
)

const (
	adaID   = "0190a6b2-7c3e-7d4f-8a1b-2c3d4e5f6a7b"
	rootID  = "0190a6b2-7c3e-7d4f-8a1b-2c3d4e5f6a7c"
	graceID = "0190a6b2-7c3e-7d4f-8a1b-2c3d4e5f6a7d"

	password = "correct horse battery staple"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// # Fakes

// accountRepository is an in-process [account.Repository].
type accountRepository struct {
	mu     sync.Mutex
	users  map[string]*account.User
	failOn error
}

func newAccountRepository(users ...*account.User) *accountRepository {
	repository := &accountRepository{users: map[string]*account.User{}}
	for _, user := range users {
		repository.users[user.ID] = user
	}
	return repository
}

func (repository *accountRepository) FindByID(_ context.Context, id string) (*account.User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	user, ok := repository.users[id]
	if !ok {
		return nil, apperr.NotFound("Account")
	}
	clone := *user
	return &clone, nil
}

func (repository *accountRepository) FindByEmail(_ context.Context, email string) (*account.User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if repository.failOn != nil {
		return nil, repository.failOn
	}
	for _, user := range repository.users {
		if user.Email == email && user.DeletedAt == nil {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (repository *accountRepository) UpdateProfile(context.Context, *account.User) error {
	return nil
}

func (repository *accountRepository) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	user, ok := repository.users[id]
	if !ok {
		return apperr.NotFound("Account")
	}
	user.PasswordHash = passwordHash
	return nil
}

func (repository *accountRepository) hashOf(id string) string {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	return repository.users[id].PasswordHash
}

// captureWriter collects audit entries in memory.
type captureWriter struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (writer *captureWriter) Create(_ context.Context, entry audit.Entry) (*audit.Entry, error) {
	writer.mu.Lock()
	defer writer.mu.Unlock()
	writer.entries = append(writer.entries, entry)
	return &entry, nil
}

func (writer *captureWriter) Entries() []audit.Entry {
	writer.mu.Lock()
	defer writer.mu.Unlock()
	return append([]audit.Entry(nil), writer.entries...)
}

// # Fixture

type fixture struct {
	router   http.Handler
	accounts *accountRepository
	sessions *sessiontest.MemoryRepository
	store    *session.Store
	trail    *captureWriter
	clock    *clock.Fake
	registry *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hash, err := sec.HashPassword(password)
	require.NoError(t, err)

	users := []*account.User{
		{ID: adaID, Email: "ada@crm.example", PasswordHash: hash, Roles: sec.NewRoleSet(sec.RoleSupport), CreatedAt: epoch, UpdatedAt: epoch},
		{ID: rootID, Email: "root@crm.example", PasswordHash: hash, Roles: sec.NewRoleSet(sec.RoleAdmin), CreatedAt: epoch, UpdatedAt: epoch},
		{ID: graceID, Email: "grace@crm.example", PasswordHash: hash, Roles: sec.NewRoleSet(sec.RoleMember), CreatedAt: epoch, UpdatedAt: epoch},
	}

	f := &fixture{
		accounts: newAccountRepository(users...),
		sessions: sessiontest.NewMemoryRepository(users...),
		trail:    &captureWriter{},
		clock:    clock.NewFake(epoch),
		registry: prometheus.NewRegistry(),
	}
	f.store = session.NewStore(f.sessions, f.clock)

	m := metrics.New(f.registry)
	recorder := audit.NewRecorder(f.trail, m)
	gate := auth.NewGate(f.store, recorder, m)
	service := auth.NewService(auth.NewCredentialService(f.accounts), f.store, recorder, m)

	router := chi.NewRouter()
	router.Use(middleware.ClientInfo())
	router.Mount("/auth", auth.NewHandler(service, true).Routes(gate))

	router.With(gate.Require("client.update", sec.RoleModerator, sec.RoleAccountant)).Put("/clients", func(writer http.ResponseWriter, _ *http.Request) {
		respond.OK(writer, map[string]string{"status": "updated"})
	})
	router.With(gate.Require("client.list", sec.RoleMember)).Get("/clients", func(writer http.ResponseWriter, request *http.Request) {
		audit.ScopeFrom(request.Context()).Annotate("listed", 3)
		respond.OK(writer, []string{})
	})
	router.With(gate.Require("client.create")).Post("/clients", func(writer http.ResponseWriter, request *http.Request) {
		respond.Error(writer, request, apperr.Conflict("Client already exists"))
	})
	router.With(gate.Require("client.crash")).Delete("/clients", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	f.router = router
	return f
}

func (f *fixture) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	// A string body is sent verbatim so tests can submit broken JSON.
	var payload bytes.Buffer
	switch value := body.(type) {
	case nil:
	case string:
		payload.WriteString(value)
	default:
		_ = json.NewEncoder(&payload).Encode(value)
	}

	request := httptest.NewRequest(method, path, &payload)
	request.Header.Set("User-Agent", "crm-test/1.0")
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}

	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, request)
	return recorder
}

func (f *fixture) login(t *testing.T, email string) []*http.Cookie {
	t.Helper()

	response := f.do(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, response.Code, response.Body.String())

	cookies := response.Result().Cookies()
	require.Len(t, cookies, 2)
	return cookies
}

func (f *fixture) entriesFor(action string) []audit.Entry {
	var out []audit.Entry
	for _, entry := range f.trail.Entries() {
		if entry.Action == action {
			out = append(out, entry)
		}
	}
	return out
}

// counter sums the samples of name whose single label equals value.
func (f *fixture) counter(t *testing.T, name, value string) float64 {
	t.Helper()

	families, err := f.registry.Gather()
	require.NoError(t, err)

	total := 0.0
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetValue() == value {
					total += metric.GetCounter().GetValue()
				}
			}
		}
	}
	return total
}

func errorCode(t *testing.T, response *httptest.ResponseRecorder) string {
	t.Helper()

	var envelope respond.ErrorEnvelope
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &envelope))
	return envelope.Code
}

func newAccountUser(id string, roles ...sec.Role) *account.User {
	return &account.User{ID: id, Email: "user@crm.example", Roles: sec.NewRoleSet(roles...), CreatedAt: epoch, UpdatedAt: epoch}
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}
