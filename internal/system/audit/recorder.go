// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/taibuivan/crm/internal/platform/apperr"
	"github.com/taibuivan/crm/internal/platform/ctxutil"
	"github.com/taibuivan/crm/internal/platform/metrics"
	"github.com/taibuivan/crm/pkg/pointer"
)

// Writer is the subset of [Service] the recorder needs.
type Writer interface {
	Create(context stdctx.Context, entry Entry) (*Entry, error)
}

// # Scope

// Scope accumulates the facts of one audited operation until it is finished.
//
// All methods are safe on a nil receiver so handlers can enrich
// [ScopeFrom] without checking whether they run behind the gate.
type Scope struct {
	mu         sync.Mutex
	once       sync.Once
	action     string
	actorID    *string
	targetID   *string
	targetType *string
	agent      string
	ipAddress  string
	meta       map[string]any
	failed     bool
}

// Action returns the action name the scope was opened for.
func (scope *Scope) Action() string {
	if scope == nil {
		return ""
	}
	return scope.action
}

// SetActor records the user performing the action.
func (scope *Scope) SetActor(userID string) {
	if scope == nil || userID == "" {
		return
	}
	scope.mu.Lock()
	defer scope.mu.Unlock()
	scope.actorID = pointer.To(userID)
}

// SetTarget records the entity the action applies to.
func (scope *Scope) SetTarget(targetID, targetType string) {
	if scope == nil || targetID == "" || targetType == "" {
		return
	}
	scope.mu.Lock()
	defer scope.mu.Unlock()
	scope.targetID = pointer.To(targetID)
	scope.targetType = pointer.To(targetType)
}

// Annotate adds a meta key. Secret-like keys are masked when the entry is written.
func (scope *Scope) Annotate(key string, value any) {
	if scope == nil {
		return
	}
	scope.mu.Lock()
	defer scope.mu.Unlock()
	scope.meta[key] = value
}

// Fail marks the operation as failed even if it returns no error.
func (scope *Scope) Fail(reason string) {
	if scope == nil {
		return
	}
	scope.mu.Lock()
	defer scope.mu.Unlock()
	scope.failed = true
	if reason != "" {
		scope.meta["reason"] = reason
	}
}

// entry snapshots the scope into an [Entry] for the given outcome.
func (scope *Scope) entry(cause error) Entry {
	scope.mu.Lock()
	defer scope.mu.Unlock()

	status := StatusSuccess
	if scope.failed || cause != nil {
		status = StatusFailure
	}

	meta := make(map[string]any, len(scope.meta)+1)
	for key, value := range scope.meta {
		meta[key] = value
	}
	if cause != nil {
		if _, ok := meta["error"]; !ok {
			meta["error"] = errorCode(cause)
		}
	}

	return Entry{
		ActorID:    scope.actorID,
		TargetID:   scope.targetID,
		TargetType: scope.targetType,
		Action:     scope.action,
		Status:     status,
		Agent:      scope.agent,
		IPAddress:  scope.ipAddress,
		Meta:       meta,
	}
}

// errorCode renders a failure without leaking internal detail into the trail.
func errorCode(err error) string {
	if appError := apperr.As(err); appError != nil {
		return appError.Code
	}
	return apperr.CodeInternal
}

type scopeKey struct{}

// WithScope attaches scope to context.
func WithScope(context stdctx.Context, scope *Scope) stdctx.Context {
	return stdctx.WithValue(context, scopeKey{}, scope)
}

// ScopeFrom returns the scope opened for the current operation, or nil.
func ScopeFrom(context stdctx.Context) *Scope {
	scope, _ := context.Value(scopeKey{}).(*Scope)
	return scope
}

// # Recorder

// Recorder guarantees exactly one entry per audited operation.
type Recorder struct {
	writer  Writer
	metrics *metrics.Metrics
}

// NewRecorder builds a [Recorder] writing through writer.
func NewRecorder(writer Writer, m *metrics.Metrics) *Recorder {
	return &Recorder{writer: writer, metrics: m}
}

// Begin opens a scope for action. Agent, IP, request id and any principal
// already on context are captured immediately.
func (recorder *Recorder) Begin(context stdctx.Context, action string) *Scope {
	scope := &Scope{
		action:    action,
		agent:     ctxutil.GetAgent(context),
		ipAddress: ctxutil.GetClientIP(context),
		meta:      map[string]any{},
	}

	if requestID := ctxutil.GetRequestID(context); requestID != "" {
		scope.meta["request_id"] = requestID
	}
	if principal := ctxutil.GetPrincipal(context); principal != nil {
		scope.SetActor(principal.UserID)
	}

	return scope
}

/*
Finish writes the scope's entry. Only the first call for a scope has any effect.

Description: A nil cause with no [Scope.Fail] records success; anything else
records failure. A storage fault is logged and counted, never returned, so the
audit trail cannot change the outcome of the operation it describes.

Parameters:
  - context: context.Context (Cancellation is ignored so a dropped client still leaves a trace)
  - scope: *Scope
  - cause: error (The operation's result)
*/
func (recorder *Recorder) Finish(context stdctx.Context, scope *Scope, cause error) {
	if scope == nil {
		return
	}

	scope.once.Do(func() {
		entry := scope.entry(cause)

		if _, err := recorder.writer.Create(stdctx.WithoutCancel(context), entry); err != nil {
			recorder.metrics.AuditWriteFailed()
			ctxutil.GetLogger(context).ErrorContext(context, "audit_write_failed",
				slog.String("action", entry.Action),
				slog.String("status", string(entry.Status)),
				slog.Any("error", err),
			)
		}
	})
}

/*
Do runs fn inside a fresh scope and records its outcome exactly once.

A panic inside fn is recorded as a failure and then re-raised.

Parameters:
  - context: context.Context
  - action: string (Dotted action name, e.g. "auth.login")
  - fn: The audited operation; it receives a context carrying the scope

Returns:
  - error: fn's own error, untouched
*/
func (recorder *Recorder) Do(context stdctx.Context, action string, fn func(context stdctx.Context, scope *Scope) error) (err error) {
	scope := recorder.Begin(context, action)
	scopedCtx := WithScope(context, scope)

	defer func() {
		if recovered := recover(); recovered != nil {
			scope.Annotate("panic", true)
			recorder.Finish(scopedCtx, scope, fmt.Errorf("audit: panic in %s: %v", action, recovered))
			panic(recovered)
		}
		recorder.Finish(scopedCtx, scope, err)
	}()

	return fn(scopedCtx, scope)
}
