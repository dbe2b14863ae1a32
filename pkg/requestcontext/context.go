// Package requestcontext provides HTTP-independent accessors for
// request-scoped values: the acting user, request correlation ID, client
// metadata, and the request-scoped clock.
//
// Every service operation reads the actor and the clock from here instead of
// ambient globals, so tests inject both with plain context values:
//
//	ctx = requestcontext.WithActorID(ctx, reviewerID)
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "certo/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	userIDKey      struct{}
	actorIDKey     struct{}
	requestIDKey   struct{}
	clientIPKey    struct{}
	clientAgentKey struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyUserID      = userIDKey{}
	ContextKeyActorID     = actorIDKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyClientIP    = clientIPKey{}
	ContextKeyClientAgent = clientAgentKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// UserID retrieves the authenticated user from the context.
// Returns the zero value (nil UUID) if not set.
func UserID(ctx context.Context) id.UserID {
	if userID, ok := ctx.Value(ContextKeyUserID).(id.UserID); ok {
		return userID
	}
	return id.UserID{}
}

// WithUserID injects a user ID into the context.
func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// ActorID retrieves the user performing the current action. It differs from
// UserID when a reviewer or administrator acts on a candidate's process;
// falls back to UserID when no distinct actor was set.
func ActorID(ctx context.Context) id.UserID {
	if actorID, ok := ctx.Value(ContextKeyActorID).(id.UserID); ok {
		return actorID
	}
	return UserID(ctx)
}

// WithActorID injects a distinct acting user into the context.
func WithActorID(ctx context.Context, actorID id.UserID) context.Context {
	return context.WithValue(ctx, ContextKeyActorID, actorID)
}

// RequestID retrieves the correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// ClientAgent retrieves the normalized client user-agent description.
func ClientAgent(ctx context.Context) string {
	if agent, ok := ctx.Value(ContextKeyClientAgent).(string); ok {
		return agent
	}
	return ""
}

// WithClientMetadata injects client IP and normalized user-agent into a
// context. Useful for service tests that skip the HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, clientAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	ctx = context.WithValue(ctx, ContextKeyClientAgent, clientAgent)
	return ctx
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, CLI).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Used by the requesttime
// middleware, by workers that need one consistent timestamp per batch, and by
// tests.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
