// Package requestcontext provides HTTP-independent accessors for
// request-scoped values. Middleware sets them; services read them without
// importing net/http.
package requestcontext

import (
	"context"
	"time"

	id "attribune/pkg/domain"
)

type (
	partnerIDKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	clientInfoKey  struct{}
)

// ClientInfo captures parsed SDK client metadata for audit logging.
type ClientInfo struct {
	Name    string
	Version string
	OS      string
}

// PartnerID retrieves the authenticated partner id from the context.
// Returns the zero value if not set.
func PartnerID(ctx context.Context) id.PartnerID {
	if pid, ok := ctx.Value(partnerIDKey{}).(id.PartnerID); ok {
		return pid
	}
	return id.PartnerID{}
}

// WithPartnerID injects a partner id into the context.
func WithPartnerID(ctx context.Context, partnerID id.PartnerID) context.Context {
	return context.WithValue(ctx, partnerIDKey{}, partnerID)
}

// RequestID retrieves the request id from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request id into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context, falling back to
// time.Now() for non-HTTP contexts (workers, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a fixed time into a context. Useful for service unit
// tests that don't run the middleware chain.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// Client retrieves parsed client metadata from the context.
func Client(ctx context.Context) ClientInfo {
	if info, ok := ctx.Value(clientInfoKey{}).(ClientInfo); ok {
		return info
	}
	return ClientInfo{}
}

// WithClient injects client metadata into the context.
func WithClient(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}
