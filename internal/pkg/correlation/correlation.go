package correlation

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// HeaderRequestID carries the request id on requests and responses.
const HeaderRequestID = "X-Request-Id"

type requestIDKey struct{}

// RequestIDFromContext fetches a request id from the context if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if val, ok := ctx.Value(requestIDKey{}).(string); ok {
		return val
	}
	return ""
}

// ContextWithRequestID stores the request id on the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// maxRequestIDLength bounds inbound ids reused from the client.
const maxRequestIDLength = 128

// EnsureRequestID guarantees a request id on the context. candidate is reused
// only when it is a well-formed id; otherwise a uuid is generated.
func EnsureRequestID(ctx context.Context, candidate string) (context.Context, string) {
	if id := RequestIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := strings.TrimSpace(candidate)
	if !validRequestID(id) {
		id = uuid.NewString()
	}
	return ContextWithRequestID(ctx, id), id
}

// validRequestID accepts ids made of letters, digits and ._:- only.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}
	return true
}
