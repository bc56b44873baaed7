package async

import "context"

type callKey struct{}

type call struct {
	cookie Cookie
	domain *Domain
	async  bool
}

func withCall(ctx context.Context, c call) context.Context {
	return context.WithValue(ctx, callKey{}, c)
}

// IsAsync reports whether ctx belongs to a call running on a pool worker.
// It is false outside calls and for calls that ran synchronously on the
// scheduling goroutine.
func IsAsync(ctx context.Context) bool {
	c, ok := ctx.Value(callKey{}).(call)
	return ok && c.async
}

// CookieFromContext returns the cookie of the call ctx belongs to.
func CookieFromContext(ctx context.Context) (Cookie, bool) {
	c, ok := ctx.Value(callKey{}).(call)
	return c.cookie, ok
}

// DomainFromContext returns the domain of the call ctx belongs to, or nil.
func DomainFromContext(ctx context.Context) *Domain {
	c, _ := ctx.Value(callKey{}).(call)
	return c.domain
}
