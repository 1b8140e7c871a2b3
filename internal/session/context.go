package session

import (
	"context"

	"github.com/psds-microservice/backoffice-service/internal/model"
)

type principalContextKey struct{}

// WithPrincipal attaches the authenticated principal to ctx.
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, &p)
}

// FromContext returns the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (model.Principal, bool) {
	if ctx == nil {
		return model.Principal{}, false
	}
	v, ok := ctx.Value(principalContextKey{}).(*model.Principal)
	if !ok || v == nil {
		return model.Principal{}, false
	}
	return *v, true
}
