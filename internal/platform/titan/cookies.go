package titan

import (
	"context"

	"github.com/danniel-isiah-libor/talos-io/internal/domain"
)

type cookieContextKey struct{}

// WithChallengeCookies returns a context carrying challenge cookies that every
// store request made with it will attach. Used to forward browser-challenge
// clearance cookies to the REST API.
func WithChallengeCookies(ctx context.Context, cookies []domain.Cookie) context.Context {
	if len(cookies) == 0 {
		return ctx
	}
	return context.WithValue(ctx, cookieContextKey{}, cookies)
}

// ChallengeCookiesFromContext returns the challenge cookies carried by ctx.
func ChallengeCookiesFromContext(ctx context.Context) []domain.Cookie {
	cookies, _ := ctx.Value(cookieContextKey{}).([]domain.Cookie)
	return cookies
}
