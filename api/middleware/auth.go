package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/law23sum/trader-exchange/api/responses"
	pkgAuth "github.com/law23sum/trader-exchange/pkg/auth"
	pkgerrors "github.com/law23sum/trader-exchange/pkg/errors"
	"github.com/law23sum/trader-exchange/pkg/logger"
)

// IdentityResolver turns an Authorization header value into the caller.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (*pkgAuth.Identity, error)
}

// Auth requires a live session and seeds the request context with the identity.
func Auth(resolver IdentityResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(resolver, logg, true)
}

// OptionalAuth resolves the caller when credentials are sent and lets anonymous
// requests through. Credentials that are present but invalid are still rejected.
func OptionalAuth(resolver IdentityResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(resolver, logg, false)
}

func authenticate(resolver IdentityResolver, logg *logger.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				if required {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			if resolver == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity resolver unavailable"))
				return
			}

			identity, err := resolver.Resolve(r.Context(), raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			if logg != nil {
				ctx = logg.WithUserID(ctx, identity.AccountID.String())
				ctx = logg.WithActorRole(ctx, string(identity.Role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
