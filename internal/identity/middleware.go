package identity

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/accounthub/accounthub/internal/platform/httpx"
	"github.com/accounthub/accounthub/internal/shared"
)

// ActorResolver resolves an API key to an authenticated actor.
type ActorResolver interface {
	ResolveActor(ctx context.Context, apiKey string) (shared.Actor, error)
}

// AuthMiddleware authenticates requests with an API key from the X-Api-Key
// header or an "Authorization: Key <key>" header and stores the resolved
// actor in the request context.
func AuthMiddleware(resolver ActorResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := apiKeyFromRequest(r)
			if key == "" {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing api key")
				return
			}
			actor, err := resolver.ResolveActor(r.Context(), key)
			if err != nil {
				if logger != nil {
					logger.Warn("actor resolution failed", slog.String("path", r.URL.Path))
				}
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid api key")
				return
			}
			ctx := shared.ContextWithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func apiKeyFromRequest(r *http.Request) string {
	if key := r.Header.Get("X-Api-Key"); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if rest, ok := strings.CutPrefix(auth, "Key "); ok {
		return strings.TrimSpace(rest)
	}
	return ""
}
