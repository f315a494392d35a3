package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/therenansimoes/organizations/pkg/logger"
)

const personaIDHeader = "X-Persona-Id"

type viewerCtxKey struct{}

// ViewerContext extracts the calling persona from the request header. The
// header is optional; an anonymous caller simply has no self assignment and
// the self-protection rule never suppresses anything for them.
func ViewerContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			personaID := strings.TrimSpace(r.Header.Get(personaIDHeader))
			if personaID != "" {
				ctx = context.WithValue(ctx, viewerCtxKey{}, personaID)
				if logg != nil {
					ctx = logg.WithPersonaID(ctx, personaID)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ViewerPersonaID returns the calling persona id, or "" for anonymous calls.
func ViewerPersonaID(ctx context.Context) string {
	if v, ok := ctx.Value(viewerCtxKey{}).(string); ok {
		return v
	}
	return ""
}
