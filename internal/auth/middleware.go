package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/bibliafides/backend/pkg/utils"
)

type contextKey struct{}

// WithUser returns a context carrying user.
func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFrom returns the authenticated user stored by Middleware.
func UserFrom(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(contextKey{}).(User)
	return user, ok
}

// Middleware rejects requests without a valid token. Browsers cannot set headers
// on WebSocket or EventSource requests, so the access_token query parameter is
// accepted as well.
func Middleware(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := v.Verify(tokenFromRequest(r))
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return token
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}
