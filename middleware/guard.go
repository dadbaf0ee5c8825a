package middleware

import (
	"context"
	"net/http"

	"github.com/MrEthical07/recipeauth"
	"github.com/MrEthical07/recipeauth/session"
)

type sessionContextKey struct{}

// SessionFromContext returns the session stored by a guard.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return s, ok && s != nil
}

// RequireSession rejects requests with 401 unless someone is signed in. A
// session that has not been reconciled yet is resolved on first use.
func RequireSession(engine *recipeauth.Engine) func(http.Handler) http.Handler {
	return guard(engine, func(*session.Session) bool { return true })
}

// RequireRemote is RequireSession restricted to sessions issued by the
// identity provider. Local fallback sessions get 403.
func RequireRemote(engine *recipeauth.Engine) func(http.Handler) http.Handler {
	return guard(engine, (*session.Session).IsRemote)
}

func guard(engine *recipeauth.Engine, allow func(*session.Session) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			cur := engine.CurrentSession()
			if cur == nil && engine.ResolveState() == recipeauth.Unresolved {
				var err error
				cur, err = engine.ResolveSession(r.Context())
				if err != nil {
					http.Error(w, "session unavailable", http.StatusServiceUnavailable)
					return
				}
			}
			if cur == nil || !cur.Authenticated {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !allow(cur) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, cur)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
