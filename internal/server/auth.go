package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/magpress/magpress/pkg/session"
)

type ctxKey string

const identityKey ctxKey = "identity"

// identityFromContext returns the authenticated identity, or "".
func identityFromContext(ctx context.Context) string {
	identity, _ := ctx.Value(identityKey).(string)
	return identity
}

// withIdentity resolves the caller's identity and stores it in the request
// context. With NoAuth every request runs as the mock local session.
// Otherwise a session token is required, either as a Bearer token or in the
// session cookie.
func (s *Server) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.noAuth {
			sess := session.MockLocal()
			next.ServeHTTP(w, r.WithContext(
				context.WithValue(r.Context(), identityKey, sess.Identity)))
			return
		}

		token := bearerToken(r)
		if token == "" {
			if c, err := r.Cookie("magpress_session"); err == nil {
				token = c.Value
			}
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing session token")
			return
		}

		sess, err := s.sessions.Get(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "session lookup failed")
			return
		}
		if sess == nil || sess.IsExpired() {
			writeError(w, http.StatusUnauthorized, "session expired or unknown")
			return
		}

		next.ServeHTTP(w, r.WithContext(
			context.WithValue(r.Context(), identityKey, sess.Identity)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
