package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bomcorte/blackfriday/internal/config"
	"github.com/bomcorte/blackfriday/internal/model"
)

type ctxKey struct{}

// FromContext returns the session injected by RequireAuth.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(ctxKey{}).(*Session)
	return sess, ok
}

// SetCookie writes the session cookie on a response.
func SetCookie(w http.ResponseWriter, sess *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     config.SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(TTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     config.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireAuth rejects requests without a valid session cookie and
// injects the session into the request context.
func (s *Store) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(config.SessionCookieName)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		sess, err := s.Get(r.Context(), cookie.Value)
		if errors.Is(err, ErrNotFound) {
			writeAuthError(w, http.StatusUnauthorized, "session expired")
			return
		}
		if err != nil {
			slog.Error("session: lookup failed", "error", err)
			writeAuthError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sess)))
	})
}

// RequireRole wraps RequireAuth and additionally rejects sessions whose
// role does not satisfy allowed.
func (s *Store) RequireRole(allowed func(model.Role) bool, next http.Handler) http.Handler {
	return s.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := FromContext(r.Context())
		if sess == nil || !allowed(sess.Role) {
			writeAuthError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// Admin allows only the admin role.
func Admin(r model.Role) bool { return r == model.RoleAdmin }

// Editor allows the admin and editor roles.
func Editor(r model.Role) bool { return r.CanEdit() }

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg, "code": status})
}
