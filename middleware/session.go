package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SessionCookie is the name of the cookie carrying the visitor's session id
const SessionCookie = "sid"

const sessionContextKey = contextKey("session")

// Session makes sure every visitor carries a session id, issuing a new cookie when the
// request has none or an unparsable one.
func Session(ttl time.Duration, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(SessionCookie); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					sid = c.Value
				}
			}
			if sid == "" {
				sid = uuid.NewString()
			}
			// sliding expiry, refreshed on every request
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sid)))
		})
	}
}

// WithSessionID returns a copy of ctx carrying sid
func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sessionContextKey, sid)
}

// SessionID returns the session id attached by Session, or "" outside a session
func SessionID(ctx context.Context) string {
	sid, _ := ctx.Value(sessionContextKey).(string)
	return sid
}
