package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const visitorContextKey contextKey = "visitor"

// VisitorCookieName holds the opaque ID that keys a visitor's saved draft.
const VisitorCookieName = "ringside_draft"

// visitorMaxAge keeps the cookie about as long as drafts are kept.
const visitorMaxAge = 30 * 24 * 60 * 60

// Visitor returns middleware that makes sure every request carries a visitor ID.
// A missing or malformed cookie is replaced with a fresh random ID.
// POST: VisitorID(r.Context()) is a UUID string
func Visitor(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(VisitorCookieName); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     VisitorCookieName,
					Value:    id,
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
					Path:     "/",
					MaxAge:   visitorMaxAge,
				})
			}
			next.ServeHTTP(w, r.WithContext(ContextWithVisitor(r.Context(), id)))
		})
	}
}

// VisitorID returns the visitor ID set by Visitor, or "".
func VisitorID(ctx context.Context) string {
	id, _ := ctx.Value(visitorContextKey).(string)
	return id
}

// ContextWithVisitor returns a context carrying the visitor ID.
// Intended for use in tests.
func ContextWithVisitor(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, visitorContextKey, id)
}
