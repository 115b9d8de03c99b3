package flash

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// CookieOptions controls the session cookie written by Middleware.
type CookieOptions struct {
	Name   string
	Secure bool
}

// Middleware attaches a Bag for the caller's session to every request.
// Requests without a valid session cookie get a fresh random id and a
// Set-Cookie header carrying it.
func Middleware(store Store, opts CookieOptions, log *slog.Logger) func(http.Handler) http.Handler {
	if opts.Name == "" {
		opts.Name = "formflow_session"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if c, err := r.Cookie(opts.Name); err == nil {
				if id, err := uuid.Parse(c.Value); err == nil {
					sessionID = id.String()
				}
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     opts.Name,
					Value:    sessionID,
					Path:     "/",
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			bag := NewBag(store, sessionID, log)
			next.ServeHTTP(w, r.WithContext(WithBag(r.Context(), bag)))
		})
	}
}
