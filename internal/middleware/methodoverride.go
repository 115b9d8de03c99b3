package middleware

import (
	"errors"
	"net/http"
	"strings"
)

// overridable lists the methods a POST may be turned into.
var overridable = map[string]bool{
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// MethodOverride lets HTML forms, which can only POST, reach PUT, PATCH and
// DELETE routes. The target method is read from the X-HTTP-Method-Override
// header or the "_method" field of a form-encoded POST. Other values are
// ignored.
//
// Reading "_method" parses the body, so a body over the NewMaxBodySizeHandler
// limit is answered with 413 and an unreadable one with 400. Wire it after
// NewMaxBodySizeHandler and before the router.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			method := r.Header.Get("X-HTTP-Method-Override")
			if method == "" && isFormBody(r) {
				if err := parseForm(r); err != nil {
					status := http.StatusBadRequest
					var tooLarge *http.MaxBytesError
					if errors.As(err, &tooLarge) {
						status = http.StatusRequestEntityTooLarge
					}
					http.Error(w, http.StatusText(status), status)
					return
				}
				method = r.PostForm.Get("_method")
			}
			method = strings.ToUpper(strings.TrimSpace(method))
			if overridable[method] {
				r.Method = method
			}
		}
		next.ServeHTTP(w, r)
	})
}

func isFormBody(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data")
}

func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(32 << 20)
	}
	return r.ParseForm()
}
