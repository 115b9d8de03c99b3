// Package route gives chi routes names, so handlers can generate URLs and
// find out which named route matched the current request.
package route

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/formflow/internal/domain"
)

var paramPattern = regexp.MustCompile(`\{([^}:]+)(:[^}]*)?\}`)

// Registry maps route names to chi patterns and back.
// Populate it while building the router; it is read-only afterwards.
type Registry struct {
	patterns map[string]string
	names    map[string]string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		patterns: make(map[string]string),
		names:    make(map[string]string),
	}
}

// Add names pattern and returns it, so registration can sit inline:
//
//	r.Get(routes.Add("trip_show", "/trips/{id}"), h.ShowTrip)
//
// Several names may not share one pattern; Add panics on duplicates because
// that is a programming error in router setup.
func (reg *Registry) Add(name, pattern string) string {
	if existing, ok := reg.patterns[name]; ok && existing != pattern {
		panic(fmt.Sprintf("route: %q already registered as %q", name, existing))
	}
	if existing, ok := reg.names[pattern]; ok && existing != name {
		panic(fmt.Sprintf("route: pattern %q already named %q", pattern, existing))
	}
	reg.patterns[name] = pattern
	reg.names[pattern] = name
	return pattern
}

// Pattern returns the pattern registered under name.
func (reg *Registry) Pattern(name string) (string, bool) {
	p, ok := reg.patterns[name]
	return p, ok
}

// Generate builds the path of the named route. Every placeholder must be
// supplied; parameters the pattern does not use are appended as a sorted
// query string.
func (reg *Registry) Generate(name string, params map[string]string) (string, error) {
	pattern, ok := reg.patterns[name]
	if !ok {
		return "", fmt.Errorf("route.Registry.Generate: %w: unknown route %q", domain.ErrConfiguration, name)
	}

	used := make(map[string]bool)
	var missing []string
	path := paramPattern.ReplaceAllStringFunc(pattern, func(m string) string {
		key := paramPattern.FindStringSubmatch(m)[1]
		v, ok := params[key]
		if !ok || v == "" {
			missing = append(missing, key)
			return m
		}
		used[key] = true
		return url.PathEscape(v)
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("route.Registry.Generate: %w: route %q needs %s",
			domain.ErrConfiguration, name, strings.Join(missing, ", "))
	}
	// chi allows a trailing wildcard; it never belongs in a generated URL.
	path = strings.TrimSuffix(path, "/*")

	extra := url.Values{}
	for k, v := range params {
		if !used[k] {
			extra.Set(k, v)
		}
	}
	if len(extra) > 0 {
		path += "?" + extra.Encode()
	}
	return path, nil
}

// Current returns the name and URL parameters of the route that matched r.
// ok is false outside a chi router or for unnamed routes.
func (reg *Registry) Current(r *http.Request) (name string, params map[string]string, ok bool) {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "", nil, false
	}
	name, ok = reg.names[rctx.RoutePattern()]
	if !ok {
		return "", nil, false
	}

	params = make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		if key == "*" {
			continue
		}
		params[key] = rctx.URLParams.Values[i]
	}
	return name, params, true
}

// Names returns every registered route name, sorted.
func (reg *Registry) Names() []string {
	names := make([]string, 0, len(reg.patterns))
	for n := range reg.patterns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
