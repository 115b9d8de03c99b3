// Package i18n loads translation catalogs and resolves the locale of a request.
// Message ids are dotted paths into YAML files named messages.<lang>.yaml;
// parameters use the %name% placeholder convention.
package i18n

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed translations/*.yaml
var embedded embed.FS

// TranslateFunc resolves a message id to text, substituting params.
// Keys of params are the literal placeholders, e.g. "%name%".
type TranslateFunc func(id string, params map[string]string) string

// Catalog holds the messages of every loaded locale.
// It is read-only after Load and safe for concurrent use.
type Catalog struct {
	fallback language.Tag
	tags     []language.Tag
	matcher  language.Matcher
	messages map[language.Tag]map[string]string
}

// Load reads every messages.<lang>.yaml file at the root of fsys.
// fallback must name one of the loaded locales; it is used when a request
// expresses no usable preference and when a message is missing.
func Load(fsys fs.FS, fallback string) (*Catalog, error) {
	fb, err := language.Parse(fallback)
	if err != nil {
		return nil, fmt.Errorf("i18n.Load: fallback locale %q: %w", fallback, err)
	}

	files, err := fs.Glob(fsys, "messages.*.yaml")
	if err != nil {
		return nil, fmt.Errorf("i18n.Load: %w", err)
	}

	c := &Catalog{fallback: fb, messages: make(map[language.Tag]map[string]string)}
	for _, name := range files {
		locale := strings.TrimSuffix(strings.TrimPrefix(path.Base(name), "messages."), ".yaml")
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("i18n.Load: %s: %w", name, err)
		}
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("i18n.Load: %s: %w", name, err)
		}
		var tree map[string]any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("i18n.Load: %s: %w", name, err)
		}
		msgs := make(map[string]string)
		flatten("", tree, msgs)
		c.messages[tag] = msgs
	}

	if _, ok := c.messages[fb]; !ok {
		return nil, fmt.Errorf("i18n.Load: no messages for fallback locale %q", fallback)
	}

	// The matcher answers with the first tag when nothing matches, so the
	// fallback goes first and the rest follow in a stable order.
	c.tags = append(c.tags, fb)
	var rest []language.Tag
	for tag := range c.messages {
		if tag != fb {
			rest = append(rest, tag)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].String() < rest[j].String() })
	c.tags = append(c.tags, rest...)
	c.matcher = language.NewMatcher(c.tags)

	return c, nil
}

// Embedded returns the translation files shipped with the binary, ready for
// Load.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "translations")
	if err != nil {
		panic(err)
	}
	return sub
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Load(Embedded(), "en")
	if err != nil {
		panic(err)
	}
	return c
})

// Default returns the catalog built from the translations shipped with the binary.
func Default() *Catalog {
	return defaultCatalog()
}

// Fallback returns the locale used when nothing better matches.
func (c *Catalog) Fallback() language.Tag {
	return c.fallback
}

// Locales returns the loaded locales, fallback first.
func (c *Catalog) Locales() []language.Tag {
	return append([]language.Tag(nil), c.tags...)
}

// Match picks the best loaded locale for an Accept-Language header value.
func (c *Catalog) Match(acceptLanguage string) language.Tag {
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return c.fallback
	}
	_, idx, conf := c.matcher.Match(prefs...)
	if conf == language.No {
		return c.fallback
	}
	return c.tags[idx]
}

// Translate resolves id for the given locale. Lookup order is the exact locale,
// its base language, then the fallback. An unknown id is returned unchanged
// (after parameter substitution) so a missing translation stays visible.
func (c *Catalog) Translate(tag language.Tag, id string, params map[string]string) string {
	msg, ok := c.lookup(tag, id)
	if !ok {
		msg = id
	}
	return substitute(msg, params)
}

// Has reports whether id exists for the locale or its fallbacks.
func (c *Catalog) Has(tag language.Tag, id string) bool {
	_, ok := c.lookup(tag, id)
	return ok
}

// Translator binds the catalog to one locale.
func (c *Catalog) Translator(tag language.Tag) TranslateFunc {
	return func(id string, params map[string]string) string {
		return c.Translate(tag, id, params)
	}
}

func (c *Catalog) lookup(tag language.Tag, id string) (string, bool) {
	if msgs, ok := c.messages[tag]; ok {
		if msg, ok := msgs[id]; ok {
			return msg, true
		}
	}
	if base, conf := tag.Base(); conf != language.No {
		if msgs, ok := c.messages[language.Make(base.String())]; ok {
			if msg, ok := msgs[id]; ok {
				return msg, true
			}
		}
	}
	msg, ok := c.messages[c.fallback][id]
	return msg, ok
}

// flatten turns nested YAML mappings into dotted keys.
func flatten(prefix string, node map[string]any, out map[string]string) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(full, v, out)
		case nil:
			out[full] = ""
		default:
			out[full] = fmt.Sprint(v)
		}
	}
}

func substitute(msg string, params map[string]string) string {
	if len(params) == 0 {
		return msg
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	// Longest placeholders first so %name% never shadows %name_long%.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, params[k])
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

type localeKey struct{}

// WithLocale returns a copy of ctx carrying tag.
func WithLocale(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, localeKey{}, tag)
}

// LocaleFromContext returns the locale stored by Middleware, if any.
func LocaleFromContext(ctx context.Context) (language.Tag, bool) {
	tag, ok := ctx.Value(localeKey{}).(language.Tag)
	return tag, ok
}

// Middleware negotiates the request locale from Accept-Language and stores it
// in the request context. It also sets Content-Language on the response.
func Middleware(c *Catalog) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag := c.Match(r.Header.Get("Accept-Language"))
			w.Header().Set("Content-Language", tag.String())
			next.ServeHTTP(w, r.WithContext(WithLocale(r.Context(), tag)))
		})
	}
}

// ForRequest returns a translator for the locale negotiated on r, or for the
// fallback locale when Middleware did not run.
func (c *Catalog) ForRequest(r *http.Request) TranslateFunc {
	tag, ok := LocaleFromContext(r.Context())
	if !ok {
		tag = c.fallback
	}
	return c.Translator(tag)
}
