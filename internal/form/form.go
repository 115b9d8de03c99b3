// Package form binds HTTP submissions to entity structs.
//
// A Form is built from a pointer to a struct. Exported fields tagged
// `form:"name[,date][,sanitize]"` become child nodes in declaration order;
// struct-typed fields (other than time.Time) become nested sub-forms.
// Submitted keys use bracket naming, so the city of a stop's location is
// posted as "stop[location][city]".
//
// After submission the bound struct is validated with go-playground/validator
// using its `validate` tags, and every violation is attached to the node that
// owns the offending field. CollectErrors turns the result into an ErrorTree.
package form

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/pkordes/formflow/internal/domain"
	"github.com/pkordes/formflow/internal/i18n"
)

// Mode tells whether a form creates a new entity or updates a stored one.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

// State is the submission state of a form after HandleRequest or Submit.
type State int

const (
	NotSubmitted State = iota
	SubmittedInvalid
	SubmittedValid
)

func (s State) String() string {
	switch s {
	case SubmittedInvalid:
		return "submitted_invalid"
	case SubmittedValid:
		return "submitted_valid"
	default:
		return "not_submitted"
	}
}

// Config is the resolved configuration of a root form.
type Config struct {
	// Action is the URL the form submits to.
	Action string
	// Method is the HTTP method the form expects. Defaults to POST.
	Method string
	// Mode records whether the bound entity is new.
	Mode Mode
	// Translate produces validation messages. Defaults to the fallback
	// locale of i18n.Default().
	Translate i18n.TranslateFunc
}

// Form is one node of a form tree. The root node is bound to the entity and
// carries the Config; child nodes are bound to the entity's fields.
type Form struct {
	name     string
	label    string
	field    string
	parent   *Form
	children []*Form

	value    reflect.Value
	compound bool
	opts     fieldOptions

	// root only
	config Config
	data   any

	errors     []string
	readErr    error
	raw        *string
	bindFailed bool
	submitted  bool
}

// New builds a form named name over data, which must be a non-nil pointer to
// a struct. Nil pointer sub-forms are allocated so they can receive input.
func New(name string, data any, cfg Config) (*Form, error) {
	v := reflect.ValueOf(data)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("form.New: %w: data must be a non-nil pointer to a struct, got %T", domain.ErrConfiguration, data)
	}

	cfg.Method = strings.ToUpper(strings.TrimSpace(cfg.Method))
	if cfg.Method == "" {
		cfg.Method = http.MethodPost
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeCreate
	}
	if cfg.Translate == nil {
		c := i18n.Default()
		cfg.Translate = c.Translator(c.Fallback())
	}

	root := &Form{
		name:     name,
		label:    labelFor(name, ""),
		value:    v.Elem(),
		compound: true,
		config:   cfg,
		data:     data,
	}
	buildChildren(root, v.Elem())
	return root, nil
}

// Name returns the node name, e.g. "location".
func (f *Form) Name() string { return f.name }

// Label returns the human readable node label.
func (f *Form) Label() string { return f.label }

// FullName returns the submitted key of the node, e.g. "stop[location][city]".
func (f *Form) FullName() string {
	if f.parent == nil {
		return f.name
	}
	prefix := f.parent.FullName()
	if prefix == "" {
		return f.name
	}
	return prefix + "[" + f.name + "]"
}

// Root returns the top of the tree.
func (f *Form) Root() *Form {
	for f.parent != nil {
		f = f.parent
	}
	return f
}

// IsRoot reports whether f is the root node.
func (f *Form) IsRoot() bool { return f.parent == nil }

// IsCompound reports whether f has children of its own.
func (f *Form) IsCompound() bool { return f.compound }

// Config returns the configuration of the tree f belongs to.
func (f *Form) Config() Config { return f.Root().config }

// Data returns the entity pointer bound to the root form.
func (f *Form) Data() any { return f.Root().data }

// Children returns the direct children in declaration order.
func (f *Form) Children() []*Form { return f.children }

// Child returns the direct child called name.
func (f *Form) Child(name string) (*Form, bool) {
	for _, c := range f.children {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// Errors returns the node's own messages in the order they were added.
func (f *Form) Errors() []string { return f.errors }

// AddError attaches a message to this node. Adding errors to a submitted form
// makes it invalid.
func (f *Form) AddError(message string) {
	f.errors = append(f.errors, message)
}

// IsSubmitted reports whether request data for this form was received.
func (f *Form) IsSubmitted() bool { return f.Root().submitted }

// IsValid reports whether the form was submitted and no node carries an error.
func (f *Form) IsValid() bool {
	return f.IsSubmitted() && !f.hasErrors()
}

// State folds IsSubmitted and IsValid into one value.
func (f *Form) State() State {
	switch {
	case !f.IsSubmitted():
		return NotSubmitted
	case f.IsValid():
		return SubmittedValid
	default:
		return SubmittedInvalid
	}
}

// Err reports why the form cannot be saved. It wraps *http.MaxBytesError
// when the request body exceeded the server limit and domain.ErrValidation
// when the submission was invalid; otherwise it is nil.
func (f *Form) Err() error {
	root := f.Root()
	switch {
	case root.readErr != nil:
		return root.readErr
	case f.State() == SubmittedInvalid:
		return fmt.Errorf("form %q: %w", root.name, domain.ErrValidation)
	}
	return nil
}

func (f *Form) hasErrors() bool {
	if len(f.errors) > 0 {
		return true
	}
	for _, c := range f.children {
		if c.hasErrors() {
			return true
		}
	}
	return false
}

// HandleRequest feeds r into the form. Nothing happens when the request
// method differs from the form method or when r carries no data under the
// form name; the form then stays unsubmitted. A body that cannot be parsed
// marks the form submitted with a form-level error. A body over the server
// limit leaves the form unsubmitted and is reported by Err.
func (f *Form) HandleRequest(r *http.Request) {
	root := f.Root()
	cfg := root.config

	if !strings.EqualFold(r.Method, cfg.Method) {
		return
	}

	var values url.Values
	if cfg.Method == http.MethodGet {
		values = r.URL.Query()
	} else {
		if err := parseBody(r); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				root.readErr = fmt.Errorf("form %q: %w", root.name, err)
				return
			}
			root.submitted = true
			root.AddError(cfg.Translate("form.malformed", nil))
			return
		}
		values = r.PostForm
	}

	if !hasData(root.name, values) {
		return
	}
	root.Submit(values)
}

// Submit binds values to the entity and validates it. Keys missing from
// values clear the bound field, except for PATCH forms which leave them as is.
func (f *Form) Submit(values url.Values) {
	root := f.Root()
	clearMissing := root.config.Method != http.MethodPatch
	root.submitNode(values, clearMissing)
	root.validate()
}

func (f *Form) submitNode(values url.Values, clearMissing bool) {
	f.submitted = true
	if f.compound {
		for _, c := range f.children {
			c.submitNode(values, clearMissing)
		}
		return
	}

	submitted, present := values[f.FullName()]
	if !present && !clearMissing {
		return
	}
	raw := ""
	if len(submitted) > 0 {
		raw = strings.TrimSpace(submitted[0])
	}
	if f.opts.sanitize {
		raw = sanitize(raw)
	}
	f.raw = &raw

	if err := assign(f.value, raw); err != nil {
		f.bindFailed = true
		f.AddError(f.Config().Translate("form.invalid_value", map[string]string{"%value%": raw}))
	}
}

func parseBody(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(32 << 20)
	}
	return r.ParseForm()
}

// hasData reports whether values holds anything addressed to a form named name.
// An unnamed form accepts any non-empty payload.
func hasData(name string, values url.Values) bool {
	if name == "" {
		return len(values) > 0
	}
	for key := range values {
		if key == name || strings.HasPrefix(key, name+"[") {
			return true
		}
	}
	return false
}
