package form

import (
	"reflect"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var timeType = reflect.TypeOf(time.Time{})

type fieldOptions struct {
	date     bool
	sanitize bool
}

// parseTag splits a form tag into the node name and its options.
func parseTag(tag string) (string, fieldOptions) {
	parts := strings.Split(tag, ",")
	var opts fieldOptions
	for _, p := range parts[1:] {
		switch strings.TrimSpace(p) {
		case "date":
			opts.date = true
		case "sanitize":
			opts.sanitize = true
		}
	}
	return strings.TrimSpace(parts[0]), opts
}

func buildChildren(parent *Form, v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, ok := sf.Tag.Lookup("form")
		if !ok || tag == "-" {
			continue
		}
		name, opts := parseTag(tag)
		if name == "" {
			name = sf.Name
		}

		child := &Form{
			name:   name,
			label:  labelFor(name, sf.Tag.Get("label")),
			field:  sf.Name,
			parent: parent,
			value:  v.Field(i),
			opts:   opts,
		}

		if fv, ok := compoundValue(child.value); ok {
			child.compound = true
			buildChildren(child, fv)
		}
		parent.children = append(parent.children, child)
	}
}

// compoundValue returns the struct behind v when v is a nested sub-form,
// allocating nil struct pointers.
func compoundValue(v reflect.Value) (reflect.Value, bool) {
	switch {
	case v.Kind() == reflect.Struct && v.Type() != timeType:
		return v, true
	case v.Kind() == reflect.Pointer && v.Type().Elem().Kind() == reflect.Struct && v.Type().Elem() != timeType:
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return v.Elem(), true
	default:
		return reflect.Value{}, false
	}
}

// labelFor returns explicit when set, otherwise a title-cased name with
// underscores turned into spaces.
func labelFor(name, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if name == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

// childByField finds a direct child by its Go struct field name.
func (f *Form) childByField(field string) (*Form, bool) {
	for _, c := range f.children {
		if c.field == field {
			return c, true
		}
	}
	return nil, false
}
