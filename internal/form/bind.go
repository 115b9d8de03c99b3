package form

import (
	"fmt"
	"html"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oapi-codegen/runtime"
)

// Accepted layouts for time fields, most specific first. The second one is
// what browsers send for datetime-local inputs.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

var strictPolicy = bluemonday.StrictPolicy()

// maxSanitizePasses bounds the unescape rounds for nested entity encodings.
const maxSanitizePasses = 4

// sanitize strips every HTML element from s and returns plain text. Entity
// encoded markup is decoded and stripped again until the text is stable, so
// "&lt;script&gt;" cannot come back as a live tag. Input still changing after
// maxSanitizePasses is returned in its escaped form.
func sanitize(s string) string {
	for range maxSanitizePasses {
		clean := strictPolicy.Sanitize(s)
		plain := html.UnescapeString(clean)
		if plain == s {
			return strings.TrimSpace(plain)
		}
		s = plain
	}
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}

// assign converts raw into v's type and stores it. An empty raw value resets
// v to its zero value, which turns pointers back into nil.
func assign(v reflect.Value, raw string) error {
	if raw == "" {
		v.Set(reflect.Zero(v.Type()))
		return nil
	}

	if v.Kind() == reflect.Pointer {
		ptr := reflect.New(v.Type().Elem())
		if err := assign(ptr.Elem(), raw); err != nil {
			return err
		}
		v.Set(ptr)
		return nil
	}

	switch {
	case v.Type() == timeType:
		t, err := parseTime(raw)
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(t))
		return nil
	case v.Kind() == reflect.Bool:
		b, err := parseBool(raw)
		if err != nil {
			return err
		}
		v.SetBool(b)
		return nil
	}

	return runtime.BindStringToObject(raw, v.Addr().Interface())
}

func parseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("form: cannot parse %q as a time", raw)
}

// parseBool accepts what checkboxes and select inputs send.
func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "1", "on", "yes", "true":
		return true, nil
	case "0", "off", "no", "false":
		return false, nil
	}
	return false, fmt.Errorf("form: cannot parse %q as a boolean", raw)
}

// format renders the current value of v the way it would be submitted.
func format(v reflect.Value, opts fieldOptions) string {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch {
	case v.Type() == timeType:
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return ""
		}
		if opts.date {
			return t.Format(time.DateOnly)
		}
		return t.Format(time.RFC3339)
	case v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, v.Type().Bits())
	case v.Kind() == reflect.String:
		return v.String()
	}
	return fmt.Sprint(v.Interface())
}
