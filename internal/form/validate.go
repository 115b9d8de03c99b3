package form

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// The validator caches struct metadata, so one instance serves every form.
var structValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report namespaces with form names so they can be walked down the tree.
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _ := parseTag(sf.Tag.Get("form"))
		if name == "-" {
			return ""
		}
		return name
	})
	return v
})

var indexSuffix = regexp.MustCompile(`\[[^\]]*\]$`)

// validate runs struct validation on the bound entity and attaches each
// violation to the node owning the field. Nodes whose input already failed to
// convert are skipped so the user sees one message per problem.
func (f *Form) validate() {
	err := structValidator().Struct(f.data)
	if err == nil {
		return
	}

	var violations validator.ValidationErrors
	if !errors.As(err, &violations) {
		f.AddError(f.config.Translate("validation.default", map[string]string{"%field%": f.label}))
		return
	}

	for _, fe := range violations {
		node := f.nodeFor(fe.Namespace())
		if node.bindFailed {
			continue
		}
		node.AddError(node.message(fe))
	}
}

// nodeFor walks the dotted validator namespace ("Stop.location.city") down
// the tree and returns the deepest matching node. Fields that are not part of
// the form report on the root.
func (f *Form) nodeFor(namespace string) *Form {
	segments := strings.Split(namespace, ".")
	node := f
	for _, seg := range segments[1:] {
		seg = indexSuffix.ReplaceAllString(seg, "")
		child, ok := node.Child(seg)
		if !ok {
			break
		}
		node = child
	}
	return node
}

func (f *Form) message(fe validator.FieldError) string {
	translate := f.Config().Translate

	param := fe.Param()
	if f.parent != nil {
		// Cross-field rules name a Go field; show the sibling's label instead.
		if sibling, ok := f.parent.childByField(param); ok {
			param = sibling.label
		}
	}

	params := map[string]string{
		"%field%": f.label,
		"%param%": param,
		"%value%": fmt.Sprint(fe.Value()),
	}

	id := "validation." + fe.Tag()
	if msg := translate(id, params); msg != id {
		return msg
	}
	return translate("validation.default", params)
}
