package form

import (
	"bytes"

	"github.com/goccy/go-json"
)

// ErrorTree holds the validation messages of a form node and, under their
// names, the trees of those children that have at least one error.
type ErrorTree struct {
	Messages []string
	Children []NamedErrors
}

// NamedErrors is one entry of ErrorTree.Children.
type NamedErrors struct {
	Name   string
	Errors ErrorTree
}

// CollectErrors walks f depth-first. Messages keep the order in which they
// were added; children keep declaration order and appear only when non-empty.
func CollectErrors(f *Form) ErrorTree {
	var tree ErrorTree
	if len(f.errors) > 0 {
		tree.Messages = append([]string(nil), f.errors...)
	}
	for _, c := range f.children {
		if sub := CollectErrors(c); !sub.IsEmpty() {
			tree.Children = append(tree.Children, NamedErrors{Name: c.name, Errors: sub})
		}
	}
	return tree
}

// IsEmpty reports whether the tree holds no message at any depth.
func (t ErrorTree) IsEmpty() bool {
	return len(t.Messages) == 0 && len(t.Children) == 0
}

// Child returns the subtree recorded under name.
func (t ErrorTree) Child(name string) (ErrorTree, bool) {
	for _, c := range t.Children {
		if c.Name == name {
			return c.Errors, true
		}
	}
	return ErrorTree{}, false
}

// Count returns the number of messages at every depth.
func (t ErrorTree) Count() int {
	n := len(t.Messages)
	for _, c := range t.Children {
		n += c.Errors.Count()
	}
	return n
}

// Flatten maps dotted paths ("location.city") to messages. Messages of the
// node itself are keyed by "".
func (t ErrorTree) Flatten() map[string][]string {
	out := make(map[string][]string)
	t.flatten("", out)
	return out
}

func (t ErrorTree) flatten(prefix string, out map[string][]string) {
	if len(t.Messages) > 0 {
		out[prefix] = append(out[prefix], t.Messages...)
	}
	for _, c := range t.Children {
		path := c.Name
		if prefix != "" {
			path = prefix + "." + c.Name
		}
		c.Errors.flatten(path, out)
	}
}

// Map returns the tree as plain values: a node without children becomes its
// message list, any other node a map whose "" key holds its own messages.
func (t ErrorTree) Map() map[string]any {
	out := make(map[string]any, len(t.Children)+1)
	if len(t.Messages) > 0 {
		out[""] = t.Messages
	}
	for _, c := range t.Children {
		if len(c.Errors.Children) == 0 {
			out[c.Name] = c.Errors.Messages
			continue
		}
		out[c.Name] = c.Errors.Map()
	}
	return out
}

// MarshalJSON encodes the shape described by Map while keeping child order.
func (t ErrorTree) MarshalJSON() ([]byte, error) {
	if len(t.Children) == 0 {
		if t.Messages == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(t.Messages)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	if len(t.Messages) > 0 {
		msgs, err := json.Marshal(t.Messages)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`"":`)
		buf.Write(msgs)
		buf.WriteByte(',')
	}
	for i, c := range t.Children {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		sub, err := c.Errors.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(sub)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
