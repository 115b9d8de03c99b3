package form

// View is a render-ready snapshot of a form node.
type View struct {
	Name     string   `json:"name"`
	FullName string   `json:"full_name"`
	Label    string   `json:"label,omitempty"`
	Action   string   `json:"action,omitempty"`
	Method   string   `json:"method,omitempty"`
	Mode     Mode     `json:"mode,omitempty"`
	State    string   `json:"state,omitempty"`
	Value    string   `json:"value,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Fields   []View   `json:"fields,omitempty"`
}

// View snapshots f. Leaves show the submitted text when there was one, so a
// redisplayed form keeps what the user typed even if it failed to convert.
func (f *Form) View() View {
	v := View{
		Name:     f.name,
		FullName: f.FullName(),
		Label:    f.label,
		Errors:   f.errors,
	}
	if f.parent == nil {
		v.Action = f.config.Action
		v.Method = f.config.Method
		v.Mode = f.config.Mode
		v.State = f.State().String()
	}

	if f.compound {
		for _, c := range f.children {
			v.Fields = append(v.Fields, c.View())
		}
		return v
	}

	if f.raw != nil {
		v.Value = *f.raw
	} else {
		v.Value = format(f.value, f.opts)
	}
	return v
}
