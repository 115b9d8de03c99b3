package handler

import (
	"errors"
	"net/http"

	"github.com/pkordes/formflow/internal/controller"
	"github.com/pkordes/formflow/internal/domain"
	"github.com/pkordes/formflow/internal/flash"
	"github.com/pkordes/formflow/internal/form"
)

// FormResponse is the JSON view of a form page.
type FormResponse struct {
	Form    form.View       `json:"form"`
	Errors  form.ErrorTree  `json:"errors"`
	Flashes []flash.Message `json:"flashes"`
}

// formPage describes one entity form endpoint.
type formPage struct {
	name     string        // form name, prefix of every submitted key
	entity   domain.Entity // bound and persisted on success
	label    string        // translation id of the entity's display name
	unit     Unit
	redirect func() (string, error) // target after a successful save
}

// serveForm runs the form workflow for p. A valid submission is persisted and
// answered with 303 See Other; otherwise the form view is rendered with 200,
// or 422 when the submission was invalid. A body over the size limit is 413.
func (s *Server) serveForm(w http.ResponseWriter, r *http.Request, p formPage) {
	ctx := r.Context()
	translate := s.catalog.ForRequest(r)
	helper := controller.New(s.routes, p.unit, flash.FromContext(ctx), translate, s.log)

	f, err := helper.GetForm(r, p.name, p.entity, controller.Options{})
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	var tooLarge *http.MaxBytesError
	if errors.As(f.Err(), &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: ErrorDetail{
			Code:    "body_too_large",
			Message: http.StatusText(http.StatusRequestEntityTooLarge),
		}})
		return
	}

	saved, err := helper.ProcessForm(ctx, f, p.entity, translate(p.label, nil))
	if err != nil {
		s.fail(w, r, err, p.name+" not found")
		return
	}
	if saved {
		target, err := p.redirect()
		if err != nil {
			s.fail(w, r, err, "")
			return
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	status := http.StatusOK
	if errors.Is(f.Err(), domain.ErrValidation) {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, FormResponse{
		Form:    f.View(),
		Errors:  helper.FormErrors(f),
		Flashes: s.drainFlashes(r),
	})
}
