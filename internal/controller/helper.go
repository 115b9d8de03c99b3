// Package controller holds the request-scoped form workflow used by the HTTP
// handlers: build a form for an entity, process the submission into the unit
// of work and report the outcome as flash messages.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"net/url"

	"github.com/pkordes/formflow/internal/domain"
	"github.com/pkordes/formflow/internal/flash"
	"github.com/pkordes/formflow/internal/form"
	"github.com/pkordes/formflow/internal/i18n"
)

// Router generates URLs for named routes and reports which route served a
// request. *route.Registry satisfies it.
type Router interface {
	Generate(name string, params map[string]string) (string, error)
	Current(r *http.Request) (name string, params map[string]string, ok bool)
}

// EntityManager is the unit of work a processed form is written through.
// *repo.Manager satisfies it.
type EntityManager interface {
	Contains(e domain.Entity) bool
	Register(e domain.Entity)
	Commit(ctx context.Context) error
}

// Notifier receives user-facing messages. *flash.Bag satisfies it.
type Notifier interface {
	Add(ctx context.Context, severity flash.Severity, text string)
}

// Options tune GetForm and FormOptions.
type Options struct {
	// Action overrides the URL derived from the current route.
	Action string
}

// Helper is built once per request from that request's collaborators.
type Helper struct {
	routes    Router
	em        EntityManager
	notifier  Notifier
	translate i18n.TranslateFunc
	log       *slog.Logger
}

// New returns a Helper. A nil translate falls back to the default catalog; a
// nil log discards output.
func New(routes Router, em EntityManager, notifier Notifier, translate i18n.TranslateFunc, log *slog.Logger) *Helper {
	if translate == nil {
		c := i18n.Default()
		translate = c.Translator(c.Fallback())
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Helper{routes: routes, em: em, notifier: notifier, translate: translate, log: log}
}

// FormOptions resolves the action URL, HTTP method and mode for entity.
//
// Entities without an identity are created with POST; entities with one are
// updated with PUT. Unless opts.Action is set, the action is generated from
// the route that served r using that route's parameters, with "id" set to the
// entity identity in update mode only.
func (h *Helper) FormOptions(r *http.Request, entity domain.Entity, opts Options) (form.Config, error) {
	if entity == nil {
		return form.Config{}, fmt.Errorf("controller.Helper.FormOptions: %w: nil entity", domain.ErrConfiguration)
	}

	cfg := form.Config{Mode: form.ModeCreate, Method: http.MethodPost, Translate: h.translate}
	id, persisted := entity.Identity()
	if persisted {
		cfg.Mode = form.ModeUpdate
		cfg.Method = http.MethodPut
	}

	if opts.Action != "" {
		if _, err := url.Parse(opts.Action); err != nil {
			return form.Config{}, fmt.Errorf("controller.Helper.FormOptions: %w: action %q: %v", domain.ErrConfiguration, opts.Action, err)
		}
		cfg.Action = opts.Action
		return cfg, nil
	}

	name, current, ok := h.routes.Current(r)
	if !ok {
		return form.Config{}, fmt.Errorf("controller.Helper.FormOptions: %w: no current route and no action", domain.ErrConfiguration)
	}
	params := maps.Clone(current)
	if params == nil {
		params = map[string]string{}
	}
	delete(params, "id")
	if persisted {
		params["id"] = id
	}

	action, err := h.routes.Generate(name, params)
	if err != nil {
		return form.Config{}, fmt.Errorf("controller.Helper.FormOptions: %w", err)
	}
	cfg.Action = action
	return cfg, nil
}

// GetForm builds a form named name over entity and feeds r into it. Requests
// carrying no data for the form leave it unsubmitted.
func (h *Helper) GetForm(r *http.Request, name string, entity domain.Entity, opts Options) (*form.Form, error) {
	cfg, err := h.FormOptions(r, entity, opts)
	if err != nil {
		return nil, err
	}
	f, err := form.New(name, entity, cfg)
	if err != nil {
		return nil, fmt.Errorf("controller.Helper.GetForm: %w", err)
	}
	f.HandleRequest(r)
	return f, nil
}

// ProcessForm persists entity when f was submitted and is valid, and reports
// whether it did. Invalid submissions add one warning flash; unsubmitted
// forms have no effect. displayName is substituted for %name% in the
// created/updated message.
//
// Commit failures are returned wrapped in domain.ErrPersistence.
func (h *Helper) ProcessForm(ctx context.Context, f *form.Form, entity domain.Entity, displayName string) (bool, error) {
	switch f.State() {
	case form.NotSubmitted:
		return false, nil
	case form.SubmittedInvalid:
		h.AddFlashTrans(ctx, flash.Warning, "app.message.validation_errors_continue", nil)
		return false, nil
	}

	created := !h.em.Contains(entity)
	if created {
		h.em.Register(entity)
	}
	if err := h.em.Commit(ctx); err != nil {
		h.log.ErrorContext(ctx, "commit failed", "form", f.Name(), "error", err)
		if errors.Is(err, domain.ErrPersistence) {
			return false, fmt.Errorf("controller.Helper.ProcessForm: %w", err)
		}
		return false, fmt.Errorf("controller.Helper.ProcessForm: %w: %w", domain.ErrPersistence, err)
	}

	id := "app.message.entity_updated"
	if created {
		id = "app.message.entity_created"
	}
	h.AddFlashTrans(ctx, flash.Success, id, map[string]string{"%name%": displayName})
	return true, nil
}

// AddFlashTrans translates id with params and adds the result as a flash
// message of the given severity.
func (h *Helper) AddFlashTrans(ctx context.Context, severity flash.Severity, id string, params map[string]string) {
	if h.notifier == nil {
		return
	}
	h.notifier.Add(ctx, severity, h.translate(id, params))
}

// FormErrors returns the error tree of f.
func (h *Helper) FormErrors(f *form.Form) form.ErrorTree {
	return form.CollectErrors(f)
}
