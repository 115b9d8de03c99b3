// Package handler implements the HTTP surface of formflow: JSON views over
// the trip and stop admin forms, wired through named chi routes.
// Handlers are methods on Server and live in per-resource files.
package handler

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/formflow/internal/controller"
	"github.com/pkordes/formflow/internal/domain"
	"github.com/pkordes/formflow/internal/i18n"
	"github.com/pkordes/formflow/internal/route"
)

// Unit is the per-request unit of work a form writes through. *repo.Manager
// satisfies it.
type Unit interface {
	controller.EntityManager
	FindTrip(ctx context.Context, id uuid.UUID) (*domain.Trip, error)
	FindStop(ctx context.Context, tripID, stopID uuid.UUID) (*domain.Stop, error)
}

// TripReader is the read side for trips. *repo.TripRepo satisfies it.
type TripReader interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Trip, error)
	ListPaged(ctx context.Context, p domain.PaginationParams) (domain.Page[domain.Trip], error)
}

// StopReader is the read side for stops. *repo.StopRepo satisfies it.
type StopReader interface {
	ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Stop, error)
}

// Deps are the collaborators of a Server. Units must return a fresh unit of
// work on every call.
type Deps struct {
	Units   func() Unit
	Trips   TripReader
	Stops   StopReader
	Catalog *i18n.Catalog
	Routes  *route.Registry
	Log     *slog.Logger
}

// Server serves the admin routes.
type Server struct {
	units   func() Unit
	trips   TripReader
	stops   StopReader
	catalog *i18n.Catalog
	routes  *route.Registry
	log     *slog.Logger
}

// NewServer constructs the Server. A nil Catalog uses i18n.Default, a nil
// Routes a fresh registry, and a nil Log discards output.
func NewServer(d Deps) *Server {
	s := &Server{
		units:   d.Units,
		trips:   d.Trips,
		stops:   d.Stops,
		catalog: d.Catalog,
		routes:  d.Routes,
		log:     d.Log,
	}
	if s.catalog == nil {
		s.catalog = i18n.Default()
	}
	if s.routes == nil {
		s.routes = route.NewRegistry()
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	return s
}

// Routes returns the registry holding the route names Mount registered.
func (s *Server) Routes() *route.Registry { return s.routes }

// Mount registers every named route on r.
func (s *Server) Mount(r chi.Router) {
	r.Get(s.routes.Add("health", "/healthz"), s.Health)

	r.Get(s.routes.Add("trip_index", "/trips"), s.ListTrips)
	r.Get(s.routes.Add("trip_new", "/trips/new"), s.NewTrip)
	r.Post(s.routes.Add("trip_new", "/trips/new"), s.NewTrip)
	r.Get(s.routes.Add("trip_show", "/trips/{id}"), s.ShowTrip)
	r.Get(s.routes.Add("trip_edit", "/trips/{id}/edit"), s.EditTrip)
	r.Put(s.routes.Add("trip_edit", "/trips/{id}/edit"), s.EditTrip)

	r.Get(s.routes.Add("stop_new", "/trips/{tripId}/stops/new"), s.NewStop)
	r.Post(s.routes.Add("stop_new", "/trips/{tripId}/stops/new"), s.NewStop)
	r.Get(s.routes.Add("stop_edit", "/trips/{tripId}/stops/{id}/edit"), s.EditStop)
	r.Put(s.routes.Add("stop_edit", "/trips/{tripId}/stops/{id}/edit"), s.EditStop)
}
