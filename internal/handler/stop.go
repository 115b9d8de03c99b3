package handler

import (
	"net/http"

	"github.com/pkordes/formflow/internal/domain"
)

// NewStop handles GET and POST /trips/{tripId}/stops/new. The parent trip
// must exist.
func (s *Server) NewStop(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(r, "tripId")
	if !ok {
		s.notFound(w, "trip not found")
		return
	}
	trip, err := s.trips.Get(r.Context(), tripID)
	if err != nil {
		s.fail(w, r, err, "trip not found")
		return
	}

	stop := &domain.Stop{TripID: trip.ID}
	s.serveForm(w, r, formPage{
		name:     "stop",
		entity:   stop,
		label:    "app.entity.stop",
		unit:     s.units(),
		redirect: s.tripShowURL(trip),
	})
}

// EditStop handles GET and PUT /trips/{tripId}/stops/{id}/edit. A stop is
// only found through the trip that owns it.
func (s *Server) EditStop(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(r, "tripId")
	if !ok {
		s.notFound(w, "stop not found")
		return
	}
	stopID, ok := pathUUID(r, "id")
	if !ok {
		s.notFound(w, "stop not found")
		return
	}

	unit := s.units()
	stop, err := unit.FindStop(r.Context(), tripID, stopID)
	if err != nil {
		s.fail(w, r, err, "stop not found")
		return
	}

	s.serveForm(w, r, formPage{
		name:     "stop",
		entity:   stop,
		label:    "app.entity.stop",
		unit:     unit,
		redirect: s.tripShowURL(&domain.Trip{ID: stop.TripID}),
	})
}
