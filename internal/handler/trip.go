package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/formflow/internal/domain"
	"github.com/pkordes/formflow/internal/flash"
)

// TripListResponse is the body of GET /trips.
type TripListResponse struct {
	Data       []domain.Trip   `json:"data"`
	Pagination Pagination      `json:"pagination"`
	Flashes    []flash.Message `json:"flashes"`
}

// Pagination describes the page returned in a list response.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// TripResponse is the body of GET /trips/{id}.
type TripResponse struct {
	Trip    *domain.Trip    `json:"trip"`
	Stops   []domain.Stop   `json:"stops"`
	Flashes []flash.Message `json:"flashes"`
}

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= (defaults: page=1, limit=20, max=100).
// Unparseable values fall back to the defaults.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := domain.NewPaginationParams(queryInt(q.Get("page")), queryInt(q.Get("limit")))

	page, err := s.trips.ListPaged(r.Context(), params)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	writeJSON(w, http.StatusOK, TripListResponse{
		Data: page.Items,
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: page.Total,
			Pages: page.Pages(),
		},
		Flashes: s.drainFlashes(r),
	})
}

// ShowTrip handles GET /trips/{id}: the trip, its stops and pending flashes.
func (s *Server) ShowTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		s.notFound(w, "trip not found")
		return
	}

	trip, err := s.trips.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "trip not found")
		return
	}
	stops, err := s.stops.ListByTripID(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	writeJSON(w, http.StatusOK, TripResponse{Trip: trip, Stops: stops, Flashes: s.drainFlashes(r)})
}

// NewTrip handles GET and POST /trips/new.
func (s *Server) NewTrip(w http.ResponseWriter, r *http.Request) {
	trip := &domain.Trip{}
	s.serveForm(w, r, formPage{
		name:     "trip",
		entity:   trip,
		label:    "app.entity.trip",
		unit:     s.units(),
		redirect: s.tripShowURL(trip),
	})
}

// EditTrip handles GET and PUT /trips/{id}/edit.
func (s *Server) EditTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		s.notFound(w, "trip not found")
		return
	}

	unit := s.units()
	trip, err := unit.FindTrip(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "trip not found")
		return
	}

	s.serveForm(w, r, formPage{
		name:     "trip",
		entity:   trip,
		label:    "app.entity.trip",
		unit:     unit,
		redirect: s.tripShowURL(trip),
	})
}

// tripShowURL defers URL generation until the trip has its stored id.
func (s *Server) tripShowURL(trip *domain.Trip) func() (string, error) {
	return func() (string, error) {
		return s.routes.Generate("trip_show", map[string]string{"id": trip.ID.String()})
	}
}

// pathUUID parses the URL parameter key as a UUID.
func pathUUID(r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	return id, err == nil
}

// queryInt returns nil for empty or non-numeric input.
func queryInt(raw string) *int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}
