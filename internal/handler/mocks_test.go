package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/formflow/internal/domain"
	"github.com/pkordes/formflow/internal/flash"
	"github.com/pkordes/formflow/internal/handler"
	"github.com/pkordes/formflow/internal/i18n"
	"github.com/pkordes/formflow/internal/middleware"
)

// mockUnit is a test double for handler.Unit. It tracks entities the way
// repo.Manager does; set only the func fields a test needs. A nil commit
// assigns fresh ids to registered trips and stops.
type mockUnit struct {
	findTrip func(ctx context.Context, id uuid.UUID) (*domain.Trip, error)
	findStop func(ctx context.Context, tripID, stopID uuid.UUID) (*domain.Stop, error)
	commit   func(ctx context.Context) error

	tracked    map[domain.Entity]bool
	registered []domain.Entity
	commits    int
}

func (m *mockUnit) Contains(e domain.Entity) bool { return m.tracked[e] }

func (m *mockUnit) Register(e domain.Entity) {
	m.track(e)
	m.registered = append(m.registered, e)
}

func (m *mockUnit) track(e domain.Entity) {
	if m.tracked == nil {
		m.tracked = map[domain.Entity]bool{}
	}
	m.tracked[e] = true
}

func (m *mockUnit) Commit(ctx context.Context) error {
	m.commits++
	if m.commit != nil {
		return m.commit(ctx)
	}
	for _, e := range m.registered {
		switch v := e.(type) {
		case *domain.Trip:
			v.ID = uuid.New()
		case *domain.Stop:
			v.ID = uuid.New()
		}
	}
	return nil
}

func (m *mockUnit) FindTrip(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	t, err := m.findTrip(ctx, id)
	if err == nil {
		m.track(t)
	}
	return t, err
}

func (m *mockUnit) FindStop(ctx context.Context, tripID, stopID uuid.UUID) (*domain.Stop, error) {
	s, err := m.findStop(ctx, tripID, stopID)
	if err == nil {
		m.track(s)
	}
	return s, err
}

var _ handler.Unit = (*mockUnit)(nil)

// mockTrips is a test double for handler.TripReader.
type mockTrips struct {
	get       func(ctx context.Context, id uuid.UUID) (*domain.Trip, error)
	listPaged func(ctx context.Context, p domain.PaginationParams) (domain.Page[domain.Trip], error)
}

func (m *mockTrips) Get(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	return m.get(ctx, id)
}

func (m *mockTrips) ListPaged(ctx context.Context, p domain.PaginationParams) (domain.Page[domain.Trip], error) {
	return m.listPaged(ctx, p)
}

var _ handler.TripReader = (*mockTrips)(nil)

// mockStops is a test double for handler.StopReader.
type mockStops struct {
	listByTripID func(ctx context.Context, tripID uuid.UUID) ([]domain.Stop, error)
}

func (m *mockStops) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Stop, error) {
	return m.listByTripID(ctx, tripID)
}

var _ handler.StopReader = (*mockStops)(nil)

// newTestApp wires a Server the way cmd/api does, minus logging and CORS,
// with flashes kept in memory. Every request gets the same unit.
func newTestApp(t *testing.T, unit *mockUnit, trips *mockTrips, stops *mockStops) http.Handler {
	t.Helper()
	srv := handler.NewServer(handler.Deps{
		Units: func() handler.Unit { return unit },
		Trips: trips,
		Stops: stops,
	})

	r := chi.NewRouter()
	r.Use(middleware.NewMaxBodySizeHandler(1 << 20))
	r.Use(middleware.MethodOverride)
	r.Use(i18n.Middleware(i18n.Default()))
	r.Use(flash.Middleware(flash.NewMemoryStore(0), flash.CookieOptions{}, nil))
	srv.Mount(r)
	return r
}
