package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/formflow/internal/domain"
)

// Beginner starts transactions. *pgxpool.Pool satisfies it together with
// Querier.
type Beginner interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Mapper writes one entity type through q.
type Mapper interface {
	Insert(ctx context.Context, q Querier, e domain.Entity) error
	Update(ctx context.Context, q Querier, e domain.Entity) error
}

type entry struct {
	entity domain.Entity
	stored bool
}

// Manager is a request-scoped unit of work. Entities loaded through it or
// registered with it are tracked; Commit inserts the new ones and updates
// the loaded ones inside a single transaction, in tracking order.
//
// A Manager is not safe for concurrent use.
type Manager struct {
	pool    Beginner
	log     *slog.Logger
	mappers map[reflect.Type]Mapper
	entries []*entry
	index   map[domain.Entity]*entry
}

// NewManager returns a Manager with mappers for trips and stops.
func NewManager(pool Beginner, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	m := &Manager{
		pool:    pool,
		log:     log,
		mappers: map[reflect.Type]Mapper{},
		index:   map[domain.Entity]*entry{},
	}
	m.Map(&domain.Trip{}, tripMapper{})
	m.Map(&domain.Stop{}, stopMapper{})
	return m
}

// Map sets the mapper used for entities of the same dynamic type as sample.
func (m *Manager) Map(sample domain.Entity, mp Mapper) {
	m.mappers[reflect.TypeOf(sample)] = mp
}

// Contains reports whether e is tracked.
func (m *Manager) Contains(e domain.Entity) bool {
	_, ok := m.index[e]
	return ok
}

// Register schedules e for insertion. Registering a tracked entity is a no-op.
func (m *Manager) Register(e domain.Entity) {
	m.track(e, false)
}

// Track marks e as loaded from storage so Commit writes it back as an update.
func (m *Manager) Track(e domain.Entity) {
	m.track(e, true)
}

func (m *Manager) track(e domain.Entity, stored bool) {
	if m.Contains(e) {
		return
	}
	en := &entry{entity: e, stored: stored}
	m.entries = append(m.entries, en)
	m.index[e] = en
}

// FindTrip loads a trip and tracks it.
func (m *Manager) FindTrip(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	t, err := NewTripRepo(m.pool).Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("repo.Manager.FindTrip: %w", err)
	}
	m.Track(t)
	return t, nil
}

// FindStop loads a stop of the given trip and tracks it.
func (m *Manager) FindStop(ctx context.Context, tripID, stopID uuid.UUID) (*domain.Stop, error) {
	s, err := NewStopRepo(m.pool).Get(ctx, tripID, stopID)
	if err != nil {
		return nil, fmt.Errorf("repo.Manager.FindStop: %w", err)
	}
	m.Track(s)
	return s, nil
}

// Commit writes every tracked entity in one transaction. Any failure rolls
// the transaction back and is returned wrapped in domain.ErrPersistence;
// domain.ErrNotFound stays detectable with errors.Is.
func (m *Manager) Commit(ctx context.Context) (err error) {
	if len(m.entries) == 0 {
		return nil
	}
	for _, en := range m.entries {
		if _, ok := m.mappers[reflect.TypeOf(en.entity)]; !ok {
			return fmt.Errorf("repo.Manager.Commit: %w: no mapper for %T", domain.ErrConfiguration, en.entity)
		}
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.Manager.Commit: %w: begin: %w", domain.ErrPersistence, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				m.log.ErrorContext(ctx, "rollback failed", "error", rbErr)
			}
		}
	}()

	for _, en := range m.entries {
		mp := m.mappers[reflect.TypeOf(en.entity)]
		op := mp.Insert
		if en.stored {
			op = mp.Update
		}
		if err = op(ctx, tx, en.entity); err != nil {
			return fmt.Errorf("repo.Manager.Commit: %w: %w", domain.ErrPersistence, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.Manager.Commit: %w: commit: %w", domain.ErrPersistence, err)
	}
	for _, en := range m.entries {
		en.stored = true
	}
	return nil
}

type tripMapper struct{}

func (tripMapper) Insert(ctx context.Context, q Querier, e domain.Entity) error {
	return NewTripRepo(q).Insert(ctx, e.(*domain.Trip))
}

func (tripMapper) Update(ctx context.Context, q Querier, e domain.Entity) error {
	return NewTripRepo(q).Update(ctx, e.(*domain.Trip))
}

type stopMapper struct{}

func (stopMapper) Insert(ctx context.Context, q Querier, e domain.Entity) error {
	return NewStopRepo(q).Insert(ctx, e.(*domain.Stop))
}

func (stopMapper) Update(ctx context.Context, q Querier, e domain.Entity) error {
	return NewStopRepo(q).Update(ctx, e.(*domain.Stop))
}

// isForeignKeyViolation reports whether err is a Postgres foreign key error.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
