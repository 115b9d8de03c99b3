// Package repo contains all database access for formflow.
// Each entity has a mapper that writes it through a Querier, and Manager
// groups those writes into one transaction per request.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/formflow/internal/domain"
)

// Querier is the minimal interface satisfied by *pgxpool.Pool, *pgx.Conn and
// pgx.Tx. Integration tests pass a transaction that is rolled back after
// each test.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TripRepo reads and writes trips.
type TripRepo struct {
	db Querier
}

// NewTripRepo returns a TripRepo on db.
func NewTripRepo(db Querier) *TripRepo {
	return &TripRepo{db: db}
}

const tripColumns = `id, name, start_date, end_date, notes, created_at, updated_at`

// Get retrieves a trip by primary key. Returns domain.ErrNotFound if absent.
func (r *TripRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	var t domain.Trip
	if err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}), &t); err != nil {
		return nil, fmt.Errorf("repo.TripRepo.Get: %w", err)
	}
	return &t, nil
}

// ListPaged returns one page of trips, most recent start date first.
func (r *TripRepo) ListPaged(ctx context.Context, p domain.PaginationParams) (domain.Page[domain.Trip], error) {
	const countQ = `SELECT COUNT(*) FROM trips`
	const listQ = `
		SELECT ` + tripColumns + `
		FROM trips
		ORDER BY start_date DESC, id
		LIMIT @limit OFFSET @offset`

	page := domain.Page[domain.Trip]{Items: []domain.Trip{}, PaginationParams: p}
	if err := r.db.QueryRow(ctx, countQ).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("repo.TripRepo.ListPaged: count: %w", err)
	}

	rows, err := r.db.Query(ctx, listQ, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return page, fmt.Errorf("repo.TripRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.Trip
		if err := scanTrip(rows, &t); err != nil {
			return page, fmt.Errorf("repo.TripRepo.ListPaged: scan: %w", err)
		}
		page.Items = append(page.Items, t)
	}
	if err := rows.Err(); err != nil {
		return page, fmt.Errorf("repo.TripRepo.ListPaged: rows: %w", err)
	}
	return page, nil
}

// Insert stores t and copies the generated id and timestamps back into it.
func (r *TripRepo) Insert(ctx context.Context, t *domain.Trip) error {
	const q = `
		INSERT INTO trips (name, start_date, end_date, notes)
		VALUES (@name, @start_date, @end_date, @notes)
		RETURNING ` + tripColumns

	if err := scanTrip(r.db.QueryRow(ctx, q, tripArgs(t)), t); err != nil {
		return fmt.Errorf("repo.TripRepo.Insert: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of t. Returns domain.ErrNotFound if
// the row is gone.
func (r *TripRepo) Update(ctx context.Context, t *domain.Trip) error {
	const q = `
		UPDATE trips
		SET name       = @name,
		    start_date = @start_date,
		    end_date   = @end_date,
		    notes      = @notes,
		    updated_at = now()
		WHERE id = @id
		RETURNING ` + tripColumns

	if err := scanTrip(r.db.QueryRow(ctx, q, tripArgs(t)), t); err != nil {
		return fmt.Errorf("repo.TripRepo.Update: %w", err)
	}
	return nil
}

func tripArgs(t *domain.Trip) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":         t.ID,
		"name":       t.Name,
		"start_date": t.StartDate,
		"end_date":   t.EndDate, // nil becomes NULL
		"notes":      t.Notes,
	}
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip reads one row into t, converting the UUID and nullable end_date.
func scanTrip(s scanner, t *domain.Trip) error {
	var (
		id        pgtype.UUID
		startDate pgtype.Date
		endDate   pgtype.Date
	)

	err := s.Scan(&id, &t.Name, &startDate, &endDate, &t.Notes, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.StartDate = startDate.Time
	t.EndDate = nil
	if endDate.Valid {
		ed := endDate.Time
		t.EndDate = &ed
	}
	return nil
}
