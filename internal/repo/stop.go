package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/formflow/internal/domain"
)

// StopRepo reads and writes stops. Reads and updates are scoped by trip id
// so a stop is only reachable through the trip that owns it.
type StopRepo struct {
	db Querier
}

// NewStopRepo returns a StopRepo on db.
func NewStopRepo(db Querier) *StopRepo {
	return &StopRepo{db: db}
}

const stopColumns = `id, trip_id, name, city, region, latitude, longitude,
	arrived_at, departed_at, notes, created_at, updated_at`

// Get retrieves a stop of the given trip. Returns domain.ErrNotFound if no
// such stop exists under that trip.
func (r *StopRepo) Get(ctx context.Context, tripID, stopID uuid.UUID) (*domain.Stop, error) {
	const q = `SELECT ` + stopColumns + ` FROM stops WHERE id = @id AND trip_id = @trip_id`

	var s domain.Stop
	err := scanStop(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": stopID, "trip_id": tripID}), &s)
	if err != nil {
		return nil, fmt.Errorf("repo.StopRepo.Get: %w", err)
	}
	return &s, nil
}

// ListByTripID returns the stops of a trip in arrival order.
func (r *StopRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.Stop, error) {
	const q = `
		SELECT ` + stopColumns + `
		FROM stops
		WHERE trip_id = @trip_id
		ORDER BY arrived_at, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.StopRepo.ListByTripID: %w", err)
	}
	defer rows.Close()

	stops := []domain.Stop{}
	for rows.Next() {
		var s domain.Stop
		if err := scanStop(rows, &s); err != nil {
			return nil, fmt.Errorf("repo.StopRepo.ListByTripID: scan: %w", err)
		}
		stops = append(stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.StopRepo.ListByTripID: rows: %w", err)
	}
	return stops, nil
}

// Insert stores s and copies the generated id and timestamps back into it.
// A missing parent trip is reported as domain.ErrNotFound.
func (r *StopRepo) Insert(ctx context.Context, s *domain.Stop) error {
	const q = `
		INSERT INTO stops (trip_id, name, city, region, latitude, longitude, arrived_at, departed_at, notes)
		VALUES (@trip_id, @name, @city, @region, @latitude, @longitude, @arrived_at, @departed_at, @notes)
		RETURNING ` + stopColumns

	if err := scanStop(r.db.QueryRow(ctx, q, stopArgs(s)), s); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("repo.StopRepo.Insert: trip %s: %w", s.TripID, domain.ErrNotFound)
		}
		return fmt.Errorf("repo.StopRepo.Insert: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of s within its trip.
func (r *StopRepo) Update(ctx context.Context, s *domain.Stop) error {
	const q = `
		UPDATE stops
		SET name        = @name,
		    city        = @city,
		    region      = @region,
		    latitude    = @latitude,
		    longitude   = @longitude,
		    arrived_at  = @arrived_at,
		    departed_at = @departed_at,
		    notes       = @notes,
		    updated_at  = now()
		WHERE id = @id AND trip_id = @trip_id
		RETURNING ` + stopColumns

	if err := scanStop(r.db.QueryRow(ctx, q, stopArgs(s)), s); err != nil {
		return fmt.Errorf("repo.StopRepo.Update: %w", err)
	}
	return nil
}

func stopArgs(s *domain.Stop) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":          s.ID,
		"trip_id":     s.TripID,
		"name":        s.Name,
		"city":        s.Location.City,
		"region":      s.Location.Region,
		"latitude":    s.Location.Latitude,
		"longitude":   s.Location.Longitude,
		"arrived_at":  s.ArrivedAt,
		"departed_at": s.DepartedAt,
		"notes":       s.Notes,
	}
}

func scanStop(sc scanner, s *domain.Stop) error {
	var (
		id, tripID          pgtype.UUID
		latitude, longitude pgtype.Float8
		departedAt          pgtype.Timestamptz
	)

	err := sc.Scan(
		&id, &tripID, &s.Name, &s.Location.City, &s.Location.Region, &latitude, &longitude,
		&s.ArrivedAt, &departedAt, &s.Notes, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	s.ID = uuid.UUID(id.Bytes)
	s.TripID = uuid.UUID(tripID.Bytes)
	s.Location.Latitude = float8Ptr(latitude)
	s.Location.Longitude = float8Ptr(longitude)
	s.DepartedAt = nil
	if departedAt.Valid {
		d := departedAt.Time
		s.DepartedAt = &d
	}
	return nil
}

func float8Ptr(f pgtype.Float8) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
