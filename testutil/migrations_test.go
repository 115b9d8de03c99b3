package testutil_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/formflow/testutil"
)

var schemaTables = []string{"trips", "stops"}

// TestMigrations_RoundTrip resets the schema, applies every migration and
// rolls them all back again.
func TestMigrations_RoundTrip(t *testing.T) {
	p, db := testutil.NewMigrator(t)
	ctx := context.Background()

	// Another package may have migrated the shared database already.
	_, err := p.DownTo(ctx, 0)
	require.NoError(t, err, "reset")

	applied, err := p.Up(ctx)
	require.NoError(t, err, "up")
	assert.Len(t, applied, 2)
	assert.Equal(t, []bool{true, true}, tablesPresent(t, db))

	_, err = p.DownTo(ctx, 0)
	require.NoError(t, err, "down to 0")
	assert.Equal(t, []bool{false, false}, tablesPresent(t, db))

	_, err = p.Up(ctx)
	require.NoError(t, err, "restore")
}

// TestMigrations_StopsCascadeWithTrip checks the foreign key deletes a
// trip's stops together with the trip.
func TestMigrations_StopsCascadeWithTrip(t *testing.T) {
	tx := testutil.NewTx(t)
	ctx := context.Background()

	var tripID string
	require.NoError(t, tx.QueryRow(ctx,
		`INSERT INTO trips (name, start_date) VALUES ('Cascade', '2025-05-01') RETURNING id`,
	).Scan(&tripID))
	_, err := tx.Exec(ctx,
		`INSERT INTO stops (trip_id, name, city, arrived_at) VALUES ($1, 'Camp', 'Moab', now())`, tripID)
	require.NoError(t, err)

	_, err = tx.Exec(ctx, `DELETE FROM trips WHERE id = $1`, tripID)
	require.NoError(t, err)

	var n int
	require.NoError(t, tx.QueryRow(ctx, `SELECT COUNT(*) FROM stops WHERE trip_id = $1`, tripID).Scan(&n))
	assert.Zero(t, n)
}

func tablesPresent(t *testing.T, db *sql.DB) []bool {
	t.Helper()

	const q = `SELECT EXISTS (
		SELECT 1 FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = $1)`

	out := make([]bool, len(schemaTables))
	for i, table := range schemaTables {
		require.NoError(t, db.QueryRowContext(context.Background(), q, table).Scan(&out[i]), table)
	}
	return out
}
