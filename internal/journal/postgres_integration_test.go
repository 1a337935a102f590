package journal

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"lovmig/cli/internal/auth"
)

func TestPostgresSinkRecordsEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("journal"),
		postgres.WithUsername("lovmig"),
		postgres.WithPassword("journal-secret"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sink, err := Open(ctx, dsn)
	require.NoError(t, err)
	_, ok := sink.(*PostgresSink)
	require.True(t, ok)

	// Opening twice must not fail on the existing table.
	again, err := Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, again.Close())

	sess := &auth.Session{User: &auth.User{ID: "u1", Email: "a@b.c"}}
	require.NoError(t, sink.Write(ctx, NewEntry(auth.EventSignedIn, sess, "https://abc.supabase.co", time.Now())))
	require.NoError(t, sink.Write(ctx, NewEntry(auth.EventSignedOut, nil, "https://abc.supabase.co", time.Now())))
	require.NoError(t, sink.Close())

	target, err := ParseTarget(dsn)
	require.NoError(t, err)
	pool, err := pgxpool.New(ctx, target.Location)
	require.NoError(t, err)
	defer pool.Close()

	rows, err := pool.Query(ctx, `SELECT event, COALESCE(email, '') FROM lovmig_auth_events ORDER BY occurred_at`)
	require.NoError(t, err)
	defer rows.Close()

	var got [][2]string
	for rows.Next() {
		var ev, email string
		require.NoError(t, rows.Scan(&ev, &email))
		got = append(got, [2]string{ev, email})
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, [][2]string{{"SIGNED_IN", "a@b.c"}, {"SIGNED_OUT", ""}}, got)
}
