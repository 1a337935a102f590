package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS lovmig_auth_events (
	id         uuid PRIMARY KEY,
	occurred_at timestamptz NOT NULL,
	event      text NOT NULL,
	user_id    text,
	email      text,
	endpoint   text NOT NULL
)`

const insertSQL = `INSERT INTO lovmig_auth_events (id, occurred_at, event, user_id, email, endpoint)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)`

// PostgresSink writes entries to the lovmig_auth_events table.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink connects to dsn, verifies the connection and creates the
// events table when missing.
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect journal database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping journal database: %w", err)
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create journal table: %w", err)
	}
	return &PostgresSink{pool: pool}, nil
}

func (s *PostgresSink) Write(ctx context.Context, e Entry) error {
	_, err := s.pool.Exec(ctx, insertSQL, e.ID, e.Time, e.Event, e.UserID, e.Email, e.Endpoint)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}
