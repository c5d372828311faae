package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pep299/subreddit-digest/internal/model"
)

const createSnapshotsTable = `CREATE TABLE IF NOT EXISTS digest_snapshots (
	channel      TEXT PRIMARY KEY,
	generation   BIGINT NOT NULL,
	published_at TIMESTAMPTZ NOT NULL,
	body         JSONB NOT NULL
)`

const upsertSnapshot = `INSERT INTO digest_snapshots (channel, generation, published_at, body)
VALUES ($1, $2, $3, $4)
ON CONFLICT (channel) DO UPDATE
SET generation = EXCLUDED.generation, published_at = EXCLUDED.published_at, body = EXCLUDED.body`

const selectSnapshot = `SELECT body FROM digest_snapshots WHERE channel = $1`

// pgxPool is the subset of *pgxpool.Pool the store uses
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore keeps one snapshot row per channel
type PostgresStore struct {
	pool    pgxPool
	channel string
}

// NewPostgresStore connects to dsn and makes sure the snapshots table exists
func NewPostgresStore(ctx context.Context, dsn, channel string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}

	store, err := newPostgresStore(ctx, pool, channel)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func newPostgresStore(ctx context.Context, pool pgxPool, channel string) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, createSnapshotsTable); err != nil {
		return nil, fmt.Errorf("creating snapshots table: %w", err)
	}
	return &PostgresStore{pool: pool, channel: channel}, nil
}

func (p *PostgresStore) Load(ctx context.Context) (*model.Snapshot, error) {
	var data []byte
	if err := p.pool.QueryRow(ctx, selectSnapshot, p.channel).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("selecting snapshot: %w", err)
	}
	return decode(data)
}

func (p *PostgresStore) Save(ctx context.Context, s *model.Snapshot) error {
	data, err := encode(s)
	if err != nil {
		return err
	}

	if _, err := p.pool.Exec(ctx, upsertSnapshot, p.channel, int64(s.Generation), s.PublishedAt, data); err != nil {
		return fmt.Errorf("upserting snapshot: %w", err)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
