package snapshot

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

func TestPostgresStore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	defer mock.Close()

	ctx := context.Background()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS digest_snapshots").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	store, err := newPostgresStore(ctx, mock, "worldnews")
	if err != nil {
		t.Fatalf("newPostgresStore failed: %v", err)
	}

	mock.ExpectQuery("SELECT body FROM digest_snapshots").
		WithArgs("worldnews").
		WillReturnError(pgx.ErrNoRows)

	if _, err := store.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	snap := testSnapshot()
	encoded, err := encode(snap)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	mock.ExpectExec("INSERT INTO digest_snapshots").
		WithArgs("worldnews", int64(7), snap.PublishedAt, encoded).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	mock.ExpectQuery("SELECT body FROM digest_snapshots").
		WithArgs("worldnews").
		WillReturnRows(pgxmock.NewRows([]string{"body"}).AddRow(encoded))

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertSnapshot(t, got)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestPostgresStore_Errors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	defer mock.Close()

	ctx := context.Background()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS digest_snapshots").
		WillReturnError(errors.New("permission denied"))

	if _, err := newPostgresStore(ctx, mock, "worldnews"); err == nil {
		t.Fatal("Expected error when table creation fails")
	}

	store := &PostgresStore{pool: mock, channel: "worldnews"}

	mock.ExpectQuery("SELECT body FROM digest_snapshots").
		WithArgs("worldnews").
		WillReturnError(errors.New("connection reset"))

	if _, err := store.Load(ctx); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Expected query error, got %v", err)
	}

	if err := store.Save(ctx, nil); err == nil {
		t.Error("Expected error saving nil snapshot")
	}
}
