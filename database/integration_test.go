//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/testutil"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16.1-alpine",
		postgres.WithDatabase("fluxmux"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	return dsn
}

func TestIntegration_TableSink(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	db, err := Open(ctx, Config{DSN: dsn}, nil)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	if err := db.GormDB.Exec(`CREATE TABLE events (id integer, name varchar(32), meta jsonb, at timestamptz)`).Error; err != nil {
		t.Fatal(err)
	}

	cols, _ := ParseColumns("id:int4,name:text,meta:json")
	sink, err := NewTableSink(db, "events", cols, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := sink.Send(ctx, testutil.MustJSON(t, `{"id":7,"name":"ada","meta":{"k":[1,2]}}`)); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	var count int64
	db.GormDB.Table("events").Where("id = ? AND meta->>'k' = ?", 7, "[1, 2]").Count(&count)
	if count != 1 {
		t.Errorf("row not stored as expected, count=%d", count)
	}

	bad, _ := NewTableSink(db, "events", []Column{{Name: "at", Type: "timestamp"}}, nil)
	err = bad.Send(ctx, testutil.MustJSON(t, `{"id":8}`))
	if appErr, ok := errors.AsAppError(err); !ok || appErr.Code != errors.ErrCodeSchemaInvalid {
		t.Errorf("expected SCHEMA_INVALID for timestamptz vs timestamp, got %v", err)
	}
}

func TestIntegration_OpenRefused(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := Open(ctx, Config{DSN: "postgres://u:p@127.0.0.1:1/db?sslmode=disable", ConnectRetries: 2, RetryDelay: "10ms"}, nil)
	if appErr, ok := errors.AsAppError(err); !ok || appErr.Code != errors.ErrCodeConnectionFailed {
		t.Errorf("expected CONNECTION_FAILED, got %v", err)
	}
}
