package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container test skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("bingo"),
		postgres.WithUsername("bingo"),
		postgres.WithPassword("bingo"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestGormPostgreSQL(t *testing.T) {
	dsn := startPostgres(t)

	db, err := NewGormPostgreSQL(dsn)
	require.NoError(t, err)
	defer db.Close()
	exerciseStore(t, db)
}

func TestSQLStore_Postgres(t *testing.T) {
	dsn := startPostgres(t)

	db, err := NewSQLStore("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()
	exerciseStore(t, db)
}
