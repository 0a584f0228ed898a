package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/coffee_shop/internal/config"
	"github.com/Skotchmaster/coffee_shop/internal/db"
	"github.com/Skotchmaster/coffee_shop/internal/migrate"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.Open(ctx, config.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, migrate.Up(ctx, gdb, config.DriverSQLite))
	t.Cleanup(func() { _ = db.Close(gdb) })

	return New(gdb)
}
