package database

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func countTenants(t *testing.T, db PGXDB, id uuid.UUID) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(), "SELECT COUNT(*) FROM tenants WHERE id = $1", id).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestTestTx(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("writes stay inside the transaction", func(t *testing.T) {
		tx := TestTx(t)

		_, err := tx.Exec(ctx, "INSERT INTO tenants (id, name) VALUES ($1, $2)", id, "Funilaria Teste")
		require.NoError(t, err)
		require.Equal(t, 1, countTenants(t, tx, id))
		require.Equal(t, 0, countTenants(t, TestPool(t), id))
	})

	t.Run("rolled back after the test", func(t *testing.T) {
		require.Equal(t, 0, countTenants(t, TestPool(t), id))
	})

	t.Run("WithTx nests as a savepoint", func(t *testing.T) {
		tx := TestTx(t)
		boom := errors.New("boom")

		err := WithTx(ctx, tx, func(inner pgx.Tx) error {
			_, err := inner.Exec(ctx, "INSERT INTO tenants (id, name) VALUES ($1, $2)", id, "Descartada")
			require.NoError(t, err)
			return boom
		})
		require.ErrorIs(t, err, boom)

		// The outer transaction survives the savepoint rollback.
		require.Equal(t, 0, countTenants(t, tx, id))

		require.NoError(t, WithTx(ctx, tx, func(inner pgx.Tx) error {
			_, err := inner.Exec(ctx, "INSERT INTO tenants (id, name) VALUES ($1, $2)", id, "Mantida")
			return err
		}))
		require.Equal(t, 1, countTenants(t, tx, id))
	})
}

func TestTestPool_ReturnsSharedPool(t *testing.T) {
	p1 := TestPool(t)
	p2 := TestPool(t)

	require.NotNil(t, p1)
	require.Same(t, p1, p2)
}
