package database

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const testDatabaseURLEnv = "TEST_DATABASE_URL"

var (
	sharedPool     *pgxpool.Pool
	sharedPoolOnce sync.Once
	sharedPoolErr  error
)

func testDatabaseURL(t *testing.T) string {
	t.Helper()

	dbURL := os.Getenv(testDatabaseURLEnv)
	if dbURL == "" {
		t.Skip(testDatabaseURLEnv + " not set, skipping integration test")
	}
	return dbURL
}

// TestDB returns a dedicated, unmigrated pool closed at the end of the test.
// Migration tests use it; everything else should prefer TestTx.
func TestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := Connect(context.Background(), testDatabaseURL(t))
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	return pool
}

// TestPool returns the pool shared by every test in the package binary. It is
// connected and migrated on first use.
func TestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := testDatabaseURL(t)
	sharedPoolOnce.Do(func() {
		ctx := context.Background()
		sharedPool, sharedPoolErr = Connect(ctx, dbURL)
		if sharedPoolErr != nil {
			return
		}
		sharedPoolErr = RunMigrations(ctx, sharedPool)
	})
	if sharedPoolErr != nil {
		t.Fatalf("failed to set up test database: %v", sharedPoolErr)
	}

	return sharedPool
}

// TestTx returns a transaction on the shared pool that is rolled back when the
// test ends, so tenants and expenses created by one test are never seen by
// another. Begin on the returned handle opens a savepoint, which lets
// ApplyCycle and other WithTx callers run unchanged.
//
//	tx := database.TestTx(t)
//	repo := repository.NewFixedExpenseRepository(tx)
func TestTx(t *testing.T) pgx.Tx {
	t.Helper()

	tx, err := TestPool(t).Begin(context.Background())
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	return tx
}
