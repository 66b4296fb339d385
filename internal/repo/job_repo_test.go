package repo_test

import (
	"context"
	"os"
	"testing"

	"github.com/shaiso/Courier/internal/queue"
	"github.com/shaiso/Courier/internal/queue/queuetest"
	"github.com/shaiso/Courier/internal/repo"
)

// Тесты требуют живой Postgres: TEST_DB_URL=postgresql://... go test ./internal/repo/
func TestJobRepo_Contract(t *testing.T) {
	dsn := os.Getenv("TEST_DB_URL")
	if dsn == "" {
		t.Skip("TEST_DB_URL is not set")
	}

	ctx := context.Background()
	pool, err := repo.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := repo.Migrate(ctx, pool, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	queuetest.Run(t, func(*testing.T) queue.Backend {
		return repo.NewJobRepo(pool)
	})
}
