package postgres_test

import (
	"chat-relay/domain"
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"chat-relay/infrastructure/postgres"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres spins up a throwaway Postgres container and returns its DSN.
func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests are skipped in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("relay_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func newDirectory(t *testing.T) *postgres.Directory {
	t.Helper()
	d, err := postgres.New(context.Background(), startPostgres(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDirectory(t *testing.T) {
	directory := newDirectory(t)
	ctx := context.Background()

	t.Run("should create and fetch users", func(t *testing.T) {
		req := require.New(t)
		created, err := directory.CreateUser(ctx, "alice", "$argon2id$hash", []string{"user"})
		req.NoError(err)

		fetched, err := directory.GetUser(ctx, "alice")
		req.NoError(err)
		req.Equal(created, fetched)

		_, err = directory.CreateUser(ctx, "alice", "x", nil)
		req.ErrorIs(err, errors.ErrUserAlreadyExists)
		_, err = directory.GetUser(ctx, "nobody")
		req.ErrorIs(err, errors.ErrUserNotFound)
	})

	t.Run("should store directional blocks", func(t *testing.T) {
		req := require.New(t)
		req.NoError(directory.Block(ctx, "alice", "carol"))
		req.NoError(directory.Block(ctx, "alice", "carol"))

		blocked, err := directory.IsBlocked(ctx, "alice", "carol")
		req.NoError(err)
		req.True(blocked)
		blocked, err = directory.IsBlocked(ctx, "carol", "alice")
		req.NoError(err)
		req.False(blocked)

		list, err := directory.Blocked(ctx, "alice")
		req.NoError(err)
		req.Equal([]domain.Identity{"carol"}, list)

		req.NoError(directory.Unblock(ctx, "alice", "carol"))
		blocked, err = directory.IsBlocked(ctx, "alice", "carol")
		req.NoError(err)
		req.False(blocked)
	})

	t.Run("should list and search reports", func(t *testing.T) {
		req := require.New(t)
		now := time.Now().UTC().Truncate(time.Microsecond)
		messageID := uuid.New()
		first := chat.Report{ID: uuid.New(), Reporter: "alice", Reported: "carol", Reason: "spam links", CreatedAt: now.Add(-time.Minute)}
		second := chat.Report{ID: uuid.New(), Reporter: "bob", Reported: "carol", Reason: "rude", MessageID: &messageID, CreatedAt: now}
		req.NoError(directory.RecordReport(ctx, first))
		req.NoError(directory.RecordReport(ctx, second))

		all, err := directory.ListReports(ctx, lo.ToPtr(domain.Identity("carol")), 0)
		req.NoError(err)
		req.Equal([]chat.Report{second, first}, all)

		found, total, err := directory.SearchReports(ctx, "SPAM", 10)
		req.NoError(err)
		req.Equal(uint64(1), total)
		req.Equal(first.ID, found[0].ID)

		found, total, err = directory.SearchReports(ctx, "reporter:bob", 10)
		req.NoError(err)
		req.Equal(uint64(1), total)
		req.Equal(second.ID, found[0].ID)
	})
}
