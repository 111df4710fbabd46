package internal

import (
	"chat-relay/infrastructure/postgres"
	"chat-relay/infrastructure/storage"
	"chat-relay/repositories"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// OpenDirectory opens the configured directory backend. onBadger, when set,
// receives the badger handle before it is wrapped. The returned func releases
// every resource and is safe to defer even on error.
func OpenDirectory(ctx context.Context, config Config, log *slog.Logger,
	onBadger func(db *badger.DB)) (repositories.IAccountRepository, func(), error) {
	switch config.DirectoryBackend {
	case BackendPostgres:
		directory, err := postgres.New(ctx, config.PostgresDSN)
		if err != nil {
			return nil, func() {}, err
		}
		return directory, func() {
			log.Info("Closing Postgres pool...")
			_ = directory.Close()
		}, nil
	case BackendBadger:
		db, err := badger.Open(BuildBadgerOpts(config, log, ctx))
		if err != nil {
			return nil, func() {}, fmt.Errorf("database opening failed: %w", err)
		}
		index, err := storage.OpenReportIndex(config.BlugeFilepath)
		if err != nil {
			_ = db.Close()
			return nil, func() {}, err
		}
		if onBadger != nil {
			onBadger(db)
		}
		directory := storage.NewDirectory(db, index, log)
		return directory, func() {
			log.Info("Closing Bluge...")
			_ = directory.Close()
			// Badger goes last, the index may still flush
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		}, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown directory backend %q", config.DirectoryBackend)
	}
}

func BuildBadgerOpts(config Config, log *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if log.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
