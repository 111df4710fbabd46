package main

import (
	"chat-relay/auth"
	"chat-relay/internal"
	"chat-relay/services"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mama165/sdk-go/logs"
)

func main() {
	root := newRootCmd(&app{open: openFromEnv})
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "relayctl: %v\n", err)
		os.Exit(1)
	}
}

// openFromEnv builds the account service over the configured directory.
func openFromEnv(ctx context.Context) (services.IAccountService, func(), error) {
	config, err := internal.LoadStoreConfig()
	if err != nil {
		return nil, func() {}, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)
	if !logger.Enabled(ctx, slog.LevelDebug) {
		logger = logs.GetLoggerFromLevel(slog.LevelWarn)
	}
	directory, closeDirectory, err := internal.OpenDirectory(ctx, config, logger, nil)
	if err != nil {
		return nil, closeDirectory, err
	}
	issuer := auth.NewTokenIssuer(config.JwtSecret, config.AuthTokenDuration)
	return services.NewAccountService(directory, issuer), closeDirectory, nil
}
