package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	RelayURL string `envconfig:"RELAY_URL" default:"ws://localhost:8080/ws"`
	Token    string `envconfig:"RELAY_TOKEN" required:"true"`
	Language string `envconfig:"RELAY_LANGUAGE" default:"en"`
	// RELAY_COLOURS paints sender names with their relay color
	Colours bool `envconfig:"RELAY_COLOURS" default:"true"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "client terminated with error: %v\n", err)
		os.Exit(1)
	}
}
