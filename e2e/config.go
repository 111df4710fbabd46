package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// RELAY_URL is the WebSocket endpoint, e.g. ws://localhost:8080/ws
	RelayURL string `envconfig:"RELAY_URL"`
	GrpcAddr string `envconfig:"RELAY_GRPC_ADDR"`
	// Tokens for two distinct accounts, issued with relayctl token
	AliceToken string `envconfig:"E2E_ALICE_TOKEN"`
	BobToken   string `envconfig:"E2E_BOB_TOKEN"`
	// E2E_DEBUG_JSON allows dumping full frames and gRPC bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
