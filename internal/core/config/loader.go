package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/relay/internal/core/domain"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if len(cfg.Network.Providers) == 0 {
		return nil, fmt.Errorf("network.providers must list at least one RPC endpoint")
	}

	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Network.Name == "" {
		cfg.Network.Name = "sepolia"
	}
	if len(cfg.Tokens) == 0 {
		cfg.Tokens = domain.DefaultTokens
	}
	if cfg.Wallet.KeystorePath == "" {
		cfg.Wallet.KeystorePath = "relay.keystore"
	}
	if cfg.Wallet.PasswordEnv == "" {
		cfg.Wallet.PasswordEnv = "RELAY_KEYSTORE_PASSWORD"
	}
	if cfg.Relay.DefaultGasLimit == 0 {
		cfg.Relay.DefaultGasLimit = 21000
	}
	if cfg.Relay.ConfirmTimeout == 0 {
		cfg.Relay.ConfirmTimeout = 90 * time.Second
	}
	if cfg.Relay.PollInterval == 0 {
		cfg.Relay.PollInterval = 2 * time.Second
	}
	if cfg.Relay.CacheTTL == 0 {
		cfg.Relay.CacheTTL = 10 * time.Second
	}
	for i := range cfg.Network.Providers {
		if cfg.Network.Providers[i].Timeout == 0 {
			cfg.Network.Providers[i].Timeout = 30 * time.Second
		}
	}
}
