package config

import (
	"time"

	"github.com/vietddude/relay/internal/core/domain"
	redisclient "github.com/vietddude/relay/internal/infra/redis"
	"github.com/vietddude/relay/internal/ledger/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Network  NetworkConfig      `yaml:"network"`
	Tokens   []domain.Token     `yaml:"tokens"`
	Wallet   WalletConfig       `yaml:"wallet"`
	Relay    RelayConfig        `yaml:"relay"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// NetworkConfig holds settings for the target blockchain.
type NetworkConfig struct {
	Name        string           `yaml:"name"`         // e.g., "sepolia"
	ChainID     uint64           `yaml:"chain_id"`     // verified against the node at startup
	ExplorerURL string           `yaml:"explorer_url"` // base URL, tx hash is appended
	Providers   []ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds settings for an RPC provider.
type ProviderConfig struct {
	Name    string        `yaml:"name"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// WalletConfig holds the relay's signing identity settings. The keystore
// password comes from the environment, never from the config file.
type WalletConfig struct {
	KeystorePath string `yaml:"keystore_path"`
	PasswordEnv  string `yaml:"password_env"`
}

// RelayConfig holds transfer-flow policies.
type RelayConfig struct {
	// DefaultGasLimit is the fallback when gas estimation itself fails.
	DefaultGasLimit uint64 `yaml:"default_gas_limit"`

	// ConfirmTimeout bounds the wait for a broadcast to reach a receipt.
	ConfirmTimeout time.Duration `yaml:"confirm_timeout"`

	// PollInterval is the receipt polling cadence.
	PollInterval time.Duration `yaml:"poll_interval"`

	// CacheTTL is how long oracle reads stay in the redis cache.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}
