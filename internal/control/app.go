// Package control assembles the relay application: storage, chain access,
// the signing identity, and the HTTP server, wired from configuration.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"strings"

	"github.com/vietddude/relay/internal/core/config"
	"github.com/vietddude/relay/internal/core/domain"
	"github.com/vietddude/relay/internal/infra/chain/evm"
	rediscache "github.com/vietddude/relay/internal/infra/redis"
	"github.com/vietddude/relay/internal/infra/rpc"
	"github.com/vietddude/relay/internal/ledger"
	"github.com/vietddude/relay/internal/ledger/memory"
	"github.com/vietddude/relay/internal/ledger/postgres"
	"github.com/vietddude/relay/internal/relay"
	"github.com/vietddude/relay/internal/wallet"
)

// App owns the relay's long-lived components and their lifecycle.
type App struct {
	server   *relay.Server
	provider rpc.Provider
	db       *postgres.DB
	cache    *rediscache.Cache
	port     int
	log      *slog.Logger
}

// NewApp creates an App with all dependencies initialized. It fails fast on
// anything that would make the relay unable to sign or broadcast: missing
// credentials, an unreachable node, or a chain-ID mismatch.
func NewApp(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	log := slog.Default()

	// 1. Signing identity. The keystore password comes from the
	// environment; the private key never appears in config or logs.
	password := os.Getenv(cfg.Wallet.PasswordEnv)
	if password == "" {
		return nil, fmt.Errorf("keystore password env %s is not set", cfg.Wallet.PasswordEnv)
	}
	ks := wallet.NewKeystore(cfg.Wallet.KeystorePath, []byte(password))

	privKey, err := ks.Load(domain.CredentialPrivateKey)
	if err != nil {
		if errors.Is(err, wallet.ErrKeyAbsent) {
			return nil, fmt.Errorf("no signing key in %s; run `relay-admin init` first", cfg.Wallet.KeystorePath)
		}
		return nil, fmt.Errorf("load signing key: %w", err)
	}
	storedAddress, err := ks.Load(domain.CredentialWalletAddress)
	if err != nil {
		return nil, fmt.Errorf("load wallet address: %w", err)
	}

	// 2. RPC providers and chain client.
	providers := make([]rpc.Provider, 0, len(cfg.Network.Providers))
	for _, p := range cfg.Network.Providers {
		providers = append(providers, rpc.NewHTTPProvider(p.Name, p.URL, p.Timeout))
	}
	var provider rpc.Provider
	if len(providers) == 1 {
		provider = providers[0]
	} else {
		provider = rpc.NewFailover(providers, log)
	}
	client := evm.NewClient(provider)

	// The configured chain ID must match the node: signing against the
	// wrong chain produces transactions the network silently rejects.
	onchainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("query chain id: %w", err)
	}
	wantID := new(big.Int).SetUint64(cfg.Network.ChainID)
	if onchainID.Cmp(wantID) != 0 {
		return nil, fmt.Errorf("chain id mismatch: config says %s, node says %s", wantID, onchainID)
	}

	// 3. Signer.
	signer, err := relay.NewSigner(privKey, wantID, client)
	if err != nil {
		return nil, fmt.Errorf("init signer: %w", err)
	}
	if !strings.EqualFold(signer.Address(), storedAddress) {
		return nil, fmt.Errorf("keystore address %s does not match signing key address %s", storedAddress, signer.Address())
	}
	log.Info("signing identity loaded", "address", signer.Address(), "network", cfg.Network.Name)

	// 4. Ledger storage.
	var (
		txLog    ledger.TransactionLedger
		loginLog ledger.LoginLedger
		db       *postgres.DB
	)
	if cfg.Database.URL != "" {
		db, err = postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("init db: %w", err)
		}
		txLog = postgres.NewTxLedger(db)
		loginLog = postgres.NewLoginLedger(db)
		log.Info("using PostgreSQL ledger storage")
	} else {
		store := memory.NewMemoryStorage()
		txLog = memory.NewTxLedger(store)
		loginLog = memory.NewLoginLedger(store)
		log.Info("using in-memory ledger storage; history is lost on restart")
	}

	// 5. Optional redis cache for oracle reads.
	var cache *rediscache.Cache
	if cfg.Redis.URL != "" {
		cache, err = rediscache.NewCache(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		log.Info("oracle cache enabled", "ttl", cfg.Relay.CacheTTL)
	}

	// 6. Relay engine and HTTP server.
	oracle := relay.NewOracle(client, cache, cfg.Network.Name, cfg.Relay.CacheTTL, log)
	engine := relay.NewEngine(signer, client, oracle, txLog, domain.NewTokenRegistry(cfg.Tokens), relay.Config{
		Network:         cfg.Network.Name,
		ExplorerURL:     cfg.Network.ExplorerURL,
		DefaultGasLimit: cfg.Relay.DefaultGasLimit,
		ConfirmTimeout:  cfg.Relay.ConfirmTimeout,
		PollInterval:    cfg.Relay.PollInterval,
	}, log)

	checks := []relay.HealthCheck{
		{Name: "chain", Check: func(ctx context.Context) error {
			_, err := client.ChainID(ctx)
			return err
		}},
	}
	if db != nil {
		checks = append(checks, relay.HealthCheck{Name: "database", Check: db.Health})
	}
	if cache != nil {
		checks = append(checks, relay.HealthCheck{Name: "redis", Check: cache.Health})
	}

	server := relay.NewServer(cfg.Server.Port, engine, oracle, txLog, loginLog, cfg.Network.Name, checks, log)

	return &App{
		server:   server,
		provider: provider,
		db:       db,
		cache:    cache,
		port:     cfg.Server.Port,
		log:      log,
	}, nil
}

// Start begins serving HTTP. It returns once the listener is running.
func (a *App) Start(ctx context.Context) error {
	a.log.Info("relay listening", "port", a.port)
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts everything down gracefully, newest dependency first.
func (a *App) Stop(ctx context.Context) error {
	var firstErr error

	if err := a.server.Stop(ctx); err != nil {
		firstErr = err
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	if err := a.provider.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}
