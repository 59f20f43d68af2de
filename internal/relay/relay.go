// Package relay implements the transfer pipeline: admission checks, funds
// and fee verification, serialized signing, broadcast, confirmation, and the
// best-effort ledger write.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/relay/internal/core/domain"
	"github.com/vietddude/relay/internal/core/metrics"
	"github.com/vietddude/relay/internal/core/units"
	"github.com/vietddude/relay/internal/infra/chain"
	"github.com/vietddude/relay/internal/ledger"
)

// Config holds the engine's transfer policies.
type Config struct {
	Network         string
	ExplorerURL     string
	DefaultGasLimit uint64
	ConfirmTimeout  time.Duration
	PollInterval    time.Duration
}

// TransferResult is the terminal outcome of a mined transfer. Status carries
// the chain's own classification: a mined-but-reverted transfer is a result,
// not an error.
type TransferResult struct {
	TxHash            string
	BlockNumber       uint64
	GasUsed           uint64
	EffectiveGasPrice string
	Status            domain.TxStatus
	ExplorerURL       string
}

// ErrConfirmTimeout wraps a broadcast whose receipt did not arrive in time.
// The transaction may still mine later; the hash is preserved for lookup.
type ErrConfirmTimeout struct {
	TxHash string
}

func (e *ErrConfirmTimeout) Error() string {
	return fmt.Sprintf("confirmation timed out for %s (transaction may still be mined)", e.TxHash)
}

// Engine executes transfer intents against one signing account.
type Engine struct {
	signer *Signer
	client chain.Client
	oracle *Oracle
	txLog  ledger.TransactionLedger
	tokens *domain.TokenRegistry
	cfg    Config
	log    *slog.Logger
}

// NewEngine wires the relay engine. All collaborators are injected.
func NewEngine(
	signer *Signer,
	client chain.Client,
	oracle *Oracle,
	txLog ledger.TransactionLedger,
	tokens *domain.TokenRegistry,
	cfg Config,
	log *slog.Logger,
) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		signer: signer,
		client: client,
		oracle: oracle,
		txLog:  txLog,
		tokens: tokens,
		cfg:    cfg,
		log:    log,
	}
}

// Transfer runs one intent through the full pipeline. Validation and funds
// checks fail fast before anything irreversible; once broadcast, failures
// are reporting-only.
func (e *Engine) Transfer(ctx context.Context, intent domain.TransferIntent, clientIP string) (*TransferResult, error) {
	token, amountWei, err := e.validate(intent)
	if err != nil {
		metrics.TransferRequests.WithLabelValues("rejected_validation").Inc()
		return nil, err
	}

	balance, err := e.oracle.BalanceStrict(ctx, e.signer.Address())
	if err != nil {
		metrics.TransferRequests.WithLabelValues("error_network").Inc()
		return nil, fmt.Errorf("balance check: %w", err)
	}
	if balance.Cmp(amountWei) < 0 {
		metrics.TransferRequests.WithLabelValues("rejected_balance").Inc()
		return nil, domain.ErrInsufficientBalance
	}

	fees, err := e.oracle.FeesStrict(ctx)
	if err != nil {
		metrics.TransferRequests.WithLabelValues("error_network").Inc()
		return nil, fmt.Errorf("fee estimate: %w", err)
	}

	gasLimit := e.estimateGasLimit(ctx, intent.ToAddress, amountWei)

	// Worst-case fee bound: the 1559 cap when present, else the gas price.
	feePerGas := fees.GasPrice
	if fees.MaxFeePerGas != nil {
		feePerGas = fees.MaxFeePerGas
	}
	feeCost := new(big.Int).Mul(feePerGas, new(big.Int).SetUint64(gasLimit))
	total := new(big.Int).Add(amountWei, feeCost)
	if balance.Cmp(total) < 0 {
		metrics.TransferRequests.WithLabelValues("rejected_fees").Inc()
		return nil, domain.ErrInsufficientBalanceForFees
	}

	// Point of no return: after a successful submit there is no rollback.
	txHash, nonce, err := e.signer.SignAndBroadcast(ctx, intent.ToAddress, amountWei, fees, gasLimit)
	if err != nil {
		metrics.TransferRequests.WithLabelValues("error_broadcast").Inc()
		return nil, fmt.Errorf("broadcast failed: %w", err)
	}
	e.log.Info("transaction broadcast",
		"txHash", txHash, "to", intent.ToAddress, "nonce", nonce, "gasLimit", gasLimit)

	start := time.Now()
	receipt, err := e.waitForReceipt(ctx, txHash)
	if err != nil {
		metrics.TransferRequests.WithLabelValues("error_confirm").Inc()
		return nil, err
	}
	metrics.BroadcastLatency.Observe(time.Since(start).Seconds())

	status := domain.TxStatusSuccess
	if receipt.Status == 0 {
		status = domain.TxStatusFailed
	}
	metrics.TransferRequests.WithLabelValues(string(status)).Inc()

	rec := &domain.TransactionRecord{
		Timestamp:         time.Now().UTC(),
		IPAddress:         clientIP,
		WalletAddress:     e.signer.Address(),
		ToAddress:         intent.ToAddress,
		ValueSent:         units.Format(amountWei, token.Decimals),
		TxHash:            txHash,
		Network:           e.cfg.Network,
		GasPrice:          fees.GasPrice.String(),
		EffectiveGasPrice: receipt.EffectiveGasPrice.String(),
		GasUsed:           receipt.GasUsed,
		BlockNumber:       receipt.BlockNumber,
		Status:            status,
		Nonce:             nonce,
		TokenSymbol:       token.Symbol,
	}
	// The chain result is authoritative; the ledger is best-effort
	// auxiliary. A write failure never alters the response.
	if err := e.txLog.Append(ctx, rec); err != nil {
		metrics.LedgerWriteFailures.Inc()
		e.log.Error("ledger write failed", "txHash", txHash, "error", err)
	}

	return &TransferResult{
		TxHash:            txHash,
		BlockNumber:       receipt.BlockNumber,
		GasUsed:           receipt.GasUsed,
		EffectiveGasPrice: receipt.EffectiveGasPrice.String(),
		Status:            status,
		ExplorerURL:       e.explorerLink(txHash),
	}, nil
}

// validate runs the admission checks in order: token, amount, address. Each
// failure is distinct; none touches the network.
func (e *Engine) validate(intent domain.TransferIntent) (domain.Token, *big.Int, error) {
	token, ok := e.tokens.Lookup(intent.TokenSymbol)
	if !ok {
		return domain.Token{}, nil, domain.NewValidationError(domain.FieldToken,
			fmt.Sprintf("unsupported token %q", intent.TokenSymbol))
	}

	amountWei, err := units.Parse(intent.Amount, token.Decimals)
	if err != nil {
		return domain.Token{}, nil, domain.NewValidationError(domain.FieldAmount,
			fmt.Sprintf("invalid amount %q: %v", intent.Amount, err))
	}
	if amountWei.Sign() <= 0 {
		return domain.Token{}, nil, domain.NewValidationError(domain.FieldAmount,
			"amount must be positive")
	}

	if !common.IsHexAddress(intent.ToAddress) {
		return domain.Token{}, nil, domain.NewValidationError(domain.FieldAddress,
			fmt.Sprintf("invalid recipient address %q", intent.ToAddress))
	}

	return token, amountWei, nil
}

// estimateGasLimit asks the node, falling back to the configured default.
// Estimation failure must not abort the transfer flow.
func (e *Engine) estimateGasLimit(ctx context.Context, to string, amountWei *big.Int) uint64 {
	gas, err := e.client.EstimateGas(ctx, chain.CallMsg{
		From:  e.signer.Address(),
		To:    to,
		Value: amountWei,
	})
	if err != nil {
		e.log.Warn("gas estimation failed, using default",
			"default", e.cfg.DefaultGasLimit, "error", err)
		return e.cfg.DefaultGasLimit
	}
	return gas
}

// waitForReceipt polls until the transaction is mined or the confirmation
// window closes.
func (e *Engine) waitForReceipt(ctx context.Context, txHash string) (*chain.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.ConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := e.client.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil {
			e.log.Debug("receipt poll failed", "txHash", txHash, "error", err)
		}

		select {
		case <-ctx.Done():
			return nil, &ErrConfirmTimeout{TxHash: txHash}
		case <-ticker.C:
		}
	}
}

func (e *Engine) explorerLink(txHash string) string {
	if e.cfg.ExplorerURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/tx/%s", e.cfg.ExplorerURL, txHash)
}
