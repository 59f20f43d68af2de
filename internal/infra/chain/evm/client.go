// Package evm implements chain.Client against an EVM JSON-RPC node.
package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/vietddude/relay/internal/infra/chain"
	"github.com/vietddude/relay/internal/infra/rpc"
)

// Client talks to a single EVM node through an rpc.Provider. Reads go
// through bounded retry; SendRawTransaction is issued exactly once.
type Client struct {
	provider rpc.Provider
	retry    rpc.RetryConfig
}

// NewClient creates an EVM client over the given provider.
func NewClient(provider rpc.Provider) *Client {
	return &Client{
		provider: provider,
		retry:    rpc.DefaultRetryConfig,
	}
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	result, err := rpc.CallWithRetry(ctx, c.provider, "eth_chainId", nil, c.retry)
	if err != nil {
		return nil, fmt.Errorf("eth_chainId failed: %w", err)
	}
	return parseHexToBigInt(getString(result))
}

func (c *Client) BalanceAt(ctx context.Context, address string) (*big.Int, error) {
	params := []any{address, "latest"}
	result, err := rpc.CallWithRetry(ctx, c.provider, "eth_getBalance", params, c.retry)
	if err != nil {
		return nil, fmt.Errorf("eth_getBalance failed: %w", err)
	}
	return parseHexToBigInt(getString(result))
}

func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	result, err := rpc.CallWithRetry(ctx, c.provider, "eth_gasPrice", nil, c.retry)
	if err != nil {
		return nil, fmt.Errorf("eth_gasPrice failed: %w", err)
	}
	return parseHexToBigInt(getString(result))
}

func (c *Client) MaxPriorityFeePerGas(ctx context.Context) (*big.Int, error) {
	result, err := rpc.CallWithRetry(ctx, c.provider, "eth_maxPriorityFeePerGas", nil, c.retry)
	if err != nil {
		return nil, fmt.Errorf("eth_maxPriorityFeePerGas failed: %w", err)
	}
	return parseHexToBigInt(getString(result))
}

func (c *Client) PendingNonceAt(ctx context.Context, address string) (uint64, error) {
	params := []any{address, "pending"}
	result, err := rpc.CallWithRetry(ctx, c.provider, "eth_getTransactionCount", params, c.retry)
	if err != nil {
		return 0, fmt.Errorf("eth_getTransactionCount failed: %w", err)
	}
	return parseHexString(getString(result))
}

func (c *Client) EstimateGas(ctx context.Context, msg chain.CallMsg) (uint64, error) {
	call := map[string]any{
		"from": msg.From,
		"to":   msg.To,
	}
	if msg.Value != nil {
		call["value"] = "0x" + msg.Value.Text(16)
	}
	result, err := rpc.CallWithRetry(ctx, c.provider, "eth_estimateGas", []any{call}, c.retry)
	if err != nil {
		return 0, fmt.Errorf("eth_estimateGas failed: %w", err)
	}
	return parseHexString(getString(result))
}

// SendRawTransaction broadcasts a signed transaction. Deliberately no retry:
// an ambiguous failure after submission must not resubmit the same nonce.
func (c *Client) SendRawTransaction(ctx context.Context, rawTx string) (string, error) {
	result, err := c.provider.Call(ctx, "eth_sendRawTransaction", []any{rawTx})
	if err != nil {
		return "", fmt.Errorf("eth_sendRawTransaction failed: %w", err)
	}
	hash := getString(result)
	if hash == "" {
		return "", fmt.Errorf("node returned empty transaction hash")
	}
	return hash, nil
}

func (c *Client) TransactionReceipt(ctx context.Context, txHash string) (*chain.Receipt, error) {
	result, err := rpc.CallWithRetry(ctx, c.provider, "eth_getTransactionReceipt", []any{txHash}, c.retry)
	if err != nil {
		return nil, fmt.Errorf("eth_getTransactionReceipt failed: %w", err)
	}
	if result == nil {
		return nil, nil // Still pending
	}

	raw, ok := result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid receipt format")
	}

	status, err := parseHexString(getString(raw["status"]))
	if err != nil {
		return nil, fmt.Errorf("parse receipt status: %w", err)
	}
	blockNumber, _ := parseHexString(getString(raw["blockNumber"]))
	gasUsed, _ := parseHexString(getString(raw["gasUsed"]))

	effectivePrice := new(big.Int)
	if s := getString(raw["effectiveGasPrice"]); s != "" {
		if p, err := parseHexToBigInt(s); err == nil {
			effectivePrice = p
		}
	}

	return &chain.Receipt{
		TxHash:            getString(raw["transactionHash"]),
		BlockNumber:       blockNumber,
		GasUsed:           gasUsed,
		Status:            status,
		EffectiveGasPrice: effectivePrice,
	}, nil
}

func parseHexToBigInt(hexStr string) (*big.Int, error) {
	n := new(big.Int)
	if _, ok := n.SetString(strings.TrimPrefix(hexStr, "0x"), 16); !ok {
		return nil, fmt.Errorf("invalid hex: %s", hexStr)
	}
	return n, nil
}

func parseHexString(hexStr string) (uint64, error) {
	n := new(big.Int)
	if _, ok := n.SetString(strings.TrimPrefix(hexStr, "0x"), 16); !ok {
		return 0, fmt.Errorf("invalid hex: %s", hexStr)
	}
	return n.Uint64(), nil
}

func getString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
