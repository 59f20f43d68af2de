package relay

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vietddude/relay/internal/core/metrics"
	"github.com/vietddude/relay/internal/infra/chain"
)

// Signer holds the relay's server-side signing key and serializes nonce
// issuance. Two concurrent transfers must never read the same pending nonce,
// so the whole sign-and-broadcast step runs under one mutex. The signer is
// injected into the engine, never a package-level singleton, so tests can
// substitute it.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
	client  chain.Client

	mu        sync.Mutex
	nonce     uint64
	nonceInit bool
}

// NewSigner builds a signer from a hex private key. chainID pins the
// signature to one network (replay protection).
func NewSigner(privateKeyHex string, chainID *big.Int, client chain.Client) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
		client:  client,
	}, nil
}

// Address returns the signing account's address.
func (s *Signer) Address() string {
	return s.address.Hex()
}

// SignAndBroadcast signs a native transfer and submits it. Returns the
// transaction hash and the nonce used. Irreversible once the node accepts
// it; there is no rollback.
func (s *Signer) SignAndBroadcast(
	ctx context.Context,
	to string,
	amountWei *big.Int,
	fees FeeReading,
	gasLimit uint64,
) (txHash string, nonce uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.nonceInit {
		pending, err := s.client.PendingNonceAt(ctx, s.address.Hex())
		if err != nil {
			return "", 0, fmt.Errorf("fetch pending nonce: %w", err)
		}
		s.nonce = pending
		s.nonceInit = true
	}
	nonce = s.nonce

	toAddr := common.HexToAddress(to)
	var tx *types.Transaction
	if fees.MaxFeePerGas != nil && fees.MaxPriorityFeePerGas != nil {
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   s.chainID,
			Nonce:     nonce,
			GasTipCap: fees.MaxPriorityFeePerGas,
			GasFeeCap: fees.MaxFeePerGas,
			Gas:       gasLimit,
			To:        &toAddr,
			Value:     amountWei,
		})
	} else {
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: fees.GasPrice,
			Gas:      gasLimit,
			To:       &toAddr,
			Value:    amountWei,
		})
	}

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		return "", 0, fmt.Errorf("sign transaction: %w", err)
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return "", 0, fmt.Errorf("encode transaction: %w", err)
	}

	hash, err := s.client.SendRawTransaction(ctx, hexutil.Encode(raw))
	if err != nil {
		// The node may have advanced past our tracked nonce (another
		// process, a dropped tx). Resync on the next send.
		s.nonceInit = false
		metrics.NonceResyncs.Inc()
		return "", 0, fmt.Errorf("broadcast: %w", err)
	}

	s.nonce++
	return hash, nonce, nil
}
