// Package wallet implements mnemonic-based key derivation and the encrypted
// credential keystore that holds the relay's signing identity.
package wallet

import (
	"fmt"
	"strings"

	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
	"github.com/tyler-smith/go-bip39"

	"github.com/vietddude/relay/internal/core/domain"
)

const (
	// DefaultDerivationPath is the standard Ethereum account path.
	DefaultDerivationPath = "m/44'/60'/0'/0/0"

	// mnemonicEntropyBits yields 12-word mnemonics.
	mnemonicEntropyBits = 128
)

// Derive turns a BIP-39 mnemonic into a deterministic account at the given
// path. The mnemonic must pass checksum validation; that check runs before
// any derivation work so an invalid phrase never produces partial key
// material. Pure: identical (mnemonic, path) always yields the identical
// account.
func Derive(mnemonic, path string) (domain.Account, error) {
	mnemonic = normalizeMnemonic(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return domain.Account{}, domain.ErrInvalidMnemonic
	}
	if path == "" {
		path = DefaultDerivationPath
	}

	hd, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return domain.Account{}, fmt.Errorf("init hd wallet: %w", err)
	}

	parsed, err := hdwallet.ParseDerivationPath(path)
	if err != nil {
		return domain.Account{}, fmt.Errorf("parse derivation path %q: %w", path, err)
	}

	acct, err := hd.Derive(parsed, false)
	if err != nil {
		return domain.Account{}, fmt.Errorf("derive account: %w", err)
	}

	pk, err := hd.PrivateKeyHex(acct)
	if err != nil {
		return domain.Account{}, fmt.Errorf("export private key: %w", err)
	}

	return domain.Account{
		Address:       acct.Address.Hex(),
		PrivateKeyHex: pk,
	}, nil
}

// Generate produces a fresh 12-word mnemonic from crypto/rand entropy and
// immediately derives its account at the given path. Used by the
// create-new-wallet flow.
func Generate(path string) (string, domain.Account, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return "", domain.Account{}, fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", domain.Account{}, fmt.Errorf("generate mnemonic: %w", err)
	}

	acct, err := Derive(mnemonic, path)
	if err != nil {
		return "", domain.Account{}, err
	}
	return mnemonic, acct, nil
}

func normalizeMnemonic(m string) string {
	return strings.Join(strings.Fields(strings.ToLower(m)), " ")
}
