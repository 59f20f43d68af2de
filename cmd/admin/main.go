// relay-admin manages the relay's keystore: it derives the signing account
// from a BIP-39 mnemonic and stores the credentials encrypted at rest. The
// private key is never printed.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/vietddude/relay/internal/core/domain"
	"github.com/vietddude/relay/internal/wallet"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit(os.Args[2:])
	case "show":
		err = runShow(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage:
  relay-admin init [-keystore path] [-import] [-path derivation]
      Create the signing account. Generates a fresh 12-word mnemonic, or
      with -import prompts for an existing one.
  relay-admin show [-keystore path]
      Print the stored wallet address.`)
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	keystorePath := fs.String("keystore", "relay.keystore", "Keystore file path")
	importExisting := fs.Bool("import", false, "Import an existing mnemonic instead of generating one")
	derivationPath := fs.String("path", wallet.DefaultDerivationPath, "BIP-44 derivation path")
	fs.Parse(args)

	if _, err := os.Stat(*keystorePath); err == nil {
		return fmt.Errorf("%s already exists; remove it first to re-initialize", *keystorePath)
	}

	var (
		mnemonic string
		account  domain.Account
		err      error
	)
	if *importExisting {
		mnemonic, err = promptMnemonic()
		if err != nil {
			return err
		}
		account, err = wallet.Derive(mnemonic, *derivationPath)
		if errors.Is(err, domain.ErrInvalidMnemonic) {
			return fmt.Errorf("the mnemonic did not validate; check word order and spelling")
		}
	} else {
		mnemonic, account, err = wallet.Generate(*derivationPath)
	}
	if err != nil {
		return err
	}

	password, err := promptNewPassword()
	if err != nil {
		return err
	}
	defer clear(password)

	ks := wallet.NewKeystore(*keystorePath, password)
	if err := ks.Save(domain.CredentialWalletAddress, account.Address); err != nil {
		return fmt.Errorf("store address: %w", err)
	}
	if err := ks.Save(domain.CredentialPrivateKey, account.PrivateKeyHex); err != nil {
		return fmt.Errorf("store key: %w", err)
	}

	fmt.Println("Keystore created:", *keystorePath)
	fmt.Println("Wallet address: ", account.Address)
	if !*importExisting {
		fmt.Println()
		fmt.Println("Recovery mnemonic (write it down, it is shown only once):")
		fmt.Println(" ", mnemonic)
	}
	return nil
}

func runShow(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	keystorePath := fs.String("keystore", "relay.keystore", "Keystore file path")
	fs.Parse(args)

	password, err := promptPassword("Keystore password: ")
	if err != nil {
		return err
	}
	defer clear(password)

	ks := wallet.NewKeystore(*keystorePath, password)
	address, err := ks.Load(domain.CredentialWalletAddress)
	if errors.Is(err, wallet.ErrKeyAbsent) {
		return fmt.Errorf("no wallet in %s; run `relay-admin init`", *keystorePath)
	}
	if err != nil {
		return err
	}

	fmt.Println("Wallet address:", address)
	return nil
}

func promptMnemonic() (string, error) {
	fmt.Fprint(os.Stderr, "Enter your 12-word mnemonic: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read mnemonic: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func promptNewPassword() ([]byte, error) {
	password, err := promptPassword("New keystore password: ")
	if err != nil {
		return nil, err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		clear(password)
		return nil, err
	}
	defer clear(confirm)

	if string(password) != string(confirm) {
		clear(password)
		return nil, errors.New("passwords do not match")
	}
	if len(password) == 0 {
		return nil, errors.New("password cannot be empty")
	}
	return password, nil
}

// promptPassword reads without echoing. Caller must clear the result.
func promptPassword(prompt string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal; run interactively to enter the password")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	clear(raw)
	return out, nil
}
