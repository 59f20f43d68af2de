package wallet

import (
	"strings"
	"testing"

	"github.com/vietddude/relay/internal/core/domain"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestDerive_GoldenVector(t *testing.T) {
	acct, err := Derive(testMnemonic, DefaultDerivationPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Known BIP-44 test vector for m/44'/60'/0'/0/0.
	wantAddr := "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
	if acct.Address != wantAddr {
		t.Errorf("address = %s, want %s", acct.Address, wantAddr)
	}
	if acct.PrivateKeyHex == "" {
		t.Error("expected non-empty private key")
	}
}

func TestDerive_Deterministic(t *testing.T) {
	a, err := Derive(testMnemonic, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Derive(testMnemonic, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Address != b.Address || a.PrivateKeyHex != b.PrivateKeyHex {
		t.Errorf("derivation not deterministic: %v vs %v", a.Address, b.Address)
	}
}

func TestDerive_NormalizesWhitespaceAndCase(t *testing.T) {
	messy := "  Abandon abandon ABANDON abandon abandon abandon\tabandon abandon abandon abandon abandon about "
	acct, err := Derive(messy, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := Derive(testMnemonic, "")
	if acct.Address != want.Address {
		t.Errorf("normalized mnemonic derived %s, want %s", acct.Address, want.Address)
	}
}

func TestDerive_InvalidMnemonic(t *testing.T) {
	cases := map[string]string{
		"bad word":       strings.Replace(testMnemonic, "about", "aboutx", 1),
		"bad checksum":   strings.Replace(testMnemonic, "about", "abandon", 1),
		"eleven words":   strings.TrimSuffix(testMnemonic, " about"),
		"thirteen words": testMnemonic + " about",
		"empty":          "",
	}

	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Derive(m, "")
			if err != domain.ErrInvalidMnemonic {
				t.Errorf("expected ErrInvalidMnemonic, got %v", err)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	mnemonic, acct, err := Generate("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := len(strings.Fields(mnemonic)); got != 12 {
		t.Errorf("expected 12-word mnemonic, got %d words", got)
	}

	// A generated mnemonic must round-trip through Derive.
	again, err := Derive(mnemonic, "")
	if err != nil {
		t.Fatalf("derive generated mnemonic: %v", err)
	}
	if again.Address != acct.Address {
		t.Errorf("generated account %s does not re-derive (%s)", acct.Address, again.Address)
	}

	// Fresh entropy each call.
	m2, _, err := Generate("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m2 == mnemonic {
		t.Error("two generated mnemonics are identical")
	}
}
