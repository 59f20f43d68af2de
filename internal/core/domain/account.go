package domain

// Account represents a derived wallet account
type Account struct {
	Address       string `json:"address"`
	PrivateKeyHex string `json:"-"`
}

// Credential store key names. Exactly two logical secrets exist per
// deployment; both are opaque strings to the store.
const (
	CredentialWalletAddress = "walletAddress"
	CredentialPrivateKey    = "pvtKey"
)
