package domain

import "time"

// TxStatus classifies a mined transaction by its receipt status flag.
// A transaction can be mined and still report failure.
type TxStatus string

const (
	TxStatusSuccess TxStatus = "success"
	TxStatusFailed  TxStatus = "failed"
)

// TransactionRecord is the ledger entry written once per broadcast that
// reached a receipt. Immutable after append; TxHash is the natural key.
type TransactionRecord struct {
	ID                string    `json:"id" db:"id"`
	Timestamp         time.Time `json:"timestamp" db:"created_at"`
	IPAddress         string    `json:"ipAddress" db:"ip_address"`
	WalletAddress     string    `json:"walletAddress" db:"wallet_address"`
	ToAddress         string    `json:"toAddress" db:"to_address"`
	ValueSent         string    `json:"valueSent" db:"value_sent"`
	TxHash            string    `json:"txHash" db:"tx_hash"`
	Network           string    `json:"network" db:"network"`
	GasPrice          string    `json:"gasPrice" db:"gas_price"`
	GasUsed           uint64    `json:"gasUsed" db:"gas_used"`
	BlockNumber       uint64    `json:"blockNumber" db:"block_number"`
	Status            TxStatus  `json:"status" db:"status"`
	Nonce             uint64    `json:"nonce" db:"nonce"`
	TokenSymbol       string    `json:"tokenSymbol" db:"token_symbol"`
	EffectiveGasPrice string    `json:"effectiveGasPrice" db:"effective_gas_price"`
}

// LoginRecord is an append-only login event per wallet address.
type LoginRecord struct {
	ID            string    `json:"id" db:"id"`
	Timestamp     time.Time `json:"timestamp" db:"created_at"`
	IPAddress     string    `json:"ipAddress" db:"ip_address"`
	WalletAddress string    `json:"walletAddress" db:"wallet_address"`
	DeviceInfo    string    `json:"deviceInfo" db:"device_info"`
	Location      string    `json:"location" db:"location"`
	Event         string    `json:"event" db:"event"`
}
