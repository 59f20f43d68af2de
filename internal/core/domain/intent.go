package domain

// TransferIntent is a request to move funds from the relay wallet
// to a recipient. Amount is a human decimal string; scaling to base
// units happens after token lookup.
type TransferIntent struct {
	TokenSymbol string `json:"tokenSymbol"`
	Amount      string `json:"amount"`
	ToAddress   string `json:"toAddress"`
	Network     string `json:"network,omitempty"`
}
