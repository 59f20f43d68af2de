package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMnemonic is returned when a recovery phrase fails BIP-39
	// checksum validation. Raised before any derivation work.
	ErrInvalidMnemonic = errors.New("invalid mnemonic: checksum validation failed")

	// ErrInsufficientBalance is returned when balance < amount.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientBalanceForFees is returned when the amount alone fits
	// but amount + gasPrice*gasLimit does not.
	ErrInsufficientBalanceForFees = errors.New("insufficient balance to cover amount plus network fees")
)

// Validation failure fields. Each admission failure is reported with the
// field that caused it, not merged into a generic error.
const (
	FieldToken   = "tokenSymbol"
	FieldAmount  = "amount"
	FieldAddress = "toAddress"
)

// ValidationError is a request-level admission failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// AsValidationError unwraps err to a ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
