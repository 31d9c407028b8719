package ledger

import (
	"errors"
	"fmt"
)

// ErrInvalidAmount is returned when a cash amount is negative or not a
// finite number.
var ErrInvalidAmount = errors.New("amount must be a non-negative number")

// InsufficientFundsError is returned by Buy when the order cost exceeds the
// available cash balance.
type InsufficientFundsError struct {
	Required  float64
	Available float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need $%.2f, have $%.2f", e.Required, e.Available)
}

// InsufficientSharesError is returned by Sell when the requested quantity
// exceeds the held position. Held is 0 when no position exists.
type InsufficientSharesError struct {
	Symbol    string
	Held      int64
	Requested int64
}

func (e *InsufficientSharesError) Error() string {
	return fmt.Sprintf("insufficient shares of %s: have %d, need %d", e.Symbol, e.Held, e.Requested)
}
