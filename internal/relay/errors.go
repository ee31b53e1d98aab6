package relay

import (
	"errors"
	"fmt"
)

// Terminal error taxonomy. Per-attempt failures never escape the engine;
// only these reach the facade.
var (
	// ErrInvalidInput malformed destination address or non-positive amount.
	ErrInvalidInput = errors.New("relay: invalid input")

	// ErrChainNotReady the chain client or operator wallet was never initialized.
	ErrChainNotReady = errors.New("relay: chain client not ready")

	// ErrInsufficientFunds the operator wallet is below the relay entry threshold.
	ErrInsufficientFunds = errors.New("relay: operator wallet underfunded")

	// ErrAllMethodsExhausted every candidate contract failed both issuance methods.
	ErrAllMethodsExhausted = errors.New("relay: all withdrawal methods failed")
)

// attemptError captures one failed sub-attempt with enough context for
// structured logging. It is absorbed by the fallback chain, never returned
// to callers.
type attemptError struct {
	Contract string
	Method   string
	Stage    string // build, nonce, send, confirm, reverted
	Err      error
}

func (a *attemptError) Error() string {
	return fmt.Sprintf("%s %s failed at %s: %v", a.Contract, a.Method, a.Stage, a.Err)
}

func (a *attemptError) Unwrap() error {
	return a.Err
}
