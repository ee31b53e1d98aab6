// Package chain wraps the Ethereum RPC node behind the small surface the
// relay engine needs. The adapter never retries on its own: retry and
// fallback policy belong to the caller.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrUnavailable the node did not answer.
	ErrUnavailable = errors.New("chain: node unavailable")
	// ErrReceiptTimeout the transaction was not confirmed inside the wait bound.
	ErrReceiptTimeout = errors.New("chain: receipt wait timed out")
)

// TxIntent is one transaction to be signed and broadcast. Built fresh per
// attempt and never reused: the nonce must be re-read after any failed
// submission.
type TxIntent struct {
	To       common.Address
	Data     []byte
	Nonce    uint64
	GasLimit uint64
	GasPrice *big.Int
}

// Receipt is the confirmation record of a mined transaction.
type Receipt struct {
	Status            uint64
	GasUsed           uint64
	EffectiveGasPrice *big.Int
	BlockNumber       uint64
	TxHash            common.Hash
}

// Succeeded reports whether the transaction executed without reverting.
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == 1
}

// Client is the node adapter used by the relay engine.
type Client interface {
	// IsReachable reports whether the node currently answers RPC calls.
	IsReachable(ctx context.Context) bool

	// NativeBalance returns the current native-currency balance in wei.
	NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error)

	// GasPrice returns the node's suggested gas price in wei.
	GasPrice(ctx context.Context) (*big.Int, error)

	// PendingNonce returns the next nonce for addr including pending txs.
	PendingNonce(ctx context.Context, addr common.Address) (uint64, error)

	// TokenDecimals calls decimals() on a token contract.
	TokenDecimals(ctx context.Context, token common.Address) (uint8, error)

	// SignAndSend signs the intent with key and broadcasts it.
	SignAndSend(ctx context.Context, intent TxIntent, key *ecdsa.PrivateKey) (common.Hash, error)

	// AwaitReceipt blocks until the transaction is mined or timeout elapses.
	AwaitReceipt(ctx context.Context, txHash common.Hash, timeout time.Duration) (*Receipt, error)

	// ChainID returns the connected chain's id.
	ChainID() *big.Int

	Close()
}
