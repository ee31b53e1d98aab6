package chain

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// FakeClient is a scripted in-memory adapter for tests. Outcomes are keyed
// by "<contract>:<method>" (lowercased address); anything not scripted
// succeeds.
type FakeClient struct {
	mu sync.Mutex

	Reachable   bool
	BalanceWei  *big.Int
	GasPriceWei *big.Int
	Chain       *big.Int

	// Decimals per token contract; contracts absent from the map fail the
	// decimals() call, exercising the static fallback.
	Decimals map[common.Address]uint8

	// Outcomes scripts sub-attempt behavior per contract and method.
	Outcomes map[string]FakeOutcome

	nonce    uint64
	Sent     []SentTx
	receipts map[common.Hash]*Receipt
	errs     map[common.Hash]error
}

// FakeOutcome scripts one contract+method pair.
type FakeOutcome struct {
	SendErr    error // broadcast rejected
	Reverted   bool  // mined with status 0
	ReceiptErr error // confirmation wait fails (e.g. timeout)
}

// SentTx records one broadcast transaction.
type SentTx struct {
	Contract common.Address
	Method   string
	Nonce    uint64
	GasLimit uint64
	GasPrice *big.Int
	Hash     common.Hash
}

// NewFakeClient returns a reachable, funded fake on chain id 1.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		Reachable:   true,
		BalanceWei:  EthToWei(1),
		GasPriceWei: big.NewInt(20_000_000_000),
		Chain:       big.NewInt(1),
		Decimals:    make(map[common.Address]uint8),
		Outcomes:    make(map[string]FakeOutcome),
		receipts:    make(map[common.Hash]*Receipt),
		errs:        make(map[common.Hash]error),
	}
}

// Script sets the outcome for a contract+method pair.
func (f *FakeClient) Script(contract common.Address, method string, outcome FakeOutcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Outcomes[outcomeKey(contract, method)] = outcome
}

func outcomeKey(contract common.Address, method string) string {
	return strings.ToLower(contract.Hex()) + ":" + method
}

func (f *FakeClient) IsReachable(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Reachable
}

func (f *FakeClient) NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.Reachable {
		return nil, ErrUnavailable
	}
	return new(big.Int).Set(f.BalanceWei), nil
}

func (f *FakeClient) GasPrice(ctx context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.Reachable {
		return nil, ErrUnavailable
	}
	return new(big.Int).Set(f.GasPriceWei), nil
}

func (f *FakeClient) PendingNonce(ctx context.Context, addr common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.Reachable {
		return 0, ErrUnavailable
	}
	return f.nonce, nil
}

func (f *FakeClient) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if decimals, ok := f.Decimals[token]; ok {
		return decimals, nil
	}
	return 0, fmt.Errorf("execution reverted: decimals() on %s", token.Hex())
}

func (f *FakeClient) SignAndSend(ctx context.Context, intent TxIntent, key *ecdsa.PrivateKey) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	method := methodOf(intent.Data)
	outcome := f.Outcomes[outcomeKey(intent.To, method)]
	if outcome.SendErr != nil {
		return common.Hash{}, outcome.SendErr
	}

	hash := crypto.Keccak256Hash(intent.Data, big.NewInt(int64(intent.Nonce)).Bytes(), intent.To.Bytes())
	f.Sent = append(f.Sent, SentTx{
		Contract: intent.To,
		Method:   method,
		Nonce:    intent.Nonce,
		GasLimit: intent.GasLimit,
		GasPrice: new(big.Int).Set(intent.GasPrice),
		Hash:     hash,
	})
	f.nonce++

	if outcome.ReceiptErr != nil {
		f.errs[hash] = outcome.ReceiptErr
		return hash, nil
	}

	status := uint64(1)
	if outcome.Reverted {
		status = 0
	}
	f.receipts[hash] = &Receipt{
		Status:            status,
		GasUsed:           100000,
		EffectiveGasPrice: new(big.Int).Set(intent.GasPrice),
		BlockNumber:       12345678,
		TxHash:            hash,
	}
	return hash, nil
}

func (f *FakeClient) AwaitReceipt(ctx context.Context, txHash common.Hash, timeout time.Duration) (*Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[txHash]; ok {
		return nil, err
	}
	if receipt, ok := f.receipts[txHash]; ok {
		return receipt, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrReceiptTimeout, txHash.Hex())
}

func (f *FakeClient) ChainID() *big.Int {
	return new(big.Int).Set(f.Chain)
}

func (f *FakeClient) Close() {}

func methodOf(data []byte) string {
	parsed, err := loadTokenABI()
	if err != nil || len(data) < 4 {
		return "unknown"
	}
	for name, method := range parsed.Methods {
		if bytes.Equal(method.ID, data[:4]) {
			return name
		}
	}
	return "unknown"
}

// EthToWei converts whole ether to wei, exact for test amounts.
func EthToWei(eth float64) *big.Int {
	wei, _ := new(big.Float).Mul(big.NewFloat(eth), big.NewFloat(1e18)).Int(nil)
	return wei
}
