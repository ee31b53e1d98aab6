package relay

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jluxury929-hash/gas/internal/chain"
	"github.com/jluxury929-hash/gas/internal/config"
	"github.com/jluxury929-hash/gas/internal/wallet"
)

// well-known hardhat test key, never funded on mainnet
const testPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

const testDestination = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

var (
	primaryAddr   = common.HexToAddress("0x29983BE497D4c1D39Aa80D20Cf74173ae81D2af5")
	secondaryAddr = common.HexToAddress("0x0b8Add0d32eFaF79E6DB4C58CcA61D6eFBCcAa3D")
	tertiaryAddr  = common.HexToAddress("0xf97A395850304b8ec9B8f9c80A17674886612065")
)

func newTestEngine(t *testing.T) (*Engine, *chain.FakeClient) {
	t.Helper()
	fake := chain.NewFakeClient()
	operator, err := wallet.FromPrivateKey(testPrivateKey)
	require.NoError(t, err)
	engine := NewEngine(fake, operator, config.DefaultRegistry(), config.Default().Relay)
	return engine, fake
}

func validRequest() Request {
	return Request{
		DestinationAddress: testDestination,
		Amount:             10,
		TokenSymbol:        "WETH",
	}
}

func failAll(fake *chain.FakeClient) {
	for _, contract := range []common.Address{primaryAddr, secondaryAddr, tertiaryAddr} {
		for _, method := range []string{MethodMint, MethodTransfer} {
			fake.Script(contract, method, chain.FakeOutcome{SendErr: errors.New("execution reverted")})
		}
	}
}

func TestRelaySuccessOnFirstMint(t *testing.T) {
	engine, fake := newTestEngine(t)

	result, err := engine.Relay(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, MethodMint, result.Method)
	assert.Equal(t, "Primary", result.Contract.Name)
	assert.NotEmpty(t, result.TxHash)
	assert.Equal(t, uint64(12345678), result.BlockNumber)
	assert.Equal(t, "WETH", result.TokenSymbol)

	require.Len(t, fake.Sent, 1)
	assert.Equal(t, primaryAddr, fake.Sent[0].Contract)
	assert.Equal(t, uint64(250000), fake.Sent[0].GasLimit)
	// 20 gwei suggested * 1.2
	assert.Equal(t, big.NewInt(24_000_000_000), fake.Sent[0].GasPrice)
}

func TestRelayPreferredContractAttemptedFirst(t *testing.T) {
	engine, fake := newTestEngine(t)

	req := validRequest()
	req.PreferredContract = "0x0b8Add0d32eFaF79E6DB4C58CcA61D6eFBCcAa3D"

	result, err := engine.Relay(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Secondary", result.Contract.Name)
	require.Len(t, fake.Sent, 1)
	assert.Equal(t, secondaryAddr, fake.Sent[0].Contract)
}

func TestRelayPreferredContractCaseInsensitive(t *testing.T) {
	engine, fake := newTestEngine(t)

	req := validRequest()
	req.PreferredContract = "0X0B8ADD0D32EFAF79E6DB4C58CCA61D6EFBCCAA3D"

	_, err := engine.Relay(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, secondaryAddr, fake.Sent[0].Contract)
}

func TestRelayFallsBackToTransferOnSameContract(t *testing.T) {
	engine, fake := newTestEngine(t)
	fake.Script(primaryAddr, MethodMint, chain.FakeOutcome{Reverted: true})

	result, err := engine.Relay(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, MethodTransfer, result.Method)
	assert.Equal(t, "Primary", result.Contract.Name)

	// the reverted mint consumed a nonce, the transfer read a fresh one
	require.Len(t, fake.Sent, 2)
	assert.Equal(t, MethodMint, fake.Sent[0].Method)
	assert.Equal(t, MethodTransfer, fake.Sent[1].Method)
	assert.Equal(t, fake.Sent[0].Nonce+1, fake.Sent[1].Nonce)
	assert.Equal(t, uint64(150000), fake.Sent[1].GasLimit)
}

func TestRelayAdvancesToNextContract(t *testing.T) {
	engine, fake := newTestEngine(t)
	fake.Script(primaryAddr, MethodMint, chain.FakeOutcome{SendErr: errors.New("no mint capability")})
	fake.Script(primaryAddr, MethodTransfer, chain.FakeOutcome{Reverted: true})

	result, err := engine.Relay(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "Secondary", result.Contract.Name)
	assert.Equal(t, MethodMint, result.Method)
}

func TestRelayAllMethodsExhausted(t *testing.T) {
	engine, fake := newTestEngine(t)
	failAll(fake)

	result, err := engine.Relay(context.Background(), validRequest())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrAllMethodsExhausted)
}

func TestRelayReceiptTimeoutTreatedAsAttemptFailure(t *testing.T) {
	engine, fake := newTestEngine(t)
	fake.Script(primaryAddr, MethodMint, chain.FakeOutcome{ReceiptErr: chain.ErrReceiptTimeout})

	result, err := engine.Relay(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, MethodTransfer, result.Method)
	assert.Equal(t, "Primary", result.Contract.Name)
}

func TestRelayGuardShortCircuits(t *testing.T) {
	engine, fake := newTestEngine(t)
	fake.BalanceWei = chain.EthToWei(0.001)

	result, err := engine.Relay(context.Background(), validRequest())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	// no signing or broadcast happened
	assert.Empty(t, fake.Sent)
}

func TestRelayInvalidInput(t *testing.T) {
	engine, fake := newTestEngine(t)

	tests := []struct {
		name string
		req  Request
	}{
		{"malformed address", Request{DestinationAddress: "not-an-address", Amount: 1, TokenSymbol: "WETH"}},
		{"empty address", Request{DestinationAddress: "", Amount: 1, TokenSymbol: "WETH"}},
		{"zero amount", Request{DestinationAddress: testDestination, Amount: 0, TokenSymbol: "WETH"}},
		{"negative amount", Request{DestinationAddress: testDestination, Amount: -3, TokenSymbol: "WETH"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Relay(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Empty(t, fake.Sent)
}

func TestRelayNotReady(t *testing.T) {
	engine := NewEngine(nil, nil, config.DefaultRegistry(), config.Default().Relay)

	_, err := engine.Relay(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrChainNotReady)
	assert.False(t, engine.Ready())
}

func TestRelayIsNotIdempotent(t *testing.T) {
	// two identical requests produce two independent on-chain transactions;
	// there is no deduplication key
	engine, fake := newTestEngine(t)

	first, err := engine.Relay(context.Background(), validRequest())
	require.NoError(t, err)
	second, err := engine.Relay(context.Background(), validRequest())
	require.NoError(t, err)

	require.Len(t, fake.Sent, 2)
	assert.NotEqual(t, first.TxHash, second.TxHash)
	assert.NotEqual(t, fake.Sent[0].Nonce, fake.Sent[1].Nonce)
}

func TestRelayConcurrentRequestsUseDistinctNonces(t *testing.T) {
	// overlapping requests share the operator wallet; every broadcast must
	// still carry a fresh nonce
	engine, fake := newTestEngine(t)

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Relay(context.Background(), validRequest())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, fake.Sent, workers)
	seen := make(map[uint64]bool)
	for _, tx := range fake.Sent {
		assert.False(t, seen[tx.Nonce], "nonce %d broadcast twice", tx.Nonce)
		seen[tx.Nonce] = true
	}
}

func TestRelayCancelledContext(t *testing.T) {
	engine, fake := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Relay(ctx, validRequest())
	assert.Error(t, err)
	assert.Empty(t, fake.Sent)
}

func TestBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		decimals uint8
		want     string
	}{
		{"10 WETH at 18 decimals", 10, 18, "10000000000000000000"},
		{"1.5 tokens at 18 decimals", 1.5, 18, "1500000000000000000"},
		{"0.25 WBTC at 8 decimals", 0.25, 8, "25000000"},
		{"1 token at 0 decimals", 1, 0, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BaseUnits(tt.amount, tt.decimals).String())
		})
	}
}

func TestRelayUsesOnChainDecimalsWhenAvailable(t *testing.T) {
	engine, fake := newTestEngine(t)
	fake.Decimals[primaryAddr] = 8

	req := validRequest()
	req.Amount = 0.5
	req.TokenSymbol = "WBTC"

	_, err := engine.Relay(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, fake.Sent, 1)
}

func TestBumpGasPrice(t *testing.T) {
	bumped := bumpGasPrice(big.NewInt(10_000_000_000), 1.2)
	assert.Equal(t, big.NewInt(12_000_000_000), bumped)
}
