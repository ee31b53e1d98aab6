// Package relay implements the withdrawal relay engine: candidate contract
// ordering, the mint-then-transfer fallback chain, transaction construction
// and confirmation, and cost reporting.
package relay

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/jluxury929-hash/gas/internal/chain"
	"github.com/jluxury929-hash/gas/internal/config"
	"github.com/jluxury929-hash/gas/internal/metrics"
	"github.com/jluxury929-hash/gas/internal/wallet"
)

const (
	MethodMint     = "mint"
	MethodTransfer = "transfer"
)

// Request is one validated-shape withdrawal request. Immutable input.
type Request struct {
	DestinationAddress string
	Amount             float64
	TokenSymbol        string
	PreferredContract  string
}

// Result is the outcome of the single successful attempt. The engine
// returns the first success and performs no further attempts.
type Result struct {
	Method        string
	Contract      config.ContractDescriptor
	TxHash        string
	BlockNumber   uint64
	GasCostNative float64
	GasCostUSD    float64
	TokenSymbol   string
}

// Engine orchestrates withdrawals on behalf of the operator wallet.
type Engine struct {
	client   chain.Client
	operator *wallet.Wallet
	registry *config.Registry
	cfg      config.RelayConfig
	guard    *Guard

	// submitMu serializes nonce-acquisition-through-broadcast across
	// concurrent requests sharing the operator wallet. Without it two
	// relays reading the same pending nonce would collide, dropping or
	// replacing one transaction. Receipt waits run outside the lock.
	submitMu sync.Mutex
}

// NewEngine wires the relay engine. client and operator may be nil when
// startup could not initialize them; the engine then rejects every request
// with ErrChainNotReady instead of crashing the service.
func NewEngine(client chain.Client, operator *wallet.Wallet, registry *config.Registry, cfg config.RelayConfig) *Engine {
	engine := &Engine{
		client:   client,
		operator: operator,
		registry: registry,
		cfg:      cfg,
	}
	if client != nil && operator != nil {
		engine.guard = NewGuard(client, operator.Address, cfg.MinRelayBalanceEth, cfg.ReadyBalanceEth)
	}
	return engine
}

// Ready reports whether the engine can accept withdrawals at all.
func (e *Engine) Ready() bool {
	return e.client != nil && e.operator != nil
}

// Guard exposes the funding guard for status reporting. Nil when not ready.
func (e *Engine) Guard() *Guard {
	return e.guard
}

// Client exposes the chain adapter for status reporting. Nil when not ready.
func (e *Engine) Client() chain.Client {
	return e.client
}

// Operator returns the operator wallet, nil when not configured.
func (e *Engine) Operator() *wallet.Wallet {
	return e.operator
}

// Registry returns the contract registry.
func (e *Engine) Registry() *config.Registry {
	return e.registry
}

// Relay processes one withdrawal request end to end. Attempts run strictly
// sequentially: every candidate contract is tried with mint then transfer,
// and the first confirmed transaction wins. Per-attempt failures are logged
// and absorbed; only guard failures, input failures and total exhaustion
// escape.
func (e *Engine) Relay(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	result, err := e.relay(ctx, req)
	metrics.RelayDuration.Observe(time.Since(start).Seconds())
	metrics.WithdrawalRequests.WithLabelValues(outcomeLabel(err)).Inc()
	return result, err
}

func (e *Engine) relay(ctx context.Context, req Request) (*Result, error) {
	if !e.Ready() {
		return nil, ErrChainNotReady
	}
	if !common.IsHexAddress(req.DestinationAddress) {
		return nil, fmt.Errorf("%w: malformed destination address %q", ErrInvalidInput, req.DestinationAddress)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %v", ErrInvalidInput, req.Amount)
	}

	if err := e.guard.EnsureFunded(ctx); err != nil {
		return nil, err
	}

	destination := common.HexToAddress(req.DestinationAddress)
	candidates := e.registry.OrderedCandidates(req.PreferredContract)

	log := logrus.WithFields(logrus.Fields{
		"destination": destination.Hex(),
		"amount":      req.Amount,
		"symbol":      req.TokenSymbol,
	})
	log.Info("Processing gasless withdrawal")

	for i, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		contractAddr := common.HexToAddress(candidate.Address)
		log.WithFields(logrus.Fields{
			"try":      i + 1,
			"contract": candidate.Name,
			"address":  candidate.Address,
		}).Info("Trying candidate contract")

		decimals := e.resolveDecimals(ctx, contractAddr, req.TokenSymbol)
		amountBase := BaseUnits(req.Amount, decimals)

		// one gas price query per candidate; the nonce is re-read before
		// every signing step instead
		gasPrice, err := e.client.GasPrice(ctx)
		if err != nil {
			e.logAttempt(&attemptError{Contract: candidate.Name, Method: "-", Stage: "gas_price", Err: err})
			continue
		}
		gasPrice = bumpGasPrice(gasPrice, e.cfg.GasPriceMultiplier)

		for _, method := range []string{MethodMint, MethodTransfer} {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			receipt, attemptErr := e.attempt(ctx, candidate, contractAddr, method, destination, amountBase, gasPrice)
			if attemptErr != nil {
				e.logAttempt(attemptErr)
				continue
			}

			cost := CostFromReceipt(receipt, e.cfg.NativePriceUSD)
			metrics.WithdrawalAttempts.WithLabelValues(candidate.Name, method, "success").Inc()
			metrics.GasSpentNative.Add(cost.Native)
			metrics.GasSpentUSD.Add(cost.USD)

			log.WithFields(logrus.Fields{
				"method":       method,
				"contract":     candidate.Name,
				"tx_hash":      receipt.TxHash.Hex(),
				"block_number": receipt.BlockNumber,
				"gas_cost_eth": cost.Native,
				"gas_cost_usd": cost.USD,
			}).Info("Withdrawal confirmed")

			return &Result{
				Method:        method,
				Contract:      candidate,
				TxHash:        receipt.TxHash.Hex(),
				BlockNumber:   receipt.BlockNumber,
				GasCostNative: cost.Native,
				GasCostUSD:    cost.USD,
				TokenSymbol:   req.TokenSymbol,
			}, nil
		}
	}

	return nil, ErrAllMethodsExhausted
}

// attempt runs one contract+method sub-attempt: build, sign, broadcast,
// confirm. The submit lock covers nonce read through broadcast only.
func (e *Engine) attempt(ctx context.Context, candidate config.ContractDescriptor, contractAddr common.Address, method string, destination common.Address, amountBase, gasPrice *big.Int) (*chain.Receipt, *attemptError) {
	var (
		data []byte
		err  error
	)
	switch method {
	case MethodMint:
		data, err = chain.PackMint(destination, amountBase)
	case MethodTransfer:
		data, err = chain.PackTransfer(destination, amountBase)
	default:
		err = fmt.Errorf("unknown method %q", method)
	}
	if err != nil {
		return nil, &attemptError{Contract: candidate.Name, Method: method, Stage: "build", Err: err}
	}

	gasLimit := e.cfg.TransferGasLimit
	if method == MethodMint {
		gasLimit = e.cfg.MintGasLimit
	}

	txHash, attemptErr := e.submit(ctx, candidate, method, chain.TxIntent{
		To:       contractAddr,
		Data:     data,
		GasLimit: gasLimit,
		GasPrice: gasPrice,
	})
	if attemptErr != nil {
		return nil, attemptErr
	}

	receipt, err := e.client.AwaitReceipt(ctx, txHash, e.cfg.ReceiptTimeout())
	if err != nil {
		metrics.WithdrawalAttempts.WithLabelValues(candidate.Name, method, "timeout").Inc()
		return nil, &attemptError{Contract: candidate.Name, Method: method, Stage: "confirm", Err: err}
	}
	if !receipt.Succeeded() {
		metrics.WithdrawalAttempts.WithLabelValues(candidate.Name, method, "reverted").Inc()
		return nil, &attemptError{
			Contract: candidate.Name,
			Method:   method,
			Stage:    "reverted",
			Err:      fmt.Errorf("transaction %s reverted on-chain", txHash.Hex()),
		}
	}
	return receipt, nil
}

func (e *Engine) submit(ctx context.Context, candidate config.ContractDescriptor, method string, intent chain.TxIntent) (common.Hash, *attemptError) {
	e.submitMu.Lock()
	defer e.submitMu.Unlock()

	nonce, err := e.client.PendingNonce(ctx, e.operator.Address)
	if err != nil {
		metrics.WithdrawalAttempts.WithLabelValues(candidate.Name, method, "nonce_error").Inc()
		return common.Hash{}, &attemptError{Contract: candidate.Name, Method: method, Stage: "nonce", Err: err}
	}
	intent.Nonce = nonce

	txHash, err := e.client.SignAndSend(ctx, intent, e.operator.PrivateKey)
	if err != nil {
		metrics.WithdrawalAttempts.WithLabelValues(candidate.Name, method, "send_error").Inc()
		return common.Hash{}, &attemptError{Contract: candidate.Name, Method: method, Stage: "send", Err: err}
	}
	return txHash, nil
}

// resolveDecimals queries decimals() on-chain, falling back to the static
// table when the contract refuses the call.
func (e *Engine) resolveDecimals(ctx context.Context, contractAddr common.Address, symbol string) uint8 {
	decimals, err := e.client.TokenDecimals(ctx, contractAddr)
	if err != nil {
		fallback := e.registry.FallbackDecimals(symbol)
		logrus.WithFields(logrus.Fields{
			"contract": contractAddr.Hex(),
			"symbol":   symbol,
			"fallback": fallback,
		}).Debug("decimals() call failed, using static fallback")
		return fallback
	}
	return decimals
}

func (e *Engine) logAttempt(attemptErr *attemptError) {
	logrus.WithFields(logrus.Fields{
		"contract": attemptErr.Contract,
		"method":   attemptErr.Method,
		"stage":    attemptErr.Stage,
		"error":    attemptErr.Err.Error(),
	}).Warn("Withdrawal attempt failed, continuing fallback chain")
}

// BaseUnits converts a human-readable amount to the token's smallest unit:
// floor(amount * 10^decimals).
func BaseUnits(amount float64, decimals uint8) *big.Int {
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	base, _ := new(big.Float).Mul(big.NewFloat(amount), scale).Int(nil)
	return base
}

func bumpGasPrice(price *big.Int, multiplier float64) *big.Int {
	bumped, _ := new(big.Float).Mul(new(big.Float).SetInt(price), big.NewFloat(multiplier)).Int(nil)
	return bumped
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrChainNotReady):
		return "chain_not_ready"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrAllMethodsExhausted):
		return "exhausted"
	default:
		return "error"
	}
}
