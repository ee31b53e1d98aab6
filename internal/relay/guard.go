package relay

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/sirupsen/logrus"

	"github.com/jluxury929-hash/gas/internal/chain"
	"github.com/jluxury929-hash/gas/internal/metrics"
)

// Guard is the pre-flight funding check on the operator wallet. The balance
// is read fresh on every call: it changes with every gas-paying transaction.
type Guard struct {
	client   chain.Client
	operator common.Address

	// minWei gates actual withdrawals, readyWei only the reported status.
	minWei   *big.Int
	readyWei *big.Int
}

// NewGuard builds a guard with thresholds given in whole ether.
func NewGuard(client chain.Client, operator common.Address, minEth, readyEth float64) *Guard {
	return &Guard{
		client:   client,
		operator: operator,
		minWei:   chain.EthToWei(minEth),
		readyWei: chain.EthToWei(readyEth),
	}
}

// EnsureFunded aborts the request before any attempt when the operator
// balance sits below the entry threshold. No gas is spent past a failure.
func (g *Guard) EnsureFunded(ctx context.Context) error {
	balance, err := g.client.NativeBalance(ctx, g.operator)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrChainNotReady, err)
	}
	metrics.OperatorBalance.Set(weiToEth(balance))

	if balance.Cmp(g.minWei) < 0 {
		logrus.WithFields(logrus.Fields{
			"operator":    g.operator.Hex(),
			"balance_eth": weiToEth(balance),
			"minimum_eth": weiToEth(g.minWei),
		}).Warn("Operator wallet below relay entry threshold")
		return fmt.Errorf("%w: balance %.6f ETH", ErrInsufficientFunds, weiToEth(balance))
	}
	return nil
}

// Ready reports whether the operator balance clears the looser readiness
// threshold. Used only for externally reported status, never to gate a
// withdrawal.
func (g *Guard) Ready(ctx context.Context) bool {
	balance, err := g.client.NativeBalance(ctx, g.operator)
	if err != nil {
		return false
	}
	return balance.Cmp(g.readyWei) > 0
}

// Balance returns the operator wallet's current native balance.
func (g *Guard) Balance(ctx context.Context) (*big.Int, error) {
	return g.client.NativeBalance(ctx, g.operator)
}

func weiToEth(wei *big.Int) float64 {
	eth, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether)).Float64()
	return eth
}
