package relay

import (
	"math/big"

	"github.com/jluxury929-hash/gas/internal/chain"
)

// Cost is the gas spend of one confirmed transaction. USD uses the fixed
// configured native price, an operational approximation rather than an
// accounting-grade figure.
type Cost struct {
	Native float64
	USD    float64
}

// CostFromReceipt converts consumed gas into native and USD cost figures.
func CostFromReceipt(receipt *chain.Receipt, nativePriceUSD float64) Cost {
	wei := new(big.Int).Mul(new(big.Int).SetUint64(receipt.GasUsed), receipt.EffectiveGasPrice)
	native := weiToEth(wei)
	return Cost{
		Native: native,
		USD:    native * nativePriceUSD,
	}
}
