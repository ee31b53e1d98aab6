package chain

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Minimal ABI for the issuance contracts. Not every deployed candidate
// implements every method; a missing method surfaces as a revert and the
// engine falls through to the next one.
const tokenABIJSON = `[
	{"name":"mint","type":"function","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"name":"transfer","type":"function","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]}
]`

var (
	tokenABIOnce sync.Once
	tokenABI     abi.ABI
	tokenABIErr  error
)

func loadTokenABI() (abi.ABI, error) {
	tokenABIOnce.Do(func() {
		tokenABI, tokenABIErr = abi.JSON(strings.NewReader(tokenABIJSON))
	})
	return tokenABI, tokenABIErr
}

// PackMint encodes a mint(address,uint256) call.
func PackMint(to common.Address, amount *big.Int) ([]byte, error) {
	parsed, err := loadTokenABI()
	if err != nil {
		return nil, fmt.Errorf("token abi: %w", err)
	}
	return parsed.Pack("mint", to, amount)
}

// PackTransfer encodes a transfer(address,uint256) call.
func PackTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	parsed, err := loadTokenABI()
	if err != nil {
		return nil, fmt.Errorf("token abi: %w", err)
	}
	return parsed.Pack("transfer", to, amount)
}

func packDecimals() ([]byte, error) {
	parsed, err := loadTokenABI()
	if err != nil {
		return nil, fmt.Errorf("token abi: %w", err)
	}
	return parsed.Pack("decimals")
}

func unpackDecimals(output []byte) (uint8, error) {
	parsed, err := loadTokenABI()
	if err != nil {
		return 0, fmt.Errorf("token abi: %w", err)
	}
	values, err := parsed.Unpack("decimals", output)
	if err != nil {
		return 0, fmt.Errorf("decimals unpack: %w", err)
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("decimals: unexpected output arity %d", len(values))
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals: unexpected output type %T", values[0])
	}
	return decimals, nil
}
