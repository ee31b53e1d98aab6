package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

// EthClient is the ethclient-backed adapter.
type EthClient struct {
	client  *ethclient.Client
	chainID *big.Int
}

// Dial connects to the RPC endpoint and verifies the chain id matches the
// configured one.
func Dial(ctx context.Context, rpcURL string, expectedChainID int64) (*EthClient, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", rpcURL, err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("chain: chain id query: %w", err)
	}
	if expectedChainID != 0 && chainID.Int64() != expectedChainID {
		client.Close()
		return nil, fmt.Errorf("chain: connected to chain %d, expected %d", chainID.Int64(), expectedChainID)
	}

	logrus.WithFields(logrus.Fields{
		"chain_id": chainID.Int64(),
	}).Info("Connected to Ethereum node")

	return &EthClient{client: client, chainID: chainID}, nil
}

func (e *EthClient) IsReachable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := e.client.BlockNumber(ctx)
	return err == nil
}

func (e *EthClient) NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	balance, err := e.client.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: balance query: %v", ErrUnavailable, err)
	}
	return balance, nil
}

func (e *EthClient) GasPrice(ctx context.Context) (*big.Int, error) {
	price, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: gas price query: %v", ErrUnavailable, err)
	}
	return price, nil
}

func (e *EthClient) PendingNonce(ctx context.Context, addr common.Address) (uint64, error) {
	nonce, err := e.client.PendingNonceAt(ctx, addr)
	if err != nil {
		return 0, fmt.Errorf("%w: nonce query: %v", ErrUnavailable, err)
	}
	return nonce, nil
}

func (e *EthClient) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	data, err := packDecimals()
	if err != nil {
		return 0, err
	}
	output, err := e.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return 0, fmt.Errorf("decimals call on %s: %w", token.Hex(), err)
	}
	return unpackDecimals(output)
}

// SignAndSend signs a legacy transaction and broadcasts it. Callers must
// hold the operator nonce lock across PendingNonce and this call.
func (e *EthClient) SignAndSend(ctx context.Context, intent TxIntent, key *ecdsa.PrivateKey) (common.Hash, error) {
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    intent.Nonce,
		To:       &intent.To,
		Value:    big.NewInt(0),
		Gas:      intent.GasLimit,
		GasPrice: intent.GasPrice,
		Data:     intent.Data,
	})

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(e.chainID), key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}

	if err := e.client.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}
	return signedTx.Hash(), nil
}

// AwaitReceipt polls for the receipt until it appears or timeout elapses.
func (e *EthClient) AwaitReceipt(ctx context.Context, txHash common.Hash, timeout time.Duration) (*Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		receipt, err := e.client.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return fromEthReceipt(receipt), nil
		}

		select {
		case <-ctx.Done():
			// one final forced query, the mining race loses to the deadline
			// surprisingly often on slow nodes
			finalCtx, finalCancel := context.WithTimeout(context.Background(), 10*time.Second)
			receipt, err := e.client.TransactionReceipt(finalCtx, txHash)
			finalCancel()
			if err == nil && receipt != nil {
				return fromEthReceipt(receipt), nil
			}
			return nil, fmt.Errorf("%w: %s", ErrReceiptTimeout, txHash.Hex())
		case <-ticker.C:
		}
	}
}

func fromEthReceipt(receipt *types.Receipt) *Receipt {
	effectiveGasPrice := receipt.EffectiveGasPrice
	if effectiveGasPrice == nil {
		effectiveGasPrice = big.NewInt(0)
	}
	blockNumber := uint64(0)
	if receipt.BlockNumber != nil {
		blockNumber = receipt.BlockNumber.Uint64()
	}
	return &Receipt{
		Status:            receipt.Status,
		GasUsed:           receipt.GasUsed,
		EffectiveGasPrice: effectiveGasPrice,
		BlockNumber:       blockNumber,
		TxHash:            receipt.TxHash,
	}
}

func (e *EthClient) ChainID() *big.Int {
	return new(big.Int).Set(e.chainID)
}

func (e *EthClient) Close() {
	e.client.Close()
}
