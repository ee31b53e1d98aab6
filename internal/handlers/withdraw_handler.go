package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jluxury929-hash/gas/internal/relay"
)

// WithdrawHandler exposes the relay engine over the withdraw endpoint.
type WithdrawHandler struct {
	engine *relay.Engine
}

// NewWithdrawHandler creates a new WithdrawHandler instance
func NewWithdrawHandler(engine *relay.Engine) *WithdrawHandler {
	return &WithdrawHandler{engine: engine}
}

type withdrawRequest struct {
	WalletAddress string  `json:"walletAddress"`
	Amount        float64 `json:"amount"`
	TokenSymbol   string  `json:"tokenSymbol"`
	TokenAddress  string  `json:"tokenAddress"`
	// Gasless is accepted for wire compatibility; every withdrawal through
	// this service is operator-paid.
	Gasless bool `json:"gasless"`
}

// WithdrawHandler handles gasless withdrawal requests
// POST /api/engine/withdraw
func (h *WithdrawHandler) WithdrawHandler(c *gin.Context) {
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.WalletAddress == "" || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !h.engine.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Backend not connected"})
		return
	}

	logrus.WithFields(logrus.Fields{
		"wallet": req.WalletAddress,
		"amount": req.Amount,
		"symbol": req.TokenSymbol,
	}).Info("Gasless withdrawal requested")

	result, err := h.engine.Relay(c.Request.Context(), relay.Request{
		DestinationAddress: req.WalletAddress,
		Amount:             req.Amount,
		TokenSymbol:        req.TokenSymbol,
		PreferredContract:  req.TokenAddress,
	})
	if err != nil {
		h.writeRelayError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"method":          result.Method,
		"contract":        result.Contract.Name,
		"contractAddress": result.Contract.Address,
		"txHash":          result.TxHash,
		"blockNumber":     result.BlockNumber,
		"gasUsed":         result.GasCostNative,
		"gasUsedUSD":      result.GasCostUSD,
		"symbol":          result.TokenSymbol,
		"adminPaidGas":    true,
	})
}

// writeRelayError maps engine errors to transport responses. The response
// stays generic on purpose: callers never learn which contract or method
// failed, only the per-attempt logs carry that.
func (h *WithdrawHandler) writeRelayError(c *gin.Context, err error) {
	logrus.WithError(err).Error("Withdrawal failed")

	switch {
	case errors.Is(err, relay.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
	case errors.Is(err, relay.ErrChainNotReady):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Backend not connected"})
	case errors.Is(err, relay.ErrInsufficientFunds):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Admin wallet low on ETH"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Withdrawal failed"})
	}
}
