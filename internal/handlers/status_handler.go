package handlers

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/params"
	"github.com/gin-gonic/gin"

	"github.com/jluxury929-hash/gas/internal/metrics"
	"github.com/jluxury929-hash/gas/internal/relay"
)

const (
	serviceName    = "Gasless Ultra Backend"
	serviceVersion = "1.0.0"
)

// StatusHandler serves the service status and health endpoints.
type StatusHandler struct {
	engine *relay.Engine
}

// NewStatusHandler creates a new StatusHandler instance
func NewStatusHandler(engine *relay.Engine) *StatusHandler {
	return &StatusHandler{engine: engine}
}

// RootStatusHandler reports operator wallet and registry status
// GET /
func (h *StatusHandler) RootStatusHandler(c *gin.Context) {
	registry := h.engine.Registry()

	status := gin.H{
		"service":           serviceName,
		"version":           serviceVersion,
		"status":            "online",
		"web3_ready":        h.engine.Ready(),
		"admin_wallet":      nil,
		"admin_eth_balance": nil,
		"wallet_source":     "none",
		"contracts":         registry.Contracts,
		"total_contracts":   len(registry.Contracts),
		"supported_tokens":  registry.SupportedSymbols(),
		"network":           "Ethereum Mainnet",
		"chain_id":          1,
		"gasless_enabled":   false,
	}

	if operator := h.engine.Operator(); operator != nil {
		status["admin_wallet"] = operator.Address.Hex()
		status["wallet_source"] = string(operator.Source)
	}
	if h.engine.Ready() {
		status["chain_id"] = h.engine.Client().ChainID().Int64()
		if balance, err := h.engine.Guard().Balance(c.Request.Context()); err == nil {
			status["admin_eth_balance"] = ethFloat(balance)
		}
		status["gasless_enabled"] = h.engine.Guard().Ready(c.Request.Context())
	}

	c.JSON(http.StatusOK, status)
}

// HealthHandler reports reachability and funding readiness
// GET /api/health
func (h *StatusHandler) HealthHandler(c *gin.Context) {
	health := gin.H{
		"web3_connected":    false,
		"admin_configured":  h.engine.Operator() != nil,
		"admin_eth_balance": nil,
		"gasless_ready":     false,
	}

	if h.engine.Ready() {
		ctx := c.Request.Context()
		reachable := h.engine.Client().IsReachable(ctx)
		health["web3_connected"] = reachable
		if reachable {
			metrics.ChainReachable.Set(1)
		} else {
			metrics.ChainReachable.Set(0)
		}
		if balance, err := h.engine.Guard().Balance(ctx); err == nil {
			health["admin_eth_balance"] = ethFloat(balance)
		}
		health["gasless_ready"] = h.engine.Guard().Ready(ctx)
	}

	c.JSON(http.StatusOK, health)
}

func ethFloat(wei *big.Int) float64 {
	eth, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether)).Float64()
	return eth
}
