package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jluxury929-hash/gas/internal/chain"
	"github.com/jluxury929-hash/gas/internal/config"
	"github.com/jluxury929-hash/gas/internal/relay"
	"github.com/jluxury929-hash/gas/internal/wallet"
)

const testPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*gin.Engine, *chain.FakeClient) {
	t.Helper()
	fake := chain.NewFakeClient()
	operator, err := wallet.FromPrivateKey(testPrivateKey)
	require.NoError(t, err)
	engine := relay.NewEngine(fake, operator, config.DefaultRegistry(), config.Default().Relay)

	r := gin.New()
	withdrawHandler := NewWithdrawHandler(engine)
	statusHandler := NewStatusHandler(engine)
	r.POST("/api/engine/withdraw", withdrawHandler.WithdrawHandler)
	r.GET("/", statusHandler.RootStatusHandler)
	r.GET("/api/health", statusHandler.HealthHandler)
	return r, fake
}

func postWithdraw(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/engine/withdraw", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const validBody = `{"walletAddress":"0x70997970C51812dc3A010C7d01b50e0d17dc79C8","amount":10,"tokenSymbol":"WETH"}`

func TestWithdrawSuccess(t *testing.T) {
	r, _ := newTestServer(t)

	w := postWithdraw(r, validBody)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "mint", resp["method"])
	assert.Equal(t, "Primary", resp["contract"])
	assert.Equal(t, true, resp["adminPaidGas"])
	assert.Equal(t, "WETH", resp["symbol"])
	assert.NotEmpty(t, resp["txHash"])
}

func TestWithdrawPreferredContract(t *testing.T) {
	r, _ := newTestServer(t)

	body := `{"walletAddress":"0x70997970C51812dc3A010C7d01b50e0d17dc79C8","amount":10,"tokenSymbol":"WETH","tokenAddress":"0x0b8Add0d32eFaF79E6DB4C58CcA61D6eFBCcAa3D"}`
	w := postWithdraw(r, body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Secondary", resp["contract"])
	assert.Equal(t, "0x0b8Add0d32eFaF79E6DB4C58CcA61D6eFBCcAa3D", resp["contractAddress"])
}

func TestWithdrawBadRequests(t *testing.T) {
	r, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{not json`},
		{"missing wallet", `{"amount":10,"tokenSymbol":"WETH"}`},
		{"zero amount", `{"walletAddress":"0x70997970C51812dc3A010C7d01b50e0d17dc79C8","amount":0,"tokenSymbol":"WETH"}`},
		{"negative amount", `{"walletAddress":"0x70997970C51812dc3A010C7d01b50e0d17dc79C8","amount":-1,"tokenSymbol":"WETH"}`},
		{"malformed address", `{"walletAddress":"nope","amount":10,"tokenSymbol":"WETH"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postWithdraw(r, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestWithdrawNotReady(t *testing.T) {
	engine := relay.NewEngine(nil, nil, config.DefaultRegistry(), config.Default().Relay)
	r := gin.New()
	r.POST("/api/engine/withdraw", NewWithdrawHandler(engine).WithdrawHandler)

	w := postWithdraw(r, validBody)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWithdrawUnderfunded(t *testing.T) {
	r, fake := newTestServer(t)
	fake.BalanceWei = chain.EthToWei(0.001)

	w := postWithdraw(r, validBody)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, fake.Sent)
}

func TestWithdrawAllMethodsExhausted(t *testing.T) {
	r, fake := newTestServer(t)
	for _, contract := range config.DefaultRegistry().Contracts {
		addr := common.HexToAddress(contract.Address)
		fake.Script(addr, relay.MethodMint, chain.FakeOutcome{SendErr: errors.New("revert")})
		fake.Script(addr, relay.MethodTransfer, chain.FakeOutcome{SendErr: errors.New("revert")})
	}

	w := postWithdraw(r, validBody)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// the response never says which contract or method failed
	assert.Equal(t, "Withdrawal failed", resp["error"])
}

func TestRootStatus(t *testing.T) {
	r, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["web3_ready"])
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", resp["admin_wallet"])
	assert.Equal(t, "private_key", resp["wallet_source"])
	assert.Equal(t, float64(3), resp["total_contracts"])
	assert.Equal(t, true, resp["gasless_enabled"])
}

func TestHealth(t *testing.T) {
	r, fake := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["web3_connected"])
	assert.Equal(t, true, resp["admin_configured"])
	assert.Equal(t, true, resp["gasless_ready"])

	fake.BalanceWei = chain.EthToWei(0.002)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["gasless_ready"])
}
