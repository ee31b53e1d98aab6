package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Withdrawal relay metrics
	// ============================================
	WithdrawalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_withdrawal_requests_total",
			Help: "Total withdrawal requests by terminal outcome",
		},
		[]string{"outcome"},
	)

	WithdrawalAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_withdrawal_attempts_total",
			Help: "Sub-attempts by contract, method and result",
		},
		[]string{"contract", "method", "result"},
	)

	RelayDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_withdrawal_duration_seconds",
			Help:    "End-to-end relay duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 240, 480, 720},
		},
	)

	GasSpentNative = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_gas_spent_native_total",
		Help: "Native currency spent on gas for confirmed withdrawals",
	})

	GasSpentUSD = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_gas_spent_usd_total",
		Help: "Approximate USD spent on gas for confirmed withdrawals",
	})

	// ============================================
	// Operator wallet metrics
	// ============================================
	OperatorBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_operator_balance_native",
		Help: "Operator wallet native balance at last guard check",
	})

	ChainReachable = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_chain_reachable",
		Help: "RPC node reachability (1=reachable, 0=unreachable)",
	})
)
