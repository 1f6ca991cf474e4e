// Package metrics exposes ledger activity to Prometheus.
package metrics

import (
	"math/big"
	"net/http"

	"github.com/cfit-project/cfit-ledger/config"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cfit"

// operation results
const (
	ResultOK       = "ok"
	ResultRejected = "rejected" // refused by a ledger rule
	ResultError    = "error"    // storage or encoding failure
)

var registry = prometheus.NewRegistry()

var (
	operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_operations_total",
		Help:      "Ledger operations by kind and result.",
	}, []string{"op", "result"})

	poolBalance = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pool_balance_coins",
		Help:      "Balance of the ledger pool address, staked principal included.",
	})
	totalStaked = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "total_staked_coins",
		Help:      "Principal currently locked in pending stakes.",
	})
	rewardsPaid = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rewards_paid_coins",
		Help:      "Staking rewards paid since genesis.",
	})
	activeStakes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_stakes",
		Help:      "Number of pending stake records.",
	})
)

func init() {
	registry.MustRegister(
		operations, poolBalance, totalStaked, rewardsPaid, activeStakes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func ObserveOp(op, result string) {
	operations.WithLabelValues(op, result).Inc()
}

// Snapshot is the subset of ledger stats mirrored as gauges
type Snapshot struct {
	PoolBalance  *uint256.Int
	TotalStaked  *uint256.Int
	RewardsPaid  *uint256.Int
	ActiveStakes uint64
}

func Update(s Snapshot) {
	poolBalance.Set(toCoins(s.PoolBalance))
	totalStaked.Set(toCoins(s.TotalStaked))
	rewardsPaid.Set(toCoins(s.RewardsPaid))
	activeStakes.Set(float64(s.ActiveStakes))
}

var coinFloat = new(big.Float).SetInt(config.COIN.ToBig())

// toCoins converts base units to whole tokens; precision loss is acceptable for gauges
func toCoins(n *uint256.Int) float64 {
	if n == nil {
		return 0
	}
	f := new(big.Float).SetInt(n.ToBig())
	v, _ := f.Quo(f, coinFloat).Float64()
	return v
}

func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
