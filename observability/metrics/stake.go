package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics tracks transaction outcomes and pool aggregates.
type LedgerMetrics struct {
	operations  *prometheus.CounterVec
	applyTime   *prometheus.HistogramVec
	totalStaked prometheus.Gauge
	rewardsPaid prometheus.Counter
	rewardPot   prometheus.Gauge
	slot        prometheus.Gauge
}

var (
	ledgerOnce     sync.Once
	ledgerRegistry *LedgerMetrics
)

// Ledger returns the process wide metrics registered with the default
// Prometheus registerer.
func Ledger() *LedgerMetrics {
	ledgerOnce.Do(func() {
		ledgerRegistry = NewLedgerMetrics(prometheus.DefaultRegisterer)
	})
	return ledgerRegistry
}

// WriteTextfile writes everything g gathers to path in the Prometheus text
// format, for collection by a node exporter textfile collector. The file is
// replaced atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}

// NewLedgerMetrics builds the collectors and registers them with reg. A nil
// registerer leaves them unregistered.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	m := &LedgerMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stake_operations_total",
			Help: "Count of applied transactions by type and outcome.",
		}, []string{"op", "outcome"}),
		applyTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stake_apply_duration_seconds",
			Help:    "Latency of transaction application by type.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		totalStaked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stake_total_staked",
			Help: "Principal currently held across open positions.",
		}),
		rewardsPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stake_rewards_paid_total",
			Help: "Cumulative reward units paid out on unstake.",
		}),
		rewardPot: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stake_reward_pot",
			Help: "Balance of the pool reward escrow after the last transaction.",
		}),
		slot: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_slot",
			Help: "Slot of the most recently committed transaction.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.applyTime, m.totalStaked, m.rewardsPaid, m.rewardPot, m.slot)
	}
	return m
}

func (m *LedgerMetrics) ObserveOperation(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
	m.applyTime.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *LedgerMetrics) SetTotalStaked(total uint64) {
	if m == nil {
		return
	}
	m.totalStaked.Set(float64(total))
}

func (m *LedgerMetrics) SetRewardPot(pot uint64) {
	if m == nil {
		return
	}
	m.rewardPot.Set(float64(pot))
}

func (m *LedgerMetrics) AddRewardsPaid(amount uint64) {
	if m == nil || amount == 0 {
		return
	}
	m.rewardsPaid.Add(float64(amount))
}

func (m *LedgerMetrics) SetSlot(slot uint64) {
	if m == nil {
		return
	}
	m.slot.Set(float64(slot))
}
