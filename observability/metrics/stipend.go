package metrics

import (
	"errors"
	"math/big"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"stipend/native/common"
	"stipend/native/stipend"
)

// StipendMetrics exposes the engine counters scraped via /metrics.
type StipendMetrics struct {
	claimsAccepted prometheus.Counter
	claimsRejected *prometheus.CounterVec
	distributed    *prometheus.GaugeVec
	withdrawals    prometheus.Counter
	withdrawn      prometheus.Counter
	sweeps         prometheus.Counter
}

var (
	stipendOnce     sync.Once
	stipendRegistry *StipendMetrics
)

// Stipend returns the process-wide stipend metrics registry.
func Stipend() *StipendMetrics {
	stipendOnce.Do(func() {
		stipendRegistry = &StipendMetrics{
			claimsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "stipend_claims_accepted_total",
				Help: "Count of successful period claims.",
			}),
			claimsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "stipend_claims_rejected_total",
				Help: "Count of rejected claims by reason.",
			}, []string{"reason"}),
			distributed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "stipend_period_distributed",
				Help: "Cumulative tokens distributed per period.",
			}, []string{"period"}),
			withdrawals: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "stipend_withdrawals_total",
				Help: "Count of successful withdrawals.",
			}),
			withdrawn: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "stipend_withdrawn_units_total",
				Help: "Total token units realised through withdrawals.",
			}),
			sweeps: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "stipend_sweeps_total",
				Help: "Count of completed period sweeps.",
			}),
		}
		prometheus.MustRegister(
			stipendRegistry.claimsAccepted,
			stipendRegistry.claimsRejected,
			stipendRegistry.distributed,
			stipendRegistry.withdrawals,
			stipendRegistry.withdrawn,
			stipendRegistry.sweeps,
		)
	})
	return stipendRegistry
}

// ClaimAccepted records a successful claim and the running period total.
func (m *StipendMetrics) ClaimAccepted(period uint64, total *big.Int) {
	if m == nil {
		return
	}
	m.claimsAccepted.Inc()
	if total != nil {
		value, _ := new(big.Float).SetInt(total).Float64()
		m.distributed.WithLabelValues(strconv.FormatUint(period, 10)).Add(value)
	}
}

// ClaimRejected records a failed claim under a stable reason label.
func (m *StipendMetrics) ClaimRejected(err error) {
	if m == nil {
		return
	}
	m.claimsRejected.WithLabelValues(rejectionReason(err)).Inc()
}

// Withdrawn records a successful withdrawal.
func (m *StipendMetrics) Withdrawn(value *big.Int) {
	if m == nil {
		return
	}
	m.withdrawals.Inc()
	if value != nil {
		amount, _ := new(big.Float).SetInt(value).Float64()
		m.withdrawn.Add(amount)
	}
}

// Swept records a completed period sweep.
func (m *StipendMetrics) Swept() {
	if m == nil {
		return
	}
	m.sweeps.Inc()
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, stipend.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, stipend.ErrNotYetOpen):
		return "not_yet_open"
	case errors.Is(err, stipend.ErrScheduleEnded):
		return "schedule_ended"
	case errors.Is(err, stipend.ErrAlreadyClaimed):
		return "already_claimed"
	case errors.Is(err, stipend.ErrPopulationZero):
		return "population_zero"
	case errors.Is(err, stipend.ErrPeriodBudgetExhausted):
		return "budget_exhausted"
	case errors.Is(err, stipend.ErrHalted):
		return "halted"
	case errors.Is(err, common.ErrModulePaused):
		return "paused"
	case errors.Is(err, stipend.ErrReentrantCall):
		return "reentrant"
	default:
		return "error"
	}
}
