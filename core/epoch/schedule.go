package epoch

import (
	"errors"
	"fmt"
	"math/big"
)

const secondsPerDay = 24 * 60 * 60

// Tier describes one step of the emission schedule. Boundary is the exclusive
// upper bound, in seconds of elapsed time since launch, below which Budget
// applies.
type Tier struct {
	Boundary int64
	Budget   *big.Int
}

// Schedule is a pure decreasing step function mapping elapsed time since
// launch to a per-period emission budget. Past the terminal boundary the
// budget is zero forever.
type Schedule struct {
	tiers []Tier
}

// NewSchedule validates the supplied tiers and constructs a schedule. Tiers
// must have strictly ascending boundaries and non-negative budgets.
func NewSchedule(tiers []Tier) (*Schedule, error) {
	if len(tiers) == 0 {
		return nil, errors.New("epoch: schedule requires at least one tier")
	}
	cloned := make([]Tier, len(tiers))
	prev := int64(0)
	for i, tier := range tiers {
		if tier.Boundary <= prev {
			return nil, fmt.Errorf("epoch: tier %d boundary must be greater than %d", i, prev)
		}
		if tier.Budget == nil || tier.Budget.Sign() < 0 {
			return nil, fmt.Errorf("epoch: tier %d budget cannot be negative", i)
		}
		cloned[i] = Tier{Boundary: tier.Boundary, Budget: new(big.Int).Set(tier.Budget)}
		prev = tier.Boundary
	}
	return &Schedule{tiers: cloned}, nil
}

// DefaultSchedule returns the reference four-tier halving approximation:
// the per-period budget halves every 730 days and stops entirely after
// 2920 days.
func DefaultSchedule() *Schedule {
	tiers := []Tier{
		{Boundary: 730 * secondsPerDay, Budget: big.NewInt(30336)},
		{Boundary: 1460 * secondsPerDay, Budget: big.NewInt(15168)},
		{Boundary: 2190 * secondsPerDay, Budget: big.NewInt(7584)},
		{Boundary: 2920 * secondsPerDay, Budget: big.NewInt(3792)},
	}
	schedule, err := NewSchedule(tiers)
	if err != nil {
		panic(err)
	}
	return schedule
}

// BudgetForElapsed returns the per-period budget for the given elapsed time.
// The returned value is a copy; it is zero once elapsed reaches the terminal
// boundary.
func (s *Schedule) BudgetForElapsed(elapsed int64) *big.Int {
	if s == nil || elapsed < 0 {
		return big.NewInt(0)
	}
	for _, tier := range s.tiers {
		if elapsed < tier.Boundary {
			return new(big.Int).Set(tier.Budget)
		}
	}
	return big.NewInt(0)
}

// TerminalBoundary returns the elapsed time, in seconds, at which emissions
// stop.
func (s *Schedule) TerminalBoundary() int64 {
	if s == nil || len(s.tiers) == 0 {
		return 0
	}
	return s.tiers[len(s.tiers)-1].Boundary
}

// PhaseForElapsed returns the 1-based tier index the elapsed time falls in.
// The boolean is false once the schedule has ended.
func (s *Schedule) PhaseForElapsed(elapsed int64) (uint64, bool) {
	if s == nil || elapsed < 0 {
		return 0, false
	}
	for i, tier := range s.tiers {
		if elapsed < tier.Boundary {
			return uint64(i + 1), true
		}
	}
	return 0, false
}

// PhaseBoundary returns the exclusive elapsed-time upper bound of the given
// 1-based phase, or zero for an unknown phase.
func (s *Schedule) PhaseBoundary(phase uint64) int64 {
	if s == nil || phase == 0 || phase > uint64(len(s.tiers)) {
		return 0
	}
	return s.tiers[phase-1].Boundary
}

// Tiers returns a deep copy of the schedule tiers.
func (s *Schedule) Tiers() []Tier {
	if s == nil {
		return nil
	}
	out := make([]Tier, len(s.tiers))
	for i, tier := range s.tiers {
		out[i] = Tier{Boundary: tier.Boundary, Budget: new(big.Int).Set(tier.Budget)}
	}
	return out
}
