package stipend

import "math/big"

// EpochSnapshot fixes the fairness inputs for a single period. It is written
// exactly once, the first time the period is touched, and never altered
// afterwards regardless of later registrations or schedule changes.
type EpochSnapshot struct {
	Period     uint64   `json:"period"`
	Population uint64   `json:"population"`
	Budget     *big.Int `json:"budget"`
	Locked     bool     `json:"locked"`
}

// Clone returns a deep copy of the snapshot.
func (s *EpochSnapshot) Clone() *EpochSnapshot {
	if s == nil {
		return nil
	}
	clone := *s
	if s.Budget != nil {
		clone.Budget = new(big.Int).Set(s.Budget)
	}
	return &clone
}

// ParticipantState is the append-only per-participant ledger. It is created
// lazily on the first claim and mutated only by that participant's own claim
// and withdraw calls.
type ParticipantState struct {
	ID              uint64   `json:"id"`
	Accumulated     *big.Int `json:"accumulated"`
	Withdrawn       *big.Int `json:"withdrawn"`
	TotalAccrued    *big.Int `json:"totalAccrued"`
	LastClaimPeriod uint64   `json:"lastClaimPeriod"`
	CurrentStreak   uint64   `json:"currentStreak"`
	LongestStreak   uint64   `json:"longestStreak"`
	TotalClaims     uint64   `json:"totalClaims"`
	EverClaimed     bool     `json:"everClaimed"`
}

// Clone returns a deep copy of the participant state.
func (p *ParticipantState) Clone() *ParticipantState {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Accumulated != nil {
		clone.Accumulated = new(big.Int).Set(p.Accumulated)
	}
	if p.Withdrawn != nil {
		clone.Withdrawn = new(big.Int).Set(p.Withdrawn)
	}
	if p.TotalAccrued != nil {
		clone.TotalAccrued = new(big.Int).Set(p.TotalAccrued)
	}
	return &clone
}

// PeriodAccounting tracks the running distribution totals for a period.
// Distributed is monotonically non-decreasing and Swept is a one-way latch.
type PeriodAccounting struct {
	Period      uint64   `json:"period"`
	ClaimCount  uint64   `json:"claimCount"`
	Distributed *big.Int `json:"distributed"`
	Swept       bool     `json:"swept"`
}

// Clone returns a deep copy of the period accounting record.
func (a *PeriodAccounting) Clone() *PeriodAccounting {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Distributed != nil {
		clone.Distributed = new(big.Int).Set(a.Distributed)
	}
	return &clone
}

// ModuleState carries the pool-wide admin latches and the treasury account
// that receives swept remainders.
type ModuleState struct {
	Treasury [20]byte `json:"treasury"`
	Halted   bool     `json:"halted"`
	Paused   bool     `json:"paused"`
}

// Clone returns a copy of the module state.
func (m *ModuleState) Clone() *ModuleState {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}

// ClaimReceipt summarises a successful claim.
type ClaimReceipt struct {
	Participant uint64   `json:"participant"`
	Period      uint64   `json:"period"`
	BaseShare   *big.Int `json:"baseShare"`
	StreakBonus *big.Int `json:"streakBonus"`
	Total       *big.Int `json:"total"`
	Streak      uint64   `json:"streak"`
	StreakReset bool     `json:"streakReset"`
}

// ParticipantStatus is the read-only view served to clients.
type ParticipantStatus struct {
	ID              uint64   `json:"id"`
	Accumulated     *big.Int `json:"accumulated"`
	Withdrawn       *big.Int `json:"withdrawn"`
	TotalAccrued    *big.Int `json:"totalAccrued"`
	LastClaimPeriod uint64   `json:"lastClaimPeriod"`
	CurrentStreak   uint64   `json:"currentStreak"`
	LongestStreak   uint64   `json:"longestStreak"`
	TotalClaims     uint64   `json:"totalClaims"`
	EverClaimed     bool     `json:"everClaimed"`
	CanClaimNow     bool     `json:"canClaimNow"`
}

// PoolStats aggregates the live emission facts for the pool.
type PoolStats struct {
	CurrentPeriod           uint64   `json:"currentPeriod"`
	CurrentBudget           *big.Int `json:"currentBudget"`
	Phase                   uint64   `json:"phase"`
	PeriodsRemainingInPhase uint64   `json:"periodsRemainingInPhase"`
	PeriodsSinceLaunch      uint64   `json:"periodsSinceLaunch"`
	Population              uint64   `json:"population"`
}
