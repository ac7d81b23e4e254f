package stipend

import (
	"errors"
	"math/big"
	"sync/atomic"
	"time"

	"stipend/core/epoch"
	"stipend/core/events"
	"stipend/core/types"
	"stipend/native/common"
	"stipend/native/membership"
)

// engineState describes the minimal persistence surface the stipend engine
// needs from the surrounding state implementation.
type engineState interface {
	StipendModuleGet() (*ModuleState, bool, error)
	StipendModulePut(state *ModuleState) error
	StipendSnapshotGet(period uint64) (*EpochSnapshot, bool, error)
	StipendSnapshotPut(snapshot *EpochSnapshot) error
	StipendParticipantGet(id uint64) (*ParticipantState, bool, error)
	StipendParticipantPut(participant *ParticipantState) error
	StipendPeriodGet(period uint64) (*PeriodAccounting, bool, error)
	StipendPeriodPut(accounting *PeriodAccounting) error
}

// Registry is the external membership registry the engine consults for
// credential ownership and population size. The engine never mutates it.
// OwnerOf reports unknown ids with membership.ErrNotIssued.
type Registry interface {
	OwnerOf(id uint64) ([20]byte, error)
	TotalSupply() (uint64, error)
}

// Ledger is the external token ledger that realises withdrawals and treasury
// sweeps. Credit is a reentrancy hazard: the engine finalises its own
// bookkeeping before calling it.
type Ledger interface {
	Credit(recipient [20]byte, amount *big.Int) error
	Decimals() uint8
}

// Engine implements the deterministic daily stipend distribution: a
// time-decaying shared budget split across the registered population with
// streak bonuses, a per-period hard cap and treasury sweeps of unclaimed
// remainders.
type Engine struct {
	state    engineState
	registry Registry
	ledger   Ledger
	clock    *epoch.Clock
	schedule *epoch.Schedule
	emitter  events.Emitter
	pauses   common.PauseView
	nowFn    func() int64

	// busy is the single global in-call latch. Mutating entry points are
	// rejected while another is in progress, which also shuts out reentrant
	// calls arriving through the external ledger or registry.
	busy atomic.Bool
}

// NewEngine constructs a stipend engine bound to the supplied clock and
// emission schedule.
func NewEngine(clock *epoch.Clock, schedule *epoch.Schedule) *Engine {
	return &Engine{
		clock:    clock,
		schedule: schedule,
		emitter:  events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetRegistry configures the membership registry consulted on claims.
func (e *Engine) SetRegistry(registry Registry) { e.registry = registry }

// SetLedger configures the token ledger credited on withdrawals and sweeps.
func (e *Engine) SetLedger(ledger Ledger) { e.ledger = ledger }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses configures the external pause view honoured by claim and withdraw.
func (e *Engine) SetPauses(pauses common.PauseView) { e.pauses = pauses }

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// begin acquires the in-call latch. Every mutating entry point holds it for
// its entire body so operations apply all-or-nothing in admission order.
func (e *Engine) begin() error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if !e.busy.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	return nil
}

func (e *Engine) end() { e.busy.Store(false) }

// resolveOwner authorises caller as the holder of participantID. A missing
// credential is a permission failure; any other registry error propagates
// untouched so backend faults are not mistaken for authorisation failures.
func (e *Engine) resolveOwner(participantID uint64, caller [20]byte) ([20]byte, error) {
	owner, err := e.registry.OwnerOf(participantID)
	if err != nil {
		if errors.Is(err, membership.ErrNotIssued) {
			return [20]byte{}, ErrPermissionDenied
		}
		return [20]byte{}, err
	}
	if owner != caller {
		return [20]byte{}, ErrPermissionDenied
	}
	return owner, nil
}

func (e *Engine) moduleState() (*ModuleState, error) {
	mod, ok, err := e.state.StipendModuleGet()
	if err != nil {
		return nil, err
	}
	if !ok || mod == nil {
		mod = &ModuleState{}
	}
	return mod, nil
}

func newParticipant(id uint64) *ParticipantState {
	return &ParticipantState{
		ID:           id,
		Accumulated:  big.NewInt(0),
		Withdrawn:    big.NewInt(0),
		TotalAccrued: big.NewInt(0),
	}
}

func newAccounting(period uint64) *PeriodAccounting {
	return &PeriodAccounting{Period: period, Distributed: big.NewInt(0)}
}

func ensureParticipant(p *ParticipantState) *ParticipantState {
	if p.Accumulated == nil {
		p.Accumulated = big.NewInt(0)
	}
	if p.Withdrawn == nil {
		p.Withdrawn = big.NewInt(0)
	}
	if p.TotalAccrued == nil {
		p.TotalAccrued = big.NewInt(0)
	}
	return p
}

// lockSnapshot freezes the fairness inputs for a period on first touch.
// Re-locking an already locked period returns the stored snapshot unchanged.
func (e *Engine) lockSnapshot(period uint64, elapsed int64) (*EpochSnapshot, error) {
	snapshot, ok, err := e.state.StipendSnapshotGet(period)
	if err != nil {
		return nil, err
	}
	if ok && snapshot != nil && snapshot.Locked {
		return snapshot, nil
	}
	if e.registry == nil {
		return nil, ErrNilState
	}
	population, err := e.registry.TotalSupply()
	if err != nil {
		return nil, err
	}
	if population == 0 {
		return nil, ErrPopulationZero
	}
	snapshot = &EpochSnapshot{
		Period:     period,
		Population: population,
		Budget:     e.schedule.BudgetForElapsed(elapsed),
		Locked:     true,
	}
	if err := e.state.StipendSnapshotPut(snapshot); err != nil {
		return nil, err
	}
	e.emit(snapshotLockedEvent(snapshot))
	return snapshot, nil
}

// shareFor splits the locked budget into the even base share and the
// streak-weighted bonus for one claimant. All divisions floor, so the sum of
// all shares in a period never exceeds the budget.
func shareFor(snapshot *EpochSnapshot, streak uint64) (*big.Int, *big.Int) {
	population := new(big.Int).SetUint64(snapshot.Population)

	baseAllotment := new(big.Int).Mul(snapshot.Budget, big.NewInt(BaseShareBps))
	baseAllotment.Quo(baseAllotment, big.NewInt(BpsDenominator))
	baseShare := baseAllotment.Quo(baseAllotment, population)

	bonusAllotment := new(big.Int).Mul(snapshot.Budget, big.NewInt(BonusShareBps))
	bonusAllotment.Quo(bonusAllotment, big.NewInt(BpsDenominator))
	bonusPerCapita := bonusAllotment.Quo(bonusAllotment, population)

	capped := streak
	if capped > StreakBonusCap {
		capped = StreakBonusCap
	}
	streakBonus := new(big.Int).Mul(bonusPerCapita, new(big.Int).SetUint64(capped))
	streakBonus.Quo(streakBonus, big.NewInt(StreakBonusCap))

	return baseShare, streakBonus
}

// Claim validates and applies a participant's claim for the current period.
func (e *Engine) Claim(participantID uint64, caller [20]byte) (*ClaimReceipt, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	if e.registry == nil {
		return nil, ErrNilState
	}
	if _, err := e.resolveOwner(participantID, caller); err != nil {
		return nil, err
	}

	mod, err := e.moduleState()
	if err != nil {
		return nil, err
	}
	if mod.Halted {
		return nil, ErrHalted
	}
	if mod.Paused {
		return nil, common.ErrModulePaused
	}
	if err := common.Guard(e.pauses, common.ModuleStipend); err != nil {
		return nil, err
	}

	now := e.now()
	if now < e.clock.Launch() {
		return nil, ErrNotYetOpen
	}
	elapsed := e.clock.Elapsed(now)
	if elapsed >= e.schedule.TerminalBoundary() {
		return nil, ErrScheduleEnded
	}
	period := e.clock.PeriodIndex(now)

	participant, ok, err := e.state.StipendParticipantGet(participantID)
	if err != nil {
		return nil, err
	}
	if !ok || participant == nil {
		participant = newParticipant(participantID)
	}
	participant = ensureParticipant(participant)
	if participant.EverClaimed && participant.LastClaimPeriod == period {
		return nil, ErrAlreadyClaimed
	}

	snapshot, err := e.lockSnapshot(period, elapsed)
	if err != nil {
		return nil, err
	}
	accounting, ok, err := e.state.StipendPeriodGet(period)
	if err != nil {
		return nil, err
	}
	if !ok || accounting == nil {
		accounting = newAccounting(period)
	}
	if accounting.Distributed == nil {
		accounting.Distributed = big.NewInt(0)
	}

	streak, reset := nextStreak(participant, period)
	baseShare, streakBonus := shareFor(snapshot, streak)
	total := new(big.Int).Add(baseShare, streakBonus)

	// Hard cap: a late claimant is shorted rather than the budget overdrawn.
	projected := new(big.Int).Add(accounting.Distributed, total)
	if projected.Cmp(snapshot.Budget) > 0 {
		return nil, ErrPeriodBudgetExhausted
	}

	previousStreak := participant.CurrentStreak
	applyStreak(participant, streak)
	participant.LastClaimPeriod = period
	participant.EverClaimed = true
	participant.TotalClaims++
	participant.Accumulated = new(big.Int).Add(participant.Accumulated, total)
	participant.TotalAccrued = new(big.Int).Add(participant.TotalAccrued, total)

	accounting.ClaimCount++
	accounting.Distributed = projected

	if err := e.state.StipendParticipantPut(participant); err != nil {
		return nil, err
	}
	if err := e.state.StipendPeriodPut(accounting); err != nil {
		return nil, err
	}

	receipt := &ClaimReceipt{
		Participant: participantID,
		Period:      period,
		BaseShare:   baseShare,
		StreakBonus: streakBonus,
		Total:       total,
		Streak:      streak,
		StreakReset: reset,
	}
	if reset {
		e.emit(streakResetEvent(participantID, period, previousStreak))
	}
	e.emit(claimedEvent(receipt, caller))
	return receipt, nil
}

// Withdraw realises part or all of a participant's accumulated balance
// against the external token ledger. A zero or nil amount withdraws the full
// balance. Internal bookkeeping is finalised before the external credit so a
// reentrant call observes the already-reduced balance.
func (e *Engine) Withdraw(participantID uint64, caller [20]byte, amount *big.Int) (*big.Int, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	if e.registry == nil || e.ledger == nil {
		return nil, ErrNilState
	}
	owner, err := e.resolveOwner(participantID, caller)
	if err != nil {
		return nil, err
	}

	mod, err := e.moduleState()
	if err != nil {
		return nil, err
	}
	if mod.Halted {
		return nil, ErrHalted
	}
	if mod.Paused {
		return nil, common.ErrModulePaused
	}
	if err := common.Guard(e.pauses, common.ModuleStipend); err != nil {
		return nil, err
	}

	if amount != nil && amount.Sign() < 0 {
		return nil, ErrInvalidArgument
	}

	participant, ok, err := e.state.StipendParticipantGet(participantID)
	if err != nil {
		return nil, err
	}
	if !ok || participant == nil {
		return nil, ErrInsufficientBalance
	}
	participant = ensureParticipant(participant)
	if participant.Accumulated.Sign() == 0 {
		return nil, ErrInsufficientBalance
	}

	value := new(big.Int).Set(participant.Accumulated)
	if amount != nil && amount.Sign() > 0 {
		if amount.Cmp(participant.Accumulated) > 0 {
			return nil, ErrInsufficientBalance
		}
		value = new(big.Int).Set(amount)
	}

	before := participant.Clone()
	participant.Accumulated = new(big.Int).Sub(participant.Accumulated, value)
	participant.Withdrawn = new(big.Int).Add(participant.Withdrawn, value)
	if err := e.state.StipendParticipantPut(participant); err != nil {
		return nil, err
	}

	if err := e.ledger.Credit(owner, value); err != nil {
		// The credit never happened; roll the debit back so the call has
		// zero effect.
		if restoreErr := e.state.StipendParticipantPut(before); restoreErr != nil {
			return nil, restoreErr
		}
		return nil, err
	}

	e.emit(withdrawnEvent(participantID, owner, value.String(), participant.Accumulated.String()))
	return value, nil
}

// Sweep reclaims a fully elapsed period's undistributed remainder to the
// treasury. The swept latch makes the operation one-shot per period even when
// the remainder is zero. Only periods since launch carry a budget; anything
// earlier is rejected. Admin authorisation is enforced by the caller.
func (e *Engine) Sweep(period uint64) (*big.Int, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	if period < e.clock.PeriodIndex(e.clock.Launch()) {
		return nil, ErrNotYetOpen
	}
	now := e.now()
	if period >= e.clock.PeriodIndex(now) {
		return nil, ErrPeriodNotElapsed
	}

	accounting, ok, err := e.state.StipendPeriodGet(period)
	if err != nil {
		return nil, err
	}
	if !ok || accounting == nil {
		accounting = newAccounting(period)
	}
	if accounting.Swept {
		return nil, ErrAlreadySwept
	}
	if accounting.Distributed == nil {
		accounting.Distributed = big.NewInt(0)
	}

	budget, err := e.periodBudget(period)
	if err != nil {
		return nil, err
	}
	unclaimed := new(big.Int).Sub(budget, accounting.Distributed)
	if unclaimed.Sign() < 0 {
		unclaimed = big.NewInt(0)
	}

	mod, err := e.moduleState()
	if err != nil {
		return nil, err
	}
	if unclaimed.Sign() > 0 {
		if e.ledger == nil {
			return nil, ErrNilState
		}
		if mod.Treasury == ([20]byte{}) {
			return nil, ErrTreasuryNotSet
		}
	}

	accounting.Swept = true
	if err := e.state.StipendPeriodPut(accounting); err != nil {
		return nil, err
	}

	if unclaimed.Sign() > 0 {
		if err := e.ledger.Credit(mod.Treasury, unclaimed); err != nil {
			// Undo the latch; the treasury was never credited.
			accounting.Swept = false
			if restoreErr := e.state.StipendPeriodPut(accounting); restoreErr != nil {
				return nil, restoreErr
			}
			return nil, err
		}
	}

	e.emit(sweptEvent(period, unclaimed.String(), mod.Treasury))
	return unclaimed, nil
}

// periodBudget resolves the budget for a past period, synthesizing it from
// the schedule when no claim ever locked a snapshot. The population is not
// back-filled in that case since sweeping does not consume it.
func (e *Engine) periodBudget(period uint64) (*big.Int, error) {
	snapshot, ok, err := e.state.StipendSnapshotGet(period)
	if err != nil {
		return nil, err
	}
	if ok && snapshot != nil && snapshot.Locked {
		if snapshot.Budget == nil {
			return big.NewInt(0), nil
		}
		return new(big.Int).Set(snapshot.Budget), nil
	}
	return e.schedule.BudgetForElapsed(e.clock.PeriodElapsed(period)), nil
}

// SetTreasury updates the account that receives swept remainders.
func (e *Engine) SetTreasury(treasury [20]byte) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	if treasury == ([20]byte{}) {
		return ErrInvalidArgument
	}
	mod, err := e.moduleState()
	if err != nil {
		return err
	}
	mod.Treasury = treasury
	if err := e.state.StipendModulePut(mod); err != nil {
		return err
	}
	e.emit(treasuryUpdatedEvent(treasury))
	return nil
}

// SetEmergencyHalt flips the halt latch that short-circuits claim and
// withdraw while leaving sweep and admin operations available for recovery.
func (e *Engine) SetEmergencyHalt(halted bool) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	mod, err := e.moduleState()
	if err != nil {
		return err
	}
	mod.Halted = halted
	if err := e.state.StipendModulePut(mod); err != nil {
		return err
	}
	e.emit(haltUpdatedEvent(halted))
	return nil
}

// Pause suspends claim and withdraw.
func (e *Engine) Pause() error { return e.setPaused(true) }

// Unpause resumes claim and withdraw.
func (e *Engine) Unpause() error { return e.setPaused(false) }

func (e *Engine) setPaused(paused bool) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	mod, err := e.moduleState()
	if err != nil {
		return err
	}
	mod.Paused = paused
	if err := e.state.StipendModulePut(mod); err != nil {
		return err
	}
	e.emit(pauseUpdatedEvent(paused))
	return nil
}

// ParticipantStatus returns the read-only view for a participant, including
// whether a claim would currently be accepted.
func (e *Engine) ParticipantStatus(participantID uint64) (*ParticipantStatus, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	participant, ok, err := e.state.StipendParticipantGet(participantID)
	if err != nil {
		return nil, err
	}
	if !ok || participant == nil {
		participant = newParticipant(participantID)
	}
	participant = ensureParticipant(participant)

	status := &ParticipantStatus{
		ID:              participantID,
		Accumulated:     new(big.Int).Set(participant.Accumulated),
		Withdrawn:       new(big.Int).Set(participant.Withdrawn),
		TotalAccrued:    new(big.Int).Set(participant.TotalAccrued),
		LastClaimPeriod: participant.LastClaimPeriod,
		CurrentStreak:   participant.CurrentStreak,
		LongestStreak:   participant.LongestStreak,
		TotalClaims:     participant.TotalClaims,
		EverClaimed:     participant.EverClaimed,
	}

	mod, err := e.moduleState()
	if err != nil {
		return nil, err
	}
	now := e.now()
	elapsed := e.clock.Elapsed(now)
	period := e.clock.PeriodIndex(now)
	open := now >= e.clock.Launch() && elapsed < e.schedule.TerminalBoundary()
	claimedThisPeriod := participant.EverClaimed && participant.LastClaimPeriod == period
	status.CanClaimNow = open && !claimedThisPeriod && !mod.Halted && !mod.Paused
	return status, nil
}

// Stats reports the live aggregate emission facts for the pool.
func (e *Engine) Stats() (*PoolStats, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if e.registry == nil {
		return nil, ErrNilState
	}
	population, err := e.registry.TotalSupply()
	if err != nil {
		return nil, err
	}

	now := e.now()
	elapsed := e.clock.Elapsed(now)
	stats := &PoolStats{
		CurrentPeriod:      e.clock.PeriodIndex(now),
		CurrentBudget:      e.schedule.BudgetForElapsed(elapsed),
		PeriodsSinceLaunch: uint64(elapsed / e.clock.PeriodLength()),
		Population:         population,
	}
	if phase, ok := e.schedule.PhaseForElapsed(elapsed); ok {
		stats.Phase = phase
		remaining := e.schedule.PhaseBoundary(phase) - elapsed
		length := e.clock.PeriodLength()
		stats.PeriodsRemainingInPhase = uint64((remaining + length - 1) / length)
	}
	return stats, nil
}

// Unclaimed reports the undistributed remainder of a fully elapsed period and
// whether it was already swept.
func (e *Engine) Unclaimed(period uint64) (*big.Int, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, ErrNilState
	}
	if period < e.clock.PeriodIndex(e.clock.Launch()) {
		return nil, false, ErrNotYetOpen
	}
	if period >= e.clock.PeriodIndex(e.now()) {
		return nil, false, ErrPeriodNotElapsed
	}
	accounting, ok, err := e.state.StipendPeriodGet(period)
	if err != nil {
		return nil, false, err
	}
	if !ok || accounting == nil {
		accounting = newAccounting(period)
	}
	if accounting.Distributed == nil {
		accounting.Distributed = big.NewInt(0)
	}
	budget, err := e.periodBudget(period)
	if err != nil {
		return nil, false, err
	}
	unclaimed := new(big.Int).Sub(budget, accounting.Distributed)
	if unclaimed.Sign() < 0 {
		unclaimed = big.NewInt(0)
	}
	return unclaimed, accounting.Swept, nil
}
