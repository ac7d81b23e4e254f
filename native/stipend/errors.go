package stipend

import "errors"

var (
	// ErrNilState indicates the engine was invoked before wiring its state backend.
	ErrNilState = errors.New("stipend engine: state not configured")
	// ErrPermissionDenied indicates the caller does not hold the participant credential.
	ErrPermissionDenied = errors.New("stipend: permission denied")
	// ErrNotYetOpen indicates the pool launch time has not been reached.
	ErrNotYetOpen = errors.New("stipend: pool not yet open")
	// ErrScheduleEnded indicates elapsed time passed the terminal emission boundary.
	ErrScheduleEnded = errors.New("stipend: emission schedule ended")
	// ErrAlreadyClaimed indicates the participant already claimed in the current period.
	ErrAlreadyClaimed = errors.New("stipend: already claimed this period")
	// ErrPopulationZero indicates a snapshot lock was attempted with no registered participants.
	ErrPopulationZero = errors.New("stipend: population is zero")
	// ErrPeriodBudgetExhausted indicates a claim would push distribution past the locked budget.
	ErrPeriodBudgetExhausted = errors.New("stipend: period budget exhausted")
	// ErrInsufficientBalance indicates the accumulated balance cannot cover the withdrawal.
	ErrInsufficientBalance = errors.New("stipend: insufficient balance")
	// ErrAlreadySwept indicates the period remainder was already reclaimed.
	ErrAlreadySwept = errors.New("stipend: period already swept")
	// ErrPeriodNotElapsed indicates the period has not fully elapsed yet.
	ErrPeriodNotElapsed = errors.New("stipend: period not fully elapsed")
	// ErrInvalidArgument indicates a zero address, negative amount or similar malformed input.
	ErrInvalidArgument = errors.New("stipend: invalid argument")
	// ErrHalted indicates the emergency halt latch is active.
	ErrHalted = errors.New("stipend: emergency halt active")
	// ErrTreasuryNotSet indicates a sweep needed a treasury that was never configured.
	ErrTreasuryNotSet = errors.New("stipend: treasury not configured")
	// ErrReentrantCall indicates a mutating entry point was invoked while another was in progress.
	ErrReentrantCall = errors.New("stipend: reentrant call rejected")
)
