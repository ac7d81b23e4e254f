package epoch

import (
	"fmt"
	"time"
)

// Clock maps wall-clock time onto the monotonic period index used by the
// stipend engine and onto elapsed time since launch. Periods are aligned to
// the unix epoch, so every participant observes identical period boundaries
// regardless of when the pool launched.
type Clock struct {
	launch       int64
	periodLength int64
}

// NewClock constructs a clock for the given launch instant and period length.
func NewClock(launch int64, periodLength time.Duration) (*Clock, error) {
	if launch <= 0 {
		return nil, fmt.Errorf("epoch: launch time must be positive")
	}
	seconds := int64(periodLength / time.Second)
	if seconds <= 0 {
		return nil, fmt.Errorf("epoch: period length must be at least one second")
	}
	return &Clock{launch: launch, periodLength: seconds}, nil
}

// Launch returns the configured launch timestamp in unix seconds.
func (c *Clock) Launch() int64 {
	if c == nil {
		return 0
	}
	return c.launch
}

// PeriodLength returns the period length in seconds.
func (c *Clock) PeriodLength() int64 {
	if c == nil {
		return 0
	}
	return c.periodLength
}

// PeriodIndex returns the period the supplied timestamp falls into.
func (c *Clock) PeriodIndex(now int64) uint64 {
	if c == nil || now < 0 {
		return 0
	}
	return uint64(now / c.periodLength)
}

// PeriodStart returns the unix timestamp at which the given period begins.
func (c *Clock) PeriodStart(period uint64) int64 {
	if c == nil {
		return 0
	}
	return int64(period) * c.periodLength
}

// Elapsed returns the time in seconds since launch, clamped at zero for
// timestamps before launch.
func (c *Clock) Elapsed(now int64) int64 {
	if c == nil || now <= c.launch {
		return 0
	}
	return now - c.launch
}

// PeriodElapsed returns the elapsed-since-launch value at the nominal start
// of the given period. Used when a budget has to be synthesized for a period
// that never locked a snapshot.
func (c *Clock) PeriodElapsed(period uint64) int64 {
	if c == nil {
		return 0
	}
	start := c.PeriodStart(period)
	if start <= c.launch {
		return 0
	}
	return start - c.launch
}
