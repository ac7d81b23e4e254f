package epoch

import (
	"testing"
	"time"
)

func TestClockPeriodBoundaries(t *testing.T) {
	launch := int64(20000 * secondsPerDay)
	clock, err := NewClock(launch, 24*time.Hour)
	if err != nil {
		t.Fatalf("new clock: %v", err)
	}

	if got := clock.PeriodIndex(launch); got != 20000 {
		t.Fatalf("period at launch = %d", got)
	}
	if got := clock.PeriodIndex(launch + secondsPerDay - 1); got != 20000 {
		t.Fatalf("period at end of day = %d", got)
	}
	if got := clock.PeriodIndex(launch + secondsPerDay); got != 20001 {
		t.Fatalf("period after rollover = %d", got)
	}
	if got := clock.PeriodStart(20001); got != launch+secondsPerDay {
		t.Fatalf("period start = %d", got)
	}
}

func TestClockElapsedClampsBeforeLaunch(t *testing.T) {
	launch := int64(20000 * secondsPerDay)
	clock, err := NewClock(launch, 24*time.Hour)
	if err != nil {
		t.Fatalf("new clock: %v", err)
	}
	if got := clock.Elapsed(launch - 500); got != 0 {
		t.Fatalf("elapsed before launch = %d", got)
	}
	if got := clock.Elapsed(launch + 500); got != 500 {
		t.Fatalf("elapsed = %d", got)
	}
}

func TestClockPeriodElapsed(t *testing.T) {
	launch := int64(20000*secondsPerDay + 3600) // launch one hour into a period
	clock, err := NewClock(launch, 24*time.Hour)
	if err != nil {
		t.Fatalf("new clock: %v", err)
	}
	if got := clock.PeriodElapsed(20000); got != 0 {
		t.Fatalf("elapsed at launch period = %d", got)
	}
	if got := clock.PeriodElapsed(20001); got != secondsPerDay-3600 {
		t.Fatalf("elapsed at next period = %d", got)
	}
}

func TestNewClockValidation(t *testing.T) {
	if _, err := NewClock(0, 24*time.Hour); err == nil {
		t.Fatalf("zero launch accepted")
	}
	if _, err := NewClock(100, 0); err == nil {
		t.Fatalf("zero period length accepted")
	}
	if _, err := NewClock(100, 500*time.Millisecond); err == nil {
		t.Fatalf("sub-second period length accepted")
	}
}
