package stipend

const (
	// BpsDenominator is the fixed denominator used for budget splitting.
	BpsDenominator = 10_000
	// BaseShareBps is the portion of a period budget paid out evenly.
	BaseShareBps = 7_000
	// BonusShareBps is the portion of a period budget reserved for streak bonuses.
	BonusShareBps = 3_000
	// StreakBonusCap is the streak length at which the bonus saturates.
	StreakBonusCap = 100
)
