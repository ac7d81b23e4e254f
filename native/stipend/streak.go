package stipend

// nextStreak computes the post-update streak length for a claim landing in
// the given period, and whether a gap reset occurred. A first-ever claim
// starts the streak at one without counting as a reset.
func nextStreak(p *ParticipantState, period uint64) (uint64, bool) {
	if p == nil || !p.EverClaimed {
		return 1, false
	}
	if p.LastClaimPeriod+1 == period {
		return p.CurrentStreak + 1, false
	}
	return 1, true
}

// applyStreak writes the streak update into the participant state and keeps
// the longest-streak high-water mark.
func applyStreak(p *ParticipantState, streak uint64) {
	p.CurrentStreak = streak
	if streak > p.LongestStreak {
		p.LongestStreak = streak
	}
}
