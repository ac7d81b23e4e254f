package stipend

import (
	"encoding/hex"
	"strconv"

	"stipend/core/events"
	"stipend/core/types"
)

const (
	// EventTypeClaimed is emitted when a participant claims their period share.
	EventTypeClaimed = "stipend.claimed"
	// EventTypeStreakReset is emitted when a gap between claims resets a streak.
	EventTypeStreakReset = "stipend.streak.reset"
	// EventTypeSnapshotLocked is emitted when a period's fairness inputs are frozen.
	EventTypeSnapshotLocked = "stipend.snapshot.locked"
	// EventTypeWithdrawn is emitted when an accumulated balance is realised.
	EventTypeWithdrawn = "stipend.withdrawn"
	// EventTypeSwept is emitted when a period remainder is reclaimed to the treasury.
	EventTypeSwept = "stipend.swept"
	// EventTypeHaltUpdated is emitted when the emergency halt latch changes.
	EventTypeHaltUpdated = "stipend.halt.updated"
	// EventTypePauseUpdated is emitted when the pause latch changes.
	EventTypePauseUpdated = "stipend.pause.updated"
	// EventTypeTreasuryUpdated is emitted when the treasury account changes.
	EventTypeTreasuryUpdated = "stipend.treasury.updated"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func claimedEvent(receipt *ClaimReceipt, caller [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeClaimed,
		Attributes: map[string]string{
			"participant": strconv.FormatUint(receipt.Participant, 10),
			"caller":      hexAddr(caller),
			"period":      strconv.FormatUint(receipt.Period, 10),
			"baseShare":   receipt.BaseShare.String(),
			"streakBonus": receipt.StreakBonus.String(),
			"total":       receipt.Total.String(),
			"streak":      strconv.FormatUint(receipt.Streak, 10),
		},
	}
}

func streakResetEvent(participant uint64, period uint64, previous uint64) *types.Event {
	return &types.Event{
		Type: EventTypeStreakReset,
		Attributes: map[string]string{
			"participant":    strconv.FormatUint(participant, 10),
			"period":         strconv.FormatUint(period, 10),
			"previousStreak": strconv.FormatUint(previous, 10),
		},
	}
}

func snapshotLockedEvent(snapshot *EpochSnapshot) *types.Event {
	return &types.Event{
		Type: EventTypeSnapshotLocked,
		Attributes: map[string]string{
			"period":     strconv.FormatUint(snapshot.Period, 10),
			"population": strconv.FormatUint(snapshot.Population, 10),
			"budget":     snapshot.Budget.String(),
		},
	}
}

func withdrawnEvent(participant uint64, recipient [20]byte, amount, remaining string) *types.Event {
	return &types.Event{
		Type: EventTypeWithdrawn,
		Attributes: map[string]string{
			"participant": strconv.FormatUint(participant, 10),
			"recipient":   hexAddr(recipient),
			"amount":      amount,
			"remaining":   remaining,
		},
	}
}

func sweptEvent(period uint64, unclaimed string, treasury [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeSwept,
		Attributes: map[string]string{
			"period":    strconv.FormatUint(period, 10),
			"unclaimed": unclaimed,
			"treasury":  hexAddr(treasury),
		},
	}
}

func haltUpdatedEvent(halted bool) *types.Event {
	return &types.Event{
		Type:       EventTypeHaltUpdated,
		Attributes: map[string]string{"halted": strconv.FormatBool(halted)},
	}
}

func pauseUpdatedEvent(paused bool) *types.Event {
	return &types.Event{
		Type:       EventTypePauseUpdated,
		Attributes: map[string]string{"paused": strconv.FormatBool(paused)},
	}
}

func treasuryUpdatedEvent(treasury [20]byte) *types.Event {
	return &types.Event{
		Type:       EventTypeTreasuryUpdated,
		Attributes: map[string]string{"treasury": hexAddr(treasury)},
	}
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}
