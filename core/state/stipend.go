package state

import (
	"fmt"
	"math/big"

	"stipend/native/stipend"
)

type storedModuleState struct {
	Treasury [20]byte
	Halted   bool
	Paused   bool
}

type storedSnapshot struct {
	Period     uint64
	Population uint64
	Budget     *big.Int
	Locked     bool
}

type storedParticipant struct {
	ID              uint64
	Accumulated     *big.Int
	Withdrawn       *big.Int
	TotalAccrued    *big.Int
	LastClaimPeriod uint64
	CurrentStreak   uint64
	LongestStreak   uint64
	TotalClaims     uint64
	EverClaimed     bool
}

type storedPeriod struct {
	Period      uint64
	ClaimCount  uint64
	Distributed *big.Int
	Swept       bool
}

func nonNilBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// StipendModuleGet loads the pool-wide admin latches and treasury.
func (m *Manager) StipendModuleGet() (*stipend.ModuleState, bool, error) {
	var stored storedModuleState
	ok, err := m.readRLP(stipendModuleKeyBytes, &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &stipend.ModuleState{
		Treasury: stored.Treasury,
		Halted:   stored.Halted,
		Paused:   stored.Paused,
	}, true, nil
}

// StipendModulePut persists the pool-wide admin latches and treasury.
func (m *Manager) StipendModulePut(mod *stipend.ModuleState) error {
	if mod == nil {
		return fmt.Errorf("state: nil module state")
	}
	return m.writeRLP(stipendModuleKeyBytes, &storedModuleState{
		Treasury: mod.Treasury,
		Halted:   mod.Halted,
		Paused:   mod.Paused,
	})
}

// StipendSnapshotGet loads the locked fairness inputs for a period.
func (m *Manager) StipendSnapshotGet(period uint64) (*stipend.EpochSnapshot, bool, error) {
	var stored storedSnapshot
	ok, err := m.readRLP(stipendSnapshotKey(period), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &stipend.EpochSnapshot{
		Period:     stored.Period,
		Population: stored.Population,
		Budget:     nonNilBig(stored.Budget),
		Locked:     stored.Locked,
	}, true, nil
}

// StipendSnapshotPut persists a period snapshot.
func (m *Manager) StipendSnapshotPut(snapshot *stipend.EpochSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("state: nil snapshot")
	}
	return m.writeRLP(stipendSnapshotKey(snapshot.Period), &storedSnapshot{
		Period:     snapshot.Period,
		Population: snapshot.Population,
		Budget:     nonNilBig(snapshot.Budget),
		Locked:     snapshot.Locked,
	})
}

// StipendParticipantGet loads a participant ledger entry.
func (m *Manager) StipendParticipantGet(id uint64) (*stipend.ParticipantState, bool, error) {
	var stored storedParticipant
	ok, err := m.readRLP(stipendParticipantKey(id), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &stipend.ParticipantState{
		ID:              stored.ID,
		Accumulated:     nonNilBig(stored.Accumulated),
		Withdrawn:       nonNilBig(stored.Withdrawn),
		TotalAccrued:    nonNilBig(stored.TotalAccrued),
		LastClaimPeriod: stored.LastClaimPeriod,
		CurrentStreak:   stored.CurrentStreak,
		LongestStreak:   stored.LongestStreak,
		TotalClaims:     stored.TotalClaims,
		EverClaimed:     stored.EverClaimed,
	}, true, nil
}

// StipendParticipantPut persists a participant ledger entry.
func (m *Manager) StipendParticipantPut(participant *stipend.ParticipantState) error {
	if participant == nil {
		return fmt.Errorf("state: nil participant")
	}
	return m.writeRLP(stipendParticipantKey(participant.ID), &storedParticipant{
		ID:              participant.ID,
		Accumulated:     nonNilBig(participant.Accumulated),
		Withdrawn:       nonNilBig(participant.Withdrawn),
		TotalAccrued:    nonNilBig(participant.TotalAccrued),
		LastClaimPeriod: participant.LastClaimPeriod,
		CurrentStreak:   participant.CurrentStreak,
		LongestStreak:   participant.LongestStreak,
		TotalClaims:     participant.TotalClaims,
		EverClaimed:     participant.EverClaimed,
	})
}

// StipendPeriodGet loads the distribution accounting for a period.
func (m *Manager) StipendPeriodGet(period uint64) (*stipend.PeriodAccounting, bool, error) {
	var stored storedPeriod
	ok, err := m.readRLP(stipendPeriodKey(period), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &stipend.PeriodAccounting{
		Period:      stored.Period,
		ClaimCount:  stored.ClaimCount,
		Distributed: nonNilBig(stored.Distributed),
		Swept:       stored.Swept,
	}, true, nil
}

// StipendPeriodPut persists the distribution accounting for a period.
func (m *Manager) StipendPeriodPut(accounting *stipend.PeriodAccounting) error {
	if accounting == nil {
		return fmt.Errorf("state: nil period accounting")
	}
	return m.writeRLP(stipendPeriodKey(accounting.Period), &storedPeriod{
		Period:      accounting.Period,
		ClaimCount:  accounting.ClaimCount,
		Distributed: nonNilBig(accounting.Distributed),
		Swept:       accounting.Swept,
	})
}
