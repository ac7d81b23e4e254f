package membership

import (
	"errors"
	"testing"
)

type mockState struct {
	owners  map[uint64][20]byte
	byOwner map[[20]byte]uint64
	supply  uint64
}

func newMockState() *mockState {
	return &mockState{
		owners:  make(map[uint64][20]byte),
		byOwner: make(map[[20]byte]uint64),
	}
}

func (m *mockState) MembershipOwnerGet(id uint64) ([20]byte, bool, error) {
	owner, ok := m.owners[id]
	return owner, ok, nil
}

func (m *mockState) MembershipOwnerPut(id uint64, owner [20]byte) error {
	m.owners[id] = owner
	return nil
}

func (m *mockState) MembershipIDByOwnerGet(owner [20]byte) (uint64, bool, error) {
	id, ok := m.byOwner[owner]
	return id, ok, nil
}

func (m *mockState) MembershipIDByOwnerPut(owner [20]byte, id uint64) error {
	m.byOwner[owner] = id
	return nil
}

func (m *mockState) MembershipSupplyGet() (uint64, error) { return m.supply, nil }

func (m *mockState) MembershipSupplyPut(supply uint64) error {
	m.supply = supply
	return nil
}

func addr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

func newTestEngine() (*Engine, *mockState) {
	state := newMockState()
	engine := NewEngine()
	engine.SetState(state)
	return engine, state
}

func TestIssueAssignsSequentialIDs(t *testing.T) {
	engine, _ := newTestEngine()

	for i := byte(1); i <= 3; i++ {
		id, err := engine.Issue(addr(i))
		if err != nil {
			t.Fatalf("issue %d: %v", i, err)
		}
		if id != uint64(i) {
			t.Fatalf("id = %d, want %d", id, i)
		}
	}
	supply, err := engine.TotalSupply()
	if err != nil {
		t.Fatalf("total supply: %v", err)
	}
	if supply != 3 {
		t.Fatalf("supply = %d, want 3", supply)
	}
}

func TestIssueRejectsDuplicateOwner(t *testing.T) {
	engine, _ := newTestEngine()
	if _, err := engine.Issue(addr(1)); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := engine.Issue(addr(1)); !errors.Is(err, ErrAlreadyIssued) {
		t.Fatalf("duplicate issue: %v", err)
	}
	if _, err := engine.Issue([20]byte{}); !errors.Is(err, ErrInvalidOwner) {
		t.Fatalf("zero owner: %v", err)
	}
}

func TestOwnerLookups(t *testing.T) {
	engine, _ := newTestEngine()
	id, err := engine.Issue(addr(7))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	owner, err := engine.OwnerOf(id)
	if err != nil {
		t.Fatalf("owner of: %v", err)
	}
	if owner != addr(7) {
		t.Fatalf("owner = %x", owner)
	}
	if _, err := engine.OwnerOf(99); !errors.Is(err, ErrNotIssued) {
		t.Fatalf("unknown id: %v", err)
	}

	got, err := engine.TokenOfOwner(addr(7))
	if err != nil {
		t.Fatalf("token of owner: %v", err)
	}
	if got != id {
		t.Fatalf("token = %d, want %d", got, id)
	}
	if _, err := engine.TokenOfOwner(addr(8)); !errors.Is(err, ErrNotIssued) {
		t.Fatalf("unknown owner: %v", err)
	}
}
