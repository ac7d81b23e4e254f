package state

type storedOwner struct {
	Owner [20]byte
}

// MembershipOwnerGet resolves the holder of a credential id.
func (m *Manager) MembershipOwnerGet(id uint64) ([20]byte, bool, error) {
	var stored storedOwner
	ok, err := m.readRLP(membershipOwnerKey(id), &stored)
	if err != nil || !ok {
		return [20]byte{}, false, err
	}
	return stored.Owner, true, nil
}

// MembershipOwnerPut records the holder of a credential id.
func (m *Manager) MembershipOwnerPut(id uint64, owner [20]byte) error {
	return m.writeRLP(membershipOwnerKey(id), &storedOwner{Owner: owner})
}

// MembershipIDByOwnerGet resolves the credential held by an address.
func (m *Manager) MembershipIDByOwnerGet(owner [20]byte) (uint64, bool, error) {
	var id uint64
	ok, err := m.readRLP(membershipIDByOwnerKey(owner), &id)
	if err != nil || !ok {
		return 0, false, err
	}
	return id, true, nil
}

// MembershipIDByOwnerPut records the owner index entry.
func (m *Manager) MembershipIDByOwnerPut(owner [20]byte, id uint64) error {
	return m.writeRLP(membershipIDByOwnerKey(owner), id)
}

// MembershipSupplyGet returns the number of issued credentials.
func (m *Manager) MembershipSupplyGet() (uint64, error) {
	var supply uint64
	ok, err := m.readRLP(membershipSupplyKeyBytes, &supply)
	if err != nil || !ok {
		return 0, err
	}
	return supply, nil
}

// MembershipSupplyPut stores the number of issued credentials.
func (m *Manager) MembershipSupplyPut(supply uint64) error {
	return m.writeRLP(membershipSupplyKeyBytes, supply)
}
