package state

import "math/big"

// TokenBalanceGet returns the stored balance for an address, zero when absent.
func (m *Manager) TokenBalanceGet(addr [20]byte) (*big.Int, error) {
	balance := new(big.Int)
	ok, err := m.readRLP(tokenBalanceKey(addr), balance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return balance, nil
}

// TokenBalancePut stores the balance for an address.
func (m *Manager) TokenBalancePut(addr [20]byte, balance *big.Int) error {
	return m.writeRLP(tokenBalanceKey(addr), nonNilBig(balance))
}

// TokenMintedTotalGet returns the lifetime minted supply.
func (m *Manager) TokenMintedTotalGet() (*big.Int, error) {
	total := new(big.Int)
	ok, err := m.readRLP(tokenMintedTotalKeyBytes, total)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return total, nil
}

// TokenMintedTotalPut stores the lifetime minted supply.
func (m *Manager) TokenMintedTotalPut(total *big.Int) error {
	return m.writeRLP(tokenMintedTotalKeyBytes, nonNilBig(total))
}

// TokenMintedDayGet returns how much was minted on the given day.
func (m *Manager) TokenMintedDayGet(day string) (*big.Int, error) {
	amount := new(big.Int)
	ok, err := m.readRLP(tokenMintedDayKey(day), amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return amount, nil
}

// TokenMintedDayPut stores how much was minted on the given day.
func (m *Manager) TokenMintedDayPut(day string, amount *big.Int) error {
	return m.writeRLP(tokenMintedDayKey(day), nonNilBig(amount))
}
