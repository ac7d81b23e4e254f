package token

import (
	"errors"
	"math/big"
	"testing"
)

type mockState struct {
	balances    map[[20]byte]*big.Int
	mintedDay   map[string]*big.Int
	mintedTotal *big.Int
}

func newMockState() *mockState {
	return &mockState{
		balances:  make(map[[20]byte]*big.Int),
		mintedDay: make(map[string]*big.Int),
	}
}

func (m *mockState) TokenBalanceGet(addr [20]byte) (*big.Int, error) {
	if balance, ok := m.balances[addr]; ok {
		return new(big.Int).Set(balance), nil
	}
	return nil, nil
}

func (m *mockState) TokenBalancePut(addr [20]byte, balance *big.Int) error {
	m.balances[addr] = new(big.Int).Set(balance)
	return nil
}

func (m *mockState) TokenMintedTotalGet() (*big.Int, error) {
	if m.mintedTotal == nil {
		return nil, nil
	}
	return new(big.Int).Set(m.mintedTotal), nil
}

func (m *mockState) TokenMintedTotalPut(total *big.Int) error {
	m.mintedTotal = new(big.Int).Set(total)
	return nil
}

func (m *mockState) TokenMintedDayGet(day string) (*big.Int, error) {
	if amount, ok := m.mintedDay[day]; ok {
		return new(big.Int).Set(amount), nil
	}
	return nil, nil
}

func (m *mockState) TokenMintedDayPut(day string, amount *big.Int) error {
	m.mintedDay[day] = new(big.Int).Set(amount)
	return nil
}

func addr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

func newTestEngine(cfg Config) (*Engine, *mockState) {
	state := newMockState()
	engine := NewEngine(cfg, 18)
	engine.SetState(state)
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })
	return engine, state
}

func TestCreditMintsAndTracksTotals(t *testing.T) {
	engine, _ := newTestEngine(Config{})

	if err := engine.Credit(addr(1), big.NewInt(500)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := engine.Credit(addr(1), big.NewInt(250)); err != nil {
		t.Fatalf("credit: %v", err)
	}

	balance, err := engine.BalanceOf(addr(1))
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Int64() != 750 {
		t.Fatalf("balance = %s, want 750", balance)
	}
	total, err := engine.MintedTotal()
	if err != nil {
		t.Fatalf("minted total: %v", err)
	}
	if total.Int64() != 750 {
		t.Fatalf("minted total = %s, want 750", total)
	}
}

func TestCreditValidation(t *testing.T) {
	engine, _ := newTestEngine(Config{})
	if err := engine.Credit([20]byte{}, big.NewInt(1)); !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("zero recipient: %v", err)
	}
	if err := engine.Credit(addr(1), nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("nil amount: %v", err)
	}
	if err := engine.Credit(addr(1), big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount: %v", err)
	}
}

func TestCreditPerCallCap(t *testing.T) {
	engine, _ := newTestEngine(Config{MaxMintPerCall: big.NewInt(100)})
	if err := engine.Credit(addr(1), big.NewInt(101)); !errors.Is(err, ErrMintCallCap) {
		t.Fatalf("over per-call cap: %v", err)
	}
	if err := engine.Credit(addr(1), big.NewInt(100)); err != nil {
		t.Fatalf("at per-call cap: %v", err)
	}
}

func TestCreditDailyCapResetsWithDay(t *testing.T) {
	engine, _ := newTestEngine(Config{MaxMintPerDay: big.NewInt(100)})
	now := int64(1_700_000_000)
	engine.SetNowFunc(func() int64 { return now })

	if err := engine.Credit(addr(1), big.NewInt(80)); err != nil {
		t.Fatalf("first credit: %v", err)
	}
	if err := engine.Credit(addr(1), big.NewInt(30)); !errors.Is(err, ErrMintDailyCap) {
		t.Fatalf("over daily cap: %v", err)
	}

	now += 86400
	if err := engine.Credit(addr(1), big.NewInt(30)); err != nil {
		t.Fatalf("next-day credit: %v", err)
	}
}

func TestCreditSupplyCap(t *testing.T) {
	engine, _ := newTestEngine(Config{MaxSupply: big.NewInt(1000)})
	if err := engine.Credit(addr(1), big.NewInt(1000)); err != nil {
		t.Fatalf("fill supply: %v", err)
	}
	if err := engine.Credit(addr(2), big.NewInt(1)); !errors.Is(err, ErrSupplyCap) {
		t.Fatalf("over supply cap: %v", err)
	}
}

func TestTransfer(t *testing.T) {
	engine, _ := newTestEngine(Config{})
	if err := engine.Credit(addr(1), big.NewInt(100)); err != nil {
		t.Fatalf("credit: %v", err)
	}

	if err := engine.Transfer(addr(1), addr(2), big.NewInt(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	from, _ := engine.BalanceOf(addr(1))
	to, _ := engine.BalanceOf(addr(2))
	if from.Int64() != 60 || to.Int64() != 40 {
		t.Fatalf("balances = %s / %s", from, to)
	}

	if err := engine.Transfer(addr(1), addr(2), big.NewInt(61)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("overdraw: %v", err)
	}
	if err := engine.Transfer(addr(1), [20]byte{}, big.NewInt(1)); !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("zero recipient: %v", err)
	}
}
