package token

import (
	"encoding/hex"
	"errors"
	"math/big"
	"time"

	"stipend/core/events"
	"stipend/core/types"
)

var (
	errNilState = errors.New("token ledger: state not configured")
	// ErrInvalidAmount indicates a nil, zero or negative amount.
	ErrInvalidAmount = errors.New("token: amount must be positive")
	// ErrInvalidRecipient indicates a zero recipient address.
	ErrInvalidRecipient = errors.New("token: invalid recipient address")
	// ErrInsufficientFunds indicates a transfer exceeding the sender balance.
	ErrInsufficientFunds = errors.New("token: insufficient balance")
	// ErrMintCallCap indicates a credit exceeding the per-call mint cap.
	ErrMintCallCap = errors.New("token: per-call mint cap exceeded")
	// ErrMintDailyCap indicates a credit exceeding the daily mint cap.
	ErrMintDailyCap = errors.New("token: daily mint cap exceeded")
	// ErrSupplyCap indicates a credit exceeding the lifetime supply cap.
	ErrSupplyCap = errors.New("token: lifetime supply cap exceeded")
)

const (
	// EventTypeMinted is emitted when new tokens are credited into existence.
	EventTypeMinted = "token.minted"
	// EventTypeTransferred is emitted on balance transfers.
	EventTypeTransferred = "token.transferred"
)

// Config bounds how fast the ledger can mint. A nil or zero cap disables the
// corresponding limit.
type Config struct {
	MaxMintPerCall *big.Int
	MaxMintPerDay  *big.Int
	MaxSupply      *big.Int
}

// ledgerState describes the persistence surface for the ledger.
type ledgerState interface {
	TokenBalanceGet(addr [20]byte) (*big.Int, error)
	TokenBalancePut(addr [20]byte, balance *big.Int) error
	TokenMintedTotalGet() (*big.Int, error)
	TokenMintedTotalPut(total *big.Int) error
	TokenMintedDayGet(day string) (*big.Int, error)
	TokenMintedDayPut(day string, amount *big.Int) error
}

// Engine is the reward-token ledger. Credit mints new tokens subject to
// per-call, daily and lifetime caps; it is reserved for the stipend engine,
// which is the only component handed a reference at wiring time.
type Engine struct {
	state    ledgerState
	cfg      Config
	decimals uint8
	emitter  events.Emitter
	nowFn    func() int64
}

// NewEngine constructs a token ledger with the supplied mint caps.
func NewEngine(cfg Config, decimals uint8) *Engine {
	return &Engine{
		cfg:      cfg,
		decimals: decimals,
		emitter:  events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
}

// SetState configures the state backend used by the ledger.
func (e *Engine) SetState(state ledgerState) { e.state = state }

// SetEmitter configures the event emitter used by the ledger.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

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

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(eventEnvelope{evt: evt})
}

func (e *Engine) dayKey() string {
	return time.Unix(e.nowFn(), 0).UTC().Format("2006-01-02")
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func nonNil(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

// Decimals returns the unit scaling factor of the token.
func (e *Engine) Decimals() uint8 {
	if e == nil {
		return 0
	}
	return e.decimals
}

// BalanceOf returns the current balance of an address.
func (e *Engine) BalanceOf(addr [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	balance, err := e.state.TokenBalanceGet(addr)
	if err != nil {
		return nil, err
	}
	return nonNil(balance), nil
}

// Credit mints amount into the recipient balance, enforcing the configured
// caps in order: per-call, daily, lifetime.
func (e *Engine) Credit(recipient [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if recipient == ([20]byte{}) {
		return ErrInvalidRecipient
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if e.cfg.MaxMintPerCall != nil && e.cfg.MaxMintPerCall.Sign() > 0 && amount.Cmp(e.cfg.MaxMintPerCall) > 0 {
		return ErrMintCallCap
	}

	day := e.dayKey()
	mintedToday, err := e.state.TokenMintedDayGet(day)
	if err != nil {
		return err
	}
	mintedToday = nonNil(mintedToday)
	newDaily := new(big.Int).Add(mintedToday, amount)
	if e.cfg.MaxMintPerDay != nil && e.cfg.MaxMintPerDay.Sign() > 0 && newDaily.Cmp(e.cfg.MaxMintPerDay) > 0 {
		return ErrMintDailyCap
	}

	mintedTotal, err := e.state.TokenMintedTotalGet()
	if err != nil {
		return err
	}
	mintedTotal = nonNil(mintedTotal)
	newTotal := new(big.Int).Add(mintedTotal, amount)
	if e.cfg.MaxSupply != nil && e.cfg.MaxSupply.Sign() > 0 && newTotal.Cmp(e.cfg.MaxSupply) > 0 {
		return ErrSupplyCap
	}

	balance, err := e.state.TokenBalanceGet(recipient)
	if err != nil {
		return err
	}
	balance = nonNil(balance)
	if err := e.state.TokenBalancePut(recipient, new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	if err := e.state.TokenMintedDayPut(day, newDaily); err != nil {
		return err
	}
	if err := e.state.TokenMintedTotalPut(newTotal); err != nil {
		return err
	}

	e.emit(&types.Event{
		Type: EventTypeMinted,
		Attributes: map[string]string{
			"recipient": hexAddr(recipient),
			"amount":    amount.String(),
			"day":       day,
		},
	})
	return nil
}

// Transfer moves amount between balances without minting.
func (e *Engine) Transfer(from, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if to == ([20]byte{}) {
		return ErrInvalidRecipient
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	fromBalance, err := e.state.TokenBalanceGet(from)
	if err != nil {
		return err
	}
	fromBalance = nonNil(fromBalance)
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	toBalance, err := e.state.TokenBalanceGet(to)
	if err != nil {
		return err
	}
	toBalance = nonNil(toBalance)
	if err := e.state.TokenBalancePut(from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	if err := e.state.TokenBalancePut(to, new(big.Int).Add(toBalance, amount)); err != nil {
		return err
	}
	e.emit(&types.Event{
		Type: EventTypeTransferred,
		Attributes: map[string]string{
			"from":   hexAddr(from),
			"to":     hexAddr(to),
			"amount": amount.String(),
		},
	})
	return nil
}

// MintedTotal reports the lifetime minted supply.
func (e *Engine) MintedTotal() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	total, err := e.state.TokenMintedTotalGet()
	if err != nil {
		return nil, err
	}
	return nonNil(total), nil
}
