package core

import (
	"log/slog"
	"math/big"
	"sync"

	"stipend/core/epoch"
	"stipend/core/events"
	"stipend/core/state"
	"stipend/core/types"
	"stipend/native/membership"
	"stipend/native/stipend"
	"stipend/native/token"
	"stipend/observability/metrics"
	"stipend/storage"
)

// Node ties the state manager and the native engines together and is the
// surface the RPC server calls into. Mutating operations are serialised by a
// single mutex so they apply in admission order.
type Node struct {
	mu sync.Mutex

	stateMgr   *state.Manager
	engine     *stipend.Engine
	membership *membership.Engine
	ledger     *token.Engine
}

// Config bundles the dependencies needed to assemble a node.
type Config struct {
	DB       storage.Database
	Clock    *epoch.Clock
	Schedule *epoch.Schedule
	Token    token.Config
	Decimals uint8
	Logger   *slog.Logger
}

// NewNode wires the engines against a shared state manager.
func NewNode(cfg Config) *Node {
	mgr := state.NewManager(cfg.DB)
	emitter := newLogEmitter(cfg.Logger)

	registry := membership.NewEngine()
	registry.SetState(mgr)
	registry.SetEmitter(emitter)

	ledger := token.NewEngine(cfg.Token, cfg.Decimals)
	ledger.SetState(mgr)
	ledger.SetEmitter(emitter)

	engine := stipend.NewEngine(cfg.Clock, cfg.Schedule)
	engine.SetState(mgr)
	engine.SetRegistry(registry)
	engine.SetLedger(ledger)
	engine.SetEmitter(emitter)

	return &Node{
		stateMgr:   mgr,
		engine:     engine,
		membership: registry,
		ledger:     ledger,
	}
}

// Engine exposes the stipend engine, primarily for tests.
func (n *Node) Engine() *stipend.Engine { return n.engine }

// Claim submits a claim for the current period on behalf of caller.
func (n *Node) Claim(participantID uint64, caller [20]byte) (*stipend.ClaimReceipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	receipt, err := n.engine.Claim(participantID, caller)
	if err != nil {
		metrics.Stipend().ClaimRejected(err)
		return nil, err
	}
	metrics.Stipend().ClaimAccepted(receipt.Period, receipt.Total)
	return receipt, nil
}

// Withdraw realises an accumulated balance against the token ledger.
func (n *Node) Withdraw(participantID uint64, caller [20]byte, amount *big.Int) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	value, err := n.engine.Withdraw(participantID, caller, amount)
	if err != nil {
		return nil, err
	}
	metrics.Stipend().Withdrawn(value)
	return value, nil
}

// Sweep reclaims a past period's remainder to the treasury.
func (n *Node) Sweep(period uint64) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	unclaimed, err := n.engine.Sweep(period)
	if err != nil {
		return nil, err
	}
	metrics.Stipend().Swept()
	return unclaimed, nil
}

// SetTreasury updates the sweep destination account.
func (n *Node) SetTreasury(treasury [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.SetTreasury(treasury)
}

// SetEmergencyHalt flips the emergency halt latch.
func (n *Node) SetEmergencyHalt(halted bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.SetEmergencyHalt(halted)
}

// Pause suspends claim and withdraw.
func (n *Node) Pause() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.Pause()
}

// Unpause resumes claim and withdraw.
func (n *Node) Unpause() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.Unpause()
}

// ParticipantStatus returns the read-only participant view.
func (n *Node) ParticipantStatus(participantID uint64) (*stipend.ParticipantStatus, error) {
	return n.engine.ParticipantStatus(participantID)
}

// PoolStats returns the live aggregate emission facts.
func (n *Node) PoolStats() (*stipend.PoolStats, error) {
	return n.engine.Stats()
}

// Unclaimed reports the undistributed remainder of a past period.
func (n *Node) Unclaimed(period uint64) (*big.Int, bool, error) {
	return n.engine.Unclaimed(period)
}

// MembershipIssue mints a credential for the owner.
func (n *Node) MembershipIssue(owner [20]byte) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.membership.Issue(owner)
}

// MembershipOwner resolves the holder of a credential.
func (n *Node) MembershipOwner(id uint64) ([20]byte, error) {
	return n.membership.OwnerOf(id)
}

// MembershipOf resolves the credential held by an address.
func (n *Node) MembershipOf(owner [20]byte) (uint64, error) {
	return n.membership.TokenOfOwner(owner)
}

// TokenBalance returns the realised token balance of an address.
func (n *Node) TokenBalance(addr [20]byte) (*big.Int, error) {
	return n.ledger.BalanceOf(addr)
}

// logEmitter forwards engine events to structured logs.
type logEmitter struct {
	logger *slog.Logger
}

func newLogEmitter(logger *slog.Logger) events.Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &logEmitter{logger: logger}
}

// attributedEvent is satisfied by the event envelopes of every native module.
type attributedEvent interface {
	events.Event
	Event() *types.Event
}

func (l *logEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	args := []any{slog.String("event", evt.EventType())}
	if payload, ok := evt.(attributedEvent); ok {
		if inner := payload.Event(); inner != nil {
			for k, v := range inner.Attributes {
				args = append(args, slog.String(k, v))
			}
		}
	}
	l.logger.Info("engine event", args...)
}
