package membership

import (
	"encoding/hex"
	"errors"
	"strconv"

	"stipend/core/events"
	"stipend/core/types"
	"stipend/native/common"
)

var (
	errNilState = errors.New("membership registry: state not configured")
	// ErrAlreadyIssued indicates the owner already holds a credential.
	ErrAlreadyIssued = errors.New("membership: credential already issued")
	// ErrNotIssued indicates the credential id does not exist.
	ErrNotIssued = errors.New("membership: credential not issued")
	// ErrInvalidOwner indicates a zero owner address.
	ErrInvalidOwner = errors.New("membership: invalid owner address")
)

// EventTypeIssued is emitted when a new credential is issued.
const EventTypeIssued = "membership.issued"

// registryState describes the persistence surface for the registry.
type registryState interface {
	MembershipOwnerGet(id uint64) ([20]byte, bool, error)
	MembershipOwnerPut(id uint64, owner [20]byte) error
	MembershipIDByOwnerGet(owner [20]byte) (uint64, bool, error)
	MembershipIDByOwnerPut(owner [20]byte, id uint64) error
	MembershipSupplyGet() (uint64, error)
	MembershipSupplyPut(supply uint64) error
}

// Engine is a minimal one-credential-per-address identity registry. Issued
// credentials are numbered sequentially from one and never revoked, so the
// supply counter doubles as the population size.
type Engine struct {
	state   registryState
	emitter events.Emitter
	pauses  common.PauseView
}

// NewEngine constructs a membership registry engine.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the registry.
func (e *Engine) SetState(state registryState) { e.state = state }

// SetEmitter configures the event emitter used by the registry.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses configures the external pause view honoured by Issue.
func (e *Engine) SetPauses(pauses common.PauseView) { e.pauses = pauses }

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

// Issue mints a credential for the owner. Each address can hold at most one.
func (e *Engine) Issue(owner [20]byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if owner == ([20]byte{}) {
		return 0, ErrInvalidOwner
	}
	if err := common.Guard(e.pauses, common.ModuleMembership); err != nil {
		return 0, err
	}
	if _, ok, err := e.state.MembershipIDByOwnerGet(owner); err != nil {
		return 0, err
	} else if ok {
		return 0, ErrAlreadyIssued
	}
	supply, err := e.state.MembershipSupplyGet()
	if err != nil {
		return 0, err
	}
	id := supply + 1
	if err := e.state.MembershipOwnerPut(id, owner); err != nil {
		return 0, err
	}
	if err := e.state.MembershipIDByOwnerPut(owner, id); err != nil {
		return 0, err
	}
	if err := e.state.MembershipSupplyPut(id); err != nil {
		return 0, err
	}
	e.emit(&types.Event{
		Type: EventTypeIssued,
		Attributes: map[string]string{
			"id":    strconv.FormatUint(id, 10),
			"owner": "0x" + hex.EncodeToString(owner[:]),
		},
	})
	return id, nil
}

// OwnerOf resolves the holder of a credential id.
func (e *Engine) OwnerOf(id uint64) ([20]byte, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, errNilState
	}
	owner, ok, err := e.state.MembershipOwnerGet(id)
	if err != nil {
		return [20]byte{}, err
	}
	if !ok {
		return [20]byte{}, ErrNotIssued
	}
	return owner, nil
}

// TokenOfOwner resolves the credential id held by an address.
func (e *Engine) TokenOfOwner(owner [20]byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	id, ok, err := e.state.MembershipIDByOwnerGet(owner)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNotIssued
	}
	return id, nil
}

// TotalSupply reports how many credentials have been issued.
func (e *Engine) TotalSupply() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.MembershipSupplyGet()
}
