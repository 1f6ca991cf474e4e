package ledgertype

import (
	"errors"
	"fmt"

	"github.com/cfit-project/cfit-ledger/address"
	"github.com/cfit-project/cfit-ledger/binary"
	"github.com/cfit-project/cfit-ledger/util"

	"github.com/holiman/uint256"
)

type EventKind uint8

const (
	EventTransferIn EventKind = iota + 1
	EventTransferOut
	EventStake
	EventWithdraw
	EventApprove
)

var eventNames = map[EventKind]string{
	EventTransferIn:  "transfer_in",
	EventTransferOut: "transfer_out",
	EventStake:       "stake",
	EventWithdraw:    "withdraw",
	EventApprove:     "approve",
}

func (k EventKind) String() string {
	if n, ok := eventNames[k]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// Event is an entry of an account's history.
type Event struct {
	Kind         EventKind
	Counterparty address.Address // the other account; the pool address for stake events
	Amount       *uint256.Int
	Reward       *uint256.Int // withdraw only
	StakeIndex   uint64       // stake and withdraw only
	Time         uint64
}

func (e *Event) Serialize() []byte {
	s := binary.NewSer(make([]byte, 80))

	s.AddUint8(uint8(e.Kind))
	s.AddFixedByteArray(e.Counterparty[:])
	s.AddUint256(e.Amount)
	s.AddUint256(e.Reward)
	s.AddUvarint(e.StakeIndex)
	s.AddUvarint(e.Time)

	return s.Output()
}

func (e *Event) Deserialize(b []byte) error {
	d := binary.NewDes(b)

	e.Kind = EventKind(d.ReadUint8())
	if _, ok := eventNames[e.Kind]; !ok && d.Error() == nil {
		return errors.New("invalid event kind")
	}
	e.Counterparty = address.Address(d.ReadFixedByteArray(address.SIZE))
	e.Amount = d.ReadUint256()
	e.Reward = d.ReadUint256()
	e.StakeIndex = d.ReadUvarint()
	e.Time = d.ReadUvarint()

	return d.Error()
}

func (e *Event) String() string {
	return fmt.Sprintf("%s %s %s at %d", e.Kind, util.FormatCoin(e.Amount), e.Counterparty, e.Time)
}
