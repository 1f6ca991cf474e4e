package ledgertype

import (
	"errors"
	"fmt"

	"github.com/cfit-project/cfit-ledger/binary"
	"github.com/cfit-project/cfit-ledger/util"

	"github.com/holiman/uint256"
)

const stateVersion = 0

// State is the per-account record. The zero value is the state of an unknown account.
type State struct {
	Balance    *uint256.Int
	StakeCount uint64 // stake records ever created, settled ones included
	EventCount uint64 // length of the account history
}

func NewState() *State {
	return &State{Balance: new(uint256.Int)}
}

func (x *State) Serialize() []byte {
	s := binary.NewSer(make([]byte, 48))

	s.AddUint8(stateVersion)
	s.AddUint256(x.Balance)
	s.AddUvarint(x.StakeCount)
	s.AddUvarint(x.EventCount)

	return s.Output()
}

func (x *State) Deserialize(d []byte) error {
	s := binary.NewDes(d)

	if s.ReadUint8() != stateVersion {
		return errors.New("invalid state version")
	}
	x.Balance = s.ReadUint256()
	x.StakeCount = s.ReadUvarint()
	x.EventCount = s.ReadUvarint()

	return s.Error()
}

func (x *State) String() string {
	return fmt.Sprintf("Balance: %s; StakeCount: %d; EventCount: %d", util.FormatCoin(x.Balance), x.StakeCount,
		x.EventCount)
}
