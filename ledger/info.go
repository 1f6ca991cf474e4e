package ledger

import (
	"errors"
	"fmt"

	"github.com/cfit-project/cfit-ledger/address"
	"github.com/cfit-project/cfit-ledger/binary"
	"github.com/cfit-project/cfit-ledger/ledgertype"
	"github.com/cfit-project/cfit-ledger/util"

	"github.com/holiman/uint256"
)

const infoVersion = 0

// Info is written once, at construction, and never changes afterwards
type Info struct {
	Owner       address.Address
	Pool        address.Address
	TotalSupply *uint256.Int
	Schedule    ledgertype.Schedule
	CreatedAt   uint64
}

func (i *Info) Serialize() []byte {
	s := binary.NewSer(make([]byte, 96))

	s.AddUint8(infoVersion)
	s.AddFixedByteArray(i.Owner[:])
	s.AddFixedByteArray(i.Pool[:])
	s.AddUint256(i.TotalSupply)
	s.AddByteSlice(i.Schedule.Serialize())
	s.AddUvarint(i.CreatedAt)

	return s.Output()
}

func (i *Info) Deserialize(b []byte) error {
	d := binary.NewDes(b)

	if d.ReadUint8() != infoVersion {
		return errors.New("invalid info version")
	}
	i.Owner = address.Address(d.ReadFixedByteArray(address.SIZE))
	i.Pool = address.Address(d.ReadFixedByteArray(address.SIZE))
	i.TotalSupply = d.ReadUint256()
	sched := d.ReadByteSlice()
	i.CreatedAt = d.ReadUvarint()
	if d.Error() != nil {
		return d.Error()
	}

	return i.Schedule.Deserialize(sched)
}

func (i *Info) String() string {
	return fmt.Sprintf("Owner: %s; Pool: %s; TotalSupply: %s; Schedule: %s; CreatedAt: %d", i.Owner, i.Pool,
		util.FormatCoin(i.TotalSupply), i.Schedule, i.CreatedAt)
}
