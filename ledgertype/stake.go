package ledgertype

import (
	"errors"
	"fmt"

	"github.com/cfit-project/cfit-ledger/binary"
	"github.com/cfit-project/cfit-ledger/util"

	"github.com/holiman/uint256"
)

const stakeVersion = 0

type StakeStatus uint8

const (
	StakePending StakeStatus = iota
	StakeSettled
)

func (s StakeStatus) String() string {
	switch s {
	case StakePending:
		return "pending"
	case StakeSettled:
		return "settled"
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

// Stake is a single locked-principal slot. Slots are never removed: settling flips Settled in place,
// so an account's stake indices stay stable.
type Stake struct {
	Amount       *uint256.Int
	Timestamp    uint64 // creation time, UNIX seconds
	LockDuration uint64 // seconds
	RateBps      uint64 // annual rate applied to this slot, fixed at stake time

	Settled   bool
	Reward    *uint256.Int // reward paid at settlement, zero while pending
	SettledAt uint64
}

// UnlockTime is the first instant at which the stake can be withdrawn.
// Stake creation rejects durations for which this would overflow.
func (s *Stake) UnlockTime() uint64 {
	return s.Timestamp + s.LockDuration
}

func (s *Stake) Unlocked(now uint64) bool {
	return now >= s.UnlockTime()
}

func (s *Stake) Status() StakeStatus {
	if s.Settled {
		return StakeSettled
	}
	return StakePending
}

func (s *Stake) Serialize() []byte {
	ser := binary.NewSer(make([]byte, 96))

	ser.AddUint8(stakeVersion)
	ser.AddUint256(s.Amount)
	ser.AddUvarint(s.Timestamp)
	ser.AddUvarint(s.LockDuration)
	ser.AddUvarint(s.RateBps)
	ser.AddBool(s.Settled)
	ser.AddUint256(s.Reward)
	ser.AddUvarint(s.SettledAt)

	return ser.Output()
}

func (s *Stake) Deserialize(b []byte) error {
	d := binary.NewDes(b)

	if d.ReadUint8() != stakeVersion {
		return errors.New("invalid stake blob version")
	}

	s.Amount = d.ReadUint256()
	s.Timestamp = d.ReadUvarint()
	s.LockDuration = d.ReadUvarint()
	s.RateBps = d.ReadUvarint()
	s.Settled = d.ReadBool()
	s.Reward = d.ReadUint256()
	s.SettledAt = d.ReadUvarint()

	return d.Error()
}

func (s *Stake) String() string {
	return fmt.Sprintf("Amount %s Timestamp %d LockDuration %d Rate %d bps Status %s Reward %s",
		util.FormatCoin(s.Amount), s.Timestamp, s.LockDuration, s.RateBps, s.Status(), util.FormatCoin(s.Reward))
}
