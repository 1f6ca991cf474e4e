package ledger

import (
	"errors"

	"github.com/cfit-project/cfit-ledger/adb"
	"github.com/cfit-project/cfit-ledger/binary"

	"github.com/holiman/uint256"
)

const statsVersion = 0

// Stats are the staking aggregates, updated by Stake and WithdrawStake in the same transaction as
// the balances they describe.
type Stats struct {
	TotalStaked      *uint256.Int // principal of pending stakes
	TotalRewardsPaid *uint256.Int
	ActiveStakes     uint64
	SettledStakes    uint64
}

func NewStats() *Stats {
	return &Stats{
		TotalStaked:      new(uint256.Int),
		TotalRewardsPaid: new(uint256.Int),
	}
}

func (x *Stats) Serialize() []byte {
	s := binary.NewSer(make([]byte, 64))

	s.AddUint8(statsVersion)
	s.AddUint256(x.TotalStaked)
	s.AddUint256(x.TotalRewardsPaid)
	s.AddUvarint(x.ActiveStakes)
	s.AddUvarint(x.SettledStakes)

	return s.Output()
}

func (x *Stats) Deserialize(b []byte) error {
	d := binary.NewDes(b)

	if d.ReadUint8() != statsVersion {
		return errors.New("invalid stats version")
	}
	x.TotalStaked = d.ReadUint256()
	x.TotalRewardsPaid = d.ReadUint256()
	x.ActiveStakes = d.ReadUvarint()
	x.SettledStakes = d.ReadUvarint()

	return d.Error()
}

func (l *Ledger) GetStats(txn adb.Txn) (*Stats, error) {
	s := NewStats()
	bin := txn.Get(l.Index.Info, statsKey)
	if bin == nil {
		return s, nil
	}
	return s, s.Deserialize(bin)
}
func (l *Ledger) SetStats(txn adb.Txn, s *Stats) error {
	return txn.Put(l.Index.Info, statsKey, s.Serialize())
}

// StatsView is a read-only snapshot of the staking aggregates and the pool.
type StatsView struct {
	Stats
	PoolBalance *uint256.Int

	// RewardReserve is the part of the pool balance not backing pending principal. It is zero when
	// the pool holds less than the pending principal.
	RewardReserve *uint256.Int
}

func (l *Ledger) Stats() (StatsView, error) {
	var v StatsView
	err := l.DB.View(func(txn adb.Txn) error {
		stats, err := l.GetStats(txn)
		if err != nil {
			return err
		}
		pool, err := l.GetState(txn, l.info.Pool)
		if err != nil {
			return err
		}

		v.Stats = *stats
		v.PoolBalance = pool.Balance
		v.RewardReserve = new(uint256.Int)
		if pool.Balance.Gt(stats.TotalStaked) {
			v.RewardReserve.Sub(pool.Balance, stats.TotalStaked)
		}
		return nil
	})
	return v, err
}
