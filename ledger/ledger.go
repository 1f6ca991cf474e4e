// Package ledger implements the CFIT balance ledger and its time-locked staking engine.
//
// Every mutating operation is serialized by the ledger mutex and applied inside a single
// database transaction, so it either commits all of its balance and stake changes or none.
// Time is never read from a clock here: callers pass "now" as UNIX seconds.
package ledger

import (
	"fmt"

	"github.com/cfit-project/cfit-ledger/adb"
	"github.com/cfit-project/cfit-ledger/address"
	"github.com/cfit-project/cfit-ledger/config"
	"github.com/cfit-project/cfit-ledger/ledgertype"
	"github.com/cfit-project/cfit-ledger/logger"
	"github.com/cfit-project/cfit-ledger/metrics"
	"github.com/cfit-project/cfit-ledger/util"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

var Log = logger.New()

type Ledger struct {
	DB    adb.DB
	Index Index

	info *Info // immutable after construction

	mut util.Mutex
}

type Index struct {
	Info      adb.Index // genesis info and stats
	State     adb.Index // address -> state
	Stake     adb.Index // address + index -> stake record
	Allowance adb.Index // owner + spender -> allowance
	Event     adb.Index // address + seq -> history event
}

var (
	infoKey  = []byte("genesis")
	statsKey = []byte("stats")
)

// Genesis describes the initial mint. It is only used when the database is empty.
type Genesis struct {
	Owner     address.Address
	Supply    *uint256.Int
	Schedule  ledgertype.Schedule // nil means ledgertype.DefaultSchedule()
	Timestamp uint64
}

// PoolAddress is the ledger's own account. It holds staked principal and the reward pool, and is
// funded by ordinary transfers.
func PoolAddress() address.Address {
	return address.FromSeed(config.POOL_ADDRESS_SEED)
}

// New opens the ledger stored in db. On an empty database, it mints gen.Supply to gen.Owner.
func New(db adb.DB, gen Genesis) (*Ledger, error) {
	l := &Ledger{
		DB: db,
		Index: Index{
			Info:      db.Index("info"),
			State:     db.Index("state"),
			Stake:     db.Index("stake"),
			Allowance: db.Index("allowance"),
			Event:     db.Index("event"),
		},
	}

	err := l.DB.Update(func(txn adb.Txn) error {
		bin := txn.Get(l.Index.Info, infoKey)
		if bin != nil {
			info := &Info{}
			if err := info.Deserialize(bin); err != nil {
				return fmt.Errorf("corrupted ledger info: %w", err)
			}
			l.info = info

			if gen.Supply != nil && !gen.Supply.Eq(info.TotalSupply) || !gen.Owner.IsZero() && gen.Owner != info.Owner {
				Log.Warn("ledger already initialized, ignoring genesis parameters")
			}
			return nil
		}

		return l.construct(txn, gen)
	})
	if err != nil {
		return nil, err
	}

	Log.Info("Opened ledger")
	Log.Infof("Owner: %s", l.info.Owner)
	Log.Infof("Pool: %s", l.info.Pool)
	Log.Infof("Total supply: %s %s", util.FormatCoin(l.info.TotalSupply), config.TOKEN_SYMBOL)
	Log.Debugf("Reward schedule: %s", l.info.Schedule)

	l.refreshMetrics()

	return l, nil
}

func (l *Ledger) construct(txn adb.Txn, gen Genesis) error {
	if gen.Supply == nil || gen.Supply.IsZero() {
		return ErrInvalidSupply
	}
	pool := PoolAddress()
	if gen.Owner.IsZero() || gen.Owner == pool {
		return errors.Wrap(ErrInvalidRecipient, "invalid owner")
	}
	sched := gen.Schedule
	if sched == nil {
		sched = ledgertype.DefaultSchedule()
	}
	if err := sched.Validate(); err != nil {
		return errors.Wrap(ErrInvalidSchedule, err.Error())
	}

	info := &Info{
		Owner:       gen.Owner,
		Pool:        pool,
		TotalSupply: new(uint256.Int).Set(gen.Supply),
		Schedule:    sched,
		CreatedAt:   gen.Timestamp,
	}
	err := txn.Put(l.Index.Info, infoKey, info.Serialize())
	if err != nil {
		return err
	}
	err = l.SetStats(txn, NewStats())
	if err != nil {
		return err
	}

	Log.Infof("Minting %s %s to %s", util.FormatCoin(gen.Supply), config.TOKEN_SYMBOL, gen.Owner)

	state := ledgertype.NewState()
	state.Balance.Set(gen.Supply)
	err = l.SetState(txn, gen.Owner, state)
	if err != nil {
		return err
	}

	l.info = info
	return nil
}

func (l *Ledger) Close() error {
	l.mut.Lock()
	defer l.mut.Unlock()

	Log.Info("Closing ledger database")
	return l.DB.Close()
}

// Info returns a copy of the ledger info; the caller may modify it freely
func (l *Ledger) Info() Info {
	info := *l.info
	info.TotalSupply = l.TotalSupply()
	info.Schedule = l.Schedule()
	return info
}
func (l *Ledger) Owner() address.Address {
	return l.info.Owner
}
func (l *Ledger) PoolAddress() address.Address {
	return l.info.Pool
}
func (l *Ledger) TotalSupply() *uint256.Int {
	return new(uint256.Int).Set(l.info.TotalSupply)
}
func (l *Ledger) Schedule() ledgertype.Schedule {
	return append(ledgertype.Schedule(nil), l.info.Schedule...)
}

func (l *Ledger) Name() string {
	return config.TOKEN_NAME
}
func (l *Ledger) Symbol() string {
	return config.TOKEN_SYMBOL
}
func (l *Ledger) Decimals() uint8 {
	return config.DECIMALS
}

// GetState never fails for unknown accounts, it returns an empty state instead
func (l *Ledger) GetState(txn adb.Txn, addr address.Address) (*ledgertype.State, error) {
	s := ledgertype.NewState()
	bin := txn.Get(l.Index.State, addr[:])
	if bin == nil {
		return s, nil
	}
	err := s.Deserialize(bin)
	if err != nil {
		return nil, fmt.Errorf("address %s: invalid state: %w", addr, err)
	}
	return s, nil
}
func (l *Ledger) SetState(txn adb.Txn, addr address.Address, state *ledgertype.State) error {
	return txn.Put(l.Index.State, addr[:], state.Serialize())
}

// finish records the outcome of a mutating operation
func (l *Ledger) finish(op string, err error) {
	switch {
	case err == nil:
		metrics.ObserveOp(op, metrics.ResultOK)
		l.refreshMetrics()
	case IsLedgerError(err):
		Log.Debugf("%s rejected: %v", op, err)
		metrics.ObserveOp(op, metrics.ResultRejected)
	default:
		Log.Errf("%s failed: %v", op, err)
		metrics.ObserveOp(op, metrics.ResultError)
	}
}

func (l *Ledger) refreshMetrics() {
	stats, err := l.Stats()
	if err != nil {
		Log.Warn("could not refresh metrics:", err)
		return
	}
	metrics.Update(metrics.Snapshot{
		PoolBalance:  stats.PoolBalance,
		TotalStaked:  stats.TotalStaked,
		RewardsPaid:  stats.TotalRewardsPaid,
		ActiveStakes: stats.ActiveStakes,
	})
}

func stakeKey(addr address.Address, index uint64) []byte {
	return append(addr[:], util.U64Key(index)...)
}
func eventKey(addr address.Address, seq uint64) []byte {
	return append(addr[:], util.U64Key(seq)...)
}
func allowanceKey(owner, spender address.Address) []byte {
	return append(owner[:], spender[:]...)
}
