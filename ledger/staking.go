package ledger

import (
	"fmt"

	"github.com/cfit-project/cfit-ledger/adb"
	"github.com/cfit-project/cfit-ledger/address"
	"github.com/cfit-project/cfit-ledger/ledgertype"
	"github.com/cfit-project/cfit-ledger/util"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Stake locks amount of addr's balance in the pool for lockDuration seconds and returns the index
// of the new stake record. The reward rate is taken from the schedule now and never changes.
func (l *Ledger) Stake(addr address.Address, amount *uint256.Int, lockDuration, now uint64) (uint64, error) {
	l.mut.Lock()
	defer l.mut.Unlock()

	var index uint64
	err := l.DB.Update(func(txn adb.Txn) error {
		if err := l.checkCaller(addr); err != nil {
			return err
		}
		if amount.IsZero() {
			return ErrInvalidAmount
		}
		if lockDuration == 0 {
			return errors.Wrap(ErrInvalidDuration, "lock duration is zero")
		}
		if now+lockDuration < now {
			return errors.Wrapf(ErrInvalidDuration, "unlock time overflows: %d + %d", now, lockDuration)
		}

		rate := l.info.Schedule.Rate(lockDuration)
		// the reward must be computable at withdrawal
		if _, err := CalcReward(amount, rate, lockDuration); err != nil {
			return err
		}

		err := l.move(txn, addr, l.info.Pool, amount, now)
		if err != nil {
			return err
		}

		state, err := l.GetState(txn, addr)
		if err != nil {
			return err
		}
		index = state.StakeCount

		stake := &ledgertype.Stake{
			Amount:       new(uint256.Int).Set(amount),
			Timestamp:    now,
			LockDuration: lockDuration,
			RateBps:      rate,
			Reward:       new(uint256.Int),
		}
		err = txn.Put(l.Index.Stake, stakeKey(addr, index), stake.Serialize())
		if err != nil {
			return err
		}
		state.StakeCount++
		err = l.SetState(txn, addr, state)
		if err != nil {
			return err
		}

		stats, err := l.GetStats(txn)
		if err != nil {
			return err
		}
		stats.TotalStaked.Add(stats.TotalStaked, amount)
		stats.ActiveStakes++
		err = l.SetStats(txn, stats)
		if err != nil {
			return err
		}

		return l.addEvent(txn, addr, &ledgertype.Event{
			Kind:         ledgertype.EventStake,
			Counterparty: l.info.Pool,
			Amount:       amount,
			StakeIndex:   index,
			Time:         now,
		})
	})
	l.finish("stake", err)
	if err != nil {
		return 0, err
	}

	Log.Debugf("%s staked %s for %d seconds, index %d", addr, util.FormatCoin(amount), lockDuration, index)
	return index, nil
}

// WithdrawStake settles an unlocked stake, paying back the principal plus its reward from the pool.
func (l *Ledger) WithdrawStake(addr address.Address, index, now uint64) (principal, reward *uint256.Int, err error) {
	l.mut.Lock()
	defer l.mut.Unlock()

	err = l.DB.Update(func(txn adb.Txn) error {
		stake, err := l.getStake(txn, addr, index)
		if err != nil {
			return err
		}
		if stake.Settled {
			return errors.Wrapf(ErrAlreadyWithdrawn, "stake %d", index)
		}
		if !stake.Unlocked(now) {
			return errors.Wrapf(ErrStillLocked, "stake %d unlocks at %d", index, stake.UnlockTime())
		}

		reward, err = CalcReward(stake.Amount, stake.RateBps, stake.LockDuration)
		if err != nil {
			return err
		}
		payout := new(uint256.Int)
		if _, overflow := payout.AddOverflow(stake.Amount, reward); overflow {
			return ErrOverflow
		}

		pool, err := l.GetState(txn, l.info.Pool)
		if err != nil {
			return err
		}
		if pool.Balance.Lt(payout) {
			return errors.Wrapf(ErrInsufficientPool, "pool holds %s, payout %s", pool.Balance.Dec(), payout.Dec())
		}

		err = l.move(txn, l.info.Pool, addr, payout, now)
		if err != nil {
			return err
		}

		stake.Settled = true
		stake.Reward = reward
		stake.SettledAt = now
		err = txn.Put(l.Index.Stake, stakeKey(addr, index), stake.Serialize())
		if err != nil {
			return err
		}

		stats, err := l.GetStats(txn)
		if err != nil {
			return err
		}
		if stats.TotalStaked.Lt(stake.Amount) || stats.ActiveStakes == 0 {
			return fmt.Errorf("corrupted stats: total staked %s, active %d", stats.TotalStaked.Dec(),
				stats.ActiveStakes)
		}
		stats.TotalStaked.Sub(stats.TotalStaked, stake.Amount)
		stats.TotalRewardsPaid.Add(stats.TotalRewardsPaid, reward)
		stats.ActiveStakes--
		stats.SettledStakes++
		err = l.SetStats(txn, stats)
		if err != nil {
			return err
		}

		principal = stake.Amount
		return l.addEvent(txn, addr, &ledgertype.Event{
			Kind:         ledgertype.EventWithdraw,
			Counterparty: l.info.Pool,
			Amount:       stake.Amount,
			Reward:       reward,
			StakeIndex:   index,
			Time:         now,
		})
	})
	l.finish("withdraw_stake", err)
	if err != nil {
		return nil, nil, err
	}

	Log.Debugf("%s withdrew stake %d: principal %s reward %s", addr, index, util.FormatCoin(principal),
		util.FormatCoin(reward))
	return principal, reward, nil
}

func (l *Ledger) getStake(txn adb.Txn, addr address.Address, index uint64) (*ledgertype.Stake, error) {
	state, err := l.GetState(txn, addr)
	if err != nil {
		return nil, err
	}
	if index >= state.StakeCount {
		return nil, errors.Wrapf(ErrInvalidIndex, "index %d, count %d", index, state.StakeCount)
	}

	bin := txn.Get(l.Index.Stake, stakeKey(addr, index))
	if bin == nil {
		return nil, fmt.Errorf("stake %d of %s not found", index, addr)
	}
	stake := &ledgertype.Stake{}
	err = stake.Deserialize(bin)
	if err != nil {
		return nil, fmt.Errorf("stake %d of %s: %w", index, addr, err)
	}
	return stake, nil
}

func (l *Ledger) GetStakeCount(addr address.Address) (uint64, error) {
	var n uint64
	err := l.DB.View(func(txn adb.Txn) error {
		state, err := l.GetState(txn, addr)
		if err != nil {
			return err
		}
		n = state.StakeCount
		return nil
	})
	return n, err
}

func (l *Ledger) GetStake(addr address.Address, index uint64) (*ledgertype.Stake, error) {
	var stake *ledgertype.Stake
	err := l.DB.View(func(txn adb.Txn) (err error) {
		stake, err = l.getStake(txn, addr, index)
		return
	})
	return stake, err
}

// GetStakes returns every stake record of addr, settled ones included, ordered by index
func (l *Ledger) GetStakes(addr address.Address) ([]*ledgertype.Stake, error) {
	var stakes []*ledgertype.Stake
	err := l.DB.View(func(txn adb.Txn) error {
		state, err := l.GetState(txn, addr)
		if err != nil {
			return err
		}
		stakes = make([]*ledgertype.Stake, 0, state.StakeCount)
		for i := uint64(0); i < state.StakeCount; i++ {
			stake, err := l.getStake(txn, addr, i)
			if err != nil {
				return err
			}
			stakes = append(stakes, stake)
		}
		return nil
	})
	return stakes, err
}

// PendingReward returns the reward a stake pays at withdrawal. Settled stakes return the reward
// that was paid.
func (l *Ledger) PendingReward(addr address.Address, index uint64) (*uint256.Int, error) {
	stake, err := l.GetStake(addr, index)
	if err != nil {
		return nil, err
	}
	if stake.Settled {
		return stake.Reward, nil
	}
	return CalcReward(stake.Amount, stake.RateBps, stake.LockDuration)
}
