package ledger

import (
	"github.com/cfit-project/cfit-ledger/adb"
	"github.com/cfit-project/cfit-ledger/address"
	"github.com/cfit-project/cfit-ledger/ledgertype"
	"github.com/cfit-project/cfit-ledger/util"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// unlimited allowances are never decreased by TransferFrom
var maxAllowance = new(uint256.Int).SetAllOne()

// BalanceOf returns 0 for unknown accounts. The error only reports storage failures.
func (l *Ledger) BalanceOf(addr address.Address) (*uint256.Int, error) {
	var bal *uint256.Int
	err := l.DB.View(func(txn adb.Txn) error {
		state, err := l.GetState(txn, addr)
		if err != nil {
			return err
		}
		bal = state.Balance
		return nil
	})
	return bal, err
}

func (l *Ledger) Transfer(from, to address.Address, amount *uint256.Int, now uint64) error {
	l.mut.Lock()
	defer l.mut.Unlock()

	err := l.DB.Update(func(txn adb.Txn) error {
		if err := l.checkCaller(from); err != nil {
			return err
		}
		return l.move(txn, from, to, amount, now)
	})
	l.finish("transfer", err)
	if err == nil {
		Log.Debugf("transfer %s from %s to %s", util.FormatCoin(amount), from, to)
	}
	return err
}

func (l *Ledger) Approve(owner, spender address.Address, amount *uint256.Int, now uint64) error {
	l.mut.Lock()
	defer l.mut.Unlock()

	err := l.DB.Update(func(txn adb.Txn) error {
		if err := l.checkCaller(owner); err != nil {
			return err
		}
		if spender.IsZero() {
			return errors.Wrap(ErrInvalidRecipient, "approve")
		}

		err := txn.Put(l.Index.Allowance, allowanceKey(owner, spender), amount.Bytes())
		if err != nil {
			return err
		}
		return l.addEvent(txn, owner, &ledgertype.Event{
			Kind:         ledgertype.EventApprove,
			Counterparty: spender,
			Amount:       amount,
			Time:         now,
		})
	})
	l.finish("approve", err)
	return err
}

func (l *Ledger) Allowance(owner, spender address.Address) (*uint256.Int, error) {
	var allowance *uint256.Int
	err := l.DB.View(func(txn adb.Txn) error {
		allowance = l.getAllowance(txn, owner, spender)
		return nil
	})
	return allowance, err
}

func (l *Ledger) getAllowance(txn adb.Txn, owner, spender address.Address) *uint256.Int {
	return new(uint256.Int).SetBytes(txn.Get(l.Index.Allowance, allowanceKey(owner, spender)))
}

// TransferFrom moves amount from an account that approved spender, consuming the allowance.
func (l *Ledger) TransferFrom(spender, from, to address.Address, amount *uint256.Int, now uint64) error {
	l.mut.Lock()
	defer l.mut.Unlock()

	err := l.DB.Update(func(txn adb.Txn) error {
		if err := l.checkCaller(spender); err != nil {
			return err
		}
		if err := l.checkCaller(from); err != nil {
			return err
		}

		allowance := l.getAllowance(txn, from, spender)
		if allowance.Lt(amount) {
			return errors.Wrapf(ErrInsufficientAllowance, "allowance %s, need %s", allowance.Dec(), amount.Dec())
		}
		if !allowance.Eq(maxAllowance) {
			allowance.Sub(allowance, amount)
			err := txn.Put(l.Index.Allowance, allowanceKey(from, spender), allowance.Bytes())
			if err != nil {
				return err
			}
		}

		return l.move(txn, from, to, amount, now)
	})
	l.finish("transfer_from", err)
	return err
}

// checkCaller rejects accounts that cannot initiate operations: the zero address and the pool,
// which only moves funds as part of staking.
func (l *Ledger) checkCaller(addr address.Address) error {
	if addr.IsZero() {
		return errors.Wrap(ErrInvalidSender, "zero address")
	}
	if addr == l.info.Pool {
		return errors.Wrap(ErrInvalidSender, "pool address")
	}
	return nil
}

// move debits from and credits to, recording a history event on both sides.
// It does not validate the sender, which may be the pool.
func (l *Ledger) move(txn adb.Txn, from, to address.Address, amount *uint256.Int, now uint64) error {
	if to.IsZero() {
		return ErrInvalidRecipient
	}

	sender, err := l.GetState(txn, from)
	if err != nil {
		return err
	}
	if sender.Balance.Lt(amount) {
		return errors.Wrapf(ErrInsufficientBalance, "balance %s, need %s", sender.Balance.Dec(), amount.Dec())
	}
	sender.Balance.Sub(sender.Balance, amount)
	err = l.SetState(txn, from, sender)
	if err != nil {
		return err
	}

	recipient, err := l.GetState(txn, to)
	if err != nil {
		return err
	}
	if _, overflow := recipient.Balance.AddOverflow(recipient.Balance, amount); overflow {
		return ErrOverflow
	}
	err = l.SetState(txn, to, recipient)
	if err != nil {
		return err
	}

	err = l.addEvent(txn, from, &ledgertype.Event{
		Kind:         ledgertype.EventTransferOut,
		Counterparty: to,
		Amount:       amount,
		Time:         now,
	})
	if err != nil {
		return err
	}
	return l.addEvent(txn, to, &ledgertype.Event{
		Kind:         ledgertype.EventTransferIn,
		Counterparty: from,
		Amount:       amount,
		Time:         now,
	})
}

// Audit verifies that the balances of all accounts, the pool included, add up to the total supply.
func (l *Ledger) Audit() error {
	sum := new(uint256.Int)
	var accounts uint64
	err := l.DB.View(func(txn adb.Txn) error {
		return txn.ForEach(l.Index.State, func(k, v []byte) error {
			state := &ledgertype.State{}
			err := state.Deserialize(v)
			if err != nil {
				return err
			}
			if _, overflow := sum.AddOverflow(sum, state.Balance); overflow {
				return ErrOverflow
			}
			accounts++
			return nil
		})
	})
	if err != nil {
		return err
	}

	Log.Debugf("audit: %d accounts hold %s", accounts, util.FormatCoin(sum))

	if !sum.Eq(l.info.TotalSupply) {
		return errors.Wrapf(ErrSupplyMismatch, "balances %s, supply %s", sum.Dec(), l.info.TotalSupply.Dec())
	}
	return nil
}
