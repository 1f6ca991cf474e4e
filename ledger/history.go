package ledger

import (
	"fmt"

	"github.com/cfit-project/cfit-ledger/adb"
	"github.com/cfit-project/cfit-ledger/address"
	"github.com/cfit-project/cfit-ledger/config"
	"github.com/cfit-project/cfit-ledger/ledgertype"

	"github.com/holiman/uint256"
)

func (l *Ledger) addEvent(txn adb.Txn, addr address.Address, ev *ledgertype.Event) error {
	if ev.Amount == nil {
		ev.Amount = new(uint256.Int)
	}
	if ev.Reward == nil {
		ev.Reward = new(uint256.Int)
	}

	state, err := l.GetState(txn, addr)
	if err != nil {
		return err
	}
	err = txn.Put(l.Index.Event, eventKey(addr, state.EventCount), ev.Serialize())
	if err != nil {
		return err
	}
	state.EventCount++

	Log.Devf("event %d of %s: %s", state.EventCount-1, addr, ev)

	return l.SetState(txn, addr, state)
}

// Events returns up to limit history entries of addr, oldest first, starting at offset.
// limit is capped to MAX_EVENTS_PAGE; 0 means the maximum.
func (l *Ledger) Events(addr address.Address, offset, limit uint64) ([]ledgertype.Event, error) {
	if limit == 0 || limit > config.MAX_EVENTS_PAGE {
		limit = config.MAX_EVENTS_PAGE
	}

	events := make([]ledgertype.Event, 0, limit)
	err := l.DB.View(func(txn adb.Txn) error {
		state, err := l.GetState(txn, addr)
		if err != nil {
			return err
		}
		for i := offset; i < state.EventCount && uint64(len(events)) < limit; i++ {
			bin := txn.Get(l.Index.Event, eventKey(addr, i))
			if bin == nil {
				return fmt.Errorf("event %d of %s not found", i, addr)
			}
			var ev ledgertype.Event
			err := ev.Deserialize(bin)
			if err != nil {
				return fmt.Errorf("event %d of %s: %w", i, addr, err)
			}
			events = append(events, ev)
		}
		return nil
	})
	return events, err
}
