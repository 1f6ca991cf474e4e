package ledger

import (
	"github.com/cfit-project/cfit-ledger/config"

	"github.com/holiman/uint256"
)

var yearBps = uint256.NewInt(config.SECONDS_PER_YEAR * config.BPS_DENOMINATOR)

// CalcReward prorates an annual rate over the lock duration:
//
//	reward = amount * rateBps * lockDuration / (SECONDS_PER_YEAR * 10000)
//
// truncated toward zero. It fails with ErrOverflow if the product does not fit in 256 bits.
func CalcReward(amount *uint256.Int, rateBps, lockDuration uint64) (*uint256.Int, error) {
	r := new(uint256.Int)

	_, overflow := r.MulOverflow(amount, uint256.NewInt(rateBps))
	if overflow {
		return nil, ErrOverflow
	}
	_, overflow = r.MulOverflow(r, uint256.NewInt(lockDuration))
	if overflow {
		return nil, ErrOverflow
	}

	return r.Div(r, yearBps), nil
}
