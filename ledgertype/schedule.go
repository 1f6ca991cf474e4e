package ledgertype

import (
	"fmt"
	"strings"

	"github.com/cfit-project/cfit-ledger/binary"
	"github.com/cfit-project/cfit-ledger/config"
)

// RewardTier applies RateBps to every stake locked for at least MinLockDuration seconds.
type RewardTier struct {
	MinLockDuration uint64
	RateBps         uint64
}

// Schedule is a list of reward tiers sorted by strictly increasing MinLockDuration.
type Schedule []RewardTier

// DefaultSchedule is a flat 10% yearly rate for every lock duration
func DefaultSchedule() Schedule {
	return Schedule{{MinLockDuration: 0, RateBps: config.ANNUAL_RATE_BPS}}
}

func (s Schedule) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("schedule has no tiers")
	}
	for i, v := range s {
		if v.RateBps > config.MAX_RATE_BPS {
			return fmt.Errorf("tier %d rate %d bps exceeds maximum %d", i, v.RateBps, config.MAX_RATE_BPS)
		}
		if i > 0 && v.MinLockDuration <= s[i-1].MinLockDuration {
			return fmt.Errorf("tier %d is not sorted by min lock duration", i)
		}
	}
	return nil
}

// Rate returns the annual rate of the highest tier reached by lockDuration, 0 if none
func (s Schedule) Rate(lockDuration uint64) uint64 {
	var rate uint64
	for _, v := range s {
		if v.MinLockDuration > lockDuration {
			break
		}
		rate = v.RateBps
	}
	return rate
}

func (s Schedule) Serialize() []byte {
	ser := binary.NewSer(make([]byte, 1+len(s)*8))

	ser.AddUvarint(uint64(len(s)))
	for _, v := range s {
		ser.AddUvarint(v.MinLockDuration)
		ser.AddUvarint(v.RateBps)
	}
	return ser.Output()
}

func (s *Schedule) Deserialize(b []byte) error {
	d := binary.NewDes(b)

	n := d.ReadUvarint()
	// each tier takes at least two bytes
	if n > uint64(len(d.RemainingData())/2) {
		return fmt.Errorf("too many tiers %d", n)
	}

	sched := make(Schedule, n)
	for i := range sched {
		sched[i].MinLockDuration = d.ReadUvarint()
		sched[i].RateBps = d.ReadUvarint()
	}
	if err := d.Error(); err != nil {
		return err
	}
	*s = sched
	return nil
}

func (s Schedule) String() string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = fmt.Sprintf(">= %ds: %d.%02d%%", v.MinLockDuration, v.RateBps/100, v.RateBps%100)
	}
	return strings.Join(parts, ", ")
}
