package ratelimit

import (
	"time"

	"github.com/cfit-project/cfit-ledger/util"
)

// clients exceeding their budget are refused for this many seconds
const banSeconds = 120

type info struct {
	Count     int
	LastClear int64
	BanEnds   int64
}

func New(maxPerMinute int) *Limit {
	return &Limit{
		maxPerMinute: maxPerMinute,
		info:         make(map[string]*info),
		now: func() int64 {
			return time.Now().Unix()
		},
	}
}

// Limit is a per-key (usually per-IP) request budget over one minute windows.
type Limit struct {
	maxPerMinute int
	info         map[string]*info
	now          func() int64

	util.Mutex
}

// CanAct charges amount requests to ip and reports whether the request may proceed
func (l *Limit) CanAct(ip string, amount int) bool {
	t := l.now()

	l.Lock()
	defer l.Unlock()

	inf := l.info[ip]
	if inf == nil {
		inf = &info{LastClear: t}
		l.info[ip] = inf
	}

	if inf.BanEnds > t {
		return false
	}
	if inf.LastClear+60 < t {
		inf.LastClear = t
		inf.Count = 0
	}

	inf.Count += amount

	if inf.Count > l.maxPerMinute {
		inf.BanEnds = t + banSeconds
		return false
	}
	return true
}

// Prune drops entries that are neither banned nor active in the current window
func (l *Limit) Prune() {
	t := l.now()

	l.Lock()
	defer l.Unlock()

	for k, v := range l.info {
		if v.BanEnds <= t && v.LastClear+60 < t {
			delete(l.info, k)
		}
	}
}
