package ledger

import (
	"fmt"
	"math"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/cfit-project/cfit-ledger/adb/boltdb"
	"github.com/cfit-project/cfit-ledger/address"
	"github.com/cfit-project/cfit-ledger/config"
	"github.com/cfit-project/cfit-ledger/ledgertype"
	"github.com/cfit-project/cfit-ledger/logger"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	year  = config.SECONDS_PER_YEAR
	start = uint64(1_700_000_000)
)

var (
	owner = address.FromSeed("owner")
	alice = address.FromSeed("alice")
	bob   = address.FromSeed("bob")
)

func init() {
	Log = logger.DiscardLog
}

func openLedger(t *testing.T, path string, gen Genesis) *Ledger {
	t.Helper()

	db, err := boltdb.New(path, 0o600)
	require.NoError(t, err)

	l, err := New(db, gen)
	if err != nil {
		db.Close()
	}
	require.NoError(t, err)
	return l
}

func testLedger(t *testing.T) *Ledger {
	t.Helper()

	l := openLedger(t, filepath.Join(t.TempDir(), "ledger.db"), Genesis{
		Owner:     owner,
		Supply:    config.Coins(2000),
		Timestamp: start,
	})
	t.Cleanup(func() { l.Close() })
	return l
}

func requireBalance(t *testing.T, l *Ledger, addr address.Address, coins uint64) {
	t.Helper()

	bal, err := l.BalanceOf(addr)
	require.NoError(t, err)
	require.Equal(t, config.Coins(coins).Dec(), bal.Dec(), "balance of %s", addr)
}

func TestConstruct(t *testing.T) {
	l := testLedger(t)

	requireBalance(t, l, owner, 2000)
	requireBalance(t, l, alice, 0)
	requireBalance(t, l, l.PoolAddress(), 0)

	assert.Equal(t, owner, l.Owner())
	assert.Equal(t, PoolAddress(), l.PoolAddress())
	assert.Equal(t, config.Coins(2000), l.TotalSupply())
	assert.Equal(t, "CFITTOKEN", l.Name())
	assert.Equal(t, "CFI", l.Symbol())
	assert.EqualValues(t, 18, l.Decimals())
	assert.Equal(t, ledgertype.DefaultSchedule(), l.Schedule())
	assert.NoError(t, l.Audit())
}

func TestInfoCopy(t *testing.T) {
	l := testLedger(t)

	info := l.Info()
	info.TotalSupply.SetUint64(1)
	info.Schedule[0].RateBps = 0

	assert.Equal(t, config.Coins(2000), l.TotalSupply())
	assert.Equal(t, ledgertype.DefaultSchedule(), l.Schedule())
	assert.Equal(t, config.Coins(2000), l.Info().TotalSupply)
	assert.NoError(t, l.Audit())
}

func TestConstructInvalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		gen Genesis
		err error
	}{
		{Genesis{Owner: owner}, ErrInvalidSupply},
		{Genesis{Owner: owner, Supply: new(uint256.Int)}, ErrInvalidSupply},
		{Genesis{Supply: config.Coins(1)}, ErrInvalidRecipient},
		{Genesis{Owner: PoolAddress(), Supply: config.Coins(1)}, ErrInvalidRecipient},
		{Genesis{Owner: owner, Supply: config.Coins(1), Schedule: ledgertype.Schedule{}}, ErrInvalidSchedule},
		{Genesis{Owner: owner, Supply: config.Coins(1), Schedule: ledgertype.Schedule{
			{MinLockDuration: 10, RateBps: 100},
			{MinLockDuration: 10, RateBps: 200},
		}}, ErrInvalidSchedule},
	}

	for i, tt := range tests {
		db, err := boltdb.New(filepath.Join(dir, fmt.Sprintf("invalid%d.db", i)), 0o600)
		require.NoError(t, err)

		_, err = New(db, tt.gen)
		assert.ErrorIs(t, err, tt.err, i)

		// a failed construction leaves the database empty
		_, err = New(db, Genesis{Owner: owner, Supply: config.Coins(5)})
		assert.NoError(t, err, i)

		require.NoError(t, db.Close())
	}
}

func TestTransfer(t *testing.T) {
	l := testLedger(t)

	require.NoError(t, l.Transfer(owner, alice, config.Coins(300), start))
	require.NoError(t, l.Transfer(alice, bob, config.Coins(100), start+1))

	requireBalance(t, l, owner, 1700)
	requireBalance(t, l, alice, 200)
	requireBalance(t, l, bob, 100)

	// zero-amount and self transfers do not change balances
	require.NoError(t, l.Transfer(alice, bob, new(uint256.Int), start+2))
	require.NoError(t, l.Transfer(alice, alice, config.Coins(200), start+2))
	requireBalance(t, l, alice, 200)
	requireBalance(t, l, bob, 100)

	assert.NoError(t, l.Audit())
}

func TestTransferRejected(t *testing.T) {
	l := testLedger(t)

	require.NoError(t, l.Transfer(owner, alice, config.Coins(10), start))

	err := l.Transfer(alice, bob, config.Coins(11), start)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.True(t, IsLedgerError(err))

	assert.ErrorIs(t, l.Transfer(alice, address.INVALID_ADDRESS, config.Coins(1), start), ErrInvalidRecipient)
	assert.ErrorIs(t, l.Transfer(address.INVALID_ADDRESS, alice, config.Coins(1), start), ErrInvalidSender)
	assert.ErrorIs(t, l.Transfer(l.PoolAddress(), alice, new(uint256.Int), start), ErrInvalidSender)

	requireBalance(t, l, owner, 1990)
	requireBalance(t, l, alice, 10)
	requireBalance(t, l, bob, 0)
	assert.NoError(t, l.Audit())
}

func TestAllowance(t *testing.T) {
	l := testLedger(t)

	require.NoError(t, l.Approve(owner, alice, config.Coins(30), start))

	allowance, err := l.Allowance(owner, alice)
	require.NoError(t, err)
	assert.Equal(t, config.Coins(30).Dec(), allowance.Dec())

	require.NoError(t, l.TransferFrom(alice, owner, bob, config.Coins(20), start))
	requireBalance(t, l, owner, 1980)
	requireBalance(t, l, bob, 20)
	requireBalance(t, l, alice, 0)

	allowance, err = l.Allowance(owner, alice)
	require.NoError(t, err)
	assert.Equal(t, config.Coins(10).Dec(), allowance.Dec())

	assert.ErrorIs(t, l.TransferFrom(alice, owner, bob, config.Coins(11), start), ErrInsufficientAllowance)
	assert.ErrorIs(t, l.TransferFrom(bob, owner, bob, config.Coins(1), start), ErrInsufficientAllowance)
	requireBalance(t, l, owner, 1980)
	requireBalance(t, l, bob, 20)

	// an allowance larger than the balance still fails on the balance, and is not consumed
	require.NoError(t, l.Approve(bob, alice, config.Coins(100), start))
	assert.ErrorIs(t, l.TransferFrom(alice, bob, alice, config.Coins(21), start), ErrInsufficientBalance)
	allowance, err = l.Allowance(bob, alice)
	require.NoError(t, err)
	assert.Equal(t, config.Coins(100).Dec(), allowance.Dec())

	// unlimited allowances are not decreased
	require.NoError(t, l.Approve(owner, alice, maxAllowance, start))
	require.NoError(t, l.TransferFrom(alice, owner, alice, config.Coins(500), start))
	allowance, err = l.Allowance(owner, alice)
	require.NoError(t, err)
	assert.True(t, allowance.Eq(maxAllowance))

	assert.ErrorIs(t, l.Approve(owner, address.INVALID_ADDRESS, config.Coins(1), start), ErrInvalidRecipient)
	assert.NoError(t, l.Audit())
}

func TestStakeRewardScenario(t *testing.T) {
	l := testLedger(t)
	pool := l.PoolAddress()

	require.NoError(t, l.Transfer(owner, pool, config.Coins(100), start))

	index, err := l.Stake(owner, config.Coins(50), year, start)
	require.NoError(t, err)
	assert.EqualValues(t, 0, index)
	requireBalance(t, l, owner, 1850)
	requireBalance(t, l, pool, 150)

	pending, err := l.PendingReward(owner, 0)
	require.NoError(t, err)
	assert.Equal(t, config.Coins(5).Dec(), pending.Dec())

	stats, err := l.Stats()
	require.NoError(t, err)
	assert.Equal(t, config.Coins(50).Dec(), stats.TotalStaked.Dec())
	assert.Equal(t, config.Coins(100).Dec(), stats.RewardReserve.Dec())
	assert.EqualValues(t, 1, stats.ActiveStakes)

	principal, reward, err := l.WithdrawStake(owner, 0, start+year)
	require.NoError(t, err)
	assert.Equal(t, config.Coins(50).Dec(), principal.Dec())
	assert.Equal(t, config.Coins(5).Dec(), reward.Dec())

	requireBalance(t, l, owner, 1905)
	requireBalance(t, l, pool, 95)

	stake, err := l.GetStake(owner, 0)
	require.NoError(t, err)
	assert.Equal(t, ledgertype.StakeSettled, stake.Status())
	assert.Equal(t, config.Coins(5).Dec(), stake.Reward.Dec())
	assert.Equal(t, start+year, stake.SettledAt)

	stats, err = l.Stats()
	require.NoError(t, err)
	assert.True(t, stats.TotalStaked.IsZero())
	assert.Equal(t, config.Coins(5).Dec(), stats.TotalRewardsPaid.Dec())
	assert.EqualValues(t, 0, stats.ActiveStakes)
	assert.EqualValues(t, 1, stats.SettledStakes)
	assert.Equal(t, config.Coins(95).Dec(), stats.RewardReserve.Dec())

	assert.NoError(t, l.Audit())
}

func TestStakeRejected(t *testing.T) {
	l := testLedger(t)

	require.NoError(t, l.Transfer(owner, alice, config.Coins(10), start))

	tests := []struct {
		addr     address.Address
		amount   *uint256.Int
		duration uint64
		err      error
	}{
		{address.INVALID_ADDRESS, config.Coins(1), year, ErrInvalidSender},
		{l.PoolAddress(), config.Coins(1), year, ErrInvalidSender},
		{alice, new(uint256.Int), year, ErrInvalidAmount},
		{alice, new(uint256.Int), 0, ErrInvalidAmount},
		{alice, config.Coins(1), 0, ErrInvalidDuration},
		{alice, config.Coins(1), math.MaxUint64, ErrInvalidDuration},
		{alice, config.Coins(11), 0, ErrInvalidDuration},
		{alice, config.Coins(11), year, ErrInsufficientBalance},
	}
	for i, tt := range tests {
		_, err := l.Stake(tt.addr, tt.amount, tt.duration, start)
		assert.ErrorIs(t, err, tt.err, i)
	}

	n, err := l.GetStakeCount(alice)
	require.NoError(t, err)
	assert.Zero(t, n)
	requireBalance(t, l, alice, 10)
	requireBalance(t, l, l.PoolAddress(), 0)
	assert.NoError(t, l.Audit())
}

func TestWithdrawLockBoundary(t *testing.T) {
	l := testLedger(t)
	require.NoError(t, l.Transfer(owner, l.PoolAddress(), config.Coins(100), start))

	const lock = 30 * config.SECONDS_PER_DAY
	_, err := l.Stake(owner, config.Coins(50), lock, start)
	require.NoError(t, err)

	_, _, err = l.WithdrawStake(owner, 0, start)
	assert.ErrorIs(t, err, ErrStillLocked)
	_, _, err = l.WithdrawStake(owner, 0, start+lock-1)
	assert.ErrorIs(t, err, ErrStillLocked)

	_, reward, err := l.WithdrawStake(owner, 0, start+lock)
	require.NoError(t, err)
	assert.Equal(t, "410958904109589041", reward.Dec())
	assert.NoError(t, l.Audit())
}

func TestDoubleWithdraw(t *testing.T) {
	l := testLedger(t)
	require.NoError(t, l.Transfer(owner, l.PoolAddress(), config.Coins(100), start))

	_, err := l.Stake(owner, config.Coins(50), year, start)
	require.NoError(t, err)

	_, _, err = l.WithdrawStake(owner, 0, start+year)
	require.NoError(t, err)
	requireBalance(t, l, owner, 1905)

	_, _, err = l.WithdrawStake(owner, 0, start+2*year)
	assert.ErrorIs(t, err, ErrAlreadyWithdrawn)
	requireBalance(t, l, owner, 1905)
	assert.NoError(t, l.Audit())
}

func TestWithdrawInvalidIndex(t *testing.T) {
	l := testLedger(t)

	// empty collection
	_, _, err := l.WithdrawStake(alice, 0, start)
	assert.ErrorIs(t, err, ErrInvalidIndex)
	_, err = l.GetStake(alice, 0)
	assert.ErrorIs(t, err, ErrInvalidIndex)

	stakes, err := l.GetStakes(alice)
	require.NoError(t, err)
	assert.Empty(t, stakes)

	_, err = l.Stake(owner, config.Coins(1), year, start)
	require.NoError(t, err)

	_, _, err = l.WithdrawStake(owner, 1, start+year)
	assert.ErrorIs(t, err, ErrInvalidIndex)
	_, err = l.PendingReward(owner, 1)
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestWithdrawInsufficientPool(t *testing.T) {
	l := testLedger(t)
	pool := l.PoolAddress()

	require.NoError(t, l.Transfer(owner, alice, config.Coins(50), start))
	_, err := l.Stake(alice, config.Coins(50), year, start)
	require.NoError(t, err)

	// the pool only holds the principal, not the reward
	_, _, err = l.WithdrawStake(alice, 0, start+year)
	assert.ErrorIs(t, err, ErrInsufficientPool)

	requireBalance(t, l, alice, 0)
	requireBalance(t, l, pool, 50)
	stake, err := l.GetStake(alice, 0)
	require.NoError(t, err)
	assert.Equal(t, ledgertype.StakePending, stake.Status())
	assert.True(t, stake.Reward.IsZero())

	stats, err := l.Stats()
	require.NoError(t, err)
	assert.True(t, stats.RewardReserve.IsZero())

	require.NoError(t, l.Transfer(owner, pool, config.Coins(5), start+year))
	_, _, err = l.WithdrawStake(alice, 0, start+year)
	require.NoError(t, err)
	requireBalance(t, l, alice, 55)
	requireBalance(t, l, pool, 0)
	assert.NoError(t, l.Audit())
}

func TestStakeIndexStability(t *testing.T) {
	l := testLedger(t)
	require.NoError(t, l.Transfer(owner, l.PoolAddress(), config.Coins(100), start))

	amounts := []uint64{10, 20, 30}
	for i, v := range amounts {
		index, err := l.Stake(owner, config.Coins(v), year, start+uint64(i))
		require.NoError(t, err)
		assert.EqualValues(t, i, index)
	}

	_, _, err := l.WithdrawStake(owner, 1, start+1+year)
	require.NoError(t, err)

	// the settled record keeps its slot, and new stakes are appended
	index, err := l.Stake(owner, config.Coins(40), year, start+10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, index)

	stakes, err := l.GetStakes(owner)
	require.NoError(t, err)
	require.Len(t, stakes, 4)
	for i, v := range []uint64{10, 20, 30, 40} {
		assert.Equal(t, config.Coins(v).Dec(), stakes[i].Amount.Dec(), i)
	}
	assert.True(t, stakes[1].Settled)
	assert.False(t, stakes[0].Settled)
	assert.False(t, stakes[2].Settled)

	n, err := l.GetStakeCount(owner)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
	assert.NoError(t, l.Audit())
}

func TestScheduleTiers(t *testing.T) {
	l := openLedger(t, filepath.Join(t.TempDir(), "ledger.db"), Genesis{
		Owner:  owner,
		Supply: config.Coins(2000),
		Schedule: ledgertype.Schedule{
			{MinLockDuration: 7 * config.SECONDS_PER_DAY, RateBps: 500},
			{MinLockDuration: 90 * config.SECONDS_PER_DAY, RateBps: 1000},
			{MinLockDuration: year, RateBps: 2000},
		},
	})
	defer l.Close()
	require.NoError(t, l.Transfer(owner, l.PoolAddress(), config.Coins(500), start))

	durations := map[uint64]uint64{
		config.SECONDS_PER_DAY:      0,
		7 * config.SECONDS_PER_DAY:  500,
		89 * config.SECONDS_PER_DAY: 500,
		90 * config.SECONDS_PER_DAY: 1000,
		year:                        2000,
		2 * year:                    2000,
	}
	for duration, rate := range durations {
		index, err := l.Stake(owner, config.Coins(10), duration, start)
		require.NoError(t, err)

		stake, err := l.GetStake(owner, index)
		require.NoError(t, err)
		assert.Equal(t, rate, stake.RateBps, duration)
	}

	index, err := l.Stake(owner, config.Coins(50), year, start)
	require.NoError(t, err)
	_, reward, err := l.WithdrawStake(owner, index, start+year)
	require.NoError(t, err)
	assert.Equal(t, config.Coins(10).Dec(), reward.Dec())

	// no reward below the lowest tier, but the principal is returned
	index, err = l.Stake(owner, config.Coins(10), 60, start)
	require.NoError(t, err)
	principal, reward, err := l.WithdrawStake(owner, index, start+60)
	require.NoError(t, err)
	assert.Equal(t, config.Coins(10).Dec(), principal.Dec())
	assert.True(t, reward.IsZero())
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	gen := Genesis{
		Owner:  owner,
		Supply: config.Coins(2000),
	}

	l := openLedger(t, path, gen)
	require.NoError(t, l.Transfer(owner, alice, config.Coins(100), start))
	_, err := l.Stake(alice, config.Coins(40), year, start)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	// a different genesis is ignored
	l = openLedger(t, path, Genesis{
		Owner:    bob,
		Supply:   config.Coins(1),
		Schedule: ledgertype.Schedule{{RateBps: 5000}},
	})
	defer l.Close()

	assert.Equal(t, owner, l.Owner())
	assert.Equal(t, config.Coins(2000).Dec(), l.TotalSupply().Dec())
	assert.Equal(t, ledgertype.DefaultSchedule(), l.Schedule())
	requireBalance(t, l, alice, 60)
	requireBalance(t, l, l.PoolAddress(), 40)
	requireBalance(t, l, bob, 0)

	stake, err := l.GetStake(alice, 0)
	require.NoError(t, err)
	assert.Equal(t, config.Coins(40).Dec(), stake.Amount.Dec())
	assert.Equal(t, start, stake.Timestamp)
	assert.EqualValues(t, config.ANNUAL_RATE_BPS, stake.RateBps)

	stats, err := l.Stats()
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.ActiveStakes)
	assert.NoError(t, l.Audit())
}

func TestEvents(t *testing.T) {
	l := testLedger(t)
	pool := l.PoolAddress()

	require.NoError(t, l.Transfer(owner, alice, config.Coins(100), start))
	require.NoError(t, l.Transfer(owner, pool, config.Coins(10), start+1))
	_, err := l.Stake(alice, config.Coins(50), year, start+2)
	require.NoError(t, err)
	_, _, err = l.WithdrawStake(alice, 0, start+2+year)
	require.NoError(t, err)

	events, err := l.Events(alice, 0, 0)
	require.NoError(t, err)

	kinds := make([]ledgertype.EventKind, len(events))
	for i, v := range events {
		kinds[i] = v.Kind
	}
	assert.Equal(t, []ledgertype.EventKind{
		ledgertype.EventTransferIn,
		ledgertype.EventTransferOut,
		ledgertype.EventStake,
		ledgertype.EventTransferIn,
		ledgertype.EventWithdraw,
	}, kinds)

	assert.Equal(t, owner, events[0].Counterparty)
	assert.Equal(t, config.Coins(100).Dec(), events[0].Amount.Dec())
	assert.EqualValues(t, 0, events[2].StakeIndex)
	assert.Equal(t, pool, events[2].Counterparty)
	assert.Equal(t, config.Coins(5).Dec(), events[4].Reward.Dec())
	assert.Equal(t, start+2+year, events[4].Time)

	page, err := l.Events(alice, 3, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ledgertype.EventTransferIn, page[0].Kind)
	assert.Equal(t, config.Coins(55).Dec(), page[0].Amount.Dec())

	page, err = l.Events(alice, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, page)

	page, err = l.Events(bob, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestReserveFundedStaking(t *testing.T) {
	l := testLedger(t)

	require.NoError(t, l.Transfer(owner, l.PoolAddress(), config.Coins(1000), start))
	requireBalance(t, l, owner, 1000)

	require.NoError(t, l.Transfer(owner, alice, config.Coins(200), start))

	_, err := l.Stake(alice, config.Coins(50), 30*config.SECONDS_PER_DAY, start)
	require.NoError(t, err)
	_, err = l.Stake(alice, config.Coins(100), 60*config.SECONDS_PER_DAY, start)
	require.NoError(t, err)
	_, err = l.Stake(alice, config.Coins(50), year, start)
	require.NoError(t, err)

	n, err := l.GetStakeCount(alice)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	requireBalance(t, l, alice, 0)

	stake, err := l.GetStake(alice, 1)
	require.NoError(t, err)
	assert.Equal(t, config.Coins(100).Dec(), stake.Amount.Dec())
	assert.EqualValues(t, 60*config.SECONDS_PER_DAY, stake.LockDuration)

	_, _, err = l.WithdrawStake(alice, 2, start+year)
	require.NoError(t, err)
	requireBalance(t, l, alice, 55)
	assert.NoError(t, l.Audit())
}

func TestRandomConservation(t *testing.T) {
	l := testLedger(t)
	pool := l.PoolAddress()
	accounts := []address.Address{owner, alice, bob, pool}

	require.NoError(t, l.Transfer(owner, pool, config.Coins(300), start))

	balances := func() []string {
		out := make([]string, len(accounts))
		for i, v := range accounts {
			bal, err := l.BalanceOf(v)
			require.NoError(t, err)
			out[i] = bal.Dec()
		}
		return out
	}

	r := rand.New(rand.NewPCG(7, 11))
	now := start
	for i := 0; i < 400; i++ {
		now += r.Uint64N(20 * config.SECONDS_PER_DAY)
		from := accounts[r.IntN(len(accounts))]
		amount := config.Coins(r.Uint64N(120))

		before := balances()
		var err error
		switch r.IntN(3) {
		case 0:
			err = l.Transfer(from, accounts[r.IntN(len(accounts))], amount, now)
		case 1:
			_, err = l.Stake(from, amount, r.Uint64N(2*year), now)
		case 2:
			var n uint64
			n, err = l.GetStakeCount(from)
			require.NoError(t, err)
			_, _, err = l.WithdrawStake(from, r.Uint64N(n+1), now)
		}
		if err != nil {
			require.True(t, IsLedgerError(err), "step %d: %v", i, err)
			require.Equal(t, before, balances(), "step %d: rejected operation changed balances", i)
		}
		require.NoError(t, l.Audit(), "step %d", i)
	}

	staked := new(uint256.Int)
	for _, v := range accounts {
		stakes, err := l.GetStakes(v)
		require.NoError(t, err)
		for _, st := range stakes {
			if st.Status() == ledgertype.StakePending {
				staked.Add(staked, st.Amount)
			}
		}
	}
	stats, err := l.Stats()
	require.NoError(t, err)
	assert.Equal(t, staked.Dec(), stats.TotalStaked.Dec())
}
