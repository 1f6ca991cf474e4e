package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cfit-project/cfit-ledger/config"
	"github.com/cfit-project/cfit-ledger/ledger"
	"github.com/cfit-project/cfit-ledger/ledgertype"
	"github.com/cfit-project/cfit-ledger/rpc"
	"github.com/cfit-project/cfit-ledger/rpc/ledgerrpc"
	"github.com/cfit-project/cfit-ledger/rpc/rpcserver"
	"github.com/cfit-project/cfit-ledger/util"

	"github.com/holiman/uint256"
)

func startRpc(l *ledger.Ledger, conf config.RPCFile) *http.Server {
	ratelimitCount := conf.RateLimit
	if ratelimitCount == 0 {
		ratelimitCount = 100_000 // max 100k requests per minute for private RPC
		if conf.Public {
			ratelimitCount = 5_000 // max 5k requests per minute for public, restricted RPC
		}
	}

	rs := rpcserver.New(rpcserver.Config{
		Restricted:     conf.Public,
		Authentication: conf.Authentication,
		RateLimit:      ratelimitCount,
	})
	registerHandlers(rs, l, util.Time, conf.Public)

	go func() {
		for {
			time.Sleep(5 * time.Minute)
			rs.Prune()
		}
	}()

	return rs.Start(conf.Bind)
}

// registerHandlers installs the ledger methods on rs. A restricted server only serves reads.
func registerHandlers(rs *rpcserver.Server, l *ledger.Ledger, now func() uint64, restricted bool) {
	rs.Handle("get_info", func(c *rpcserver.Context) {
		stats, err := l.Stats()
		if err != nil {
			ledgerError(c, err)
			return
		}

		sched := l.Schedule()
		tiers := make([]ledgerrpc.RewardTier, len(sched))
		for i, v := range sched {
			tiers[i] = ledgerrpc.RewardTier{
				MinLockDuration: v.MinLockDuration,
				RateBps:         v.RateBps,
			}
		}

		c.SuccessResponse(ledgerrpc.GetInfoResponse{
			Name:             l.Name(),
			Symbol:           l.Symbol(),
			Decimals:         l.Decimals(),
			TotalSupply:      l.TotalSupply().Dec(),
			Owner:            l.Owner(),
			Pool:             l.PoolAddress(),
			PoolBalance:      stats.PoolBalance.Dec(),
			TotalStaked:      stats.TotalStaked.Dec(),
			TotalRewardsPaid: stats.TotalRewardsPaid.Dec(),
			RewardReserve:    stats.RewardReserve.Dec(),
			ActiveStakes:     stats.ActiveStakes,
			SettledStakes:    stats.SettledStakes,
			Schedule:         tiers,
			Version:          fmt.Sprintf("%d.%d.%d", config.VERSION_MAJOR, config.VERSION_MINOR, config.VERSION_PATCH),
			Network:          config.NETWORK_NAME,
		})
	})

	rs.Handle("owner", func(c *rpcserver.Context) {
		c.SuccessResponse(ledgerrpc.OwnerResponse{
			Owner: l.Owner(),
		})
	})

	rs.Handle("balance_of", func(c *rpcserver.Context) {
		params := ledgerrpc.BalanceOfRequest{}
		if c.GetParams(&params) != nil {
			return
		}

		bal, err := l.BalanceOf(params.Address)
		if err != nil {
			ledgerError(c, err)
			return
		}
		c.SuccessResponse(ledgerrpc.BalanceOfResponse{
			Balance: bal.Dec(),
		})
	})

	rs.Handle("allowance", func(c *rpcserver.Context) {
		params := ledgerrpc.AllowanceRequest{}
		if c.GetParams(&params) != nil {
			return
		}

		allowance, err := l.Allowance(params.Owner, params.Spender)
		if err != nil {
			ledgerError(c, err)
			return
		}
		c.SuccessResponse(ledgerrpc.AllowanceResponse{
			Allowance: allowance.Dec(),
		})
	})

	rs.Handle("get_stake_count", func(c *rpcserver.Context) {
		params := ledgerrpc.GetStakeCountRequest{}
		if c.GetParams(&params) != nil {
			return
		}

		n, err := l.GetStakeCount(params.Address)
		if err != nil {
			ledgerError(c, err)
			return
		}
		c.SuccessResponse(ledgerrpc.GetStakeCountResponse{
			Count: n,
		})
	})

	rs.Handle("get_stake", func(c *rpcserver.Context) {
		params := ledgerrpc.GetStakeRequest{}
		if c.GetParams(&params) != nil {
			return
		}

		stake, err := l.GetStake(params.Address, params.Index)
		if err != nil {
			ledgerError(c, err)
			return
		}
		c.SuccessResponse(stakeInfo(params.Index, stake))
	})

	rs.Handle("get_stakes", func(c *rpcserver.Context) {
		params := ledgerrpc.GetStakesRequest{}
		if c.GetParams(&params) != nil {
			return
		}

		stakes, err := l.GetStakes(params.Address)
		if err != nil {
			ledgerError(c, err)
			return
		}
		res := ledgerrpc.GetStakesResponse{
			Stakes: make([]ledgerrpc.StakeInfo, len(stakes)),
		}
		for i, v := range stakes {
			res.Stakes[i] = stakeInfo(uint64(i), v)
		}
		c.SuccessResponse(res)
	})

	rs.Handle("get_events", func(c *rpcserver.Context) {
		params := ledgerrpc.GetEventsRequest{}
		if c.GetParams(&params) != nil {
			return
		}

		events, err := l.Events(params.Address, params.Offset, params.Limit)
		if err != nil {
			ledgerError(c, err)
			return
		}
		res := ledgerrpc.GetEventsResponse{
			Events: make([]ledgerrpc.EventInfo, len(events)),
		}
		for i, v := range events {
			res.Events[i] = ledgerrpc.EventInfo{
				Seq:          params.Offset + uint64(i),
				Kind:         v.Kind.String(),
				Counterparty: v.Counterparty,
				Amount:       v.Amount.Dec(),
				StakeIndex:   v.StakeIndex,
				Time:         v.Time,
			}
			if v.Kind == ledgertype.EventWithdraw {
				res.Events[i].Reward = v.Reward.Dec()
			}
		}
		c.SuccessResponse(res)
	})

	if restricted {
		return
	}

	rs.Handle("transfer", func(c *rpcserver.Context) {
		params := ledgerrpc.TransferRequest{}
		if c.GetParams(&params) != nil {
			return
		}
		amount, ok := parseAmount(c, params.Amount)
		if !ok {
			return
		}

		err := l.Transfer(params.From, params.To, amount, now())
		if err != nil {
			ledgerError(c, err)
			return
		}
		c.SuccessResponse(ledgerrpc.SuccessResponse{Success: true})
	})

	rs.Handle("approve", func(c *rpcserver.Context) {
		params := ledgerrpc.ApproveRequest{}
		if c.GetParams(&params) != nil {
			return
		}
		amount, ok := parseAmount(c, params.Amount)
		if !ok {
			return
		}

		err := l.Approve(params.Owner, params.Spender, amount, now())
		if err != nil {
			ledgerError(c, err)
			return
		}
		c.SuccessResponse(ledgerrpc.SuccessResponse{Success: true})
	})

	rs.Handle("transfer_from", func(c *rpcserver.Context) {
		params := ledgerrpc.TransferFromRequest{}
		if c.GetParams(&params) != nil {
			return
		}
		amount, ok := parseAmount(c, params.Amount)
		if !ok {
			return
		}

		err := l.TransferFrom(params.Spender, params.From, params.To, amount, now())
		if err != nil {
			ledgerError(c, err)
			return
		}
		c.SuccessResponse(ledgerrpc.SuccessResponse{Success: true})
	})

	rs.Handle("stake", func(c *rpcserver.Context) {
		params := ledgerrpc.StakeRequest{}
		if c.GetParams(&params) != nil {
			return
		}
		amount, ok := parseAmount(c, params.Amount)
		if !ok {
			return
		}

		index, err := l.Stake(params.Account, amount, params.LockDuration, now())
		if err != nil {
			ledgerError(c, err)
			return
		}
		c.SuccessResponse(ledgerrpc.StakeResponse{
			Index: index,
		})
	})

	rs.Handle("withdraw_stake", func(c *rpcserver.Context) {
		params := ledgerrpc.WithdrawStakeRequest{}
		if c.GetParams(&params) != nil {
			return
		}

		principal, reward, err := l.WithdrawStake(params.Account, params.Index, now())
		if err != nil {
			ledgerError(c, err)
			return
		}
		c.SuccessResponse(ledgerrpc.WithdrawStakeResponse{
			Principal: principal.Dec(),
			Reward:    reward.Dec(),
		})
	})
}

func parseAmount(c *rpcserver.Context, s string) (*uint256.Int, bool) {
	amount, err := util.ParseAmount(s)
	if err != nil {
		c.ErrorResponse(&rpc.Error{
			Code:    rpc.CodeInvalidParams,
			Message: fmt.Sprintf("invalid amount %q", s),
		})
		return nil, false
	}
	return amount, true
}

func ledgerError(c *rpcserver.Context, err error) {
	if !ledger.IsLedgerError(err) {
		Log.Err(c.Body.Method, "failed:", err)
	}
	c.ErrorResponse(ledgerrpc.NewError(err))
}

func stakeInfo(index uint64, s *ledgertype.Stake) ledgerrpc.StakeInfo {
	reward := s.Reward
	if !s.Settled {
		r, err := ledger.CalcReward(s.Amount, s.RateBps, s.LockDuration)
		if err == nil {
			reward = r
		}
	}

	return ledgerrpc.StakeInfo{
		Index:        index,
		Amount:       s.Amount.Dec(),
		Timestamp:    s.Timestamp,
		LockDuration: s.LockDuration,
		UnlockTime:   s.UnlockTime(),
		RateBps:      s.RateBps,
		Status:       s.Status().String(),
		Reward:       reward.Dec(),
		SettledAt:    s.SettledAt,
	}
}
