package ledgerrpc

import (
	"github.com/cfit-project/cfit-ledger/address"
)

// Amounts are decimal strings of base units (10^-18 CFI).

type GetInfoRequest struct {
}
type GetInfoResponse struct {
	Name        string          `json:"name"`
	Symbol      string          `json:"symbol"`
	Decimals    uint8           `json:"decimals"`
	TotalSupply string          `json:"total_supply"`
	Owner       address.Address `json:"owner"`
	Pool        address.Address `json:"pool"`

	PoolBalance      string `json:"pool_balance"`
	TotalStaked      string `json:"total_staked"`
	TotalRewardsPaid string `json:"total_rewards_paid"`
	RewardReserve    string `json:"reward_reserve"`
	ActiveStakes     uint64 `json:"active_stakes"`
	SettledStakes    uint64 `json:"settled_stakes"`

	Schedule []RewardTier `json:"schedule"`

	Version string `json:"version"`
	Network string `json:"network"`
}

type RewardTier struct {
	MinLockDuration uint64 `json:"min_lock_duration"`
	RateBps         uint64 `json:"rate_bps"`
}

type OwnerRequest struct {
}
type OwnerResponse struct {
	Owner address.Address `json:"owner"`
}

type BalanceOfRequest struct {
	Address address.Address `json:"address"`
}
type BalanceOfResponse struct {
	Balance string `json:"balance"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type TransferRequest struct {
	From   address.Address `json:"from"`
	To     address.Address `json:"to"`
	Amount string          `json:"amount"`
}

type ApproveRequest struct {
	Owner   address.Address `json:"owner"`
	Spender address.Address `json:"spender"`
	Amount  string          `json:"amount"`
}

type AllowanceRequest struct {
	Owner   address.Address `json:"owner"`
	Spender address.Address `json:"spender"`
}
type AllowanceResponse struct {
	Allowance string `json:"allowance"`
}

type TransferFromRequest struct {
	Spender address.Address `json:"spender"`
	From    address.Address `json:"from"`
	To      address.Address `json:"to"`
	Amount  string          `json:"amount"`
}

type StakeRequest struct {
	Account      address.Address `json:"account"`
	Amount       string          `json:"amount"`
	LockDuration uint64          `json:"lock_duration"` // seconds
}
type StakeResponse struct {
	Index uint64 `json:"index"`
}

type WithdrawStakeRequest struct {
	Account address.Address `json:"account"`
	Index   uint64          `json:"index"`
}
type WithdrawStakeResponse struct {
	Principal string `json:"principal"`
	Reward    string `json:"reward"`
}

type GetStakeCountRequest struct {
	Address address.Address `json:"address"`
}
type GetStakeCountResponse struct {
	Count uint64 `json:"count"`
}

type GetStakeRequest struct {
	Address address.Address `json:"address"`
	Index   uint64          `json:"index"`
}

// StakeInfo describes a stake record. Reward is the amount paid for settled stakes, and the amount
// that will be paid at withdrawal for pending ones.
type StakeInfo struct {
	Index        uint64 `json:"index"`
	Amount       string `json:"amount"`
	Timestamp    uint64 `json:"timestamp"`
	LockDuration uint64 `json:"lock_duration"`
	UnlockTime   uint64 `json:"unlock_time"`
	RateBps      uint64 `json:"rate_bps"`
	Status       string `json:"status"`
	Reward       string `json:"reward"`
	SettledAt    uint64 `json:"settled_at,omitempty"`
}

type GetStakesRequest struct {
	Address address.Address `json:"address"`
}
type GetStakesResponse struct {
	Stakes []StakeInfo `json:"stakes"`
}

type GetEventsRequest struct {
	Address address.Address `json:"address"`
	Offset  uint64          `json:"offset"`
	Limit   uint64          `json:"limit"`
}
type GetEventsResponse struct {
	Events []EventInfo `json:"events"`
}

type EventInfo struct {
	Seq          uint64          `json:"seq"`
	Kind         string          `json:"kind"`
	Counterparty address.Address `json:"counterparty"`
	Amount       string          `json:"amount"`
	Reward       string          `json:"reward,omitempty"`
	StakeIndex   uint64          `json:"stake_index,omitempty"`
	Time         uint64          `json:"time"`
}
