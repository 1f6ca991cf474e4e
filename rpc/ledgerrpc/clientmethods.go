package ledgerrpc

import (
	"github.com/cfit-project/cfit-ledger/address"
)

func (r *RpcClient) GetInfo() (*GetInfoResponse, error) {
	o := &GetInfoResponse{}
	return o, r.Request("get_info", GetInfoRequest{}, o)
}

func (r *RpcClient) Owner() (address.Address, error) {
	o := &OwnerResponse{}
	err := r.Request("owner", OwnerRequest{}, o)
	return o.Owner, err
}

func (r *RpcClient) BalanceOf(addr address.Address) (*BalanceOfResponse, error) {
	o := &BalanceOfResponse{}
	return o, r.Request("balance_of", BalanceOfRequest{Address: addr}, o)
}

func (r *RpcClient) Transfer(p TransferRequest) error {
	return r.Request("transfer", p, &SuccessResponse{})
}

func (r *RpcClient) Approve(p ApproveRequest) error {
	return r.Request("approve", p, &SuccessResponse{})
}

func (r *RpcClient) Allowance(p AllowanceRequest) (*AllowanceResponse, error) {
	o := &AllowanceResponse{}
	return o, r.Request("allowance", p, o)
}

func (r *RpcClient) TransferFrom(p TransferFromRequest) error {
	return r.Request("transfer_from", p, &SuccessResponse{})
}

func (r *RpcClient) Stake(p StakeRequest) (*StakeResponse, error) {
	o := &StakeResponse{}
	return o, r.Request("stake", p, o)
}

func (r *RpcClient) WithdrawStake(p WithdrawStakeRequest) (*WithdrawStakeResponse, error) {
	o := &WithdrawStakeResponse{}
	return o, r.Request("withdraw_stake", p, o)
}

func (r *RpcClient) GetStakeCount(addr address.Address) (uint64, error) {
	o := &GetStakeCountResponse{}
	err := r.Request("get_stake_count", GetStakeCountRequest{Address: addr}, o)
	return o.Count, err
}

func (r *RpcClient) GetStake(p GetStakeRequest) (*StakeInfo, error) {
	o := &StakeInfo{}
	return o, r.Request("get_stake", p, o)
}

func (r *RpcClient) GetStakes(addr address.Address) (*GetStakesResponse, error) {
	o := &GetStakesResponse{}
	return o, r.Request("get_stakes", GetStakesRequest{Address: addr}, o)
}

func (r *RpcClient) GetEvents(p GetEventsRequest) (*GetEventsResponse, error) {
	o := &GetEventsResponse{}
	return o, r.Request("get_events", p, o)
}
