package config

import "github.com/holiman/uint256"

// This file holds advanced config options. You shouldn't edit these options unless you really know what you
// are doing.

// Seed of the ledger's own address. The reward pool and all staked principal are held there.
const POOL_ADDRESS_SEED = "cfit-reward-pool"

// Max number of history events returned by a single get_events call
const MAX_EVENTS_PAGE = 100

// One whole token in base units (1e18)
var COIN = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(DECIMALS))

// Convert a whole-token amount to base units
func Coins(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), COIN)
}
