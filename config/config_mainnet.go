//go:build !testnet && !unittest

package config

const RPC_BIND_PORT = 7311
const METRICS_BIND_PORT = 7312

const NETWORK_NAME = "mainnet"

// GENESIS INFO
const GENESIS_SUPPLY = 2_000 // whole tokens minted to the owner at construction
