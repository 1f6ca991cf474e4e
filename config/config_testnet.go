//go:build testnet

package config

const RPC_BIND_PORT = 17311
const METRICS_BIND_PORT = 17312

const NETWORK_NAME = "testnet"

// GENESIS INFO
const GENESIS_SUPPLY = 2_000
