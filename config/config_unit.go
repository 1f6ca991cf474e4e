//go:build !testnet && unittest

package config

const RPC_BIND_PORT = 27311
const METRICS_BIND_PORT = 27312

const NETWORK_NAME = "unittest"

// GENESIS INFO
const GENESIS_SUPPLY = 2_000
