package config

import "time"

const NAME = "cfit"

const VERSION_MAJOR = 1
const VERSION_MINOR = 2
const VERSION_PATCH = 0

// token metadata
const TOKEN_NAME = "CFITTOKEN"
const TOKEN_SYMBOL = "CFI"
const DECIMALS = 18

const SECONDS_PER_DAY = 24 * 60 * 60
const SECONDS_PER_YEAR = 365 * SECONDS_PER_DAY

// Staking reward rates are expressed in basis points per 365-day year.
const BPS_DENOMINATOR = 10_000
const ANNUAL_RATE_BPS = 1_000 // 10.00%

// Upper bound for a single rate tier, 1000% per year.
const MAX_RATE_BPS = 100 * BPS_DENOMINATOR

const RPC_READ_TIMEOUT = 30 * time.Second

const DEFAULT_DB_BACKEND = "bolt"
