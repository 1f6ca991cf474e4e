package ledger

import (
	"github.com/pkg/errors"
)

// Every ledger operation either commits entirely or fails with one of these (possibly wrapped with
// context). Use errors.Is to match them.
var (
	ErrInvalidSupply       = errors.New("initial supply must be positive")
	ErrInsufficientBalance = errors.New("ERC20: transfer amount exceeds balance")
	ErrInvalidRecipient    = errors.New("ERC20: transfer to the zero address")
	ErrInvalidIndex        = errors.New("Invalid stake index")
	ErrAlreadyWithdrawn    = errors.New("Stake already withdrawn")
	ErrStillLocked         = errors.New("Stake is still locked")
	ErrInsufficientPool    = errors.New("reward pool cannot cover principal and reward")
	ErrInvalidDuration     = errors.New("invalid lock duration")

	ErrInvalidSender         = errors.New("invalid sender")
	ErrInvalidAmount         = errors.New("stake amount must be positive")
	ErrInsufficientAllowance = errors.New("ERC20: insufficient allowance")
	ErrInvalidSchedule       = errors.New("invalid reward schedule")
	ErrOverflow              = errors.New("arithmetic overflow")
	ErrSupplyMismatch        = errors.New("sum of balances does not match total supply")
)

// IsLedgerError reports whether err is one of the ledger's rejection errors, as opposed to a
// storage or encoding failure.
func IsLedgerError(err error) bool {
	for _, v := range All {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// All lists the ledger errors, in a stable order
var All = []error{
	ErrInvalidSupply,
	ErrInsufficientBalance,
	ErrInvalidRecipient,
	ErrInvalidIndex,
	ErrAlreadyWithdrawn,
	ErrStillLocked,
	ErrInsufficientPool,
	ErrInvalidDuration,
	ErrInvalidSender,
	ErrInvalidAmount,
	ErrInsufficientAllowance,
	ErrInvalidSchedule,
	ErrOverflow,
	ErrSupplyMismatch,
}
