package ledgerrpc

import (
	"errors"

	"github.com/cfit-project/cfit-ledger/ledger"
	"github.com/cfit-project/cfit-ledger/rpc"
)

// Ledger error codes. They are part of the RPC interface and must not be renumbered.
const (
	CodeInvalidSupply = -32010 - iota
	CodeInsufficientBalance
	CodeInvalidRecipient
	CodeInvalidIndex
	CodeAlreadyWithdrawn
	CodeStillLocked
	CodeInsufficientPool
	CodeInvalidDuration
	CodeInvalidSender
	CodeInvalidAmount
	CodeInsufficientAllowance
	CodeInvalidSchedule
	CodeOverflow
	CodeSupplyMismatch
)

// CodeStorage reports a failure of the node itself, not a rejected request
const CodeStorage = -32000

var codes = map[error]int{
	ledger.ErrInvalidSupply:         CodeInvalidSupply,
	ledger.ErrInsufficientBalance:   CodeInsufficientBalance,
	ledger.ErrInvalidRecipient:      CodeInvalidRecipient,
	ledger.ErrInvalidIndex:          CodeInvalidIndex,
	ledger.ErrAlreadyWithdrawn:      CodeAlreadyWithdrawn,
	ledger.ErrStillLocked:           CodeStillLocked,
	ledger.ErrInsufficientPool:      CodeInsufficientPool,
	ledger.ErrInvalidDuration:       CodeInvalidDuration,
	ledger.ErrInvalidSender:         CodeInvalidSender,
	ledger.ErrInvalidAmount:         CodeInvalidAmount,
	ledger.ErrInsufficientAllowance: CodeInsufficientAllowance,
	ledger.ErrInvalidSchedule:       CodeInvalidSchedule,
	ledger.ErrOverflow:              CodeOverflow,
	ledger.ErrSupplyMismatch:        CodeSupplyMismatch,
}

// ErrorCode returns the RPC error code of a ledger error, or CodeStorage for any other error.
func ErrorCode(err error) int {
	for _, v := range ledger.All {
		if errors.Is(err, v) {
			return codes[v]
		}
	}
	return CodeStorage
}

// NewError converts a ledger error to an RPC error object. Storage failures are not detailed.
func NewError(err error) *rpc.Error {
	code := ErrorCode(err)
	if code == CodeStorage {
		return &rpc.Error{
			Code:    CodeStorage,
			Message: "internal error",
		}
	}
	return &rpc.Error{
		Code:    code,
		Message: err.Error(),
	}
}

// RemoteError is a ledger error returned by the node. It matches the corresponding ledger
// sentinel with errors.Is.
type RemoteError struct {
	Code    int
	Message string

	err error
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	return e.err
}

func fromRpcError(e *rpc.Error) error {
	for k, v := range codes {
		if v == e.Code {
			return &RemoteError{
				Code:    e.Code,
				Message: e.Message,
				err:     k,
			}
		}
	}
	return e
}
