package util

import (
	"encoding/binary"
	"errors"
	"strings"
	"time"

	"github.com/cfit-project/cfit-ledger/config"

	"github.com/holiman/uint256"
	"github.com/sasha-s/go-deadlock"
)

// returns the timestamp (UNIX seconds)
func Time() uint64 {
	return uint64(time.Now().Unix())
}

// FormatCoin prints a base-unit amount as whole tokens with config.DECIMALS decimals.
// Trailing zeros of the fractional part are kept to a minimum of two digits.
func FormatCoin(n *uint256.Int) string {
	if n == nil {
		n = new(uint256.Int)
	}
	s := n.Dec()

	for len(s) < config.DECIMALS+1 {
		s = "0" + s
	}

	whole, frac := s[:len(s)-config.DECIMALS], s[len(s)-config.DECIMALS:]
	frac = strings.TrimRight(frac, "0")
	for len(frac) < 2 {
		frac += "0"
	}
	return whole + "." + frac
}

var ErrInvalidCoin = errors.New("invalid coin amount")

// ParseCoin parses a whole-token decimal string such as "12.5" into base units
func ParseCoin(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return nil, ErrInvalidCoin
	}

	whole, frac, hasDot := strings.Cut(s, ".")
	if hasDot && len(frac) == 0 {
		return nil, ErrInvalidCoin
	}
	if len(frac) > config.DECIMALS {
		return nil, errors.New("too many decimal digits")
	}
	if len(whole) == 0 {
		whole = "0"
	}
	for len(frac) < config.DECIMALS {
		frac += "0"
	}

	if !isDigits(whole) || !isDigits(frac) {
		return nil, ErrInvalidCoin
	}

	digits := strings.TrimLeft(whole+frac, "0")
	if digits == "" {
		return new(uint256.Int), nil
	}
	return uint256.FromDecimal(digits)
}

// ParseAmount parses a decimal string of base units
func ParseAmount(s string) (*uint256.Int, error) {
	if !isDigits(s) || len(s) == 0 {
		return nil, ErrInvalidCoin
	}
	return uint256.FromDecimal(s)
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func PadR(s string, l int) string {
	for len(s) < l {
		s = " " + s
	}
	return s
}

// U64Key encodes v as big-endian, so that keys sort in numeric order in the database
func U64Key(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func init() {
	deadlock.Opts.DeadlockTimeout = 30 * time.Second
}

type Mutex = deadlock.Mutex
