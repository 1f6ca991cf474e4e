package address

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"hash/crc32"
	"math/big"
	"strings"

	"github.com/zeebo/blake3"
)

const SIZE = 20

// Text prefix of encoded addresses
const PREFIX = "c"

type Address [SIZE]byte

// The zero-value of address is considered invalid: nothing can be sent to it and it never acts as a caller.
var INVALID_ADDRESS = Address{}

// FromSeed derives a deterministic address from an arbitrary seed, used for the ledger's own
// pool address and for test accounts.
func FromSeed(seed string) Address {
	hash := blake3.Sum256([]byte(seed))

	return Address(hash[:SIZE]) // the first SIZE bytes of the hash are the actual address
}

// FromString parses either the checksummed base36 form ("c...") or a 0x-prefixed hex address.
func FromString(p string) (Address, error) {
	if strings.HasPrefix(p, "0x") || strings.HasPrefix(p, "0X") {
		return fromHex(p[2:])
	}

	if len(p) < 4 || p[0] != PREFIX[0] {
		return Address{}, errors.New("invalid address prefix")
	}
	p = p[1:]

	bigi, success := big.NewInt(0).SetString(p, 36)
	if !success {
		return Address{}, errors.New("invalid address")
	}

	data := bigi.Bytes()
	if len(data) > SIZE+2 {
		return Address{}, errors.New("invalid address length")
	}
	// leading zero bytes are dropped by big.Int
	data = append(make([]byte, SIZE+2-len(data)), data...)

	sum := checksum(data[2:])
	if data[0] != sum[0] || data[1] != sum[1] {
		return Address{}, errors.New("invalid address checksum")
	}

	return Address(data[2:]), nil
}

func fromHex(p string) (Address, error) {
	if len(p) != SIZE*2 {
		return Address{}, errors.New("invalid hex address length")
	}
	b, err := hex.DecodeString(p)
	if err != nil {
		return Address{}, errors.New("invalid hex address")
	}
	return Address(b), nil
}

func checksum(a []byte) []byte {
	sum := crc32.ChecksumIEEE(a[:])
	sumb := make([]byte, 2)
	binary.LittleEndian.PutUint16(sumb, uint16(sum&0xffff))
	return sumb
}

func (a Address) IsZero() bool {
	return a == INVALID_ADDRESS
}

func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) String() string {
	return PREFIX + big.NewInt(0).SetBytes(append(checksum(a[:]), a[:]...)).Text(36)
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(c []byte) error {
	addr, err := FromString(string(c))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}
