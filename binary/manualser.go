package binary

import (
	"encoding/binary"

	"github.com/holiman/uint256"
)

func NewSer(reuseSlice []byte) Ser {
	return Ser{
		data: reuseSlice[0:0],
	}
}

type Ser struct {
	data []byte
}

func (s Ser) Output() []byte {
	return s.data
}

func (s *Ser) AddUint8(n uint8) {
	s.data = append(s.data, n)
}
func (s *Ser) AddUvarint(n uint64) {
	s.data = binary.AppendUvarint(s.data, n)
}

// adds a fixed-length byte array
func (s *Ser) AddFixedByteArray(a []byte) {
	s.data = append(s.data, a...)
}

// adds a variable-length byte slice
func (s *Ser) AddByteSlice(a []byte) {
	s.data = append(binary.AppendUvarint(s.data, uint64(len(a))), a...)
}

// adds an unsigned 256-bit integer as a minimal big-endian byte slice. nil is encoded as zero.
func (s *Ser) AddUint256(n *uint256.Int) {
	if n == nil || n.IsZero() {
		s.AddByteSlice(nil)
		return
	}
	s.AddByteSlice(n.Bytes())
}

// adds a boolean value
func (s *Ser) AddBool(b bool) {
	if b {
		s.data = append(s.data, boolTrue)
	} else {
		s.data = append(s.data, boolFalse)
	}
}
