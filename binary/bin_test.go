package binary

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func BenchmarkBinary(b *testing.B) {
	s := NewSer(make([]byte, b.N*4))

	n := uint64(b.N)
	for i := uint64(0); i < n; i++ {
		s.AddUvarint(i)
	}

	b.Logf("actual encoded length: %d; n*4: %d", len(s.Output()), n*4)

	d := NewDes(s.Output())

	for i := uint64(0); i < n; i++ {
		d.ReadUvarint()
	}

	if d.Error() != nil {
		b.Fatal(d.err)
	}
}

func TestMixedRecord(t *testing.T) {
	big := new(uint256.Int).Lsh(uint256.NewInt(1), 200)

	s := NewSer(make([]byte, 64))
	s.AddUint8(3)
	s.AddUvarint(300)
	s.AddUint256(big)
	s.AddUint256(nil)
	s.AddBool(true)
	s.AddBool(false)
	s.AddByteSlice([]byte("cfit"))
	s.AddFixedByteArray([]byte{7, 8})

	d := NewDes(s.Output())
	assert.Equal(t, uint8(3), d.ReadUint8())
	assert.Equal(t, uint64(300), d.ReadUvarint())
	assert.Equal(t, big, d.ReadUint256())
	assert.True(t, d.ReadUint256().IsZero())
	assert.True(t, d.ReadBool())
	assert.False(t, d.ReadBool())
	assert.Equal(t, []byte("cfit"), d.ReadByteSlice())
	assert.Equal(t, []byte{7, 8}, d.ReadFixedByteArray(2))
	require.NoError(t, d.Error())
	assert.Empty(t, d.RemainingData())
}

func TestTruncated(t *testing.T) {
	s := NewSer(nil)
	s.AddUint256(uint256.NewInt(1_000_000))

	out := s.Output()
	d := NewDes(out[:len(out)-1])
	d.ReadUint256()
	assert.Error(t, d.Error())

	// errors are sticky
	d.ReadUvarint()
	assert.Error(t, d.Error())
}

func TestInvalidBool(t *testing.T) {
	d := NewDes([]byte{0})
	d.ReadBool()
	assert.Error(t, d.Error())
}

func TestUint256TooLong(t *testing.T) {
	s := NewSer(nil)
	s.AddByteSlice(make([]byte, 33))

	d := NewDes(s.Output())
	d.ReadUint256()
	assert.Error(t, d.Error())
}
