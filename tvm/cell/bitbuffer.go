package cell

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

const MaxBitsSize = 1023

// BitBuffer is an MSB-first sequence of bits with a write position and a read cursor.
// Bits past the write position are always zero, cell hashing and serialization rely on it.
type BitBuffer struct {
	data     []byte
	sz       uint
	rd       uint
	capacity uint
}

func NewBitBuffer(capacity uint) *BitBuffer {
	return &BitBuffer{
		data:     make([]byte, 0, (capacity+7)/8),
		capacity: capacity,
	}
}

// readOnlyBits wraps data without copying, capacity equals size so any write overflows.
func readOnlyBits(data []byte, sz uint) *BitBuffer {
	return &BitBuffer{
		data:     data,
		sz:       sz,
		capacity: sz,
	}
}

func (b *BitBuffer) fits(n uint) error {
	if b.sz+n > b.capacity {
		if b.capacity == MaxBitsSize {
			return ErrNotFit1023
		}
		return fmt.Errorf("%w: buffer capacity %d exceeded, has %d, want to add %d", ErrOverflow, b.capacity, b.sz, n)
	}
	return nil
}

func (b *BitBuffer) appendBits(src []byte, srcOff, n uint) {
	if need := int((b.sz + n + 7) / 8); need > len(b.data) {
		b.data = append(b.data, make([]byte, need-len(b.data))...)
	}
	copyBits(b.data, b.sz, src, srcOff, n)
	b.sz += n
}

// copyBits ORs n bits of src starting at srcOff into dst at dstOff, target bits must be zero.
func copyBits(dst []byte, dstOff uint, src []byte, srcOff uint, n uint) {
	if dstOff%8 == 0 && srcOff%8 == 0 {
		full := n / 8
		copy(dst[dstOff/8:], src[srcOff/8:srcOff/8+full])
		dstOff += full * 8
		srcOff += full * 8
		n -= full * 8
	}

	for i := uint(0); i < n; i++ {
		s := srcOff + i
		if src[s/8]&(0x80>>(s%8)) != 0 {
			d := dstOff + i
			dst[d/8] |= 0x80 >> (d % 8)
		}
	}
}

func (b *BitBuffer) WriteBit(value bool) error {
	if err := b.fits(1); err != nil {
		return err
	}

	var v byte
	if value {
		v = 0x80
	}
	b.appendBits([]byte{v}, 0, 1)
	return nil
}

func (b *BitBuffer) WriteUInt(value uint64, sz uint) error {
	if sz > 64 {
		return b.WriteBigUInt(new(big.Int).SetUint64(value), sz)
	}

	if sz < 64 && value>>sz != 0 {
		return fmt.Errorf("%w: %d does not fit into %d bits", ErrTooBigValue, value, sz)
	}

	if err := b.fits(sz); err != nil {
		return err
	}

	if sz == 0 {
		return nil
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], value<<(64-sz))
	b.appendBits(buf[:], 0, sz)
	return nil
}

func (b *BitBuffer) WriteInt(value int64, sz uint) error {
	if sz > 64 {
		return b.WriteBigInt(big.NewInt(value), sz)
	}

	if sz == 0 {
		if value != 0 {
			return fmt.Errorf("%w: %d does not fit into 0 bits", ErrTooBigValue, value)
		}
		return nil
	}

	if sz < 64 {
		limit := int64(1) << (sz - 1)
		if value < -limit || value >= limit {
			return fmt.Errorf("%w: %d does not fit into %d signed bits", ErrTooBigValue, value, sz)
		}
	}

	u := uint64(value)
	if sz < 64 {
		u &= (1 << sz) - 1
	}
	return b.WriteUInt(u, sz)
}

func (b *BitBuffer) WriteBigUInt(value *big.Int, sz uint) error {
	if value.Sign() < 0 {
		return ErrNegative
	}

	if sz > 256 {
		return ErrTooBigSize
	}

	if uint(value.BitLen()) > sz {
		return fmt.Errorf("%w: value of %d bits does not fit into %d bits", ErrTooBigValue, value.BitLen(), sz)
	}

	if err := b.fits(sz); err != nil {
		return err
	}

	b.writeBig(value, sz)
	return nil
}

func (b *BitBuffer) WriteBigInt(value *big.Int, sz uint) error {
	if sz > 257 {
		return ErrTooBigSize
	}

	if sz == 0 {
		if value.Sign() != 0 {
			return fmt.Errorf("%w: value does not fit into 0 bits", ErrTooBigValue)
		}
		return nil
	}

	u := value
	if value.Sign() < 0 {
		// -x fits into sz signed bits when x-1 fits into sz-1 unsigned bits
		if uint(new(big.Int).Not(value).BitLen()) > sz-1 {
			return fmt.Errorf("%w: value does not fit into %d signed bits", ErrTooBigValue, sz)
		}
		u = new(big.Int).Add(value, new(big.Int).Lsh(big.NewInt(1), sz))
	} else if uint(value.BitLen()) > sz-1 {
		return fmt.Errorf("%w: value does not fit into %d signed bits", ErrTooBigValue, sz)
	}

	if err := b.fits(sz); err != nil {
		return err
	}

	b.writeBig(u, sz)
	return nil
}

func (b *BitBuffer) writeBig(value *big.Int, sz uint) {
	if sz == 0 {
		return
	}

	ln := (sz + 7) / 8
	buf := value.FillBytes(make([]byte, ln))
	b.appendBits(buf, ln*8-sz, sz)
}

// WriteBits appends first sz bits of data.
func (b *BitBuffer) WriteBits(data []byte, sz uint) error {
	if uint(len(data)) < (sz+7)/8 {
		return ErrSmallSlice
	}

	if err := b.fits(sz); err != nil {
		return err
	}

	b.appendBits(data, 0, sz)
	return nil
}

func (b *BitBuffer) WriteBytes(data []byte) error {
	return b.WriteBits(data, uint(len(data))*8)
}

// WriteBuffer appends all unread bits of another buffer.
func (b *BitBuffer) WriteBuffer(from *BitBuffer) error {
	n := from.BitsLeft()
	if err := b.fits(n); err != nil {
		return err
	}

	b.appendBits(from.data, from.rd, n)
	return nil
}

func (b *BitBuffer) readBits(sz uint, preload bool) ([]byte, error) {
	if b.sz-b.rd < sz {
		return nil, ErrNotEnoughData(int(b.sz-b.rd), int(sz))
	}

	res := make([]byte, (sz+7)/8)
	copyBits(res, 0, b.data, b.rd, sz)

	if !preload {
		b.rd += sz
	}
	return res, nil
}

// ReadBits returns sz bits aligned to the left of the returned bytes.
func (b *BitBuffer) ReadBits(sz uint) ([]byte, error) {
	return b.readBits(sz, false)
}

func (b *BitBuffer) PreloadBits(sz uint) ([]byte, error) {
	return b.readBits(sz, true)
}

func (b *BitBuffer) ReadBytes(n uint) ([]byte, error) {
	return b.readBits(n*8, false)
}

func (b *BitBuffer) ReadBit() (bool, error) {
	if b.rd >= b.sz {
		return false, ErrNotEnoughData(0, 1)
	}

	v := b.data[b.rd/8]&(0x80>>(b.rd%8)) != 0
	b.rd++
	return v, nil
}

func (b *BitBuffer) readBigUInt(sz uint, preload bool) (*big.Int, error) {
	data, err := b.readBits(sz, preload)
	if err != nil {
		return nil, err
	}

	v := new(big.Int).SetBytes(data)
	if pad := uint(len(data))*8 - sz; pad > 0 {
		v.Rsh(v, pad)
	}
	return v, nil
}

func (b *BitBuffer) readUInt(sz uint, preload bool) (uint64, error) {
	if sz > 64 {
		v, err := b.readBigUInt(sz, true)
		if err != nil {
			return 0, err
		}
		if !v.IsUint64() {
			return 0, fmt.Errorf("%w: value of %d bits does not fit into uint64", ErrTooBigValue, v.BitLen())
		}
		if !preload {
			b.rd += sz
		}
		return v.Uint64(), nil
	}

	data, err := b.readBits(sz, preload)
	if err != nil {
		return 0, err
	}

	var buf [8]byte
	copy(buf[:], data)
	if sz == 0 {
		return 0, nil
	}
	return binary.BigEndian.Uint64(buf[:]) >> (64 - sz), nil
}

func (b *BitBuffer) ReadUInt(sz uint) (uint64, error) {
	return b.readUInt(sz, false)
}

func (b *BitBuffer) PreloadUInt(sz uint) (uint64, error) {
	return b.readUInt(sz, true)
}

func (b *BitBuffer) ReadInt(sz uint) (int64, error) {
	if sz > 64 {
		v, err := b.PreloadBigInt(sz)
		if err != nil {
			return 0, err
		}
		if !v.IsInt64() {
			return 0, fmt.Errorf("%w: value of %d bits does not fit into int64", ErrTooBigValue, v.BitLen())
		}
		b.rd += sz
		return v.Int64(), nil
	}

	u, err := b.readUInt(sz, false)
	if err != nil {
		return 0, err
	}

	if sz > 0 && sz < 64 && u>>(sz-1) != 0 {
		u |= ^uint64(0) << sz
	}
	return int64(u), nil
}

func (b *BitBuffer) ReadBigUInt(sz uint) (*big.Int, error) {
	if sz > 256 {
		return nil, ErrTooBigSize
	}
	return b.readBigUInt(sz, false)
}

func (b *BitBuffer) PreloadBigUInt(sz uint) (*big.Int, error) {
	if sz > 256 {
		return nil, ErrTooBigSize
	}
	return b.readBigUInt(sz, true)
}

func (b *BitBuffer) readBigInt(sz uint, preload bool) (*big.Int, error) {
	if sz > 257 {
		return nil, ErrTooBigSize
	}

	u, err := b.readBigUInt(sz, preload)
	if err != nil {
		return nil, err
	}

	if sz > 0 && u.Bit(int(sz-1)) == 1 {
		u.Sub(u, new(big.Int).Lsh(big.NewInt(1), sz))
	}
	return u, nil
}

func (b *BitBuffer) ReadBigInt(sz uint) (*big.Int, error) {
	return b.readBigInt(sz, false)
}

func (b *BitBuffer) PreloadBigInt(sz uint) (*big.Int, error) {
	return b.readBigInt(sz, true)
}

func (b *BitBuffer) Skip(sz uint) error {
	if b.sz-b.rd < sz {
		return ErrNotEnoughData(int(b.sz-b.rd), int(sz))
	}
	b.rd += sz
	return nil
}

// Remaining returns a read-only view over unread bits, data is shared, not copied.
func (b *BitBuffer) Remaining() *BitBuffer {
	return &BitBuffer{
		data:     b.data,
		sz:       b.sz,
		rd:       b.rd,
		capacity: b.sz,
	}
}

// Bytes returns a copy of unread bits aligned to the left.
func (b *BitBuffer) Bytes() []byte {
	data, _ := b.readBits(b.sz-b.rd, true)
	return data
}

func (b *BitBuffer) BitsLeft() uint {
	return b.sz - b.rd
}

func (b *BitBuffer) BitsUsed() uint {
	return b.sz
}

func (b *BitBuffer) FreeBits() uint {
	return b.capacity - b.sz
}

func (b *BitBuffer) Copy() *BitBuffer {
	return &BitBuffer{
		data:     append([]byte{}, b.data...),
		sz:       b.sz,
		rd:       b.rd,
		capacity: b.capacity,
	}
}

func (b *BitBuffer) String() string {
	return fmt.Sprintf("%d[%X]", b.BitsLeft(), b.Bytes())
}
