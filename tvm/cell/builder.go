package cell

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/tonkit/cellkit/address"
)

type Builder struct {
	bits *BitBuffer

	// store it as slice of pointers to make indexing logic cleaner on parse,
	// from outside it should always come as object to not have problems
	refs []*Cell
}

func BeginCell() *Builder {
	return &Builder{
		bits: NewBitBuffer(MaxBitsSize),
	}
}

func (b *Builder) MustStoreCoins(value uint64) *Builder {
	err := b.StoreCoins(value)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) StoreCoins(value uint64) error {
	return b.StoreBigCoins(new(big.Int).SetUint64(value))
}

func (b *Builder) MustStoreBigCoins(value *big.Int) *Builder {
	err := b.StoreBigCoins(value)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) StoreBigCoins(value *big.Int) error {
	return b.StoreVarUInt(value, 16)
}

func (b *Builder) MustStoreVarUInt(value *big.Int, sz uint) *Builder {
	err := b.StoreVarUInt(value, sz)
	if err != nil {
		panic(err)
	}
	return b
}

// StoreVarUInt stores VarUInteger sz: byte length in bitlen(sz-1) bits followed by the value.
func (b *Builder) StoreVarUInt(value *big.Int, sz uint) error {
	if value.Sign() < 0 {
		return ErrNegative
	}

	ln := uint((value.BitLen() + 7) / 8)
	if ln >= sz {
		return fmt.Errorf("%w: value needs %d bytes, var uint %d allows less", ErrTooBigValue, ln, sz)
	}

	lenBits := uint(bits.Len(sz - 1))
	if err := b.bits.fits(lenBits + ln*8); err != nil {
		return err
	}

	b.bits.WriteUInt(uint64(ln), lenBits)
	b.bits.writeBig(value, ln*8)
	return nil
}

func (b *Builder) MustStoreUInt(value uint64, sz uint) *Builder {
	err := b.StoreUInt(value, sz)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) StoreUInt(value uint64, sz uint) error {
	return b.bits.WriteUInt(value, sz)
}

func (b *Builder) MustStoreInt(value int64, sz uint) *Builder {
	err := b.StoreInt(value, sz)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) StoreInt(value int64, sz uint) error {
	return b.bits.WriteInt(value, sz)
}

func (b *Builder) MustStoreBoolBit(value bool) *Builder {
	err := b.StoreBoolBit(value)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) StoreBoolBit(value bool) error {
	return b.bits.WriteBit(value)
}

func (b *Builder) MustStoreBigUInt(value *big.Int, sz uint) *Builder {
	err := b.StoreBigUInt(value, sz)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) StoreBigUInt(value *big.Int, sz uint) error {
	return b.bits.WriteBigUInt(value, sz)
}

func (b *Builder) MustStoreBigInt(value *big.Int, sz uint) *Builder {
	err := b.StoreBigInt(value, sz)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) StoreBigInt(value *big.Int, sz uint) error {
	return b.bits.WriteBigInt(value, sz)
}

func (b *Builder) MustStoreAddr(addr *address.Address) *Builder {
	err := b.StoreAddr(addr)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) StoreAddr(addr *address.Address) error {
	if addr == nil || addr.IsAddrNone() {
		return b.StoreUInt(0, 2)
	}

	if uint(len(addr.Data()))*8 < addr.BitsLen() {
		return ErrSmallSlice
	}
	if addr.BitsLen() > 511 {
		return fmt.Errorf("%w: address length %d does not fit into 9 bits", ErrTooBigValue, addr.BitsLen())
	}

	switch addr.Type() {
	case address.ExtAddress:
		if err := b.bits.fits(2 + 9 + addr.BitsLen()); err != nil {
			return err
		}

		b.bits.WriteUInt(0b01, 2)
		b.bits.WriteUInt(uint64(addr.BitsLen()), 9)
		b.bits.appendBits(addr.Data(), 0, addr.BitsLen())
		return nil
	case address.StdAddress:
		if addr.BitsLen() != 256 {
			return fmt.Errorf("%w: std address should have 256 bits", ErrAddressTypeNotSupported)
		}
		if wc := addr.Workchain(); wc < -128 || wc > 127 {
			return fmt.Errorf("%w: workchain %d of std address", ErrTooBigValue, wc)
		}
		if err := b.bits.fits(2 + 1 + 8 + 256); err != nil {
			return err
		}

		// addr std, no anycast
		b.bits.WriteUInt(0b100, 3)
		b.bits.WriteInt(int64(addr.Workchain()), 8)
		b.bits.appendBits(addr.Data(), 0, 256)
		return nil
	case address.VarAddress:
		if err := b.bits.fits(2 + 1 + 9 + 32 + addr.BitsLen()); err != nil {
			return err
		}

		// addr var, no anycast
		b.bits.WriteUInt(0b110, 3)
		b.bits.WriteUInt(uint64(addr.BitsLen()), 9)
		b.bits.WriteInt(int64(addr.Workchain()), 32)
		b.bits.appendBits(addr.Data(), 0, addr.BitsLen())
		return nil
	}

	return ErrAddressTypeNotSupported
}

func (b *Builder) MustStoreStringSnake(str string) *Builder {
	err := b.StoreStringSnake(str)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) MustStoreBinarySnake(data []byte) *Builder {
	err := b.StoreBinarySnake(data)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) StoreStringSnake(str string) error {
	return b.StoreBinarySnake([]byte(str))
}

// StoreBinarySnake fills free space of the builder with data and chains the rest
// through the first ref of each next cell, 127 bytes per cell.
func (b *Builder) StoreBinarySnake(data []byte) error {
	const perCell = MaxBitsSize / 8

	space := int(b.BitsLeft() / 8)
	if len(data) <= space {
		return b.StoreSlice(data, uint(len(data))*8)
	}

	if b.RefsLeft() == 0 {
		return ErrTooMuchRefs
	}

	head, rest := data[:space], data[space:]

	var tail *Cell
	for i := (len(rest) - 1) / perCell; i >= 0; i-- {
		end := (i + 1) * perCell
		if end > len(rest) {
			end = len(rest)
		}

		c := BeginCell().MustStoreSlice(rest[i*perCell:end], uint(end-i*perCell)*8)
		if tail != nil {
			c.MustStoreRef(tail)
		}

		var err error
		if tail, err = c.build(false); err != nil {
			return fmt.Errorf("failed to build snake part: %w", err)
		}
	}

	b.MustStoreSlice(head, uint(len(head))*8)
	b.refs = append(b.refs, tail)
	return nil
}

func (b *Builder) MustStoreDict(dict *Dictionary) *Builder {
	err := b.StoreDict(dict)
	if err != nil {
		panic(err)
	}
	return b
}

// StoreDict stores dictionary as HashmapE, empty or nil dictionary is a single zero bit.
func (b *Builder) StoreDict(dict *Dictionary) error {
	if dict == nil {
		return b.StoreMaybeRef(nil)
	}

	c, err := dict.ToCell()
	if err != nil {
		return fmt.Errorf("failed to serialize dict: %w", err)
	}
	return b.StoreMaybeRef(c)
}

func (b *Builder) MustStoreMaybeRef(ref *Cell) *Builder {
	err := b.StoreMaybeRef(ref)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) StoreMaybeRef(ref *Cell) error {
	if ref == nil {
		return b.StoreBoolBit(false)
	}

	// we need early checks to do 2 stores atomically
	if len(b.refs) >= 4 {
		return ErrTooMuchRefs
	}
	if err := b.bits.fits(1); err != nil {
		return err
	}

	b.MustStoreBoolBit(true).MustStoreRef(ref)
	return nil
}

func (b *Builder) MustStoreRef(ref *Cell) *Builder {
	err := b.StoreRef(ref)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) StoreRef(ref *Cell) error {
	if len(b.refs) >= 4 {
		return ErrTooMuchRefs
	}

	if ref == nil {
		return ErrRefCannotBeNil
	}

	b.refs = append(b.refs, ref)

	return nil
}

func (b *Builder) MustStoreSlice(bytes []byte, sz uint) *Builder {
	err := b.StoreSlice(bytes, sz)
	if err != nil {
		panic(err)
	}
	return b
}

// StoreSlice stores first sz bits of bytes.
func (b *Builder) StoreSlice(bytes []byte, sz uint) error {
	return b.bits.WriteBits(bytes, sz)
}

func (b *Builder) MustStoreBuilder(builder *Builder) *Builder {
	err := b.StoreBuilder(builder)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) StoreBuilder(builder *Builder) error {
	if len(b.refs)+len(builder.refs) > 4 {
		return ErrTooMuchRefs
	}

	if err := b.bits.WriteBuffer(builder.bits.Remaining()); err != nil {
		return err
	}
	b.refs = append(b.refs, builder.refs...)

	return nil
}

func (b *Builder) MustStoreCellSlice(s *Slice) *Builder {
	err := b.StoreCellSlice(s)
	if err != nil {
		panic(err)
	}
	return b
}

// StoreCellSlice appends not yet loaded bits and refs of the slice, slice itself is not advanced.
func (b *Builder) StoreCellSlice(s *Slice) error {
	if len(b.refs)+len(s.refs) > 4 {
		return ErrTooMuchRefs
	}

	if err := b.bits.WriteBuffer(s.bits); err != nil {
		return err
	}
	b.refs = append(b.refs, s.refs...)

	return nil
}

func (b *Builder) RefsUsed() int {
	return len(b.refs)
}

func (b *Builder) BitsUsed() uint {
	return b.bits.BitsUsed()
}

func (b *Builder) BitsLeft() uint {
	return b.bits.FreeBits()
}

func (b *Builder) RefsLeft() uint {
	return 4 - uint(len(b.refs))
}

func (b *Builder) Copy() *Builder {
	return &Builder{
		bits: b.bits.Copy(),
		refs: append([]*Cell{}, b.refs...),
	}
}

func (b *Builder) ToSlice() *Slice {
	return b.EndCell().BeginParse()
}

func (b *Builder) build(special bool) (*Cell, error) {
	// copy data, builder can be reused after
	data := append([]byte{}, b.bits.data...)
	refs := append([]*Cell{}, b.refs...)

	return newCell(special, b.bits.BitsUsed(), data, refs)
}

// EndCell creates ordinary cell, panics only when tree depth limit is exceeded.
func (b *Builder) EndCell() *Cell {
	c, err := b.build(false)
	if err != nil {
		panic(err)
	}
	return c
}

// EndCellSpecial creates special (exotic) cell, type is taken from the first data byte.
func (b *Builder) EndCellSpecial() (*Cell, error) {
	return b.build(true)
}
