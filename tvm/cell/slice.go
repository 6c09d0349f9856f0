package cell

import (
	"errors"
	"fmt"
	"math/big"
	"math/bits"

	"github.com/tonkit/cellkit/address"
)

// Slice is a read cursor over cell bits and refs, cell data is shared, not copied.
type Slice struct {
	special   bool
	levelMask LevelMask
	bits      *BitBuffer

	// not yet loaded refs
	refs []*Cell
}

func (c *Slice) MustLoadRef() *Slice {
	r, err := c.LoadRef()
	if err != nil {
		panic(err)
	}
	return r
}

func (c *Slice) LoadRef() (*Slice, error) {
	ref, err := c.LoadRefCell()
	if err != nil {
		return nil, err
	}
	return ref.BeginParse(), nil
}

func (c *Slice) MustPreloadRef() *Slice {
	r, err := c.PreloadRef()
	if err != nil {
		panic(err)
	}
	return r
}

func (c *Slice) PreloadRef() (*Slice, error) {
	ref, err := c.PreloadRefCell()
	if err != nil {
		return nil, err
	}
	return ref.BeginParse(), nil
}

func (c *Slice) MustLoadRefCell() *Cell {
	r, err := c.LoadRefCell()
	if err != nil {
		panic(err)
	}
	return r
}

func (c *Slice) LoadRefCell() (*Cell, error) {
	if len(c.refs) == 0 {
		return nil, ErrNoMoreRefs
	}
	ref := c.refs[0]
	c.refs = c.refs[1:]

	return ref, nil
}

func (c *Slice) PreloadRefCell() (*Cell, error) {
	if len(c.refs) == 0 {
		return nil, ErrNoMoreRefs
	}
	return c.refs[0], nil
}

func (c *Slice) MustLoadMaybeRef() *Slice {
	r, err := c.LoadMaybeRef()
	if err != nil {
		panic(err)
	}
	return r
}

// LoadMaybeRef loads bit flag and a ref when flag is set, nil slice means no ref.
func (c *Slice) LoadMaybeRef() (*Slice, error) {
	has, err := c.LoadBoolBit()
	if err != nil {
		return nil, err
	}

	if !has {
		return nil, nil
	}

	return c.LoadRef()
}

func (c *Slice) RefsNum() int {
	return len(c.refs)
}

func (c *Slice) MustLoadCoins() uint64 {
	r, err := c.LoadCoins()
	if err != nil {
		panic(err)
	}
	return r
}

func (c *Slice) LoadCoins() (uint64, error) {
	value, err := c.LoadBigCoins()
	if err != nil {
		return 0, err
	}
	if !value.IsUint64() {
		return 0, fmt.Errorf("%w: coins amount does not fit into uint64", ErrTooBigValue)
	}
	return value.Uint64(), nil
}

func (c *Slice) MustLoadBigCoins() *big.Int {
	r, err := c.LoadBigCoins()
	if err != nil {
		panic(err)
	}
	return r
}

func (c *Slice) LoadBigCoins() (*big.Int, error) {
	return c.LoadVarUInt(16)
}

func (c *Slice) MustLoadVarUInt(sz uint) *big.Int {
	s, err := c.LoadVarUInt(sz)
	if err != nil {
		panic(err)
	}
	return s
}

func (c *Slice) LoadVarUInt(sz uint) (*big.Int, error) {
	ln, err := c.LoadUInt(uint(bits.Len(sz - 1)))
	if err != nil {
		return nil, err
	}

	value, err := c.bits.readBigUInt(uint(ln*8), false)
	if err != nil {
		return nil, err
	}

	return value, nil
}

func (c *Slice) MustLoadUInt(sz uint) uint64 {
	res, err := c.LoadUInt(sz)
	if err != nil {
		panic(err)
	}
	return res
}

func (c *Slice) LoadUInt(sz uint) (uint64, error) {
	return c.bits.ReadUInt(sz)
}

func (c *Slice) MustPreloadUInt(sz uint) uint64 {
	res, err := c.PreloadUInt(sz)
	if err != nil {
		panic(err)
	}
	return res
}

func (c *Slice) PreloadUInt(sz uint) (uint64, error) {
	return c.bits.PreloadUInt(sz)
}

func (c *Slice) MustLoadInt(sz uint) int64 {
	res, err := c.LoadInt(sz)
	if err != nil {
		panic(err)
	}
	return res
}

func (c *Slice) LoadInt(sz uint) (int64, error) {
	return c.bits.ReadInt(sz)
}

func (c *Slice) MustLoadBoolBit() bool {
	r, err := c.LoadBoolBit()
	if err != nil {
		panic(err)
	}
	return r
}

func (c *Slice) LoadBoolBit() (bool, error) {
	return c.bits.ReadBit()
}

func (c *Slice) MustLoadBigUInt(sz uint) *big.Int {
	r, err := c.LoadBigUInt(sz)
	if err != nil {
		panic(err)
	}
	return r
}

func (c *Slice) LoadBigUInt(sz uint) (*big.Int, error) {
	return c.bits.ReadBigUInt(sz)
}

func (c *Slice) MustPreloadBigUInt(sz uint) *big.Int {
	r, err := c.PreloadBigUInt(sz)
	if err != nil {
		panic(err)
	}
	return r
}

func (c *Slice) PreloadBigUInt(sz uint) (*big.Int, error) {
	return c.bits.PreloadBigUInt(sz)
}

func (c *Slice) MustLoadBigInt(sz uint) *big.Int {
	r, err := c.LoadBigInt(sz)
	if err != nil {
		panic(err)
	}
	return r
}

func (c *Slice) LoadBigInt(sz uint) (*big.Int, error) {
	return c.bits.ReadBigInt(sz)
}

func (c *Slice) MustLoadSlice(sz uint) []byte {
	s, err := c.LoadSlice(sz)
	if err != nil {
		panic(err)
	}
	return s
}

// LoadSlice loads sz bits, they are aligned to the left of returned bytes.
func (c *Slice) LoadSlice(sz uint) ([]byte, error) {
	return c.bits.ReadBits(sz)
}

func (c *Slice) MustPreloadSlice(sz uint) []byte {
	s, err := c.PreloadSlice(sz)
	if err != nil {
		panic(err)
	}
	return s
}

func (c *Slice) PreloadSlice(sz uint) ([]byte, error) {
	return c.bits.PreloadBits(sz)
}

func (c *Slice) MustLoadBits(sz uint) *BitBuffer {
	s, err := c.LoadBits(sz)
	if err != nil {
		panic(err)
	}
	return s
}

// LoadBits loads sz bits into a separate buffer which can be read further.
func (c *Slice) LoadBits(sz uint) (*BitBuffer, error) {
	data, err := c.bits.ReadBits(sz)
	if err != nil {
		return nil, err
	}
	return readOnlyBits(data, sz), nil
}

func (c *Slice) Skip(sz uint) error {
	return c.bits.Skip(sz)
}

func (c *Slice) MustLoadAddr() *address.Address {
	a, err := c.LoadAddr()
	if err != nil {
		panic(err)
	}
	return a
}

func (c *Slice) LoadAddr() (*address.Address, error) {
	typ, err := c.LoadUInt(2)
	if err != nil {
		return nil, err
	}

	switch typ {
	case 0:
		return address.NewAddressNone(), nil
	case 1:
		ln, err := c.LoadUInt(9)
		if err != nil {
			return nil, fmt.Errorf("failed to load len: %w", err)
		}

		data, err := c.LoadSlice(uint(ln))
		if err != nil {
			return nil, fmt.Errorf("failed to load addr data: %w", err)
		}

		return address.NewAddressExt(0, uint(ln), data), nil
	case 2:
		if err = c.skipAnycast(); err != nil {
			return nil, err
		}

		workchain, err := c.LoadInt(8)
		if err != nil {
			return nil, fmt.Errorf("failed to load workchain: %w", err)
		}

		data, err := c.LoadSlice(256)
		if err != nil {
			return nil, fmt.Errorf("failed to load addr data: %w", err)
		}

		return address.NewAddress(0, byte(workchain), data), nil
	case 3:
		if err = c.skipAnycast(); err != nil {
			return nil, err
		}

		ln, err := c.LoadUInt(9)
		if err != nil {
			return nil, fmt.Errorf("failed to load len: %w", err)
		}

		workchain, err := c.LoadInt(32)
		if err != nil {
			return nil, fmt.Errorf("failed to load workchain: %w", err)
		}

		data, err := c.LoadSlice(uint(ln))
		if err != nil {
			return nil, fmt.Errorf("failed to load addr data: %w", err)
		}

		return address.NewAddressVar(0, int32(workchain), uint(ln), data), nil
	}

	return nil, errors.New("not supported type of address")
}

// skipAnycast reads optional anycast info, rewrite prefix is not kept.
func (c *Slice) skipAnycast() error {
	isAnycast, err := c.LoadBoolBit()
	if err != nil {
		return fmt.Errorf("failed to load anycast bit: %w", err)
	}

	if isAnycast {
		// depth is #<= 30
		depth, err := c.LoadUInt(5)
		if err != nil {
			return fmt.Errorf("failed to load depth: %w", err)
		}

		if err = c.Skip(uint(depth)); err != nil {
			return fmt.Errorf("failed to load prefix: %w", err)
		}
	}
	return nil
}

func (c *Slice) MustLoadStringSnake() string {
	a, err := c.LoadStringSnake()
	if err != nil {
		panic(err)
	}
	return a
}

func (c *Slice) MustLoadBinarySnake() []byte {
	a, err := c.LoadBinarySnake()
	if err != nil {
		panic(err)
	}
	return a
}

func (c *Slice) LoadStringSnake() (string, error) {
	a, err := c.LoadBinarySnake()
	if err != nil {
		return "", err
	}
	return string(a), nil
}

func (c *Slice) LoadBinarySnake() ([]byte, error) {
	var data []byte

	ref := c
	for ref != nil {
		b, err := ref.LoadSlice(ref.BitsLeft())
		if err != nil {
			return nil, err
		}
		data = append(data, b...)

		if ref.RefsNum() > 1 {
			return nil, fmt.Errorf("more than one ref, it is not snake string")
		}

		if ref.RefsNum() == 1 {
			ref = ref.MustLoadRef()
			continue
		}
		ref = nil
	}

	return data, nil
}

func (c *Slice) IsSpecial() bool {
	return c.special
}

func (c *Slice) BitsLeft() uint {
	return c.bits.BitsLeft()
}

func (c *Slice) RestBits() (uint, []byte, error) {
	left := c.bits.BitsLeft()
	data, err := c.LoadSlice(left)
	return left, data, err
}

func (c *Slice) Copy() *Slice {
	return &Slice{
		special:   c.special,
		levelMask: c.levelMask,
		bits:      c.bits.Remaining(),
		refs:      c.refs,
	}
}

func (c *Slice) ToBuilder() *Builder {
	b := BeginCell()
	b.bits.appendBits(c.bits.data, c.bits.rd, c.bits.BitsLeft())
	b.refs = append(b.refs, c.refs...)
	return b
}

func (c *Slice) MustToCell() *Cell {
	cl, err := c.ToCell()
	if err != nil {
		panic(err)
	}
	return cl
}

// ToCell creates cell from not yet loaded bits and refs.
func (c *Slice) ToCell() (*Cell, error) {
	left := c.bits.BitsLeft()
	data := c.bits.Bytes()
	if data == nil {
		data = []byte{}
	}

	return newCell(c.special, left, data, append([]*Cell{}, c.refs...))
}
