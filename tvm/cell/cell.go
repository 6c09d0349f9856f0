package cell

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"
)

type Type uint8

const (
	OrdinaryCellType     Type = 0x00
	PrunedCellType       Type = 0x01
	LibraryCellType      Type = 0x02
	MerkleProofCellType  Type = 0x03
	MerkleUpdateCellType Type = 0x04
	UnknownCellType      Type = 0xFF
)

const maxDepth = 1024

func (t Type) String() string {
	switch t {
	case OrdinaryCellType:
		return "ordinary"
	case PrunedCellType:
		return "pruned branch"
	case LibraryCellType:
		return "library"
	case MerkleProofCellType:
		return "merkle proof"
	case MerkleUpdateCellType:
		return "merkle update"
	}
	return "unknown"
}

// Cell is an immutable node of up to 1023 bits and 4 references.
// Hashes and depths of all significant levels are calculated once, on creation.
type Cell struct {
	special   bool
	levelMask LevelMask
	bitsSz    uint
	data      []byte

	hashes      []byte
	depthLevels []uint16

	refs []*Cell
}

// newCell validates layout and calculates hashes, data is owned by the cell after the call.
func newCell(special bool, bitsSz uint, data []byte, refs []*Cell) (*Cell, error) {
	if bitsSz > MaxBitsSize {
		return nil, ErrNotFit1023
	}
	if len(refs) > 4 {
		return nil, ErrTooMuchRefs
	}

	c := &Cell{
		special: special,
		bitsSz:  bitsSz,
		data:    data,
		refs:    refs,
	}

	if err := c.setupLevel(); err != nil {
		return nil, err
	}

	if err := c.calculateHashes(); err != nil {
		return nil, err
	}

	if c.special {
		if err := c.verifyMerkleRefs(); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Cell) BeginParse() *Slice {
	return &Slice{
		special:   c.special,
		levelMask: c.levelMask,
		bits:      readOnlyBits(c.data, c.bitsSz),
		refs:      c.refs,
	}
}

func (c *Cell) ToBuilder() *Builder {
	b := BeginCell()
	b.bits.appendBits(c.data, 0, c.bitsSz)
	b.refs = append(b.refs, c.refs...)
	return b
}

func (c *Cell) BitsSize() uint {
	return c.bitsSz
}

func (c *Cell) RefsNum() uint {
	return uint(len(c.refs))
}

func (c *Cell) PeekRef(i int) (*Cell, error) {
	if i < 0 || i >= len(c.refs) {
		return nil, ErrNoMoreRefs
	}
	return c.refs[i], nil
}

func (c *Cell) IsSpecial() bool {
	return c.special
}

func (c *Cell) GetType() Type {
	if !c.special {
		return OrdinaryCellType
	}
	if c.bitsSz < 8 {
		return UnknownCellType
	}

	switch Type(c.data[0]) {
	case PrunedCellType, LibraryCellType, MerkleProofCellType, MerkleUpdateCellType:
		return Type(c.data[0])
	}
	return UnknownCellType
}

func (c *Cell) Level() int {
	return c.levelMask.GetLevel()
}

func (c *Cell) LevelMask() LevelMask {
	return c.levelMask
}

func (c *Cell) Dump(limitLength ...int) string {
	return c.dump(0, false, limitLength...)
}

func (c *Cell) DumpBits(limitLength ...int) string {
	return c.dump(0, true, limitLength...)
}

func (c *Cell) dump(deep int, bin bool, limitLength ...int) string {
	sz, data := c.bitsSz, c.data

	var val string
	if bin {
		var sb strings.Builder
		for _, n := range data {
			sb.WriteString(fmt.Sprintf("%08b", n))
		}
		val = sb.String()[:sz]
	} else {
		val = strings.ToUpper(hex.EncodeToString(data))
		if sz%8 > 0 && sz%8 <= 4 {
			// half byte is enough to show the tail
			val = val[:len(val)-1] + "_"
		}
	}

	if len(limitLength) > 0 && len(val) > limitLength[0] {
		val = val[:limitLength[0]] + "..."
	}

	str := strings.Repeat("  ", deep) + fmt.Sprint(sz) + "[" + val + "]"
	if c.special {
		str += " {" + c.GetType().String() + "}"
	}

	if len(c.refs) > 0 {
		str += " -> {"
		for i, ref := range c.refs {
			str += "\n" + ref.dump(deep+1, bin, limitLength...)
			if i == len(c.refs)-1 {
				str += "\n"
			} else {
				str += ","
			}
		}
		str += strings.Repeat("  ", deep)
		return str + "}"
	}
	return str
}

// Hash returns representation hash of the cell at the given level, by default at the highest one.
func (c *Cell) Hash(level ...int) []byte {
	lvl := MaxLevel
	if len(level) > 0 {
		lvl = level[0]
	}
	return append([]byte{}, c.getHash(lvl)...)
}

// HashKey is the representation hash as a string, usable as map key for deduplication.
func (c *Cell) HashKey() string {
	return string(c.getHash(MaxLevel))
}

func (c *Cell) Depth(level ...int) uint16 {
	lvl := MaxLevel
	if len(level) > 0 {
		lvl = level[0]
	}
	return c.getDepth(lvl)
}

func (c *Cell) Sign(key ed25519.PrivateKey) []byte {
	return ed25519.Sign(key, c.Hash())
}

func (c *Cell) Verify(key ed25519.PublicKey, signature []byte) bool {
	return ed25519.Verify(key, c.Hash(), signature)
}
