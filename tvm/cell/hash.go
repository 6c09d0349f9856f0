package cell

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/minio/sha256-simd"
)

func (c *Cell) setupLevel() error {
	if !c.special {
		for _, ref := range c.refs {
			c.levelMask.Mask |= ref.levelMask.Mask
		}
		return nil
	}

	switch c.GetType() {
	case PrunedCellType:
		if c.bitsSz < 16 {
			return fmt.Errorf("%w: pruned branch is too short", ErrInvalidSpecialCell)
		}
		mask := LevelMask{c.data[1]}
		if mask.Mask == 0 || mask.Mask > 7 {
			return fmt.Errorf("%w: pruned branch level mask %d", ErrInvalidSpecialCell, mask.Mask)
		}
		if want := uint(2+mask.getHashIndex()*(32+2)) * 8; c.bitsSz != want {
			return fmt.Errorf("%w: pruned branch should have %d bits, got %d", ErrInvalidSpecialCell, want, c.bitsSz)
		}
		if len(c.refs) != 0 {
			return fmt.Errorf("%w: pruned branch cannot have refs", ErrInvalidSpecialCell)
		}
		c.levelMask = mask
	case LibraryCellType:
		if c.bitsSz != 8+256 || len(c.refs) != 0 {
			return fmt.Errorf("%w: library cell should have 264 bits and no refs", ErrInvalidSpecialCell)
		}
	case MerkleProofCellType:
		if c.bitsSz != 8+256+16 || len(c.refs) != 1 {
			return fmt.Errorf("%w: merkle proof should have 280 bits and 1 ref", ErrInvalidSpecialCell)
		}
		c.levelMask = LevelMask{c.refs[0].levelMask.Mask >> 1}
	case MerkleUpdateCellType:
		if c.bitsSz != 8+256+256+16+16 || len(c.refs) != 2 {
			return fmt.Errorf("%w: merkle update should have 552 bits and 2 refs", ErrInvalidSpecialCell)
		}
		c.levelMask = LevelMask{(c.refs[0].levelMask.Mask | c.refs[1].levelMask.Mask) >> 1}
	default:
		return fmt.Errorf("%w: unknown special type", ErrInvalidSpecialCell)
	}
	return nil
}

// verifyMerkleRefs checks that hashes and depths stored in merkle cells match their children.
func (c *Cell) verifyMerkleRefs() error {
	var n int
	switch c.GetType() {
	case MerkleProofCellType:
		n = 1
	case MerkleUpdateCellType:
		n = 2
	default:
		return nil
	}

	for i := 0; i < n; i++ {
		hash := c.data[1+32*i : 1+32*(i+1)]
		depth := binary.BigEndian.Uint16(c.data[1+32*n+2*i:])

		if !bytes.Equal(hash, c.refs[i].getHash(0)) {
			return fmt.Errorf("%w: stored hash of ref %d not matches", ErrInvalidSpecialCell, i)
		}
		if depth != c.refs[i].getDepth(0) {
			return fmt.Errorf("%w: stored depth of ref %d not matches", ErrInvalidSpecialCell, i)
		}
	}
	return nil
}

func (c *Cell) descriptors(mask LevelMask) (byte, byte) {
	var special byte
	if c.special {
		special = 1
	}

	d1 := byte(len(c.refs)) + special*8 + mask.Mask*32
	d2 := byte(c.bitsSz/8) + byte((c.bitsSz+7)/8)
	return d1, d2
}

// paddedData returns cell data with completion tag when bits are not byte aligned.
func (c *Cell) paddedData() []byte {
	data := append([]byte{}, c.data[:(c.bitsSz+7)/8]...)
	if c.bitsSz%8 != 0 {
		data[c.bitsSz/8] |= 0x80 >> (c.bitsSz % 8)
	}
	return data
}

func (c *Cell) calculateHashes() error {
	totalHashCount := c.levelMask.getHashIndex() + 1

	typ := c.GetType()
	hashCount := totalHashCount
	if typ == PrunedCellType {
		// lower hashes are stored in data
		hashCount = 1
	}

	childLevelOffset := 0
	if typ == MerkleProofCellType || typ == MerkleUpdateCellType {
		childLevelOffset = 1
	}

	c.hashes = make([]byte, 32*hashCount)
	c.depthLevels = make([]uint16, hashCount)

	hashIndexOffset := totalHashCount - hashCount
	hashIndex := 0
	level := c.levelMask.GetLevel()

	for levelIndex := 0; levelIndex <= level; levelIndex++ {
		if !c.levelMask.IsSignificant(levelIndex) {
			continue
		}

		if hashIndex < hashIndexOffset {
			hashIndex++
			continue
		}

		h := sha256.New()

		d1, d2 := c.descriptors(c.levelMask.Apply(levelIndex))
		h.Write([]byte{d1, d2})

		if hashIndex == hashIndexOffset {
			h.Write(c.paddedData())
		} else {
			off := hashIndex - hashIndexOffset - 1
			h.Write(c.hashes[off*32 : (off+1)*32])
		}

		var depth uint16
		var buf [2]byte
		for _, ref := range c.refs {
			childDepth := ref.getDepth(levelIndex + childLevelOffset)
			binary.BigEndian.PutUint16(buf[:], childDepth)
			h.Write(buf[:])

			if childDepth > depth {
				depth = childDepth
			}
		}

		if len(c.refs) > 0 {
			depth++
			if depth > maxDepth {
				return fmt.Errorf("%w: cell depth exceeds %d", ErrOverflow, maxDepth)
			}
		}

		for _, ref := range c.refs {
			h.Write(ref.getHash(levelIndex + childLevelOffset))
		}

		off := hashIndex - hashIndexOffset
		c.depthLevels[off] = depth
		copy(c.hashes[off*32:], h.Sum(nil))
		hashIndex++
	}

	return nil
}

func (c *Cell) getHash(level int) []byte {
	hashIndex := c.levelMask.Apply(level).getHashIndex()

	if c.GetType() == PrunedCellType {
		prunedHashIndex := c.levelMask.getHashIndex()
		if hashIndex != prunedHashIndex {
			return c.data[2+hashIndex*32 : 2+(hashIndex+1)*32]
		}
		hashIndex = 0
	}

	return c.hashes[hashIndex*32 : (hashIndex+1)*32]
}

func (c *Cell) getDepth(level int) uint16 {
	hashIndex := c.levelMask.Apply(level).getHashIndex()

	if c.GetType() == PrunedCellType {
		prunedHashIndex := c.levelMask.getHashIndex()
		if hashIndex != prunedHashIndex {
			off := 2 + 32*prunedHashIndex + hashIndex*2
			return binary.BigEndian.Uint16(c.data[off : off+2])
		}
		hashIndex = 0
	}

	return c.depthLevels[hashIndex]
}
