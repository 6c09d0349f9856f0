package cell

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"math/bits"

	"github.com/tonkit/cellkit/tvm/boc"
)

type rawCell struct {
	special   bool
	levelMask byte
	bitsSz    uint
	data      []byte
	refs      []int
}

func FromBOC(data []byte) (*Cell, error) {
	cells, err := FromBOCMultiRoot(data)
	if err != nil {
		return nil, err
	}

	return cells[0], nil
}

func FromBOCMultiRoot(data []byte) ([]*Cell, error) {
	r := newReader(data)

	// magic, flags and offset size
	if r.LeftLen() < 6 {
		return nil, malformed("too short, %d bytes", len(data))
	}

	if !bytes.Equal(r.MustReadBytes(4), boc.Magic) {
		return nil, malformed("invalid magic header")
	}

	flags, refSize := boc.ParseFlags(r.MustReadByte())
	if refSize < 1 || refSize > boc.MaxRefSize {
		return nil, malformed("invalid cell index size %d", refSize)
	}

	offSize := int(r.MustReadByte())
	if offSize < 1 || offSize > boc.MaxOffsetSize {
		return nil, malformed("invalid offset size %d", offSize)
	}

	if r.LeftLen() < 3*refSize+offSize {
		return nil, malformed("header is truncated")
	}

	cellsNum := dynInt(r.MustReadBytes(refSize))
	rootsNum := dynInt(r.MustReadBytes(refSize))
	absentNum := dynInt(r.MustReadBytes(refSize))
	dataLen := dynInt(r.MustReadBytes(offSize))

	if rootsNum < 1 {
		return nil, malformed("no roots")
	}
	if absentNum != 0 {
		return nil, malformed("absent cells are not supported")
	}

	// every number below is bounded by input length before it is used in arithmetics
	left := uint64(r.LeftLen())
	// roots may repeat the same cell, each root index is checked below
	if cellsNum > left || rootsNum > left || dataLen > left {
		return nil, malformed("declared sizes exceed input length")
	}

	expected := rootsNum*uint64(refSize) + dataLen
	if flags.HasIndex {
		expected += cellsNum * uint64(offSize)
	}
	if flags.HasCrc32c {
		expected += 4
	}
	if expected != left {
		return nil, malformed("length mismatch, expected %d bytes after header, has %d", expected, left)
	}

	if flags.HasCrc32c {
		crc := crc32.Checksum(data[:len(data)-4], crcTable)
		if binary.LittleEndian.Uint32(data[len(data)-4:]) != crc {
			Logger("rejected boc:", ErrChecksumMismatch)
			return nil, ErrChecksumMismatch
		}
	}

	rootIndexes := make([]int, rootsNum)
	for i := range rootIndexes {
		id := dynInt(r.MustReadBytes(refSize))
		if id >= cellsNum {
			return nil, malformed("root index %d is out of range", id)
		}
		rootIndexes[i] = int(id)
	}

	var index []uint64
	if flags.HasIndex {
		index = make([]uint64, cellsNum)
		for i := range index {
			index[i] = dynInt(r.MustReadBytes(offSize))
			if flags.HasCacheBits {
				index[i] >>= 1
			}
		}
	}

	payload := r.MustReadBytes(int(dataLen))

	raw, err := parseCells(int(cellsNum), refSize, payload, index)
	if err != nil {
		return nil, err
	}

	cells, err := linkCells(raw)
	if err != nil {
		return nil, err
	}

	roots := make([]*Cell, len(rootIndexes))
	for i, id := range rootIndexes {
		roots[i] = cells[id]
	}

	return roots, nil
}

func parseCells(cellsNum, refSize int, data []byte, index []uint64) ([]rawCell, error) {
	r := newReader(data)

	cells := make([]rawCell, cellsNum)
	for i := 0; i < cellsNum; i++ {
		d1, err := r.ReadByte()
		if err != nil {
			return nil, malformed("failed to parse cell %d refs descriptor", i)
		}

		d2, err := r.ReadByte()
		if err != nil {
			return nil, malformed("failed to parse cell %d bits descriptor", i)
		}

		// refs + special*8 + with_hashes*16 + level_mask*32
		refsNum := int(d1 & 0b111)
		if refsNum > 4 {
			return nil, malformed("cell %d has %d refs", i, refsNum)
		}

		mask := d1 >> 5
		if d1&0b10000 != 0 {
			// stored hashes and depths are recalculated anyway
			hashesNum := bits.OnesCount8(mask) + 1
			if _, err = r.ReadBytes(hashesNum * (32 + 2)); err != nil {
				return nil, malformed("failed to read cell %d hashes", i)
			}
		}

		payload, err := r.ReadBytes(int(d2/2 + d2%2))
		if err != nil {
			return nil, malformed("failed to parse cell %d payload", i)
		}

		bitsSz, cellData, err := unpadData(payload, d2%2 == 1)
		if err != nil {
			return nil, malformed("cell %d: %s", i, err.Error())
		}

		refsIndex := make([]int, refsNum)
		for y := range refsIndex {
			id, err := r.ReadUInt(refSize)
			if err != nil {
				return nil, malformed("failed to parse cell %d references", i)
			}
			if id >= uint64(cellsNum) {
				return nil, malformed("cell %d refers to %d which is out of range", i, id)
			}
			refsIndex[y] = int(id)
		}

		if index != nil && index[i] != uint64(r.Offset()) {
			return nil, malformed("cell %d index offset %d, actual %d", i, index[i], r.Offset())
		}

		cells[i] = rawCell{
			special:   d1&0b1000 != 0,
			levelMask: mask,
			bitsSz:    bitsSz,
			data:      cellData,
			refs:      refsIndex,
		}
	}

	if r.LeftLen() != 0 {
		return nil, malformed("%d unused bytes after cells", r.LeftLen())
	}

	return cells, nil
}

// unpadData removes completion tag from partially filled last byte.
func unpadData(payload []byte, padded bool) (uint, []byte, error) {
	data := append([]byte{}, payload...)
	if !padded {
		return uint(len(data)) * 8, data, nil
	}

	last := data[len(data)-1]
	if last == 0 {
		return 0, nil, errors.New("no completion tag in last byte")
	}

	tz := bits.TrailingZeros8(last)
	data[len(data)-1] = last &^ (1 << tz)

	return uint(len(data))*8 - uint(tz) - 1, data, nil
}

func linkCells(raw []rawCell) ([]*Cell, error) {
	const (
		notVisited = iota
		inProgress
		done
	)

	cells := make([]*Cell, len(raw))
	state := make([]byte, len(raw))

	var link func(i int, depth int) error
	link = func(i int, depth int) error {
		switch state[i] {
		case done:
			return nil
		case inProgress:
			return malformed("reference cycle at cell %d", i)
		}

		if depth > maxDepth {
			return malformed("cell %d is deeper than %d", i, maxDepth)
		}

		state[i] = inProgress

		rc := raw[i]
		refs := make([]*Cell, len(rc.refs))
		for y, id := range rc.refs {
			if err := link(id, depth+1); err != nil {
				return err
			}
			refs[y] = cells[id]
		}

		c, err := newCell(rc.special, rc.bitsSz, rc.data, refs)
		if err != nil {
			return malformed("cell %d: %s", i, err.Error())
		}

		if c.levelMask.Mask != rc.levelMask {
			// level mask is always recalculated from refs, declared one is only informational
			Logger("boc cell", i, "declares level mask", rc.levelMask, "calculated", c.levelMask.Mask)
		}

		cells[i] = c
		state[i] = done
		return nil
	}

	for i := range raw {
		if err := link(i, 0); err != nil {
			return nil, err
		}
	}

	return cells, nil
}
