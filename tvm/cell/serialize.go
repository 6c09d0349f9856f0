package cell

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/tonkit/cellkit/tvm/boc"
)

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// BOCOptions controls optional parts of serialized bag of cells.
// Cache bits are stored inside the index, so they imply WithIndex.
type BOCOptions struct {
	WithIndex     bool
	WithCRC32C    bool
	WithCacheBits bool
}

func (c *Cell) ToBOC() []byte {
	return c.ToBOCWithFlags(true)
}

func (c *Cell) ToBOCWithFlags(withCRC bool) []byte {
	return ToBOCWithFlags([]*Cell{c}, withCRC)
}

func ToBOCWithFlags(roots []*Cell, withCRC bool) []byte {
	return ToBOCWithOptions(roots, BOCOptions{WithCRC32C: withCRC})
}

func ToBOCWithOptions(roots []*Cell, opts BOCOptions) []byte {
	if len(roots) == 0 {
		return nil
	}

	if opts.WithCacheBits {
		opts.WithIndex = true
	}

	// recursively go through cells, build hash index and store unique in slice
	orderCells, index := flattenIndex(roots)

	cellsNum := uint64(len(orderCells))
	rootsNum := uint64(len(roots))
	refSize := bytesForNumber(cellsNum)
	if rs := bytesForNumber(rootsNum); rs > refSize {
		refSize = rs
	}

	var payload []byte
	offsets := make([]uint64, len(orderCells))
	for i, item := range orderCells {
		// serialize each cell
		payload = append(payload, item.cell.serialize(refSize, index)...)
		offsets[i] = uint64(len(payload))
	}

	// bytes needed to store len of payload, index entries with cache bits are twice bigger
	maxOffset := uint64(len(payload))
	if opts.WithCacheBits {
		maxOffset = maxOffset<<1 | 1
	}
	offSize := bytesForNumber(maxOffset)

	flags := boc.Flags{
		HasIndex:     opts.WithIndex,
		HasCrc32c:    opts.WithCRC32C,
		HasCacheBits: opts.WithCacheBits,
	}

	var data []byte
	data = append(data, boc.Magic...)
	data = append(data, flags.Byte(refSize))
	data = append(data, byte(offSize))

	data = append(data, dynamicIntBytes(cellsNum, refSize)...)
	data = append(data, dynamicIntBytes(rootsNum, refSize)...)

	// absent cells are not supported
	data = append(data, dynamicIntBytes(0, refSize)...)

	data = append(data, dynamicIntBytes(uint64(len(payload)), offSize)...)

	for _, root := range roots {
		data = append(data, dynamicIntBytes(index[root.HashKey()].index, refSize)...)
	}

	if opts.WithIndex {
		for i, off := range offsets {
			if opts.WithCacheBits {
				off <<= 1
				if orderCells[i].parents > 1 {
					off |= 1
				}
			}
			data = append(data, dynamicIntBytes(off, offSize)...)
		}
	}

	data = append(data, payload...)

	if opts.WithCRC32C {
		checksum := make([]byte, 4)
		binary.LittleEndian.PutUint32(checksum, crc32.Checksum(data, crcTable))

		data = append(data, checksum...)
	}

	return data
}

func (c *Cell) serialize(refSize int, index map[string]*idxItem) []byte {
	d1, d2 := c.descriptors(c.levelMask)

	data := append([]byte{d1, d2}, c.paddedData()...)
	for _, ref := range c.refs {
		data = append(data, dynamicIntBytes(index[ref.HashKey()].index, refSize)...)
	}

	return data
}
