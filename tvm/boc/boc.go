// Package boc holds the constants of the bag-of-cells envelope header.
package boc

// Magic is the serialized_boc#b5ee9c72 prefix.
var Magic = []byte{0xB5, 0xEE, 0x9C, 0x72}

// MaxRefSize is the widest cell index field the header can declare.
const MaxRefSize = 4

// MaxOffsetSize is the widest data offset field the header can declare.
const MaxOffsetSize = 8

// Header flag byte layout: has_idx, has_crc32c, has_cache_bits, 2 reserved bits, size:(## 3).
const (
	flagIndex     byte = 1 << 7
	flagCRC32C    byte = 1 << 6
	flagCacheBits byte = 1 << 5
	refSizeMask   byte = 0b111
)

type Flags struct {
	HasIndex     bool
	HasCrc32c    bool
	HasCacheBits bool
}

// ParseFlags splits the first header byte into flags and the byte width of cell indexes.
// Reserved bits are ignored.
func ParseFlags(data byte) (Flags, int) {
	return Flags{
		HasIndex:     data&flagIndex != 0,
		HasCrc32c:    data&flagCRC32C != 0,
		HasCacheBits: data&flagCacheBits != 0,
	}, int(data & refSizeMask)
}

// Byte packs flags together with the index width, 2 reserved bits are left zero.
func (f Flags) Byte(refSize int) byte {
	b := byte(refSize) & refSizeMask
	if f.HasIndex {
		b |= flagIndex
	}
	if f.HasCrc32c {
		b |= flagCRC32C
	}
	if f.HasCacheBits {
		b |= flagCacheBits
	}
	return b
}
