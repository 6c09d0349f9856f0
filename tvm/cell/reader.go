package cell

import (
	"encoding/binary"
)

type cellBytesReader struct {
	data   []byte
	offset int
}

func newReader(data []byte) *cellBytesReader {
	return &cellBytesReader{
		data: data,
	}
}

func (r *cellBytesReader) ReadBytes(num int) ([]byte, error) {
	if num < 0 || len(r.data) < num {
		return nil, ErrNotEnoughData(len(r.data), num)
	}

	return r.MustReadBytes(num), nil
}

func (r *cellBytesReader) MustReadBytes(num int) []byte {
	ret := r.data[:num]
	r.data = r.data[num:]
	r.offset += num
	return ret
}

func (r *cellBytesReader) ReadByte() (byte, error) {
	if len(r.data) < 1 {
		return 0, ErrNotEnoughData(len(r.data), 1)
	}

	return r.MustReadByte(), nil
}

func (r *cellBytesReader) MustReadByte() byte {
	ret := r.data[0]
	r.data = r.data[1:]
	r.offset++
	return ret
}

// ReadUInt reads big endian number of sz bytes, sz should be in 1..8.
func (r *cellBytesReader) ReadUInt(sz int) (uint64, error) {
	b, err := r.ReadBytes(sz)
	if err != nil {
		return 0, err
	}
	return dynInt(b), nil
}

func (r *cellBytesReader) LeftLen() int {
	return len(r.data)
}

// Offset is the number of bytes consumed so far.
func (r *cellBytesReader) Offset() int {
	return r.offset
}

func dynInt(data []byte) uint64 {
	var tmp [8]byte
	copy(tmp[8-len(data):], data)

	return binary.BigEndian.Uint64(tmp[:])
}

func dynamicIntBytes(val uint64, sz int) []byte {
	var data [8]byte
	binary.BigEndian.PutUint64(data[:], val)

	return append([]byte{}, data[8-sz:]...)
}

// bytesForNumber is the smallest byte width which can hold n.
func bytesForNumber(n uint64) int {
	sz := 1
	for sz < 8 && n >= 1<<(8*sz) {
		sz++
	}
	return sz
}
