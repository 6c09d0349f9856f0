package tlb

import (
	"fmt"

	"github.com/tonkit/cellkit/tvm/cell"
)

const MaxTextChunkSize = 127 - 2

// Text is a chunked string: chunks count, then each chunk as length byte + data
// with the next chunk in ref.
type Text struct {
	MaxFirstChunkSize uint8
	Value             string
}

func (t *Text) LoadFromCell(loader *cell.Slice) error {
	num, err := loader.LoadUInt(8)
	if err != nil {
		return fmt.Errorf("failed to load chunks num: %w", err)
	}

	var firstSz uint8
	var res []byte
	for i := uint64(0); i < num; i++ {
		ln, err := loader.LoadUInt(8)
		if err != nil {
			return fmt.Errorf("failed to load len of chunk %d: %w", i, err)
		}

		if i == 0 {
			firstSz = uint8(ln)
		}

		data, err := loader.LoadSlice(uint(ln) * 8)
		if err != nil {
			return fmt.Errorf("failed to load data of chunk %d: %w", i, err)
		}
		res = append(res, data...)

		if i < num-1 {
			if loader, err = loader.LoadRef(); err != nil {
				return fmt.Errorf("failed to load next chunk of chunk %d: %w", i, err)
			}
		}
	}

	t.Value = string(res)
	t.MaxFirstChunkSize = firstSz
	return nil
}

func (t Text) ToCell() (*cell.Cell, error) {
	if len(t.Value) == 0 {
		return cell.BeginCell().MustStoreUInt(0, 8).EndCell(), nil
	}

	if t.MaxFirstChunkSize > MaxTextChunkSize {
		return nil, fmt.Errorf("too big first chunk size")
	}
	if t.MaxFirstChunkSize == 0 {
		return nil, fmt.Errorf("first chunk size should be > 0")
	}

	val := []byte(t.Value)

	first := int(t.MaxFirstChunkSize)
	if first > len(val) {
		first = len(val)
	}

	chunks := [][]byte{val[:first]}
	for rest := val[first:]; len(rest) > 0; {
		sz := MaxTextChunkSize
		if sz > len(rest) {
			sz = len(rest)
		}
		chunks = append(chunks, rest[:sz])
		rest = rest[sz:]
	}

	if len(chunks) > 255 {
		return nil, fmt.Errorf("too big data")
	}

	// chain is built from the tail
	var next *cell.Cell
	var head *cell.Builder
	for i := len(chunks) - 1; i >= 0; i-- {
		head = cell.BeginCell().
			MustStoreUInt(uint64(len(chunks[i])), 8).
			MustStoreSlice(chunks[i], uint(len(chunks[i]))*8)
		if next != nil {
			head.MustStoreRef(next)
		}
		next = head.EndCell()
	}

	return cell.BeginCell().
		MustStoreUInt(uint64(len(chunks)), 8).
		MustStoreBuilder(head).
		EndCell(), nil
}
