package tlb

import (
	"fmt"

	"github.com/tonkit/cellkit/tvm/cell"
)

// StringSnake maps a snake encoded string, usable as a field with '.' or '^' tag.
//
//nolint:recvcheck
type StringSnake struct {
	Value string
}

func (s *StringSnake) LoadFromCell(loader *cell.Slice) error {
	str, err := loader.LoadStringSnake()
	if err != nil {
		return fmt.Errorf("failed to load snake string: %w", err)
	}

	s.Value = str
	return nil
}

func (s StringSnake) ToCell() (*cell.Cell, error) {
	b := cell.BeginCell()
	if err := b.StoreStringSnake(s.Value); err != nil {
		return nil, fmt.Errorf("failed to store snake string: %w", err)
	}
	return b.EndCell(), nil
}
