package cell

type idxItem struct {
	index   uint64
	cell    *Cell
	parents int
}

// flattenIndex deduplicates cells by hash and orders them so every parent goes before its refs.
// Order is reversed DFS post-order, so for independent roots the first root gets index 0.
func flattenIndex(roots []*Cell) ([]*idxItem, map[string]*idxItem) {
	index := map[string]*idxItem{}
	order := make([]*idxItem, 0, len(roots))

	var visit func(c *Cell)
	visit = func(c *Cell) {
		key := c.HashKey()
		if _, ok := index[key]; ok {
			return
		}

		item := &idxItem{cell: c}
		index[key] = item

		for i := len(c.refs) - 1; i >= 0; i-- {
			visit(c.refs[i])
		}
		order = append(order, item)
	}

	for i := len(roots) - 1; i >= 0; i-- {
		visit(roots[i])
	}

	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}

	for i, item := range order {
		item.index = uint64(i)
		for _, ref := range item.cell.refs {
			index[ref.HashKey()].parents++
		}
	}

	return order, index
}
