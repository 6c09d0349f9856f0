package cell

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToBOCWithFlags(t *testing.T) {
	cc1 := BeginCell().MustStoreUInt(111, 22).EndCell()
	cc2 := BeginCell().MustStoreUInt(777, 256).EndCell()
	cc3 := BeginCell().MustStoreBinarySnake(make([]byte, 700)).EndCell()

	boc := ToBOCWithFlags([]*Cell{cc1, cc2, cc3}, true)
	cells, err := FromBOCMultiRoot(boc)
	if err != nil {
		t.Fatal(err.Error())
		return
	}

	if len(cells) != 3 {
		t.Fatal("not 3 roots")
		return
	}

	if !bytes.Equal(cells[0].Hash(), cc1.Hash()) {
		t.Fatal("incorrect 0 cell")
		return
	}
	if !bytes.Equal(cells[1].Hash(), cc2.Hash()) {
		t.Fatal("incorrect 1 cell")
		return
	}
	if !bytes.Equal(cells[2].Hash(), cc3.Hash()) {
		t.Fatal("incorrect 2 cell")
		return
	}
}

func TestToBOC_Vectors(t *testing.T) {
	c1 := BeginCell().MustStoreUInt(111, 63).EndCell()
	c2 := BeginCell().MustStoreUInt(772227, 63).MustStoreRef(c1).EndCell()
	c3 := BeginCell().MustStoreUInt(333, 63).MustStoreRef(c2).EndCell()
	chain := BeginCell().MustStoreUInt(777, 63).MustStoreRef(c3).EndCell()

	leaf := BeginCell().MustStoreUInt(0xAB, 8).EndCell()
	shared := BeginCell().MustStoreBoolBit(true).MustStoreRef(leaf).MustStoreRef(leaf).EndCell()

	tests := []struct {
		name string
		boc  []byte
		hex  string
	}{
		{"empty", BeginCell().EndCell().ToBOC(), "b5ee9c724101010100020000004cacb9cd"},
		{"no crc", BeginCell().MustStoreUInt(21, 32).MustStoreUInt(0x1122334455667788, 64).EndCell().ToBOCWithFlags(false),
			"b5ee9c7201010101000e000018000000151122334455667788"},
		{"chain", chain.ToBOC(), "b5ee9c7241010401002b00010f000000000000061301010f000000000000029b02010f000000000017910703000f00000000000000df71dae7b7"},
		{"cache bits", ToBOCWithOptions([]*Cell{shared}, BOCOptions{WithCRC32C: true, WithCacheBits: true}),
			"b5ee9c72e10102010008000a110201c001010002abb0ea23e1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.hex, hex.EncodeToString(tt.boc))

			roots, err := FromBOCMultiRoot(tt.boc)
			require.NoError(t, err)
			require.Len(t, roots, 1)
		})
	}
}

func TestToBOC_RoundTrip(t *testing.T) {
	leaf := BeginCell().MustStoreUInt(0xDEAD, 16).EndCell()
	mid := BeginCell().MustStoreInt(-7, 13).MustStoreRef(leaf).EndCell()
	root := BeginCell().
		MustStoreSlice([]byte{0xFF, 0x80}, 9).
		MustStoreRef(mid).
		MustStoreRef(leaf).
		MustStoreRef(BeginCell().MustStoreRef(mid).EndCell()).
		EndCell()

	for _, opts := range []BOCOptions{
		{},
		{WithCRC32C: true},
		{WithIndex: true},
		{WithIndex: true, WithCRC32C: true},
		{WithCacheBits: true},
	} {
		boc := ToBOCWithOptions([]*Cell{root}, opts)

		parsed, err := FromBOC(boc)
		require.NoError(t, err, "%+v", opts)
		require.Equal(t, root.Hash(), parsed.Hash(), "%+v", opts)
		require.Equal(t, root.Dump(), parsed.Dump())

		// deduplicated: root, third ref, mid, leaf
		require.Equal(t, byte(4), boc[6])
	}
}

func TestToBOC_Order(t *testing.T) {
	leaf := BeginCell().MustStoreUInt(1, 8).EndCell()
	a := BeginCell().MustStoreUInt(2, 8).MustStoreRef(leaf).EndCell()
	b := BeginCell().MustStoreUInt(3, 8).MustStoreRef(leaf).MustStoreRef(a).EndCell()

	order, index := flattenIndex([]*Cell{a, b})
	require.Len(t, order, 3)
	// a is referenced by b, so b goes first
	require.Equal(t, uint64(0), index[b.HashKey()].index)
	require.Equal(t, uint64(1), index[a.HashKey()].index)

	for _, item := range order {
		for _, ref := range item.cell.refs {
			require.Greater(t, index[ref.HashKey()].index, item.index)
		}
	}

	require.Equal(t, 2, index[leaf.HashKey()].parents)
	require.Equal(t, 1, index[a.HashKey()].parents)

	_, index = flattenIndex([]*Cell{a, BeginCell().EndCell()})
	require.Equal(t, uint64(0), index[a.HashKey()].index)
}

func TestToBOC_NoRoots(t *testing.T) {
	require.Nil(t, ToBOCWithOptions(nil, BOCOptions{}))
}
