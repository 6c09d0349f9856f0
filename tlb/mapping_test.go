package tlb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tonkit/cellkit/tvm/cell"
)

type mappedDicts struct {
	Prices map[string]uint32     `tlb:"dict 16 -> ## 32"`
	Refs   map[string]*cell.Cell `tlb:"dict inline 8 -> ^"`
}

type conditional struct {
	HasExtra bool   `tlb:"bool"`
	Extra    uint16 `tlb:"?HasExtra ## 16"`
	Tail     uint8  `tlb:"## 8"`
}

type withRef struct {
	A     uint8        `tlb:"## 8"`
	Inner *smallStruct `tlb:"^"`
}

type eitherRef struct {
	V *smallStruct `tlb:"either . ^"`
}

type notNillableMaybe struct {
	V uint8 `tlb:"maybe ## 8"`
}

func TestMapDict(t *testing.T) {
	v := mappedDicts{
		Prices: map[string]uint32{"1": 100, "500": 7, "65535": 0xFFFFFFFF},
		Refs: map[string]*cell.Cell{
			"3":   cell.BeginCell().MustStoreUInt(3, 3).EndCell(),
			"200": cell.BeginCell().MustStoreStringSnake("two hundred").EndCell(),
		},
	}

	c, err := ToCell(v)
	require.NoError(t, err)

	s := c.BeginParse()
	prices, err := s.Copy().LoadDict(16)
	require.NoError(t, err)
	require.Equal(t, 3, prices.Size())
	require.Equal(t, uint64(7), prices.Get(cell.BeginCell().MustStoreUInt(500, 16).EndCell()).BeginParse().MustLoadUInt(32))

	var v2 mappedDicts
	require.NoError(t, LoadFromCell(&v2, c.BeginParse()))
	require.Equal(t, v.Prices, v2.Prices)
	require.Len(t, v2.Refs, 2)
	for k, ref := range v.Refs {
		require.Equal(t, ref.Hash(), v2.Refs[k].Hash())
	}

	c2, err := ToCell(v2)
	require.NoError(t, err)
	require.Equal(t, c.Hash(), c2.Hash())
}

func TestMapDictErrors(t *testing.T) {
	_, err := ToCell(mappedDicts{Prices: map[string]uint32{"70000": 1}, Refs: map[string]*cell.Cell{"1": cell.BeginCell().EndCell()}})
	require.Error(t, err)

	_, err = ToCell(mappedDicts{Prices: map[string]uint32{"abc": 1}, Refs: map[string]*cell.Cell{"1": cell.BeginCell().EndCell()}})
	require.Error(t, err)

	// inline dictionary has no empty form
	_, err = ToCell(mappedDicts{})
	require.Error(t, err)
}

func TestConditionalField(t *testing.T) {
	c, err := ToCell(conditional{HasExtra: false, Extra: 0xAAAA, Tail: 5})
	require.NoError(t, err)
	require.Equal(t, uint(9), c.BitsSize())

	var v conditional
	require.NoError(t, LoadFromCell(&v, c.BeginParse()))
	require.Equal(t, conditional{Tail: 5}, v)

	c, err = ToCell(&conditional{HasExtra: true, Extra: 0xAAAA, Tail: 5})
	require.NoError(t, err)
	require.Equal(t, uint(25), c.BitsSize())

	require.NoError(t, LoadFromCell(&v, c.BeginParse()))
	require.Equal(t, conditional{HasExtra: true, Extra: 0xAAAA, Tail: 5}, v)
}

func TestEitherPrefersRef(t *testing.T) {
	c, err := ToCell(eitherRef{V: &smallStruct{Sz: 9}})
	require.NoError(t, err)
	require.Equal(t, uint(1), c.BitsSize())
	require.Equal(t, uint(1), c.RefsNum())

	var v eitherRef
	require.NoError(t, LoadFromCell(&v, c.BeginParse()))
	require.Equal(t, uint32(9), v.V.Sz)

	// inline option
	c = cell.BeginCell().MustStoreBoolBit(false).MustStoreUInt(4, 8).EndCell()
	require.NoError(t, LoadFromCell(&v, c.BeginParse()))
	require.Equal(t, uint32(4), v.V.Sz)
}

func TestLoadFromCellAsProof(t *testing.T) {
	inner := cell.BeginCell().MustStoreUInt(77, 8).EndCell()
	pruned, err := cell.CreatePrunedBranch(inner)
	require.NoError(t, err)

	c := cell.BeginCell().MustStoreUInt(1, 8).MustStoreRef(pruned).EndCell()

	var v withRef
	require.NoError(t, LoadFromCellAsProof(&v, c.BeginParse()))
	require.Equal(t, uint8(1), v.A)
	require.Nil(t, v.Inner)

	c = cell.BeginCell().MustStoreUInt(1, 8).MustStoreRef(inner).EndCell()
	require.NoError(t, LoadFromCellAsProof(&v, c.BeginParse()))
	require.Equal(t, uint32(77), v.Inner.Sz)
}

func TestMappingErrors(t *testing.T) {
	var s smallStruct
	require.Error(t, LoadFromCell(s, cell.BeginCell().EndCell().BeginParse()))
	require.Error(t, LoadFromCell(&s, cell.BeginCell().MustStoreUInt(1, 4).EndCell().BeginParse()))

	var b excessesNotify
	err := LoadFromCell(&b, cell.BeginCell().MustStoreUInt(0xd53276dc, 32).MustStoreUInt(1, 64).EndCell().BeginParse())
	require.Error(t, err)

	b2 := excessesNotify{QueryID: 0x1234}
	c, err := ToCell(b2)
	require.NoError(t, err)
	require.NoError(t, LoadFromCell(&b, c.BeginParse()))
	require.Equal(t, uint64(0x1234), b.QueryID)

	// magic is checked by parent, loading continues after it
	rest := c.BeginParse()
	rest.MustLoadUInt(32)
	b = excessesNotify{}
	require.NoError(t, LoadFromCell(&b, rest, true))
	require.Equal(t, uint64(0x1234), b.QueryID)

	_, err = ToCell(notNillableMaybe{V: 1})
	require.Error(t, err)
	require.Error(t, LoadFromCell(&notNillableMaybe{}, cell.BeginCell().MustStoreUInt(0, 9).EndCell().BeginParse()))

	_, err = ToCell(forwardPayload{Body: cancelOrder{ID: 1}})
	require.Error(t, err)
	_, err = ToCell(forwardPayload{})
	require.Error(t, err)
}
