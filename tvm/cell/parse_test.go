package cell

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustHex(s string) []byte {
	data, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		panic(err)
	}
	return data
}

func TestFromBOC_Malformed(t *testing.T) {
	tests := []struct {
		name string
		boc  string
	}{
		{"empty", ""},
		{"short", "b5ee9c72"},
		{"bad magic", "b5ee9c73 01 01 01 01 00 0e 00 0018 00000015 1122334455667788"},
		{"ref size 0", "b5ee9c72 00 01 01 01 00 0e 00 0018 00000015 1122334455667788"},
		{"ref size 5", "b5ee9c72 05 01 01 01 00 0e 00 0018 00000015 1122334455667788"},
		{"offset size 0", "b5ee9c72 01 00 01 01 00 0e 00 0018 00000015 1122334455667788"},
		{"offset size 9", "b5ee9c72 01 09 01 01 00 0e 00 0018 00000015 1122334455667788"},
		{"no roots", "b5ee9c72 01 01 01 00 00 0e 0018 00000015 1122334455667788"},
		{"root out of range", "b5ee9c72 01 01 01 02 00 0e 00 01 0018 00000015 1122334455667788"},
		{"absent cells", "b5ee9c72 01 01 01 01 01 0e 00 0018 00000015 1122334455667788"},
		{"truncated", "b5ee9c72 01 01 01 01 00 0e 00 0018 00000015 11223344556677"},
		{"trailing data", "b5ee9c72 01 01 01 01 00 0e 00 0018 00000015 1122334455667788 00"},
		{"truncated header", "b5ee9c72 01 04 01 01 00 00"},
		{"too many refs", "b5ee9c72 01 01 01 01 00 07 00 0500 0000000000"},
		{"no completion tag", "b5ee9c72 01 01 01 01 00 03 00 0001 00"},
		{"ref out of range", "b5ee9c72 01 01 01 01 00 03 00 0100 05"},
		{"cycle", "b5ee9c72 01 01 01 01 00 03 00 0100 00"},
		{"cells after data", "b5ee9c72 01 01 02 01 00 02 00 0000"},
		{"index mismatch", "b5ee9c72 81 01 01 01 00 0e 00 0d 0018 00000015 1122334455667788"},
		{"bad special cell", "b5ee9c72 01 01 01 01 00 04 00 0804 0101"},
		{"unknown special cell", "b5ee9c72 01 01 01 01 00 03 00 0802 77"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromBOC(mustHex(tt.boc))
			require.ErrorIs(t, err, ErrMalformedBOC)
		})
	}
}

func TestFromBOC_Checksum(t *testing.T) {
	boc := BeginCell().MustStoreUInt(21, 32).MustStoreUInt(0x1122334455667788, 64).EndCell().ToBOC()
	_, err := FromBOC(boc)
	require.NoError(t, err)

	boc[len(boc)-6] ^= 0x01
	_, err = FromBOC(boc)
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestFromBOC_Logger(t *testing.T) {
	var logged []any
	Logger = func(v ...any) {
		logged = append(logged, v...)
	}
	defer func() {
		Logger = func(v ...any) {}
	}()

	_, err := FromBOC(mustHex("b5ee9c73 01 01 01 01 00 0e 00 0018 00000015 1122334455667788"))
	require.Error(t, err)
	require.NotEmpty(t, logged)
}

func TestFromBOC_WithHashes(t *testing.T) {
	boc := "b5ee9c72 01 01 01 01 00 24 00 1000" + strings.Repeat("00", 34)

	c, err := FromBOC(mustHex(boc))
	require.NoError(t, err)
	require.Equal(t, BeginCell().EndCell().Hash(), c.Hash())
}

func TestFromBOC_ChildFirstOrder(t *testing.T) {
	c, err := FromBOC(mustHex("b5ee9c72 01 01 02 01 00 05 01 0000 010000"))
	require.NoError(t, err)

	expected := BeginCell().MustStoreRef(BeginCell().EndCell()).EndCell()
	require.Equal(t, expected.Hash(), c.Hash())
	require.Equal(t, uint(1), c.RefsNum())
}

func TestFromBOC_MultiRoot(t *testing.T) {
	shared := BeginCell().MustStoreUInt(7, 3).EndCell()
	r1 := BeginCell().MustStoreUInt(1, 8).MustStoreRef(shared).EndCell()
	r2 := BeginCell().MustStoreUInt(2, 8).MustStoreRef(shared).EndCell()

	roots, err := FromBOCMultiRoot(ToBOCWithOptions([]*Cell{r1, r2}, BOCOptions{WithIndex: true, WithCRC32C: true}))
	require.NoError(t, err)
	require.Len(t, roots, 2)
	require.Equal(t, r1.Hash(), roots[0].Hash())
	require.Equal(t, r2.Hash(), roots[1].Hash())

	c, err := FromBOC(r2.ToBOC())
	require.NoError(t, err)
	require.Equal(t, r2.Hash(), c.Hash())
}

func TestFromBOC_RepeatedRoots(t *testing.T) {
	leaf := BeginCell().MustStoreUInt(0x15, 32).EndCell()
	twin := BeginCell().MustStoreUInt(0x15, 32).EndCell()

	for _, opts := range []BOCOptions{{}, {WithCRC32C: true}, {WithIndex: true, WithCacheBits: true}} {
		data := ToBOCWithOptions([]*Cell{leaf, leaf, twin}, opts)
		require.Equal(t, byte(1), data[6], "cells should be deduplicated")
		require.Equal(t, byte(3), data[7])

		roots, err := FromBOCMultiRoot(data)
		require.NoError(t, err)
		require.Len(t, roots, 3)
		for _, root := range roots {
			require.Equal(t, leaf.Hash(), root.Hash())
		}
	}

	roots, err := FromBOCMultiRoot(mustHex("b5ee9c724101010200060000000800000015f009a29e"))
	require.NoError(t, err)
	require.Len(t, roots, 2)
	require.Equal(t, leaf.Hash(), roots[1].Hash())
}
