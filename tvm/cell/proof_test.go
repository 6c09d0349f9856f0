package cell

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func proofTestTree() (root, a, b *Cell) {
	a = BeginCell().MustStoreUInt(0xA, 4).MustStoreRef(BeginCell().MustStoreUInt(1, 8).EndCell()).EndCell()
	b = BeginCell().MustStoreUInt(0xB, 4).MustStoreRef(BeginCell().MustStoreUInt(2, 8).EndCell()).EndCell()
	root = BeginCell().MustStoreUInt(0x77, 8).MustStoreRef(a).MustStoreRef(b).EndCell()
	return
}

func TestCreatePrunedBranch(t *testing.T) {
	_, a, _ := proofTestTree()

	pruned, err := CreatePrunedBranch(a)
	require.NoError(t, err)
	require.Equal(t, PrunedCellType, pruned.GetType())
	require.Equal(t, 1, pruned.Level())
	require.Equal(t, uint((2+34)*8), pruned.BitsSize())
	require.Equal(t, a.Hash(), pruned.Hash(0))
	require.Equal(t, a.Depth(), pruned.Depth(0))
	require.NotEqual(t, a.Hash(), pruned.Hash())
}

func TestCell_CreateProof(t *testing.T) {
	root, a, b := proofTestTree()

	proof, err := root.CreateProof([]cellHash{a.Hash()})
	require.NoError(t, err)
	require.Equal(t, MerkleProofCellType, proof.GetType())
	require.Equal(t, 0, proof.Level())
	require.NoError(t, CheckProof(proof, root.Hash()))

	body, err := UnwrapProof(proof, root.Hash())
	require.NoError(t, err)
	require.Equal(t, uint64(0x77), body.MustLoadUInt(8))

	kept := body.MustLoadRefCell()
	require.Equal(t, a.Hash(), kept.Hash())

	pruned := body.MustLoadRefCell()
	require.Equal(t, PrunedCellType, pruned.GetType())
	require.Equal(t, b.Hash(), pruned.Hash(0))

	// special cells and levels survive serialization
	parsed, err := FromBOC(proof.ToBOC())
	require.NoError(t, err)
	require.Equal(t, proof.Hash(), parsed.Hash())
	require.Equal(t, MerkleProofCellType, parsed.GetType())
	require.NoError(t, CheckProof(parsed, root.Hash()))
}

func TestCell_CreateProofErrors(t *testing.T) {
	root, _, _ := proofTestTree()

	_, err := root.CreateProof([]cellHash{make([]byte, 32)})
	require.Error(t, err)

	proof, err := root.CreateProof([]cellHash{root.Hash()})
	require.NoError(t, err)

	require.Error(t, CheckProof(proof, make([]byte, 32)))
	require.Error(t, CheckProof(root, root.Hash()))

	_, err = UnwrapProof(proof, make([]byte, 32))
	require.Error(t, err)
}

func TestMerkleProof_StoredHash(t *testing.T) {
	root, _, _ := proofTestTree()

	// stored hash not matching the ref
	_, err := BeginCell().
		MustStoreUInt(uint64(MerkleProofCellType), 8).
		MustStoreSlice(make([]byte, 32), 256).
		MustStoreUInt(uint64(root.Depth()), 16).
		MustStoreRef(root).
		EndCellSpecial()
	require.ErrorIs(t, err, ErrInvalidSpecialCell)
}

func TestDictionary_FromProof(t *testing.T) {
	d := NewDict(8)
	for _, k := range []uint64{0x00, 0x80} {
		val := BeginCell().MustStoreUInt(k, 8).MustStoreRef(BeginCell().MustStoreUInt(k, 16).EndCell()).EndCell()
		require.NoError(t, d.Set(BeginCell().MustStoreUInt(k, 8).EndCell(), val))
	}

	root := d.MustToCell()
	left, err := root.PeekRef(0)
	require.NoError(t, err)

	proof, err := root.CreateProof([]cellHash{left.Hash()})
	require.NoError(t, err)

	body, err := UnwrapProof(proof, root.Hash())
	require.NoError(t, err)

	partial, err := body.ToDict(8)
	require.NoError(t, err)
	require.Equal(t, 1, partial.Size())
	require.NotNil(t, partial.Get(BeginCell().MustStoreUInt(0x00, 8).EndCell()))
	require.Nil(t, partial.Get(BeginCell().MustStoreUInt(0x80, 8).EndCell()))
}
