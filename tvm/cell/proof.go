package cell

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

type cellHash = []byte

// CreateProof builds merkle proof cell over c which keeps full subtrees of the given parts,
// branches not leading to any part are replaced with pruned cells.
func (c *Cell) CreateProof(parts []cellHash) (*Cell, error) {
	proofBody, hasParts, err := c.toProof(parts)
	if err != nil {
		return nil, fmt.Errorf("failed to build proof for cell: %w", err)
	}

	if len(hasParts) != len(parts) {
		return nil, fmt.Errorf("given cell not contains all parts to proof")
	}

	return BeginCell().
		MustStoreUInt(uint64(MerkleProofCellType), 8).
		MustStoreSlice(proofBody.getHash(0), 256).
		MustStoreUInt(uint64(proofBody.getDepth(0)), 16).
		MustStoreRef(proofBody).
		EndCellSpecial()
}

func (c *Cell) toProof(parts []cellHash) (*Cell, []cellHash, error) {
	for _, part := range parts {
		if bytes.Equal(c.getHash(MaxLevel), part) {
			// for this cell we need a proof
			return c, []cellHash{part}, nil
		}
	}
	if len(c.refs) == 0 {
		return c, nil, nil
	}

	var refs = make([]*Cell, len(c.refs))
	var toPrune []int
	var hasPartsRefs []cellHash
	for i, ref := range c.refs {
		proofRef, hasParts, err := ref.toProof(parts)
		if err != nil {
			return nil, nil, err
		}
		refs[i] = proofRef

		if len(hasParts) > 0 {
			// add hash to final list if it is not there yet
		partsIter:
			for _, part := range hasParts {
				for _, hPart := range hasPartsRefs {
					if bytes.Equal(part, hPart) {
						continue partsIter
					}
				}
				hasPartsRefs = append(hasPartsRefs, part)
			}
		} else if len(ref.refs) > 0 { // we prune only if cell has refs
			toPrune = append(toPrune, i)
		}
	}

	if len(hasPartsRefs) == 0 {
		// whole subtree is useless, parent decides what to do with it
		return c, nil, nil
	}

	for _, i := range toPrune {
		pruned, err := CreatePrunedBranch(c.refs[i])
		if err != nil {
			return nil, nil, err
		}
		refs[i] = pruned
	}

	proofCell, err := newCell(c.special, c.bitsSz, c.data, refs)
	if err != nil {
		return nil, nil, err
	}
	return proofCell, hasPartsRefs, nil
}

// CreatePrunedBranch replaces cell with pruned cell which keeps its hashes and depths for all levels.
func CreatePrunedBranch(c *Cell) (*Cell, error) {
	level := c.levelMask.GetLevel()
	if level >= MaxLevel {
		return nil, fmt.Errorf("child level is to big to prune")
	}

	mask := LevelMask{c.levelMask.Mask | 1<<level}
	hashesNum := mask.getHashIndex()

	data := make([]byte, 2+hashesNum*(32+2))
	data[0] = byte(PrunedCellType)
	data[1] = mask.Mask

	for lvl := 0; lvl <= level; lvl++ {
		if !c.levelMask.IsSignificant(lvl) {
			continue
		}

		idx := c.levelMask.Apply(lvl).getHashIndex()
		copy(data[2+idx*32:], c.getHash(lvl))
		binary.BigEndian.PutUint16(data[2+hashesNum*32+idx*2:], c.getDepth(lvl))
	}

	return newCell(true, uint(len(data))*8, data, nil)
}

func CheckProof(proof *Cell, hash []byte) error {
	if proof.GetType() != MerkleProofCellType {
		return fmt.Errorf("not a merkle proof cell")
	}

	// stored hash is verified against the body when cell is created
	if !bytes.Equal(hash, proof.data[1:33]) {
		return fmt.Errorf("incorrect proof hash")
	}

	return nil
}

// UnwrapProof checks proof and returns its body for reading.
func UnwrapProof(proof *Cell, hash []byte) (*Slice, error) {
	if err := CheckProof(proof, hash); err != nil {
		return nil, err
	}
	return proof.refs[0].BeginParse(), nil
}
