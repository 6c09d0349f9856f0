package cell

import (
	"fmt"
	"math/bits"
)

func keyBit(key []byte, i uint) bool {
	return key[i/8]&(0x80>>(i%8)) != 0
}

// storeLabel writes n key bits starting at offset as the shortest of
// hml_short$0, hml_long$10 and hml_same$11, where m is the max possible label length.
func storeLabel(b *Builder, key []byte, offset, n, m uint) error {
	k := uint(bits.Len(m))

	same := n > 1
	for i := uint(1); same && i < n; i++ {
		same = keyBit(key, offset+i) == keyBit(key, offset)
	}

	switch {
	case same && k < 2*n-1:
		if err := b.bits.fits(3 + k); err != nil {
			return err
		}

		b.bits.WriteUInt(0b11, 2)
		b.bits.WriteBit(keyBit(key, offset))
		b.bits.WriteUInt(uint64(n), k)
	case k < n:
		if err := b.bits.fits(2 + k + n); err != nil {
			return err
		}

		b.bits.WriteUInt(0b10, 2)
		b.bits.WriteUInt(uint64(n), k)
		b.bits.appendBits(key, offset, n)
	default:
		if err := b.bits.fits(2*n + 2); err != nil {
			return err
		}

		// unary length
		b.bits.WriteBit(false)
		for i := uint(0); i < n; i++ {
			b.bits.WriteBit(true)
		}
		b.bits.WriteBit(false)
		b.bits.appendBits(key, offset, n)
	}
	return nil
}

// loadLabel reads label of any form, appends its bits to key and returns label length.
func loadLabel(m uint, loader *Slice, key *BitBuffer) (uint, error) {
	first, err := loader.LoadBoolBit()
	if err != nil {
		return 0, err
	}

	// hml_short$0
	if !first {
		// Unary, while 1, add to ln
		ln := uint(0)
		for {
			bit, err := loader.LoadBoolBit()
			if err != nil {
				return 0, err
			}

			if !bit {
				break
			}
			ln++
		}

		if ln > m {
			return 0, labelTooLong(ln, m)
		}

		keyBits, err := loader.LoadSlice(ln)
		if err != nil {
			return 0, err
		}

		// add bits to key
		if err = key.WriteBits(keyBits, ln); err != nil {
			return 0, err
		}

		return ln, nil
	}

	second, err := loader.LoadBoolBit()
	if err != nil {
		return 0, err
	}

	bitsLen := uint(bits.Len(m))

	// hml_long$10
	if !second {
		ln, err := loader.LoadUInt(bitsLen)
		if err != nil {
			return 0, err
		}

		if uint(ln) > m {
			return 0, labelTooLong(uint(ln), m)
		}

		keyBits, err := loader.LoadSlice(uint(ln))
		if err != nil {
			return 0, err
		}

		// add bits to key
		if err = key.WriteBits(keyBits, uint(ln)); err != nil {
			return 0, err
		}

		return uint(ln), nil
	}

	// hml_same$11
	bitType, err := loader.LoadBoolBit()
	if err != nil {
		return 0, err
	}

	ln, err := loader.LoadUInt(bitsLen)
	if err != nil {
		return 0, err
	}

	if uint(ln) > m {
		return 0, labelTooLong(uint(ln), m)
	}

	for i := uint64(0); i < ln; i++ {
		if err = key.WriteBit(bitType); err != nil {
			return 0, err
		}
	}

	return uint(ln), nil
}

func labelTooLong(n, m uint) error {
	return fmt.Errorf("%w: label of %d bits is longer than %d bits left in key", ErrDictKeySize, n, m)
}
