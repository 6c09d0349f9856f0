package cell

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"
)

// Dictionary is a Hashmap with fixed key width, keys are compared by their bits.
type Dictionary struct {
	storage map[string]*HashmapKV
	keySz   uint
}

type HashmapKV struct {
	Key   *Cell
	Value *Cell
}

type DictKV struct {
	Key   *Slice
	Value *Slice
}

func NewDict(keySz uint) *Dictionary {
	return &Dictionary{
		storage: map[string]*HashmapKV{},
		keySz:   keySz,
	}
}

func (c *Slice) MustLoadDict(keySz uint) *Dictionary {
	ld, err := c.LoadDict(keySz)
	if err != nil {
		panic(err)
	}
	return ld
}

// LoadDict loads HashmapE: maybe bit and the root of dictionary in ref.
func (c *Slice) LoadDict(keySz uint) (*Dictionary, error) {
	cl, err := c.LoadMaybeRef()
	if err != nil {
		return nil, fmt.Errorf("failed to load ref for dict, err: %w", err)
	}

	if cl == nil {
		return NewDict(keySz), nil
	}

	return cl.ToDict(keySz)
}

func (c *Slice) MustToDict(keySz uint) *Dictionary {
	d, err := c.ToDict(keySz)
	if err != nil {
		panic(err)
	}
	return d
}

// ToDict parses non-empty Hashmap which root is located at the current position of slice.
func (c *Slice) ToDict(keySz uint) (*Dictionary, error) {
	d := NewDict(keySz)

	err := d.mapInner(keySz, c, NewBitBuffer(keySz))
	if err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Dictionary) mapInner(leftKeySz uint, loader *Slice, keyPrefix *BitBuffer) error {
	sz, err := loadLabel(leftKeySz, loader, keyPrefix)
	if err != nil {
		return fmt.Errorf("failed to load label: %w", err)
	}

	// until key size is not equals we go deeper
	if sz < leftKeySz {
		for bit := 0; bit < 2; bit++ {
			ref, err := loader.LoadRefCell()
			if err != nil {
				return fmt.Errorf("failed to load %d bit branch: %w", bit, err)
			}

			// pruned branches of proofs have no entries to show
			if ref.GetType() == PrunedCellType {
				continue
			}

			prefix := keyPrefix.Copy()
			prefix.WriteBit(bit == 1)

			err = d.mapInner(leftKeySz-(1+sz), ref.BeginParse(), prefix)
			if err != nil {
				return err
			}
		}

		return nil
	}

	value, err := loader.ToCell()
	if err != nil {
		return fmt.Errorf("failed to load value: %w", err)
	}

	keyData := keyPrefix.Bytes()
	d.storage[string(keyData)] = &HashmapKV{
		Key:   BeginCell().MustStoreSlice(keyData, d.keySz).EndCell(),
		Value: value,
	}

	return nil
}

func (d *Dictionary) KeySize() uint {
	return d.keySz
}

func (d *Dictionary) keyBits(key *Cell) ([]byte, error) {
	if key.BitsSize() != d.keySz {
		return nil, fmt.Errorf("%w: key has %d bits, dictionary %d", ErrDictKeySize, key.BitsSize(), d.keySz)
	}
	return key.BeginParse().LoadSlice(d.keySz)
}

func (d *Dictionary) intKey(key *big.Int) (*Cell, error) {
	b := BeginCell()
	if err := b.StoreBigInt(key, d.keySz); err != nil {
		return nil, fmt.Errorf("failed to store key: %w", err)
	}
	return b.EndCell(), nil
}

// Set stores value by key, nil value removes the key.
func (d *Dictionary) Set(key, value *Cell) error {
	data, err := d.keyBits(key)
	if err != nil {
		return err
	}

	if value == nil {
		delete(d.storage, string(data))
		return nil
	}

	d.storage[string(data)] = &HashmapKV{
		Key:   key,
		Value: value,
	}
	return nil
}

func (d *Dictionary) SetIntKey(key *big.Int, value *Cell) error {
	k, err := d.intKey(key)
	if err != nil {
		return err
	}
	return d.Set(k, value)
}

// Get returns value by key, nil when key is absent or has wrong size.
func (d *Dictionary) Get(key *Cell) *Cell {
	v, err := d.LoadValue(key)
	if err != nil {
		return nil
	}
	return v
}

func (d *Dictionary) GetByIntKey(key *big.Int) *Cell {
	v, err := d.LoadValueByIntKey(key)
	if err != nil {
		return nil
	}
	return v
}

// LoadValue returns value by key, ErrDictKeySize is returned when key width differs from dictionary,
// ErrNoSuchKeyInDict when there is no such key.
func (d *Dictionary) LoadValue(key *Cell) (*Cell, error) {
	data, err := d.keyBits(key)
	if err != nil {
		return nil, err
	}

	v := d.storage[string(data)]
	if v == nil {
		return nil, ErrNoSuchKeyInDict
	}
	return v.Value, nil
}

func (d *Dictionary) LoadValueByIntKey(key *big.Int) (*Cell, error) {
	k, err := d.intKey(key)
	if err != nil {
		return nil, err
	}
	return d.LoadValue(k)
}

func (d *Dictionary) Delete(key *Cell) error {
	return d.Set(key, nil)
}

func (d *Dictionary) DeleteIntKey(key *big.Int) error {
	return d.SetIntKey(key, nil)
}

// All returns entries ordered by key bits.
func (d *Dictionary) All() []*HashmapKV {
	keys := make([]string, 0, len(d.storage))
	for k := range d.storage {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	all := make([]*HashmapKV, 0, len(d.storage))
	for _, k := range keys {
		all = append(all, d.storage[k])
	}

	return all
}

func (d *Dictionary) LoadAll() []DictKV {
	all := d.All()

	res := make([]DictKV, 0, len(all))
	for _, kv := range all {
		res = append(res, DictKV{
			Key:   kv.Key.BeginParse(),
			Value: kv.Value.BeginParse(),
		})
	}
	return res
}

func (d *Dictionary) Size() int {
	return len(d.storage)
}

func (d *Dictionary) IsEmpty() bool {
	return len(d.storage) == 0
}

func (d *Dictionary) Copy() *Dictionary {
	cp := NewDict(d.keySz)
	for k, v := range d.storage {
		cp.storage[k] = v
	}
	return cp
}

func (d *Dictionary) MustToCell() *Cell {
	c, err := d.ToCell()
	if err != nil {
		panic(err)
	}
	return c
}

type dictEntry struct {
	key   []byte
	value *Cell
}

// ToCell serializes dictionary as Hashmap root, empty dictionary has no root and gives nil.
func (d *Dictionary) ToCell() (*Cell, error) {
	if len(d.storage) == 0 {
		return nil, nil
	}

	entries := make([]dictEntry, 0, len(d.storage))
	for k, v := range d.storage {
		entries = append(entries, dictEntry{key: []byte(k), value: v.Value})
	}

	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].key, entries[j].key) < 0
	})

	return d.serializeNode(entries, 0, d.keySz)
}

// AsCell returns HashmapE representation: single zero bit for empty dictionary or bit and ref to the root.
func (d *Dictionary) AsCell() (*Cell, error) {
	b := BeginCell()
	if err := b.StoreDict(d); err != nil {
		return nil, err
	}
	return b.EndCell(), nil
}

func (d *Dictionary) serializeNode(entries []dictEntry, offset, left uint) (*Cell, error) {
	b := BeginCell()

	if len(entries) == 1 {
		if err := storeLabel(b, entries[0].key, offset, left, left); err != nil {
			return nil, fmt.Errorf("failed to store leaf label: %w", err)
		}

		if err := b.StoreBuilder(entries[0].value.ToBuilder()); err != nil {
			return nil, fmt.Errorf("failed to store value: %w", err)
		}

		return b.build(false)
	}

	// sorted, so prefix of first and last is common for all
	first, last := entries[0].key, entries[len(entries)-1].key
	p := uint(0)
	for p < left && keyBit(first, offset+p) == keyBit(last, offset+p) {
		p++
	}

	if err := storeLabel(b, first, offset, p, left); err != nil {
		return nil, fmt.Errorf("failed to store fork label: %w", err)
	}

	split := sort.Search(len(entries), func(i int) bool {
		return keyBit(entries[i].key, offset+p)
	})

	for _, part := range [][]dictEntry{entries[:split], entries[split:]} {
		ref, err := d.serializeNode(part, offset+p+1, left-p-1)
		if err != nil {
			return nil, err
		}

		if err = b.StoreRef(ref); err != nil {
			return nil, err
		}
	}

	return b.build(false)
}
