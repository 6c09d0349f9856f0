package tlb

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/tonkit/cellkit/address"
	"github.com/tonkit/cellkit/tvm/cell"
)

type manualStore interface {
	ToCell() (*cell.Cell, error)
}

// ToCell serializes struct using the same tags as LoadFromCell.
// For 'either X Y' the ref option is chosen when Y is a ref, otherwise X.
func ToCell(v any) (*cell.Cell, error) {
	if st, ok := v.(manualStore); ok {
		c, err := st.ToCell()
		if err != nil {
			return nil, fmt.Errorf("failed to store to cell for %s, using manual storer, err: %w", reflect.TypeOf(v).String(), err)
		}
		return c, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("v should not be nil")
		}
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("v should be a struct, got %s", rv.Kind())
	}

	root := cell.BeginCell()

	for i := 0; i < rv.NumField(); i++ {
		settings := splitTag(rv.Type().Field(i))
		if settings == nil {
			continue
		}

		if err := storeField(root, rv, i, settings); err != nil {
			return nil, err
		}
	}

	return root.EndCell(), nil
}

func storeField(root *cell.Builder, rv reflect.Value, i int, settings []string) error {
	structField := rv.Type().Field(i)
	fieldVal := rv.Field(i)

	if settings[0][0] == '?' {
		cond := rv.FieldByName(settings[0][1:])
		if !cond.IsValid() || cond.Kind() != reflect.Bool {
			panic(fmt.Sprintf("condition of field '%s' should refer to bool field", structField.Name))
		}

		if !cond.Bool() {
			return nil
		}
		settings = settings[1:]
	}

	if head(settings) == "maybe" {
		if !nillable(structField.Type) {
			return fmt.Errorf("maybe flag can only be applied to interface, pointer, slice or map, field %s", structField.Name)
		}

		has := !fieldVal.IsNil()
		if err := root.StoreBoolBit(has); err != nil {
			return fmt.Errorf("cannot store maybe bit of %s: %w", structField.Name, err)
		}

		if !has {
			return nil
		}
		settings = settings[1:]
	}

	if head(settings) == "either" {
		if len(settings) < 3 {
			panic("either tag should have 2 args")
		}

		second := strings.HasPrefix(settings[2], "^")
		if err := root.StoreBoolBit(second); err != nil {
			return fmt.Errorf("cannot store either bit of %s: %w", structField.Name, err)
		}

		if second {
			settings = settings[2:3]
		} else {
			settings = settings[1:2]
		}
	}

	builder := root
	asRef := head(settings) == "^"
	if asRef {
		settings = settings[1:]
		builder = cell.BeginCell()
	}

	if err := storeValue(builder, structField, fieldVal, settings); err != nil {
		return err
	}

	if asRef {
		if err := root.StoreRef(builder.EndCell()); err != nil {
			return fmt.Errorf("failed to store cell to ref for %s, err: %w", structField.Name, err)
		}
	}
	return nil
}

func storeValue(builder *cell.Builder, structField reflect.StructField, fieldVal reflect.Value, settings []string) error {
	name := structField.Name

	if structField.Type == magicType {
		magic, sz := parseMagic(head(settings))
		if err := builder.StoreUInt(magic, sz); err != nil {
			return fmt.Errorf("failed to store magic of %s: %w", name, err)
		}
		return nil
	}

	if structField.Type.Kind() == reflect.Interface {
		if fieldVal.IsNil() {
			return fmt.Errorf("interface field %s is nil", name)
		}

		typ := fieldVal.Elem().Type()
		for _, allowed := range allowedTypes(settings, name) {
			if t, ok := lookupRegistered(allowed); ok && t == typ {
				return storeStruct(builder, fieldVal.Elem(), name)
			}
		}
		return fmt.Errorf("unexpected data to serialize in %s, type %s is not in allowed list", name, typ.String())
	}

	if fieldVal.Kind() == reflect.Pointer && fieldVal.Type().Elem().Kind() != reflect.Struct {
		// to same process both pointers and types
		if fieldVal.IsNil() {
			return fmt.Errorf("field %s is nil", name)
		}
		fieldVal = fieldVal.Elem()
	}

	var err error
	switch head(settings) {
	case "", ".":
		return storeStruct(builder, fieldVal, name)
	case "##":
		err = storeNumber(builder, fieldVal, parseSize(settings, 1, name), name)
	case "addr":
		addr, _ := fieldVal.Interface().(*address.Address)
		err = builder.StoreAddr(addr)
	case "bool":
		err = builder.StoreBoolBit(fieldVal.Bool())
	case "bits":
		err = builder.StoreSlice(fieldVal.Bytes(), parseSize(settings, 1, name))
	case "var":
		if len(settings) < 2 || settings[1] != "uint" {
			panic("only var uint is supported, field " + name)
		}

		var x *big.Int
		if x, err = bigIntOf(fieldVal, name); err == nil {
			err = builder.StoreVarUInt(x, parseSize(settings, 2, name))
		}
	case "dict":
		err = storeDict(builder, fieldVal, parseDictTag(settings[1:], name), name)
	default:
		panic(fmt.Sprintf("cannot serialize field '%s' as tag '%v', use manual serialization", name, settings))
	}

	if err != nil {
		return fmt.Errorf("failed to store %s: %w", name, err)
	}
	return nil
}

func storeNumber(builder *cell.Builder, fieldVal reflect.Value, num uint, name string) error {
	switch fieldVal.Kind() {
	case reflect.Int64, reflect.Int32, reflect.Int16, reflect.Int8, reflect.Int:
		if num > 64 {
			panic(fmt.Sprintf("field '%s' is too small for %d bits", name, num))
		}
		return builder.StoreInt(fieldVal.Int(), num)
	case reflect.Uint64, reflect.Uint32, reflect.Uint16, reflect.Uint8, reflect.Uint:
		if num > 64 {
			panic(fmt.Sprintf("field '%s' is too small for %d bits", name, num))
		}
		return builder.StoreUInt(fieldVal.Uint(), num)
	}

	x, err := bigIntOf(fieldVal, name)
	if err != nil {
		return err
	}
	return builder.StoreBigInt(x, num)
}

func bigIntOf(fieldVal reflect.Value, name string) (*big.Int, error) {
	switch fieldVal.Type() {
	case bigIntType:
		if fieldVal.IsNil() {
			return nil, fmt.Errorf("big int field %s is nil", name)
		}
		return fieldVal.Interface().(*big.Int), nil
	case bigIntType.Elem():
		x := fieldVal.Interface().(big.Int)
		return &x, nil
	}
	panic("unexpected field type for number tag - " + fieldVal.Type().String())
}

func storeStruct(builder *cell.Builder, fieldVal reflect.Value, name string) error {
	var c *cell.Cell
	if fieldVal.Type() == cellType {
		c = cell.BeginCell().EndCell()
		if !fieldVal.IsNil() {
			c = fieldVal.Interface().(*cell.Cell)
		}
	} else {
		if fieldVal.Kind() == reflect.Pointer && fieldVal.IsNil() {
			return fmt.Errorf("field %s is nil", name)
		}

		v := fieldVal.Interface()
		if fieldVal.Kind() != reflect.Pointer && fieldVal.CanAddr() {
			// pointer receivers of manual storers
			v = fieldVal.Addr().Interface()
		}

		var err error
		if c, err = ToCell(v); err != nil {
			return fmt.Errorf("failed to store to cell for %s, err: %w", name, err)
		}
	}

	if err := builder.StoreBuilder(c.ToBuilder()); err != nil {
		return fmt.Errorf("failed to store cell to builder for %s, err: %w", name, err)
	}
	return nil
}

func storeDict(builder *cell.Builder, fieldVal reflect.Value, t dictTag, name string) error {
	var dict *cell.Dictionary
	if fieldVal.Kind() == reflect.Map {
		var err error
		if dict, err = mapToDict(fieldVal, t, name); err != nil {
			return err
		}
	} else {
		dict, _ = fieldVal.Interface().(*cell.Dictionary)
	}

	if !t.inline {
		return builder.StoreDict(dict)
	}

	if dict == nil || dict.IsEmpty() {
		return fmt.Errorf("inline dictionary cannot be empty")
	}

	root, err := dict.ToCell()
	if err != nil {
		return err
	}
	return builder.StoreBuilder(root.ToBuilder())
}

func mapToDict(fieldVal reflect.Value, t dictTag, name string) (*cell.Dictionary, error) {
	if fieldVal.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("map key should be string, but instead got %s type", fieldVal.Type().Key())
	}
	if len(t.value) == 0 {
		panic(fmt.Sprintf("dict of field '%s' is mapped from map, but value tags are not set", name))
	}

	valueType := mapValueType(fieldVal.Type(), t.value)
	dict := cell.NewDict(t.keySz)

	iter := fieldVal.MapRange()
	for iter.Next() {
		key, ok := new(big.Int).SetString(iter.Key().String(), 10)
		if !ok {
			return nil, fmt.Errorf("cannot parse '%s' map key of '%s' field to integer", iter.Key().String(), name)
		}

		kb := cell.BeginCell()
		if err := kb.StoreBigUInt(key, t.keySz); err != nil {
			return nil, fmt.Errorf("failed to store key '%s' of '%s' field: %w", iter.Key().String(), name, err)
		}

		wrapper := reflect.New(valueType).Elem()
		wrapper.Field(0).Set(iter.Value())

		vc, err := ToCell(wrapper.Interface())
		if err != nil {
			return nil, fmt.Errorf("creating cell for dict value of '%s' field: %w", name, err)
		}

		if err = dict.Set(kb.EndCell(), vc); err != nil {
			return nil, fmt.Errorf("set dict key/value on '%s' field: %w", name, err)
		}
	}

	return dict, nil
}
