package tlb

import (
	"fmt"
	"reflect"

	"github.com/tonkit/cellkit/tvm/cell"
)

type Magic struct{}

type manualLoader interface {
	LoadFromCell(loader *cell.Slice) error
}

type loadOptions struct {
	skipProofBranches bool
	skipMagic         bool
}

// LoadFromCell automatically parses cell based on struct tags
// ## N - integer with N bits, if size <= 64 it loads to int or uint of any size, up to 257 to *big.Int
// ^ - loads ref and continues in it, if field type is *cell.Cell, it loads without parsing
// . - calls recursively to continue load from current loader (inner struct)
// dict [inline] N - loads dictionary with key size N, inline is for Hashmap instead of HashmapE,
// /                 with '-> tags' after the size dictionary is loaded into map[string]T,
// /                 keys are decimal strings, values are parsed using given tags, example: 'dict 32 -> ^'
// bits N - loads bit slice N len to []byte
// bool - loads 1 bit boolean
// addr - loads address
// var uint N - loads VarUInteger N to *big.Int
// maybe - reads 1 bit, and loads rest if its 1, can be used in combination with others only
// either X Y - reads 1 bit, if its 0 - loads X, if 1 - loads Y
// ?FieldName - conditional field loading depending on boolean value of specified field,
// /            which must be declared before
// [A,B] - for interface fields, loads first registered type which magic matches
// Magic can be used to load first bits and check struct type, magic is set in [#]HEX or [$]BIN format
// Example:
// _ Magic `tlb:"#deadbeef"
// _ Magic `tlb:"$1101"
func LoadFromCell(v any, loader *cell.Slice, skipMagic ...bool) error {
	return loadFromCell(v, loader, loadOptions{
		skipMagic: len(skipMagic) > 0 && skipMagic[0],
	})
}

// LoadFromCellAsProof works like LoadFromCell but leaves fields behind pruned refs unset.
func LoadFromCellAsProof(v any, loader *cell.Slice, skipMagic ...bool) error {
	return loadFromCell(v, loader, loadOptions{
		skipProofBranches: true,
		skipMagic:         len(skipMagic) > 0 && skipMagic[0],
	})
}

func loadFromCell(v any, slice *cell.Slice, opts loadOptions) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("v should be a pointer and not nil")
	}
	rv = rv.Elem()

	if ld, ok := v.(manualLoader); ok {
		err := ld.LoadFromCell(slice)
		if err != nil {
			return fmt.Errorf("failed to load from cell for %s, using manual loader, err: %w", rv.Type().Name(), err)
		}
		return nil
	}

	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("v should point to struct, got %s", rv.Kind())
	}

	for i := 0; i < rv.NumField(); i++ {
		settings := splitTag(rv.Type().Field(i))
		if settings == nil {
			continue
		}

		if err := loadField(rv, i, settings, slice, opts); err != nil {
			return err
		}
	}

	return nil
}

func loadField(rv reflect.Value, i int, settings []string, loader *cell.Slice, opts loadOptions) error {
	structField := rv.Type().Field(i)

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

		has, err := loader.LoadBoolBit()
		if err != nil {
			return fmt.Errorf("failed to load maybe for %s, err: %w", structField.Name, err)
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

		isSecond, err := loader.LoadBoolBit()
		if err != nil {
			return fmt.Errorf("failed to load either bit for %s, err: %w", structField.Name, err)
		}

		if isSecond {
			settings = settings[2:3]
		} else {
			settings = settings[1:2]
		}
	}

	if head(settings) == "^" {
		ref, err := loader.LoadRefCell()
		if err != nil {
			return fmt.Errorf("failed to load ref for %s, err: %w", structField.Name, err)
		}

		if opts.skipProofBranches && ref.GetType() == cell.PrunedCellType {
			return nil
		}

		settings = settings[1:]
		loader = ref.BeginParse()
	}

	val, err := loadValue(structField, settings, loader, opts)
	if err != nil {
		return err
	}

	if val.IsValid() {
		setField(rv.Field(i), val)
	}
	return nil
}

func loadValue(structField reflect.StructField, settings []string, loader *cell.Slice, opts loadOptions) (reflect.Value, error) {
	typ := structField.Type
	name := structField.Name

	parseType := typ
	if typ.Kind() == reflect.Pointer && typ.Elem().Kind() != reflect.Struct {
		// to same process both pointers and types
		parseType = typ.Elem()
	}

	if typ == magicType {
		if opts.skipMagic {
			// it can be skipped if parsed before in parent type, to determine child type
			return reflect.Value{}, nil
		}

		if !checkMagic(head(settings), loader) {
			return reflect.Value{}, fmt.Errorf("magic is not correct for field %s, want %s", name, head(settings))
		}
		return reflect.Value{}, nil
	}

	if typ.Kind() == reflect.Interface {
		t, err := pickRegistered(allowedTypes(settings, name), loader)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("failed to load %s: %w", name, err)
		}
		return structLoad(t, loader, opts)
	}

	switch head(settings) {
	case "", ".":
		return structLoad(typ, loader, opts)
	case "##":
		return loadNumber(parseType, parseSize(settings, 1, name), loader, name)
	case "addr":
		x, err := loader.LoadAddr()
		if err != nil {
			return reflect.Value{}, fmt.Errorf("failed to load address for %s, err: %w", name, err)
		}
		return reflect.ValueOf(x), nil
	case "bool":
		x, err := loader.LoadBoolBit()
		if err != nil {
			return reflect.Value{}, fmt.Errorf("failed to load bool for %s, err: %w", name, err)
		}
		return reflect.ValueOf(x), nil
	case "bits":
		num := parseSize(settings, 1, name)
		x, err := loader.LoadSlice(num)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("failed to load bits %d for field %s, err: %w", num, name, err)
		}
		return reflect.ValueOf(x), nil
	case "var":
		if len(settings) < 2 || settings[1] != "uint" {
			panic("only var uint is supported, field " + name)
		}

		res, err := loader.LoadVarUInt(parseSize(settings, 2, name))
		if err != nil {
			return reflect.Value{}, fmt.Errorf("failed to load var uint for %s: %w", name, err)
		}
		return reflect.ValueOf(res), nil
	case "dict":
		return loadDict(typ, parseDictTag(settings[1:], name), loader, opts, name)
	}

	panic(fmt.Sprintf("cannot deserialize field '%s' as tag '%v'", name, settings))
}

func loadNumber(parseType reflect.Type, num uint, loader *cell.Slice, name string) (reflect.Value, error) {
	switch parseType.Kind() {
	case reflect.Int64, reflect.Int32, reflect.Int16, reflect.Int8, reflect.Int:
		if num > 64 {
			panic(fmt.Sprintf("field '%s' is too small for %d bits", name, num))
		}

		x, err := loader.LoadInt(num)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("failed to load %s int %d, err: %w", name, num, err)
		}
		return reflect.ValueOf(x), nil
	case reflect.Uint64, reflect.Uint32, reflect.Uint16, reflect.Uint8, reflect.Uint:
		if num > 64 {
			panic(fmt.Sprintf("field '%s' is too small for %d bits", name, num))
		}

		x, err := loader.LoadUInt(num)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("failed to load %s uint %d, err: %w", name, num, err)
		}
		return reflect.ValueOf(x), nil
	}

	if parseType != bigIntType && parseType != bigIntType.Elem() {
		panic("unexpected field type for tag ## - " + parseType.String())
	}

	x, err := loader.LoadBigInt(num)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("failed to load %s bigint %d, err: %w", name, num, err)
	}
	return reflect.ValueOf(x), nil
}

func loadDict(typ reflect.Type, t dictTag, loader *cell.Slice, opts loadOptions, name string) (reflect.Value, error) {
	var dict *cell.Dictionary
	var err error
	if t.inline {
		dict, err = loader.ToDict(t.keySz)
	} else {
		dict, err = loader.LoadDict(t.keySz)
	}
	if err != nil {
		return reflect.Value{}, fmt.Errorf("failed to load dict for %s, err: %w", name, err)
	}

	if typ.Kind() != reflect.Map {
		return reflect.ValueOf(dict), nil
	}

	if typ.Key().Kind() != reflect.String {
		return reflect.Value{}, fmt.Errorf("can map dictionary only into the map with string key, field %s", name)
	}
	if len(t.value) == 0 {
		panic(fmt.Sprintf("dict of field '%s' is mapped to map, but value tags are not set", name))
	}

	valueType := mapValueType(typ, t.value)
	mapped := reflect.MakeMapWithSize(typ, dict.Size())

	for _, kv := range dict.LoadAll() {
		key, err := kv.Key.LoadBigUInt(t.keySz)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("failed to load dict key for %s: %w", name, err)
		}

		v := reflect.New(valueType)
		if err = loadFromCell(v.Interface(), kv.Value, loadOptions{skipProofBranches: opts.skipProofBranches}); err != nil {
			return reflect.Value{}, fmt.Errorf("failed to parse dict value for %s: %w", name, err)
		}

		mapped.SetMapIndex(reflect.ValueOf(key.String()).Convert(typ.Key()), v.Elem().Field(0))
	}

	return mapped, nil
}

func pickRegistered(types []string, loader *cell.Slice) (reflect.Type, error) {
	for _, typ := range types {
		t, ok := lookupRegistered(typ)
		if !ok {
			panic("unregistered type " + typ)
		}

		if checkMagic(t.Field(0).Tag.Get("tlb"), loader.Copy()) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("unexpected data to load, unknown magic")
}

func structLoad(field reflect.Type, loader *cell.Slice, opts loadOptions) (reflect.Value, error) {
	if cellType == field {
		c, err := loader.ToCell()
		if err != nil {
			return reflect.Value{}, fmt.Errorf("failed to convert slice to cell: %w", err)
		}
		return reflect.ValueOf(c), nil
	}

	newTyp := field
	if newTyp.Kind() == reflect.Pointer {
		newTyp = newTyp.Elem()
	}

	nVal := reflect.New(newTyp)

	err := loadFromCell(nVal.Interface(), loader, loadOptions{skipProofBranches: opts.skipProofBranches})
	if err != nil {
		return reflect.Value{}, fmt.Errorf("failed to load from cell for %s, err: %w", field.Name(), err)
	}

	if field.Kind() != reflect.Pointer {
		nVal = nVal.Elem()
	}

	return nVal, nil
}

// setField assigns loaded value converting it to field type, pointers are created or dereferenced when needed.
func setField(field reflect.Value, val reflect.Value) {
	ft := field.Type()

	if ft.Kind() == reflect.Pointer && val.Kind() != reflect.Pointer {
		nw := reflect.New(ft.Elem())
		nw.Elem().Set(val.Convert(ft.Elem()))
		field.Set(nw)
		return
	}

	if ft.Kind() != reflect.Pointer && ft.Kind() != reflect.Interface && val.Kind() == reflect.Pointer {
		val = val.Elem()
	}

	if val.Type() == ft {
		field.Set(val)
		return
	}
	field.Set(val.Convert(ft))
}
