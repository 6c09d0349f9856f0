package tlb

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/tonkit/cellkit/tvm/cell"
)

var (
	magicType  = reflect.TypeOf(Magic{})
	cellType   = reflect.TypeOf(&cell.Cell{})
	bigIntType = reflect.TypeOf(&big.Int{})
)

// splitTag returns tlb tag settings of field, nil when field is not mapped.
func splitTag(f reflect.StructField) []string {
	tag := strings.TrimSpace(f.Tag.Get("tlb"))
	if tag == "" || tag == "-" {
		return nil
	}
	return strings.Fields(tag)
}

func head(settings []string) string {
	if len(settings) == 0 {
		return ""
	}
	return settings[0]
}

// tag errors are programmer's mistakes, so they panic
func parseSize(settings []string, idx int, field string) uint {
	if len(settings) <= idx {
		panic(fmt.Sprintf("size is missing in tag of field '%s'", field))
	}

	n, err := strconv.ParseUint(settings[idx], 10, 16)
	if err != nil {
		panic(fmt.Sprintf("corrupted size '%s' in tag of field '%s'", settings[idx], field))
	}
	return uint(n)
}

// parseMagic decodes #HEX or $BIN magic tag into value and its length in bits.
func parseMagic(tag string) (uint64, uint) {
	var base int
	var sz uint
	switch {
	case strings.HasPrefix(tag, "#"):
		base, sz = 16, uint(len(tag)-1)*4
	case strings.HasPrefix(tag, "$"):
		base, sz = 2, uint(len(tag)-1)
	default:
		panic("unknown magic value type in tag: " + tag)
	}

	if sz > 64 {
		panic("too big magic value in tag: " + tag)
	}

	magic, err := strconv.ParseUint(tag[1:], base, 64)
	if err != nil {
		panic("corrupted magic value in tag: " + tag)
	}
	return magic, sz
}

func checkMagic(tag string, loader *cell.Slice) bool {
	magic, sz := parseMagic(tag)

	v, err := loader.LoadUInt(sz)
	if err != nil {
		return false
	}
	return v == magic
}

type dictTag struct {
	inline bool
	keySz  uint
	// tags of map values, after ->
	value []string
}

// parseDictTag parses settings following 'dict': [inline] N [-> value tags]
func parseDictTag(settings []string, field string) dictTag {
	var t dictTag
	if head(settings) == "inline" {
		t.inline = true
		settings = settings[1:]
	}

	t.keySz = parseSize(settings, 0, field)
	settings = settings[1:]

	if len(settings) > 0 {
		if settings[0] != "->" || len(settings) == 1 {
			panic(fmt.Sprintf("dict value tags of field '%s' should follow '->'", field))
		}
		t.value = settings[1:]
	}
	return t
}

// allowedTypes parses [A,B,C] list of registered type names.
func allowedTypes(settings []string, field string) []string {
	allowed := strings.Join(settings, "")
	if !strings.HasPrefix(allowed, "[") || !strings.HasSuffix(allowed, "]") {
		panic(fmt.Sprintf("corrupted allowed list tag of field '%s', should be [a,b,c], got %s", field, allowed))
	}
	return strings.Split(allowed[1:len(allowed)-1], ",")
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return true
	}
	return false
}

// mapValueType is a single field wrapper used to parse and serialize dictionary values of maps.
func mapValueType(mapType reflect.Type, tags []string) reflect.Type {
	return reflect.StructOf([]reflect.StructField{{
		Name: "Value",
		Type: mapType.Elem(),
		Tag:  reflect.StructTag(fmt.Sprintf("tlb:%q", strings.Join(tags, " "))),
	}})
}
