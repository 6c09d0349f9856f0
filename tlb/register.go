package tlb

import (
	"reflect"
	"strings"
	"sync"
)

var (
	registered   = map[string]reflect.Type{}
	registeredMx sync.RWMutex
)

func register(name string, t reflect.Type) {
	if t.Kind() != reflect.Struct || t.NumField() == 0 {
		panic("registered type should be a struct starting with magic")
	}

	magic := t.Field(0)
	if magic.Type != magicType {
		panic("first field is not magic")
	}

	tag := magic.Tag.Get("tlb")
	if !strings.HasPrefix(tag, "#") && !strings.HasPrefix(tag, "$") {
		panic("invalid magic tag")
	}

	registeredMx.Lock()
	registered[name] = t
	registeredMx.Unlock()
}

func lookupRegistered(name string) (reflect.Type, bool) {
	registeredMx.RLock()
	defer registeredMx.RUnlock()

	t, ok := registered[name]
	return t, ok
}

// RegisterWithName makes type available for interface fields under the given name.
func RegisterWithName(name string, typ any) {
	register(name, reflect.TypeOf(typ))
}

// Register makes type available for interface fields tagged like [TypeName,...].
func Register(typ any) {
	t := reflect.TypeOf(typ)
	register(t.Name(), t)
}
