package builtins

import (
	"lingoplayer/internal/datum"
	"lingoplayer/internal/vm"
)

// RegisterLists installs the list/prop-list constructors (§4.2); the
// element-manipulation methods themselves live in the objCall
// container method table (§4.3), not the builtin registry.
func RegisterLists(v *vm.VM) {
	v.RegisterBuiltin("list", listCtor)
	v.RegisterBuiltin("propList", propListCtor)
}

func listCtor(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	items := make([]datum.Datum, len(args))
	copy(items, args)
	return v.Arena.NewList(items), nil
}

// propListCtor pairs consecutive arguments as key/value (§3's
// prop-list literal shape: `[#a: 1, #b: 2]` lowers to key,value,...).
func propListCtor(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	n := len(args) / 2
	keys := make([]datum.Datum, n)
	vals := make([]datum.Datum, n)
	for i := 0; i < n; i++ {
		keys[i] = args[i*2]
		vals[i] = args[i*2+1]
	}
	return v.Arena.NewPropList(keys, vals), nil
}
