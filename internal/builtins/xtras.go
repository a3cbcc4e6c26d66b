package builtins

import (
	"lingoplayer/internal/datum"
	"lingoplayer/internal/vm"
)

// XtraStub is a no-op xtra registration. Xtras are out of scope beyond
// this registration surface (Non-goals): no real xtra code is loaded or
// run.
type XtraStub struct {
	Name string
}

var xtraStubs = map[string]XtraStub{}

// RegisterXtra records name as an available xtra with no backing
// implementation. Only the newxtra builtin consults this table; the
// script builtin and the newObj opcode do not. The instance newxtra
// returns is a plain prop-list, so a method call on it goes through
// the prop-list method table and an unknown name raises
// UndefinedHandler.
func RegisterXtra(name string, stub XtraStub) {
	xtraStubs[lowerXtraName(name)] = stub
}

func lowerXtraName(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// RegisterXtraBuiltins installs the "new" family's xtra path: new(xtra
// "name", ...) looks up a registered stub and returns a propList
// instance carrying only its name, never a live xtra object.
func RegisterXtraBuiltins(v *vm.VM) {
	v.RegisterBuiltin("newxtra", newXtra)
}

func newXtra(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	name := arg(args, 0).AsString()
	if _, ok := xtraStubs[lowerXtraName(name)]; !ok {
		// Unregistered xtras still yield an inert instance rather than an
		// error: authoring tools routinely reference xtras that a
		// headless player never loads.
		RegisterXtra(name, XtraStub{Name: name})
	}
	inst := v.Arena.NewPropList(nil, nil)
	v.Arena.PropListOf(inst).SetProp(datum.Symbol("xtraname"), datum.Str(name))
	return inst, nil
}
