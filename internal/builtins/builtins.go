// Package builtins supplies the default entries of the VM's builtin
// registry (§4.2): math, string-chunk helpers, list/prop-list
// constructors, point/rect geometry, bit ops, type predicates, literal
// parsing, reference constructors, and score-navigation builtins that
// call back through vm.PlayerController.
package builtins

import "lingoplayer/internal/vm"

// RegisterAll installs every default builtin into v. Host code may
// call v.RegisterBuiltin afterward to override any of them (§4.2
// "last registration wins").
func RegisterAll(v *vm.VM) {
	RegisterMath(v)
	RegisterStrings(v)
	RegisterLists(v)
	RegisterGeometry(v)
	RegisterBits(v)
	RegisterPredicates(v)
	RegisterValue(v)
	RegisterRefs(v)
	RegisterNavigation(v)
	RegisterXtraBuiltins(v)
}
