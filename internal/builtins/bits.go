package builtins

import "lingoplayer/internal/datum"
import "lingoplayer/internal/vm"

// RegisterBits installs the bitwise operators (§4.2 "bit ops").
func RegisterBits(v *vm.VM) {
	v.RegisterBuiltin("bitAnd", bits2(func(a, b int) int { return a & b }))
	v.RegisterBuiltin("bitOr", bits2(func(a, b int) int { return a | b }))
	v.RegisterBuiltin("bitXor", bits2(func(a, b int) int { return a ^ b }))
	v.RegisterBuiltin("bitNot", func(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
		return datum.Int(^arg(args, 0).AsInt()), nil
	})
	v.RegisterBuiltin("shiftLeft", bits2(func(a, b int) int { return a << uint(b) }))
	v.RegisterBuiltin("shiftRight", bits2(func(a, b int) int { return a >> uint(b) }))
}

func bits2(op func(a, b int) int) vm.BuiltinFunc {
	return func(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
		return datum.Int(op(arg(args, 0).AsInt(), arg(args, 1).AsInt())), nil
	}
}
