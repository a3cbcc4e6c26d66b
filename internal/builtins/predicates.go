package builtins

import (
	"lingoplayer/internal/datum"
	"lingoplayer/internal/vm"
)

// RegisterPredicates installs `ilk` and the family of type predicates
// (§4.2 "ilk, integerP, ...").
func RegisterPredicates(v *vm.VM) {
	v.RegisterBuiltin("ilk", func(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
		return datum.Symbol(datum.TypeName(arg(args, 0))), nil
	})
	v.RegisterBuiltin("integerP", kindPredicate(datum.KindInt))
	v.RegisterBuiltin("floatP", kindPredicate(datum.KindFloat))
	v.RegisterBuiltin("stringP", kindPredicate(datum.KindString))
	v.RegisterBuiltin("symbolP", kindPredicate(datum.KindSymbol))
	v.RegisterBuiltin("listP", kindPredicate(datum.KindList))
	v.RegisterBuiltin("propListP", kindPredicate(datum.KindPropList))
	v.RegisterBuiltin("objectP", func(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
		k := arg(args, 0).Kind
		return datum.Bool(k == datum.KindScriptInstance || k == datum.KindList || k == datum.KindPropList), nil
	})
	v.RegisterBuiltin("voidP", kindPredicate(datum.KindVoid))
}

func kindPredicate(k datum.Kind) vm.BuiltinFunc {
	return func(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
		return datum.Bool(arg(args, 0).Kind == k), nil
	}
}
