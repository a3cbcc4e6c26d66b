package builtins

import (
	"fmt"
	"math"

	"lingoplayer/internal/datum"
	"lingoplayer/internal/vm"
)

// RegisterMath installs the numeric builtins (§4.2 "math").
func RegisterMath(v *vm.VM) {
	v.RegisterBuiltin("abs", mathAbs)
	v.RegisterBuiltin("sqrt", mathSqrt)
	v.RegisterBuiltin("power", mathPower)
	v.RegisterBuiltin("integer", mathInteger)
	v.RegisterBuiltin("float", mathFloat)
	v.RegisterBuiltin("sin", math1(math.Sin))
	v.RegisterBuiltin("cos", math1(math.Cos))
	v.RegisterBuiltin("tan", math1(math.Tan))
	v.RegisterBuiltin("atan", math1(math.Atan))
	v.RegisterBuiltin("exp", math1(math.Exp))
	v.RegisterBuiltin("log", math1(math.Log))
	v.RegisterBuiltin("min", mathMin)
	v.RegisterBuiltin("max", mathMax)
}

func arg(args []datum.Datum, i int) datum.Datum {
	if i < len(args) {
		return args[i]
	}
	return datum.Void
}

func mathAbs(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	a := arg(args, 0)
	if a.Kind == datum.KindFloat {
		return datum.Float(math.Abs(a.Float)), nil
	}
	n := a.AsInt()
	if n < 0 {
		n = -n
	}
	return datum.Int(n), nil
}

func mathSqrt(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	n := arg(args, 0).AsFloat()
	if n < 0 {
		return datum.Void, fmt.Errorf("sqrt of negative number")
	}
	return datum.Float(math.Sqrt(n)), nil
}

func mathPower(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	return datum.Float(math.Pow(arg(args, 0).AsFloat(), arg(args, 1).AsFloat())), nil
}

func mathInteger(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	return datum.Int(int(math.Round(arg(args, 0).AsFloat()))), nil
}

func mathFloat(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	return datum.Float(arg(args, 0).AsFloat()), nil
}

func math1(fn func(float64) float64) vm.BuiltinFunc {
	return func(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
		return datum.Float(fn(arg(args, 0).AsFloat())), nil
	}
}

func mathMin(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	if len(args) == 0 {
		return datum.Void, fmt.Errorf("min requires at least one argument")
	}
	best := args[0]
	for _, a := range args[1:] {
		if datum.Compare(a, best) < 0 {
			best = a
		}
	}
	return best, nil
}

func mathMax(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	if len(args) == 0 {
		return datum.Void, fmt.Errorf("max requires at least one argument")
	}
	best := args[0]
	for _, a := range args[1:] {
		if datum.Compare(a, best) > 0 {
			best = a
		}
	}
	return best, nil
}
