package builtins

import "lingoplayer/internal/datum"
import "lingoplayer/internal/vm"

// RegisterGeometry installs point()/rect() constructors and the
// inside/intersect/union predicates (§4.2).
func RegisterGeometry(v *vm.VM) {
	v.RegisterBuiltin("point", pointCtor)
	v.RegisterBuiltin("rect", rectCtor)
	v.RegisterBuiltin("inside", rectInside)
	v.RegisterBuiltin("intersect", rectIntersect)
	v.RegisterBuiltin("union", rectUnion)
}

func pointCtor(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	return datum.PointOf(arg(args, 0).AsFloat(), arg(args, 1).AsFloat()), nil
}

func rectCtor(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	return datum.RectOf(arg(args, 0).AsFloat(), arg(args, 1).AsFloat(), arg(args, 2).AsFloat(), arg(args, 3).AsFloat()), nil
}

// rectInside reports whether a point lies within a rect's bounds
// (left/top inclusive, right/bottom exclusive, matching QuickDraw
// rect semantics Director inherited).
func rectInside(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	p := arg(args, 0).Point
	r := arg(args, 1).Rect
	in := p.X >= r.L && p.X < r.R && p.Y >= r.T && p.Y < r.B
	return datum.Bool(in), nil
}

func rectIntersect(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	a := arg(args, 0).Rect
	b := arg(args, 1).Rect
	l, t := max(a.L, b.L), max(a.T, b.T)
	r, bo := min(a.R, b.R), min(a.B, b.B)
	if r < l || bo < t {
		return datum.RectOf(0, 0, 0, 0), nil
	}
	return datum.RectOf(l, t, r, bo), nil
}

func rectUnion(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	a := arg(args, 0).Rect
	b := arg(args, 1).Rect
	return datum.RectOf(min(a.L, b.L), min(a.T, b.T), max(a.R, b.R), max(a.B, b.B)), nil
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
