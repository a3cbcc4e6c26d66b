package vm

import (
	"lingoplayer/internal/datum"
	"lingoplayer/internal/playererr"
)

// listMethod dispatches objCall against a list value per §4.3's
// container method table.
func (v *VM) listMethod(obj datum.Datum, name string, args []datum.Datum) (datum.Datum, bool) {
	l := v.Arena.List(obj)
	arg := func(i int) datum.Datum {
		if i < len(args) {
			return args[i]
		}
		return datum.Void
	}
	switch lowerName(name) {
	case "count":
		return datum.Int(len(l.Items)), true
	case "getat":
		return l.GetAt(arg(0).AsInt()), true
	case "setat":
		l.SetAt(arg(0).AsInt(), arg(1))
		return datum.Void, true
	case "append", "add":
		l.Append(arg(0))
		return datum.Void, true
	case "addat":
		l.AddAt(arg(0).AsInt(), arg(1))
		return datum.Void, true
	case "deleteat":
		l.DeleteAt(arg(0).AsInt())
		return datum.Void, true
	case "deleteone":
		l.DeleteOne(arg(0))
		return datum.Void, true
	case "getone", "findpos":
		return datum.Int(l.FindPos(arg(0))), true
	case "getlast":
		return l.GetLast(), true
	case "join":
		return datum.Str(l.Join(arg(0).AsString())), true
	case "sort":
		l.Sort()
		return datum.Void, true
	case "duplicate":
		return v.Arena.DuplicateList(obj), true
	default:
		return datum.Void, false
	}
}

// propListMethod dispatches objCall against a prop-list value.
func (v *VM) propListMethod(obj datum.Datum, name string, args []datum.Datum) (datum.Datum, bool) {
	p := v.Arena.PropListOf(obj)
	arg := func(i int) datum.Datum {
		if i < len(args) {
			return args[i]
		}
		return datum.Void
	}
	switch lowerName(name) {
	case "count":
		return datum.Int(p.Count()), true
	case "getat":
		return p.GetAt(arg(0)), true
	case "getprop", "getaprop":
		return p.GetProp(arg(0)), true
	case "setprop", "setaprop", "addprop":
		p.SetProp(arg(0), arg(1))
		return datum.Void, true
	case "deleteprop":
		p.DeleteProp(arg(0))
		return datum.Void, true
	case "getpropat":
		return p.GetPropAt(arg(0).AsInt()), true
	case "setat":
		p.SetAt(arg(0), arg(1))
		return datum.Void, true
	case "findpos":
		return datum.Int(p.FindPos(arg(0))), true
	case "duplicate":
		return v.Arena.DuplicatePropList(obj), true
	default:
		return datum.Void, false
	}
}

// instanceMethod dispatches objCall against a script-instance for the
// property/collection-like methods §4.3 lists before falling back to
// handler dispatch (getAt/getProp/getAProp walk the ancestor chain up
// to the depth bound).
func (v *VM) instanceMethod(obj datum.Datum, name string, args []datum.Datum) (datum.Datum, bool, *playererr.RuntimeError) {
	inst := v.Arena.Instance(obj)
	arg := func(i int) datum.Datum {
		if i < len(args) {
			return args[i]
		}
		return datum.Void
	}
	switch lowerName(name) {
	case "getat", "getprop", "getaprop":
		return v.Arena.GetPropChained(inst, arg(0)), true, nil
	case "setat", "setaprop":
		v.Arena.SetPropChained(inst, arg(0), arg(1))
		return datum.Void, true, nil
	case "addprop":
		inst.Props.AddProp(arg(0), arg(1))
		return datum.Void, true, nil
	case "deleteprop":
		inst.Props.DeleteProp(arg(0))
		return datum.Void, true, nil
	case "count":
		return datum.Int(inst.Props.Count()), true, nil
	case "ilk":
		return datum.Symbol("instance"), true, nil
	default:
		return datum.Void, false, nil
	}
}
