package vm

import (
	"lingoplayer/internal/datum"
	"lingoplayer/internal/playererr"
)

// pushLiteral resolves a literal-pool index against the current
// frame's script literal pool (push-literal / pushCons opcode).
func (v *VM) pushLiteral(f *CallFrame, idx int) (datum.Datum, *playererr.RuntimeError) {
	if idx < 0 || idx >= len(f.Script.Literals) {
		return datum.Void, playererr.New(playererr.IndexOutOfBounds, "literal index %d out of range", idx)
	}
	lit := f.Script.Literals[idx]
	switch lit.Kind {
	case 0: // LitString
		return datum.Str(lit.Str), nil
	case 1: // LitInt
		return datum.Int(lit.Int), nil
	case 2: // LitFloat
		return datum.Float(lit.Float), nil
	case 3: // LitSymbol
		return datum.Symbol(lit.Str), nil
	default:
		return datum.Str(string(lit.Bytes)), nil
	}
}

// getGlobal/setGlobal resolve by name-table index, per-movie storage
// (§9 "Globals and movie-wide state: hold per-movie").
func (v *VM) getGlobal(f *CallFrame, nameIdx int) datum.Datum {
	name := v.Name(f.Script, nameIdx)
	if d, ok := v.Globals[lowerName(name)]; ok {
		return d
	}
	return datum.Void
}

func (v *VM) setGlobal(f *CallFrame, nameIdx int, val datum.Datum) {
	name := v.Name(f.Script, nameIdx)
	v.Globals[lowerName(name)] = val
}

// getProp/setProp operate on the receiver's property map (script
// property on the current instance), walking no chain themselves —
// that's getChainedProp's job.
func (v *VM) getProp(f *CallFrame, nameIdx int) (datum.Datum, *playererr.RuntimeError) {
	if f.Receiver.Kind != datum.KindScriptInstance {
		return datum.Void, nil
	}
	name := v.Name(f.Script, nameIdx)
	inst := v.Arena.Instance(f.Receiver)
	return inst.Props.GetProp(datum.Symbol(name)), nil
}

func (v *VM) setProp(f *CallFrame, nameIdx int, val datum.Datum) *playererr.RuntimeError {
	if f.Receiver.Kind != datum.KindScriptInstance {
		return playererr.New(playererr.TypeMismatch, "setProp on non-instance receiver")
	}
	name := v.Name(f.Script, nameIdx)
	inst := v.Arena.Instance(f.Receiver)
	inst.Props.SetProp(datum.Symbol(name), val)
	return nil
}

// getChainedProp walks the ancestor chain (§3, §4.3, depth bound 100).
func (v *VM) getChainedProp(f *CallFrame, nameIdx int) (datum.Datum, *playererr.RuntimeError) {
	if f.Receiver.Kind != datum.KindScriptInstance {
		return datum.Void, nil
	}
	name := v.Name(f.Script, nameIdx)
	inst := v.Arena.Instance(f.Receiver)
	return v.Arena.GetPropChained(inst, datum.Symbol(name)), nil
}

// getParam/setParam reference the argument vector by a slot index
// decoded through the version-dependent multiplier (§4.1).
func (v *VM) getParam(f *CallFrame, raw int) datum.Datum {
	idx := v.slotIndex(raw)
	if idx < 0 || idx >= len(f.Args) {
		return datum.Void
	}
	return f.Args[idx]
}

func (v *VM) setParam(f *CallFrame, raw int, val datum.Datum) {
	idx := v.slotIndex(raw)
	if idx < 0 || idx >= len(f.Args) {
		return
	}
	f.Args[idx] = val
}

func (v *VM) getLocal(f *CallFrame, raw int) datum.Datum {
	idx := v.slotIndex(raw)
	if idx < 0 || idx >= len(f.Locals) {
		return datum.Void
	}
	return f.Locals[idx]
}

func (v *VM) setLocal(f *CallFrame, raw int, val datum.Datum) {
	idx := v.slotIndex(raw)
	if idx < 0 || idx >= len(f.Locals) {
		return
	}
	f.Locals[idx] = val
}

// getObjProp/setObjProp act on the TOS value's own property/member
// storage (script-instance or prop-list), per §4.1.
func (v *VM) getObjProp(f *CallFrame, nameIdx int) (datum.Datum, *playererr.RuntimeError) {
	obj, ok := f.pop()
	if !ok {
		return datum.Void, underflow()
	}
	name := v.Name(f.Script, nameIdx)
	switch obj.Kind {
	case datum.KindScriptInstance:
		return v.Arena.GetPropChained(v.Arena.Instance(obj), datum.Symbol(name)), nil
	case datum.KindPropList:
		return v.Arena.PropListOf(obj).GetProp(datum.Symbol(name)), nil
	default:
		return datum.Void, nil
	}
}

func (v *VM) setObjProp(f *CallFrame, nameIdx int) *playererr.RuntimeError {
	val, ok1 := f.pop()
	obj, ok2 := f.pop()
	if !ok1 || !ok2 {
		return underflow()
	}
	name := v.Name(f.Script, nameIdx)
	switch obj.Kind {
	case datum.KindScriptInstance:
		v.Arena.SetPropChained(v.Arena.Instance(obj), datum.Symbol(name), val)
	case datum.KindPropList:
		v.Arena.PropListOf(obj).SetProp(datum.Symbol(name), val)
	default:
		return playererr.New(playererr.TypeMismatch, "setObjProp on non-object value")
	}
	return nil
}

// getMovieProp/setMovieProp address movie-wide "the X" properties
// (stage rect, tempo default, etc) stored on the VM itself, keyed by
// name-table index.
func (v *VM) getMovieProp(nameIdx int) datum.Datum {
	if nameIdx < 0 || nameIdx >= len(v.MovieNames) {
		return datum.Void
	}
	name := lowerName(v.MovieNames[nameIdx])
	if d, ok := v.Globals["__movieprop_"+name]; ok {
		return d
	}
	return datum.Void
}

func (v *VM) setMovieProp(nameIdx int, val datum.Datum) {
	if nameIdx < 0 || nameIdx >= len(v.MovieNames) {
		return
	}
	name := lowerName(v.MovieNames[nameIdx])
	v.Globals["__movieprop_"+name] = val
}

// theBuiltin fetches a `the X` host property by dispatching to the
// builtin registry under the name "the"+propertyName, since those
// properties are host-supplied the same way builtin functions are
// (§4.2).
func (v *VM) theBuiltin(f *CallFrame, nameIdx int) (datum.Datum, *playererr.RuntimeError) {
	name := v.Name(f.Script, nameIdx)
	fn, ok := v.lookupBuiltin("the" + name)
	if !ok {
		return datum.Void, nil
	}
	d, err := fn(v, nil)
	if err != nil {
		return datum.Void, playererr.New(playererr.UndefinedName, "%v", err)
	}
	return d, nil
}
