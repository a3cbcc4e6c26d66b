package vm

import (
	"lingoplayer/internal/datum"
	"lingoplayer/internal/playererr"
	"lingoplayer/internal/script"
)

// argsFromTOS pops the single arg-list Datum a call opcode expects and
// returns its items plus whether the caller wants a return value
// (arg-list vs arg-list-no-ret, §4.1 calling convention).
func (v *VM) argsFromTOS(f *CallFrame) ([]datum.Datum, bool, *playererr.RuntimeError) {
	top, ok := f.pop()
	if !ok {
		return nil, false, underflow()
	}
	if top.Kind != datum.KindArgList && top.Kind != datum.KindArgListNoRet {
		return nil, false, playererr.New(playererr.TypeMismatch, "call opcode expected an arg-list, got %s", datum.TypeName(top))
	}
	list := v.Arena.List(top)
	items := make([]datum.Datum, len(list.Items))
	copy(items, list.Items)
	return items, top.Kind == datum.KindArgList, nil
}

// localCall invokes handler index handlerIdx of the current frame's
// own script (§4.1).
func (v *VM) localCall(f *CallFrame, handlerIdx int) *playererr.RuntimeError {
	args, wantRet, err := v.argsFromTOS(f)
	if err != nil {
		return err
	}
	if handlerIdx < 0 || handlerIdx >= len(f.Script.Handlers) {
		return playererr.New(playererr.UndefinedHandler, "handler index %d out of range", handlerIdx)
	}
	h := &f.Script.Handlers[handlerIdx]
	result, rerr := v.Execute(f.Lib, f.Script, h, args, f.Receiver)
	if rerr != nil {
		if re, ok := rerr.(*playererr.RuntimeError); ok {
			return re
		}
		return playererr.New(playererr.UndefinedHandler, "%v", rerr)
	}
	if wantRet {
		f.push(result)
	}
	return nil
}

// resolveExtCall implements the dispatch cascade (§4.1, §9 decision):
// instance's own script + ancestor chain, then loaded movie scripts in
// load order (first match wins); extCall falls back to the builtin
// registry when this finds nothing.
func (v *VM) resolveExtCall(f *CallFrame, name string) (lib int, s *script.Script, h *script.Handler, receiver datum.Datum, found bool) {
	receiver = f.Receiver
	if receiver.Kind == datum.KindScriptInstance {
		inst := v.Arena.Instance(receiver)
		cur := inst
		for depth := 0; depth < 100 && cur != nil; depth++ {
			sc := v.scriptForInstance(cur)
			if sc != nil {
				if idx, ok := sc.HandlerByName(name); ok {
					return cur.ScriptLib, sc, &sc.Handlers[idx], receiver, true
				}
			}
			if cur.Ancestor == 0 {
				break
			}
			cur = v.Arena.Instance(datum.Datum{Kind: datum.KindScriptInstance, Handle: cur.Ancestor})
		}
	}

	// Other loaded scripts, in library then declaration order (§9
	// decision: load order, first match wins).
	n := v.Registry.Count()
	for libNum := 1; libNum <= n; libNum++ {
		lib := v.Registry.GetCast(libNum)
		if lib == nil {
			continue
		}
		for _, sc := range lib.Scripts() { // load order (§9 decision)
			if sc.Type != script.Movie {
				continue
			}
			if idx, ok := sc.HandlerByName(name); ok {
				return libNum, sc, &sc.Handlers[idx], datum.Void, true
			}
		}
	}
	return 0, nil, nil, datum.Void, false
}

// scriptForInstance resolves the Script a script-instance was
// instantiated from.
func (v *VM) scriptForInstance(inst *datum.Instance) *script.Script {
	return v.Registry.GetScript(inst.ScriptLib, inst.ScriptNum)
}

// extCall dispatches by name (§4.1). tell redirects the call against
// the active tellTarget instead of the frame's own receiver, for the
// duration of a startTell/endTell block.
func (v *VM) extCall(f *CallFrame, nameIdx int, tell bool) *playererr.RuntimeError {
	name := v.Name(f.Script, nameIdx)
	args, wantRet, err := v.argsFromTOS(f)
	if err != nil {
		return err
	}

	callFrame := f
	if tell && f.tellActive {
		callFrame = &CallFrame{Receiver: f.tellTarget, Script: f.Script, Lib: f.Lib}
	}

	lib, sc, h, receiver, found := v.resolveExtCall(callFrame, name)
	if found {
		result, rerr := v.Execute(lib, sc, h, args, receiver)
		if rerr != nil {
			if re, ok := rerr.(*playererr.RuntimeError); ok {
				return re
			}
			return playererr.New(playererr.UndefinedHandler, "%v", rerr)
		}
		if wantRet {
			f.push(result)
		}
		return nil
	}

	fn, ok := v.lookupBuiltin(name)
	if !ok {
		return playererr.New(playererr.UndefinedHandler, "undefined handler %q", name)
	}
	result, berr := fn(v, args)
	if berr != nil {
		return playererr.New(playererr.UndefinedHandler, "%v", berr)
	}
	if wantRet {
		f.push(result)
	}
	return nil
}

// objCall dispatches a method call against the TOS object: the
// container method table for lists/prop-lists (§4.3), or extCall
// semantics against a script-instance's own script + ancestor chain.
func (v *VM) objCall(f *CallFrame, nameIdx int) *playererr.RuntimeError {
	name := v.Name(f.Script, nameIdx)
	args, wantRet, err := v.argsFromTOS(f)
	if err != nil {
		return err
	}
	obj, ok := f.pop()
	if !ok {
		return underflow()
	}

	switch obj.Kind {
	case datum.KindList:
		result, ok := v.listMethod(obj, name, args)
		if !ok {
			return playererr.New(playererr.UndefinedHandler, "undefined list method %q", name)
		}
		if wantRet {
			f.push(result)
		}
		return nil
	case datum.KindPropList:
		result, ok := v.propListMethod(obj, name, args)
		if !ok {
			return playererr.New(playererr.UndefinedHandler, "undefined propList method %q", name)
		}
		if wantRet {
			f.push(result)
		}
		return nil
	case datum.KindScriptInstance:
		result, ok, err := v.instanceMethod(obj, name, args)
		if err != nil {
			return err
		}
		if ok {
			if wantRet {
				f.push(result)
			}
			return nil
		}
		// Fall through to handler dispatch on the instance's own
		// script + ancestor chain (§4.3 "any other name dispatches as
		// a handler").
		inst := v.Arena.Instance(obj)
		cur := inst
		for depth := 0; depth < 100 && cur != nil; depth++ {
			sc := v.scriptForInstance(cur)
			if sc != nil {
				if idx, ok := sc.HandlerByName(name); ok {
					h := &sc.Handlers[idx]
					res, rerr := v.Execute(cur.ScriptLib, sc, h, args, obj)
					if rerr != nil {
						if re, ok := rerr.(*playererr.RuntimeError); ok {
							return re
						}
						return playererr.New(playererr.UndefinedHandler, "%v", rerr)
					}
					if wantRet {
						f.push(res)
					}
					return nil
				}
			}
			if cur.Ancestor == 0 {
				break
			}
			cur = v.Arena.Instance(datum.Datum{Kind: datum.KindScriptInstance, Handle: cur.Ancestor})
		}
		return playererr.New(playererr.UndefinedHandler, "undefined handler %q on instance", name)
	default:
		return playererr.New(playererr.TypeMismatch, "objCall on non-object value %s", datum.TypeName(obj))
	}
}

// newObj instantiates a parent script by name, per §4.1: looks up a
// parent script by name in the current library (falling back to any
// loaded library), allocates a script-instance, and invokes its `new`
// handler if present with the call's argument list.
func (v *VM) newObj(f *CallFrame, nameIdx int) *playererr.RuntimeError {
	name := v.Name(f.Script, nameIdx)
	args, wantRet, err := v.argsFromTOS(f)
	if err != nil {
		return err
	}

	libNum, scriptID, sc, ok := v.findParentScript(f.Lib, name)
	if !ok {
		return playererr.New(playererr.UndefinedName, "undefined parent script %q", name)
	}
	inst := v.Arena.NewInstance(libNum, scriptID)

	if idx, ok := sc.HandlerByName("new"); ok {
		h := &sc.Handlers[idx]
		result, rerr := v.Execute(libNum, sc, h, args, inst)
		if rerr == nil && result.Kind != datum.KindVoid {
			inst = result
		}
	}

	if wantRet {
		f.push(inst)
	}
	return nil
}

func (v *VM) findParentScript(preferLib int, name string) (lib, scriptID int, sc *script.Script, ok bool) {
	if l := v.Registry.GetCast(preferLib); l != nil {
		if id, found := l.ScriptIDByName(name); found {
			return preferLib, id, l.GetScript(id), true
		}
	}
	n := v.Registry.Count()
	for libNum := 1; libNum <= n; libNum++ {
		l := v.Registry.GetCast(libNum)
		if l == nil {
			continue
		}
		if id, found := l.ScriptIDByName(name); found {
			return libNum, id, l.GetScript(id), true
		}
	}
	return 0, 0, nil, false
}
