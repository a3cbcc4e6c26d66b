package vm

import (
	"lingoplayer/internal/datum"
	"lingoplayer/internal/playererr"
)

// Variable classes addressed by a pushed VarRef (§4.1 put/get/set).
const (
	VarGlobal = iota
	VarProp
	VarParam
	VarLocal
	VarMovieProp
)

// ItemDelimiter exposes the movie's current item delimiter to the
// builtin registry (§4.2 "per-context item delimiter").
func (v *VM) ItemDelimiter() string { return v.itemDelimiter() }

// itemDelimiter returns the movie's current item delimiter (`the
// itemDelimiter`), defaulting to "," when never set (§4.2).
func (v *VM) itemDelimiter() string {
	if d, ok := v.Globals["__movieprop_itemdelimiter"]; ok {
		if s := d.AsString(); s != "" {
			return s
		}
	}
	return ","
}

// decodeVarRefArg decodes a pushVarRef/pushChunkVarRef argument: low 3 bits
// select the variable class, the remaining bits are either a
// name-table index (global/prop/movieProp) or a raw encoded slot
// (param/local) per §4.1's variable-slot multiplier.
func (v *VM) decodeVarRefArg(raw int) (class, index int) {
	return raw & 0x7, raw >> 3
}

// readVarRef resolves the current value addressed by ref (ignoring any
// chunk range — used by get and as putChunk/deleteChunk's read side).
func (v *VM) readVarRef(f *CallFrame, ref datum.VarRef) datum.Datum {
	switch ref.Class {
	case VarGlobal:
		return v.getGlobal(f, ref.Index)
	case VarProp:
		d, _ := v.getProp(f, ref.Index)
		return d
	case VarParam:
		return v.getParam(f, ref.Index)
	case VarLocal:
		return v.getLocal(f, ref.Index)
	case VarMovieProp:
		return v.getMovieProp(ref.Index)
	default:
		return datum.Void
	}
}

// writeVarRef stores val into the slot addressed by ref.
func (v *VM) writeVarRef(f *CallFrame, ref datum.VarRef, val datum.Datum) *playererr.RuntimeError {
	switch ref.Class {
	case VarGlobal:
		v.setGlobal(f, ref.Index, val)
	case VarProp:
		return v.setProp(f, ref.Index, val)
	case VarParam:
		v.setParam(f, ref.Index, val)
	case VarLocal:
		v.setLocal(f, ref.Index, val)
	case VarMovieProp:
		v.setMovieProp(ref.Index, val)
	default:
		return playererr.New(playererr.TypeMismatch, "variable reference has unknown class %d", ref.Class)
	}
	return nil
}

// pushVarRef implements OpPushVarRef: push a reference to a plain
// variable slot.
func (v *VM) pushVarRef(f *CallFrame, raw int) {
	class, index := v.decodeVarRefArg(raw)
	f.push(datum.Datum{Kind: datum.KindVarRef, VarRef: datum.VarRef{Class: class, Index: index}})
}

// pushChunkVarRef implements OpPushChunkVarRef: the chunk kind and
// 1-based [start,end] range are expected on top of the stack (pushed
// by the preceding chunk-expression bytecode), with the variable
// itself addressed by raw the same way pushVarRef decodes it. The
// reference captures the variable's current string value as the chunk
// source so later reads/writes stay consistent within one statement.
func (v *VM) pushChunkVarRef(f *CallFrame, raw int) *playererr.RuntimeError {
	tail, err := v.popN(f, 3)
	if err != nil {
		return err
	}
	kind, start, end := tail[0].AsInt(), tail[1].AsInt(), tail[2].AsInt()

	class, index := v.decodeVarRefArg(raw)
	ref := datum.VarRef{Class: class, Index: index}
	source := v.readVarRef(f, ref).AsString()
	ref.HasChunk = true
	ref.Chunk = datum.StringChunk{Source: source, Kind: datum.ChunkKind(kind), Start: start, End: end}
	f.push(datum.Datum{Kind: datum.KindVarRef, VarRef: ref})
	return nil
}

func asVarRef(d datum.Datum) (datum.VarRef, bool) {
	if d.Kind != datum.KindVarRef {
		return datum.VarRef{}, false
	}
	return d.VarRef, true
}
