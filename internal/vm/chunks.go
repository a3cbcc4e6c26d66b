package vm

import (
	"lingoplayer/internal/datum"
	"lingoplayer/internal/playererr"
	"lingoplayer/internal/script"
)

// chunkPosition mirrors the before/after/into selector packed into
// put/putChunk's variant argument (§4.1 "variant byte selects
// before/after/into").
const (
	chunkInto = iota
	chunkBefore
	chunkAfter
)

// opGetChunk implements getChunk: pop a chunk reference (pushed by
// pushChunkVarRef) and push the substring it addresses.
func (v *VM) opGetChunk(f *CallFrame, ins script.Instruction) *playererr.RuntimeError {
	top, ok := f.pop()
	if !ok {
		return underflow()
	}
	ref, ok := asVarRef(top)
	if !ok || !ref.HasChunk {
		return playererr.New(playererr.TypeMismatch, "getChunk expected a chunk reference")
	}
	f.push(datum.Str(ref.Chunk.Extract(v.itemDelimiter())))
	return nil
}

// opPut implements put (§4.1): pop the value, pop the target variable
// reference, and either replace it (into) or concatenate (before/
// after) its current string value, then write the result back.
func (v *VM) opPut(f *CallFrame, ins script.Instruction) *playererr.RuntimeError {
	val, ok := f.pop()
	if !ok {
		return underflow()
	}
	top, ok := f.pop()
	if !ok {
		return underflow()
	}
	ref, ok := asVarRef(top)
	if !ok {
		return playererr.New(playererr.TypeMismatch, "put expected a variable reference")
	}

	position := int(ins.Arg) & 0x3
	var result datum.Datum
	switch position {
	case chunkBefore:
		result = datum.Str(val.AsString() + v.readVarRef(f, ref).AsString())
	case chunkAfter:
		result = datum.Str(v.readVarRef(f, ref).AsString() + val.AsString())
	default: // chunkInto
		result = val
	}
	return v.writeVarRef(f, ref, result)
}

// opPutChunk implements putChunk: pop the replacement value, pop the
// target chunk reference, and splice it into the reference's source
// string per the into/before/after selector, writing the whole string
// back to the underlying variable.
func (v *VM) opPutChunk(f *CallFrame, ins script.Instruction) *playererr.RuntimeError {
	val, ok := f.pop()
	if !ok {
		return underflow()
	}
	top, ok := f.pop()
	if !ok {
		return underflow()
	}
	ref, ok := asVarRef(top)
	if !ok || !ref.HasChunk {
		return playererr.New(playererr.TypeMismatch, "putChunk expected a chunk reference")
	}

	delim := v.itemDelimiter()
	var whole string
	switch int(ins.Arg) & 0x3 {
	case chunkBefore:
		whole = ref.Chunk.WithReplacement(val.AsString()+ref.Chunk.Extract(delim), delim)
	case chunkAfter:
		whole = ref.Chunk.WithReplacement(ref.Chunk.Extract(delim)+val.AsString(), delim)
	default: // chunkInto
		whole = ref.Chunk.WithReplacement(val.AsString(), delim)
	}
	return v.writeVarRef(f, datum.VarRef{Class: ref.Class, Index: ref.Index}, datum.Str(whole))
}

// opDeleteChunk implements deleteChunk: pop a chunk reference and
// write the underlying variable back with that range removed.
func (v *VM) opDeleteChunk(f *CallFrame) *playererr.RuntimeError {
	top, ok := f.pop()
	if !ok {
		return underflow()
	}
	ref, ok := asVarRef(top)
	if !ok || !ref.HasChunk {
		return playererr.New(playererr.TypeMismatch, "deleteChunk expected a chunk reference")
	}
	whole := ref.Chunk.WithDeletion(v.itemDelimiter())
	return v.writeVarRef(f, datum.VarRef{Class: ref.Class, Index: ref.Index}, datum.Str(whole))
}

// opGet implements get: pop a variable reference and push its current
// value (the indirect counterpart of getGlobal/getProp/etc).
func (v *VM) opGet(f *CallFrame, ins script.Instruction) *playererr.RuntimeError {
	top, ok := f.pop()
	if !ok {
		return underflow()
	}
	ref, ok := asVarRef(top)
	if !ok {
		return playererr.New(playererr.TypeMismatch, "get expected a variable reference")
	}
	f.push(v.readVarRef(f, ref))
	return nil
}

// opSet implements set: pop the value then the variable reference, and
// write the value directly (no before/after splicing).
func (v *VM) opSet(f *CallFrame, ins script.Instruction) *playererr.RuntimeError {
	val, ok := f.pop()
	if !ok {
		return underflow()
	}
	top, ok := f.pop()
	if !ok {
		return underflow()
	}
	ref, ok := asVarRef(top)
	if !ok {
		return playererr.New(playererr.TypeMismatch, "set expected a variable reference")
	}
	return v.writeVarRef(f, ref, val)
}
