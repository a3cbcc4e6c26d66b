package vm

import (
	"math"

	"lingoplayer/internal/castlib"
	"lingoplayer/internal/datum"
	"lingoplayer/internal/playererr"
	"lingoplayer/internal/script"
)

// BuiltinFunc is a host-supplied function registered in the builtin
// registry (§4.2): it reads args, returns a Datum, and may mutate only
// host state or passed-in reference containers.
type BuiltinFunc func(v *VM, args []datum.Datum) (datum.Datum, error)

// DebugHook receives VM execution events for tracing/breakpointing
// (§6 Debug surface).
type DebugHook interface {
	OnInstruction(v *VM, f *CallFrame, ins script.Instruction) bool
	OnCall(v *VM, f *CallFrame)
	OnReturn(v *VM, f *CallFrame)
	OnError(v *VM, err error)
}

// PlayerController is the score player's side of the VM↔player
// coupling described in §1/§4.5: the VM calls back into it for
// navigation builtins (go/play/stop/puppetTempo/updateStage) without
// importing the score package directly.
type PlayerController interface {
	GoToFrame(n int)
	GoToLabel(label string) error
	Play()
	Stop()
	Pause()
	UpdateStage()
	CurrentFrame() int
	LastFrame() int
	PuppetTempo(t int)
}

// VM is the Lingo bytecode stack machine (§4.1). One VM belongs to one
// movie; globals and name tables are per-VM, never process-wide (§9).
type VM struct {
	Arena    *datum.Arena
	Registry *castlib.Registry
	Player   PlayerController

	MovieNames []string // movie-wide name table, for cross-script lookups
	Globals    map[string]datum.Datum

	builtins map[string]BuiltinFunc

	CapitalX        bool
	DirectorVersion int

	DebugHook   DebugHook
	Breakpoints *Breakpoints

	top *CallFrame
}

// New returns a VM over the given arena and cast registry.
func New(arena *datum.Arena, registry *castlib.Registry) *VM {
	return &VM{
		Arena:    arena,
		Registry: registry,
		Globals:  make(map[string]datum.Datum),
		builtins: make(map[string]BuiltinFunc),
	}
}

// RegisterBuiltin installs fn under name (case-insensitive), overriding
// any existing registration — "host builtins override defaults" (§4.2).
func (v *VM) RegisterBuiltin(name string, fn BuiltinFunc) {
	v.builtins[lowerName(name)] = fn
}

func (v *VM) lookupBuiltin(name string) (BuiltinFunc, bool) {
	fn, ok := v.builtins[lowerName(name)]
	return fn, ok
}

func lowerName(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Name resolves a name-table index to its string in the movie-wide
// table used for cross-script references (§4.1); s is not consulted,
// and an out-of-range index yields "". Per-script literal pools are
// resolved separately via pushLiteral.
func (v *VM) Name(s *script.Script, idx int) string {
	if idx < 0 || idx >= len(v.MovieNames) {
		return ""
	}
	return v.MovieNames[idx]
}

// Execute pushes a new CallFrame for (script,handler) and runs it to
// completion (RET/RET_FACTORY or instruction exhaustion), returning its
// return slot (void if never set). This is the sole entry point the
// score player and builtin dispatch use to invoke Lingo code.
func (v *VM) Execute(lib int, s *script.Script, h *script.Handler, args []datum.Datum, receiver datum.Datum) (datum.Datum, error) {
	frame := newFrame(v.top, lib, s, h, args, receiver)
	prevTop := v.top
	v.top = frame
	defer func() { v.top = prevTop }()

	if v.DebugHook != nil {
		v.DebugHook.OnCall(v, frame)
	}

	err := v.run(frame)

	if err != nil {
		if v.DebugHook != nil {
			v.DebugHook.OnError(v, err)
		}
		return datum.Void, err
	}
	if v.DebugHook != nil {
		v.DebugHook.OnReturn(v, frame)
	}
	if frame.State == Returned && len(frame.Stack) != 0 {
		// Stack discipline invariant (§8): a well-formed handler leaves
		// the operand stack empty on return. A non-empty stack here
		// indicates a malformed handler, not a VM bug; we don't fail
		// the call for it, matching the error taxonomy's "do not crash
		// the player" policy.
		frame.Stack = frame.Stack[:0]
	}
	return frame.ReturnValue, nil
}

// run drives frame's instruction stream until Returned or exhaustion.
func (v *VM) run(f *CallFrame) error {
	for f.State != Returned {
		if f.PC < 0 || f.PC >= len(f.Handler.Instructions) {
			return nil
		}
		ins := f.Handler.Instructions[f.PC]

		if v.DebugHook != nil {
			if !v.DebugHook.OnInstruction(v, f, ins) {
				f.State = Suspended
				return nil
			}
		}
		if v.Breakpoints != nil && v.Breakpoints.Hit(f.Lib, f.Script, ins.Offset) {
			f.State = Suspended
			return nil
		}

		if err := v.step(f, ins); err != nil {
			return err.WithFrame(playererr.Frame{
				Script: scriptLabel(f), Handler: handlerLabel(v, f), Offset: ins.Offset,
			})
		}
		if f.State != Returned {
			f.PC++
		}
	}
	return nil
}

func scriptLabel(f *CallFrame) string {
	switch f.Script.Type {
	case script.Movie:
		return "movie"
	case script.Behavior:
		return "behavior"
	case script.Parent:
		return "parent"
	default:
		return "score"
	}
}

func handlerLabel(v *VM, f *CallFrame) string {
	return v.Name(f.Script, f.Handler.NameID)
}

// step executes a single instruction against frame f.
func (v *VM) step(f *CallFrame, ins script.Instruction) *playererr.RuntimeError {
	switch ins.Op {
	// --- Stack ---
	case script.OpPushZero:
		f.push(datum.Int(0))
	case script.OpPushInt8, script.OpPushInt16, script.OpPushInt32:
		f.push(datum.Int(int(ins.Arg)))
	case script.OpPushFloat32:
		f.push(datum.Float(float64(math.Float32frombits(uint32(ins.Arg)))))
	case script.OpPushSymb:
		name := v.Name(f.Script, int(ins.Arg))
		f.push(datum.Symbol(name))
	case script.OpPushCons:
		d, err := v.pushLiteral(f, int(ins.Arg))
		if err != nil {
			return err
		}
		f.push(d)
	case script.OpPushList:
		n := int(ins.Arg)
		items, err := v.popN(f, n)
		if err != nil {
			return err
		}
		f.push(v.Arena.NewList(items))
	case script.OpPushPropList:
		n := int(ins.Arg)
		pairs, err := v.popN(f, n*2)
		if err != nil {
			return err
		}
		keys := make([]datum.Datum, n)
		vals := make([]datum.Datum, n)
		for i := 0; i < n; i++ {
			keys[i] = pairs[i*2]
			vals[i] = pairs[i*2+1]
		}
		f.push(v.Arena.NewPropList(keys, vals))
	case script.OpPushArgList, script.OpPushArgListNoRet:
		n := int(ins.Arg)
		items, err := v.popN(f, n)
		if err != nil {
			return err
		}
		d := v.Arena.NewList(items)
		if ins.Op == script.OpPushArgListNoRet {
			d.Kind = datum.KindArgListNoRet
		} else {
			d.Kind = datum.KindArgList
		}
		f.push(d)
	case script.OpPop:
		_, err := v.popN(f, int(ins.Arg))
		if err != nil {
			return err
		}
	case script.OpSwap:
		a, ok1 := f.pop()
		b, ok2 := f.pop()
		if !ok1 || !ok2 {
			return underflow()
		}
		f.push(a)
		f.push(b)
	case script.OpPeek:
		d, ok := f.peek(int(ins.Arg))
		if !ok {
			return underflow()
		}
		f.push(d)

	// --- Arithmetic ---
	case script.OpAdd:
		return v.binOp(f, datum.Add)
	case script.OpSub:
		return v.binOp(f, datum.Sub)
	case script.OpMul:
		return v.binOp(f, datum.Mul)
	case script.OpDiv:
		return v.divOp(f, false)
	case script.OpMod:
		return v.divOp(f, true)
	case script.OpInv:
		a, ok := f.pop()
		if !ok {
			return underflow()
		}
		if a.Kind == datum.KindFloat {
			f.push(datum.Float(-a.Float))
		} else {
			f.push(datum.Int(-a.AsInt()))
		}

	// --- Comparison ---
	case script.OpEq:
		return v.cmpOp(f, func(a, b datum.Datum) bool { return datum.Equal(a, b) })
	case script.OpNtEq:
		return v.cmpOp(f, func(a, b datum.Datum) bool { return !datum.Equal(a, b) })
	case script.OpLt:
		return v.cmpOp(f, func(a, b datum.Datum) bool { return datum.Compare(a, b) < 0 })
	case script.OpLtEq:
		return v.cmpOp(f, func(a, b datum.Datum) bool { return datum.Compare(a, b) <= 0 })
	case script.OpGt:
		return v.cmpOp(f, func(a, b datum.Datum) bool { return datum.Compare(a, b) > 0 })
	case script.OpGtEq:
		return v.cmpOp(f, func(a, b datum.Datum) bool { return datum.Compare(a, b) >= 0 })

	// --- Logical ---
	case script.OpAnd:
		return v.boolOp(f, func(a, b bool) bool { return a && b })
	case script.OpOr:
		return v.boolOp(f, func(a, b bool) bool { return a || b })
	case script.OpNot:
		a, ok := f.pop()
		if !ok {
			return underflow()
		}
		f.push(datum.Bool(!a.IsTruthy()))

	// --- String ---
	case script.OpJoinStr:
		b, a, err := v.pop2(f)
		if err != nil {
			return err
		}
		f.push(datum.Str(a.AsString() + b.AsString()))
	case script.OpJoinPadStr:
		b, a, err := v.pop2(f)
		if err != nil {
			return err
		}
		f.push(datum.Str(a.AsString() + " " + b.AsString()))
	case script.OpContainsStr:
		b, a, err := v.pop2(f)
		if err != nil {
			return err
		}
		f.push(datum.Bool(containsFold(a.AsString(), b.AsString())))
	case script.OpContains0Str:
		b, a, err := v.pop2(f)
		if err != nil {
			return err
		}
		f.push(datum.Bool(hasPrefixFold(a.AsString(), b.AsString())))
	case script.OpGetChunk:
		return v.opGetChunk(f, ins)
	case script.OpHiliteChunk:
		// Selection highlighting is a presentation-shell concern (§1
		// out of scope); accept and discard the chunk reference.
		if _, err := v.popN(f, 1); err != nil {
			return err
		}

	// --- Variables / properties ---
	case script.OpGetGlobal, script.OpGetGlobal2:
		f.push(v.getGlobal(f, int(ins.Arg)))
	case script.OpSetGlobal, script.OpSetGlobal2:
		val, ok := f.pop()
		if !ok {
			return underflow()
		}
		v.setGlobal(f, int(ins.Arg), val)
	case script.OpGetProp:
		d, err := v.getProp(f, int(ins.Arg))
		if err != nil {
			return err
		}
		f.push(d)
	case script.OpSetProp:
		val, ok := f.pop()
		if !ok {
			return underflow()
		}
		if err := v.setProp(f, int(ins.Arg), val); err != nil {
			return err
		}
	case script.OpGetParam:
		f.push(v.getParam(f, int(ins.Arg)))
	case script.OpSetParam:
		val, ok := f.pop()
		if !ok {
			return underflow()
		}
		v.setParam(f, int(ins.Arg), val)
	case script.OpGetLocal:
		f.push(v.getLocal(f, int(ins.Arg)))
	case script.OpSetLocal:
		val, ok := f.pop()
		if !ok {
			return underflow()
		}
		v.setLocal(f, int(ins.Arg), val)
	case script.OpGetChainedProp:
		d, err := v.getChainedProp(f, int(ins.Arg))
		if err != nil {
			return err
		}
		f.push(d)
	case script.OpGetObjProp:
		d, err := v.getObjProp(f, int(ins.Arg))
		if err != nil {
			return err
		}
		f.push(d)
	case script.OpSetObjProp:
		if err := v.setObjProp(f, int(ins.Arg)); err != nil {
			return err
		}
	case script.OpGetMovieProp:
		f.push(v.getMovieProp(int(ins.Arg)))
	case script.OpSetMovieProp:
		val, ok := f.pop()
		if !ok {
			return underflow()
		}
		v.setMovieProp(int(ins.Arg), val)
	case script.OpGetTopLevelProp:
		f.push(v.getMovieProp(int(ins.Arg)))
	case script.OpTheBuiltin:
		d, err := v.theBuiltin(f, int(ins.Arg))
		if err != nil {
			return err
		}
		f.push(d)

	// --- Control ---
	case script.OpJmp:
		return v.jump(f, f.currentOffset()+int(ins.Arg))
	case script.OpJmpIfZ:
		cond, ok := f.pop()
		if !ok {
			return underflow()
		}
		if !cond.IsTruthy() {
			return v.jump(f, f.currentOffset()+int(ins.Arg))
		}
	case script.OpEndRepeat:
		return v.jump(f, f.currentOffset()-int(ins.Arg))

	case script.OpRet:
		return v.doReturn(f, false)
	case script.OpRetFactory:
		return v.doReturn(f, true)

	// --- Calls ---
	case script.OpLocalCall:
		return v.localCall(f, int(ins.Arg))
	case script.OpExtCall:
		return v.extCall(f, int(ins.Arg), false)
	case script.OpTellCall:
		return v.extCall(f, int(ins.Arg), true)
	case script.OpObjCall, script.OpObjCallV4:
		return v.objCall(f, int(ins.Arg))
	case script.OpNewObj:
		return v.newObj(f, int(ins.Arg))

	case script.OpStartTell:
		target, ok := f.pop()
		if !ok {
			return underflow()
		}
		f.tellTarget = target
		f.tellActive = true
	case script.OpEndTell:
		f.tellActive = false

	// --- Data mutation ---
	case script.OpPushVarRef:
		v.pushVarRef(f, int(ins.Arg))
	case script.OpPushChunkVarRef:
		if err := v.pushChunkVarRef(f, int(ins.Arg)); err != nil {
			return err
		}
	case script.OpPut:
		return v.opPut(f, ins)
	case script.OpPutChunk:
		return v.opPutChunk(f, ins)
	case script.OpDeleteChunk:
		return v.opDeleteChunk(f)
	case script.OpGet:
		return v.opGet(f, ins)
	case script.OpSet:
		return v.opSet(f, ins)

	case script.OpGetField:
		// Sprite/field member access is exposed to scripts via the
		// member()/sprite() builtin constructors (§4.2) rather than a
		// dedicated opcode path in this design; push void so a handler
		// expecting a value on the stack doesn't underflow on the next op.
		f.push(datum.Void)

	case script.OpOntoSpr, script.OpIntoSpr:
		// Accept the byte so unusual bytecode from other encoders
		// doesn't abort unrelated handlers; out of scope beyond that.

	default:
		return playererr.New(playererr.InvalidOpcode, "unknown opcode 0x%02X", byte(ins.Op))
	}
	return nil
}

func underflow() *playererr.RuntimeError {
	return playererr.New(playererr.StackUnderflow, "operand stack underflow")
}

func (v *VM) popN(f *CallFrame, n int) ([]datum.Datum, *playererr.RuntimeError) {
	if n < 0 || len(f.Stack) < n {
		return nil, underflow()
	}
	items := make([]datum.Datum, n)
	copy(items, f.Stack[len(f.Stack)-n:])
	f.Stack = f.Stack[:len(f.Stack)-n]
	return items, nil
}

func (v *VM) pop2(f *CallFrame) (b, a datum.Datum, err *playererr.RuntimeError) {
	items, perr := v.popN(f, 2)
	if perr != nil {
		return datum.Void, datum.Void, perr
	}
	return items[1], items[0], nil
}

func (v *VM) binOp(f *CallFrame, op func(a, b datum.Datum) datum.Datum) *playererr.RuntimeError {
	b, a, err := v.pop2(f)
	if err != nil {
		return err
	}
	f.push(op(a, b))
	return nil
}

func (v *VM) cmpOp(f *CallFrame, op func(a, b datum.Datum) bool) *playererr.RuntimeError {
	b, a, err := v.pop2(f)
	if err != nil {
		return err
	}
	f.push(datum.Bool(op(a, b)))
	return nil
}

func (v *VM) boolOp(f *CallFrame, op func(a, b bool) bool) *playererr.RuntimeError {
	b, a, err := v.pop2(f)
	if err != nil {
		return err
	}
	f.push(datum.Bool(op(a.IsTruthy(), b.IsTruthy())))
	return nil
}

// divOp implements div/mod: division (or modulo) by zero fails with
// ArithmeticError (§4.1); div with a float operand promotes to float,
// while mod always truncates both operands to integers.
func (v *VM) divOp(f *CallFrame, mod bool) *playererr.RuntimeError {
	b, a, err := v.pop2(f)
	if err != nil {
		return err
	}
	if b.AsFloat() == 0 {
		return playererr.New(playererr.ArithmeticError, "division by zero")
	}
	if mod {
		f.push(datum.Int(a.AsInt() % b.AsInt()))
		return nil
	}
	if a.Kind == datum.KindFloat || b.Kind == datum.KindFloat {
		f.push(datum.Float(a.AsFloat() / b.AsFloat()))
	} else {
		f.push(datum.Int(a.AsInt() / b.AsInt()))
	}
	return nil
}

func containsFold(hay, needle string) bool { return indexFold(hay, needle) >= 0 }

func hasPrefixFold(hay, prefix string) bool {
	if len(prefix) > len(hay) {
		return false
	}
	return equalFold(hay[:len(prefix)], prefix)
}

func indexFold(hay, needle string) int {
	hl, nl := lowerName(hay), lowerName(needle)
	for i := 0; i+len(nl) <= len(hl); i++ {
		if hl[i:i+len(nl)] == nl {
			return i
		}
	}
	return -1
}

func equalFold(a, b string) bool { return lowerName(a) == lowerName(b) }
