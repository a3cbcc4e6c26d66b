package vm

import (
	"math"
	"testing"

	"lingoplayer/internal/castlib"
	"lingoplayer/internal/datum"
	"lingoplayer/internal/script"
)

func newTestVM() *VM {
	return New(datum.NewArena(), castlib.NewRegistry())
}

func runHandler(t *testing.T, v *VM, instructions []script.Instruction, names []string, argCount, localCount int) datum.Datum {
	t.Helper()
	h := script.Handler{ArgCount: argCount, LocalCount: localCount, Instructions: instructions}
	h.BuildOffsetIndex()
	s := &script.Script{Type: script.Movie, Handlers: []script.Handler{h}}
	v.MovieNames = names

	result, err := v.Execute(1, s, &s.Handlers[0], nil, datum.Void)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	return result
}

func TestPushAdd(t *testing.T) {
	v := newTestVM()
	instructions := []script.Instruction{
		{Offset: 0, Op: script.OpPushInt8, Arg: 2},
		{Offset: 2, Op: script.OpPushInt8, Arg: 3},
		{Offset: 4, Op: script.OpAdd},
		{Offset: 5, Op: script.OpRet},
	}
	got := runHandler(t, v, instructions, nil, 0, 0)
	if got.Kind != datum.KindInt || got.Int != 5 {
		t.Errorf("push 2, push 3, add = %+v, want Int(5)", got)
	}
}

func TestIntFloatAddWidensToFloat(t *testing.T) {
	v := newTestVM()
	instructions := []script.Instruction{
		{Offset: 0, Op: script.OpPushInt8, Arg: 1},
		{Offset: 2, Op: script.OpPushFloat32, Arg: int32(math.Float32bits(0.5))},
		{Offset: 7, Op: script.OpAdd},
		{Offset: 8, Op: script.OpRet},
	}
	got := runHandler(t, v, instructions, nil, 0, 0)
	if got.Kind != datum.KindFloat || got.Float != 1.5 {
		t.Errorf("int+float = %+v, want Float(1.5)", got)
	}
}

func TestDivisionByZeroIsArithmeticError(t *testing.T) {
	v := newTestVM()
	h := script.Handler{Instructions: []script.Instruction{
		{Offset: 0, Op: script.OpPushInt8, Arg: 1},
		{Offset: 2, Op: script.OpPushZero},
		{Offset: 3, Op: script.OpDiv},
		{Offset: 4, Op: script.OpRet},
	}}
	h.BuildOffsetIndex()
	s := &script.Script{Type: script.Movie, Handlers: []script.Handler{h}}

	_, err := v.Execute(1, s, &s.Handlers[0], nil, datum.Void)
	if err == nil {
		t.Fatal("expected division by zero to error")
	}
}

func TestBackwardBranchLoop(t *testing.T) {
	v := newTestVM()
	// locals[0] = 0; repeat: locals[0] = locals[0] + 1 while locals[0] != 3
	// pushInt8 0 / setLocal 0
	// loop: getLocal 0 / pushInt8 1 / add / setLocal 0
	//       getLocal 0 / pushInt8 3 / ntEq / jmpIfZ done
	//       endRepeat back-to-loop
	// done: getLocal 0 / ret
	instructions := []script.Instruction{
		{Offset: 0, Op: script.OpPushZero},
		{Offset: 1, Op: script.OpSetLocal, Arg: 0},
		{Offset: 3, Op: script.OpGetLocal, Arg: 0},
		{Offset: 5, Op: script.OpPushInt8, Arg: 1},
		{Offset: 7, Op: script.OpAdd},
		{Offset: 8, Op: script.OpSetLocal, Arg: 0},
		{Offset: 10, Op: script.OpGetLocal, Arg: 0},
		{Offset: 12, Op: script.OpPushInt8, Arg: 3},
		{Offset: 14, Op: script.OpNtEq},
		{Offset: 15, Op: script.OpJmpIfZ, Arg: 8}, // jump target = offset(15)+8 = 23
		{Offset: 17, Op: script.OpEndRepeat, Arg: 14}, // jump target = offset(17)-14 = 3
		{Offset: 19, Op: script.OpGetLocal, Arg: 0},
		{Offset: 21, Op: script.OpPushZero}, // unreachable filler so offset 23 exists below
		{Offset: 23, Op: script.OpGetLocal, Arg: 0},
		{Offset: 25, Op: script.OpRet},
	}
	got := runHandler(t, v, instructions, nil, 0, 1)
	if got.Kind != datum.KindInt || got.Int != 3 {
		t.Errorf("loop result = %+v, want Int(3)", got)
	}
}

func TestPushListBuildsArenaList(t *testing.T) {
	v := newTestVM()
	instructions := []script.Instruction{
		{Offset: 0, Op: script.OpPushInt8, Arg: 1},
		{Offset: 2, Op: script.OpPushInt8, Arg: 2},
		{Offset: 4, Op: script.OpPushList, Arg: 2},
		{Offset: 6, Op: script.OpRet},
	}
	got := runHandler(t, v, instructions, nil, 0, 0)
	if got.Kind != datum.KindList {
		t.Fatalf("expected KindList, got %+v", got)
	}
	if len(v.Arena.List(got).Items) != 2 {
		t.Errorf("list length = %d, want 2", len(v.Arena.List(got).Items))
	}
}

func TestGlobalSetGetByName(t *testing.T) {
	v := newTestVM()
	names := []string{"score"}
	instructions := []script.Instruction{
		{Offset: 0, Op: script.OpPushInt8, Arg: 42},
		{Offset: 2, Op: script.OpSetGlobal, Arg: 0},
		{Offset: 4, Op: script.OpGetGlobal, Arg: 0},
		{Offset: 6, Op: script.OpRet},
	}
	got := runHandler(t, v, instructions, names, 0, 0)
	if got.Kind != datum.KindInt || got.Int != 42 {
		t.Errorf("global round-trip = %+v, want Int(42)", got)
	}
}

func TestUnknownOpcodeReturnsInvalidOpcode(t *testing.T) {
	v := newTestVM()
	h := script.Handler{Instructions: []script.Instruction{
		{Offset: 0, Op: script.OpCode(0xFF)},
	}}
	h.BuildOffsetIndex()
	s := &script.Script{Type: script.Movie, Handlers: []script.Handler{h}}

	_, err := v.Execute(1, s, &s.Handlers[0], nil, datum.Void)
	if err == nil {
		t.Fatal("expected InvalidOpcode error")
	}
}

func TestPlayerControllerNavigationBuiltin(t *testing.T) {
	v := newTestVM()
	fake := &fakePlayer{}
	v.Player = fake
	v.RegisterBuiltin("goloop", func(v *VM, args []datum.Datum) (datum.Datum, error) {
		v.Player.GoToFrame(7)
		return datum.Void, nil
	})

	instructions := []script.Instruction{
		{Offset: 0, Op: script.OpRet},
	}
	_ = runHandler(t, v, instructions, nil, 0, 0)
	fn, ok := v.lookupBuiltin("goloop")
	if !ok {
		t.Fatal("builtin should be registered")
	}
	if _, err := fn(v, nil); err != nil {
		t.Fatalf("builtin call error = %v", err)
	}
	if fake.frame != 7 {
		t.Errorf("Player.GoToFrame not invoked, frame = %d", fake.frame)
	}
}

type fakePlayer struct{ frame int }

func (f *fakePlayer) GoToFrame(n int)        { f.frame = n }
func (f *fakePlayer) GoToLabel(string) error { return nil }
func (f *fakePlayer) Play()                  {}
func (f *fakePlayer) Stop()                  {}
func (f *fakePlayer) Pause()                 {}
func (f *fakePlayer) UpdateStage()           {}
func (f *fakePlayer) CurrentFrame() int      { return f.frame }
func (f *fakePlayer) LastFrame() int         { return 0 }
func (f *fakePlayer) PuppetTempo(int)        {}
