package debugserver

import (
	"encoding/json"
	"testing"

	"lingoplayer/internal/castlib"
	"lingoplayer/internal/datum"
	"lingoplayer/internal/debugger"
	"lingoplayer/internal/script"
	"lingoplayer/internal/vm"
)

func newTestServer() (*Server, *vm.VM) {
	v := vm.New(datum.NewArena(), castlib.NewRegistry())
	return New(debugger.New(v), "localhost:0"), v
}

func twoInstructionScript() (*script.Script, *script.Handler) {
	h := script.Handler{Instructions: []script.Instruction{
		{Offset: 0, Op: script.OpPushInt8, Arg: 1},
		{Offset: 2, Op: script.OpRet},
	}}
	h.BuildOffsetIndex()
	s := &script.Script{Type: script.Movie, Handlers: []script.Handler{h}}
	return s, &s.Handlers[0]
}

func TestNewInitializesClientMap(t *testing.T) {
	s, _ := newTestServer()
	if s.clients == nil {
		t.Fatal("New() should initialize the client map")
	}
	if !s.upgrader.CheckOrigin(nil) {
		t.Error("the dev-harness upgrader should accept every origin")
	}
}

func TestCommandUnmarshalsSetBreakpointFields(t *testing.T) {
	raw := []byte(`{"cmd":"setBreakpoint","lib":1,"offset":42,"threshold":3,"id":"bp-1"}`)
	var cmd command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := command{Cmd: "setBreakpoint", Lib: 1, Offset: 42, Threshold: 3, ID: "bp-1"}
	if cmd != want {
		t.Errorf("cmd = %+v, want %+v", cmd, want)
	}
}

func TestDispatchStepPausesAfterFirstInstruction(t *testing.T) {
	s, v := newTestServer()
	s.dispatch(command{Cmd: "step"})

	sc, h := twoInstructionScript()
	if _, err := v.Execute(1, sc, h, nil, datum.Void); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	trace := s.dbg.Trace()
	count := 0
	for _, e := range trace {
		if e.Kind == "instruction" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("instruction events = %d, want 1 (paused after the first in step mode)", count)
	}
}

func TestDispatchContinueRunsToCompletion(t *testing.T) {
	s, v := newTestServer()
	s.dispatch(command{Cmd: "step"})
	s.dispatch(command{Cmd: "continue"})

	sc, h := twoInstructionScript()
	if _, err := v.Execute(1, sc, h, nil, datum.Void); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	trace := s.dbg.Trace()
	count := 0
	for _, e := range trace {
		if e.Kind == "instruction" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("instruction events = %d, want 2 (continue should run through both)", count)
	}
}

func TestDispatchClearBreakpointStopsItPausing(t *testing.T) {
	s, v := newTestServer()
	sc, h := twoInstructionScript()
	id := s.dbg.SetBreakpoint(1, sc, 2, nil, 1)

	s.dispatch(command{Cmd: "clearBreakpoint", ID: string(id)})

	if _, err := v.Execute(1, sc, h, nil, datum.Void); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	trace := s.dbg.Trace()
	count := 0
	for _, e := range trace {
		if e.Kind == "instruction" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("instruction events = %d, want 2 (cleared breakpoint should not pause)", count)
	}
}

func TestDispatchClearAllBreakpoints(t *testing.T) {
	s, v := newTestServer()
	sc, h := twoInstructionScript()
	s.dbg.SetBreakpoint(1, sc, 2, nil, 1)

	s.dispatch(command{Cmd: "clearAllBreakpoints"})

	if _, err := v.Execute(1, sc, h, nil, datum.Void); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	trace := s.dbg.Trace()
	count := 0
	for _, e := range trace {
		if e.Kind == "instruction" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("instruction events = %d, want 2 after clearAllBreakpoints", count)
	}
}

func TestDispatchUnknownCommandIsNoop(t *testing.T) {
	s, _ := newTestServer()
	// "setBreakpoint" is deliberately left to a host's direct Debugger
	// call (it needs a *script.Script a wire command can't name, §1); an
	// unrecognized cmd string must likewise not panic.
	s.dispatch(command{Cmd: "setBreakpoint"})
	s.dispatch(command{Cmd: "bogus"})
}
