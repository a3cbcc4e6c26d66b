// Package debugger implements the VM's debug surface (§6): a
// vm.DebugHook that records an instruction/call/return trace, a
// breakpoint registry fronting vm.Breakpoints with uuid-correlated
// ids, and single-step pause/resume built on vm.VM.Resume.
package debugger

import (
	"sync"

	"github.com/google/uuid"

	"lingoplayer/internal/script"
	"lingoplayer/internal/vm"
)

// Mode selects whether OnInstruction lets the frame keep running or
// pauses after every instruction.
type Mode int

const (
	Continue Mode = iota
	StepInstruction
)

// BreakpointID correlates a Set call with a later Clear, independent
// of the (lib,script,offset) triple it was set on.
type BreakpointID string

type bpKey struct {
	lib    int
	script *script.Script
	offset int
}

// TraceEvent is one recorded VM execution event.
type TraceEvent struct {
	Kind        string // "instruction", "call", "return", "error"
	Lib         int
	HandlerName string
	Offset      int
	Err         string
}

// Debugger attaches to a VM as its DebugHook and owns its breakpoint
// registry. A debugserver bridges this surface to an external UI over
// websocket; Debugger itself has no terminal/REPL loop.
type Debugger struct {
	mu       sync.Mutex
	v        *vm.VM
	bp       *vm.Breakpoints
	ids      map[BreakpointID]bpKey
	trace    []TraceEvent
	maxTrace int
	mode     Mode
	subs     map[chan TraceEvent]struct{}
}

// New attaches a fresh Debugger to v, installing both its breakpoint
// registry and itself as v's DebugHook.
func New(v *vm.VM) *Debugger {
	bp := vm.NewBreakpoints()
	v.Breakpoints = bp
	d := &Debugger{
		v:        v,
		bp:       bp,
		ids:      make(map[BreakpointID]bpKey),
		maxTrace: 500,
		subs:     make(map[chan TraceEvent]struct{}),
	}
	v.DebugHook = d
	return d
}

// SetBreakpoint installs a breakpoint and returns its correlation id.
// condition may be nil; threshold ≤ 1 pauses on every hit (§6
// "breakpoint registry ... with optional condition expression and
// hit-count threshold").
func (d *Debugger) SetBreakpoint(lib int, s *script.Script, offset int, condition vm.Condition, threshold int) BreakpointID {
	id := BreakpointID(uuid.NewString())
	d.mu.Lock()
	d.ids[id] = bpKey{lib, s, offset}
	d.mu.Unlock()
	d.bp.Set(lib, s, offset, condition, threshold)
	return id
}

// ClearBreakpoint removes a previously set breakpoint by id.
func (d *Debugger) ClearBreakpoint(id BreakpointID) {
	d.mu.Lock()
	k, ok := d.ids[id]
	delete(d.ids, id)
	d.mu.Unlock()
	if ok {
		d.bp.Clear(k.lib, k.script, k.offset)
	}
}

// ClearAllBreakpoints removes every breakpoint.
func (d *Debugger) ClearAllBreakpoints() {
	d.mu.Lock()
	d.ids = make(map[BreakpointID]bpKey)
	d.mu.Unlock()
	d.bp.ClearAll()
}

// SetMode switches between free-running and single-step (pause after
// every instruction); a paused frame resumes via vm.VM.Resume.
func (d *Debugger) SetMode(m Mode) {
	d.mu.Lock()
	d.mode = m
	d.mu.Unlock()
}

// Trace returns a snapshot of the retained event history, oldest
// first.
func (d *Debugger) Trace() []TraceEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]TraceEvent, len(d.trace))
	copy(out, d.trace)
	return out
}

func (d *Debugger) record(e TraceEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, e)
	if len(d.trace) > d.maxTrace {
		d.trace = d.trace[len(d.trace)-d.maxTrace:]
	}
	for ch := range d.subs {
		select {
		case ch <- e:
		default:
			// Slow subscriber; drop rather than block the VM.
		}
	}
}

// Subscribe returns a channel of live TraceEvents, for a bridge like
// internal/debugserver to forward onward. Unsubscribe must be called
// when the caller is done to stop the fan-out.
func (d *Debugger) Subscribe() chan TraceEvent {
	ch := make(chan TraceEvent, 64)
	d.mu.Lock()
	d.subs[ch] = struct{}{}
	d.mu.Unlock()
	return ch
}

// Unsubscribe stops forwarding events to ch and closes it.
func (d *Debugger) Unsubscribe(ch chan TraceEvent) {
	d.mu.Lock()
	delete(d.subs, ch)
	d.mu.Unlock()
	close(ch)
}
