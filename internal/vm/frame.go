// Package vm implements the bytecode stack machine: CallFrame/Scope,
// opcode dispatch, name/variable resolution, and the dynamic-dispatch
// cascade for localCall/extCall/objCall/tellCall (§4.1).
package vm

import (
	"lingoplayer/internal/datum"
	"lingoplayer/internal/script"
)

// ScopeState is a CallFrame's execution state (§4.1 "State machine per
// frame").
type ScopeState int

const (
	Running ScopeState = iota
	Suspended
	Returned
)

// CallFrame is a per-invocation record: the owning script/handler, the
// argument and local vectors, the receiver, the operand stack, the
// program counter (as an Instructions index, not a byte offset), and
// the return slot.
type CallFrame struct {
	Caller  *CallFrame
	Lib     int // cast library the script belongs to
	Script  *script.Script
	Handler *script.Handler

	Args   []datum.Datum
	Locals []datum.Datum
	Receiver datum.Datum // script-instance or Void

	Stack []datum.Datum
	PC    int // index into Handler.Instructions

	ReturnValue datum.Datum
	Returned    bool
	State       ScopeState

	// tellTarget, while tellActive is set, redirects tellCall dispatch
	// for the duration of a startTell/endTell block (§4.1 tellCall).
	tellTarget datum.Datum
	tellActive bool
}

func newFrame(caller *CallFrame, lib int, s *script.Script, h *script.Handler, args []datum.Datum, receiver datum.Datum) *CallFrame {
	locals := make([]datum.Datum, h.LocalCount)
	for i := range locals {
		locals[i] = datum.Void
	}
	argv := make([]datum.Datum, h.ArgCount)
	for i := range argv {
		if i < len(args) {
			argv[i] = args[i]
		} else {
			argv[i] = datum.Void
		}
	}
	return &CallFrame{
		Caller: caller, Lib: lib, Script: s, Handler: h,
		Args: argv, Locals: locals, Receiver: receiver,
		State: Running,
	}
}

func (f *CallFrame) push(d datum.Datum) { f.Stack = append(f.Stack, d) }

func (f *CallFrame) pop() (datum.Datum, bool) {
	if len(f.Stack) == 0 {
		return datum.Void, false
	}
	d := f.Stack[len(f.Stack)-1]
	f.Stack = f.Stack[:len(f.Stack)-1]
	return d, true
}

// peek returns a copy of the value k slots from the top (0 = top)
// without popping, for the `peek` opcode.
func (f *CallFrame) peek(k int) (datum.Datum, bool) {
	idx := len(f.Stack) - 1 - k
	if idx < 0 || idx >= len(f.Stack) {
		return datum.Void, false
	}
	return f.Stack[idx], true
}

func (f *CallFrame) currentOffset() int {
	if f.PC < 0 || f.PC >= len(f.Handler.Instructions) {
		return -1
	}
	return f.Handler.Instructions[f.PC].Offset
}
