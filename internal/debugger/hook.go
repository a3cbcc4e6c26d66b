package debugger

import (
	"lingoplayer/internal/script"
	"lingoplayer/internal/vm"
)

// OnInstruction implements vm.DebugHook: record the step, then report
// whether the frame should keep running. In StepInstruction mode every
// instruction pauses the frame (the caller resumes it via
// vm.VM.Resume); breakpoint hits are handled by run() itself via
// v.Breakpoints, independent of this hook's return value.
func (d *Debugger) OnInstruction(v *vm.VM, f *vm.CallFrame, ins script.Instruction) bool {
	d.record(TraceEvent{
		Kind:        "instruction",
		Lib:         f.Lib,
		HandlerName: v.Name(f.Script, f.Handler.NameID),
		Offset:      ins.Offset,
	})
	d.mu.Lock()
	mode := d.mode
	d.mu.Unlock()
	return mode != StepInstruction
}

func (d *Debugger) OnCall(v *vm.VM, f *vm.CallFrame) {
	d.record(TraceEvent{
		Kind:        "call",
		Lib:         f.Lib,
		HandlerName: v.Name(f.Script, f.Handler.NameID),
	})
}

func (d *Debugger) OnReturn(v *vm.VM, f *vm.CallFrame) {
	d.record(TraceEvent{
		Kind:        "return",
		Lib:         f.Lib,
		HandlerName: v.Name(f.Script, f.Handler.NameID),
	})
}

func (d *Debugger) OnError(v *vm.VM, err error) {
	d.record(TraceEvent{Kind: "error", Err: err.Error()})
}
