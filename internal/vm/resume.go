package vm

import (
	"lingoplayer/internal/datum"
	"lingoplayer/internal/playererr"
)

// Resume continues a frame previously left Suspended by a DebugHook or
// breakpoint hit (§6 Debug surface "pause/resume at opcode
// granularity"), running it to completion the same way Execute does.
// The caller (normally the debugger) is responsible for keeping the
// CallFrame alive between a pause and the matching Resume.
func (v *VM) Resume(f *CallFrame) (datum.Datum, error) {
	f.State = Running
	prevTop := v.top
	v.top = f
	defer func() { v.top = prevTop }()

	// The instruction the frame paused on was already reported to the
	// hook and breakpoints; execute it once before run() consults them
	// again, so a resumed frame always makes progress.
	var err error
	if f.PC >= 0 && f.PC < len(f.Handler.Instructions) {
		ins := f.Handler.Instructions[f.PC]
		if rerr := v.step(f, ins); rerr != nil {
			err = rerr.WithFrame(playererr.Frame{Script: scriptLabel(f), Handler: handlerLabel(v, f), Offset: ins.Offset})
		} else if f.State != Returned {
			f.PC++
		}
	}
	if err == nil {
		err = v.run(f)
	}
	if err != nil {
		if v.DebugHook != nil {
			v.DebugHook.OnError(v, err)
		}
		return datum.Void, err
	}
	if f.State == Returned {
		if v.DebugHook != nil {
			v.DebugHook.OnReturn(v, f)
		}
		if len(f.Stack) != 0 {
			f.Stack = f.Stack[:0]
		}
	}
	return f.ReturnValue, nil
}
