package vm

import (
	"lingoplayer/internal/datum"
	"lingoplayer/internal/playererr"
)

// jump resolves a byte-offset jump target to its Instructions index by
// scanning the handler's precomputed offset index (§4.1 jmp/jmpIfZ
// forward, endRepeat backward). f.PC is set to idx-1 since run()
// increments PC after every step, landing it exactly on idx next.
func (v *VM) jump(f *CallFrame, targetOffset int) *playererr.RuntimeError {
	idx, ok := f.Handler.IndexForOffset(targetOffset)
	if !ok {
		return playererr.New(playererr.IndexOutOfBounds, "jump target offset %d not found", targetOffset)
	}
	f.PC = idx - 1 // run() increments PC after every non-returned step
	return nil
}

// doReturn implements ret/retFactory: for ret, pop the top of the
// operand stack as the return value (void when the stack is empty —
// Lingo's compiler emits the return value push before RET); for
// retFactory, return the receiver and leave the stack as it is. Either
// way the frame is marked Returned.
func (v *VM) doReturn(f *CallFrame, factory bool) *playererr.RuntimeError {
	if factory {
		f.ReturnValue = f.Receiver
		f.Returned = true
		f.State = Returned
		return nil
	}
	if len(f.Stack) > 0 {
		val, _ := f.pop()
		f.ReturnValue = val
	} else {
		f.ReturnValue = datum.Void
	}
	f.Returned = true
	f.State = Returned
	return nil
}
