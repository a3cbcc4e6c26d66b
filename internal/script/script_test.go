package script

import "testing"

func TestArgWidth(t *testing.T) {
	tests := []struct {
		op   OpCode
		want int
	}{
		{OpRet, 0},
		{OpPushZero, 0},
		{OpPushInt8, 1},
		{OpPushInt16, 2},
		{OpPushInt32, 4},
		{OpPushFloat32, 4},
		{OpGetLocal, 1},
	}
	for _, tt := range tests {
		if got := ArgWidth(tt.op); got != tt.want {
			t.Errorf("ArgWidth(%v) = %d, want %d", tt.op, got, tt.want)
		}
	}
}

func TestSigned(t *testing.T) {
	tests := []struct {
		op   OpCode
		want bool
	}{
		{OpPushInt8, true},
		{OpPushInt16, true},
		{OpPushInt32, true},
		{OpJmp, true},
		{OpEndRepeat, true},
		{OpJmpIfZ, true},
		{OpGetLocal, false},
		{OpPushCons, false},
	}
	for _, tt := range tests {
		if got := Signed(tt.op); got != tt.want {
			t.Errorf("Signed(%v) = %v, want %v", tt.op, got, tt.want)
		}
	}
}

func TestDecodeSingleByteOpcode(t *testing.T) {
	code := []byte{byte(OpAdd)}
	ins, next, ok := Decode(code, 0)
	if !ok {
		t.Fatal("expected Decode to succeed")
	}
	if ins.Op != OpAdd || ins.Arg != 0 || next != 1 {
		t.Errorf("Decode() = %+v, next=%d", ins, next)
	}
}

func TestDecodeSignedInt8(t *testing.T) {
	code := []byte{byte(OpPushInt8), 0xFE} // -2
	ins, next, ok := Decode(code, 0)
	if !ok || ins.Arg != -2 || next != 2 {
		t.Errorf("Decode(pushInt8 0xFE) = %+v ok=%v next=%d, want Arg=-2", ins, ok, next)
	}
}

func TestDecodeUnsignedArg(t *testing.T) {
	code := []byte{byte(OpGetLocal), 0x05}
	ins, _, ok := Decode(code, 0)
	if !ok || ins.Arg != 5 {
		t.Errorf("Decode(getLocal 5) = %+v ok=%v, want Arg=5", ins, ok)
	}
}

func TestDecodeInt32(t *testing.T) {
	code := []byte{byte(OpPushInt32), 0x00, 0x00, 0x01, 0x00} // 256
	ins, next, ok := Decode(code, 0)
	if !ok || ins.Arg != 256 || next != 5 {
		t.Errorf("Decode(pushInt32) = %+v ok=%v next=%d, want Arg=256", ins, ok, next)
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	code := []byte{0xFF}
	_, _, ok := Decode(code, 0)
	if ok {
		t.Error("expected unknown opcode to fail decode")
	}
}

func TestDecodeAllStopsAtBadOpcode(t *testing.T) {
	code := []byte{byte(OpPushZero), byte(OpAdd), 0xFF, byte(OpRet)}
	instructions, bad, hasBad := DecodeAll(code)
	if !hasBad || bad != 0xFF {
		t.Fatalf("expected bad opcode 0xFF, got hasBad=%v bad=%x", hasBad, bad)
	}
	if len(instructions) != 2 {
		t.Errorf("expected 2 decoded instructions before the bad byte, got %d", len(instructions))
	}
}

func TestHandlerOffsetIndex(t *testing.T) {
	h := Handler{Instructions: []Instruction{
		{Offset: 0, Op: OpPushZero},
		{Offset: 1, Op: OpPushInt8, Arg: 3},
		{Offset: 3, Op: OpAdd},
	}}
	h.BuildOffsetIndex()

	if idx, ok := h.IndexForOffset(3); !ok || idx != 2 {
		t.Errorf("IndexForOffset(3) = %d, %v, want 2, true", idx, ok)
	}
	if _, ok := h.IndexForOffset(99); ok {
		t.Error("IndexForOffset(99) should not be found")
	}
}

func TestScriptHandlerByName(t *testing.T) {
	names := []string{"new", "mouseDown", "exitFrame"}
	s := Script{Handlers: []Handler{
		{NameID: 0},
		{NameID: 2},
	}}
	s.BuildHandlerIndex(names)

	idx, ok := s.HandlerByName("ExitFrame")
	if !ok || idx != 1 {
		t.Errorf("HandlerByName(ExitFrame) = %d, %v, want 1, true", idx, ok)
	}
	if _, ok := s.HandlerByName("mouseDown"); ok {
		t.Error("mouseDown was never declared on this script and should not resolve")
	}
}
