package script

import "fmt"

// OpCode is a Lingo bytecode opcode byte. Values below 0x40 take no
// argument; values ≥ 0x40 take an argument whose width and signedness
// are fixed per opcode (§6, normative numeric table).
type OpCode byte

const (
	OpRet          OpCode = 0x01
	OpRetFactory   OpCode = 0x02
	OpPushZero     OpCode = 0x03
	OpMul          OpCode = 0x04
	OpAdd          OpCode = 0x05
	OpSub          OpCode = 0x06
	OpDiv          OpCode = 0x07
	OpMod          OpCode = 0x08
	OpInv          OpCode = 0x09
	OpJoinStr      OpCode = 0x0A
	OpJoinPadStr   OpCode = 0x0B
	OpLt           OpCode = 0x0C
	OpLtEq         OpCode = 0x0D
	OpNtEq         OpCode = 0x0E
	OpEq           OpCode = 0x0F
	OpGt           OpCode = 0x10
	OpGtEq         OpCode = 0x11
	OpAnd          OpCode = 0x12
	OpOr           OpCode = 0x13
	OpNot          OpCode = 0x14
	OpContainsStr  OpCode = 0x15
	OpContains0Str OpCode = 0x16
	OpGetChunk     OpCode = 0x17
	OpHiliteChunk  OpCode = 0x18
	OpOntoSpr      OpCode = 0x19
	OpIntoSpr      OpCode = 0x1A
	OpGetField     OpCode = 0x1B
	OpStartTell    OpCode = 0x1C
	OpEndTell      OpCode = 0x1D
	OpPushList     OpCode = 0x1E
	OpPushPropList OpCode = 0x1F
	OpSwap         OpCode = 0x21

	OpPushInt8         OpCode = 0x41
	OpPushArgListNoRet OpCode = 0x42
	OpPushArgList      OpCode = 0x43
	OpPushCons         OpCode = 0x44
	OpPushSymb         OpCode = 0x45
	OpPushVarRef       OpCode = 0x46
	OpGetGlobal2       OpCode = 0x48
	OpGetGlobal        OpCode = 0x49
	OpGetProp          OpCode = 0x4A
	OpGetParam         OpCode = 0x4B
	OpGetLocal         OpCode = 0x4C
	OpSetGlobal2       OpCode = 0x4E
	OpSetGlobal        OpCode = 0x4F
	OpSetProp          OpCode = 0x50
	OpSetParam         OpCode = 0x51
	OpSetLocal         OpCode = 0x52
	OpJmp              OpCode = 0x53
	OpEndRepeat        OpCode = 0x54
	OpJmpIfZ           OpCode = 0x55
	OpLocalCall        OpCode = 0x56
	OpExtCall          OpCode = 0x57
	OpObjCallV4        OpCode = 0x58
	OpPut              OpCode = 0x59
	OpPutChunk         OpCode = 0x5A
	OpDeleteChunk      OpCode = 0x5B
	OpGet              OpCode = 0x5C
	OpSet              OpCode = 0x5D
	OpGetMovieProp     OpCode = 0x5F
	OpSetMovieProp     OpCode = 0x60
	OpGetObjProp       OpCode = 0x61
	OpSetObjProp       OpCode = 0x62
	OpTellCall         OpCode = 0x63
	OpPeek             OpCode = 0x64
	OpPop              OpCode = 0x65
	OpTheBuiltin       OpCode = 0x66
	OpObjCall          OpCode = 0x67
	OpPushChunkVarRef  OpCode = 0x6D
	OpPushInt16        OpCode = 0x6E
	OpPushInt32        OpCode = 0x6F
	OpGetChainedProp   OpCode = 0x70
	OpPushFloat32      OpCode = 0x71
	OpGetTopLevelProp  OpCode = 0x72
	OpNewObj           OpCode = 0x73
)

// ArgWidth is the byte width of an opcode's immediate argument: 0 for
// single-byte opcodes, else 1, 2 or 4.
func ArgWidth(op OpCode) int {
	switch op {
	case OpPushInt32, OpPushFloat32:
		return 4
	case OpPushInt16:
		return 2
	default:
		if op < 0x40 {
			return 0
		}
		return 1
	}
}

// Signed reports whether an opcode's immediate argument is decoded as
// signed (only the push-int forms and the jmp/jmpIfZ/endRepeat jump
// offsets) or unsigned (every other opcode: index/count forms).
func Signed(op OpCode) bool {
	switch op {
	case OpPushInt8, OpPushInt16, OpPushInt32, OpJmp, OpEndRepeat, OpJmpIfZ:
		return true
	default:
		return false
	}
}

// Name returns a human-readable mnemonic for op, used by the debugger
// and trace listener; unknown opcodes format as "op(0xNN)".
func Name(op OpCode) string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return fmt.Sprintf("op(0x%02X)", byte(op))
}

var opcodeNames = map[OpCode]string{
	OpRet: "ret", OpRetFactory: "retFactory", OpPushZero: "pushZero",
	OpMul: "mul", OpAdd: "add", OpSub: "sub", OpDiv: "div", OpMod: "mod", OpInv: "inv",
	OpJoinStr: "joinStr", OpJoinPadStr: "joinPadStr",
	OpLt: "lt", OpLtEq: "ltEq", OpNtEq: "ntEq", OpEq: "eq", OpGt: "gt", OpGtEq: "gtEq",
	OpAnd: "and", OpOr: "or", OpNot: "not",
	OpContainsStr: "containsStr", OpContains0Str: "contains0Str",
	OpGetChunk: "getChunk", OpHiliteChunk: "hiliteChunk",
	OpOntoSpr: "ontoSpr", OpIntoSpr: "intoSpr", OpGetField: "getField",
	OpStartTell: "startTell", OpEndTell: "endTell",
	OpPushList: "pushList", OpPushPropList: "pushPropList", OpSwap: "swap",
	OpPushInt8: "pushInt8", OpPushArgListNoRet: "pushArgListNoRet", OpPushArgList: "pushArgList",
	OpPushCons: "pushCons", OpPushSymb: "pushSymb", OpPushVarRef: "pushVarRef",
	OpGetGlobal2: "getGlobal2", OpGetGlobal: "getGlobal", OpGetProp: "getProp",
	OpGetParam: "getParam", OpGetLocal: "getLocal",
	OpSetGlobal2: "setGlobal2", OpSetGlobal: "setGlobal", OpSetProp: "setProp",
	OpSetParam: "setParam", OpSetLocal: "setLocal",
	OpJmp: "jmp", OpEndRepeat: "endRepeat", OpJmpIfZ: "jmpIfZ",
	OpLocalCall: "localCall", OpExtCall: "extCall", OpObjCallV4: "objCallV4",
	OpPut: "put", OpPutChunk: "putChunk", OpDeleteChunk: "deleteChunk",
	OpGet: "get", OpSet: "set",
	OpGetMovieProp: "getMovieProp", OpSetMovieProp: "setMovieProp",
	OpGetObjProp: "getObjProp", OpSetObjProp: "setObjProp",
	OpTellCall: "tellCall", OpPeek: "peek", OpPop: "pop", OpTheBuiltin: "theBuiltin",
	OpObjCall: "objCall", OpPushChunkVarRef: "pushChunkVarRef",
	OpPushInt16: "pushInt16", OpPushInt32: "pushInt32",
	OpGetChainedProp: "getChainedProp", OpPushFloat32: "pushFloat32",
	OpGetTopLevelProp: "getTopLevelProp", OpNewObj: "newObj",
}

// Decode reads one instruction starting at offset in code, returning
// the Instruction and the offset of the next one. Unknown opcodes
// return ok=false so the caller can raise InvalidOpcode with the raw
// byte (§6 "Unknown opcodes must be surfaced as InvalidOpcode errors
// with the raw byte in the message").
func Decode(code []byte, offset int) (ins Instruction, next int, ok bool) {
	if offset < 0 || offset >= len(code) {
		return Instruction{}, offset, false
	}
	op := OpCode(code[offset])
	if _, known := opcodeNames[op]; !known {
		return Instruction{Offset: offset, Op: op}, offset + 1, false
	}
	width := ArgWidth(op)
	if offset+1+width > len(code) {
		return Instruction{}, offset, false
	}
	var arg int32
	switch width {
	case 0:
		arg = 0
	case 1:
		b := code[offset+1]
		if Signed(op) {
			arg = int32(int8(b))
		} else {
			arg = int32(b)
		}
	case 2:
		v := uint16(code[offset+1])<<8 | uint16(code[offset+2])
		if Signed(op) {
			arg = int32(int16(v))
		} else {
			arg = int32(v)
		}
	case 4:
		v := uint32(code[offset+1])<<24 | uint32(code[offset+2])<<16 | uint32(code[offset+3])<<8 | uint32(code[offset+4])
		arg = int32(v)
	}
	return Instruction{Offset: offset, Op: op, Arg: arg}, offset + 1 + width, true
}

// DecodeAll decodes an entire handler's bytecode into an Instruction
// list. It does not build the jump offset index; call
// Handler.BuildOffsetIndex on the result for that. Returns the raw
// byte of the first unknown opcode encountered, if any.
func DecodeAll(code []byte) (instructions []Instruction, badOpcode byte, hasBad bool) {
	offset := 0
	for offset < len(code) {
		ins, next, ok := Decode(code, offset)
		if !ok {
			return instructions, code[offset], true
		}
		instructions = append(instructions, ins)
		offset = next
	}
	return instructions, 0, false
}
