package builtins

import (
	"fmt"
	"strings"

	"lingoplayer/internal/datum"
	"lingoplayer/internal/vm"
)

// RegisterStrings installs length/offset/case-conversion and the
// callable forms of the char/word/line/item chunk extractors (§4.2
// "string chunk extraction ... per-context item delimiter").
func RegisterStrings(v *vm.VM) {
	v.RegisterBuiltin("length", strLength)
	v.RegisterBuiltin("offset", strOffset)
	v.RegisterBuiltin("charToNum", charToNum)
	v.RegisterBuiltin("numToChar", numToChar)
	v.RegisterBuiltin("theitemDelimiter", theItemDelimiter)
	v.RegisterBuiltin("char", chunkFunc(datum.ChunkChar))
	v.RegisterBuiltin("word", chunkFunc(datum.ChunkWord))
	v.RegisterBuiltin("line", chunkFunc(datum.ChunkLine))
	v.RegisterBuiltin("item", chunkFunc(datum.ChunkItem))
}

func strLength(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	return datum.Int(len([]rune(arg(args, 0).AsString()))), nil
}

func strOffset(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	needle, hay := arg(args, 0).AsString(), arg(args, 1).AsString()
	idx := strings.Index(strings.ToLower(hay), strings.ToLower(needle))
	if idx < 0 {
		return datum.Int(0), nil
	}
	return datum.Int(len([]rune(hay[:idx])) + 1), nil
}

func charToNum(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	s := arg(args, 0).AsString()
	if s == "" {
		return datum.Void, fmt.Errorf("charToNum requires a non-empty string")
	}
	return datum.Int(int([]rune(s)[0])), nil
}

func numToChar(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	return datum.Str(string(rune(arg(args, 0).AsInt()))), nil
}

func theItemDelimiter(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	return datum.Str(v.ItemDelimiter()), nil
}

// chunkFunc returns a builtin implementing the callable form of a
// chunk extractor: `char(n, source)` or `char(start, end, source)`,
// 1-based inclusive like every other chunk addressing mode in §3.
func chunkFunc(kind datum.ChunkKind) vm.BuiltinFunc {
	return func(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
		var start, end int
		var source string
		switch len(args) {
		case 2:
			start, end = args[0].AsInt(), args[0].AsInt()
			source = args[1].AsString()
		case 3:
			start, end = args[0].AsInt(), args[1].AsInt()
			source = args[2].AsString()
		default:
			return datum.Void, fmt.Errorf("expected (n, source) or (start, end, source)")
		}
		chunk := datum.StringChunk{Source: source, Kind: kind, Start: start, End: end}
		return datum.Str(chunk.Extract(v.ItemDelimiter())), nil
	}
}
