// Package datum implements the Lingo runtime's single value type: a
// tagged sum over primitives, collections, and opaque host references.
// Lists and prop-lists are shared-mutable (reference semantics) via
// handles into a per-VM arena; everything else is value semantic.
package datum

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags the variant a Datum holds.
type Kind int

const (
	KindVoid Kind = iota
	KindNull
	KindInt
	KindFloat
	KindString
	KindSymbol
	KindList
	KindPropList
	KindArgList
	KindArgListNoRet
	KindStringChunk
	KindCastLib
	KindCastMember
	KindSprite
	KindScript
	KindScriptInstance
	KindStage
	KindMovie
	KindPlayer
	KindPoint
	KindRect
	KindVector3
	KindColor
	KindBitmap
	KindPalette
	KindSound
	KindSoundChannel
	KindCursor
	KindTimeout
	KindXtra
	KindXtraInstance
	KindXML
	KindDate
	KindVarRef
)

// ChunkKind identifies what a string-chunk view addresses.
type ChunkKind int

const (
	ChunkChar ChunkKind = iota
	ChunkWord
	ChunkItem
	ChunkLine
)

// Point, Rect, Vector3, Color, Date are small value structs carried
// inline inside a Datum (no handle indirection — they are copied by
// value like int/float, matching Lingo's point()/rect() semantics).
type Point struct{ X, Y float64 }
type Rect struct{ L, T, R, B float64 }
type Vector3 struct{ X, Y, Z float64 }
type Color struct{ R, G, B int }
type Date struct{ Year, Month, Day int }

// CastMemberRef identifies a member by (library, slot), both 1-based.
type CastMemberRef struct {
	Lib int
	Num int
}

// ScriptRef identifies a parsed script by the cast member that holds it.
type ScriptRef struct {
	Lib int
	Num int
}

// StringChunk is a view into a source string: kind of chunk and 1-based
// inclusive [Start,End] range. The item delimiter is not stored here;
// Extract, WithReplacement and WithDeletion take it as an argument.
type StringChunk struct {
	Source string
	Kind   ChunkKind
	Start  int
	End    int
}

// VarRef is an indirect handle to an assignable storage slot, pushed
// by pushVarRef/pushChunkVarRef and consumed by put/putChunk/
// deleteChunk/get/set (§4.1 "data mutation"). Class is one of the
// vm package's variable-class constants; Index is either a name-table
// index (global/prop/movieProp) or a raw encoded slot (param/local).
// HasChunk marks a chunk-of-variable reference, carrying the resolved
// source string and chunk range at the moment it was pushed.
type VarRef struct {
	Class    int
	Index    int
	HasChunk bool
	Chunk    StringChunk
}

// Datum is the single runtime value. Exactly one field group is valid
// per Kind; Handle indexes into the owning VM's arena for the
// shared-mutable and opaque-reference kinds.
type Datum struct {
	Kind   Kind
	Int    int
	Float  float64
	Str    string
	Handle int

	Point   Point
	Rect    Rect
	Vector3 Vector3
	Color   Color
	Date    Date
	Member  CastMemberRef
	Script  ScriptRef
	Chunk   StringChunk
	VarRef  VarRef
}

// Void is the zero-value voidness marker returned for a missing
// parameter, a failed lookup, or any other absent value.
var Void = Datum{Kind: KindVoid}

// Null is Lingo's explicit null/nil-like sentinel, distinct from Void.
var Null = Datum{Kind: KindNull}

func Int(n int) Datum       { return Datum{Kind: KindInt, Int: n} }
func Float(f float64) Datum { return Datum{Kind: KindFloat, Float: f} }
func Str(s string) Datum    { return Datum{Kind: KindString, Str: s} }
func Bool(b bool) Datum {
	if b {
		return Int(1)
	}
	return Int(0)
}

// Symbol builds a symbol datum holding name exactly as given in Str;
// #Foo and #foo still compare equal because SymbolEqual and Equal
// compare symbol names case-insensitively.
func Symbol(name string) Datum {
	return Datum{Kind: KindSymbol, Str: name}
}

func PointOf(x, y float64) Datum     { return Datum{Kind: KindPoint, Point: Point{x, y}} }
func RectOf(l, t, r, b float64) Datum { return Datum{Kind: KindRect, Rect: Rect{l, t, r, b}} }
func ColorOf(r, g, b int) Datum      { return Datum{Kind: KindColor, Color: Color{r, g, b}} }

func CastMember(lib, num int) Datum {
	return Datum{Kind: KindCastMember, Member: CastMemberRef{Lib: lib, Num: num}}
}

func Sprite(channel int) Datum { return Datum{Kind: KindSprite, Int: channel} }

// IsTruthy implements Lingo's logical-value rule: 0, void, null and the
// empty string are false; everything else is true.
func (d Datum) IsTruthy() bool {
	switch d.Kind {
	case KindVoid, KindNull:
		return false
	case KindInt:
		return d.Int != 0
	case KindFloat:
		return d.Float != 0
	case KindString:
		return d.Str != ""
	default:
		return true
	}
}

// symbolKey normalizes a symbol or string name for case-insensitive
// comparison/lookup (property names, symbol equality, string compares).
func symbolKey(s string) string { return strings.ToLower(s) }

// SymbolEqual reports whether two symbols are equal by name,
// case-insensitively, as required by spec §3/§8.
func SymbolEqual(a, b Datum) bool {
	return symbolKey(a.Str) == symbolKey(b.Str)
}

// AsInt coerces a Datum to an int per the numeric coercion rules:
// float truncates toward zero, string parses (0 on failure), void is 0,
// bool-as-int passes through.
func (d Datum) AsInt() int {
	switch d.Kind {
	case KindInt:
		return d.Int
	case KindFloat:
		return int(d.Float)
	case KindString:
		n, err := strconv.Atoi(strings.TrimSpace(d.Str))
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(d.Str), 64)
			if ferr == nil {
				return int(f)
			}
			return 0
		}
		return n
	default:
		return 0
	}
}

// AsFloat coerces a Datum to float64 per §3's numeric widening rules.
func (d Datum) AsFloat() float64 {
	switch d.Kind {
	case KindInt:
		return float64(d.Int)
	case KindFloat:
		return d.Float
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(d.Str), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// IsNumeric reports whether d is an int or float (used to decide integer
// vs string sort/compare semantics in the container method table).
func (d Datum) IsNumeric() bool { return d.Kind == KindInt || d.Kind == KindFloat }

// AsString coerces a Datum to its Lingo string form: void → "", numbers
// print without surprise trailing zeros, symbols print bare (no #).
func (d Datum) AsString() string {
	switch d.Kind {
	case KindVoid, KindNull:
		return ""
	case KindString:
		return d.Str
	case KindSymbol:
		return d.Str
	case KindInt:
		return strconv.Itoa(d.Int)
	case KindFloat:
		return strconv.FormatFloat(d.Float, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", d)
	}
}

// bothNumeric reports whether two datums can be compared/added using
// numeric promotion rules (both int/float) vs string rules.
func bothNumeric(a, b Datum) bool { return a.IsNumeric() && b.IsNumeric() }

// Add implements the `add` opcode's promotion rule: integer op with
// either operand a float promotes to float; otherwise string
// concatenation is handled by the VM's joinStr, not here.
func Add(a, b Datum) Datum {
	if bothNumeric(a, b) {
		if a.Kind == KindFloat || b.Kind == KindFloat {
			return Float(a.AsFloat() + b.AsFloat())
		}
		return Int(a.Int + b.Int)
	}
	return Float(a.AsFloat() + b.AsFloat())
}

func Sub(a, b Datum) Datum {
	if bothNumeric(a, b) {
		if a.Kind == KindFloat || b.Kind == KindFloat {
			return Float(a.AsFloat() - b.AsFloat())
		}
		return Int(a.Int - b.Int)
	}
	return Float(a.AsFloat() - b.AsFloat())
}

func Mul(a, b Datum) Datum {
	if bothNumeric(a, b) {
		if a.Kind == KindFloat || b.Kind == KindFloat {
			return Float(a.AsFloat() * b.AsFloat())
		}
		return Int(a.Int * b.Int)
	}
	return Float(a.AsFloat() * b.AsFloat())
}

// Compare implements the cross-type ordering used by lt/ltEq/gt/gtEq/eq/
// ntEq: numeric compare when both sides are numeric, case-insensitive
// string compare otherwise.
func Compare(a, b Datum) int {
	if bothNumeric(a, b) {
		af, bf := a.AsFloat(), b.AsFloat()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, bs := symbolKey(a.AsString()), symbolKey(b.AsString())
	return strings.Compare(as, bs)
}

// Equal implements `eq`/`ntEq` equality, including case-insensitive
// symbol/string comparison.
func Equal(a, b Datum) bool {
	if a.Kind == KindSymbol && b.Kind == KindSymbol {
		return SymbolEqual(a, b)
	}
	if bothNumeric(a, b) {
		return a.AsFloat() == b.AsFloat()
	}
	if (a.Kind == KindString || a.Kind == KindSymbol) && (b.Kind == KindString || b.Kind == KindSymbol) {
		return symbolKey(a.AsString()) == symbolKey(b.AsString())
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindVoid, KindNull:
		return true
	case KindPoint:
		return a.Point == b.Point
	case KindRect:
		return a.Rect == b.Rect
	case KindCastMember:
		return a.Member == b.Member
	case KindList, KindPropList, KindScriptInstance:
		return a.Handle == b.Handle
	default:
		return a == b
	}
}

// TypeName returns the `ilk`-style type predicate name for d.
func TypeName(d Datum) string {
	switch d.Kind {
	case KindVoid:
		return "void"
	case KindNull:
		return "null"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindList:
		return "list"
	case KindPropList:
		return "propList"
	case KindPoint:
		return "point"
	case KindRect:
		return "rect"
	case KindColor:
		return "color"
	case KindScriptInstance:
		return "instance"
	case KindCastMember:
		return "member"
	case KindSprite:
		return "sprite"
	case KindVector3:
		return "vector"
	default:
		return "object"
	}
}
