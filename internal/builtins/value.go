package builtins

import (
	"strconv"
	"strings"

	"lingoplayer/internal/datum"
	"lingoplayer/internal/vm"
)

// RegisterValue installs `value` and `symbol` (§4.2).
func RegisterValue(v *vm.VM) {
	v.RegisterBuiltin("value", valueFunc)
	v.RegisterBuiltin("symbol", symbolFunc)
}

func symbolFunc(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	return datum.Symbol(arg(args, 0).AsString()), nil
}

// valueFunc parses a Lingo literal expression (§4.2 "value"): lists,
// prop-lists, quoted strings, #symbols, numbers, VOID/TRUE/FALSE/EMPTY.
// Anything it can't recognize evaluates to void rather than erroring,
// matching Lingo's tolerant `value()` behavior.
func valueFunc(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	s := strings.TrimSpace(arg(args, 0).AsString())
	d, _ := parseValue(v, s)
	return d, nil
}

func parseValue(v *vm.VM, s string) (datum.Datum, string) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return datum.Void, s
	case strings.HasPrefix(s, "["):
		return parseListOrPropList(v, s)
	case strings.HasPrefix(s, "\""):
		return parseQuotedString(s)
	case strings.HasPrefix(s, "#"):
		return parseSymbol(s)
	case strings.EqualFold(s, "VOID"):
		return datum.Void, ""
	case strings.EqualFold(s, "TRUE"):
		return datum.Int(1), ""
	case strings.EqualFold(s, "FALSE"):
		return datum.Int(0), ""
	case strings.EqualFold(s, "EMPTY"):
		return datum.Str(""), ""
	default:
		return parseNumber(s)
	}
}

func parseNumber(s string) (datum.Datum, string) {
	end := 0
	for end < len(s) && (isDigit(s[end]) || s[end] == '.' || s[end] == '-' || s[end] == '+') {
		end++
	}
	tok, rest := s[:end], strings.TrimSpace(s[end:])
	if tok == "" {
		return datum.Void, rest
	}
	if n, err := strconv.Atoi(tok); err == nil {
		return datum.Int(n), rest
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return datum.Float(f), rest
	}
	return datum.Void, rest
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func parseQuotedString(s string) (datum.Datum, string) {
	if len(s) < 1 || s[0] != '"' {
		return datum.Void, s
	}
	i := 1
	var b strings.Builder
	for i < len(s) && s[i] != '"' {
		b.WriteByte(s[i])
		i++
	}
	if i < len(s) {
		i++
	}
	return datum.Str(b.String()), strings.TrimSpace(s[i:])
}

func parseSymbol(s string) (datum.Datum, string) {
	i := 1
	for i < len(s) && (isAlnum(s[i]) || s[i] == '_') {
		i++
	}
	return datum.Symbol(s[1:i]), strings.TrimSpace(s[i:])
}

func isAlnum(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// parseListOrPropList parses a bracketed literal starting at '[': a
// prop-list if its first element is "key: value", else a linear list.
func parseListOrPropList(v *vm.VM, s string) (datum.Datum, string) {
	s = s[1:] // consume '['
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "]") {
		return v.Arena.NewList(nil), strings.TrimSpace(s[1:])
	}
	if strings.HasPrefix(s, ":") {
		// "[:]" — the empty prop-list literal.
		s = strings.TrimSpace(s[1:])
		if strings.HasPrefix(s, "]") {
			return v.Arena.NewPropList(nil, nil), strings.TrimSpace(s[1:])
		}
	}

	var items []datum.Datum
	var keys []datum.Datum
	isProp := false
	for {
		var first datum.Datum
		first, s = parseValue(v, s)
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, ":") {
			isProp = true
			var val datum.Datum
			val, s = parseValue(v, strings.TrimSpace(s[1:]))
			keys = append(keys, first)
			items = append(items, val)
		} else {
			items = append(items, first)
		}
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, ",") {
			s = strings.TrimSpace(s[1:])
			continue
		}
		break
	}
	if strings.HasPrefix(s, "]") {
		s = s[1:]
	}
	if isProp {
		return v.Arena.NewPropList(keys, items), strings.TrimSpace(s)
	}
	return v.Arena.NewList(items), strings.TrimSpace(s)
}
