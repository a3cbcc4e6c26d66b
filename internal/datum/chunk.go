package datum

import "strings"

// splitChunks splits source into the pieces addressed by a given
// chunk kind, using itemDelim for KindItem (the "per-context item
// delimiter" of §4.2; default "," when empty) and returns them plus
// the separator used to rejoin them.
func splitChunks(source string, kind ChunkKind, itemDelim string) (pieces []string, sep string) {
	switch kind {
	case ChunkChar:
		pieces = make([]string, 0, len(source))
		for _, r := range source {
			pieces = append(pieces, string(r))
		}
		return pieces, ""
	case ChunkWord:
		return strings.Fields(source), " "
	case ChunkLine:
		return strings.Split(source, "\n"), "\n"
	case ChunkItem:
		if itemDelim == "" {
			itemDelim = ","
		}
		return strings.Split(source, itemDelim), itemDelim
	default:
		return []string{source}, ""
	}
}

// Extract returns the substring addressed by chunk (1-based inclusive
// range over the chunk kind's pieces); out-of-range indices clamp to
// the available pieces, matching Lingo's tolerant chunk-expression
// behavior rather than erroring.
func (c StringChunk) Extract(itemDelim string) string {
	pieces, sep := splitChunks(c.Source, c.Kind, itemDelim)
	start, end := clampRange(c.Start, c.End, len(pieces))
	if start > end {
		return ""
	}
	return strings.Join(pieces[start-1:end], sep)
}

// WithReplacement returns the full source string with the chunk's
// range replaced by replacement, for putChunk (§4.1).
func (c StringChunk) WithReplacement(replacement, itemDelim string) string {
	pieces, sep := splitChunks(c.Source, c.Kind, itemDelim)
	start, end := clampRange(c.Start, c.End, len(pieces))
	if start > end {
		return c.Source
	}
	out := append([]string{}, pieces[:start-1]...)
	out = append(out, replacement)
	out = append(out, pieces[end:]...)
	return strings.Join(out, sep)
}

// WithDeletion returns the source string with the chunk's range
// removed, for deleteChunk.
func (c StringChunk) WithDeletion(itemDelim string) string {
	pieces, sep := splitChunks(c.Source, c.Kind, itemDelim)
	start, end := clampRange(c.Start, c.End, len(pieces))
	if start > end {
		return c.Source
	}
	out := append([]string{}, pieces[:start-1]...)
	out = append(out, pieces[end:]...)
	return strings.Join(out, sep)
}

func clampRange(start, end, n int) (int, int) {
	if start < 1 {
		start = 1
	}
	if end > n {
		end = n
	}
	return start, end
}
