package vm

// variableMultiplier implements §4.1's version-dependent slot decoding:
// multiplier is 1 when the movie uses the "capital-X" layout flag, 8
// when director-version ≥ 500, else 6.
//
// Open Question (§9): when capital-X is set AND director-version ≥
// 500, capital-X always wins regardless of version — see DESIGN.md.
func (v *VM) variableMultiplier() int {
	if v.CapitalX {
		return 1
	}
	if v.DirectorVersion >= 500 {
		return 8
	}
	return 6
}

// slotIndex decodes a raw opcode argument that encodes a variable slot
// (local/param references) into a slot index.
func (v *VM) slotIndex(raw int) int {
	m := v.variableMultiplier()
	if m == 0 {
		return raw
	}
	return raw / m
}
