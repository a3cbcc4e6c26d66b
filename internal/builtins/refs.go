package builtins

import (
	"lingoplayer/internal/datum"
	"lingoplayer/internal/vm"
)

// RegisterRefs installs the reference constructors (§4.2: member,
// sprite, sound, castLib, script). Sound/castLib/script references
// reuse CastMember's (lib,num) shape since the host collaborator
// resolves their concrete kind from the cast registry, not the VM.
func RegisterRefs(v *vm.VM) {
	v.RegisterBuiltin("member", memberRef)
	v.RegisterBuiltin("sprite", spriteRef)
	v.RegisterBuiltin("sound", memberRef)
	v.RegisterBuiltin("castLib", castLibRef)
	v.RegisterBuiltin("script", memberRef)
}

// memberRef builds a member(num) or member(num, lib) reference; a bare
// number defaults to cast library 1 (the first one declared), per the
// cast registry's "first hit wins" search convention extended to the
// single-arg constructor form.
func memberRef(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	if len(args) >= 2 {
		return datum.CastMember(args[1].AsInt(), args[0].AsInt()), nil
	}
	if len(args) == 1 && args[0].Kind == datum.KindString {
		if lib, m := v.Registry.FindMemberByName(args[0].AsString()); m != nil {
			return datum.CastMember(lib, m.Num), nil
		}
		return datum.Void, nil
	}
	return datum.CastMember(1, arg(args, 0).AsInt()), nil
}

func spriteRef(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	return datum.Sprite(arg(args, 0).AsInt()), nil
}

func castLibRef(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	a := arg(args, 0)
	if a.Kind == datum.KindString {
		if lib := v.Registry.GetCastByName(a.AsString()); lib != nil {
			return datum.Datum{Kind: datum.KindCastLib, Int: lib.Number}, nil
		}
		return datum.Void, nil
	}
	return datum.Datum{Kind: datum.KindCastLib, Int: a.AsInt()}, nil
}
